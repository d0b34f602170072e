package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog/sync/internal/catalog"
	"catalog/sync/internal/client"
	"catalog/sync/internal/domain/task"
	"catalog/sync/internal/output"
	"catalog/sync/internal/queue"
	"catalog/sync/internal/repository"
	"catalog/sync/internal/state"

	log "github.com/sirupsen/logrus"
)

// ErrRunInProgress is returned when a sync is started while another one in
// this process has not finished.
var ErrRunInProgress = errors.New("sync run already in progress")

// Dependencies are the collaborators of a Service. Repository, Queue,
// StateManager and Publisher are optional.
type Dependencies struct {
	Loader       client.Loader
	Pipeline     *catalog.Pipeline
	Writer       output.Writer
	Repository   repository.SnapshotRepository
	Queue        queue.Queue
	StateManager state.StateManager
	Lock         state.RunLock
	Publisher    client.KnowledgePublisher
}

type Options struct {
	LockTTL         time.Duration
	Publish         bool
	ProductsPath    string // where the writer puts the public product list
	PublishFileName string
	// ExtraFiles are static knowledge files published along with every run
	ExtraFiles  []string
	MinIdleTime time.Duration
	// PollBackoff is the pause after a failed queue read
	PollBackoff time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

type Service struct {
	deps Dependencies
	opts Options

	running  sync.Mutex
	now      func() time.Time
	handlers map[string]taskHandler
}

func NewService(deps Dependencies, opts Options) *Service {
	if deps.Lock == nil {
		deps.Lock = state.NoopRunLock{}
	}
	if opts.MinIdleTime <= 0 {
		opts.MinIdleTime = 2 * time.Minute
	}
	if opts.PollBackoff <= 0 {
		opts.PollBackoff = time.Second
	}
	s := &Service{
		deps: deps,
		opts: opts,
		now:  time.Now,
	}
	s.handlers = s.taskHandlers()
	return s
}

// Report summarizes one finished sync run
type Report struct {
	Result  *catalog.Result
	Paths   []string
	Summary state.RunSummary
}

// Sync runs one full synchronization: load every export, rebuild the
// catalog, write the artifacts and hand them to the optional sinks.
// Nothing is written when loading fails.
func (s *Service) Sync(ctx context.Context) (*Report, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	release, err := s.deps.Lock.Acquire(ctx, s.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		// the run context may already be cancelled
		if err := release(context.Background()); err != nil {
			log.Warnf("⚠️ %v", err)
		}
	}()

	started := s.now()
	log.Info("🔄 Starting catalog sync...")

	input, err := s.deps.Loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}

	result := s.deps.Pipeline.Run(input)
	if n := result.Stats.Recoveries(); n > 0 {
		log.WithFields(result.Stats.Fields()).Warnf("⚠️ Catalog built with %d recoveries", n)
	} else {
		log.WithFields(result.Stats.Fields()).Info("📊 Catalog built")
	}

	artifacts, err := output.Encode(result.Catalog, result.PublicProducts)
	if err != nil {
		return nil, err
	}
	paths, err := s.deps.Writer.Write(artifacts)
	if err != nil {
		return nil, fmt.Errorf("failed to write artifacts: %w", err)
	}

	report := &Report{
		Result: result,
		Paths:  paths,
		Summary: state.RunSummary{
			GeneratedAt:    result.Catalog.Metadata.GeneratedAt,
			Products:       result.Catalog.Metadata.TotalProducts,
			PublicProducts: len(result.PublicProducts),
			Categories:     result.Catalog.Metadata.ActiveCategories,
			Recoveries:     result.Stats.Recoveries(),
			DurationMillis: s.now().Sub(started).Milliseconds(),
		},
	}

	// artifacts are final from here on, sink failures are reported together
	var errs []error

	if s.deps.Repository != nil {
		if err := s.deps.Repository.SaveSnapshot(ctx, result.Catalog, result.PublicProducts); err != nil {
			log.Errorf("❌ Failed to save snapshot: %v", err)
			errs = append(errs, err)
		} else {
			log.Info("✅ Snapshot saved")
		}
	}

	if s.deps.StateManager != nil {
		if err := s.deps.StateManager.SetLastRun(ctx, report.Summary); err != nil {
			log.Errorf("❌ Failed to record run: %v", err)
			errs = append(errs, err)
		}
	}

	if s.opts.Publish && s.deps.Queue != nil {
		if err := s.enqueuePublish(ctx, report); err != nil {
			log.Errorf("❌ Failed to queue publish: %v", err)
			errs = append(errs, err)
		}
	}

	log.Infof("✅ Sync finished: %d products, %d public, %d categories in %dms",
		report.Summary.Products, report.Summary.PublicProducts, report.Summary.Categories, report.Summary.DurationMillis)

	return report, errors.Join(errs...)
}

// enqueuePublish queues one task per knowledge file so each is retried on its own
func (s *Service) enqueuePublish(ctx context.Context, report *Report) error {
	for _, target := range s.publishTargets() {
		_, err := s.deps.Queue.Enqueue(ctx, &task.PublishTask{
			GeneratedAt: report.Summary.GeneratedAt,
			FilePath:    target.path,
			FileName:    target.name,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
