package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"catalog/sync/internal/domain/task"
	"catalog/sync/internal/queue"

	log "github.com/sirupsen/logrus"
)

var publishType = (*task.PublishTask)(nil).TaskType()

// taskHandler runs one decoded task. A returned error leaves the message
// pending so it is claimed again later.
type taskHandler func(ctx context.Context, data []byte) error

func (s *Service) taskHandlers() map[string]taskHandler {
	return map[string]taskHandler{
		publishType: s.handlePublish,
		(*task.PublishRetryTask)(nil).TaskType(): s.handleRetry,
	}
}

// RunWorkers consumes publish tasks until ctx is done. Fresh publishes get
// numWorkers consumers, every other task type gets one.
func (s *Service) RunWorkers(ctx context.Context, numWorkers int) error {
	if s.deps.Queue == nil || s.deps.Publisher == nil {
		return fmt.Errorf("publish workers need a queue and a publisher")
	}

	var wg sync.WaitGroup
	for _, taskType := range task.Types {
		consumers := 1
		if taskType == publishType {
			consumers = max(1, numWorkers)
		}
		for i := 1; i <= consumers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.consume(ctx, taskType, fmt.Sprintf("%s-%d", taskType, i))
			}()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.reclaim(ctx, taskType)
		}()
	}
	log.Infof("🚀 Publish workers started for %v", task.Types)

	wg.Wait()
	log.Info("🛑 Publish workers stopped")
	return nil
}

func (s *Service) consume(ctx context.Context, taskType, consumer string) {
	for ctx.Err() == nil {
		msg, err := s.deps.Queue.Read(ctx, taskType, consumer)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Errorf("❌ Failed to read %s tasks: %v", taskType, err)
			if !pause(ctx, s.opts.PollBackoff) {
				return
			}
			continue
		}
		if msg == nil {
			continue
		}
		if err := s.handle(ctx, *msg); err != nil {
			log.Errorf("❌ Task %s failed: %v", msg.ID, err)
		}
	}
}

// reclaim picks up tasks of consumers that died before acknowledging
func (s *Service) reclaim(ctx context.Context, taskType string) {
	ticker := time.NewTicker(s.opts.MinIdleTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		messages, err := s.deps.Queue.Claim(ctx, taskType, "reclaimer-"+taskType, s.opts.MinIdleTime)
		if err != nil {
			log.Errorf("❌ Failed to claim stale %s tasks: %v", taskType, err)
			continue
		}
		for _, msg := range messages {
			log.Infof("🔄 Reclaimed task %s", msg.ID)
			if err := s.handle(ctx, msg); err != nil {
				log.Errorf("❌ Reclaimed task %s failed: %v", msg.ID, err)
			}
		}
	}
}

func (s *Service) handle(ctx context.Context, msg queue.Message) error {
	h, ok := s.handlers[msg.TaskType]
	if !ok {
		return fmt.Errorf("no handler for task type %q", msg.TaskType)
	}
	if err := h(ctx, msg.Data); err != nil {
		return err
	}
	return s.deps.Queue.Ack(ctx, msg)
}

func (s *Service) handlePublish(ctx context.Context, data []byte) error {
	t, err := task.UnmarshalTask[*task.PublishTask](data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal publish task: %w", err)
	}

	err = s.publish(ctx, t.FilePath, t.FileName)
	if err == nil {
		return nil
	}

	// a failed publish moves to the retry stream, the original is done
	retry := &task.PublishRetryTask{
		GeneratedAt: t.GeneratedAt,
		FilePath:    t.FilePath,
		FileName:    t.FileName,
		Error:       err.Error(),
	}
	if _, addErr := s.deps.Queue.Enqueue(ctx, retry); addErr != nil {
		return fmt.Errorf("failed to queue retry of %s: %w", t.FileName, addErr)
	}
	log.Warnf("🔄 Publish of %s from %s queued for retry: %v", t.FileName, t.GeneratedAt, err)
	return nil
}

func (s *Service) handleRetry(ctx context.Context, data []byte) error {
	t, err := task.UnmarshalTask[*task.PublishRetryTask](data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal retry task: %w", err)
	}
	t.RetryCount++

	if s.superseded(ctx, t.GeneratedAt) {
		log.Infof("⏭️ Dropping retry of %s, a newer catalog exists", t.GeneratedAt)
		return nil
	}

	if s.opts.RetryDelay > 0 && !pause(ctx, s.opts.RetryDelay*time.Duration(t.RetryCount)) {
		return ctx.Err()
	}

	log.Infof("🔄 Retrying publish of %s (attempt %d)", t.FileName, t.RetryCount)

	err = s.publish(ctx, t.FilePath, t.FileName)
	if err == nil {
		log.Infof("✅ Published %s after %d retries", t.FileName, t.RetryCount)
		return nil
	}

	if s.opts.MaxRetries > 0 && t.RetryCount >= s.opts.MaxRetries {
		log.Errorf("❌ Giving up publish of %s after %d attempts: %v", t.FileName, t.RetryCount, err)
		return nil
	}

	t.Error = err.Error()
	if _, addErr := s.deps.Queue.Enqueue(ctx, t); addErr != nil {
		return fmt.Errorf("failed to requeue retry of %s: %w", t.FileName, addErr)
	}
	log.Warnf("🔄 Publish of %s failed again (attempt %d): %v", t.FileName, t.RetryCount, err)
	return nil
}

func (s *Service) publish(ctx context.Context, path, fileName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	id, err := s.deps.Publisher.Publish(ctx, fileName, data)
	if err != nil {
		return err
	}

	log.Infof("✅ Published %s as %s", fileName, id)
	return nil
}

// superseded reports whether a later run has been recorded. Generation
// times are RFC3339 in UTC, so they order as strings.
func (s *Service) superseded(ctx context.Context, generatedAt string) bool {
	if s.deps.StateManager == nil {
		return false
	}
	last, err := s.deps.StateManager.GetLastRun(ctx)
	if err != nil || last == nil {
		return false
	}
	return last.GeneratedAt > generatedAt
}

// publishTarget is one file that goes to the knowledge store
type publishTarget struct {
	path string
	name string
}

// publishTargets lists the public product list followed by the static
// knowledge files, which keep their base name in the store.
func (s *Service) publishTargets() []publishTarget {
	targets := []publishTarget{{path: s.opts.ProductsPath, name: s.opts.PublishFileName}}
	for _, path := range s.opts.ExtraFiles {
		targets = append(targets, publishTarget{path: path, name: filepath.Base(path)})
	}
	return targets
}

// PublishLatest pushes the last written product list and the static
// knowledge files right away, without going through the queue.
func (s *Service) PublishLatest(ctx context.Context) error {
	if s.deps.Publisher == nil {
		return fmt.Errorf("no publisher configured")
	}

	var errs []error
	for _, target := range s.publishTargets() {
		if err := s.publish(ctx, target.path, target.name); err != nil {
			log.Errorf("❌ Failed to publish %s: %v", target.name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// pause waits for d and reports false when ctx ended first
func pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
