package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"catalog/sync/internal/catalog"
	"catalog/sync/internal/domain"
	"catalog/sync/internal/domain/task"
	"catalog/sync/internal/queue"
	"catalog/sync/internal/state"
)

type fakeLoader struct {
	input catalog.Input
	err   error
	calls atomic.Int32
	// when block is set Load closes started and waits for block
	started chan struct{}
	block   chan struct{}
}

func (f *fakeLoader) Load(ctx context.Context) (catalog.Input, error) {
	f.calls.Add(1)
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	return f.input, f.err
}

type fakeRepository struct {
	saved []*domain.Catalog
	err   error
}

func (f *fakeRepository) EnsureSchema(ctx context.Context) error { return nil }

func (f *fakeRepository) SaveSnapshot(ctx context.Context, c *domain.Catalog, products []domain.PublicProduct) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, c)
	return nil
}

type fakeState struct {
	last *state.RunSummary
}

func (f *fakeState) GetLastRun(ctx context.Context) (*state.RunSummary, error) { return f.last, nil }

func (f *fakeState) SetLastRun(ctx context.Context, summary state.RunSummary) error {
	f.last = &summary
	return nil
}

type fakeLock struct {
	held     atomic.Bool
	released atomic.Int32
}

func (f *fakeLock) Acquire(ctx context.Context, ttl time.Duration) (func(context.Context) error, error) {
	if !f.held.CompareAndSwap(false, true) {
		return nil, state.ErrLockHeld
	}
	return func(context.Context) error {
		f.held.Store(false)
		f.released.Add(1)
		return nil
	}, nil
}

// fakeQueue records queued tasks and acks. Reads block until ctx is done
// unless readErr is set.
type fakeQueue struct {
	mu      sync.Mutex
	added   []task.Task
	acked   []string
	err     error
	readErr error
	reads   atomic.Int32
}

func (q *fakeQueue) Enqueue(ctx context.Context, t task.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.added = append(q.added, t)
	return "1-0", nil
}

func (q *fakeQueue) Read(ctx context.Context, taskType, consumer string) (*queue.Message, error) {
	q.reads.Add(1)
	if q.readErr != nil {
		return nil, q.readErr
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *fakeQueue) Claim(ctx context.Context, taskType, consumer string, minIdle time.Duration) ([]queue.Message, error) {
	return nil, nil
}

func (q *fakeQueue) Ack(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, msg.TaskType+"/"+msg.ID)
	return nil
}

type fakePublisher struct {
	published map[string]string
	failures  int
}

func (p *fakePublisher) Publish(ctx context.Context, fileName string, data []byte) (string, error) {
	if p.failures > 0 {
		p.failures--
		return "", errors.New("vector store unavailable")
	}
	if p.published == nil {
		p.published = map[string]string{}
	}
	p.published[fileName] = string(data)
	return "file-1", nil
}

func message(t task.Task) queue.Message {
	data, _ := json.Marshal(t)
	return queue.Message{ID: "7-0", TaskType: t.TaskType(), Data: data}
}
