package state

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ErrLockHeld is returned when another run owns the lock
var ErrLockHeld = errors.New("run lock is held by another process")

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry forward only while the key carries our token
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type RunLock interface {
	// Acquire takes the lock and keeps extending it by ttl until release,
	// so a crashed holder blocks others for at most ttl. The returned
	// release func is safe to call after the lock was lost.
	Acquire(ctx context.Context, ttl time.Duration) (release func(context.Context) error, err error)
}

type redisRunLock struct {
	redisClient *redis.Client
	key         string
}

func NewRedisRunLock(redisClient *redis.Client) RunLock {
	return &redisRunLock{
		redisClient: redisClient,
		key:         "catalog:sync:lock",
	}
}

func (l *redisRunLock) Acquire(ctx context.Context, ttl time.Duration) (func(context.Context) error, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	ok, err := l.redisClient.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(token, ttl, stop, done)

	var once sync.Once
	release := func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
		})
		if err := releaseScript.Run(ctx, l.redisClient, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release run lock: %w", err)
		}
		return nil
	}
	return release, nil
}

// keepAlive renews the lock every third of its ttl until stop is closed or
// the lock turns out to belong to someone else
func (l *redisRunLock) keepAlive(token string, ttl time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := ttl / 3
	if interval <= 0 {
		<-stop
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		extended, err := extendScript.Run(ctx, l.redisClient, []string{l.key}, token, ttl.Milliseconds()).Int()
		cancel()
		if err != nil {
			log.Warnf("⚠️ Failed to extend run lock: %v", err)
			continue
		}
		if extended == 0 {
			log.Warn("⚠️ Run lock expired while the run was going, another run may start")
			return
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NoopRunLock always succeeds, for single-process setups without Redis
type NoopRunLock struct{}

func (NoopRunLock) Acquire(ctx context.Context, ttl time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
