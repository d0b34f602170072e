package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/sync/internal/config"
	"catalog/sync/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const streamPrefix = "catalog:stream:"

// Stream message fields
const (
	fieldType = "task_type"
	fieldData = "task_data"
)

// StreamName returns the stream a task type is queued on
func StreamName(taskType string) string {
	return streamPrefix + taskType
}

// Message is a task read back from its stream
type Message struct {
	ID       string
	TaskType string
	Data     []byte
}

// Queue hands out tasks to one consumer group. A message is redelivered
// until it is acknowledged.
type Queue interface {
	Enqueue(ctx context.Context, t task.Task) (string, error)
	// Read waits for the next new task of a type, nil when none arrived
	Read(ctx context.Context, taskType, consumer string) (*Message, error)
	// Claim takes over tasks another consumer left pending for minIdle
	Claim(ctx context.Context, taskType, consumer string, minIdle time.Duration) ([]Message, error)
	Ack(ctx context.Context, msg Message) error
}

type RedisQueue struct {
	rdb   *redis.Client
	group string
	block time.Duration
}

// NewRedisQueue creates the stream and consumer group of every task type
func NewRedisQueue(ctx context.Context, rdb *redis.Client, cfg config.RedisConfig) (*RedisQueue, error) {
	q := &RedisQueue{
		rdb:   rdb,
		group: cfg.ConsumerGroup,
		block: 5 * time.Second,
	}

	for _, taskType := range task.Types {
		err := rdb.XGroupCreateMkStream(ctx, StreamName(taskType), q.group, "0").Err()
		if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
			return nil, fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}
	}
	log.Infof("✅ Streams for %s ready in group %s", strings.Join(task.Types, ", "), q.group)

	return q, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, t task.Task) (string, error) {
	data, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	stream := StreamName(t.TaskType())
	id, err := q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{fieldType: t.TaskType(), fieldData: string(data)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to %s: %w", stream, err)
	}

	log.Debugf("Queued %s as %s", t.TaskType(), id)
	return id, nil
}

func (q *RedisQueue) Read(ctx context.Context, taskType, consumer string) (*Message, error) {
	stream := StreamName(taskType)
	result, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read from %s: %w", stream, err)
	}

	for _, s := range result {
		messages := q.decode(ctx, taskType, s.Messages)
		if len(messages) > 0 {
			return &messages[0], nil
		}
	}
	return nil, nil
}

func (q *RedisQueue) Claim(ctx context.Context, taskType, consumer string, minIdle time.Duration) ([]Message, error) {
	stream := StreamName(taskType)
	result, _, err := q.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim from %s: %w", stream, err)
	}

	return q.decode(ctx, taskType, result), nil
}

func (q *RedisQueue) Ack(ctx context.Context, msg Message) error {
	if err := q.rdb.XAck(ctx, StreamName(msg.TaskType), q.group, msg.ID).Err(); err != nil {
		return fmt.Errorf("failed to ack %s: %w", msg.ID, err)
	}
	return nil
}

// decode unpacks stream entries. Entries without a type or payload can
// never be handled and are acknowledged right away.
func (q *RedisQueue) decode(ctx context.Context, taskType string, entries []redis.XMessage) []Message {
	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		kind, _ := entry.Values[fieldType].(string)
		data, ok := entry.Values[fieldData].(string)
		if kind == "" || !ok {
			log.Warnf("⚠️ Dropping malformed message %s from %s", entry.ID, StreamName(taskType))
			if err := q.rdb.XAck(ctx, StreamName(taskType), q.group, entry.ID).Err(); err != nil {
				log.Errorf("❌ Failed to ack malformed message %s: %v", entry.ID, err)
			}
			continue
		}
		messages = append(messages, Message{ID: entry.ID, TaskType: kind, Data: []byte(data)})
	}
	return messages
}
