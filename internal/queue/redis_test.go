package queue

import (
	"context"
	"testing"
	"time"

	"catalog/sync/internal/config"
	"catalog/sync/internal/domain/task"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGroup = "catalog_publisher"

func newQueue(t *testing.T) (*miniredis.Miniredis, *redis.Client, *RedisQueue) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	q, err := NewRedisQueue(context.Background(), rdb, config.RedisConfig{ConsumerGroup: testGroup})
	require.NoError(t, err)
	q.block = 10 * time.Millisecond
	return mr, rdb, q
}

func TestNewRedisQueue_CreatesStreams(t *testing.T) {
	mr, rdb, _ := newQueue(t)

	for _, taskType := range task.Types {
		assert.True(t, mr.Exists(StreamName(taskType)), taskType)
	}

	// groups that already exist are reused
	_, err := NewRedisQueue(context.Background(), rdb, config.RedisConfig{ConsumerGroup: testGroup})
	assert.NoError(t, err)
}

func TestRedisQueue_RoundTrip(t *testing.T) {
	_, _, q := newQueue(t)
	ctx := context.Background()

	sent := &task.PublishTask{GeneratedAt: "2026-03-01T12:00:00Z", FilePath: "/data/productos.json", FileName: "productos.json"}
	id, err := q.Enqueue(ctx, sent)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msg, err := q.Read(ctx, sent.TaskType(), "worker-1")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, "PublishTask", msg.TaskType)

	got, err := task.UnmarshalTask[*task.PublishTask](msg.Data)
	require.NoError(t, err)
	assert.Equal(t, sent, got)

	require.NoError(t, q.Ack(ctx, *msg))

	msg, err = q.Read(ctx, sent.TaskType(), "worker-1")
	require.NoError(t, err)
	assert.Nil(t, msg)

	claimed, err := q.Claim(ctx, sent.TaskType(), "claimer", 0)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestRedisQueue_Claim(t *testing.T) {
	_, _, q := newQueue(t)
	ctx := context.Background()
	taskType := (*task.PublishRetryTask)(nil).TaskType()

	_, err := q.Enqueue(ctx, &task.PublishRetryTask{FileName: "productos.json", RetryCount: 1})
	require.NoError(t, err)

	// read but never acknowledged
	msg, err := q.Read(ctx, taskType, "crashed-worker")
	require.NoError(t, err)
	require.NotNil(t, msg)

	claimed, err := q.Claim(ctx, taskType, "claimer", 0)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, *msg, claimed[0])
}

func TestRedisQueue_DropsMalformedMessages(t *testing.T) {
	_, rdb, q := newQueue(t)
	ctx := context.Background()
	taskType := (*task.PublishTask)(nil).TaskType()

	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName(taskType),
		Values: map[string]any{fieldData: "{}"},
	}).Err())

	msg, err := q.Read(ctx, taskType, "worker-1")
	require.NoError(t, err)
	assert.Nil(t, msg)

	// acknowledged, so nobody picks it up again
	claimed, err := q.Claim(ctx, taskType, "claimer", 0)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}
