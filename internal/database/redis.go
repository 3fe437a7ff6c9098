package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"studynotes-dashboard/internal/models"
)

const watchQueue = "queue:watch"

type RedisClients struct {
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Queue client
	queueClient := redis.NewClient(opt)
	if err := queueClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis (queue): %w", err)
	}

	// PubSub client (separate connection)
	pubsubOpt := *opt
	pubsubClient := redis.NewClient(&pubsubOpt)
	if err := pubsubClient.Ping(ctx).Err(); err != nil {
		queueClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{
		Queue:  queueClient,
		PubSub: pubsubClient,
	}, nil
}

func (r *RedisClients) Close() {
	r.Queue.Close()
	r.PubSub.Close()
}

func UserChannel(userKey string) string {
	return "user_updates:" + userKey
}

func viewKey(userKey, noteID string) string {
	return fmt.Sprintf("note_view:%s:%s", userKey, noteID)
}

// Enqueue pushes a watch job for the pool.
func (r *RedisClients) Enqueue(ctx context.Context, job models.WatchJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.Queue.LPush(ctx, watchQueue, data).Err()
}

// Dequeue blocks up to timeout for the next job. It returns nil, nil when
// the wait times out.
func (r *RedisClients) Dequeue(ctx context.Context, timeout time.Duration) (*models.WatchJob, error) {
	result, err := r.Queue.BRPop(ctx, timeout, watchQueue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}

	var job models.WatchJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to parse watch job: %w", err)
	}
	return &job, nil
}

// Lock claims key for the holder identified by token.
func (r *RedisClients) Lock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return r.Queue.SetNX(ctx, key, token, ttl).Result()
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Unlock releases key only while token still holds it.
func (r *RedisClients) Unlock(ctx context.Context, key, token string) {
	unlockScript.Run(ctx, r.Queue, []string{key}, token)
}

// Publish sends a WebSocket message to every dashboard tab of a user and
// reports how many server subscriptions received it.
func (r *RedisClients) Publish(ctx context.Context, userKey string, msg models.WSMessage) (int64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}
	return r.Queue.Publish(ctx, UserChannel(userKey), data).Result()
}

// Subscribe streams payloads published for userKey until stop is called.
func (r *RedisClients) Subscribe(ctx context.Context, userKey string) (<-chan []byte, func()) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := r.PubSub.Subscribe(ctx, UserChannel(userKey))
	out := make(chan []byte)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, cancel
}

func (r *RedisClients) CacheView(ctx context.Context, userKey, noteID string, view any, ttl time.Duration) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return r.Queue.Set(ctx, viewKey(userKey, noteID), data, ttl).Err()
}

// CachedView returns the cached JSON view, or nil when nothing is cached.
func (r *RedisClients) CachedView(ctx context.Context, userKey, noteID string) ([]byte, error) {
	data, err := r.Queue.Get(ctx, viewKey(userKey, noteID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

func (r *RedisClients) InvalidateView(ctx context.Context, userKey, noteID string) {
	r.Queue.Del(ctx, viewKey(userKey, noteID))
}
