// Package redis provides a checkpoint store backed by Redis.
//
// Each checkpoint is a JSON string at <prefix>checkpoint:<id>. A sorted set at
// <prefix>thread:<thread id>:checkpoints indexes the thread's checkpoints by
// version, so Latest is a single ZREVRANGE.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/collabgraph/store"
)

// RedisCheckpointStore implements store.CheckpointStore using Redis
type RedisCheckpointStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ store.CheckpointStore = (*RedisCheckpointStore)(nil)

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "collabgraph:"
	TTL      time.Duration // Expiration for checkpoints, default 0 (no expiration)
}

// NewRedisCheckpointStore creates a new Redis checkpoint store
func NewRedisCheckpointStore(opts RedisOptions) *RedisCheckpointStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisCheckpointStoreWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisCheckpointStoreWithClient wraps an existing client. The caller keeps
// ownership of the client.
func NewRedisCheckpointStoreWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCheckpointStore {
	if prefix == "" {
		prefix = "collabgraph:"
	}
	return &RedisCheckpointStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisCheckpointStore) checkpointKey(id string) string {
	return fmt.Sprintf("%scheckpoint:%s", s.prefix, id)
}

func (s *RedisCheckpointStore) threadKey(id string) string {
	return fmt.Sprintf("%sthread:%s:checkpoints", s.prefix, id)
}

// Save stores a checkpoint
func (s *RedisCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return errors.New("checkpoint must have an ID")
	}
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	threadKey := s.threadKey(checkpoint.ThreadID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.checkpointKey(checkpoint.ID), data, s.ttl)
	pipe.ZAdd(ctx, threadKey, redis.Z{Score: float64(checkpoint.Version), Member: checkpoint.ID})
	if s.ttl > 0 {
		pipe.Expire(ctx, threadKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint to redis: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID
func (s *RedisCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.checkpointKey(checkpointID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, checkpointID)
		}
		return nil, fmt.Errorf("failed to load checkpoint from redis: %w", err)
	}

	var checkpoint store.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// Latest returns the highest-version checkpoint of a thread. Index entries
// whose checkpoint has expired are skipped.
func (s *RedisCheckpointStore) Latest(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	ids, err := s.client.ZRevRange(ctx, s.threadKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read thread index %s: %w", threadID, err)
	}
	for _, id := range ids {
		cp, err := s.Load(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		return cp, err
	}
	return nil, fmt.Errorf("%w: thread %s", store.ErrNotFound, threadID)
}

// List returns all checkpoints for a thread ordered by version
func (s *RedisCheckpointStore) List(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	ids, err := s.client.ZRange(ctx, s.threadKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints for thread %s: %w", threadID, err)
	}
	if len(ids) == 0 {
		return []*store.Checkpoint{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.checkpointKey(id)
	}

	// MGet returns nil for expired keys
	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoints: %w", err)
	}

	checkpoints := make([]*store.Checkpoint, 0, len(results))
	for _, result := range results {
		strData, ok := result.(string)
		if !ok {
			continue
		}
		var checkpoint store.Checkpoint
		if err := json.Unmarshal([]byte(strData), &checkpoint); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, &checkpoint)
	}
	store.SortByVersion(checkpoints)
	return checkpoints, nil
}

// Clear removes all checkpoints for a thread
func (s *RedisCheckpointStore) Clear(ctx context.Context, threadID string) error {
	threadKey := s.threadKey(threadID)
	ids, err := s.client.ZRange(ctx, threadKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to get checkpoints for clearing: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.checkpointKey(id))
	}
	pipe.Del(ctx, threadKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisCheckpointStore) Close() error {
	return s.client.Close()
}
