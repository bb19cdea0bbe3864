package relstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// changesChannel carries the uid of every user whose subtree changed, so
// watchers on any instance see writes made by any other instance.
const changesChannel = "relstore:changes"

// RedisStore keeps each branch in a Redis hash. A submission runs in one
// MULTI/EXEC pipeline, so all of its commands apply back to back with no
// other client interleaved, matching the Store contract.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(branch string) string {
	return strings.ReplaceAll(branch, "/", ":")
}

func (s *RedisStore) Read(ctx context.Context, path string) (json.RawMessage, error) {
	branch, leaf, err := SplitPath(path)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.HGet(ctx, redisKey(branch), leaf).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return json.RawMessage(raw), nil
}

func (s *RedisStore) ReadBranch(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	entries, err := s.client.HGetAll(ctx, redisKey(path)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make(map[string]json.RawMessage, len(entries))
	for leaf, raw := range entries {
		out[leaf] = json.RawMessage(raw)
	}
	return out, nil
}

func (s *RedisStore) Write(ctx context.Context, ws WriteSet) error {
	if len(ws) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for path, v := range ws {
		branch, leaf, err := SplitPath(path)
		if err != nil {
			return err
		}
		key := redisKey(branch)
		if v == nil {
			pipe.HDel(ctx, key, leaf)
			continue
		}
		raw, err := encodeValue(v)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, key, leaf, string(raw))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, uid := range ws.UIDs() {
		if err := s.client.Publish(ctx, changesChannel, uid).Err(); err != nil {
			// The write already landed; watchers will catch up on the
			// next event for this uid.
			log.Warn().Err(err).Str("uid", uid).Msg("Failed to publish store change")
		}
	}
	return nil
}

func (s *RedisStore) Watch(ctx context.Context) (<-chan Event, func()) {
	sub := s.client.Subscribe(ctx, changesChannel)
	ch := make(chan Event, 64)

	go func() {
		defer close(ch)
		for msg := range sub.Channel() {
			select {
			case ch <- Event{UID: msg.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		if err := sub.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing store watch subscription")
		}
	}
	return ch, cancel
}
