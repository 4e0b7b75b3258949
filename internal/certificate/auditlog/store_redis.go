package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	campusredis "campus/internal/platform/redis"
)

// RedisStore keeps the log in a single Redis list. Appends push and trim in
// one MULTI so the cap holds under concurrent writers.
type RedisStore struct {
	client *campusredis.Client
	key    string
}

func NewRedisStore(client *campusredis.Client) *RedisStore {
	return &RedisStore{client: client, key: client.Key("verification_log")}
}

func (s *RedisStore) Append(ctx context.Context, attempt Attempt, limit int) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key, payload)
		if limit > 0 {
			pipe.LTrim(ctx, s.key, int64(-limit), -1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Attempt, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read verification log: %w", err)
	}
	attempts := make([]Attempt, 0, len(raw))
	for _, item := range raw {
		var a Attempt
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

var _ Store = (*RedisStore)(nil)
