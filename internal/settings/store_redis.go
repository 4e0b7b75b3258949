package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	campusredis "campus/internal/platform/redis"
	"campus/pkg/platform/sentinel"
)

// RedisStore keeps each settings document as a JSON string key.
type RedisStore struct {
	client *campusredis.Client
}

func NewRedisStore(client *campusredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Certificate(ctx context.Context) (CertificateSettings, error) {
	var out CertificateSettings
	err := s.get(ctx, "certificate", &out)
	return out, err
}

func (s *RedisStore) SaveCertificate(ctx context.Context, settings CertificateSettings) error {
	return s.set(ctx, "certificate", settings)
}

func (s *RedisStore) Commission(ctx context.Context) (CommissionSettings, error) {
	var out CommissionSettings
	err := s.get(ctx, "commission", &out)
	return out, err
}

func (s *RedisStore) SaveCommission(ctx context.Context, settings CommissionSettings) error {
	return s.set(ctx, "commission", settings)
}

func (s *RedisStore) get(ctx context.Context, name string, dest any) error {
	raw, err := s.client.Get(ctx, s.client.Key("settings", name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s settings: %w", name, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s settings: %w", name, err)
	}
	return nil
}

func (s *RedisStore) set(ctx context.Context, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s settings: %w", name, err)
	}
	if err := s.client.Set(ctx, s.client.Key("settings", name), raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s settings: %w", name, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
