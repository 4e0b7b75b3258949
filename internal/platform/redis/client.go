package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"campus/internal/platform/config"
)

var (
	poolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_redis_pool_total_conns",
		Help: "Number of total connections in the pool",
	})
	poolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_redis_pool_idle_conns",
		Help: "Number of idle connections in the pool",
	})
	poolTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_redis_pool_timeouts_total",
		Help: "Number of times a connection was not obtained due to timeout",
	})
)

// Client is a go-redis client plus the key prefix shared by all campus keys.
type Client struct {
	redis.UniversalClient
	prefix       string
	lastTimeouts uint32
}

// New connects to Redis. It returns nil, nil when no URL is configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{UniversalClient: client, prefix: cfg.KeyPrefix}, nil
}

// Wrap adapts an existing client, as tests do with a container address.
func Wrap(client redis.UniversalClient, prefix string) *Client {
	return &Client{UniversalClient: client, prefix: prefix}
}

// Key joins parts with ":" under the configured prefix.
func (c *Client) Key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// RecordPoolStats exports pool statistics every interval until ctx ends.
func (c *Client) RecordPoolStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := c.PoolStats()
			poolTotalConns.Set(float64(stats.TotalConns))
			poolIdleConns.Set(float64(stats.IdleConns))
			if stats.Timeouts > c.lastTimeouts {
				poolTimeouts.Add(float64(stats.Timeouts - c.lastTimeouts))
			}
			c.lastTimeouts = stats.Timeouts
		}
	}
}
