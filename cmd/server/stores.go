package main

import (
	"context"
	"fmt"
	"log/slog"

	"campus/internal/certificate/auditlog"
	"campus/internal/certificate/issuance"
	certservice "campus/internal/certificate/service"
	certstore "campus/internal/certificate/store"
	"campus/internal/payment/commission"
	"campus/internal/payment/coupon"
	payservice "campus/internal/payment/service"
	paystore "campus/internal/payment/store"
	"campus/internal/platform/config"
	"campus/internal/platform/database"
	"campus/internal/platform/health"
	campusredis "campus/internal/platform/redis"
	"campus/internal/settings"
	"campus/migrations"
)

type certificateStore interface {
	issuance.Store
	certservice.Store
}

type paymentStore interface {
	payservice.Store
	coupon.Store
	commission.Store
}

// stores picks Postgres and Redis backed stores when they are configured
// and in-memory ones otherwise.
type stores struct {
	certificates certificateStore
	payments     paymentStore
	audit        auditlog.Store
	settings     settings.Store

	db    *database.Pool
	redis *campusredis.Client
}

func openStores(ctx context.Context, cfg *config.Config, checks *health.Handler, logger *slog.Logger) (*stores, error) {
	s := &stores{
		certificates: certstore.NewInMemoryStore(),
		payments:     paystore.NewInMemoryStore(),
		audit:        auditlog.NewInMemoryStore(),
		settings:     settings.NewInMemoryStore(),
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx, migrations.FS); err != nil {
				db.Close() //nolint:errcheck // best-effort cleanup on init failure
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}
		s.db = db
		s.certificates = certstore.NewPostgres(db.DB())
		s.payments = paystore.NewPostgres(db.DB())
		checks.RegisterCheck("database", db.Health)
		logger.InfoContext(ctx, "using postgres stores", "auto_migrate", cfg.Database.AutoMigrate)
	}

	rc, err := campusredis.New(ctx, cfg.Redis)
	if err != nil {
		s.Close()
		return nil, err
	}
	if rc != nil {
		s.redis = rc
		s.audit = auditlog.NewRedisStore(rc)
		s.settings = settings.NewRedisStore(rc)
		checks.RegisterCheck("redis", rc.Health)
		logger.InfoContext(ctx, "using redis for verification log and settings")
	}
	return s, nil
}

func (s *stores) Close() {
	if s.redis != nil {
		s.redis.Close() //nolint:errcheck // shutdown
	}
	if s.db != nil {
		s.db.Close() //nolint:errcheck // shutdown
	}
}
