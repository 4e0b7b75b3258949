package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"campus/internal/certificate/auditlog"
	"campus/internal/certificate/events"
	certhandler "campus/internal/certificate/handler"
	"campus/internal/certificate/issuance"
	certmetrics "campus/internal/certificate/metrics"
	"campus/internal/certificate/models"
	certservice "campus/internal/certificate/service"
	"campus/internal/directory"
	jwttoken "campus/internal/jwt_token"
	"campus/internal/payment/commission"
	"campus/internal/payment/commission/scheduler"
	"campus/internal/payment/coupon"
	"campus/internal/payment/gateway"
	payhandler "campus/internal/payment/handler"
	paymetrics "campus/internal/payment/metrics"
	payservice "campus/internal/payment/service"
	"campus/internal/platform/config"
	"campus/internal/platform/health"
	"campus/internal/platform/kafka/producer"
	"campus/internal/platform/logger"
	"campus/internal/settings"
	"campus/pkg/platform/circuit"
	"campus/pkg/platform/middleware/auth"
	"campus/pkg/platform/middleware/device"
	"campus/pkg/platform/middleware/metadata"
	"campus/pkg/platform/middleware/request"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/tracer"
)

const maxBodyBytes = 1 << 20

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	log.InfoContext(ctx, "initializing campus",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"regulated_mode", cfg.Server.RegulatedMode,
		"payment_gateway", cfg.Payments.Gateway,
	)

	checks := health.New(cfg.Server.Environment)
	st, err := openStores(ctx, cfg, checks, log)
	if err != nil {
		return err
	}
	defer st.Close()

	dir, err := directory.Load(cfg.Directory.SeedPath)
	if err != nil {
		return fmt.Errorf("load directory: %w", err)
	}
	log.InfoContext(ctx, "directory loaded", "counts", dir.Counts())

	reg := prometheus.DefaultRegisterer
	trc := tracer.NewOTel()
	certMetrics := certmetrics.New(reg)
	payMetrics := paymetrics.New(reg)

	certDefaults, commissionDefaults := settings.Defaults(cfg.Certificates, cfg.Commission)
	settingsSvc := settings.NewService(st.settings, certDefaults, commissionDefaults, settings.WithLogger(log))

	bus := events.NewBus(
		events.WithAsync(cfg.Events.AsyncBuffer),
		events.WithLogger(log),
		events.WithMetrics(certMetrics),
	)
	bus.Subscribe(events.NewLogSubscriber(log))
	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer p.Close() //nolint:errcheck // flushes on shutdown
		checks.RegisterCheck("kafka", p.Health)
		bus.Subscribe(events.NewKafkaSubscriber(p, cfg.Kafka.CertificateTopic))
	}
	if cfg.Email.SendGridAPIKey != "" {
		bus.Subscribe(events.NewEmailSubscriber(cfg.Email.SendGridAPIKey, cfg.Email.FromName, cfg.Email.FromAddress, cfg.Server.PublicBaseURL))
	}

	issuanceOpts := []issuance.Option{
		issuance.WithPublisher(bus),
		issuance.WithPlatformName(cfg.Certificates.PlatformName),
		issuance.WithLogger(log),
		issuance.WithMetrics(certMetrics),
		issuance.WithTracer(trc),
	}
	certOpts := []certservice.Option{
		certservice.WithLogger(log),
		certservice.WithMetrics(certMetrics),
		certservice.WithTracer(trc),
	}
	if cfg.Certificates.IntegrityAlgorithm == "blake2b" {
		keyed, err := models.NewBlake2bFingerprinter([]byte(cfg.Certificates.IntegrityKey))
		if err != nil {
			return fmt.Errorf("integrity key: %w", err)
		}
		issuanceOpts = append(issuanceOpts, issuance.WithFingerprinter(keyed))
		certOpts = append(certOpts, certservice.WithKeyedFingerprinter(keyed))
	}
	engine := issuance.New(st.certificates, dir, settingsSvc, issuanceOpts...)
	audit := auditlog.New(st.audit,
		auditlog.WithCap(cfg.Certificates.AuditLogCap),
		auditlog.WithAnonymizedIPs(cfg.Server.RegulatedMode),
		auditlog.WithLogger(log),
	)
	certSvc := certservice.New(st.certificates, engine, audit, certOpts...)

	gw, verifier := paymentGateway(cfg.Payments, log)
	coupons := coupon.New(st.payments, coupon.WithLogger(log), coupon.WithMetrics(payMetrics), coupon.WithTracer(trc))
	commissions := commission.New(st.payments, settingsSvc,
		commission.WithLogger(log), commission.WithMetrics(payMetrics), commission.WithTracer(trc))
	paySvc := payservice.New(st.payments, gw, coupons, commissions,
		payservice.WithCurrency(cfg.Payments.Currency),
		payservice.WithLogger(log),
		payservice.WithMetrics(payMetrics),
		payservice.WithTracer(trc),
	)
	if _, err := paySvc.SeedDefaultPlans(ctx); err != nil {
		return err
	}

	var payOpts []payhandler.Option
	if verifier != nil {
		payOpts = append(payOpts, payhandler.WithNotificationVerifier(verifier))
	}
	trusted, err := metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience, cfg.Server.TokenTTL)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(trusted).Handler)
	r.Use(device.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.Latency(request.NewMetrics(reg)))
	r.Use(request.BodyLimit(maxBodyBytes))
	r.Use(request.Timeout(cfg.Server.RequestTimeout))
	r.Use(request.ContentTypeJSON)

	checks.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	certHandler := certhandler.New(certSvc, engine, log,
		certhandler.WithBaseURL(cfg.Server.PublicBaseURL),
		certhandler.WithRegulatedMode(cfg.Server.RegulatedMode),
	)
	payHandler := payhandler.New(coupons, paySvc, commissions, log, payOpts...)
	settingsHandler := settings.NewHandler(settingsSvc, log)

	certHandler.RegisterPublic(r)
	payHandler.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(jwttoken.NewValidator(jwtService), log))
		payHandler.RegisterCheckout(r)
		r.Route("/admin", func(r chi.Router) {
			certHandler.Register(r)
			settingsHandler.Register(r)
			payHandler.Register(r)
		})
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return bus.Run(gctx)
	})
	if st.redis != nil {
		g.Go(func() error {
			st.redis.RecordPoolStats(gctx, 15*time.Second)
			return nil
		})
	}
	if cfg.Commission.SchedulerOn {
		sched, err := payoutScheduler(ctx, settingsSvc, commissions, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := sched.Start(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// paymentGateway returns the configured gateway and, for gateways that
// call back, the notification verifier.
func paymentGateway(cfg config.Payments, log *slog.Logger) (gateway.Gateway, payhandler.NotificationVerifier) {
	breaker := circuit.New("payment-gateway",
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	if cfg.Gateway == gateway.NameMidtrans {
		m := gateway.NewMidtrans(gateway.NewSnapClient(cfg.MidtransServerKey, cfg.MidtransEnvironment), cfg.MidtransServerKey)
		return gateway.NewGuarded(m, breaker, log), m
	}
	return gateway.NewGuarded(gateway.NewSimulated(cfg.SimulatedDelay, cfg.SuccessRate), breaker, log), nil
}

func payoutScheduler(ctx context.Context, settingsSvc *settings.Service, payer scheduler.Payer, log *slog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(payer, scheduler.WithLogger(log))
	current, err := settingsSvc.Commission(ctx)
	if err != nil {
		return nil, err
	}
	if err := sched.Reload(current.PaymentSchedule); err != nil {
		return nil, err
	}
	settingsSvc.OnCommissionChange(sched.OnCommissionChange)
	log.InfoContext(ctx, "payout scheduler configured", "schedule", current.PaymentSchedule, "next_run", sched.Next())
	return sched, nil
}
