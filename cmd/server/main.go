package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civid/internal/appointment"
	"civid/internal/audit"
	"civid/internal/authz"
	"civid/internal/biometric"
	"civid/internal/center"
	"civid/internal/credential"
	"civid/internal/notify"
	"civid/internal/platform/config"
	"civid/internal/platform/httpserver"
	"civid/internal/platform/logger"
	"civid/internal/platform/postgres"
	platformredis "civid/internal/platform/redis"
	"civid/internal/request"
	"civid/internal/schedule"
	schedmetrics "civid/internal/schedule/metrics"
	httptransport "civid/internal/transport/http"
	id "civid/pkg/domain"
	"civid/pkg/requestcontext"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	var cache schedule.AvailabilityCache = schedule.NoopCache{}
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		cache = schedule.NewRedisAvailabilityCache(redisClient, cfg.Redis.AvailTTL)
	}

	kafka, err := audit.NewKafkaPublisher(cfg.Kafka, log)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}
	if kafka != nil {
		defer kafka.Close(context.Background())
	}

	// Stores: postgres when configured, in-memory otherwise.
	var (
		centerStore      center.Store
		scheduleStore    schedule.Store
		requestStore     request.Store
		appointmentStore appointment.Store
		captureStore     biometric.Store
		credentialStore  credential.Store
	)
	if db != nil {
		centerStore = center.NewPostgres(db)
		scheduleStore = schedule.NewPostgres(db)
		requestStore = request.NewPostgres(db)
		appointmentStore = appointment.NewPostgresStore(db)
		captureStore = biometric.NewPostgresStore(db)
		credentialStore = credential.NewPostgresStore(db)
	} else {
		log.Warn("no postgres url configured, using in-memory stores")
		centerStore = center.NewInMemoryStore()
		scheduleStore = schedule.NewInMemoryStore()
		requestStore = request.NewInMemoryStore()
		appointmentStore = appointment.NewInMemoryStore()
		captureStore = biometric.NewInMemoryStore()
		credentialStore = credential.NewInMemoryStore()
	}

	auditStore := audit.NewInMemoryStore()
	inbox := make(chan audit.Event, 256)
	auditor := audit.NewEmitter(inbox, kafka, log)
	worker := audit.NewWorker(auditStore, inbox)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	authorizer := authz.NewContextAuthorizer()
	tokens := authz.NewTokenService(cfg.JWTSigningKey)
	notifier := notify.NewLogNotifier(log)

	generator := schedule.NewGenerator(scheduleStore, center.NewDirectory(centerStore), log, schedmetrics.New())
	scheduleSvc := schedule.NewService(scheduleStore, cache)
	centerSvc := center.NewService(centerStore, generator, authorizer, log)
	requestSvc := request.NewService(requestStore, auditor, notifier, authorizer, log)
	appointmentSvc := appointment.NewService(appointmentStore, requestSvc, scheduleSvc, auditor, notifier, authorizer, db, log)
	captureSvc := biometric.NewService(captureStore, appointmentSvc, nil, auditor, authorizer, biometric.Policy{
		MinFingerprints:  cfg.Biometric.MinFingerprints,
		MinFingerQuality: cfg.Biometric.MinFingerQuality,
		MinFaceQuality:   cfg.Biometric.MinFaceQuality,
		MinIrisQuality:   cfg.Biometric.MinIrisQuality,
	}, log)
	credentialSvc := credential.NewService(credentialStore, requestSvc, captureSvc, auditor, notifier, authorizer, log)

	// Ledger reconciliation at startup and on a timer keeps every active
	// center covered for the current and next month.
	reconcile := func(rctx context.Context) {
		now := time.Now().UTC()
		rctx = requestcontext.WithTime(rctx, now)
		month := id.MonthOf(now)
		if err := generator.EnsureAll(rctx, month, month.Next()); err != nil {
			log.Error("schedule reconciliation incomplete", "error", err)
		}
	}
	reconcile(ctx)
	go func() {
		ticker := time.NewTicker(cfg.Schedule.ReconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reconcile(ctx)
			}
		}
	}()

	handler := httptransport.NewHandler(requestSvc, centerSvc, scheduleSvc, appointmentSvc, captureSvc, credentialSvc, tokens, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	go func() {
		log.Info("starting civid server", "addr", cfg.Addr, "postgres", db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
