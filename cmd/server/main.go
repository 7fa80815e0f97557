package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"civicfix/internal/complaint/events"
	complainthandler "civicfix/internal/complaint/handler"
	complaintservice "civicfix/internal/complaint/service"
	complaintstore "civicfix/internal/complaint/store"
	"civicfix/internal/evidence"
	identityhandler "civicfix/internal/identity/handler"
	identityservice "civicfix/internal/identity/service"
	identitystore "civicfix/internal/identity/store"
	"civicfix/internal/identity/store/revocation"
	jwttoken "civicfix/internal/jwt_token"
	"civicfix/internal/notify"
	"civicfix/internal/platform/config"
	"civicfix/internal/platform/database"
	"civicfix/internal/platform/httpserver"
	"civicfix/internal/platform/logger"
	"civicfix/internal/platform/metrics"
	"civicfix/internal/platform/middleware"
	platformredis "civicfix/internal/platform/redis"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	log := logger.New()
	if err := run(config.FromEnv(), log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		userStore      identityservice.UserStore
		complaintStore complaintservice.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		userStore = identitystore.NewPostgres(db)
		complaintStore = complaintstore.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		userStore = identitystore.NewInMemory()
		complaintStore = complaintstore.NewInMemory()
		log.Warn("no database configured, state is in-memory and volatile")
	}

	// Redis backs token revocation. Without it logout degrades to waiting
	// out token expiry.
	var revocationChecker middleware.RevocationChecker
	identityOpts := []identityservice.Option{identityservice.WithLogger(log)}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocationStore := revocation.NewRedisStore(redisClient.Client, cfg.JWT.TTL)
		revocationChecker = revocationStore
		identityOpts = append(identityOpts, identityservice.WithTokenRevoker(revocationStore))
		log.Info("token revocation enabled")
	}

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.TTL)

	// Evidence uploads go to the media service when one is configured,
	// falling back to local disk when it misbehaves.
	diskStore, err := evidence.NewDiskStore(cfg.Evidence.LocalDir, cfg.Evidence.LocalBaseURL)
	if err != nil {
		return err
	}
	var evidenceStore complaintservice.EvidenceStore = diskStore
	if cfg.Evidence.UploadURL != "" {
		evidenceStore = evidence.NewFallbackStore(
			evidence.NewHTTPStore(cfg.Evidence.UploadURL, cfg.Evidence.APIKey, cfg.Evidence.UploadTimeout),
			diskStore, log)
		log.Info("media upload service configured", "url", cfg.Evidence.UploadURL)
	}

	var mailer notify.Mailer = notify.NoopMailer{}
	if cfg.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		log.Info("smtp mailer configured", "host", cfg.SMTP.Host)
	}
	dispatcher := notify.NewDispatcher(mailer, 0, log, m)

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("kafka publisher configured", "topic", cfg.Kafka.Topic)
	}

	identitySvc := identityservice.New(userStore, jwtService, identityOpts...)
	complaintSvc := complaintservice.New(complaintStore, evidenceStore, userStore,
		complaintservice.WithLogger(log),
		complaintservice.WithMetrics(m),
		complaintservice.WithStatusNotifier(dispatcher),
		complaintservice.WithForwardMailer(mailer),
		complaintservice.WithPublisher(publisher),
	)

	if cfg.AdminSeed.Email != "" {
		if err := identitySvc.SeedAdmin(ctx, "Administrator", cfg.AdminSeed.Email, cfg.AdminSeed.Password); err != nil {
			return err
		}
	}

	identityHandler := identityhandler.New(identitySvc, log)
	complaintHandler := complainthandler.New(complaintSvc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(cfg.Evidence.LocalDir))))

	identityHandler.Register(r)
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), revocationChecker, log))
		identityHandler.RegisterProtected(pr)
		complaintHandler.Register(pr)
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := dispatcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
