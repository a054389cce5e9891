package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"usemy/internal/account"
	"usemy/internal/audit"
	"usemy/internal/auth"
	"usemy/internal/platform/config"
	"usemy/internal/platform/httpserver"
	"usemy/internal/platform/logger"
	"usemy/internal/platform/metrics"
	"usemy/internal/platform/migrate"
	platformredis "usemy/internal/platform/redis"
	"usemy/internal/profile"
	"usemy/internal/registry"
	"usemy/internal/session"
	httptransport "usemy/internal/transport/http"
)

// main wires the dependency graph and owns the process lifecycle. Business
// logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	defer log.Sync() //nolint:errcheck

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Profile store: PostgreSQL when configured, memory otherwise.
	var store profile.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("ping database", zap.Error(err))
		}
		if err := migrate.Up(db, "file://migrations"); err != nil {
			log.Fatal("run migrations", zap.Error(err))
		}
		store = profile.NewPostgres(db)
		log.Info("profile store: postgres")
	} else {
		store = profile.NewInMemoryStore()
		log.Info("profile store: memory")
	}

	// Auth provider: hosted API when configured, local otherwise. The local
	// provider carries its own profile trigger so development behaves like
	// the hosted backend, race included.
	var provider auth.Provider
	if cfg.AuthBaseURL != "" {
		provider = auth.NewHTTPProvider(cfg.AuthBaseURL, cfg.AuthAPIKey)
		log.Info("auth provider: hosted", zap.String("base_url", cfg.AuthBaseURL))
	} else {
		local := auth.NewLocalProvider()
		local.TriggerDelay = 100 * time.Millisecond
		local.OnUserCreated = func(ctx context.Context, user auth.User, meta auth.SignUpMetadata) {
			err := store.Create(ctx, &profile.Profile{
				ID:       user.ID,
				UserType: profile.UserType(meta.UserType),
				FullName: meta.FullName,
			})
			if err != nil {
				log.Warn("local profile trigger failed", zap.Error(err))
			}
		}
		provider = local
		log.Info("auth provider: local")
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Fatal("connect redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var cache registry.Cache
	if rdb != nil {
		cache = registry.NewRedisCache(rdb.Client, cfg.RegistryCacheTTL, log)
	}
	registryClient := registry.NewClient(cfg.RegistryBaseURL, cache, log, m)

	var publisher audit.Publisher = audit.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Fatal("connect kafka", zap.Error(err))
		}
		publisher = kp
	}
	defer publisher.Close()

	state := session.NewState()
	guard := profile.NewGuard(store, state, provider.SignOut, log, m, cfg.Bootstrap.ProfileLoadTimeout)
	accounts := account.NewService(provider, store, guard, registryClient, publisher, log, m, cfg.Bootstrap)

	bootstrap := session.New(provider, state, func(ctx context.Context, sess *auth.Session) {
		if _, err := guard.LoadProfile(ctx, sess.UserID); err != nil {
			log.Warn("profile guard", zap.Error(err))
		}
	}, log, m, cfg.Bootstrap)
	stopBootstrap := bootstrap.Start(ctx)
	defer stopBootstrap()

	handler := httptransport.NewHandler(accounts, state, store, registryClient, log)
	router := httptransport.NewRouter(handler, reg)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
