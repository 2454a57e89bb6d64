package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"global-app/internal/auth"
	"global-app/internal/config"
	"global-app/internal/events"
	"global-app/internal/handlers/apiserver"
	appKafka "global-app/internal/kafka"
	"global-app/internal/logger"
	"global-app/internal/media"
	appRedis "global-app/internal/redis"
	"global-app/internal/services"
	"global-app/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Build(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	logger.ReplaceGlobal(log)
	defer log.Sync()
	log = log.Named("apiserver")

	if err := run(cfg, log); err != nil {
		log.Fatal("api server stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx := context.Background()

	store, err := openStore(cfg.Database, log)
	if err != nil {
		return err
	}

	var blacklist auth.TokenBlacklist = auth.NewMemoryBlacklist()
	if cfg.Redis.Addr != "" {
		client, err := appRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, token revocation is process-local", zap.Error(err))
		} else {
			defer client.Close()
			blacklist = appRedis.NewRedisTokenBlacklist(client)
			log.Info("token blacklist backed by redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled() {
		producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.ActivityTopic, log)
		log.Info("publishing activity events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.ActivityTopic))
	} else {
		log.Info("kafka not configured, activity events are dropped")
	}

	mediaStore, err := media.NewLocalStore(cfg.Storage)
	if err != nil {
		return err
	}

	presence := services.NewPresenceTracker(store, cfg.Presence, nil)
	friends := services.NewFriendService(store, presence, publisher, log)
	posts := services.NewPostService(store, friends, publisher, log)
	router := apiserver.NewRouter(apiserver.Dependencies{
		Auth:          services.NewAuthService(store, cfg.Auth, blacklist, log),
		Friends:       friends,
		Posts:         posts,
		Profiles:      services.NewProfileService(store, friends, posts, presence, log, nil),
		Opportunities: services.NewOpportunityService(store, publisher, log, nil),
		Presence:      presence,
		Media:         mediaStore,
		Blacklist:     blacklist,
		AuthConfig:    cfg.Auth,
		StorageConfig: cfg.Storage,
	})

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(log)),
		handlers.PrintRecoveryStack(true),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port),
		Handler:      recovery(handlers.CORS(corsOptions...)(router)),
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("api server stopped")
	return nil
}

// openStore connects to PostgreSQL, or returns an in-process store when the
// database type is "memory".
func openStore(cfg config.DatabaseConfig, log *zap.Logger) (storage.Store, error) {
	if cfg.Type == "memory" {
		log.Warn("using the in-memory store, data is lost on restart")
		return storage.NewMemoryStore(), nil
	}
	db, err := storage.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := storage.AutoMigrateTables(db, log); err != nil {
			return nil, err
		}
	}
	log.Info("connected to database", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return storage.NewGormStore(db), nil
}
