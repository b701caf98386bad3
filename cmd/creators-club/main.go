// cmd/creators-club/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"creators-club/internal/common/aws"
	"creators-club/internal/common/camunda"
	"creators-club/internal/common/config"
	"creators-club/internal/common/database"
	"creators-club/internal/common/logger"
	"creators-club/internal/common/observability"
	"creators-club/internal/common/zoho"
	"creators-club/internal/intake"
	"creators-club/internal/session"
	"creators-club/internal/submission"

	car "creators-club/internal/workers/application/create-application-record"
	ia "creators-club/internal/workers/application/index-application"
	sn "creators-club/internal/workers/application/send-notification"
	clc "creators-club/internal/workers/crm/crm-lead-create"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting creators-club",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name,
		observability.WithJaeger(cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio),
		observability.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("postgres migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var es *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := es.Ping(ctx); err != nil {
			return err
		}
		return es.EnsureIndex(ctx, cfg.Database.Elasticsearch.Index)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Workers ---
	awsCfg, err := aws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}

	zc := zeebe.GetClient()
	var workers []worker.JobWorker
	start := func(taskType string, handle func(worker.JobClient, entities.Job)) {
		if jw := camunda.StartWorker(zc, taskType, cfg.Workers[taskType], handle, log); jw != nil {
			workers = append(workers, jw)
		}
	}

	carHandler := car.NewHandler(car.LoadConfig(cfg.Workers[car.TaskType]), pg.DB, log)
	start(car.TaskType, carHandler.Handle)

	snHandler := sn.NewHandler(sn.LoadConfig(cfg),
		aws.NewSESClient(awsCfg, cfg.Integrations.AWS.SES.FromEmail),
		aws.NewSNSClient(awsCfg),
		log,
	)
	start(sn.TaskType, snHandler.Handle)

	crmCfg := clc.ConfigFromApp(cfg)
	clcHandler, err := clc.NewHandler(clc.HandlerOptions{
		Config: crmCfg,
		Leads:  zoho.NewCRMClient(crmCfg.ZohoBaseURL, crmCfg.ZohoOAuthToken, crmCfg.Timeout),
		Logger: log,
	})
	if err != nil {
		zapLog.Warn("crm lead worker not started", zap.Error(err))
	} else {
		start(clc.TaskType, clcHandler.Handle)
	}

	iaHandler := ia.NewHandler(ia.LoadConfig(cfg), es.Client, log)
	start(ia.TaskType, iaHandler.Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Wizard and intake ---
	tuning := tuningFrom(cfg.Wizard.Analysis)
	if err := tuning.Validate(); err != nil {
		zapLog.Fatal("invalid wizard.analysis config", zap.Error(err))
	}
	registry := session.NewRegistry(session.Config{
		Flows:  cfg.Wizard.Flows,
		TTL:    config.GetDuration(cfg.Wizard.SessionTTL),
		Tuning: tuning,
	},
		submission.NewClient(cfg.Intake.EndpointURL, config.GetDuration(cfg.Intake.SubmitTimeout), log),
		session.WithLogger(log),
		session.WithObservability(obs),
	)
	go registry.RunSweeper(ctx, time.Minute)

	intakeHandler := intake.NewHandler(intake.Config{
		ProcessID:    cfg.Camunda.ProcessID,
		DedupTTL:     config.GetDuration(cfg.Intake.DedupTTL),
		MaxBodyBytes: cfg.Intake.MaxBodyBytes,
	}, zeebe, redis, obs, log)

	mux := newMux(
		[]route{session.NewHandler(registry, log), intakeHandler},
		map[string]readinessCheck{
			"postgres":      pg.Ping,
			"redis":         redis.Ping,
			"elasticsearch": es.Ping,
			"zeebe":         zeebe.HealthCheck,
		},
		log,
	)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("creators-club stopped")
}
