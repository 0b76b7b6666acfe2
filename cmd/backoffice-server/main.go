// cmd/backoffice-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hub-backoffice/internal/api"
	awsclients "hub-backoffice/internal/common/aws"
	"hub-backoffice/internal/common/camunda"
	"hub-backoffice/internal/common/config"
	"hub-backoffice/internal/common/database"
	httpclient "hub-backoffice/internal/common/http"
	"hub-backoffice/internal/common/logger"
	"hub-backoffice/internal/common/observability"
	"hub-backoffice/internal/evidence"
	"hub-backoffice/internal/stats"

	odigest "hub-backoffice/internal/workers/reporting/onboarding-digest"
	ostats "hub-backoffice/internal/workers/reporting/onboarding-stats"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type backends struct {
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
}

func (b *backends) close() {
	if b.redis != nil {
		b.redis.Close()
	}
	if b.pg != nil {
		b.pg.Close()
	}
}

// readinessChecks pings every backend the evidence layer reads from.
func (b *backends) readinessChecks() map[string]api.Checker {
	checks := map[string]api.Checker{"postgres": b.pg.Ping}
	if b.redis != nil {
		checks["redis"] = b.redis.Ping
	}
	if b.es != nil {
		checks["elasticsearch"] = b.es.Ping
	}
	return checks
}

// buildStores reads every kind from Postgres, then moves verifications to
// Redis and lead tallies to Elasticsearch when those backends are selected.
func buildStores(cfg config.EvidenceConfig, b *backends, log logger.Logger) evidence.Stores {
	stores := evidence.PostgresStores(evidence.NewPostgresStore(b.pg.DB, log))
	if cfg.VerificationBackend == config.BackendRedis && b.redis != nil {
		stores.Verifications = evidence.NewRedisVerificationStore(b.redis.Client, cfg.RedisKeyPrefix, log)
	}
	if cfg.LeadBackend == config.BackendElasticsearch && b.es != nil {
		stores.Leads = evidence.NewElasticsearchLeadStore(b.es.Client, cfg.LeadsIndex, log)
	}
	return stores
}

func connectBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}

	err := retryWithBackoff(func() error {
		var err error
		b.pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := b.pg.Ping(ctx); err != nil {
			b.pg.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)

	if cfg.Evidence.VerificationBackend == config.BackendRedis {
		err = retryWithBackoff(func() error {
			var err error
			b.redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := b.redis.Ping(ctx); err != nil {
				b.redis.Close()
				b.redis = nil
				return err
			}
			return nil
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			b.close()
			return nil, err
		}
		log.Info("Redis connected successfully", nil)
	}

	if cfg.Evidence.LeadBackend == config.BackendElasticsearch {
		err = retryWithBackoff(func() error {
			var err error
			b.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return b.es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			b.close()
			return nil, err
		}
		log.Info("Elasticsearch connected successfully", nil)
	}

	return b, nil
}

// startWorkers opens the reporting job workers. The returned client is nil
// when Camunda is disabled.
func startWorkers(ctx context.Context, cfg *config.Config, svc *stats.Service, obs *observability.Observability, log logger.Logger) (*camunda.Client, []*camunda.Worker, error) {
	if !cfg.Camunda.Enabled {
		log.Info("camunda disabled, no workers started", nil)
		return nil, nil, nil
	}

	var client *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		client, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		return nil, nil, err
	}
	log.Info("Zeebe client connected successfully", nil)

	var workers []*camunda.Worker

	statsCfg := config.GetWorkerConfig(cfg, ostats.TaskType)
	statsHandler := ostats.NewHandler(&ostats.Config{
		Timeout:    config.GetDuration(statsCfg.Timeout),
		MaxTenants: ostats.LoadConfig().MaxTenants,
	}, svc, obs, log)
	if w := camunda.StartWorker(client.GetClient(), ostats.TaskType, statsCfg, statsHandler, log); w != nil {
		workers = append(workers, w)
	}

	digestCfg := config.GetWorkerConfig(cfg, odigest.TaskType)
	if digestCfg.Enabled {
		clients, err := awsclients.NewClients(ctx, cfg.Digest.AWSRegion)
		if err != nil {
			stopWorkers(workers)
			client.Close()
			return nil, nil, fmt.Errorf("onboarding-digest: %w", err)
		}
		timeout := config.GetDuration(digestCfg.Timeout)
		digestHandler := odigest.NewHandler(&odigest.Config{
			FromEmail:  cfg.Digest.FromEmail,
			SMSEnabled: cfg.Digest.SMSEnabled,
			WebhookURL: cfg.Digest.WebhookURL,
			Timeout:    timeout,
		}, svc, clients, httpclient.NewClient(timeout/2), obs, log)
		if w := camunda.StartWorker(client.GetClient(), odigest.TaskType, digestCfg, digestHandler, log); w != nil {
			workers = append(workers, w)
		}
	}

	return client, workers, nil
}

func stopWorkers(workers []*camunda.Worker) {
	for _, w := range workers {
		w.Stop()
	}
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})
	log.Info("Starting back-office server...", map[string]interface{}{"version": cfg.App.Version})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()
	if err := obs.EnableTracing(cfg.Observability.JaegerEndpoint, cfg.Observability.SampleRatio); err != nil {
		log.Warn("tracing disabled", map[string]interface{}{"error": err})
	}

	hubs, err := config.NewHubDirectory(cfg.Hubs)
	if err != nil {
		zapLog.Fatal("hub directory invalid", zap.Error(err))
	}

	ctx := context.Background()

	b, err := connectBackends(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("backend connection failed after retries", zap.Error(err))
	}
	defer b.close()

	collector := evidence.NewCollector(buildStores(cfg.Evidence, b, log), config.GetDuration(cfg.Evidence.QueryTimeout), log)
	svc := stats.NewService(collector, hubs, cfg.Dashboard, obs, log)

	zeebe, workers, err := startWorkers(ctx, cfg, svc, obs, log)
	if err != nil {
		zapLog.Fatal("worker startup failed", zap.Error(err))
	}

	server := api.NewServer(cfg.Server, svc, b.readinessChecks(), log)
	server.SetupRoutes()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", map[string]interface{}{"error": err})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", map[string]interface{}{"error": err})
	}

	stopWorkers(workers)
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("Error closing Zeebe client", map[string]interface{}{"error": err})
		}
	}

	log.Info("Back-office server stopped gracefully", nil)
}
