// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"planning-workers/internal/common/cache"
	"planning-workers/internal/common/camunda"
	"planning-workers/internal/common/config"
	"planning-workers/internal/common/database"
	"planning-workers/internal/common/genai"
	"planning-workers/internal/common/logger"
	"planning-workers/internal/common/observability"
	"planning-workers/internal/common/search"
	"planning-workers/pkg/registry"

	// Retrieval Workers (2)
	adn "planning-workers/internal/workers/retrieval/assess-data-needs"
	fe "planning-workers/internal/workers/retrieval/fuse-evidence"

	// Assessment Workers (3)
	ac "planning-workers/internal/workers/assessment/assess-considerations"
	rpb "planning-workers/internal/workers/assessment/run-planning-balance"
	sd "planning-workers/internal/workers/assessment/synthesize-decision"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
			zap.Int("attempt", attempt),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", delay),
			zap.Error(err),
		)

		if attempt < maxRetries {
			time.Sleep(delay)
			delay *= 2
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
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

	// --- Init Evidence Source Clients ---
	localSearcher := search.NewLocalSearcher(esClient.Client, cfg.Database.Elasticsearch)
	precedentClient := search.NewPrecedentClient(cfg.APIs)
	policyStore := search.NewPolicyStore(pg.DB)
	constraintClient := search.NewConstraintClient(cfg.APIs)

	assessmentTTL := 24 * time.Hour
	if cfg.Database.Redis.AssessmentTTL > 0 {
		assessmentTTL = time.Duration(cfg.Database.Redis.AssessmentTTL) * time.Second
	}
	store := cache.NewRedisStore(redis.Client, assessmentTTL)

	// The reasoner is optional: without an API key the retrieval workers run
	// with conservative defaults and no grounding escalation.
	var reasoner genai.Reasoner
	if cfg.APIs.GenAI.APIKey != "" {
		genaiClient, err := genai.NewClient(ctx, cfg.APIs.GenAI.APIKey, cfg.APIs.GenAI.Model)
		if err != nil {
			zapLog.Warn("genai client unavailable, continuing without reasoner", zap.Error(err))
		} else {
			reasoner = genaiClient
		}
	} else {
		zapLog.Info("no genai api key configured, reasoner disabled")
	}

	// --- Task Registry ---
	// A missing registry disables schema checking but never blocks startup.
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		reg = nil
		zapLog.Warn("task registry unavailable, input schemas will not be checked",
			zap.String("path", cfg.Registry.Path), zap.Error(err))
	} else {
		zapLog.Info("task registry loaded", zap.Int("tasks", len(reg.Tasks)))
		for _, taskType := range []string{adn.TaskType, fe.TaskType, ac.TaskType, rpb.TaskType, sd.TaskType} {
			if _, ok := reg.Find(taskType); !ok {
				zapLog.Warn("worker has no registry definition", zap.String("taskType", taskType))
			}
		}
	}

	zapLog.Info("All evidence source clients initialized")

	// --- START: Register ALL 5 Workers ---
	var taskWorkers []*camunda.TaskWorker

	// --- 1. Retrieval Workers (2) ---
	if cfg.Workers[adn.TaskType].Enabled {
		wcfg := adn.LoadConfig()
		if t := cfg.Workers[adn.TaskType].Timeout; t > 0 {
			wcfg.Timeout = time.Duration(t) * time.Millisecond
		}
		handler := adn.NewHandler(wcfg, reasoner, store, reg, log)
		taskWorkers = append(taskWorkers, camunda.NewTaskWorker(zeebeClient, adn.TaskType, cfg.Workers[adn.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[fe.TaskType].Enabled {
		handler := fe.NewHandler(
			fe.ConfigFromRetrieval(cfg.Retrieval, time.Duration(cfg.Workers[fe.TaskType].Timeout)*time.Millisecond),
			localSearcher, precedentClient, policyStore, constraintClient, reasoner, reg, log,
		)
		taskWorkers = append(taskWorkers, camunda.NewTaskWorker(zeebeClient, fe.TaskType, cfg.Workers[fe.TaskType], handler.Handle, zapLog))
	}

	// --- 2. Assessment Workers (3) ---
	if cfg.Workers[ac.TaskType].Enabled {
		wcfg := ac.LoadConfig()
		if t := cfg.Workers[ac.TaskType].Timeout; t > 0 {
			wcfg.Timeout = time.Duration(t) * time.Millisecond
		}
		handler := ac.NewHandler(wcfg, reg, log)
		taskWorkers = append(taskWorkers, camunda.NewTaskWorker(zeebeClient, ac.TaskType, cfg.Workers[ac.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[rpb.TaskType].Enabled {
		wcfg := rpb.LoadConfig()
		if t := cfg.Workers[rpb.TaskType].Timeout; t > 0 {
			wcfg.Timeout = time.Duration(t) * time.Millisecond
		}
		handler := rpb.NewHandler(wcfg, store, reg, log)
		taskWorkers = append(taskWorkers, camunda.NewTaskWorker(zeebeClient, rpb.TaskType, cfg.Workers[rpb.TaskType], handler.Handle, zapLog))
	}

	if cfg.Workers[sd.TaskType].Enabled {
		wcfg := sd.LoadConfig()
		if t := cfg.Workers[sd.TaskType].Timeout; t > 0 {
			wcfg.Timeout = time.Duration(t) * time.Millisecond
		}
		handler := sd.NewHandler(wcfg, store, reg, log)
		taskWorkers = append(taskWorkers, camunda.NewTaskWorker(zeebeClient, sd.TaskType, cfg.Workers[sd.TaskType], handler.Handle, zapLog))
	}

	zapLog.Info("All 5 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			status := "healthy"
			code := http.StatusOK
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, tw := range taskWorkers {
		tw.Close()
	}
	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
