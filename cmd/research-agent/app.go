// cmd/research-agent/app.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"research-agent/internal/common/config"
	"research-agent/internal/common/database"
	"research-agent/internal/common/llm"
	"research-agent/internal/common/logger"
	"research-agent/internal/common/observability"
	"research-agent/internal/common/store"
	"research-agent/internal/common/telemetry"
	createplan "research-agent/internal/workers/ai-conversation/create-plan"
	enrichwebsearch "research-agent/internal/workers/ai-conversation/enrich-web-search"
	llmsynthesis "research-agent/internal/workers/ai-conversation/llm-synthesis"
	orchestrateturn "research-agent/internal/workers/ai-conversation/orchestrate-turn"
	parseuserintent "research-agent/internal/workers/ai-conversation/parse-user-intent"
	selectpedagogy "research-agent/internal/workers/ai-conversation/select-pedagogy"
	updatememory "research-agent/internal/workers/ai-conversation/update-memory"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// app holds the process-wide collaborators built from config.
type app struct {
	cfg     *config.Config
	zapLog  *zap.Logger
	log     logger.Logger
	obs     *observability.Observability
	redis   *database.RedisClient
	closers []func() error
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog)

	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    log,
		obs:    observability.New(cfg.App.Name, log, observability.WithGlobalProviders()),
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	a.obs.Shutdown()
	_ = a.zapLog.Sync()
}

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
				"error":       err.Error(),
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

// redisClient connects once and is shared by the memory store and tool cache.
func (a *app) redisClient(ctx context.Context) (*database.RedisClient, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	var rc *database.RedisClient
	err := retryWithBackoff(func() error {
		var err error
		rc, err = database.NewRedis(a.cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rc.Ping(ctx)
	}, 3, 500*time.Millisecond, a.log, "Redis connection")
	if err != nil {
		return nil, err
	}
	a.redis = rc
	a.closers = append(a.closers, rc.Close)
	a.log.Info("Redis connected successfully", nil)
	return rc, nil
}

func (a *app) memoryStore(ctx context.Context) (store.MemoryStore, error) {
	switch a.cfg.Storage.Backend {
	case "redis":
		rc, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return store.NewRedisMemoryStore(rc.GetClient()), nil
	case "postgres":
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(a.cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 3, 500*time.Millisecond, a.log, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		s := store.NewPostgresMemoryStore(pg.GetDB())
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.log.Info("PostgreSQL connected successfully", nil)
		return s, nil
	}
	return store.NewFileMemoryStore(a.cfg.Storage.MemoryPath), nil
}

func (a *app) toolCache(ctx context.Context, toolCfg *enrichwebsearch.Config) (enrichwebsearch.Cache, error) {
	if toolCfg.CacheBackend != enrichwebsearch.CacheBackendRedis {
		return enrichwebsearch.NewCache(toolCfg, nil)
	}
	rc, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	return enrichwebsearch.NewCache(toolCfg, rc.GetClient())
}

func (a *app) intentSink() telemetry.Sink {
	l := telemetry.NewIntentLog(a.cfg.Telemetry, a.log)
	a.closers = append(a.closers, l.Close)
	return l
}

func (a *app) intentHandler(client llm.Client) *parseuserintent.Handler {
	return parseuserintent.NewHandler(parseuserintent.LoadConfig(), client, a.intentSink(), a.log)
}

func (a *app) orchestrator(ctx context.Context) (*orchestrateturn.Handler, error) {
	client := llm.NewOpenAIClient(a.cfg.LLM, a.log)

	toolCfg := enrichwebsearch.ConfigFromTools(a.cfg.Tools)
	cache, err := a.toolCache(ctx, toolCfg)
	if err != nil {
		return nil, fmt.Errorf("tool cache: %w", err)
	}

	genCfg := llmsynthesis.LoadConfig()
	genCfg.ModelName = a.cfg.LLM.Model

	return orchestrateturn.NewHandler(
		a.intentHandler(client),
		createplan.NewHandler(createplan.LoadConfig(), client, a.log),
		enrichwebsearch.NewHandler(enrichwebsearch.NewRegistry(toolCfg, a.log), cache, a.log),
		selectpedagogy.NewHandler(selectpedagogy.LoadConfig(), a.log),
		llmsynthesis.NewHandler(genCfg, client, a.log),
		a.obs,
		a.log,
	), nil
}

func (a *app) memoryManager(ctx context.Context) (*updatememory.Handler, error) {
	s, err := a.memoryStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}
	return updatememory.NewHandler(updatememory.LoadConfig(), s, a.log), nil
}

// serveMetrics exposes /metrics and /health until the process exits.
func (a *app) serveMetrics() {
	if !a.cfg.Metrics.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	go func() {
		a.log.Info("Metrics server listening", map[string]interface{}{"address": a.cfg.Metrics.Address})
		if err := http.ListenAndServe(a.cfg.Metrics.Address, mux); err != nil {
			a.log.Error("Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}
