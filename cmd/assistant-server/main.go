// cmd/assistant-server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"erp-assistant/internal/api"
	"erp-assistant/internal/assistant"
	"erp-assistant/internal/assistant/dialogue"
	"erp-assistant/internal/assistant/extract"
	"erp-assistant/internal/common/aws"
	"erp-assistant/internal/common/config"
	"erp-assistant/internal/common/database"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/common/observability"
	"erp-assistant/internal/common/workflow"
	"erp-assistant/internal/models"
	"erp-assistant/internal/notify"
	"erp-assistant/internal/nlp"
	"erp-assistant/internal/store"
	"erp-assistant/internal/transcribe"
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

// observeTurns records per-turn counters and latency on the assistant routes.
func observeTurns(obs *observability.Observability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			outcome := "ok"
			if ww.Status() >= 400 {
				outcome = "error"
			}
			obs.RecordTurnProcessed(r.Context(), outcome)
			obs.RecordTurnDuration(r.Context(), time.Since(start), outcome)
		})
	}
}

// workflowStarter adapts the workflow client to the service hook, which
// does not care about the process instance key.
type workflowStarter struct {
	client *workflow.Client
}

func (w *workflowStarter) StartApprovalProcess(ctx context.Context, record *models.RequestRecord) error {
	_, err := w.client.StartApprovalProcess(ctx, record)
	return err
}

func main() {
	configPath := flag.String("config", "", "Path to a config file (defaults to configs/config.yaml discovery)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting assistant server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.Server.Address),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if cfg.Observability.TracingEnabled {
		tracing, err := observability.InitTracing(cfg.App.Name, cfg.Observability.JaegerEndpoint)
		if err != nil {
			zapLog.Warn("tracing init failed, continuing without traces", zap.Error(err))
		} else {
			defer tracing.Shutdown()
		}
	}

	ctx := context.Background()

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

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional, audit only) ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Warn("elasticsearch unavailable, audit indexing disabled", zap.Error(err))
		esClient = nil
	} else {
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- External model services ---
	modelPort := nlp.NewClient(&nlp.Config{
		BaseURL: cfg.APIs.NLP.BaseURL,
		Timeout: time.Duration(cfg.APIs.NLP.Timeout) * time.Millisecond,
	}, log)

	transcriber := transcribe.NewClient(&transcribe.Config{
		BaseURL: cfg.APIs.Transcription.BaseURL,
		Timeout: time.Duration(cfg.APIs.Transcription.Timeout) * time.Millisecond,
	}, log)

	// --- Core wiring ---
	sessionStore := dialogue.NewRedisStore(redisClient.GetClient(), time.Duration(cfg.Session.TTL)*time.Second)

	requestStore, err := store.NewRequestStore(pg.GetDB(), log)
	if err != nil {
		zapLog.Fatal("request store init failed", zap.Error(err))
	}

	opts := []assistant.Option{}

	if esClient != nil {
		opts = append(opts, assistant.WithIndexer(
			store.NewAuditIndexer(esClient.Client, esClient.AuditIndex, log)))
	}

	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		var emailSender notify.EmailSender
		var smsSender notify.SMSSender

		if cfg.Notifications.Email.Enabled {
			sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Warn("ses client init failed, email notifications disabled", zap.Error(err))
			} else {
				emailSender = sesClient
			}
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Warn("sns client init failed, sms notifications disabled", zap.Error(err))
			} else {
				smsSender = snsClient
			}
		}
		if emailSender != nil || smsSender != nil {
			opts = append(opts, assistant.WithNotifier(
				notify.NewApproverNotifier(emailSender, smsSender, cfg.Notifications, log)))
		}
	}

	if cfg.Workflow.Enabled {
		wfClient, err := workflow.NewClient(&workflow.ClientConfig{
			GatewayAddress:         cfg.Workflow.BrokerAddress,
			ProcessID:              cfg.Workflow.ProcessID,
			UsePlaintextConnection: true,
		})
		if err != nil {
			zapLog.Warn("workflow client init failed, approval dispatch disabled", zap.Error(err))
		} else {
			defer wfClient.Close()
			opts = append(opts, assistant.WithWorkflow(&workflowStarter{client: wfClient}))
			zapLog.Info("Workflow broker connected successfully")
		}
	}

	svc := assistant.NewService(
		extract.NewAssembler(modelPort, log),
		transcriber,
		sessionStore,
		requestStore,
		log,
		opts...,
	)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(observeTurns(obs))

	api.NewHandler(svc, log).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
		IdleTimeout:  120 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLog.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	stop()

	zapLog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server forced to shutdown", zap.Error(err))
	}

	zapLog.Info("Server stopped")
}
