package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/veridoc/doc-audit/forensic-service/internal/config"
	"github.com/veridoc/doc-audit/forensic-service/internal/delivery/httpd"
	"github.com/veridoc/doc-audit/forensic-service/internal/queue"
	"github.com/veridoc/doc-audit/forensic-service/internal/repository"
	"github.com/veridoc/doc-audit/forensic-service/internal/rules"
	"github.com/veridoc/doc-audit/forensic-service/internal/service"
	"github.com/veridoc/doc-audit/forensic-service/internal/service/analyzer"
	"github.com/veridoc/doc-audit/forensic-service/internal/service/integration"
	"github.com/veridoc/doc-audit/forensic-service/internal/worker"
)

type App struct {
	server         *http.Server
	logger         zerolog.Logger
	config         *config.Config
	db             *sql.DB
	jobs           queue.JobQueue
	analysisWorker worker.AnalysisWorker
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	jobs := newJobQueue(cfg, log)

	catalog, err := rules.Load(log)
	if err != nil {
		return nil, err
	}

	analysisRepo := repository.NewAnalysisRepository(db, log)
	corpusRepo := repository.NewCorpusRepository(db, log)

	storageClient := integration.NewStorageClient(
		cfg.Storage.URL,
		cfg.Storage.TextEndpoint,
		cfg.Storage.Timeout,
		cfg.Storage.RetryCount,
		cfg.Storage.RetryDelay,
		log,
	)

	forensicAnalyzer := analyzer.NewForensicAnalyzer(catalog, cfg.Scoring)
	similarityEngine := analyzer.NewSimilarityEngine(corpusRepo, cfg.Similarity, log)

	analysisService := service.NewAnalysisService(
		analysisRepo,
		storageClient,
		forensicAnalyzer,
		similarityEngine,
		jobs,
		log,
	)

	analysisWorker := worker.NewAnalysisWorker(jobs, analysisService, cfg.Queue.Concurrency, log)

	handler := httpd.NewHandler(analysisService, jobs.Mode(), log)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:         server,
		logger:         log,
		config:         cfg,
		db:             db,
		jobs:           jobs,
		analysisWorker: analysisWorker,
	}, nil
}

// newJobQueue picks the queue backend once at startup. If the durable
// broker is unreachable the service still comes up on the in-memory
// queue; pending jobs then do not survive a restart.
func newJobQueue(cfg *config.Config, log zerolog.Logger) queue.JobQueue {
	rq, err := queue.NewRabbitMQQueue(cfg.RabbitMQ, cfg.Queue.Lease, log)
	if err != nil {
		log.Warn().
			Err(err).
			Str("url", cfg.RabbitMQ.URL).
			Msg("Durable queue unreachable, falling back to in-memory queue (degraded mode)")
		return queue.NewMemoryQueue(cfg.Queue.BufferSize, log)
	}
	return rq
}

func (a *App) Run() error {
	ctx := context.Background()
	if err := a.analysisWorker.Start(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to start analysis worker")
		return err
	}

	a.logger.Info().Msgf("Starting forensic service on %s", a.config.Server.Address)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down forensic service...")

	if err := a.analysisWorker.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to stop analysis worker")
	}

	if a.jobs != nil {
		if err := a.jobs.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close job queue")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		return err
	}

	a.logger.Info().Msg("Forensic service stopped")
	return nil
}
