// Package bootstrap wires configuration, storage, the reasoning engine and
// the use cases into a runnable application graph shared by both binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dkozyrev/reg-radar/internal/config"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
	"github.com/dkozyrev/reg-radar/internal/core/usecase"
	"github.com/dkozyrev/reg-radar/internal/infrastructure/engine/openai"
	"github.com/dkozyrev/reg-radar/internal/infrastructure/queue/nats"
	"github.com/dkozyrev/reg-radar/internal/infrastructure/repository/postgres"
	"github.com/dkozyrev/reg-radar/internal/infrastructure/resilience"
	"github.com/dkozyrev/reg-radar/internal/infrastructure/routing"
	"github.com/dkozyrev/reg-radar/internal/infrastructure/vector/pgvector"
)

type App struct {
	Config config.Config

	Queue           ports.MessageQueue
	Documents       ports.DocumentRepository
	Classifications ports.ClassificationRepository
	Analyses        ports.GapAnalysisRepository
	Tasks           ports.TaskRepository

	Gateway    ports.DedupGateway
	Classifier ports.RelevanceClassifier
	Analyzer   ports.GapAnalyzer
	Generator  ports.TaskGenerator
	Ranker     ports.PriorityRanker
	Pipeline   ports.PipelineRunner

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	documents := postgres.NewDocumentRepository(db)
	classifications := postgres.NewClassificationRepository(db)
	analyses := postgres.NewGapAnalysisRepository(db)
	tasks := postgres.NewTaskRepository(db)
	priorityView := postgres.NewPriorityView(db)

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.New(cfg.NATSURL, nats.Options{
		Subject:            cfg.NATSSubject,
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	engineClient := openai.New(openai.Options{
		BaseURL:           cfg.EngineURL,
		APIKey:            cfg.EngineAPIKey,
		ClassifyModel:     cfg.EngineClassifyModel,
		AssessModel:       cfg.EngineAssessModel,
		EmbedModel:        cfg.EngineEmbedModel,
		RequestsPerSecond: cfg.EngineRPS,
		Timeout:           time.Duration(cfg.EngineTimeoutSecs) * time.Second,
	})
	classifyEngine := openai.NewClassifier(engineClient, executor)
	assessEngine := openai.NewAssessor(engineClient, executor)
	embedder := openai.NewEmbedder(engineClient, executor)

	var index ports.SimilarityIndex
	var closeIndex func()
	if cfg.SimilarityInMemory {
		index = pgvector.NewMemoryIndex()
	} else {
		pgIndex, err := pgvector.New(ctx, cfg.PostgresDSN, cfg.EmbeddingDim)
		if err != nil {
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("init similarity index: %w", err)
		}
		index = pgIndex
		closeIndex = pgIndex.Close
	}

	router, err := routing.LoadRouter(cfg.RoutingTablePath)
	if err != nil {
		if closeIndex != nil {
			closeIndex()
		}
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load routing table: %w", err)
	}

	gateway := usecase.NewDedupGatewayUseCase(documents, queue)
	classifier := usecase.NewRelevanceClassifierUseCase(
		documents, classifications, classifyEngine, embedder, index,
		time.Duration(cfg.ClassifyTimeoutSecs)*time.Second,
	)
	analyzer := usecase.NewGapAnalyzerUseCase(
		documents, classifications, analyses, assessEngine, embedder, index,
		cfg.SimilarityTopK,
		time.Duration(cfg.AssessTimeoutSecs)*time.Second,
	)
	generator := usecase.NewTaskGeneratorUseCase(documents, analyses, tasks, router)
	ranker := usecase.NewPriorityRankerUseCase(priorityView)
	pipeline := usecase.NewPipelineUseCase(classifier, analyzer, generator)

	return &App{
		Config: cfg,

		Queue:           queue,
		Documents:       documents,
		Classifications: classifications,
		Analyses:        analyses,
		Tasks:           tasks,

		Gateway:    gateway,
		Classifier: classifier,
		Analyzer:   analyzer,
		Generator:  generator,
		Ranker:     ranker,
		Pipeline:   pipeline,

		closeFn: func() {
			queue.Close()
			if closeIndex != nil {
				closeIndex()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
