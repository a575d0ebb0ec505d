package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/policy-bridge/internal/config"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
	"github.com/kirillkom/policy-bridge/internal/core/usecase"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/extractor/document"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/llm/policyai"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/queue/nats"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/resilience"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/usage"
	"github.com/kirillkom/policy-bridge/internal/observability/metrics"
)

// Observers carries the per-binary metric sinks. Each binary owns its own
// Prometheus registry, so bootstrap never creates one.
type Observers struct {
	Pipeline *metrics.PipelineMetrics
	// QueueLag is optional; only the worker observes delivery lag.
	QueueLag func(time.Duration)
}

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Policies  ports.PolicyReader
	IngestUC  ports.PolicyIngestor
	ExtractUC ports.PolicyExtractor
	ProcessUC ports.ExtractionProcessor
	CompareUC ports.PolicyComparer
	AdvisorUC ports.PolicyAdvisor
	UsageUC   ports.UsageReader
	Exporter  ports.ComparisonExporter

	ConversationUC ports.ConversationReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, obs Observers, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	policyRepo := postgres.NewPolicyRepository(db)
	comparisonRepo := postgres.NewComparisonRepository(db)
	usageRepo := postgres.NewUsageRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig(), resilience.WithLogger(logger)),
		Logger:             logger,
		LagObserver:        obs.QueueLag,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	pricing, err := usage.LoadPricing(cfg.PricingFile)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load pricing: %w", err)
	}

	var usageMetrics usage.Metrics
	var extractionMetrics ports.ExtractionMetrics
	var comparisonMetrics ports.ComparisonMetrics
	if obs.Pipeline != nil {
		usageMetrics = obs.Pipeline
		extractionMetrics = obs.Pipeline
		comparisonMetrics = obs.Pipeline
	}
	usageLogger := usage.NewLogger(usageRepo, usageMetrics, logger)

	aiCfg := resilience.SingleAttempt(time.Duration(cfg.AITimeoutSeconds) * time.Second)
	aiCfg.BreakerEnabled = cfg.AIBreakerEnabled
	execOpts := []resilience.Option{resilience.WithLogger(logger)}
	if obs.Pipeline != nil {
		execOpts = append(execOpts, resilience.WithStateObserver(obs.Pipeline.RecordBreakerState))
	}
	aiOpts := policyai.Options{
		Executor: resilience.NewExecutor(aiCfg, execOpts...),
		Usage:    usageLogger,
		Pricer:   pricing,
		Logger:   logger,
		MockSeed: uint64(cfg.AIMockSeed),
	}

	extractGen, narrativeGen, err := newGenerators(ctx, cfg, logger)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, err
	}
	aiExtractor := policyai.NewExtractor(extractGen, aiOpts)
	narrator := policyai.NewNarrator(narrativeGen, aiOpts)
	answerer := policyai.NewAdvisor(narrativeGen, aiOpts)

	documents := document.NewExtractor(storage, logger)

	extractUC := usecase.NewExtractionService(policyRepo, documents, aiExtractor, extractionMetrics, logger)
	queryUC := usecase.NewQueryUseCase(policyRepo, usageRepo)
	advisorUC := usecase.NewAdvisorService(policyRepo, conversationRepo, answerer, logger)
	logger.Info("ai_extractor_ready", "provider", cfg.AIProvider, "mode", string(extractUC.Mode()))

	return &App{
		Config: cfg,
		Queue:  queue,

		Policies:  queryUC,
		IngestUC:  usecase.NewIngestPolicyUseCase(policyRepo, storage, queue),
		ExtractUC: extractUC,
		ProcessUC: extractUC,
		CompareUC: usecase.NewComparisonService(policyRepo, comparisonRepo, narrator, comparisonMetrics, logger),
		AdvisorUC: advisorUC,
		UsageUC:   queryUC,
		Exporter:  xlsx.NewExporter(logger),

		ConversationUC: advisorUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// newGeminiClient is swapped in tests.
var newGeminiClient = func(ctx context.Context, opts gemini.Options) (ports.TextGenerator, error) {
	client, err := gemini.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newGenerators returns the extraction and narrative generators. Both are nil
// when no provider is configured or the provider client cannot be built,
// which puts the AI client in mock mode. Only an unknown provider is fatal.
func newGenerators(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.TextGenerator, ports.TextGenerator, error) {
	switch cfg.AIProvider {
	case config.AIProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("ai_provider_unconfigured", "provider", cfg.AIProvider, "reason", "GEMINI_API_KEY is empty")
			return nil, nil, nil
		}
		client, err := newGeminiClient(ctx, gemini.Options{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: float32(cfg.AITemperature),
		})
		if err != nil {
			logger.Warn("ai_provider_unavailable", "provider", cfg.AIProvider, "mode", "mock", "error", err)
			return nil, nil, nil
		}
		return client, client, nil
	case config.AIProviderOllama:
		client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel)
		return client.WithJSONFormat(), client, nil
	case config.AIProviderMock:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
