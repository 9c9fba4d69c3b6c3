// Package app wires the content core together from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/config"
	"github.com/ekaya-inc/ekaya-studio/pkg/corpus"
	"github.com/ekaya-inc/ekaya-studio/pkg/database"
	"github.com/ekaya-inc/ekaya-studio/pkg/llm"
	"github.com/ekaya-inc/ekaya-studio/pkg/repositories"
	"github.com/ekaya-inc/ekaya-studio/pkg/services"
)

// App holds the constructed services. Build it once at startup and share it;
// it carries no per-request state.
type App struct {
	DB      *database.DB
	Metrics *services.PipelineMetrics

	Content       services.ContentService
	Assembler     services.ContextAssembler
	Pipeline      services.ContentPipeline
	Meter         services.UsageMeter
	Learnings     services.LearningService
	BrandProfiles services.BrandProfileService
	Corpus        *corpus.FileCorpus
	Router        *llm.Router

	logger *zap.Logger
}

type options struct {
	registerer    prometheus.Registerer
	clientFactory llm.LLMClientFactory
	skipMigrate   bool
}

// Option customizes New.
type Option func(*options)

// WithRegisterer registers metrics with reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithClientFactory replaces the provider client factory.
func WithClientFactory(f llm.LLMClientFactory) Option {
	return func(o *options) { o.clientFactory = f }
}

// WithoutMigrations skips applying migrations at startup.
func WithoutMigrations() Option {
	return func(o *options) { o.skipMigrate = true }
}

// New connects to Postgres, applies migrations and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	router, err := NewRouter(cfg.LLM)
	if err != nil {
		return nil, err
	}

	rates, err := NewRateTable(cfg.Pricing)
	if err != nil {
		return nil, err
	}

	fileCorpus, err := corpus.NewFileCorpus(corpus.Config{
		Root:         cfg.Corpus.Root,
		SharedDir:    cfg.Corpus.SharedDir,
		CacheTTL:     cfg.Corpus.CacheTTL,
		ChunkSize:    cfg.Pipeline.ChunkSize,
		ChunkOverlap: cfg.Pipeline.ChunkOverlap,
	}, logger)
	if err != nil {
		return nil, err
	}

	connStr := cfg.Database.ConnectionString()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MaxIdleConns,
	}, logger)
	if err != nil {
		return nil, err
	}

	if !o.skipMigrate {
		if err := database.MigrateURL(connStr, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	factory := o.clientFactory
	if factory == nil {
		factory = llm.NewClientFactory(llm.ProviderSettings{
			OpenAIBaseURL:    cfg.LLM.OpenAIBaseURL,
			OpenAIAPIKey:     cfg.LLM.OpenAIAPIKey,
			AnthropicBaseURL: cfg.LLM.AnthropicBaseURL,
			AnthropicAPIKey:  cfg.LLM.AnthropicAPIKey,
		}, llm.NewLimiter(cfg.LLM.RequestsPerSecond), llm.CircuitBreakerConfig{
			Threshold:  cfg.LLM.BreakerThreshold,
			ResetAfter: cfg.LLM.BreakerResetAfter,
		}, logger)
	}

	metrics := services.NewPipelineMetrics(o.registerer)

	brandRepo := repositories.NewBrandProfileRepository(db)
	learningRepo := repositories.NewLearningRepository(db)
	meter := services.NewUsageMeter(repositories.NewUsageRepository(db), rates, metrics, logger)

	assembler := services.NewContextAssembler(
		brandRepo,
		fileCorpus,
		learningRepo,
		repositories.NewPreferenceRepository(db),
		repositories.NewPipelineStateRepository(db),
		services.AssemblerConfig{
			KnowledgeLimit:     cfg.Pipeline.KnowledgeLimit,
			LearningLimit:      cfg.Pipeline.LearningLimit,
			LearningPool:       cfg.Pipeline.LearningPool,
			RecentContentLimit: cfg.Pipeline.RecentContentLimit,
			PillarTolerance:    cfg.Pipeline.PillarTolerance,
		},
		logger,
	)

	pipeline := services.NewContentPipeline(router, factory, meter, metrics, services.PipelineConfig{
		StageTimeout:        cfg.Pipeline.StageTimeout,
		PlanTemperature:     cfg.Pipeline.PlanTemperature,
		DraftTemperature:    cfg.Pipeline.DraftTemperature,
		CritiqueTemperature: cfg.Pipeline.CritiqueTemperature,
		ScoreTemperature:    cfg.Pipeline.ScoreTemperature,
	}, logger)

	a := &App{
		DB:            db,
		Metrics:       metrics,
		Content:       services.NewContentService(meter, assembler, pipeline, cfg.Budget.DefaultLimitCents, logger),
		Assembler:     assembler,
		Pipeline:      pipeline,
		Meter:         meter,
		Learnings:     services.NewLearningService(learningRepo, logger),
		BrandProfiles: services.NewBrandProfileService(brandRepo, logger),
		Corpus:        fileCorpus,
		Router:        router,
		logger:        logger.Named("app"),
	}

	a.logger.Info("Content core ready",
		zap.String("env", cfg.Env),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.String("strategic_model", cfg.LLM.StrategicModel),
		zap.String("creative_model", cfg.LLM.CreativeModel),
		zap.String("bulk_model", cfg.LLM.BulkModel),
		zap.String("corpus_root", cfg.Corpus.Root))

	return a, nil
}

// Close releases the connection pool.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewRouter builds the model router from the tier settings.
func NewRouter(cfg config.LLMConfig) (*llm.Router, error) {
	return llm.NewRouter(map[llm.Tier]llm.ModelSpec{
		llm.TierStrategic: {Provider: llm.Provider(cfg.StrategicProvider), Model: cfg.StrategicModel},
		llm.TierCreative:  {Provider: llm.Provider(cfg.CreativeProvider), Model: cfg.CreativeModel},
		llm.TierBulk:      {Provider: llm.Provider(cfg.BulkProvider), Model: cfg.BulkModel},
	})
}

// NewRateTable returns the default prices with any configured overrides.
func NewRateTable(cfg config.PricingConfig) (services.RateTable, error) {
	overrides, err := config.LoadRateTable(cfg.RateTablePath)
	if err != nil {
		return nil, err
	}
	return services.DefaultRateTable().WithOverrides(overrides), nil
}
