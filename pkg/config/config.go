package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
)

// DefaultPath is the configuration file read by Load when no path is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-studio.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, provider keys) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Model providers and tier assignments
	LLM LLMConfig `yaml:"llm"`

	// Generation pipeline tuning
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Knowledge corpus on disk
	Corpus CorpusConfig `yaml:"corpus"`

	// Spend admission
	Budget BudgetConfig `yaml:"budget"`

	// Optional model price overrides
	Pricing PricingConfig `yaml:"pricing"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_studio"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MaxIdleConns   int32  `yaml:"max_idle_conns" env:"PGMAX_IDLE_CONNS" env-default:"5"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// LLMConfig holds provider endpoints and the model assigned to each tier.
type LLMConfig struct {
	OpenAIBaseURL    string `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	OpenAIAPIKey     string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	AnthropicBaseURL string `yaml:"anthropic_base_url" env:"ANTHROPIC_BASE_URL" env-default:""`
	AnthropicAPIKey  string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML

	// RequestsPerSecond is shared by all provider calls. 0 disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"LLM_REQUESTS_PER_SECOND" env-default:"5"`

	// BreakerThreshold consecutive failures open a provider's circuit. 0 disables it.
	BreakerThreshold  int           `yaml:"breaker_threshold" env:"LLM_BREAKER_THRESHOLD" env-default:"5"`
	BreakerResetAfter time.Duration `yaml:"breaker_reset_after" env:"LLM_BREAKER_RESET_AFTER" env-default:"30s"`

	StrategicProvider string `yaml:"strategic_provider" env:"LLM_STRATEGIC_PROVIDER" env-default:"anthropic"`
	StrategicModel    string `yaml:"strategic_model" env:"LLM_STRATEGIC_MODEL" env-default:"claude-sonnet-4-5"`
	CreativeProvider  string `yaml:"creative_provider" env:"LLM_CREATIVE_PROVIDER" env-default:"openai"`
	CreativeModel     string `yaml:"creative_model" env:"LLM_CREATIVE_MODEL" env-default:"gpt-4o"`
	BulkProvider      string `yaml:"bulk_provider" env:"LLM_BULK_PROVIDER" env-default:"openai"`
	BulkModel         string `yaml:"bulk_model" env:"LLM_BULK_MODEL" env-default:"gpt-4o-mini"`
}

// PipelineConfig holds generation and retrieval tuning.
type PipelineConfig struct {
	StageTimeout time.Duration `yaml:"stage_timeout" env:"PIPELINE_STAGE_TIMEOUT" env-default:"90s"`

	PlanTemperature     float64 `yaml:"plan_temperature" env:"PIPELINE_PLAN_TEMPERATURE" env-default:"0.7"`
	DraftTemperature    float64 `yaml:"draft_temperature" env:"PIPELINE_DRAFT_TEMPERATURE" env-default:"0.8"`
	CritiqueTemperature float64 `yaml:"critique_temperature" env:"PIPELINE_CRITIQUE_TEMPERATURE" env-default:"0.3"`
	ScoreTemperature    float64 `yaml:"score_temperature" env:"PIPELINE_SCORE_TEMPERATURE" env-default:"0.2"`

	ChunkSize          int     `yaml:"chunk_size" env:"PIPELINE_CHUNK_SIZE" env-default:"1000"`
	ChunkOverlap       int     `yaml:"chunk_overlap" env:"PIPELINE_CHUNK_OVERLAP" env-default:"200"`
	KnowledgeLimit     int     `yaml:"knowledge_limit" env:"PIPELINE_KNOWLEDGE_LIMIT" env-default:"5"`
	LearningLimit      int     `yaml:"learning_limit" env:"PIPELINE_LEARNING_LIMIT" env-default:"10"`
	LearningPool       int     `yaml:"learning_pool" env:"PIPELINE_LEARNING_POOL" env-default:"100"`
	RecentContentLimit int     `yaml:"recent_content_limit" env:"PIPELINE_RECENT_CONTENT_LIMIT" env-default:"20"`
	PillarTolerance    float64 `yaml:"pillar_tolerance" env:"PIPELINE_PILLAR_TOLERANCE" env-default:"10"`
}

// CorpusConfig locates tenant knowledge documents.
type CorpusConfig struct {
	Root      string        `yaml:"root" env:"CORPUS_ROOT" env-default:"./knowledge"`
	SharedDir string        `yaml:"shared_dir" env:"CORPUS_SHARED_DIR" env-default:"_shared"`
	CacheTTL  time.Duration `yaml:"cache_ttl" env:"CORPUS_CACHE_TTL" env-default:"5m"`
}

// BudgetConfig holds spend admission defaults.
type BudgetConfig struct {
	// DefaultLimitCents applies when a request carries no limit. 0 means unlimited.
	DefaultLimitCents float64 `yaml:"default_limit_cents" env:"BUDGET_DEFAULT_LIMIT_CENTS" env-default:"0"`
}

// PricingConfig points at an optional rate-table override file.
type PricingConfig struct {
	RateTablePath string `yaml:"rate_table_path" env:"PRICING_RATE_TABLE_PATH" env-default:""`
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error; configuration then comes from the
// environment and defaults alone.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints cleanenv cannot express.
func (c *Config) Validate() error {
	p := c.Pipeline
	switch {
	case p.ChunkSize <= 0:
		return apperrors.NewConfigurationError("pipeline.chunk_size", "must be positive")
	case p.ChunkOverlap < 0:
		return apperrors.NewConfigurationError("pipeline.chunk_overlap", "must not be negative")
	case p.ChunkOverlap >= p.ChunkSize:
		return apperrors.NewConfigurationError("pipeline.chunk_overlap", "must be smaller than chunk_size")
	case p.StageTimeout <= 0:
		return apperrors.NewConfigurationError("pipeline.stage_timeout", "must be positive")
	case p.KnowledgeLimit <= 0:
		return apperrors.NewConfigurationError("pipeline.knowledge_limit", "must be positive")
	case p.LearningLimit <= 0:
		return apperrors.NewConfigurationError("pipeline.learning_limit", "must be positive")
	case p.LearningPool < p.LearningLimit:
		return apperrors.NewConfigurationError("pipeline.learning_pool", "must be at least learning_limit")
	case p.RecentContentLimit <= 0:
		return apperrors.NewConfigurationError("pipeline.recent_content_limit", "must be positive")
	case p.PillarTolerance < 0:
		return apperrors.NewConfigurationError("pipeline.pillar_tolerance", "must not be negative")
	}

	tiers := []struct{ name, provider, model string }{
		{"strategic", c.LLM.StrategicProvider, c.LLM.StrategicModel},
		{"creative", c.LLM.CreativeProvider, c.LLM.CreativeModel},
		{"bulk", c.LLM.BulkProvider, c.LLM.BulkModel},
	}
	for _, tier := range tiers {
		switch strings.ToLower(tier.provider) {
		case "openai", "anthropic":
		default:
			return apperrors.NewConfigurationError("llm."+tier.name+"_provider",
				fmt.Sprintf("unknown provider %q", tier.provider))
		}
		if strings.TrimSpace(tier.model) == "" {
			return apperrors.NewConfigurationError("llm."+tier.name+"_model", "must not be empty")
		}
	}

	if c.LLM.RequestsPerSecond < 0 {
		return apperrors.NewConfigurationError("llm.requests_per_second", "must not be negative")
	}
	if c.LLM.BreakerThreshold < 0 {
		return apperrors.NewConfigurationError("llm.breaker_threshold", "must not be negative")
	}
	if c.Budget.DefaultLimitCents < 0 {
		return apperrors.NewConfigurationError("budget.default_limit_cents", "must not be negative")
	}
	if c.Corpus.CacheTTL < 0 {
		return apperrors.NewConfigurationError("corpus.cache_ttl", "must not be negative")
	}

	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// ModelRate is the price of one model in cents per million tokens.
type ModelRate struct {
	InputCentsPerMillion  float64 `yaml:"input_cents_per_million"`
	OutputCentsPerMillion float64 `yaml:"output_cents_per_million"`
}

// LoadRateTable reads a YAML map of model name to ModelRate. An empty path
// returns an empty table.
func LoadRateTable(path string) (map[string]ModelRate, error) {
	if path == "" {
		return map[string]ModelRate{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate table: %w", err)
	}

	var table map[string]ModelRate
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse rate table: %w", err)
	}

	for model, rate := range table {
		if rate.InputCentsPerMillion < 0 || rate.OutputCentsPerMillion < 0 {
			return nil, apperrors.NewConfigurationError("pricing."+model, "rates must not be negative")
		}
	}
	if table == nil {
		table = map[string]ModelRate{}
	}
	return table, nil
}
