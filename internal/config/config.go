package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the askdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Expansion ExpansionConfig `yaml:"expansion"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Assembler AssemblerConfig `yaml:"assembler"`
	Answer    AnswerConfig    `yaml:"answer"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig holds the per-client request limiter. Zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the Redis connection and search index settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	IndexName        string   `yaml:"index_name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LLMConfig holds the chat completion provider settings.
type LLMConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	PrimaryModel   string        `yaml:"primary_model"`
	SecondaryModel string        `yaml:"secondary_model"`
	JudgeModel     string        `yaml:"judge_model"`
	SummaryModel   string        `yaml:"summary_model"` // context summarization, default judge_model
	TimeoutSec     int           `yaml:"timeout_sec"`
	MaxInputChars  int           `yaml:"max_input_chars"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds retry and circuit breaker settings of LLM calls.
type BreakerConfig struct {
	Enabled          bool    `yaml:"enabled"`
	MinRequests      uint32  `yaml:"min_requests"`
	FailureRatio     float64 `yaml:"failure_ratio"`
	OpenTimeoutSec   int     `yaml:"open_timeout_sec"`
	HalfOpenMaxCalls uint32  `yaml:"half_open_max_calls"`
	RetryAttempts    int     `yaml:"retry_attempts"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheEnabled     bool   `yaml:"cache_enabled"`
	CacheTTLSec      int    `yaml:"cache_ttl_sec"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// AnalysisConfig holds query analyzer settings.
type AnalysisConfig struct {
	CacheTTLSec   int   `yaml:"cache_ttl_sec"`
	CacheFailures *bool `yaml:"cache_failures"` // default true
}

// ExpansionConfig holds query expander settings.
type ExpansionConfig struct {
	Enabled     *bool `yaml:"enabled"` // default true
	MaxTerms    int   `yaml:"max_terms"`
	CacheTTLSec int   `yaml:"cache_ttl_sec"`
}

// RetrievalConfig holds fusion settings.
type RetrievalConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	OverFetch           int     `yaml:"over_fetch"`
	BranchTimeoutMS     int     `yaml:"branch_timeout_ms"`
}

// RerankConfig holds reranker settings.
type RerankConfig struct {
	TimeoutSec           int `yaml:"timeout_sec"`
	MaxCharsPerCandidate int `yaml:"max_chars_per_candidate"`
}

// AssemblerConfig holds context assembly settings.
type AssemblerConfig struct {
	MaxSources      int     `yaml:"max_sources"`
	TokenBudget     int     `yaml:"token_budget"`
	WordsPerToken   float64 `yaml:"words_per_token"`
	DedupeThreshold float64 `yaml:"dedupe_threshold"`
	TokenCounter    string  `yaml:"token_counter"` // words (default), tiktoken
	Encoding        string  `yaml:"encoding"`      // tiktoken encoding, default cl100k_base
}

// AnswerConfig holds answer generation settings.
type AnswerConfig struct {
	HistoryMessages int    `yaml:"history_messages"`
	MaxTokens       int    `yaml:"max_tokens"`
	Greeting        string `yaml:"greeting"`
}

// CacheConfig selects where analyses and expansions are cached.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // memory (default), redis
	MaxEntries int    `yaml:"max_entries"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	setInt(&c.HTTP.ReadTimeoutSec, 10)
	setInt(&c.HTTP.WriteTimeoutSec, 60)
	setInt(&c.HTTP.ShutdownSec, 10)

	setInt(&c.Database.ReadinessTimeout, 10)
	setString(&c.Database.IndexName, "askdex:passages:idx")
	setString(&c.Database.KeyPrefix, "askdex:passage:")

	setInt(&c.LLM.TimeoutSec, 30)
	setInt(&c.LLM.MaxInputChars, 48000)
	setString(&c.LLM.SecondaryModel, c.LLM.PrimaryModel)
	setString(&c.LLM.JudgeModel, c.LLM.PrimaryModel)
	setString(&c.LLM.SummaryModel, c.LLM.JudgeModel)
	if c.LLM.Breaker.MinRequests == 0 {
		c.LLM.Breaker.MinRequests = 5
	}
	if c.LLM.Breaker.FailureRatio <= 0 {
		c.LLM.Breaker.FailureRatio = 0.5
	}
	setInt(&c.LLM.Breaker.OpenTimeoutSec, 30)
	if c.LLM.Breaker.HalfOpenMaxCalls == 0 {
		c.LLM.Breaker.HalfOpenMaxCalls = 1
	}
	setInt(&c.LLM.Breaker.RetryAttempts, 2)

	setString(&c.Embedding.Provider, "openai")
	setInt(&c.Embedding.CacheTTLSec, 86400)
	setInt(&c.Embedding.TimeoutSec, 10)
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.LLM.APIKey
	}

	setInt(&c.Analysis.CacheTTLSec, 600)
	setBool(&c.Analysis.CacheFailures, true)

	setBool(&c.Expansion.Enabled, true)
	setInt(&c.Expansion.MaxTerms, 5)
	setInt(&c.Expansion.CacheTTLSec, 3600)

	if c.Retrieval.SimilarityThreshold <= 0 {
		c.Retrieval.SimilarityThreshold = 0.3
	}
	setInt(&c.Retrieval.OverFetch, 2)
	setInt(&c.Retrieval.BranchTimeoutMS, 5000)

	setInt(&c.Rerank.TimeoutSec, 8)
	setInt(&c.Rerank.MaxCharsPerCandidate, 800)

	setInt(&c.Assembler.MaxSources, 5)
	setInt(&c.Assembler.TokenBudget, 2000)
	if c.Assembler.WordsPerToken <= 0 {
		c.Assembler.WordsPerToken = 0.75
	}
	if c.Assembler.DedupeThreshold <= 0 {
		c.Assembler.DedupeThreshold = 0.9
	}
	setString(&c.Assembler.TokenCounter, "words")
	setString(&c.Assembler.Encoding, "cl100k_base")

	setInt(&c.Answer.HistoryMessages, 6)
	setInt(&c.Answer.MaxTokens, 800)

	setString(&c.Cache.Backend, "memory")
	setInt(&c.Cache.MaxEntries, 10000)

	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = int(c.RateLimit.RPS) + 1
	}
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func setBool(v **bool, def bool) {
	if *v == nil {
		*v = &def
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.LLM.PrimaryModel == "" {
		return fmt.Errorf("llm.primary_model is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if r := c.LLM.Breaker.FailureRatio; r > 1 {
		return fmt.Errorf("llm.breaker.failure_ratio must be in (0, 1], got %v", r)
	}
	if t := c.Retrieval.SimilarityThreshold; t > 1 {
		return fmt.Errorf("retrieval.similarity_threshold must be in [0, 1], got %v", t)
	}
	if t := c.Assembler.DedupeThreshold; t > 1 {
		return fmt.Errorf("assembler.dedupe_threshold must be in (0, 1], got %v", t)
	}
	switch c.Assembler.TokenCounter {
	case "words", "tiktoken":
	default:
		return fmt.Errorf("assembler.token_counter must be \"words\" or \"tiktoken\", got %q", c.Assembler.TokenCounter)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be \"memory\" or \"redis\", got %q", c.Cache.Backend)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative, got %v", c.RateLimit.RPS)
	}
	return nil
}

// Duration converts a seconds field.
func Duration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
