package askdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	password string
	index    string

	apiKey  string
	baseURL string

	primaryModel   string
	secondaryModel string

	embeddingModel   string
	dimensions       int
	queryInstruction string

	tokenBudget int
	maxSources  int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the Redis instance holding the passage index.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithIndex overrides the passage index name.
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithOpenAI sets the credentials of the OpenAI-compatible provider used for
// both chat and embeddings. An empty baseURL means api.openai.com.
func WithOpenAI(apiKey, baseURL string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	})
}

// WithModels sets the generator models. The secondary model answers when the
// primary fails and also runs the judges.
func WithModels(primary, secondary string) Option {
	return optionFunc(func(c *clientConfig) {
		c.primaryModel = primary
		c.secondaryModel = secondary
	})
}

// WithEmbedding sets the query embedding model and its vector dimensions.
func WithEmbedding(model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingModel = model
		c.dimensions = dimensions
	})
}

// WithQueryInstruction prefixes every embedded query, for instruction-tuned
// embedding models.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithContextBudget bounds the passages and tokens handed to the generator.
// Defaults: 5 sources, 2000 tokens.
func WithContextBudget(maxSources, tokenBudget int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxSources = maxSources
		c.tokenBudget = tokenBudget
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
