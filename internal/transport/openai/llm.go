package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/logger"
	"github.com/kailas-cloud/askdex/internal/metrics"
	"github.com/kailas-cloud/askdex/internal/resilience"
)

var _ domain.LLM = (*LLM)(nil)

const (
	defaultLLMTimeout    = 30 * time.Second
	defaultMaxInputChars = 48_000
)

// LLMConfig holds the chat completion provider settings.
type LLMConfig struct {
	APIKey        string
	BaseURL       string
	DefaultModel  string
	Timeout       time.Duration
	MaxInputChars int
	Executor      *resilience.Executor
	Logger        *zap.Logger
}

// LLM is the judge and generator provider over the OpenAI-compatible chat API.
type LLM struct {
	client        *openai.Client
	model         string
	timeout       time.Duration
	maxInputChars int
	exec          *resilience.Executor
	logger        *zap.Logger
}

// NewLLM creates a chat completion provider.
func NewLLM(cfg *LLMConfig) *LLM {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}
	maxInput := cfg.MaxInputChars
	if maxInput <= 0 {
		maxInput = defaultMaxInputChars
	}
	exec := cfg.Executor
	if exec == nil {
		exec = resilience.NewExecutor(resilience.Config{}, cfg.Logger, metrics.ObserveBreaker)
	}
	return &LLM{
		client:        openai.NewClientWithConfig(clientCfg),
		model:         cfg.DefaultModel,
		timeout:       timeout,
		maxInputChars: maxInput,
		exec:          exec,
		logger:        cfg.Logger,
	}
}

// StructuredCall requests JSON output constrained by call.Schema and returns
// it once it parses as JSON.
func (l *LLM) StructuredCall(ctx context.Context, call domain.Call) (json.RawMessage, error) {
	if call.Schema == nil {
		return nil, fmt.Errorf("%s: schema is required: %w", call.Operation, domain.ErrConfiguration)
	}
	name := call.SchemaName
	if name == "" {
		name = call.Operation
	}
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: call.Schema,
			Strict: true,
		},
	}

	content, err := l.complete(ctx, call, format)
	if err != nil {
		return nil, err
	}
	payload := json.RawMessage(stripCodeFence(content))
	if !json.Valid(payload) {
		return nil, domain.NewMalformed(call.Operation, errors.New("output is not valid JSON"))
	}
	return payload, nil
}

// ChatCall returns the plain text completion of call.
func (l *LLM) ChatCall(ctx context.Context, call domain.Call) (string, error) {
	return l.complete(ctx, call, nil)
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (l *LLM) HealthCheck(ctx context.Context) error {
	if _, err := l.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (l *LLM) complete(
	ctx context.Context, call domain.Call, format *openai.ChatCompletionResponseFormat,
) (string, error) {
	model := call.Model
	if model == "" {
		model = l.model
	}
	if model == "" {
		return "", fmt.Errorf("%s: model is required: %w", call.Operation, domain.ErrConfiguration)
	}

	req := openai.ChatCompletionRequest{
		Model:          model,
		Messages:       l.messages(ctx, call),
		Temperature:    call.Temperature,
		ResponseFormat: format,
	}
	if call.MaxTokens > 0 {
		req.MaxCompletionTokens = call.MaxTokens
	}

	var content string
	start := time.Now()
	err := l.exec.Execute(ctx, call.Operation+":"+model, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, l.timeout)
		defer cancel()

		resp, err := l.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("provider timeout after %s: %w", l.timeout, context.DeadlineExceeded)
			}
			return err //nolint:wrapcheck // classified below
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return domain.NewMalformed(call.Operation, domain.ErrEmptyResult)
		}
		content = resp.Choices[0].Message.Content
		metrics.LLMTokensTotal.WithLabelValues(call.Operation, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(call.Operation, model, "completion").Add(float64(resp.Usage.CompletionTokens))
		return nil
	}, classify)

	metrics.LLMRequestDuration.WithLabelValues(call.Operation, model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(call.Operation, model, "error").Inc()
		logger.FromContext(ctx, l.logger).Warn("LLM call failed",
			zap.String("operation", call.Operation),
			zap.String("model", model),
			zap.Bool("circuit_open", resilience.IsCircuitOpen(err)),
			zap.Error(err),
		)
		return "", wrapCallError(call.Operation, err)
	}
	metrics.LLMRequestsTotal.WithLabelValues(call.Operation, model, "success").Inc()
	return content, nil
}

// messages builds the request messages, cutting the user prompt so the
// whole input stays within maxInputChars.
func (l *LLM) messages(ctx context.Context, call domain.Call) []openai.ChatCompletionMessage {
	user := call.User
	if budget := l.maxInputChars - len(call.System); len(user) > budget {
		logger.FromContext(ctx, l.logger).Warn("LLM input exceeds limit, truncating",
			zap.String("operation", call.Operation),
			zap.Int("chars", len(call.System)+len(user)),
			zap.Int("limit", l.maxInputChars),
		)
		user = truncateUTF8(user, max(budget, 0))
	}
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if call.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: call.System})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

// stripCodeFence removes a ```json fence some providers wrap output in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
