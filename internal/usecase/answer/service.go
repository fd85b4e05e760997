// Package answer generates the grounded answer from an assembled context.
package answer

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	domanswer "github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/logger"
	"github.com/kailas-cloud/askdex/internal/metrics"
)

// Operation names the generation call.
const Operation = "generate"

// Outcome reasons.
const (
	ReasonSecondaryModel   = "generator secondary model"
	ReasonGenerationFailed = "generation failed"
)

// Defaults for Config.
const (
	DefaultHistoryMessages = 6
	DefaultMaxTokens       = 800
)

// Config tunes the generator.
type Config struct {
	PrimaryModel   string
	SecondaryModel string
	// HistoryMessages bounds how many recent turns reach the prompt.
	HistoryMessages int
	MaxTokens       int
	Temperature     float32
}

// Generator produces answers with a primary and a secondary model.
type Generator struct {
	llm    LLM
	cfg    Config
	logger *zap.Logger
}

// New creates a Generator.
func New(llm LLM, cfg Config, logger *zap.Logger) *Generator {
	if cfg.HistoryMessages == 0 {
		cfg.HistoryMessages = DefaultHistoryMessages
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Generator{llm: llm, cfg: cfg, logger: logger}
}

// Generate answers q from actx. The only errors returned are context errors;
// provider failures end in the insufficient-information answer.
func (g *Generator) Generate(
	ctx context.Context, q string, history []query.Message, actx domanswer.Context,
) (domanswer.Answer, error) {
	a, _, err := g.GenerateWithOutcome(ctx, q, history, actx)
	return a, err
}

// GenerateWithOutcome is Generate plus whether the secondary model was used
// or generation failed altogether.
func (g *Generator) GenerateWithOutcome(
	ctx context.Context, q string, history []query.Message, actx domanswer.Context,
) (domanswer.Answer, domain.Outcome, error) {
	if actx.IsEmpty() {
		metrics.AnswersTotal.WithLabelValues(string(domanswer.KindInsufficient), "none").Inc()
		return domanswer.Insufficient(), domain.OK, nil
	}
	if g.llm == nil {
		metrics.AnswersTotal.WithLabelValues(string(domanswer.KindInsufficient), "none").Inc()
		return domanswer.Insufficient(), domain.Degraded(ReasonGenerationFailed), nil
	}

	log := logger.FromContext(ctx, g.logger)
	call := domain.Call{
		Operation:   Operation,
		System:      systemPrompt,
		User:        userPrompt(q, lastMessages(history, g.cfg.HistoryMessages), actx),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}

	text, err := g.call(ctx, call, g.cfg.PrimaryModel)
	if err == nil {
		metrics.AnswersTotal.WithLabelValues(string(domanswer.KindGenerated), "primary").Inc()
		return g.generated(text, g.cfg.PrimaryModel, actx), domain.OK, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domanswer.Answer{}, domain.OK, ctxErr
	}
	log.Warn("Primary generator failed",
		zap.String("stage", "answer"),
		zap.String("model", g.cfg.PrimaryModel),
		zap.Error(err),
	)

	if g.cfg.SecondaryModel != "" && g.cfg.SecondaryModel != g.cfg.PrimaryModel {
		text, err = g.call(ctx, call, g.cfg.SecondaryModel)
		if err == nil {
			metrics.AnswersTotal.WithLabelValues(string(domanswer.KindGenerated), "secondary").Inc()
			return g.generated(text, g.cfg.SecondaryModel, actx), domain.Degraded(ReasonSecondaryModel), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domanswer.Answer{}, domain.OK, ctxErr
		}
		log.Warn("Secondary generator failed",
			zap.String("stage", "answer"),
			zap.String("model", g.cfg.SecondaryModel),
			zap.Error(err),
		)
	}

	metrics.AnswersTotal.WithLabelValues(string(domanswer.KindInsufficient), "none").Inc()
	return domanswer.Insufficient(), domain.Degraded(ReasonGenerationFailed), nil
}

var errEmptyAnswer = errors.New("empty answer")

func (g *Generator) call(ctx context.Context, call domain.Call, model string) (string, error) {
	call.Model = model
	text, err := g.llm.ChatCall(ctx, call)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewMalformed(Operation, errEmptyAnswer)
	}
	return text, nil
}

func (g *Generator) generated(text, model string, actx domanswer.Context) domanswer.Answer {
	text = domanswer.KeepMarkers(text, func(m string) bool {
		_, ok := actx.Citations[m]
		return ok
	})
	return domanswer.Answer{
		Text:      text,
		Citations: cited(text, actx.Citations),
		Kind:      domanswer.KindGenerated,
		Model:     model,
	}
}
