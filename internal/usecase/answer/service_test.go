package answer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain"
	domanswer "github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/query"
)

func TestGenerate_Primary(t *testing.T) {
	llm := &fakeLLM{replies: map[string]reply{
		"big": {text: "The Pro plan costs $10 per seat [1]."},
	}}
	g := New(llm, Config{PrimaryModel: "big", SecondaryModel: "small"}, zap.NewNop())

	a, outcome, err := g.GenerateWithOutcome(context.Background(), "how much is pro?", nil, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Degraded {
		t.Errorf("unexpected degraded outcome %+v", outcome)
	}
	if a.Kind != domanswer.KindGenerated || a.Model != "big" {
		t.Errorf("unexpected answer %+v", a)
	}
	if len(a.Citations) != 1 || a.Citations["[1]"].ChunkID != "a" {
		t.Errorf("citations should be limited to referenced markers: %+v", a.Citations)
	}
	if !slices.Equal(llm.models, []string{"big"}) {
		t.Errorf("models called = %v", llm.models)
	}
	if llm.last.Operation != Operation || !strings.Contains(llm.last.User, "Question: how much is pro?") {
		t.Errorf("unexpected call %+v", llm.last)
	}
	if !strings.Contains(llm.last.User, "[1] Pricing\n[2] doc-b\n") {
		t.Errorf("citation legend missing:\n%s", llm.last.User)
	}
}

func TestGenerate_NoMarkersReturnsAllCitations(t *testing.T) {
	llm := &fakeLLM{replies: map[string]reply{"big": {text: "Pricing depends on the plan."}}}
	g := New(llm, Config{PrimaryModel: "big"}, zap.NewNop())

	a, err := g.Generate(context.Background(), "pricing?", nil, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Citations) != 2 {
		t.Errorf("expected every context citation, got %+v", a.Citations)
	}
}

func TestGenerate_UnknownMarkersStripped(t *testing.T) {
	llm := &fakeLLM{replies: map[string]reply{"big": {text: "Ten dollars [1][5]."}}}
	g := New(llm, Config{PrimaryModel: "big"}, zap.NewNop())

	a, _ := g.Generate(context.Background(), "q", nil, testContext())
	if a.Text != "Ten dollars [1]." {
		t.Errorf("text = %q", a.Text)
	}
	if _, ok := a.Citations["[5]"]; ok {
		t.Error("unknown marker cited")
	}
}

func TestGenerate_SecondaryOnPrimaryFailure(t *testing.T) {
	tests := []struct {
		name    string
		primary reply
	}{
		{"transient", reply{err: domain.NewTransient(Operation, errors.New("503"))}},
		{"rate limited", reply{err: fmt.Errorf("generate: %w", domain.ErrRateLimited)}},
		{"empty output", reply{text: "  \n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{replies: map[string]reply{
				"big":   tt.primary,
				"small": {text: "Enterprise is negotiated [2]."},
			}}
			g := New(llm, Config{PrimaryModel: "big", SecondaryModel: "small"}, zap.NewNop())

			a, outcome, err := g.GenerateWithOutcome(context.Background(), "q", nil, testContext())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Model != "small" || a.Kind != domanswer.KindGenerated {
				t.Errorf("unexpected answer %+v", a)
			}
			if !outcome.Degraded || outcome.Reason != ReasonSecondaryModel {
				t.Errorf("outcome = %+v", outcome)
			}
			if !slices.Equal(llm.models, []string{"big", "small"}) {
				t.Errorf("models called = %v", llm.models)
			}
		})
	}
}

func TestGenerate_BothModelsFail(t *testing.T) {
	boom := reply{err: domain.NewTransient(Operation, errors.New("down"))}
	llm := &fakeLLM{replies: map[string]reply{"big": boom, "small": boom}}
	g := New(llm, Config{PrimaryModel: "big", SecondaryModel: "small"}, zap.NewNop())

	a, outcome, err := g.GenerateWithOutcome(context.Background(), "q", nil, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Kind != domanswer.KindInsufficient || a.Text != domanswer.InsufficientInformation {
		t.Errorf("unexpected answer %+v", a)
	}
	if len(a.Citations) != 0 {
		t.Errorf("insufficient answer must not cite: %+v", a.Citations)
	}
	if outcome.Reason != ReasonGenerationFailed {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestGenerate_NoSecondaryConfigured(t *testing.T) {
	llm := &fakeLLM{replies: map[string]reply{"big": {err: errors.New("down")}}}
	g := New(llm, Config{PrimaryModel: "big"}, zap.NewNop())

	a, _ := g.Generate(context.Background(), "q", nil, testContext())
	if a.Kind != domanswer.KindInsufficient || len(llm.models) != 1 {
		t.Errorf("answer %+v after calls %v", a, llm.models)
	}
}

func TestGenerate_EmptyContextSkipsCall(t *testing.T) {
	llm := &fakeLLM{}
	g := New(llm, Config{PrimaryModel: "big"}, zap.NewNop())

	a, outcome, err := g.GenerateWithOutcome(context.Background(), "q", nil, domanswer.Context{})
	if err != nil || outcome.Degraded {
		t.Fatalf("err = %v, outcome = %+v", err, outcome)
	}
	if a.Kind != domanswer.KindInsufficient || len(llm.models) != 0 {
		t.Errorf("answer %+v after calls %v", a, llm.models)
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	llm := &fakeLLM{replies: map[string]reply{"big": {err: ctx.Err()}}}
	g := New(llm, Config{PrimaryModel: "big", SecondaryModel: "small"}, zap.NewNop())

	_, err := g.Generate(ctx, "q", nil, testContext())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(llm.models) != 1 {
		t.Errorf("secondary must not run after cancellation: %v", llm.models)
	}
}

func TestGenerate_HistoryBounded(t *testing.T) {
	llm := &fakeLLM{replies: map[string]reply{"big": {text: "ok [1]"}}}
	g := New(llm, Config{PrimaryModel: "big", HistoryMessages: 2}, zap.NewNop())
	history := []query.Message{
		{Role: query.RoleUser, Text: "first question"},
		{Role: query.RoleAssistant, Text: "first answer"},
		{Role: query.RoleUser, Text: "second question"},
	}

	if _, err := g.Generate(context.Background(), "q", history, testContext()); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(llm.last.User, "first question") {
		t.Error("oldest turn should be dropped")
	}
	if !strings.Contains(llm.last.User, "assistant: first answer\nuser: second question\n") {
		t.Errorf("recent turns missing:\n%s", llm.last.User)
	}
}

func TestSortedMarkers(t *testing.T) {
	got := sortedMarkers(map[string]domanswer.Source{"[10]": {}, "[2]": {}, "[1]": {}})
	if !slices.Equal(got, []string{"[1]", "[2]", "[10]"}) {
		t.Errorf("sortedMarkers = %v", got)
	}
}
