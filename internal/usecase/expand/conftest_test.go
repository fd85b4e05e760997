package expand

import (
	"context"
	"encoding/json"

	"github.com/kailas-cloud/askdex/internal/domain"
)

type fakeLLM struct {
	structured      string
	structuredErr   error
	chat            string
	chatErr         error
	structuredCalls int
	chatCalls       int
	panicOnCall     bool
}

func (f *fakeLLM) StructuredCall(_ context.Context, _ domain.Call) (json.RawMessage, error) {
	f.structuredCalls++
	if f.panicOnCall {
		panic("boom")
	}
	if f.structuredErr != nil {
		return nil, f.structuredErr
	}
	return json.RawMessage(f.structured), nil
}

func (f *fakeLLM) ChatCall(_ context.Context, _ domain.Call) (string, error) {
	f.chatCalls++
	return f.chat, f.chatErr
}
