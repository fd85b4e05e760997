package askdex

import (
	"context"

	"github.com/kailas-cloud/askdex/internal/domain/query"
	healthuc "github.com/kailas-cloud/askdex/internal/usecase/health"
	"github.com/kailas-cloud/askdex/internal/usecase/pipeline"
)

type mockPipeline struct {
	askFn     func(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
	analyzeFn func(ctx context.Context, text string, f query.Filters) (pipeline.AnalyzeResult, error)
}

func (m *mockPipeline) Ask(ctx context.Context, req pipeline.Request) (pipeline.Response, error) {
	return m.askFn(ctx, req)
}

func (m *mockPipeline) Analyze(ctx context.Context, text string, f query.Filters) (pipeline.AnalyzeResult, error) {
	return m.analyzeFn(ctx, text, f)
}

type mockHealth struct {
	report healthuc.Report
}

func (m mockHealth) Check(context.Context) healthuc.Report { return m.report }
