package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/askdex/internal/app"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/domain/retrieval"
)

type analyzeOutput struct {
	Analysis analysis.Analysis `json:"analysis"`
	Params   retrieval.Params  `json:"params"`
	Filter   retrieval.Filter  `json:"filter"`
}

func analyzeCmd(opts *rootOptions) *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "analyze QUESTION...",
		Short: "Show the query analysis and the retrieval parameters derived from it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				res, err := a.Pipeline.Analyze(ctx, strings.Join(args, " "), filters.filters())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), analyzeOutput{
					Analysis: res.Analysis,
					Params:   res.Params,
					Filter:   res.Filter,
				})
			})
		},
	}
	filters.register(cmd)
	return cmd
}
