package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/askdex/internal/app"
	"github.com/kailas-cloud/askdex/internal/domain/answer"
	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/usecase/pipeline"
)

type askOutput struct {
	Answer      answer.Answer      `json:"answer"`
	Diagnostics answer.Diagnostics `json:"diagnostics"`
}

func askCmd(opts *rootOptions) *cobra.Command {
	var (
		filters     filterFlags
		historyPath string
		textOnly    bool
	)
	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Answer a question with citations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := readHistory(historyPath)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				resp, err := a.Pipeline.Ask(ctx, pipeline.Request{
					Query:   strings.Join(args, " "),
					History: history,
					Filters: filters.filters(),
				})
				if err != nil {
					return err
				}
				if textOnly {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Answer.Text)
					return err
				}
				return printJSON(cmd.OutOrStdout(), askOutput{Answer: resp.Answer, Diagnostics: resp.Diagnostics})
			})
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVar(&historyPath, "history", "", `JSON file with prior turns: [{"role":"user","text":"..."}]`)
	cmd.Flags().BoolVar(&textOnly, "text", false, "print only the answer text")
	return cmd
}

func readHistory(path string) ([]query.Message, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var history []query.Message
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	return history, nil
}
