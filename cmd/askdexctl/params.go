package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/askdex/internal/domain/analysis"
	"github.com/kailas-cloud/askdex/internal/usecase/analyze"
)

// paramsCmd derives retrieval parameters offline from a judge payload, so
// the mapping can be checked without providers.
func paramsCmd() *cobra.Command {
	var (
		file string
		text string
	)
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Derive retrieval parameters from an analysis JSON (stdin or --file)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(filepath.Clean(file))
				if err != nil {
					return fmt.Errorf("open analysis: %w", err)
				}
				defer f.Close()
				in = f
			}
			a, err := readAnalysis(in, text)
			if err != nil {
				return err
			}
			p := analyze.DeriveRetrievalParameters(a)
			return printJSON(cmd.OutOrStdout(), analyzeOutput{Analysis: a, Params: p, Filter: p.Filter()})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "analysis JSON file (default stdin)")
	cmd.Flags().StringVar(&text, "query", "", "query text the analysis belongs to")
	return cmd
}

// readAnalysis validates a judge-shaped payload the same way live analyses are.
func readAnalysis(r io.Reader, text string) (analysis.Analysis, error) {
	var raw analysis.Raw
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return analysis.Analysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	return analysis.New(text, raw), nil
}
