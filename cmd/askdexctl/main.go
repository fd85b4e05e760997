// Command askdexctl runs the question answering pipeline from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/app"
	"github.com/kailas-cloud/askdex/internal/config"
	logpkg "github.com/kailas-cloud/askdex/internal/logger"
)

type rootOptions struct {
	env      string
	cfgPath  string
	logLevel string
	timeout  time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "askdexctl",
		Short:         "Ask questions against the askdex passage index",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.env, "env", "e", config.GetEnv(), "config environment (config/<env>.yaml)")
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "explicit config file, overrides --env")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "overall deadline of one command")

	root.AddCommand(askCmd(opts), analyzeCmd(opts), paramsCmd())
	return root
}

// withApp loads the configuration, connects to the store and runs fn with
// the assembled service.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := logpkg.NewLogger(opts.env, opts.logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	store, err := app.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	logger.Debug("Running command", zap.String("command", cmd.Name()))
	return fn(ctx, app.New(cfg, store, logger))
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	if opts.cfgPath != "" {
		return config.LoadFile(opts.cfgPath)
	}
	return config.Load(opts.env)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
