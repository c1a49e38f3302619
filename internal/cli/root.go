// Package cli implements the ragsync command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ragsync/internal/logger"
)

type rootOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "ragsync",
		Short:        "Keep a vector index in sync with a help center and answer questions from it",
		SilenceUsage: true,
		Long: `ragsync scrapes help-center articles to Markdown, re-embeds only the
articles whose content changed since the last run, and answers questions
with retrieval-augmented generation over the synchronised collection.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.SetVerbose(opts.verbose)
			return loadEnv(opts.envFile, cmd.Flags().Changed("env-file"))
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config YAML (default ./config.yaml or ~/.config/ragsync/config.yaml)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with API keys")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newScrapeCmd(opts),
		newIngestCmd(opts),
		newAskCmd(opts),
		newChatCmd(opts),
		newCollectionCmd(opts),
		newVersionCmd(),
	)
	return root
}

// A missing default .env is fine; a missing explicit one is not.
func loadEnv(path string, explicit bool) error {
	if err := godotenv.Load(path); err != nil {
		if explicit {
			return fmt.Errorf("load env file: %w", err)
		}
		logger.Debug("no env file loaded: %v", err)
	}
	return nil
}

// Execute is called by main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// openApp loads the configuration and returns an app the caller must close.
func openApp(opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cfg), nil
}

func secs(n int) time.Duration {
	return time.Duration(n) * time.Second
}
