package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ragsync/internal/chunker"
	"ragsync/internal/logger"
	"ragsync/internal/runlock"
	"ragsync/internal/service"
)

func newScrapeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Download help-center articles into the articles directory as Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			logger.Section("Scrape")
			dir := a.cfg.Source.ArticlesDir
			n, err := a.scraper().Scrape(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d articles to %s\n", n, dir)
			return nil
		},
	}
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var (
		scrape   bool
		lockWait time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed new and changed articles and upsert them into the vector store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("lock-wait") {
				lockWait = secs(a.cfg.State.LockWaitSecs)
			}
			lock, err := runlock.Acquire(ctx, a.cfg.State.LockPath, lockWait)
			if err != nil {
				return err
			}
			defer lock.Release()
			logger.Debug("holding run lock %s", lock.Path())

			jobLog, err := logger.OpenJobLog(a.cfg.State.JobLog, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer jobLog.Close()

			emb, err := a.embedder(ctx)
			if err != nil {
				return err
			}
			ix, err := a.indexer()
			if err != nil {
				return err
			}
			hashes, err := a.hashStore()
			if err != nil {
				return err
			}
			ingester := service.NewIngester(hashes, chunker.NewLineChunker(a.cfg.Chunker.MaxLength), emb, ix, jobLog, service.IngesterConfig{
				BatchSize: a.cfg.Embedder.BatchSize,
				TaskType:  a.cfg.Embedder.DocumentTaskType,
			})
			svc := service.NewRAGService(a.documentSource(scrape), ingester, nil)

			logger.Section("Ingest")
			summary, err := svc.Ingest(ctx)
			if err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d documents failed; they will be retried on the next run", summary.Failed, len(summary.Results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&scrape, "scrape", false, "scrape the help center before ingesting")
	cmd.Flags().DurationVar(&lockWait, "lock-wait", 0, "how long to wait for a concurrent run to finish (default state.lock_wait_secs)")
	return cmd
}
