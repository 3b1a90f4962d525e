package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/hopcrawl/internal/batch"
	"github.com/nao1215/hopcrawl/internal/config"
	"github.com/nao1215/hopcrawl/internal/crawler"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <list-file> <hops>",
		Short: "Run independent crawls for every start URL in a file",
		Long: `Batch reads start URLs from a file, one per line, and runs a separate
crawl with the same hop budget for each of them.

Blank lines and lines starting with '#' are skipped. Crawls run
concurrently, but each one is still a single sequential chain with its
own visited set. The output of every crawl is printed as one block, in the
order of the list.

Examples:
  # Crawl every URL in seeds.txt for 5 hops, 4 at a time
  hopcrawl batch seeds.txt 5

  # Run 8 crawls at once and record them all
  hopcrawl batch -b 8 -s seeds.txt 5`,
		Args: cobra.ArbitraryArgs,
		RunE: runBatchCmd,
	}

	addNetworkFlags(cmd)
	addSaveFlags(cmd)
	cmd.Flags().IntP("concurrency", "b", config.DefaultBatchConcurrency,
		"Number of concurrent crawls")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	listFile, hops, err := config.ParseArgs(args)
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	if err := applyNetworkFlags(cmd, cfg); err != nil {
		return err
	}
	if err := applySaveFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.BatchConcurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return err
	}
	cfg.Hops = hops

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	urls, err := batch.ReadListFile(listFile)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd, cfg.Verbose)
	if err != nil {
		return err
	}

	ctx, cancel := withSignals(cmd.Context(), logger)
	defer cancel()

	db, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	sess, err := openSession(ctx, cfg, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := []batch.Option{
		batch.WithConcurrency(cfg.BatchConcurrency),
		batch.WithLogger(logger),
	}
	if db != nil {
		opts = append(opts, batch.WithResultHandler(func(ctx context.Context, res *batch.Result) error {
			return saveRun(ctx, db, res.Run, logger)
		}))
	}

	runner := batch.NewRunner(func() (*crawler.Spider, error) {
		return sess.newSpider(), nil
	}, opts...)

	out := cmd.OutOrStdout()
	results, err := runner.Run(ctx, urls, cfg.Hops, out)
	for _, res := range results {
		logRunError(logger, res.StartURL, res.Err)
	}

	fmt.Fprintln(out, batch.Summarize(results).Line())
	return err
}
