package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/hopcrawl/internal/config"
	"github.com/nao1215/hopcrawl/internal/database"
	"github.com/nao1215/hopcrawl/internal/model"
	"github.com/nao1215/hopcrawl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <start-url> <hops>",
		Short: "Follow a single chain of links for a number of hops",
		Long: `Crawl fetches the start URL and then, page after page, the first link
that has not been visited yet.

Every successful fetch is one hop. A page that answers with an error, times
out or cannot be reached costs no hop; the crawl simply stops on that branch.
The crawl ends when the hop budget is spent or a page offers no new link.

Examples:
  # Follow links for 10 hops
  hopcrawl crawl https://example.com 10

  # Be polite: one request per second, honour robots.txt
  hopcrawl crawl --rate 1 --robots https://example.com 50

  # Crawl through Tor and write a Markdown report
  hopcrawl crawl --tor -m -o report.md http://exampleonion.onion 5

  # Record the run for 'hopcrawl history'
  hopcrawl crawl -s https://example.com 10`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	addNetworkFlags(cmd)
	addSaveFlags(cmd)

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Write a JSON run report after the crawl (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown run report after the crawl (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	startURL, hops, err := config.ParseArgs(args)
	if err != nil {
		return err
	}

	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}
	cfg.StartURL = startURL
	cfg.Hops = hops

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
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

	return runCrawl(ctx, cfg, sess, db, cmd.OutOrStdout())
}

// buildCrawlConfig creates a Config from the crawl command's flags.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	if err := applyNetworkFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := applySaveFlags(cmd, cfg); err != nil {
		return nil, err
	}

	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runCrawl runs one crawl, printing its events to out, then writes the
// requested report and saves the run.
func runCrawl(ctx context.Context, cfg *config.Config, sess *session, db *database.HistoryDB, out io.Writer) error {
	sess.logger.Info("starting crawl",
		"start", cfg.StartURL,
		"hops", cfg.Hops,
		"robots", cfg.RespectRobots,
		"rate", cfg.RateLimit,
	)

	rec := report.NewRecorder(cfg.StartURL, cfg.Hops)
	sess.newSpider().Crawl(ctx, cfg.StartURL, cfg.Hops, report.NewMulti(report.NewConsole(out), rec))
	run := rec.Run()

	if err := outputReport(cfg, run, out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := saveRun(ctx, db, run, sess.logger); err != nil {
		return err
	}

	if run.Reason == model.ReasonCancelled {
		return fmt.Errorf("crawl interrupted: %w", context.Cause(ctx))
	}
	return nil
}

// outputReport writes the run report in the requested format.
// Without --json or --markdown the console lines are the only output.
func outputReport(cfg *config.Config, run *model.Run, stdout io.Writer) error {
	if !cfg.JSONReport && !cfg.MarkdownReport {
		return nil
	}

	output := stdout
	if cfg.ReportFile != "" {
		if err := ensureParentDir(cfg.ReportFile); err != nil {
			return err
		}

		// Reports may carry URLs with session tokens, so keep them owner-only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	if cfg.JSONReport {
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	} else {
		w = report.NewMarkdownWriter(output)
	}

	_, err := w.Write(run)
	return err
}

// logRunError logs err for the crawl of startURL, if any.
func logRunError(logger *slog.Logger, startURL string, err error) {
	if err != nil {
		logger.Error("crawl failed", "start", startURL, "error", err)
	}
}
