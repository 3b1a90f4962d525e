package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/hopcrawl/internal/config"
	"github.com/nao1215/hopcrawl/internal/crawler"
	"github.com/nao1215/hopcrawl/internal/database"
	"github.com/nao1215/hopcrawl/internal/log"
	"github.com/nao1215/hopcrawl/internal/model"
	"github.com/nao1215/hopcrawl/internal/robots"
	"github.com/nao1215/hopcrawl/internal/transport"
)

// addNetworkFlags registers the flags shared by every command that fetches pages.
func addNetworkFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Read timeout for each fetch (response wait and every body read)")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body", config.DefaultMaxBodySize,
		"Maximum number of body bytes scanned for links per page")

	cmd.Flags().StringP("proxy", "x", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route requests through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().Float64P("rate", "r", 0,
		"Maximum requests per second (0 = unlimited)")
	cmd.Flags().Bool("robots", false,
		"Skip links disallowed by the target site's robots.txt")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .hopcrawl in current or home directory)")
}

// addSaveFlags registers the history database flags.
func addSaveFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("save", "s", false,
		"Record the run in the history database")
	addDBDirFlag(cmd)
}

func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the history database")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// applyNetworkFlags copies the network flags into cfg and loads the
// configuration file.
// If the user named a config file explicitly, a missing file is an error;
// otherwise an empty configuration is used.
func applyNetworkFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error

	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return err
	}
	if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body"); err != nil {
		return err
	}
	if cfg.ProxyAddress, err = cmd.Flags().GetString("proxy"); err != nil {
		return err
	}
	if cfg.UseTor, err = cmd.Flags().GetBool("tor"); err != nil {
		return err
	}
	if cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout"); err != nil {
		return err
	}
	if cfg.RateLimit, err = cmd.Flags().GetFloat64("rate"); err != nil {
		return err
	}
	if cfg.RespectRobots, err = cmd.Flags().GetBool("robots"); err != nil {
		return err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return err
	}

	cfg.SiteConfigs, err = config.Load(cfg.ConfigFilePath)
	if err != nil {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("failed to load config file %s: %w", cfg.ConfigFilePath, err)
		}
		return fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return nil
}

// applySaveFlags copies the history database flags into cfg.
func applySaveFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.SaveToDB, err = cmd.Flags().GetBool("save"); err != nil {
		return err
	}
	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	return err
}

// getLogFormatFlag returns the value of the persistent --log-format flag.
func getLogFormatFlag(cmd *cobra.Command) string {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, err = cmd.Root().PersistentFlags().GetString("log-format")
		if err != nil {
			return logFormatText
		}
	}
	return format
}

// setupLogger creates the structured logger for a command run.
// Logs go to stderr so that stdout carries only crawl output and reports.
func setupLogger(cmd *cobra.Command, verbose bool) (*slog.Logger, error) {
	var logger *slog.Logger
	switch format := strings.ToLower(getLogFormatFlag(cmd)); format {
	case logFormatText, "":
		logger = log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	case logFormatJSON:
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidLogFormat, format)
	}
	slog.SetDefault(logger)
	return logger, nil
}

// withSignals returns a context cancelled on SIGINT or SIGTERM.
// A cancelled crawl stops before its next fetch and still prints its summary.
func withSignals(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// session holds what every crawl of one command invocation shares: the
// HTTP client, the robots cache and the embedded Tor daemon, if any.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	client *http.Client
	robots *robots.Agent
	tor    *transport.EmbeddedTor
}

// openSession prepares the transport described by cfg. Progress messages
// for slow steps (Tor bootstrap) are written to status.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, status io.Writer) (*session, error) {
	s := &session{cfg: cfg, logger: logger}

	opts := transport.Options{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.ProxyAddress,
		Sites:        cfg.SiteConfigs,
		Logger:       logger,
	}

	switch {
	case cfg.UseTor:
		tor, err := startEmbeddedTor(ctx, cfg, logger, status)
		if err != nil {
			return nil, err
		}
		s.tor = tor
		if opts, err = tor.Apply(opts); err != nil {
			s.Close()
			return nil, err
		}
	case cfg.ProxyAddress != "":
		if st := transport.CheckProxy(ctx, cfg.ProxyAddress); st != transport.ProxyStatusOK {
			return nil, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				st.Error(), cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	client, err := transport.NewClient(opts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	s.client = client

	if cfg.RespectRobots {
		s.robots = robots.NewAgent(client, cfg.UserAgent, robots.WithLogger(logger))
	}

	return s, nil
}

// newSpider builds a Spider with its own fetcher and rate limiter.
func (s *session) newSpider() *crawler.Spider {
	fetcher := crawler.NewHTTPFetcher(s.client,
		crawler.WithUserAgent(s.cfg.UserAgent),
		crawler.WithMaxBodySize(s.cfg.MaxBodySize),
		crawler.WithFetcherLogger(s.logger),
	)

	opts := []crawler.SpiderOption{
		crawler.WithLogger(s.logger),
		crawler.WithRateLimit(s.cfg.RateLimit),
	}
	if s.robots != nil {
		opts = append(opts, crawler.WithRobots(s.robots))
	}
	return crawler.NewSpider(fetcher, opts...)
}

// Close stops the embedded Tor daemon, if one was started.
func (s *session) Close() {
	if s.tor == nil || !s.tor.IsRunning() {
		return
	}
	s.logger.Info("stopping embedded Tor daemon...")
	if err := s.tor.Stop(); err != nil {
		s.logger.Error("failed to stop embedded Tor", "error", err)
	}
}

// startEmbeddedTor starts an embedded Tor daemon using tornago.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, status io.Writer) (*transport.EmbeddedTor, error) {
	fmt.Fprintln(status, "Starting embedded Tor daemon...")
	fmt.Fprintf(status, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	tor := transport.NewEmbeddedTor(transport.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := tor.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	if st := transport.CheckProxy(ctx, tor.SocksAddr()); st != transport.ProxyStatusOK {
		_ = tor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("embedded Tor proxy check failed: %s", st)
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", tor.SocksAddr(),
		"controlAddr", tor.ControlAddr(),
	)
	fmt.Fprintf(status, "Embedded Tor daemon started, SOCKS proxy: %s\n\n", tor.SocksAddr())

	return tor, nil
}

// openHistory opens the history database when cfg asks for runs to be saved.
// It returns nil without error otherwise.
func openHistory(cfg *config.Config, logger *slog.Logger) (*database.HistoryDB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("database opened", "path", db.Path())
	return db, nil
}

// saveRun records run in the history database.
// If db is nil, this function is a no-op. It runs even after the crawl was
// interrupted, so it ignores cancellation.
func saveRun(ctx context.Context, db *database.HistoryDB, run *model.Run, logger *slog.Logger) error {
	if db == nil {
		return nil
	}
	if err := db.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	logger.Info("run saved to database", "id", run.ID, "start", run.StartURL)
	return nil
}
