package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the read timeout for a single fetch. It covers the
	// wait for the response and every subsequent read of the body.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxBodySize limits how much of a response body is scanned for links.
	// The body is streamed line by line, so this only bounds pathological pages.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultBatchConcurrency is the number of crawls the batch command runs at once.
	// Each crawl is still strictly sequential.
	DefaultBatchConcurrency = 4

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap when --tor is given.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultUserAgent identifies hopcrawl in HTTP requests.
	DefaultUserAgent = "hopcrawl/1.0 (+https://github.com/nao1215/hopcrawl)"

	// AppName is the application name used for XDG directory paths.
	AppName = "hopcrawl"
)

// Config holds all options for a crawl run.
// It is populated from CLI flags and passed down explicitly; nothing in the
// crawler reads global state.
type Config struct {
	// StartURL is the first URL placed in the frontier.
	StartURL string

	// Hops is the hop budget: the number of successful fetches allowed.
	Hops int

	// Timeout is the per-read timeout for each fetch.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum number of body bytes scanned per page.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes every request through it.
	// Mutually exclusive with ProxyAddress.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap. Only used with UseTor.
	TorStartupTimeout time.Duration

	// RateLimit is the maximum number of requests per second.
	// Zero disables rate limiting.
	RateLimit float64

	// RespectRobots enables the robots.txt gate. A disallowed candidate is
	// abandoned without consuming a hop.
	RespectRobots bool

	// Verbose enables debug logging.
	Verbose bool

	// BatchConcurrency is the number of crawls the batch command runs at once.
	BatchConcurrency int

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the configuration file.
	SiteConfigs *File

	// JSONReport writes the run report as JSON after the crawl.
	JSONReport bool

	// MarkdownReport writes the run report as Markdown after the crawl.
	MarkdownReport bool

	// ReportFile is the destination of the JSON or Markdown report.
	// Empty means stdout.
	ReportFile string

	// SaveToDB records the finished run in the history database.
	// The crawl itself never reads the history back.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		BatchConcurrency:  DefaultBatchConcurrency,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for hopcrawl.
// On Linux: ~/.local/share/hopcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for hopcrawl.
// On Linux: ~/.config/hopcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.Hops < 0 {
		return ErrInvalidHops
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.RateLimit < 0 {
		return ErrInvalidRate
	}

	if c.BatchConcurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.UseTor && c.ProxyAddress != "" {
		return ErrProxyAndTor
	}

	return nil
}
