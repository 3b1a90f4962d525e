package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies the documented defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 5 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected Timeout to be 5s, got %v", cfg.Timeout)
		}
	})

	t.Run("default UserAgent is set", func(t *testing.T) {
		t.Parallel()
		if cfg.UserAgent != DefaultUserAgent {
			t.Errorf("expected UserAgent %q, got %q", DefaultUserAgent, cfg.UserAgent)
		}
	})

	t.Run("rate limit and robots are off by default", func(t *testing.T) {
		t.Parallel()
		if cfg.RateLimit != 0 {
			t.Errorf("expected RateLimit 0, got %v", cfg.RateLimit)
		}
		if cfg.RespectRobots {
			t.Error("expected RespectRobots to be false")
		}
	})

	t.Run("history is off by default", func(t *testing.T) {
		t.Parallel()
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to default to the XDG data dir")
		}
	})

	t.Run("default concurrency is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchConcurrency != 4 {
			t.Errorf("expected BatchConcurrency 4, got %d", cfg.BatchConcurrency)
		}
	})
}

// TestConfigValidate tests each validation rule in isolation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults are valid", func(*Config) {}, nil},
		{"zero hops is valid", func(c *Config) { c.Hops = 0 }, nil},
		{"negative hops", func(c *Config) { c.Hops = -1 }, ErrInvalidHops},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"negative max body", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative rate", func(c *Config) { c.RateLimit = -0.5 }, ErrInvalidRate},
		{"zero concurrency", func(c *Config) { c.BatchConcurrency = 0 }, ErrInvalidConcurrency},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"json only", func(c *Config) { c.JSONReport = true }, nil},
		{"proxy and tor", func(c *Config) { c.ProxyAddress, c.UseTor = "127.0.0.1:9050", true }, ErrProxyAndTor},
		{"proxy only", func(c *Config) { c.ProxyAddress = "127.0.0.1:9050" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.StartURL = "http://example.com"
			cfg.Hops = 3
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestParseArgs tests the positional argument contract of the crawl command.
func TestParseArgs(t *testing.T) {
	t.Parallel()

	t.Run("two arguments", func(t *testing.T) {
		t.Parallel()

		start, hops, err := ParseArgs([]string{"https://example.com/", "3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if start != "https://example.com/" {
			t.Errorf("expected raw start URL, got %q", start)
		}
		if hops != 3 {
			t.Errorf("expected 3 hops, got %d", hops)
		}
	})

	for _, args := range [][]string{nil, {"http://example.com"}, {"a", "1", "extra"}} {
		t.Run("argument count error", func(t *testing.T) {
			t.Parallel()

			_, _, err := ParseArgs(args)
			if !errors.Is(err, ErrArgumentCount) {
				t.Errorf("expected ErrArgumentCount for %v, got %v", args, err)
			}
		})
	}

	t.Run("non-numeric hops", func(t *testing.T) {
		t.Parallel()

		_, _, err := ParseArgs([]string{"http://example.com", "many"})
		if !errors.Is(err, ErrInvalidHops) {
			t.Errorf("expected ErrInvalidHops, got %v", err)
		}
	})

	t.Run("negative hops", func(t *testing.T) {
		t.Parallel()

		_, _, err := ParseArgs([]string{"http://example.com", "-2"})
		if !errors.Is(err, ErrInvalidHops) {
			t.Errorf("expected ErrInvalidHops, got %v", err)
		}
	})
}

// TestFileGetSiteConfig tests merging of defaults and per-host settings.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: SiteConfig{
			Cookie:  "default=1",
			Headers: map[string]string{"X-Default": "d"},
		},
		Sites: map[string]SiteConfig{
			"Example.com": {
				Cookie:    "session=abc",
				Headers:   map[string]string{"Authorization": "Bearer t"},
				UserAgent: "custom/1.0",
			},
			"ported.test:8080": {
				Cookie: "port=1",
			},
			"ported.test": {
				Cookie: "bare=1",
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		sc := file.GetSiteConfig("unknown.test")
		if sc.Cookie != "default=1" {
			t.Errorf("expected default cookie, got %q", sc.Cookie)
		}
		if sc.Headers["X-Default"] != "d" {
			t.Errorf("expected default header, got %v", sc.Headers)
		}
	})

	t.Run("host match is case-insensitive and merges headers", func(t *testing.T) {
		t.Parallel()

		sc := file.GetSiteConfig("example.com")
		if sc.Cookie != "session=abc" {
			t.Errorf("expected site cookie, got %q", sc.Cookie)
		}
		if sc.UserAgent != "custom/1.0" {
			t.Errorf("expected site user agent, got %q", sc.UserAgent)
		}
		if len(sc.Headers) != 2 {
			t.Errorf("expected merged headers, got %v", sc.Headers)
		}
	})

	t.Run("host with port prefers exact entry", func(t *testing.T) {
		t.Parallel()

		if got := file.GetSiteConfig("ported.test:8080").Cookie; got != "port=1" {
			t.Errorf("expected port entry, got %q", got)
		}
		if got := file.GetSiteConfig("ported.test:9090").Cookie; got != "bare=1" {
			t.Errorf("expected bare hostname entry, got %q", got)
		}
	})

	t.Run("merging does not mutate defaults", func(t *testing.T) {
		t.Parallel()

		_ = file.GetSiteConfig("example.com")
		if len(file.Defaults.Headers) != 1 {
			t.Errorf("defaults were mutated: %v", file.Defaults.Headers)
		}
	})

	t.Run("nil file", func(t *testing.T) {
		t.Parallel()

		var nilFile *File
		if !nilFile.GetSiteConfig("example.com").IsZero() {
			t.Error("expected zero config from nil file")
		}
	})
}

// TestLoadConfigFile tests YAML loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads defaults and sites", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  userAgent: "bot/2"
sites:
  example.com:
    cookie: "session=xyz"
    headers:
      X-Token: "abc"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.UserAgent != "bot/2" {
			t.Errorf("expected default user agent, got %q", cf.Defaults.UserAgent)
		}
		site := cf.GetSiteConfig("example.com")
		if site.Cookie != "session=xyz" || site.Headers["X-Token"] != "abc" {
			t.Errorf("unexpected site config: %+v", site)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("empty sites map is initialized", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.yaml")
		if err := os.WriteFile(path, []byte("defaults: {}\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected non-nil Sites map")
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("sites: [unclosed"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

// TestLoad tests the explicit-path contract.
func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("explicit missing path is an error", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("explicit existing path is loaded", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("defaults:\n  cookie: a=b\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.Cookie != "a=b" {
			t.Errorf("expected cookie a=b, got %q", cf.Defaults.Cookie)
		}
	})
}
