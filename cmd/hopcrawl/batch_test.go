package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/hopcrawl/internal/batch"
	"github.com/nao1215/hopcrawl/internal/config"
)

// TestNewBatchCmd tests the batch command creation.
func TestNewBatchCmd(t *testing.T) {
	t.Parallel()

	cmd := NewBatchCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "batch <list-file> <hops>" {
			t.Errorf("unexpected use %q", cmd.Use)
		}
	})

	t.Run("has concurrency flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("concurrency")
		if flag == nil {
			t.Fatal("expected concurrency flag")
		}
		if flag.Shorthand != "b" {
			t.Errorf("expected shorthand 'b', got %q", flag.Shorthand)
		}
		if flag.DefValue != "4" {
			t.Errorf("expected default '4', got %q", flag.DefValue)
		}
	})

	t.Run("shares network flags with crawl", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"timeout", "proxy", "tor", "rate", "robots", "config", "save"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})
}

// TestBatchCmd tests batch execution against a local server.
func TestBatchCmd(t *testing.T) {
	t.Parallel()

	server := newSiteServer(t)
	cfgPath := writeSiteConfig(t, server)
	dir := t.TempDir()

	listPath := filepath.Join(dir, "seeds.txt")
	list := "# local pages\n" + server.URL + "/start\n\n" + server.URL + "/gone\n"
	if err := os.WriteFile(listPath, []byte(list), 0600); err != nil {
		t.Fatalf("failed to write list: %v", err)
	}

	t.Run("crawls every entry in order", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(dir, "db")
		out, err := execute(t, "batch", "-c", cfgPath, "-s", "--db-dir", dbDir, listPath, "5")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := strings.Join([]string{
			"[1/2] " + server.URL + "/start",
			"Visited: " + server.URL + "/start [1]",
			"Visited: " + server.URL + "/next [2]",
			"CODE 404 ERROR: " + server.URL + "/gone is not valid URL",
			"No more links, program terminated",
			"Program finished with total: 2 hop(s)",
			"[2/2] " + server.URL + "/gone",
			"CODE 404 ERROR: " + server.URL + "/gone is not valid URL",
			"No more links, program terminated",
			"Program finished with total: 0 hop(s)",
			"Batch finished: 2 crawl(s), 2 hop(s), 1 unreachable, 0 skipped, 0 error(s)",
		}, "\n") + "\n"
		if out != want {
			t.Errorf("got:\n%s\nwant:\n%s", out, want)
		}

		history, err := execute(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected history error: %v", err)
		}
		if !strings.Contains(history, server.URL+"/start") || !strings.Contains(history, server.URL+"/gone") {
			t.Errorf("expected both runs saved\n%s", history)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()

		emptyList := filepath.Join(dir, "empty.txt")
		if err := os.WriteFile(emptyList, []byte("# nothing yet\n"), 0600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}
		if _, err := execute(t, "batch", "-c", cfgPath, emptyList, "5"); !errors.Is(err, batch.ErrEmptyList) {
			t.Errorf("expected ErrEmptyList, got %v", err)
		}
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		t.Parallel()

		if _, err := execute(t, "batch", "-c", cfgPath, "-b", "0", listPath, "5"); !errors.Is(err, config.ErrInvalidConcurrency) {
			t.Errorf("expected ErrInvalidConcurrency, got %v", err)
		}
	})

	t.Run("wrong argument count", func(t *testing.T) {
		t.Parallel()

		if _, err := execute(t, "batch", listPath); !errors.Is(err, config.ErrArgumentCount) {
			t.Errorf("expected ErrArgumentCount, got %v", err)
		}
	})
}
