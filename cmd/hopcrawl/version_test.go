package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestBuildInfoFallbacks tests that the version getters never return an
// empty string, whatever the build left behind.
func TestBuildInfoFallbacks(t *testing.T) {
	t.Parallel()

	getters := map[string]func() string{
		"version": getVersion,
		"commit":  getCommit,
		"date":    getDate,
	}
	for name, get := range getters {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if get() == "" {
				t.Errorf("%s getter returned empty string", name)
			}
		})
	}

	t.Run("unknown setting", func(t *testing.T) {
		t.Parallel()
		if got := buildSetting("vcs.no-such-key"); got != "unknown" {
			t.Errorf("expected 'unknown', got %q", got)
		}
	})
}

// TestNewVersionCmd tests the version command output.
func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	if lines[0] != "hopcrawl version "+getVersion() {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  commit: ") || !strings.HasPrefix(lines[2], "  built:  ") {
		t.Errorf("unexpected build lines %q", lines[1:])
	}
}
