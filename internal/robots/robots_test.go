package robots

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/hopcrawl/internal/crawler"
)

var _ crawler.RobotsPolicy = (*Agent)(nil)

const robotsBody = `User-agent: *
Disallow: /private
Allow: /private/open

User-agent: strictbot
Disallow: /
`

func newRobotsServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		hits.Add(1)
		w.WriteHeader(status)
		fmt.Fprint(w, body) //nolint:errcheck
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

// TestAgentAllowed tests rule matching for the default and a named group.
func TestAgentAllowed(t *testing.T) {
	t.Parallel()

	server, _ := newRobotsServer(t, http.StatusOK, robotsBody)

	tests := []struct {
		name  string
		agent string
		path  string
		want  bool
	}{
		{"root allowed", "hopcrawl/1.0", "/", true},
		{"page allowed", "hopcrawl/1.0", "/about", true},
		{"private disallowed", "hopcrawl/1.0", "/private/data", false},
		{"allow overrides", "hopcrawl/1.0", "/private/open/page", true},
		{"named group", "strictbot/2.0", "/about", false},
		{"empty path", "hopcrawl/1.0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			agent := NewAgent(server.Client(), tt.agent)
			if got := agent.Allowed(context.Background(), server.URL+tt.path); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// TestAgentCaches tests that robots.txt is fetched once per host.
func TestAgentCaches(t *testing.T) {
	t.Parallel()

	server, hits := newRobotsServer(t, http.StatusOK, robotsBody)
	agent := NewAgent(server.Client(), "hopcrawl/1.0")

	for range 5 {
		agent.Allowed(context.Background(), server.URL+"/page")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 robots.txt request, got %d", got)
	}
}

// TestAgentSlowHostDoesNotBlock tests that a host stuck serving robots.txt
// does not delay lookups for another host, and that concurrent lookups for
// the stuck host share one request.
func TestAgentSlowHostDoesNotBlock(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var slowHits atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			slowHits.Add(1)
			<-release
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(slow.Close)
	t.Cleanup(func() { close(release) })

	fast, _ := newRobotsServer(t, http.StatusOK, robotsBody)

	agent := NewAgent(http.DefaultClient, "hopcrawl/1.0")

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agent.Allowed(context.Background(), slow.URL+"/page")
		}()
	}
	deadline := time.Now().Add(5 * time.Second)
	for slowHits.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if slowHits.Load() == 0 {
		t.Fatal("slow robots.txt was never requested")
	}

	done := make(chan bool, 1)
	go func() {
		done <- agent.Allowed(context.Background(), fast.URL+"/private/data")
	}()
	select {
	case allowed := <-done:
		if allowed {
			t.Error("expected /private/data to be disallowed on the fast host")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("lookup for the fast host waited on the slow host")
	}

	release <- struct{}{}
	wg.Wait()
	if got := slowHits.Load(); got != 1 {
		t.Errorf("expected concurrent lookups to share 1 request, got %d", got)
	}
}

// TestAgentFailOpen tests that missing or broken robots.txt allows everything.
func TestAgentFailOpen(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		server, hits := newRobotsServer(t, http.StatusNotFound, "")
		agent := NewAgent(server.Client(), "hopcrawl/1.0")
		if !agent.Allowed(context.Background(), server.URL+"/private") {
			t.Error("expected allowed when robots.txt is missing")
		}
		agent.Allowed(context.Background(), server.URL+"/other")
		if got := hits.Load(); got != 1 {
			t.Errorf("a missing robots.txt should be cached too, got %d requests", got)
		}
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()

		server, _ := newRobotsServer(t, http.StatusInternalServerError, "")
		agent := NewAgent(server.Client(), "hopcrawl/1.0")
		if !agent.Allowed(context.Background(), server.URL+"/private") {
			t.Error("expected allowed when robots.txt fails")
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := listener.Addr().String()
		listener.Close()

		agent := NewAgent(nil, "hopcrawl/1.0")
		if !agent.Allowed(context.Background(), "http://"+addr+"/private") {
			t.Error("expected allowed when the host is unreachable")
		}
	})

	t.Run("unparsable URL", func(t *testing.T) {
		t.Parallel()

		agent := NewAgent(nil, "hopcrawl/1.0")
		for _, u := range []string{"http://[::1", "relative/path", ""} {
			if !agent.Allowed(context.Background(), u) {
				t.Errorf("expected %q to be allowed", u)
			}
		}
	})
}
