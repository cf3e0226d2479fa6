package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/bfhl/bfhl/internal/dispatch"
	"github.com/bfhl/bfhl/internal/observability"
	"github.com/bfhl/bfhl/internal/ratelimit"
	"github.com/bfhl/bfhl/internal/server"
)

const officialEmail = "student@example.edu"

// isPermissionError normalizes OS-specific permission errors so sandboxes
// that block loopback sockets skip instead of failing.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func initMetricsOrSkip(t *testing.T) {
	t.Helper()
	if err := observability.InitMetrics("integration", 0); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = observability.ShutdownMetrics() })
}

// newTestServer binds IPv4 loopback explicitly and skips when sockets are refused.
func newTestServer(t *testing.T, limit int) (*httptest.Server, *http.Client) {
	t.Helper()

	var limiter *ratelimit.Limiter
	if limit > 0 {
		limiter = ratelimit.New(ratelimit.NewMemoryStore(time.Minute), ratelimit.Limit{
			RequestsPerWindow: limit,
			WindowDuration:    time.Minute,
		})
	}
	srv := server.New(server.Options{
		OfficialEmail: func() string { return officialEmail },
		Dispatcher:    dispatch.New(nil),
		Limiter:       limiter,
	})

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping server setup: %v", err)
		}
		require.NoError(t, err)
	}

	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts, ts.Client()
}

func postBFHL(ctx context.Context, client *http.Client, url, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/bfhl", bytes.NewBufferString(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return client.Do(req)
}

func TestConcurrentRequestsAndMetrics(t *testing.T) {
	require.NoError(t, observability.InitCLILogger("integration", false))
	initMetricsOrSkip(t)

	ts, client := newTestServer(t, 0)

	bodies := []string{
		`{"fibonacci": 10}`,
		`{"prime": [2, 3, 4, 5, 6, 7]}`,
		`{"lcm": [4, 6, 8]}`,
		`{"hcf": [12, 18, 24]}`,
		`{"fibonacci": 0}`,
	}

	const numRequests = 50
	const numWorkers = 10

	requests := make(chan int, numRequests)
	for i := 0; i < numRequests; i++ {
		requests <- i
	}
	close(requests)

	var ok, bad atomic.Int64
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for n := range requests {
				resp, err := postBFHL(context.Background(), client, ts.URL, bodies[n%len(bodies)])
				if err != nil {
					continue
				}
				switch resp.StatusCode {
				case http.StatusOK:
					ok.Add(1)
				case http.StatusBadRequest:
					bad.Add(1)
				}
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(40), ok.Load())
	assert.Equal(t, int64(10), bad.Load())

	resp, err := client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, readErr)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "operations_total")
}

func TestRateLimitUnderConcurrency(t *testing.T) {
	ts, client := newTestServer(t, 20)

	const numRequests = 60
	var admitted, limited atomic.Int64
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < numRequests; i++ {
		g.Go(func() error {
			resp, err := postBFHL(ctx, client, ts.URL, `{"hcf": [8, 12]}`)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
				admitted.Add(1)
			case http.StatusTooManyRequests:
				var env struct {
					IsSuccess     bool   `json:"is_success"`
					OfficialEmail string `json:"official_email"`
					Error         string `json:"error"`
				}
				if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
					return err
				}
				if !env.IsSuccess && env.OfficialEmail == officialEmail && env.Error == server.MsgTooManyRequests {
					limited.Add(1)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(20), admitted.Load())
	assert.Equal(t, int64(40), limited.Load())
}
