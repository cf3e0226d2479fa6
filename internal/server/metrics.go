package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/bfhl/bfhl/internal/errors"
	"github.com/bfhl/bfhl/internal/observability"
)

// Messages for GET /metrics failures.
const (
	MsgMetricsNotInitialized = "Metrics exporter not initialized"
	MsgMetricsUnavailable    = "Metrics exporter unavailable"
)

// hopHeaders are connection-scoped and never copied from the exporter.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// metricsProxy serves the Prometheus exporter's output on the main port so a
// single listener can be scraped.
type metricsProxy struct {
	client *http.Client
	// target returns the exporter URL, or "" when no exporter is running.
	target func() string
}

func newMetricsProxy() *metricsProxy {
	return &metricsProxy{
		client: &http.Client{Timeout: 5 * time.Second},
		target: exporterURL,
	}
}

func exporterURL() string {
	if observability.PrometheusExporter == nil {
		return ""
	}
	port := observability.GetMetricsPort()
	if port == 0 {
		port = observability.DefaultMetricsPort
	}
	return fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
}

func (p *metricsProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := p.target()
	if target == "" {
		apperrors.RespondWithEnvelope(w, r, apperrors.NewServiceUnavailableError(MsgMetricsNotInitialized))
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		apperrors.RespondWithEnvelope(w, r, apperrors.WrapInternal(r.Context(), err, "Unable to construct metrics request"))
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		apperrors.RespondWithEnvelope(w, r, apperrors.NewServiceUnavailableError(MsgMetricsUnavailable))
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	for key, values := range resp.Header {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Failed to write metrics response", zap.Error(err))
	}
}
