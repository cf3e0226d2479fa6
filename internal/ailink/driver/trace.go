package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// TraceEntry is one NDJSON line in the trace file.
type TraceEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Driver       string    `json:"driver"`
	Model        string    `json:"model,omitempty"`
	Prompt       string    `json:"prompt,omitempty"`
	Response     string    `json:"response,omitempty"`
	FinishReason string    `json:"finish_reason,omitempty"`
	TotalTokens  int       `json:"total_tokens,omitempty"`
	Error        string    `json:"error,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
}

// Tracer appends entries to a file.
type Tracer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

var activeTracer atomic.Pointer[Tracer]

// EnableTracing appends every provider exchange to path until the returned
// function (or DisableTracing) is called. A previous tracer is closed.
func EnableTracing(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	if old := activeTracer.Swap(&Tracer{file: f, enc: json.NewEncoder(f)}); old != nil {
		_ = old.Close()
	}
	return DisableTracing, nil
}

// DisableTracing stops tracing and closes the trace file.
func DisableTracing() {
	if old := activeTracer.Swap(nil); old != nil {
		_ = old.Close()
	}
}

// Write appends entry. Encoding failures are dropped.
func (t *Tracer) Write(entry TraceEntry) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enc == nil {
		return
	}
	_ = t.enc.Encode(entry)
}

// Close closes the trace file; later writes are ignored.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file, t.enc = nil, nil
	return err
}

// Traced wraps d so every exchange is written to the active tracer.
func Traced(d Driver) Driver {
	if d == nil {
		return nil
	}
	return &tracingDriver{next: d}
}

type tracingDriver struct {
	next Driver
}

func (t *tracingDriver) Name() string { return t.next.Name() }

func (t *tracingDriver) Complete(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := t.next.Complete(ctx, req)

	tracer := activeTracer.Load()
	if tracer == nil {
		return resp, err
	}

	entry := TraceEntry{
		Timestamp:  start,
		Driver:     t.next.Name(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if req != nil {
		entry.Model = req.Model
		entry.Prompt = req.Prompt
	}
	if resp != nil {
		entry.Response = resp.Text
		entry.FinishReason = resp.FinishReason
		if resp.Usage != nil {
			entry.TotalTokens = resp.Usage.TotalTokens
		}
	}
	if err != nil {
		entry.Error = err.Error()
	}
	tracer.Write(entry)
	return resp, err
}
