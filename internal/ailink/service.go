// Package ailink proxies free-form questions to a generative AI provider.
package ailink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bfhl/bfhl/internal/ailink/driver"
	"github.com/bfhl/bfhl/internal/ailink/driver/gemini"
	"github.com/bfhl/bfhl/internal/ailink/sanitize"
	"github.com/bfhl/bfhl/internal/metrics"
	"github.com/bfhl/bfhl/internal/observability"
)

// PromptPrefix is prepended to every question.
const PromptPrefix = "Answer Question: "

// Service sends questions through a driver. A Service without a driver
// reports KindNotConfigured on every call.
type Service struct {
	Driver  driver.Driver
	Model   string
	Timeout time.Duration

	// Pacer, when set, is waited on before each provider call.
	Pacer *rate.Limiter
}

// New builds a Service from cfg. A missing API key is not an error; the
// returned Service is simply unconfigured.
func New(ctx context.Context, cfg Config) (*Service, error) {
	svc := &Service{Model: strings.TrimSpace(cfg.Model), Timeout: cfg.Timeout, Pacer: cfg.pacer()}
	if !cfg.Configured() {
		return svc, nil
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", "gemini":
		client, err := gemini.NewClient(ctx, gemini.Options{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
		if err != nil {
			return nil, err
		}
		svc.Driver = driver.Traced(client)
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
	return svc, nil
}

// Configured reports whether calls can reach a provider.
func (s *Service) Configured() bool {
	return s != nil && s.Driver != nil
}

// BuildPrompt returns the provider prompt for question.
func BuildPrompt(question string) string {
	return PromptPrefix + strings.TrimSpace(question)
}

// Ask returns the provider's raw text for question.
func (s *Service) Ask(ctx context.Context, question string) (string, error) {
	if !s.Configured() {
		return "", errNotConfigured
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	if s.Pacer != nil {
		if err := s.Pacer.Wait(ctx); err != nil {
			s.record(string(KindRateLimited), start)
			return "", pacingError(err)
		}
	}
	resp, err := s.Driver.Complete(ctx, &driver.Request{Model: s.Model, Prompt: BuildPrompt(question)})
	if err != nil {
		aerr := mapProviderError(err)
		s.record(string(aerr.Kind), start)
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("AI provider call failed",
				zap.String("provider", s.Driver.Name()),
				zap.String("kind", string(aerr.Kind)),
				zap.String("details", aerr.Details),
				zap.Duration("duration", time.Since(start)),
			)
		}
		return "", aerr
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		s.record(string(KindEmpty), start)
		return "", emptyResponseError()
	}
	s.record("success", start)
	return resp.Text, nil
}

func (s *Service) record(outcome string, start time.Time) {
	metrics.RecordAICall(s.Driver.Name(), outcome, time.Since(start))
}

// Answer is Ask followed by sanitize.Clean. An answer that cleans down to
// nothing is reported as KindEmpty.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	raw, err := s.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	cleaned := sanitize.Clean(raw)
	if cleaned == "" {
		return "", emptyResponseError()
	}
	return cleaned, nil
}
