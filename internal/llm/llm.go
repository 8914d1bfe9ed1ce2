// Package llm requests a written performance analysis from a text generation
// service. OpenAI-compatible endpoints and Google Gemini are supported.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/medrank/tracker/internal/llm/prompts"
	"github.com/medrank/tracker/internal/metrics"
	"github.com/medrank/tracker/internal/model"
)

// Texts shown instead of an analysis.
const (
	FallbackMissingKey = "API Key is missing. Please configure the environment to use AI features."
	FallbackNoData     = "No test data available for analysis."
	FallbackError      = "An error occurred while communicating with the AI service."
	FallbackEmpty      = "Could not generate analysis."
)

var (
	ErrMissingKey = errors.New("no API key configured")
	ErrNoTests    = errors.New("no tests to analyze")
)

// Summarizer sends one prompt and returns the generated text.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Requester turns a test sequence into display-ready analysis text.
type Requester struct {
	summarizer Summarizer
}

// NewRequester wraps s. A nil s means no credential is configured.
func NewRequester(s Summarizer) *Requester {
	return &Requester{summarizer: s}
}

// Analyze summarizes the most recently added test. The returned text is always
// suitable for display: on failure it is one of the fallback strings and the
// error says why. There are no retries.
func (r *Requester) Analyze(ctx context.Context, tests []model.GrandTest) (string, error) {
	if r == nil || r.summarizer == nil {
		metrics.AnalysisRequests.WithLabelValues("no_credential").Inc()
		return FallbackMissingKey, ErrMissingKey
	}
	if len(tests) == 0 {
		metrics.AnalysisRequests.WithLabelValues("no_data").Inc()
		return FallbackNoData, ErrNoTests
	}
	latest := tests[len(tests)-1]

	prompt, err := prompts.Build(latest)
	if err != nil {
		metrics.AnalysisRequests.WithLabelValues("error").Inc()
		return FallbackError, fmt.Errorf("build prompt: %w", err)
	}

	start := time.Now()
	text, err := r.summarizer.Summarize(ctx, prompt)
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnalysisRequests.WithLabelValues("error").Inc()
		slog.Error("AI analysis failed", "test", latest.ID, "error", err)
		return FallbackError, fmt.Errorf("summarize: %w", err)
	}
	metrics.AnalysisRequests.WithLabelValues("ok").Inc()
	if strings.TrimSpace(text) == "" {
		return FallbackEmpty, nil
	}
	slog.Debug("AI analysis", "test", latest.ID, "chars", len(text))
	return text, nil
}

// Provider names accepted by Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default model names per provider.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// New creates the configured Summarizer. It returns nil without error when no
// API key is set so the caller can still run with the missing-key fallback.
func New(ctx context.Context, cfg Config) (Summarizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		slog.Warn("no API key configured, AI analysis disabled")
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		g, err := NewGemini(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI:
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
}
