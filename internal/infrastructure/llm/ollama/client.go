// Package ollama adapts a local generative model into the probabilistic
// classification hint provider.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"office-archive-indexer/internal/core/domain"
	"office-archive-indexer/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Analyzer asks the model for a structured classification hint. All
// failures surface as errors the orchestrator degrades on; the only
// internally retried condition is a rate limit.
type Analyzer struct {
	client   *Client
	limiter  *rate.Limiter
	executor *resilience.Executor
}

type AnalyzerOptions struct {
	// CallInterval is the courtesy delay enforced between calls.
	CallInterval time.Duration
	// RateLimitRetries is how many times a rate-limited call is retried.
	RateLimitRetries int
	// RateLimitBackoff is the linear backoff increment between retries.
	RateLimitBackoff time.Duration
}

func NewAnalyzer(client *Client, opts AnalyzerOptions) *Analyzer {
	interval := opts.CallInterval
	if interval <= 0 {
		interval = time.Second
	}
	retries := opts.RateLimitRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := opts.RateLimitBackoff
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	return &Analyzer{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		executor: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:      retries + 1,
			RetryBackoffIncrement: backoff,
			BreakerEnabled:        false,
		}),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, fileName string, pathSegments []string) (*domain.ClassificationHint, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate wait: %w", err)
	}

	var hint *domain.ClassificationHint
	err := a.executor.Execute(ctx, "ollama.analyze", func(callCtx context.Context) error {
		respText, err := a.client.generateJSON(callCtx, buildAnalysisPrompt(fileName, pathSegments))
		if err != nil {
			return err
		}
		parsed, err := parseHint(respText)
		if err != nil {
			return err
		}
		hint = parsed
		return nil
	}, classifyAnalyzeError)
	if err != nil {
		if isRateLimitError(err) {
			return nil, domain.WrapError(domain.ErrRateLimited, "analyze filename", err)
		}
		return nil, err
	}
	return hint, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
