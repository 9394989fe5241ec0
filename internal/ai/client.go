// Package ai talks to the language model provider that produces workout
// advice and equipment classifications.
//
// Everything exported from this package degrades instead of failing: callers
// always get a well-formed result, and provider problems are logged and counted.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second

	responsesPath = "/v1/responses"

	// maxErrorBody bounds how much of a failed response body is kept.
	maxErrorBody = 4 << 10
)

var (
	// ErrNoCredentials is returned when no API key is configured.
	ErrNoCredentials = errors.New("ai: api key not configured")
	// ErrRefused is returned when the model declines to answer.
	ErrRefused = errors.New("ai: model refused")
	// ErrEmptyOutput is returned when the response holds no output text.
	ErrEmptyOutput = errors.New("ai: no output_text in response")
	// ErrTransport wraps network level failures talking to the provider.
	ErrTransport = errors.New("ai: request failed")
)

// StatusError is returned for a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai: provider returned %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     time.Duration
	// MaxRetries is the number of retries after the first attempt. Zero means
	// a single round trip.
	MaxRetries      int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Client is a minimal Responses API client with retry and circuit breaking.
type Client struct {
	httpClient  *retryablehttp.Client
	breaker     *gobreaker.CircuitBreaker[[]byte]
	apiKey      string
	baseURL     string
	model       string
	visionModel string
}

// NewClient builds a Client. An empty APIKey yields a client whose calls all
// fail with ErrNoCredentials.
func NewClient(cfg Config) *Client {
	log := logging.Logger

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = cfg.MaxRetries
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 5 * time.Second
	hc.HTTPClient.Timeout = cfg.Timeout
	hc.Logger = &logging.LeveledLogger{}
	// Hand the final response back so the caller can read the error body.
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	hc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}

	breakerName := "ai-provider"
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Client errors and callers hanging up say nothing about provider health.
		IsSuccessful: func(err error) bool {
			if errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("ai circuit breaker state changed")
			metrics.AICircuitState.WithLabelValues(name).Set(float64(to))
		},
	})
	metrics.AICircuitState.WithLabelValues(breakerName).Set(float64(gobreaker.StateClosed))

	return &Client{
		httpClient:  hc,
		breaker:     breaker,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// --- Responses API wire types ---

type inputMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func extractRefusal(resp responsesResponse) string {
	if resp.Refusal != "" {
		return resp.Refusal
	}
	for _, item := range resp.Output {
		for _, c := range item.Content {
			if c.Type == "refusal" && c.Refusal != "" {
				return c.Refusal
			}
		}
	}
	return ""
}

// jsonSchemaFormat is the strict structured output format.
func jsonSchemaFormat(name string, schema map[string]any) map[string]any {
	return map[string]any{
		"type":   "json_schema",
		"name":   name,
		"schema": schema,
		"strict": true,
	}
}

// jsonObjectFormat asks for any JSON object.
func jsonObjectFormat() map[string]any {
	return map[string]any{"type": "json_object"}
}

// generate posts a Responses API request and returns the assistant output text.
func (c *Client) generate(ctx context.Context, model string, input []inputMessage, format map[string]any) (string, error) {
	if !c.Enabled() {
		return "", ErrNoCredentials
	}

	req := responsesRequest{Model: model, Input: input}
	req.Text.Format = format

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("ai: encode request: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.post(ctx, responsesPath, payload)
	})
	if err != nil {
		return "", err
	}

	var resp responsesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if refusal := extractRefusal(resp); refusal != "" {
		return "", fmt.Errorf("%w: %s", ErrRefused, refusal)
	}

	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyOutput
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ai: read response: %w", err)
	}
	return b, nil
}

// failureReason maps a generate error onto a short metrics label.
func failureReason(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, ErrNoCredentials):
		return "no_credentials"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.As(err, &se):
		return "bad_status"
	case errors.Is(err, ErrRefused):
		return "refused"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "malformed"
	}
}
