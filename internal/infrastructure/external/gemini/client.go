package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
	"github.com/aikidslabs/ai-kids-hub/pkg/circuitbreaker"
	"github.com/aikidslabs/ai-kids-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// DefaultBaseURL is the Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Model names. The tutor uses the fast flash model; trailers use Veo.
const (
	TutorModel = "gemini-3-flash-preview"
	VideoModel = "veo-3.1-fast-generate-preview"
)

// Tutor persona instructions. "Neo" speaks Portuguese and adapts to the
// audience: playful analogies for kids, plain professional language for
// parents.
const (
	childSystemInstruction = "Você é o 'Neo', um robô amigável e futurista que explica conceitos de IA para crianças de 7 a 10 anos. Use analogias simples (como LEGO, super-poderes ou culinária). Seja entusiasta e curto nas respostas."
	adultSystemInstruction = "Você é o 'Neo', um consultor especialista em tecnologia. Explique conceitos de IA para adultos leigos de forma clara, profissional, mas acessível, evitando jargões técnicos excessivos."
)

// Canned replies for degraded situations. The UI never shows a raw error
// to a child.
const (
	// FallbackAnswer is returned when the API call fails outright.
	FallbackAnswer = "Ops! Tive um problema de conexão com a Matrix. Tente novamente!"

	// EmptyAnswer is returned when the API succeeds but produces no text.
	EmptyAnswer = "Desculpe, meu processador falhou. Pode perguntar de novo?"
)

// tutorTemperature matches the playful-but-grounded tone of the persona.
const tutorTemperature = 0.7

// ClientConfig contains configuration for the Gemini API client.
type ClientConfig struct {
	// BaseURL is the Gemini API base URL
	BaseURL string

	// APIKey is the Google AI API key
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// PollInterval is the wait between Veo operation polls
	PollInterval time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:           DefaultBaseURL,
		APIKey:            apiKey,
		Timeout:           60 * time.Second,
		PollInterval:      5 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Gemini API client. All requests pass through a token-bucket
// rate limiter, a circuit breaker and a retrier.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
}

// NewClient creates a new Gemini API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}

	logger := config.Logger
	breaker := circuitbreaker.GeminiAPIBreaker(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state change",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		breaker:     breaker,
		retrier:     retry.GeminiRetrier(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TUTOR OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AskTutor sends a question to the Neo tutor persona and returns the answer.
// A successful call with an empty candidate list returns EmptyAnswer, not an
// error; transport and API failures return an error and the caller decides
// whether to degrade to FallbackAnswer.
func (c *Client) AskTutor(ctx context.Context, question string, audience shared.Audience) (string, error) {
	if question == "" {
		return "", shared.ErrEmptyValue
	}

	instruction := childSystemInstruction
	if audience == shared.AudienceAdult {
		instruction = adultSystemInstruction
	}

	request := GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: question}}},
		},
		SystemInstruction: &Content{
			Parts: []Part{{Text: instruction}},
		},
		GenerationConfig: &GenerationConfig{
			Temperature: tutorTemperature,
		},
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", TutorModel)

	var response GenerateContentResponse
	if err := c.doRequest(ctx, http.MethodPost, path, request, &response); err != nil {
		return "", err
	}

	answer := response.Text()
	if answer == "" {
		return EmptyAnswer, nil
	}
	return answer, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs an HTTP request with rate limiting, circuit breaking
// and retries, mapping transport failures to domain errors.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Allow(ctx); err != nil {
				var rateLimitErr *RateLimitError
				if errors.As(err, &rateLimitErr) {
					return retry.Retryable(shared.ErrGeminiRateLimited)
				}
				return retry.Permanent(err)
			}

			err := c.doSingleRequest(ctx, method, path, body, result)
			if err == nil {
				return nil
			}

			var rateLimitErr *RateLimitError
			if errors.As(err, &rateLimitErr) {
				c.rateLimiter.RecordRateLimitHit(rateLimitErr.RetryAfter)
				return retry.Retryable(shared.ErrGeminiRateLimited)
			}

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				if apiErr.StatusCode >= 500 {
					return retry.Retryable(err)
				}
				return retry.Permanent(err)
			}

			if errors.Is(err, context.DeadlineExceeded) {
				return retry.Retryable(shared.ErrGeminiTimeout)
			}

			// Network-level failures are worth retrying.
			return retry.Retryable(err)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return shared.ErrGeminiUnavailable
		}
		return err
	}
	return nil
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL, err := c.buildURL(path)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.Debug {
		c.logger.Debug("gemini api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "gemini quota exceeded",
		}
	}

	if resp.StatusCode >= 400 {
		var envelope apiErrorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error.Message != "" {
			envelope.Error.StatusCode = resp.StatusCode
			return &envelope.Error
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       resp.StatusCode,
			Status:     resp.Status,
			Message:    "request failed",
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrGeminiInvalidResponse, err)
		}
	}

	return nil
}

// buildURL joins the base URL, path and API key query parameter.
func (c *Client) buildURL(path string) (string, error) {
	u, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	q := u.Query()
	q.Set("key", c.config.APIKey)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// ClientStatus is a point-in-time view of the client's protective layers.
type ClientStatus struct {
	RateLimiter   RateLimiterStatus
	BreakerState  string
	BreakerCounts circuitbreaker.Counts
	ConfiguredKey bool
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:   c.rateLimiter.Status(),
		BreakerState:  c.breaker.State().String(),
		BreakerCounts: c.breaker.Counts(),
		ConfiguredKey: c.config.APIKey != "",
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.breaker.Reset()
}
