package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mindreel/backend/internal/domain/providers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Options configures a chat completion client for one concrete backend.
type Options struct {
	BaseURL        string
	APIKey         string
	Model          string
	Provider       string
	RateLimitRPM   int
	RateLimitBurst int
	Timeout        time.Duration

	// HTTPClient, when set, is shared with other clients on the same
	// provider connection.
	HTTPClient *http.Client
}

// Client issues chat completions against an OpenAI-compatible backend.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	provider   string
	httpClient *http.Client
	limiter    *tokenBucket
}

// NewClient creates a chat completion client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if opts.BaseURL == "" {
		return nil, errors.New("llm base url is required")
	}
	if opts.Model == "" {
		return nil, errors.New("llm model is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		provider:   opts.Provider,
		httpClient: httpClient,
		limiter:    newTokenBucket(opts.RateLimitRPM, opts.RateLimitBurst),
	}, nil
}

// Model returns the backend model name requests are issued with.
func (c *Client) Model() string {
	return c.model
}

// Provider returns the provider label for audit rows.
func (c *Client) Provider() string {
	return c.provider
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatEnvelope struct {
	Choices []chatChoice    `json:"choices"`
	Usage   json.RawMessage `json:"usage"`
}

// Complete issues one chat completion and returns the raw reply text plus the
// provider's usage payload as returned.
func (c *Client) Complete(ctx context.Context, req providers.ChatRequest) (*providers.ChatResult, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordChatMetric(ctx, c.provider, c.model, 0, 0, err)
			return nil, err
		}
		recordChatRateLimitWait(ctx, c.provider, c.model, time.Since(waitStart))
	}

	messages := []chatMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	payload := map[string]interface{}{
		"model":       c.model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.JSONMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		recordChatMetric(ctx, c.provider, c.model, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		recordChatMetric(ctx, c.provider, c.model, resp.StatusCode, time.Since(start), fmt.Errorf("status %d", resp.StatusCode))
		return nil, fmt.Errorf("chat completion failed with status %d", resp.StatusCode)
	}

	var envelope chatEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordChatMetric(ctx, c.provider, c.model, resp.StatusCode, time.Since(start), err)
		return nil, err
	}

	if len(envelope.Choices) == 0 {
		recordChatMetric(ctx, c.provider, c.model, resp.StatusCode, time.Since(start), errors.New("missing choices"))
		return nil, errors.New("chat completion response missing choices")
	}

	recordChatMetric(ctx, c.provider, c.model, resp.StatusCode, time.Since(start), nil)
	return &providers.ChatResult{
		Text:     envelope.Choices[0].Message.Content,
		RawUsage: envelope.Usage,
	}, nil
}

func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm == 0 {
		rpm = 60
	}
	if rpm < 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	return newTokenBucketWithRate(rpm, burst)
}

type tokenBucket struct {
	tokens chan struct{}
}

func newTokenBucketWithRate(rpm int, burst int) *tokenBucket {
	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
	}

	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case bucket.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return bucket
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

type chatMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var chatMetricsInit = false
var chatMetricsSet chatMetrics

func ensureChatMetrics() {
	if chatMetricsInit {
		return
	}
	meter := otel.Meter("github.com/mindreel/backend/llm")

	requestCount, err := meter.Int64Counter(
		"ai.chat.request.count",
		metric.WithDescription("Number of chat completion requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.chat.request.duration",
		metric.WithDescription("Chat completion request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.chat.request.errors",
		metric.WithDescription("Number of chat completion request errors"),
	)
	if err != nil {
		return
	}
	rateLimitWait, err := meter.Float64Histogram(
		"ai.chat.rate_limit.wait",
		metric.WithDescription("Time spent waiting for the chat rate limiter in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}

	chatMetricsSet = chatMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
		rateLimitWait:   rateLimitWait,
	}
	chatMetricsInit = true
}

func recordChatMetric(ctx context.Context, provider, model string, statusCode int, duration time.Duration, err error) {
	ensureChatMetrics()
	if !chatMetricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", provider),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	chatMetricsSet.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	chatMetricsSet.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		chatMetricsSet.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordChatRateLimitWait(ctx context.Context, provider, model string, wait time.Duration) {
	ensureChatMetrics()
	if !chatMetricsInit {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", provider),
		attribute.String("ai.model", model),
	}
	chatMetricsSet.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attrs...))
}
