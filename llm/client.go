package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultTimeout     = 2 * time.Minute
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Request is a single system+user chat completion.
type Request struct {
	System string
	Prompt string
	Model  string
	// Caller labels the call in logs and errors, usually the persona name.
	Caller    string
	MaxTokens int
}

// CompletionClient turns a request into the model's raw text.
type CompletionClient interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientConfig tunes the chat-completion transport.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// Temperature is sent as is, zero included. Nil uses DefaultTemperature.
	Temperature *float64
	// RequestsPerSecond paces outgoing calls. Zero disables pacing.
	RequestsPerSecond float64
	// Title is sent as X-Title, which OpenRouter shows on its dashboard.
	Title string
	// HTTPClient overrides the transport. Its timeout wins over Timeout.
	HTTPClient *http.Client
}

// Client implements CompletionClient against any OpenAI-compatible chat
// completion endpoint, OpenRouter by default. It never retries.
type Client struct {
	sdk         openai.Client
	credential  *Credential
	temperature float64
	limiter     *rate.Limiter
}

// NewClient builds a client that reads its API key from credential on every
// call.
func NewClient(credential *Credential, cfg ClientConfig) *Client {
	if credential == nil {
		credential = NewCredential("")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.Title))
	}

	c := &Client{
		sdk:         openai.NewClient(opts...),
		credential:  credential,
		temperature: temperature,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// Complete implements CompletionClient.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	key := c.credential.Get()
	if key == "" {
		return "", classify(ErrCredentialMissing, req.Caller, req.Model)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", classify(err, req.Caller, req.Model)
		}
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(c.temperature),
	}
	resp, err := c.sdk.Chat.Completions.New(ctx, params, option.WithAPIKey(key))
	if err != nil {
		return "", classify(err, req.Caller, req.Model)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", classify(ErrEmptyResponse, req.Caller, req.Model)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", classify(ErrEmptyResponse, req.Caller, req.Model)
	}
	return content, nil
}
