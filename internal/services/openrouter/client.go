// Package openrouter talks to an OpenAI-compatible chat API (OpenRouter by
// default): model listing, chat completions and account balance.
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sashabaranov/go-openai"

	"github.com/j-veylop/aichat/internal/config"
	"github.com/j-veylop/aichat/internal/logger"
	"github.com/j-veylop/aichat/internal/models"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const (
	defaultCacheTTL = 5 * time.Minute
	requestTimeout  = 60 * time.Second

	modelsKey  = "models"
	balanceKey = "balance"
)

// ErrEmptyResponse is returned when a completion carries no choices.
var ErrEmptyResponse = errors.New("empty response from model")

// DefaultModels is offered when the model list cannot be fetched.
func DefaultModels() []models.ModelInfo {
	return []models.ModelInfo{
		{ID: "deepseek-coder", Name: "DeepSeek"},
		{ID: "claude-3-sonnet", Name: "Claude 3.5 Sonnet"},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo"},
	}
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Referrer   string
	Title      string
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is safe for concurrent use.
type Client struct {
	chat    *openai.Client
	http    *http.Client
	cache   *cache.Cache
	log     *slog.Logger
	baseURL string
	apiKey  string
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

// New creates a client for apiKey. It returns config.ErrMissingSecret when
// apiKey is empty.
func New(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, config.ErrMissingSecret
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	// Inject optional attribution headers
	if opts.Referrer != "" || opts.Title != "" {
		h := http.Header{}
		if opts.Referrer != "" {
			h.Set("HTTP-Referer", opts.Referrer)
		}
		if opts.Title != "" {
			h.Set("X-Title", opts.Title)
		}
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		httpClient = &http.Client{
			Transport: headerTransport{rt: base, headers: h},
			Timeout:   httpClient.Timeout,
		}
	}

	chatConfig := openai.DefaultConfig(apiKey)
	chatConfig.BaseURL = baseURL
	chatConfig.HTTPClient = httpClient

	c := &Client{
		chat:    openai.NewClientWithConfig(chatConfig),
		http:    httpClient,
		cache:   cache.New(ttl, 2*ttl),
		log:     logger.OrDiscard(opts.Logger),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
	c.log.Info("api client initialized", "base_url", baseURL)
	return c, nil
}

// SendMessage sends text as a single user turn to modelID.
func (c *Client) SendMessage(ctx context.Context, text, modelID string) (models.Completion, error) {
	c.log.Debug("sending message", "model", modelID, "length", len(text))

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		c.log.Error("api request failed", "model", modelID, "error", err)
		return models.Completion{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Completion{}, ErrEmptyResponse
	}

	c.log.Info("received response", "model", resp.Model, "tokens", resp.Usage.TotalTokens)
	return models.Completion{
		Content:    resp.Choices[0].Message.Content,
		Model:      resp.Model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

type modelsResponse struct {
	Data []models.ModelInfo `json:"data"`
}

// ListModels returns the models the API offers. When the request fails the
// DefaultModels list is returned instead, and nothing is cached.
func (c *Client) ListModels(ctx context.Context) []models.ModelInfo {
	if cached, ok := c.cache.Get(modelsKey); ok {
		if list, ok := cached.([]models.ModelInfo); ok {
			return list
		}
	}

	var resp modelsResponse
	err := c.getJSON(ctx, "/models", &resp)
	if err == nil && len(resp.Data) == 0 {
		err = errors.New("no models returned")
	}
	if err != nil {
		defaults := DefaultModels()
		c.log.Info("using default models", "count", len(defaults), "error", err)
		return defaults
	}

	c.log.Info("retrieved models", "count", len(resp.Data))
	c.cache.SetDefault(modelsKey, resp.Data)
	return resp.Data
}

type creditsResponse struct {
	Data *struct {
		TotalCredits float64 `json:"total_credits"`
		TotalUsage   float64 `json:"total_usage"`
	} `json:"data"`
}

// GetBalance returns the remaining credit formatted as "$X.XX".
func (c *Client) GetBalance(ctx context.Context) (string, error) {
	if cached, ok := c.cache.Get(balanceKey); ok {
		if balance, ok := cached.(string); ok {
			return balance, nil
		}
	}

	var resp creditsResponse
	if err := c.getJSON(ctx, "/credits", &resp); err != nil {
		return "", fmt.Errorf("failed to get balance: %w", err)
	}
	if resp.Data == nil {
		return "", errors.New("failed to get balance: response has no data")
	}

	balance := FormatBalance(resp.Data.TotalCredits - resp.Data.TotalUsage)
	c.cache.SetDefault(balanceKey, balance)
	return balance, nil
}

// RefreshBalance drops the cached balance and fetches it again.
func (c *Client) RefreshBalance(ctx context.Context) (string, error) {
	c.cache.Delete(balanceKey)
	return c.GetBalance(ctx)
}

// FormatBalance renders an amount of credit.
func FormatBalance(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
