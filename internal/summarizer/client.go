package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultChatModel = "gpt-4o-mini"

// ChatClient produces a completion for a prompt.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIConfig configures the chat completion client. BaseURL may point at
// any OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string `env:"OPENAI_API_KEY,required"`
	BaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}

// OpenAIClient is a minimal chat-completions client.
type OpenAIClient struct {
	token      string
	baseURL    string
	model      string
	httpClient *http.Client
}

// OpenAIOption customizes the client.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIHTTPClient replaces the HTTP client, mainly for tests.
func WithOpenAIHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		if hc == nil {
			panic("summarizer.WithOpenAIHTTPClient: nil client")
		}
		c.httpClient = hc
	}
}

// NewOpenAIClient creates the chat client. Panics on a missing API key.
func NewOpenAIClient(cfg OpenAIConfig, opts ...OpenAIOption) *OpenAIClient {
	if cfg.APIKey == "" {
		panic("summarizer.NewOpenAIClient: empty API key")
	}
	c := &OpenAIClient{
		token:      cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.openai.com/v1"
	}
	if c.model == "" {
		c.model = defaultChatModel
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OpenAIClient) do(ctx context.Context, endpoint string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("openai: unexpected status %s: %s", resp.Status, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Complete sends a single-turn chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":    c.model,
		"messages": []map[string]string{{"role": "user", "content": prompt}},
	}
	var respBody struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.do(ctx, "/chat/completions", reqBody, &respBody); err != nil {
		return "", errors.Join(ErrFailedToSummarize, err)
	}
	if len(respBody.Choices) == 0 || respBody.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return respBody.Choices[0].Message.Content, nil
}
