// Package ai talks to an OpenAI-compatible chat completions API and turns
// its free-form answers into the engine's typed decisions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	rizzlyerrors "github.com/AmirAgassi/rizzly/internal/errors"
	"github.com/AmirAgassi/rizzly/internal/httpclient"
	"github.com/AmirAgassi/rizzly/internal/logging"
)

// Config configures the completion client.
type Config struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	VisionModel string
	Timeout     time.Duration
	Logger      logging.Logger
}

// Message is one chat turn. Content is either a plain string or a slice of
// content parts for vision requests.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// TextPart and ImagePart build multimodal message content.
func TextPart(text string) map[string]any {
	return map[string]any{"type": "text", "text": text}
}

func ImagePart(base64PNG string) map[string]any {
	return map[string]any{
		"type": "image_url",
		"image_url": map[string]any{
			"url": "data:image/png;base64," + base64PNG,
		},
	}
}

// Client speaks the chat completions protocol. Failures carry transient or
// permanent classification so callers can decide whether to retry.
type Client struct {
	apiKey      string
	baseURL     string
	chatModel   string
	visionModel string
	httpClient  *http.Client
	logger      logging.Logger
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.sambanova.ai/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := logging.OrNop(cfg.Logger)
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		chatModel:   cfg.ChatModel,
		visionModel: cfg.VisionModel,
		httpClient:  httpclient.NewWithCircuitBreaker(timeout, logger, "completions"),
		logger:      logger,
	}
}

// Chat sends messages to the text model and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	return c.complete(ctx, c.chatModel, messages, maxTokens)
}

// ChatVision sends messages to the vision model.
func (c *Client) ChatVision(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	return c.complete(ctx, c.visionModel, messages, maxTokens)
}

func (c *Client) complete(ctx context.Context, model string, messages []Message, maxTokens int) (string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", rizzlyerrors.NewPermanentError(errors.New("api key is empty"), "completion API key is not configured")
	}

	reqBody := map[string]any{
		"model":    model,
		"messages": messages,
		"stream":   false,
	}
	if maxTokens > 0 {
		reqBody["max_tokens"] = maxTokens
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	c.logger.Debug("completion request: POST %s model=%s messages=%d", endpoint, model, len(messages))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("completion error response: %d %s", resp.StatusCode, string(respBody))
		cause := fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		if rizzlyerrors.IsTransientHTTPStatus(resp.StatusCode) {
			return "", rizzlyerrors.NewTransientError(cause, "completion service is temporarily unavailable")
		}
		return "", rizzlyerrors.NewPermanentError(cause, "completion request was rejected")
	}

	var oaiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if oaiResp.Error != nil && oaiResp.Error.Message != "" {
		return "", rizzlyerrors.NewPermanentError(errors.New(oaiResp.Error.Message), "completion request failed")
	}
	if len(oaiResp.Choices) == 0 {
		return "", rizzlyerrors.NewTransientError(errors.New("no choices in response"), "completion service returned an empty response")
	}

	content := oaiResp.Choices[0].Message.Content
	c.logger.Debug("completion response: %d chars", len(content))
	return content, nil
}
