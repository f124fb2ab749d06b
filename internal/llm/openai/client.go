package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"triage-backend/internal/llm"
)

const (
	apiURL       = "https://api.openai.com/v1/chat/completions"
	providerName = "openai"

	systemPrompt = "Você é um assistente especializado em análise de intimações jurídicas. Responda sempre com uma das classificações solicitadas."
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Classify sends the rendered prompt and returns raw text plus token counts.
func (c *Client) Classify(ctx context.Context, input llm.Input) (llm.Output, error) {
	if strings.TrimSpace(input.Model) == "" {
		return llm.Output{}, llm.NewFatalError(providerName, 0, "model is required", nil)
	}

	body := chatRequest{
		Model: input.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: input.Prompt},
		},
		MaxTokens: input.MaxTokens,
		TopP:      1.0,
	}
	temp := clampTemperature(input.Temperature)
	body.Temperature = &temp

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Output{}, llm.NewFatalError(providerName, 0, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return llm.Output{}, llm.NewFatalError(providerName, 0, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Output{}, llm.NewRetryableError(providerName, 0, "request timeout", err)
		}
		return llm.Output{}, llm.NewRetryableError(providerName, 0, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Output{}, llm.NewRetryableError(providerName, resp.StatusCode, "read response", err)
	}

	return decodeChatResponse(providerName, resp.StatusCode, raw)
}

func decodeChatResponse(provider string, status int, raw []byte) (llm.Output, error) {
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if status != http.StatusOK {
			return llm.Output{}, statusError(provider, status, strings.TrimSpace(string(raw)))
		}
		return llm.Output{}, llm.NewFatalError(provider, status, "response parse", err)
	}
	if parsed.Error != nil {
		msg := fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type)
		return llm.Output{}, statusError(provider, status, msg)
	}
	if status != http.StatusOK {
		return llm.Output{}, statusError(provider, status, "unexpected status")
	}
	if len(parsed.Choices) == 0 {
		return llm.Output{}, llm.NewFatalError(provider, status, "response missing choices", nil)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.Output{}, llm.NewFatalError(provider, status, "response empty content", nil)
	}

	out := llm.Output{RawText: content}
	if parsed.Usage != nil {
		out.TokensInput = parsed.Usage.PromptTokens
		out.TokensOutput = parsed.Usage.CompletionTokens
	}
	return out, nil
}

func statusError(provider string, status int, msg string) error {
	if llm.RetryableStatus(status) {
		return llm.NewRetryableError(provider, status, msg, nil)
	}
	return llm.NewFatalError(provider, status, msg, nil)
}

func clampTemperature(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 2 {
		return 2
	}
	return t
}

var _ llm.Client = (*Client)(nil)
