package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"triage-backend/internal/llm"
)

const (
	providerName = "azure"

	systemPrompt = "Você é um assistente especializado em análise de intimações jurídicas. Responda sempre com uma das classificações solicitadas."
)

// Client implements llm.Client using Azure OpenAI chat completions.
// The model name in llm.Input selects the Azure deployment.
type Client struct {
	apiKey     string
	endpoint   string
	apiVersion string
	httpClient *http.Client
}

// NewClient constructs a new Azure OpenAI client.
func NewClient(apiKey, endpoint, apiVersion string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("AZURE_OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("AZURE_OPENAI_ENDPOINT is required")
	}
	if strings.TrimSpace(apiVersion) == "" {
		apiVersion = "2024-02-15-preview"
	}
	return &Client{
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Classify sends the rendered prompt to the deployment named by input.Model.
func (c *Client) Classify(ctx context.Context, input llm.Input) (llm.Output, error) {
	if strings.TrimSpace(input.Model) == "" {
		return llm.Output{}, llm.NewFatalError(providerName, 0, "deployment is required", nil)
	}

	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: input.Prompt},
		},
		MaxTokens: input.MaxTokens,
		TopP:      1.0,
	}
	temp := input.Temperature
	if temp < 0 {
		temp = 0
	}
	if temp > 2 {
		temp = 2
	}
	body.Temperature = &temp

	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Output{}, llm.NewFatalError(providerName, 0, "marshal request", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, url.PathEscape(input.Model), url.QueryEscape(c.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Output{}, llm.NewFatalError(providerName, 0, "build request", err)
	}
	req.Header.Set("api-key", c.apiKey)
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

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return llm.Output{}, statusError(resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return llm.Output{}, llm.NewFatalError(providerName, resp.StatusCode, "response parse", err)
	}
	if parsed.Error != nil {
		msg := fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Code)
		return llm.Output{}, statusError(resp.StatusCode, msg)
	}
	if resp.StatusCode != http.StatusOK {
		return llm.Output{}, statusError(resp.StatusCode, "unexpected status")
	}
	if len(parsed.Choices) == 0 {
		return llm.Output{}, llm.NewFatalError(providerName, resp.StatusCode, "response missing choices", nil)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return llm.Output{}, llm.NewFatalError(providerName, resp.StatusCode, "response empty content", nil)
	}

	out := llm.Output{RawText: content}
	if parsed.Usage != nil {
		out.TokensInput = parsed.Usage.PromptTokens
		out.TokensOutput = parsed.Usage.CompletionTokens
	}
	return out, nil
}

func statusError(status int, msg string) error {
	if llm.RetryableStatus(status) {
		return llm.NewRetryableError(providerName, status, msg, nil)
	}
	return llm.NewFatalError(providerName, status, msg, nil)
}

var _ llm.Client = (*Client)(nil)
