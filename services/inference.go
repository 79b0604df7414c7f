package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// InferenceClient talks to an OpenAI-compatible chat-completions endpoint
// (the 0G inference provider, or anything with the same wire shape). Every
// request carries a hard timeout so a slow provider can never wedge a caller.
type InferenceClient struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewInferenceClientFromEnv reads INFERENCE_ENDPOINT, INFERENCE_API_KEY and
// INFERENCE_MODEL. With no endpoint configured the client is disabled and
// translation/report features respond accordingly.
func NewInferenceClientFromEnv() *InferenceClient {
	return &InferenceClient{
		BaseURL: os.Getenv("INFERENCE_ENDPOINT"),
		APIKey:  os.Getenv("INFERENCE_API_KEY"),
		Model:   os.Getenv("INFERENCE_MODEL"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *InferenceClient) Enabled() bool {
	return c.BaseURL != ""
}

type chatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []chatCompletionMessage `json:"messages"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one system-prompt completion and returns the model's text.
func (c *InferenceClient) Complete(ctx context.Context, content string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("inference endpoint not configured")
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model:    c.Model,
		Messages: []chatCompletionMessage{{Role: "system", Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call inference endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("inference endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("inference endpoint returned no completion")
	}

	return completion.Choices[0].Message.Content, nil
}

// Translate asks the model for a bare translation of text into
// targetLanguage (an English display name like "French").
func (c *InferenceClient) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	prompt := fmt.Sprintf("Please translate this text to %s with no other comments: %s", targetLanguage, text)
	return c.Complete(ctx, prompt)
}
