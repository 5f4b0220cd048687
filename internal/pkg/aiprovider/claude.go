package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/reviewpilot/ReviewPilot/internal/pkg/env"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com"
	claudeModel          = "claude-3-haiku-20240307"
	claudeMaxTokens      = 500
	claudeAPIVersion     = "2023-06-01"
)

type claudeRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func completeClaude(ctx context.Context, apiKey, prompt string) (string, error) {
	payload := claudeRequest{
		Model:     claudeModel,
		MaxTokens: claudeMaxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", &ProviderError{Provider: ProviderClaude, Err: err}
	}

	base := env.GetEnv("CLAUDE_API_BASE_URL", defaultClaudeBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/messages", &buf)
	if err != nil {
		return "", &ProviderError{Provider: ProviderClaude, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: ProviderClaude, Err: err}
	}
	defer resp.Body.Close()

	var out claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: ProviderClaude, Err: fmt.Errorf("status %d: %v", resp.StatusCode, err)}
	}
	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = fmt.Sprintf("status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", &ProviderError{Provider: ProviderClaude, Err: errors.New(msg)}
	}
	if len(out.Content) == 0 {
		return "", &ProviderError{Provider: ProviderClaude, Err: errors.New("empty completion")}
	}
	return strings.TrimSpace(out.Content[0].Text), nil
}
