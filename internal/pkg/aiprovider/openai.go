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
	defaultOpenAIBaseURL = "https://api.openai.com"
	openAIModel          = "gpt-4o-mini"
	openAIMaxTokens      = 500
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func completeOpenAI(ctx context.Context, apiKey, prompt string) (string, error) {
	payload := openAIRequest{
		Model:     openAIModel,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: openAIMaxTokens,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Err: err}
	}

	base := env.GetEnv("OPENAI_API_BASE_URL", defaultOpenAIBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/chat/completions", &buf)
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Err: err}
	}
	defer resp.Body.Close()

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Err: fmt.Errorf("status %d: %v", resp.StatusCode, err)}
	}
	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = fmt.Sprintf("status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", &ProviderError{Provider: ProviderOpenAI, Err: errors.New(msg)}
	}
	if len(out.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderOpenAI, Err: errors.New("empty completion")}
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
