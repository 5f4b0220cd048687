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
	defaultGLMBaseURL = "https://open.bigmodel.cn"
	glmModel          = "glm-4"
)

type glmRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func completeGLM(ctx context.Context, apiKey, prompt string) (string, error) {
	payload := glmRequest{
		Model:    glmModel,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", &ProviderError{Provider: ProviderGLM, Err: err}
	}

	base := env.GetEnv("GLM_API_BASE_URL", defaultGLMBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/paas/v4/chat/completions", &buf)
	if err != nil {
		return "", &ProviderError{Provider: ProviderGLM, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: ProviderGLM, Err: err}
	}
	defer resp.Body.Close()

	// GLM mirrors the OpenAI chat completion shape
	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: ProviderGLM, Err: fmt.Errorf("status %d: %v", resp.StatusCode, err)}
	}
	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = fmt.Sprintf("status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", &ProviderError{Provider: ProviderGLM, Err: errors.New(msg)}
	}
	if len(out.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderGLM, Err: errors.New("empty completion")}
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
