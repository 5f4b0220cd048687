package aiprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/reviewpilot/ReviewPilot/internal/pkg/env"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiModel          = "gemini-pro"
)

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func completeGemini(ctx context.Context, apiKey, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Err: err}
	}

	base := env.GetEnv("GEMINI_API_BASE_URL", defaultGeminiBaseURL)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		base, geminiModel, url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Err: err}
	}
	defer resp.Body.Close()

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Err: fmt.Errorf("status %d: %v", resp.StatusCode, err)}
	}
	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = fmt.Sprintf("status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", &ProviderError{Provider: ProviderGemini, Err: errors.New(msg)}
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Err: errors.New("empty completion")}
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}
