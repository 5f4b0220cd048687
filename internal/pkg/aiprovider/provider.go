// Package aiprovider holds the closed set of text generation backends a user
// can bring their own API key for. The set is fixed; dispatch is a switch on
// the Provider tag, not a runtime registry.
package aiprovider

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderGLM    Provider = "glm"
)

// ProviderError wraps any transport or API failure of a provider call.
type ProviderError struct {
	Provider Provider
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ai provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Info describes one provider for the public provider listing.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Supported returns the providers a user can configure.
func Supported() []Info {
	return []Info{
		{ID: string(ProviderOpenAI), Name: "OpenAI", Description: "GPT-4o Mini"},
		{ID: string(ProviderGemini), Name: "Google Gemini", Description: "Gemini Pro"},
		{ID: string(ProviderClaude), Name: "Anthropic Claude", Description: "Claude 3 Haiku"},
		{ID: string(ProviderGLM), Name: "Zhipu GLM", Description: "GLM-4"},
	}
}

// IsSupported reports whether the given provider id is part of the closed set.
func IsSupported(p Provider) bool {
	switch p {
	case ProviderOpenAI, ProviderGemini, ProviderClaude, ProviderGLM:
		return true
	}
	return false
}

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// Complete sends the prompt to the selected provider and returns the trimmed
// reply text. Failures come back as *ProviderError.
func Complete(ctx context.Context, provider Provider, apiKey, prompt string) (string, error) {
	switch provider {
	case ProviderOpenAI:
		return completeOpenAI(ctx, apiKey, prompt)
	case ProviderGemini:
		return completeGemini(ctx, apiKey, prompt)
	case ProviderClaude:
		return completeClaude(ctx, apiKey, prompt)
	case ProviderGLM:
		return completeGLM(ctx, apiKey, prompt)
	default:
		return "", &ProviderError{Provider: provider, Err: fmt.Errorf("unsupported provider")}
	}
}
