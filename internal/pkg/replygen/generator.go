// Package replygen produces reply text for a review, either through the
// user's AI provider or through their reply templates.
package replygen

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/reviewpilot/ReviewPilot/app/models"
	"github.com/reviewpilot/ReviewPilot/app/repository"
	"github.com/reviewpilot/ReviewPilot/internal/pkg/aiprovider"
)

var (
	// ErrNotConfigured means the user selected AI replies without a provider
	// or API key. Never falls back to templates.
	ErrNotConfigured = errors.New("ai provider not configured")

	// ErrNoMatchingTemplate means no active template covers the review's
	// star rating.
	ErrNoMatchingTemplate = errors.New("no matching reply template")

	// ErrManualMode means the effective reply mode does not allow generation.
	ErrManualMode = errors.New("reply mode is manual")
)

// Result is one successfully generated reply.
type Result struct {
	Text       string
	Method     string
	TemplateID *uint
	Provider   string
}

// CompleteFunc matches aiprovider.Complete; swappable in tests.
type CompleteFunc func(ctx context.Context, provider aiprovider.Provider, apiKey, prompt string) (string, error)

// Generator creates reply text for reviews.
type Generator struct {
	templates repository.TemplateRepository
	complete  CompleteFunc
}

// NewGenerator creates a generator backed by the real AI providers.
func NewGenerator(templates repository.TemplateRepository) *Generator {
	return &Generator{
		templates: templates,
		complete:  aiprovider.Complete,
	}
}

// NewGeneratorWithCompleter creates a generator with a custom completion
// function. Used by tests.
func NewGeneratorWithCompleter(templates repository.TemplateRepository, complete CompleteFunc) *Generator {
	return &Generator{templates: templates, complete: complete}
}

// Generate produces reply text for the review. mode overrides the user's
// configured reply mode when non-empty.
func (g *Generator) Generate(ctx context.Context, user *models.User, review *models.Review, mode string) (*Result, error) {
	effective := mode
	if effective == "" {
		effective = user.ReplyMode
	}

	switch effective {
	case models.REPLY_MODE_AI:
		return g.generateAI(ctx, user, review)
	case models.REPLY_MODE_TEMPLATE:
		return g.generateTemplate(user, review)
	case models.REPLY_MODE_MANUAL:
		return nil, ErrManualMode
	default:
		return nil, fmt.Errorf("invalid reply mode %q", effective)
	}
}

func (g *Generator) generateAI(ctx context.Context, user *models.User, review *models.Review) (*Result, error) {
	if user.AIProvider == "" || user.AIAPIKey == "" {
		return nil, ErrNotConfigured
	}

	prompt := BuildPrompt(review)
	text, err := g.complete(ctx, aiprovider.Provider(user.AIProvider), user.AIAPIKey, prompt)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:     text,
		Method:   models.REPLY_METHOD_AI,
		Provider: user.AIProvider,
	}, nil
}

func (g *Generator) generateTemplate(user *models.User, review *models.Review) (*Result, error) {
	matches, err := g.templates.FindActiveMatching(user.ID, review.StarRating)
	if err != nil {
		return nil, fmt.Errorf("template lookup failed: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoMatchingTemplate
	}

	// Least used first; lookup order is the deterministic tie-break.
	tmpl := matches[0]
	text := RenderTemplate(tmpl.Content, review)

	// Usage counts only steer template rotation; a failed bump must not fail
	// the reply.
	if err := g.templates.IncrementUsage(tmpl.ID); err != nil {
		log.Warnf("[ReplyGen] Failed to increment usage for template %d: %v", tmpl.ID, err)
	}

	id := tmpl.ID
	return &Result{
		Text:       text,
		Method:     models.REPLY_METHOD_TEMPLATE,
		TemplateID: &id,
	}, nil
}
