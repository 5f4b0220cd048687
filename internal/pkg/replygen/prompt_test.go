package replygen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reviewpilot/ReviewPilot/app/models"
)

func TestBuildPrompt(t *testing.T) {
	review := &models.Review{
		ReviewerName: "Sam",
		StarRating:   4,
		Comment:      "Great coffee!",
	}

	prompt := BuildPrompt(review)
	assert.Contains(t, prompt, "Reviewer Name: Sam")
	assert.Contains(t, prompt, "Star Rating: 4/5")
	assert.Contains(t, prompt, "Review Comment: Great coffee!")
	assert.Contains(t, prompt, "Write only the reply text, nothing else:")
}

func TestBuildPromptWithoutComment(t *testing.T) {
	review := &models.Review{
		ReviewerName: "Alex",
		StarRating:   5,
	}

	prompt := BuildPrompt(review)
	assert.Contains(t, prompt, "(No comment, just a star rating)")
}

func TestRenderTemplate(t *testing.T) {
	review := &models.Review{
		ReviewerName: "Sam",
		LocationName: "Joe's Cafe",
		StarRating:   5,
	}

	got := RenderTemplate(
		"Hi {{reviewer_name}}, thanks for the {{rating}} star review of {{business_name}}!",
		review,
	)
	assert.Equal(t, "Hi Sam, thanks for the 5 star review of Joe's Cafe!", got)
}

func TestRenderTemplateCaseInsensitive(t *testing.T) {
	review := &models.Review{
		ReviewerName: "Sam",
		LocationName: "Joe's Cafe",
		StarRating:   3,
	}

	got := RenderTemplate("Hello {{Reviewer_Name}}, {{RATING}} stars at {{Business_Name}}.", review)
	assert.Equal(t, "Hello Sam, 3 stars at Joe's Cafe.", got)
}

func TestRenderTemplateBusinessNameFallback(t *testing.T) {
	review := &models.Review{
		ReviewerName: "Sam",
		StarRating:   5,
	}

	got := RenderTemplate("Thanks for visiting {{business_name}}!", review)
	assert.Equal(t, "Thanks for visiting our business!", got)
}

func TestRenderTemplateKeepsDollarSignsLiteral(t *testing.T) {
	review := &models.Review{
		ReviewerName: "Sam $1",
		LocationName: "Cafe $0.50",
		StarRating:   4,
	}

	got := RenderTemplate("{{reviewer_name}} rated {{business_name}}.", review)
	assert.Equal(t, "Sam $1 rated Cafe $0.50.", got)
}

func TestRenderTemplateRepeatedPlaceholders(t *testing.T) {
	review := &models.Review{
		ReviewerName: "Sam",
		StarRating:   2,
	}

	got := RenderTemplate("{{reviewer_name}} {{reviewer_name}}", review)
	assert.Equal(t, "Sam Sam", got)
}
