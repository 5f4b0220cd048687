package replygen

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/reviewpilot/ReviewPilot/app/models"
)

const promptFormat = `You are a professional business owner responding to a Google review.

Review Details:
- Reviewer Name: %s
- Star Rating: %d/5
- Review Comment: %s

Instructions:
- Write a professional, warm, and authentic reply
- Thank the reviewer for their feedback
- If positive (4-5 stars): Express gratitude and invite them back
- If neutral (3 stars): Thank them and ask how you could improve
- If negative (1-2 stars): Apologize sincerely, offer to make things right, provide a way to contact you
- Keep the reply between 2-4 sentences
- Don't be overly formal or use corporate jargon
- Personalize when possible using reviewer's name

Write only the reply text, nothing else:`

// BuildPrompt renders the instruction prompt sent to the AI provider.
func BuildPrompt(review *models.Review) string {
	comment := review.Comment
	if comment == "" {
		comment = "(No comment, just a star rating)"
	}
	return fmt.Sprintf(promptFormat, review.ReviewerName, review.StarRating, comment)
}

var (
	reReviewerName = regexp.MustCompile(`(?i)\{\{reviewer_name\}\}`)
	reBusinessName = regexp.MustCompile(`(?i)\{\{business_name\}\}`)
	reRating       = regexp.MustCompile(`(?i)\{\{rating\}\}`)
)

// RenderTemplate substitutes all placeholder tokens in the template content.
// Token matching is case-insensitive; every occurrence is replaced.
func RenderTemplate(content string, review *models.Review) string {
	businessName := review.LocationName
	if businessName == "" {
		businessName = "our business"
	}

	// Literal replacement: reviewer and business names are untrusted input,
	// a "$1" in them must not be expanded as a capture group reference.
	out := reReviewerName.ReplaceAllLiteralString(content, review.ReviewerName)
	out = reBusinessName.ReplaceAllLiteralString(out, businessName)
	out = reRating.ReplaceAllLiteralString(out, strconv.Itoa(review.StarRating))
	return out
}
