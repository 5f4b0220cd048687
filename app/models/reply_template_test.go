package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyTemplateMatches(t *testing.T) {
	tmpl := ReplyTemplate{MinRating: 2, MaxRating: 4}

	assert.False(t, tmpl.Matches(1))
	assert.True(t, tmpl.Matches(2))
	assert.True(t, tmpl.Matches(3))
	assert.True(t, tmpl.Matches(4))
	assert.False(t, tmpl.Matches(5))
}

func TestReplyTemplateValidate(t *testing.T) {
	valid := ReplyTemplate{
		UserID:    1,
		Name:      "Positive",
		Category:  TEMPLATE_CATEGORY_POSITIVE,
		MinRating: 4,
		MaxRating: 5,
		Content:   "Thanks, {{reviewer_name}}!",
	}
	assert.NoError(t, valid.Validate())

	noContent := valid
	noContent.Content = ""
	assert.Error(t, noContent.Validate())

	badCategory := valid
	badCategory.Category = "sarcastic"
	assert.Error(t, badCategory.Validate())

	badRating := valid
	badRating.MaxRating = 6
	assert.Error(t, badRating.Validate())
}
