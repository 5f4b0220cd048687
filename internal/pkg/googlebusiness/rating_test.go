package googlebusiness

import (
	"testing"
)

func TestParseStarRating(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "FIVE", want: 5},
		{in: "FOUR", want: 4},
		{in: "THREE", want: 3},
		{in: "TWO", want: 2},
		{in: "ONE", want: 1},
		{in: "STAR_RATING_TWO", want: 2},
		{in: "star_rating_one", want: 1},
		{in: "five", want: 5},
		{in: " THREE ", want: 3},
		{in: "4", want: 4},
		{in: "1", want: 1},
		{in: "0", want: 5},
		{in: "6", want: 5},
		{in: "", want: 5},
		{in: "UNSPECIFIED", want: 5},
	}

	for _, tt := range tests {
		if got := ParseStarRating(tt.in); got != tt.want {
			t.Fatalf("ParseStarRating(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
