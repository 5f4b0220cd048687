package googlebusiness

import (
	"strconv"
	"strings"
)

var ratingWords = map[string]int{
	"ONE":   1,
	"TWO":   2,
	"THREE": 3,
	"FOUR":  4,
	"FIVE":  5,
}

// ParseStarRating converts the API's star rating representation to an int in
// [1,5]. The v4 API delivers enum words ("FIVE"), older payloads carry a
// "STAR_RATING_" prefix, and some exports use plain digits. Unparseable
// values fall back to 5, matching how reviews without usable ratings were
// always treated.
func ParseStarRating(raw string) int {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "STAR_RATING_")

	if v, ok := ratingWords[s]; ok {
		return v
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 1 && v <= 5 {
		return v
	}
	return 5
}
