package dedup

import (
	"strings"

	"localbiz_backend/internal/domain"
)

// Normalized is the canonical comparison form of a review. Two records with
// equal Normalized values describe the same underlying review.
type Normalized struct {
	Author string
	Rating int
	Text   string
}

// NormalizeAuthor lower-cases and trims a display name.
func NormalizeAuthor(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeText collapses internal whitespace runs to single spaces,
// lower-cases and trims. Empty in, empty out.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ClampRating forces a rating into [1,5]. Upstream is not fully trusted, so
// out-of-range values are clamped rather than rejected.
func ClampRating(r int) int {
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}

// Normalize produces the comparison key for a raw webhook record. It is
// total: missing fields default (empty author/text, rating 5) and it never
// fails.
func Normalize(r domain.RawReview) Normalized {
	rating := 5
	if v, ok := rawInt(r, "rating"); ok {
		rating = v
	}
	return Normalized{
		Author: NormalizeAuthor(rawString(r, "author_name")),
		Rating: ClampRating(rating),
		Text:   NormalizeText(rawString(r, "text")),
	}
}

// ---- raw field access ----
// Webhook records arrive as untyped JSON objects; numbers decode as float64.

func rawString(r domain.RawReview, key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func rawInt(r domain.RawReview, key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
