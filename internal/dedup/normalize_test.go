package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"localbiz_backend/internal/domain"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "great service!", NormalizeText("Great   service!"))
	assert.Equal(t, "a b c", NormalizeText("  a\t b \n c  "))
	assert.Equal(t, "", NormalizeText(""))
	assert.Equal(t, "", NormalizeText("   \t\n  "))
}

func TestNormalizeAuthor(t *testing.T) {
	assert.Equal(t, "jane doe", NormalizeAuthor("  Jane Doe "))
	// internal whitespace is preserved for authors, unlike text
	assert.Equal(t, "jane  doe", NormalizeAuthor("Jane  Doe"))
	assert.Equal(t, "", NormalizeAuthor(""))
}

func TestClampRating(t *testing.T) {
	assert.Equal(t, 5, ClampRating(7))
	assert.Equal(t, 1, ClampRating(0))
	assert.Equal(t, 1, ClampRating(-3))
	assert.Equal(t, 3, ClampRating(3))
}

func TestNormalizeDefaults(t *testing.T) {
	n := Normalize(domain.RawReview{})
	assert.Equal(t, "", n.Author)
	assert.Equal(t, 5, n.Rating)
	assert.Equal(t, "", n.Text)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := domain.RawReview{
		"author_name": " Jane Doe ",
		"rating":      float64(9), // JSON numbers decode as float64
		"text":        "Great\t\tservice!  ",
	}
	first := Normalize(raw)
	assert.Equal(t, Normalized{Author: "jane doe", Rating: 5, Text: "great service!"}, first)
	assert.Equal(t, first, Normalize(raw))
}

func TestCaseAndWhitespaceVariantsCollapse(t *testing.T) {
	a := Normalize(domain.RawReview{"author_name": "Jane Doe", "rating": float64(5), "text": "Great service!"})
	b := Normalize(domain.RawReview{"author_name": "jane doe", "rating": float64(5), "text": "Great   service!"})
	assert.Equal(t, a, b)
	assert.Equal(t, ContentHash(a), ContentHash(b))
}
