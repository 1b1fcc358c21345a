package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// idPrefix marks locally synthesized identifiers.
const idPrefix = "gp_"

var authorSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

// ContentHash is the 128-bit fingerprint over normalized author, rating and
// full normalized text. It detects duplicates independent of any supplied
// identifier.
func ContentHash(n Normalized) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d_%s", n.Author, n.Rating, n.Text)))
	return hex.EncodeToString(sum[:])
}

func shortTextHash(normText string) string {
	sum := md5.Sum([]byte(normText))
	return hex.EncodeToString(sum[:])[:8]
}

// Fingerprinter synthesizes stable identifiers for records the upstream
// source delivered without one. Window is the timestamp tolerance: two
// deliveries of the same review within one window synthesize the same ID.
type Fingerprinter struct {
	Window time.Duration
	Now    func() time.Time
}

func NewFingerprinter(window time.Duration) Fingerprinter {
	if window <= 0 {
		window = time.Minute
	}
	return Fingerprinter{Window: window, Now: time.Now}
}

// SynthesizeID builds prefix + sanitized author + rounded epoch seconds +
// short text hash. Rounding absorbs clock skew between re-deliveries.
func (f Fingerprinter) SynthesizeID(n Normalized, ts time.Time) string {
	author := authorSanitizer.ReplaceAllString(n.Author, "_")
	if author == "" {
		author = "anonymous"
	}
	epoch := ts.UTC().Truncate(f.Window).Unix()
	return fmt.Sprintf("%s%s_%d_%s", idPrefix, author, epoch, shortTextHash(n.Text))
}

// ResolveTime parses an externally supplied timestamp: an ISO-8601 string
// or integer/float epoch seconds. When unparseable or absent it substitutes
// the current time and reports substituted=true so operators can see
// upstream drift; two such records in the same window will collide, which
// is accepted as a false-duplicate risk.
func (f Fingerprinter) ResolveTime(raw any) (ts time.Time, substituted bool) {
	switch v := raw.(type) {
	case string:
		if t, ok := parseISO(v); ok {
			return t, false
		}
	case float64:
		if v > 0 {
			return time.Unix(int64(v), 0).UTC(), false
		}
	case int64:
		if v > 0 {
			return time.Unix(v, 0).UTC(), false
		}
	case int:
		if v > 0 {
			return time.Unix(int64(v), 0).UTC(), false
		}
	}
	return f.Now().UTC(), true
}

func parseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	// bare epoch seconds delivered as a string
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return time.Unix(n, 0).UTC(), true
	}
	return time.Time{}, false
}
