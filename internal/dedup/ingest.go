package dedup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"localbiz_backend/internal/domain"
)

const (
	maxAuthorLen = 255
	maxTextLen   = 5000
	// contentProbeLimit bounds the (author, rating) candidate slice fetched
	// for the content-equality check; no full table scan on the hot path.
	contentProbeLimit = 10
)

// Report summarizes one live-ingest run.
type Report struct {
	TotalReceived         int
	Saved                 int
	Skipped               int
	Errors                int
	SubstitutedTimestamps int
}

// Ingestor is the live webhook reconciliation path. Records are handled
// strictly in delivery order; decisions for one content bucket are
// serialized across concurrent batches.
type Ingestor struct {
	store domain.ReviewStore
	fp    Fingerprinter
	locks bucketLocks
}

func NewIngestor(store domain.ReviewStore, window time.Duration) *Ingestor {
	return &Ingestor{store: store, fp: NewFingerprinter(window)}
}

// IngestBatch classifies each raw record as new or duplicate-skip and
// inserts the new ones. Individual record failures are counted and do not
// abort the rest of the batch. deliveryTime is the batch-level timestamp
// used when a record carries none of its own.
func (in *Ingestor) IngestBatch(ctx context.Context, reviews []domain.RawReview, deliveryTime string) Report {
	rep := Report{TotalReceived: len(reviews)}
	for _, raw := range reviews {
		in.ingestOne(ctx, raw, deliveryTime, &rep)
	}
	log.Info().
		Int("saved", rep.Saved).
		Int("skipped", rep.Skipped).
		Int("errors", rep.Errors).
		Int("substituted_ts", rep.SubstitutedTimestamps).
		Msg("ingest batch done")
	return rep
}

func (in *Ingestor) ingestOne(ctx context.Context, raw domain.RawReview, deliveryTime string, rep *Report) {
	n := Normalize(raw)

	tsRaw := raw["review_time"]
	if tsRaw == nil {
		tsRaw = deliveryTime
	}
	ts, substituted := in.fp.ResolveTime(tsRaw)
	if substituted {
		rep.SubstitutedTimestamps++
	}

	reviewID := strings.TrimSpace(rawString(raw, "review_id"))
	if reviewID == "" {
		reviewID = in.fp.SynthesizeID(n, ts)
	}

	// Serialize the check-then-insert sequence per content bucket.
	mu := in.locks.forKey(fmt.Sprintf("%s_%d", n.Author, n.Rating))
	mu.Lock()
	defer mu.Unlock()

	// 1) identifier match
	byID, err := in.store.FindActiveByReviewID(ctx, reviewID)
	if err != nil {
		rep.Errors++
		log.Error().Err(err).Str("review_id", reviewID).Msg("lookup by review_id failed")
		return
	}
	if len(byID) > 0 {
		rep.Skipped++
		log.Debug().Str("review_id", reviewID).Msg("duplicate skipped (review_id)")
		return
	}

	// 2) content match within the (author, rating) slice
	candidates, err := in.store.FindActiveByAuthorRating(ctx, n.Author, n.Rating, contentProbeLimit)
	if err != nil {
		rep.Errors++
		log.Error().Err(err).Str("author", n.Author).Msg("lookup by author/rating failed")
		return
	}
	for _, c := range candidates {
		existing := c.NormalizedText
		if existing == "" {
			existing = NormalizeText(c.Text)
		}
		if existing == n.Text {
			rep.Skipped++
			log.Debug().Str("author", n.Author).Int64("id", c.ID).Msg("duplicate skipped (content)")
			return
		}
	}

	// 3) new record
	rec := buildRecord(raw, n, reviewID, ts, in.fp.Window)
	if err := in.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A concurrent writer or store-side uniqueness backstop got
			// there first; same outcome as a duplicate skip.
			rep.Skipped++
			log.Debug().Str("review_id", reviewID).Msg("duplicate skipped (insert conflict)")
			return
		}
		rep.Errors++
		log.Error().Err(err).Str("review_id", reviewID).Msg("insert failed")
		return
	}
	rep.Saved++
	log.Info().Str("review_id", reviewID).Str("author", rec.AuthorName).Int("rating", rec.Rating).Msg("review saved")
}

func buildRecord(raw domain.RawReview, n Normalized, reviewID string, ts time.Time, window time.Duration) domain.ReviewRecord {
	author := strings.TrimSpace(rawString(raw, "author_name"))
	if author == "" {
		author = "Anonymous"
	}
	lang := rawString(raw, "language")
	if lang == "" {
		lang = "en"
	}
	relTime := rawString(raw, "relative_time_description")
	if relTime == "" {
		relTime = "Recently"
	}
	photo := rawString(raw, "profile_photo_url")
	if photo == "" {
		photo = avatarURL(author)
	}
	return domain.ReviewRecord{
		ReviewID:        reviewID,
		AuthorName:      truncate(author, maxAuthorLen),
		AuthorURL:       rawString(raw, "author_url"),
		Language:        truncate(lang, 10),
		ProfilePhotoURL: photo,
		Rating:          n.Rating,
		RelativeTime:    truncate(relTime, 100),
		Text:            truncate(strings.TrimSpace(rawString(raw, "text")), maxTextLen),
		NormalizedText:  truncate(n.Text, maxTextLen),
		ReviewTime:      rawString(raw, "review_time"),
		ReviewTimestamp: ts.UTC().Truncate(window).Unix(),
		IsActive:        true,
		IsFeatured:      n.Rating >= 4,
	}
}

func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=4285F4&color=fff&size=128"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
