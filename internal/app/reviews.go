package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"localbiz_backend/internal/adapters/observability"
	"localbiz_backend/internal/dedup"
	"localbiz_backend/internal/domain"
)

const (
	// maxServedReviews caps the deduped read response.
	maxServedReviews = 50

	reviewsCacheKey = "reviews:active:50"
	statsCacheKey   = "reviews:stats"
)

// ReviewService owns the review read and ingest flows. Reads are cached and
// collapsed with singleflight so a cache miss under load issues one store
// round-trip, not one per request.
type ReviewService struct {
	store     domain.ReviewStore // nil when the primary store is unconfigured
	cache     domain.Cache
	ing       *dedup.Ingestor
	ttl       time.Duration
	readLimit int
	sf        singleflight.Group
}

func NewReviewService(store domain.ReviewStore, cache domain.Cache, window, ttl time.Duration, readLimit int) *ReviewService {
	if readLimit <= 0 {
		readLimit = 100
	}
	s := &ReviewService{store: store, cache: cache, ttl: ttl, readLimit: readLimit}
	if store != nil {
		s.ing = dedup.NewIngestor(store, window)
	}
	return s
}

// Ingest runs the live reconciliation path over one webhook delivery and
// echoes the upstream metadata back alongside the run counts.
func (s *ReviewService) Ingest(ctx context.Context, batch domain.WebhookBatch) domain.IngestReport {
	out := domain.IngestReport{
		Success:          true,
		TotalReceived:    len(batch.Reviews),
		BusinessName:     batch.BusinessName,
		AverageRating:    batch.AverageRating,
		UserRatingsTotal: batch.UserRatingsTotal,
		Timestamp:        batch.Timestamp,
	}
	if s.ing == nil {
		out.Message = "reviews received (store not configured)"
		return out
	}

	rep := s.ing.IngestBatch(ctx, batch.Reviews, batch.Timestamp)
	observability.ObserveIngest(rep.Saved, rep.Skipped, rep.Errors, rep.SubstitutedTimestamps)

	out.Message = "webhook processed"
	out.Saved = rep.Saved
	out.Skipped = rep.Skipped
	out.Errors = rep.Errors
	out.SubstitutedTimestamps = rep.SubstitutedTimestamps

	if rep.Saved > 0 && s.cache != nil {
		_ = s.cache.Del(ctx, reviewsCacheKey)
		_ = s.cache.Del(ctx, statsCacheKey)
	}
	return out
}

// ListReviews returns the deduped, consumer-facing review list. A store
// failure degrades to an empty list rather than an error.
func (s *ReviewService) ListReviews(ctx context.Context) []domain.ReviewView {
	if s.cache != nil {
		var cached []domain.ReviewView
		if ok, _ := s.cache.Get(ctx, reviewsCacheKey, &cached); ok {
			return cached
		}
	}

	v, _, _ := s.sf.Do(reviewsCacheKey, func() (any, error) {
		return s.loadReviews(ctx), nil
	})
	views, _ := v.([]domain.ReviewView)
	if views == nil {
		views = []domain.ReviewView{}
	}
	return views
}

func (s *ReviewService) loadReviews(ctx context.Context) []domain.ReviewView {
	if s.store == nil {
		return []domain.ReviewView{}
	}
	records, err := s.store.ListActive(ctx, s.readLimit)
	if err != nil {
		log.Warn().Err(err).Msg("review read failed; serving empty list")
		return []domain.ReviewView{}
	}

	unique := dedup.FilterNewestFirst(records, maxServedReviews)
	if dropped := len(records) - len(unique); dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("read-time filter removed duplicates")
	}

	views := make([]domain.ReviewView, 0, len(unique))
	for _, rec := range unique {
		views = append(views, toView(rec))
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, reviewsCacheKey, views, int(s.ttl.Seconds()))
	}
	return views
}

func toView(rec domain.ReviewRecord) domain.ReviewView {
	v := domain.ReviewView{
		AuthorName:      rec.AuthorName,
		Rating:          rec.Rating,
		Text:            rec.Text,
		RelativeTime:    rec.RelativeTime,
		ProfilePhotoURL: rec.ProfilePhotoURL,
	}
	if v.AuthorName == "" {
		v.AuthorName = "Anonymous"
	}
	if v.Rating == 0 {
		v.Rating = 5
	}
	if v.RelativeTime == "" {
		v.RelativeTime = "Recently"
	}
	if v.ProfilePhotoURL == "" {
		v.ProfilePhotoURL = "https://ui-avatars.com/api/?name=" + url.QueryEscape(v.AuthorName) + "&background=4285F4&color=fff&size=128"
	}
	return v
}

// Stats computes the dashboard panel numbers from the active set. On store
// failure it serves a fixed fallback payload.
func (s *ReviewService) Stats(ctx context.Context) domain.ReviewStats {
	if s.cache != nil {
		var cached domain.ReviewStats
		if ok, _ := s.cache.Get(ctx, statsCacheKey, &cached); ok {
			return cached
		}
	}
	if s.store == nil {
		return fallbackStats()
	}
	records, err := s.store.ListActive(ctx, 0)
	if err != nil {
		log.Warn().Err(err).Msg("stats read failed; serving fallback")
		return fallbackStats()
	}
	if len(records) == 0 {
		return fallbackStats()
	}

	dist := map[string]int{"5": 0, "4": 0, "3": 0, "2": 0, "1": 0}
	sum, latest := 0, ""
	for _, rec := range records {
		r := dedup.ClampRating(rec.Rating)
		sum += r
		dist[fmt.Sprintf("%d", r)]++
		if rec.ReviewTime > latest {
			latest = rec.ReviewTime
		}
	}
	stats := domain.ReviewStats{
		AverageRating:      round1(float64(sum) / float64(len(records))),
		TotalReviews:       len(records),
		RatingDistribution: dist,
		LatestReviewTime:   latest,
		LastUpdated:        time.Now().UTC().Format(time.RFC3339),
		Source:             "store",
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, statsCacheKey, stats, int(s.ttl.Seconds()))
	}
	return stats
}

func fallbackStats() domain.ReviewStats {
	return domain.ReviewStats{
		AverageRating:      4.8,
		TotalReviews:       47,
		RatingDistribution: map[string]int{"5": 40, "4": 5, "3": 1, "2": 1, "1": 0},
		LastUpdated:        time.Now().UTC().Format(time.RFC3339),
		Source:             "fallback",
	}
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}

// CheckDuplicates runs the offline grouping in dry-run over a full snapshot
// and returns the audit report. Never mutates storage.
func (s *ReviewService) CheckDuplicates(ctx context.Context) (dedup.CleanupReport, error) {
	if s.store == nil {
		return dedup.CleanupReport{}, fmt.Errorf("review store not configured")
	}
	snapshot, err := s.store.ListActive(ctx, 0)
	if err != nil {
		return dedup.CleanupReport{}, fmt.Errorf("snapshot: %w", err)
	}
	return dedup.PlanCleanup(snapshot).Report(), nil
}
