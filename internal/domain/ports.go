package domain

import "context"

// ReviewStore is the narrow read/insert/delete surface the reconciler works
// through. The store is remote and non-transactional; Insert is NOT
// idempotent and callers must de-duplicate first. A store-side uniqueness
// constraint may still reject an insert with ErrConflict, which callers
// treat the same as a duplicate skip.
type ReviewStore interface {
	// FindActiveByReviewID returns at most one active record with the
	// given identifier.
	FindActiveByReviewID(ctx context.Context, reviewID string) ([]ReviewRecord, error)
	// FindActiveByAuthorRating returns a bounded slice of active records
	// with a case-insensitive author match and equal rating.
	FindActiveByAuthorRating(ctx context.Context, author string, rating int, limit int) ([]ReviewRecord, error)
	// ListActive returns active records newest-first. limit <= 0 means
	// the full snapshot.
	ListActive(ctx context.Context, limit int) ([]ReviewRecord, error)
	Insert(ctx context.Context, rec ReviewRecord) error
	Delete(ctx context.Context, id int64) error
}

type LeadStore interface {
	InsertLead(ctx context.Context, l Lead) (string, error)
}

type BookingStore interface {
	InsertBooking(ctx context.Context, b Booking) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
