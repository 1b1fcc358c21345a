package domain

// ReviewRecord is a stored review row. ID is the store's own primary key;
// ReviewID is the upstream-supplied or locally synthesized stable identifier.
type ReviewRecord struct {
	ID              int64  `json:"id,omitempty"`
	ReviewID        string `json:"review_id,omitempty"`
	AuthorName      string `json:"author_name"`
	AuthorURL       string `json:"author_url,omitempty"`
	Language        string `json:"language,omitempty"`
	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
	Rating          int    `json:"rating"`
	RelativeTime    string `json:"relative_time_description,omitempty"`
	Text            string `json:"text"`
	NormalizedText  string `json:"normalized_text,omitempty"`
	ReviewTime      string `json:"review_time,omitempty"`
	ReviewTimestamp int64  `json:"review_timestamp,omitempty"`
	IsActive        bool   `json:"is_active"`
	IsFeatured      bool   `json:"is_featured"`
}

// RawReview is a single review as delivered by the webhook, before any
// cleaning. Field access goes through the dedup normalizer.
type RawReview map[string]any

// WebhookBatch is the inbound payload of a reviews-update delivery. The
// summary metadata is echoed back in the response but never drives dedup
// decisions.
type WebhookBatch struct {
	Action           string      `json:"action"`
	Timestamp        string      `json:"timestamp"`
	BusinessName     string      `json:"business_name"`
	TotalReviews     int         `json:"total_reviews"`
	AverageRating    float64     `json:"average_rating"`
	UserRatingsTotal int         `json:"user_ratings_total"`
	Reviews          []RawReview `json:"reviews"`
}

// IngestReport is the webhook response body. Partial failure is in-band:
// the endpoint answers 2xx even when some records errored.
type IngestReport struct {
	Success               bool    `json:"success"`
	Message               string  `json:"message"`
	TotalReceived         int     `json:"total_received"`
	Saved                 int     `json:"reviews_saved"`
	Skipped               int     `json:"reviews_skipped"`
	Errors                int     `json:"reviews_errors"`
	SubstitutedTimestamps int     `json:"substituted_timestamps"`
	BusinessName          string  `json:"business_name,omitempty"`
	AverageRating         float64 `json:"average_rating,omitempty"`
	UserRatingsTotal      int     `json:"user_ratings_total,omitempty"`
	Timestamp             string  `json:"timestamp,omitempty"`
}

// ReviewView is the consumer-facing shape served by GET /api/reviews.
type ReviewView struct {
	AuthorName      string `json:"author_name"`
	Rating          int    `json:"rating"`
	Text            string `json:"text"`
	RelativeTime    string `json:"relative_time_description"`
	ProfilePhotoURL string `json:"profile_photo_url"`
}

// ReviewStats feeds the dashboard panel.
type ReviewStats struct {
	AverageRating      float64        `json:"average_rating"`
	TotalReviews       int            `json:"total_reviews"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	LatestReviewTime   string         `json:"latest_review_time,omitempty"`
	LastUpdated        string         `json:"last_updated"`
	Source             string         `json:"source"`
}
