package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	server "localbiz_backend/internal/adapters/http_server"
	"localbiz_backend/internal/app"
	"localbiz_backend/internal/dedup"
	"localbiz_backend/internal/domain"
)

// memStore is an in-memory ReviewStore for end-to-end router tests.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	records []domain.ReviewRecord
}

func (m *memStore) FindActiveByReviewID(_ context.Context, reviewID string) ([]domain.ReviewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ReviewRecord
	for _, r := range m.records {
		if r.IsActive && r.ReviewID == reviewID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) FindActiveByAuthorRating(_ context.Context, author string, rating int, limit int) ([]domain.ReviewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ReviewRecord
	for _, r := range m.records {
		if r.IsActive && dedup.NormalizeAuthor(r.AuthorName) == author && r.Rating == rating {
			out = append(out, r)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) ListActive(_ context.Context, limit int) ([]domain.ReviewRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ReviewRecord, len(m.records))
	copy(out, m.records)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ReviewTimestamp > out[j-1].ReviewTimestamp; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) Insert(_ context.Context, rec domain.ReviewRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ReviewID != "" && r.ReviewID == rec.ReviewID {
			return domain.ErrConflict
		}
	}
	m.nextID++
	rec.ID = m.nextID
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func newTestServer(store *memStore) *httptest.Server {
	reviews := app.NewReviewService(store, nil, time.Minute, 5*time.Minute, 100)
	leads := app.NewLeadService(nil, nil, nil)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Reviews: reviews, Leads: leads})
	return httptest.NewServer(srv.Mux())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestWebhookThenReadRoundTrip(t *testing.T) {
	store := &memStore{}
	ts := newTestServer(store)
	defer ts.Close()

	batch := domain.WebhookBatch{
		Action:       "reviews_update",
		Timestamp:    "2024-01-01T10:01:00Z",
		BusinessName: "Test Biz",
		Reviews: []domain.RawReview{
			{"author_name": "Jane Doe", "rating": float64(5), "text": "Great service!", "review_time": "2024-01-01T10:00:00Z"},
			{"author_name": "jane doe", "rating": float64(5), "text": "Great   service!", "review_time": "2024-01-01T10:00:30Z"},
			{"author_name": "Bob", "rating": float64(4), "text": "Good work.", "review_time": "2024-01-02T09:00:00Z"},
		},
	}

	// first delivery
	resp := postJSON(t, ts.URL+"/api/webhook/reviews-update", batch)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var rep domain.IngestReport
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if rep.Saved != 2 || rep.Skipped != 1 || rep.Errors != 0 {
		t.Fatalf("first delivery: %+v", rep)
	}
	if rep.BusinessName != "Test Biz" {
		t.Fatalf("metadata not echoed: %+v", rep)
	}

	// re-delivery of the same batch is a no-op
	resp = postJSON(t, ts.URL+"/api/webhook/reviews-update", batch)
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if rep.Saved != 0 || rep.Skipped != 3 {
		t.Fatalf("re-delivery: %+v", rep)
	}

	// read side serves the deduped set, newest first
	getResp, err := http.Get(ts.URL + "/api/reviews")
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", getResp.StatusCode)
	}
	if getResp.Header.Get("ETag") == "" {
		t.Fatal("missing ETag")
	}
	var body struct {
		Reviews []domain.ReviewView `json:"reviews"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Reviews) != 2 {
		t.Fatalf("want 2 reviews, got %d: %+v", len(body.Reviews), body.Reviews)
	}
	if body.Reviews[0].AuthorName != "Bob" {
		t.Fatalf("want newest first, got %q", body.Reviews[0].AuthorName)
	}
}

func TestReviewsETagConditionalGet(t *testing.T) {
	store := &memStore{}
	ts := newTestServer(store)
	defer ts.Close()

	first, err := http.Get(ts.URL + "/api/reviews")
	if err != nil {
		t.Fatal(err)
	}
	first.Body.Close()
	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/reviews", nil)
	req.Header.Set("If-None-Match", etag)
	second, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	second.Body.Close()
	if second.StatusCode != http.StatusNotModified {
		t.Fatalf("want 304, got %d", second.StatusCode)
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(&memStore{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/webhook/reviews-update", "application/json", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("want problem+json, got %q", ct)
	}
}

func TestCheckDuplicatesEndpoint(t *testing.T) {
	store := &memStore{records: []domain.ReviewRecord{
		{ID: 1, AuthorName: "Jane", Rating: 5, Text: "Great!", ReviewTimestamp: 100, IsActive: true},
		{ID: 2, AuthorName: "jane", Rating: 5, Text: "great!", ReviewTimestamp: 200, IsActive: true},
	}}
	store.nextID = 2
	ts := newTestServer(store)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/reviews/check-duplicates")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var rep dedup.CleanupReport
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if rep.DuplicateGroups != 1 || rep.ToDelete != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	// endpoint is read-only
	if snapshot, _ := store.ListActive(context.Background(), 0); len(snapshot) != 2 {
		t.Fatal("check-duplicates mutated the store")
	}
}

func TestContactValidation(t *testing.T) {
	ts := newTestServer(&memStore{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/contact", map[string]string{"name": "Jane"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for missing fields, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(&memStore{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
