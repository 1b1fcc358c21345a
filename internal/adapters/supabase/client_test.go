package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"localbiz_backend/internal/adapters/supabase"
	"localbiz_backend/internal/domain"
)

func TestClient_ListActive_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode([]domain.ReviewRecord{
				{ID: 1, AuthorName: "Ana", Rating: 5, Text: "ok", IsActive: true},
			})
		}
	}))
	defer ts.Close()

	cl, err := supabase.New(ts.URL, "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.ListActive(ctx, 50)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].AuthorName != "Ana" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Insert_ConflictMapsToErrConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if p := r.Header.Get("Prefer"); p != "return=minimal" {
			t.Errorf("expected Prefer return=minimal, got %q", p)
		}
		w.WriteHeader(http.StatusConflict)
	}))
	defer ts.Close()

	cl, err := supabase.New(ts.URL, "test-key", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err = cl.Insert(context.Background(), domain.ReviewRecord{ReviewID: "gp_x", AuthorName: "Ana"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestClient_FindActiveByAuthorRating_QueryShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("author_name") != "ilike.jane doe" {
			t.Errorf("author filter: %q", q.Get("author_name"))
		}
		if q.Get("rating") != "eq.5" {
			t.Errorf("rating filter: %q", q.Get("rating"))
		}
		if q.Get("is_active") != "eq.true" {
			t.Errorf("is_active filter: %q", q.Get("is_active"))
		}
		if r.Header.Get("apikey") != "test-key" {
			t.Errorf("apikey header missing")
		}
		_ = json.NewEncoder(w).Encode([]domain.ReviewRecord{})
	}))
	defer ts.Close()

	cl, _ := supabase.New(ts.URL, "test-key", 100)
	if _, err := cl.FindActiveByAuthorRating(context.Background(), "jane doe", 5, 10); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := supabase.New(ts.URL, "bad-key", 100)
	_, err := cl.ListActive(context.Background(), 10)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
