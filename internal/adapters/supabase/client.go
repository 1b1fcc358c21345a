// internal/adapters/supabase/client.go
package supabase

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"localbiz_backend/internal/adapters/observability"
	"localbiz_backend/internal/domain"
)

const (
	reviewsTable = "google_reviews"
	leadsTable   = "leads"

	reviewSelect = "id,review_id,author_name,author_url,language,profile_photo_url,rating," +
		"relative_time_description,text,normalized_text,review_time,review_timestamp,is_active,is_featured"
)

// Client talks to the PostgREST facade of the relational store. It
// implements domain.ReviewStore and domain.LeadStore.
type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" || key == "" {
		return nil, fmt.Errorf("store base URL and service key are required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 30 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- domain.ReviewStore ----

func (c *Client) FindActiveByReviewID(ctx context.Context, reviewID string) ([]domain.ReviewRecord, error) {
	q := url.Values{}
	q.Set("select", reviewSelect)
	q.Set("review_id", "eq."+reviewID)
	q.Set("is_active", "eq.true")
	q.Set("limit", "1")
	var out []domain.ReviewRecord
	return out, c.do(ctx, http.MethodGet, c.tableURL(reviewsTable, q), nil, "", &out)
}

func (c *Client) FindActiveByAuthorRating(ctx context.Context, author string, rating int, limit int) ([]domain.ReviewRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("select", reviewSelect)
	q.Set("author_name", "ilike."+author)
	q.Set("rating", "eq."+strconv.Itoa(rating))
	q.Set("is_active", "eq.true")
	q.Set("limit", strconv.Itoa(limit))
	var out []domain.ReviewRecord
	return out, c.do(ctx, http.MethodGet, c.tableURL(reviewsTable, q), nil, "", &out)
}

func (c *Client) ListActive(ctx context.Context, limit int) ([]domain.ReviewRecord, error) {
	q := url.Values{}
	q.Set("select", reviewSelect)
	q.Set("is_active", "eq.true")
	q.Set("order", "review_time.desc")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.ReviewRecord
	return out, c.do(ctx, http.MethodGet, c.tableURL(reviewsTable, q), nil, "", &out)
}

func (c *Client) Insert(ctx context.Context, rec domain.ReviewRecord) error {
	return c.do(ctx, http.MethodPost, c.tableURL(reviewsTable, nil), rec, "return=minimal", nil)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))
	return c.do(ctx, http.MethodDelete, c.tableURL(reviewsTable, q), nil, "", nil)
}

// ---- domain.LeadStore ----

func (c *Client) InsertLead(ctx context.Context, l domain.Lead) (string, error) {
	var rows []map[string]any
	if err := c.do(ctx, http.MethodPost, c.tableURL(leadsTable, nil), l, "return=representation", &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	switch id := rows[0]["id"].(type) {
	case string:
		return id, nil
	case float64:
		return strconv.FormatInt(int64(id), 10), nil
	}
	return "", nil
}

// ---- internals ----

func (c *Client) tableURL(table string, q url.Values) string {
	u := c.base + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do performs a request with client-side rate limiting and retries on 429
// and transient 5xx, honoring Retry-After when provided. 2xx with an out
// target decodes JSON into it.
func (c *Client) do(ctx context.Context, method, rawURL string, body any, prefer string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	start := time.Now()
	var lastErr error
	for i := 0; i < 4; i++ {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
		if err != nil {
			return err
		}
		req.Header.Set("apikey", c.key)
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if prefer != "" {
			req.Header.Set("Prefer", prefer)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			observability.ObserveExternal("store", method, resp.StatusCode, time.Since(start))
			if out == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil
			}
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			observability.ObserveExternal("store", method, resp.StatusCode, time.Since(start))
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return domain.ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return domain.ErrForbidden

		case http.StatusConflict:
			// uniqueness backstop fired; callers treat as duplicate
			resp.Body.Close()
			return domain.ErrConflict

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("store %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("store bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
