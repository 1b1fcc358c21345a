package app

import (
	"context"
	"errors"
	"testing"

	"localbiz_backend/internal/domain"
)

type stubLeadStore struct {
	err   error
	leads []domain.Lead
}

func (s *stubLeadStore) InsertLead(_ context.Context, l domain.Lead) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.leads = append(s.leads, l)
	return "lead-1", nil
}

type stubBookingStore struct {
	err      error
	bookings []domain.Booking
}

func (s *stubBookingStore) InsertBooking(_ context.Context, b domain.Booking) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.bookings = append(s.bookings, b)
	return "booking-1", nil
}

func TestSubmitContactUsesPrimary(t *testing.T) {
	primary := &stubLeadStore{}
	fallback := &stubLeadStore{}
	svc := NewLeadService(primary, fallback, nil)

	id, err := svc.SubmitContact(context.Background(), domain.Lead{Name: "Jane", Phone: "555", Email: "j@x.com"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "lead-1" {
		t.Fatalf("unexpected id %q", id)
	}
	if len(primary.leads) != 1 || len(fallback.leads) != 0 {
		t.Fatalf("primary=%d fallback=%d", len(primary.leads), len(fallback.leads))
	}

	saved := primary.leads[0]
	if saved.Language != "en" || saved.Source != "website" || saved.Status != "new" {
		t.Fatalf("defaults not applied: %+v", saved)
	}
}

func TestSubmitContactFallsBack(t *testing.T) {
	primary := &stubLeadStore{err: errors.New("primary down")}
	fallback := &stubLeadStore{}
	svc := NewLeadService(primary, fallback, nil)

	if _, err := svc.SubmitContact(context.Background(), domain.Lead{Name: "Jane"}); err != nil {
		t.Fatal(err)
	}
	if len(fallback.leads) != 1 {
		t.Fatal("fallback store not used")
	}
}

func TestSubmitContactNoStores(t *testing.T) {
	svc := NewLeadService(nil, nil, nil)
	if _, err := svc.SubmitContact(context.Background(), domain.Lead{Name: "Jane"}); err == nil {
		t.Fatal("want error when no store is available")
	}
}

func TestSubmitBooking(t *testing.T) {
	bookings := &stubBookingStore{}
	svc := NewLeadService(nil, nil, bookings)

	id, err := svc.SubmitBooking(context.Background(), domain.Booking{CustomerName: "Jane", Email: "j@x.com", Phone: "555"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "booking-1" || len(bookings.bookings) != 1 {
		t.Fatalf("id=%q n=%d", id, len(bookings.bookings))
	}

	svcNone := NewLeadService(nil, nil, nil)
	if _, err := svcNone.SubmitBooking(context.Background(), domain.Booking{}); err == nil {
		t.Fatal("want error when booking store missing")
	}
}
