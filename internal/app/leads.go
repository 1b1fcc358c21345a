package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"localbiz_backend/internal/adapters/observability"
	"localbiz_backend/internal/domain"
)

// LeadService writes contact-form leads to the primary store, falling back
// to the document store when the primary is unconfigured or failing.
// Bookings go straight to the document store.
type LeadService struct {
	primary  domain.LeadStore    // may be nil
	fallback domain.LeadStore    // may be nil
	bookings domain.BookingStore // may be nil
}

func NewLeadService(primary, fallback domain.LeadStore, bookings domain.BookingStore) *LeadService {
	return &LeadService{primary: primary, fallback: fallback, bookings: bookings}
}

func (s *LeadService) SubmitContact(ctx context.Context, l domain.Lead) (string, error) {
	if l.Language == "" {
		l.Language = "en"
	}
	if l.Source == "" {
		l.Source = "website"
	}
	l.Status = "new"

	if s.primary != nil {
		id, err := s.primary.InsertLead(ctx, l)
		if err == nil {
			log.Info().Str("name", l.Name).Str("source", l.Source).Msg("lead saved")
			return id, nil
		}
		log.Error().Err(err).Msg("primary lead insert failed")
	}

	if s.fallback != nil {
		id, err := s.fallback.InsertLead(ctx, l)
		if err != nil {
			return "", fmt.Errorf("fallback lead insert: %w", err)
		}
		observability.ObserveFallbackWrite("mongodb")
		log.Warn().Str("name", l.Name).Msg("lead saved via fallback store")
		return id, nil
	}
	return "", fmt.Errorf("no lead store available")
}

func (s *LeadService) SubmitBooking(ctx context.Context, b domain.Booking) (string, error) {
	if s.bookings == nil {
		return "", fmt.Errorf("booking store not configured")
	}
	id, err := s.bookings.InsertBooking(ctx, b)
	if err != nil {
		return "", fmt.Errorf("insert booking: %w", err)
	}
	log.Info().Str("customer", b.CustomerName).Str("service", b.ServiceType).Msg("booking saved")
	return id, nil
}
