package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"localbiz_backend/internal/domain"
)

// Store is the document-store fallback for leads and bookings. It is used
// when the primary REST store is unconfigured or failing.
type Store struct{ db *mongo.Database }

// Connect dials with a short server-selection timeout so a down MongoDB
// does not block startup.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).
		SetServerSelectionTimeout(2 * time.Second).
		SetConnectTimeout(2 * time.Second)
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(cctx, nil); err != nil {
		return nil, err
	}
	return &Store{db: client.Database(dbName)}, nil
}

func (s *Store) InsertLead(ctx context.Context, l domain.Lead) (string, error) {
	id := uuid.NewString()
	doc := bson.M{
		"id":          id,
		"name":        l.Name,
		"phone":       l.Phone,
		"email":       l.Email,
		"message":     l.Message,
		"sms_consent": l.SMSConsent,
		"language":    l.Language,
		"source":      l.Source,
		"status":      "new",
		"created_at":  time.Now().UTC(),
	}
	if _, err := s.db.Collection("contacts").InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) InsertBooking(ctx context.Context, b domain.Booking) (string, error) {
	id := uuid.NewString()
	doc := bson.M{
		"id":                   id,
		"customer_name":        b.CustomerName,
		"email":                b.Email,
		"phone":                b.Phone,
		"service_type":         b.ServiceType,
		"preferred_date":       b.PreferredDate,
		"preferred_time":       b.PreferredTime,
		"address":              b.Address,
		"special_instructions": b.SpecialInstructions,
		"estimated_price":      b.EstimatedPrice,
		"status":               "pending",
		"confirmation_sent":    false,
		"created_at":           time.Now().UTC(),
	}
	if _, err := s.db.Collection("bookings").InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Ping reports store health for the /api/health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
