// Package events owns the event resource: payload schemas, document shape,
// and CRUD operations over the document store.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calagora/server/internal/payload"
	"github.com/calagora/server/internal/storage"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound    = errors.New("event not found")
	ErrEmptyUpdate = errors.New("update contains no recognized fields")
)

// Visibilities accepted for an event.
var visibilityOptions = []string{"public", "private", "unlisted"}

var (
	capacityMin = float64(1)
	capacityMax = float64(10000)
)

var createSchema = []payload.Field{
	{Name: "title", Type: payload.KindString, Required: true},
	{Name: "description", Type: payload.KindString},
	{Name: "date", Type: payload.KindDate, Required: true},
	{Name: "capacity", Type: payload.KindNumber, Min: &capacityMin, Max: &capacityMax},
	{Name: "visibility", Type: payload.KindOptions, Options: visibilityOptions},
	{Name: "owner_id", Type: payload.KindOwnerID, Required: true},
}

var updateSchema = []payload.Field{
	{Name: "title", Type: payload.KindString},
	{Name: "description", Type: payload.KindString},
	{Name: "date", Type: payload.KindDate},
	{Name: "capacity", Type: payload.KindNumber, Min: &capacityMin, Max: &capacityMax},
	{Name: "visibility", Type: payload.KindOptions, Options: visibilityOptions},
	{Name: "owner_id", Type: payload.KindOwnerID},
}

// Event is the API-facing shape of a stored event document.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Capacity    *float64  `json:"capacity,omitempty"`
	Visibility  string    `json:"visibility,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filters narrows List results.
type Filters struct {
	OwnerID    string
	Visibility string
}

type Service struct {
	col    storage.Collection
	logger zerolog.Logger
}

func NewService(col storage.Collection, logger zerolog.Logger) *Service {
	return &Service{
		col:    col,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, input any) (Event, error) {
	sanitized, err := payload.Validate(createSchema, input)
	if err != nil {
		return Event{}, err
	}

	id, err := s.col.InsertOne(ctx, sanitized)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}

	s.logger.Info().Str("event_id", id).Msg("event created")
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	doc, err := s.col.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("get event: %w", err)
	}
	return fromDocument(doc), nil
}

func (s *Service) List(ctx context.Context, filters Filters, limit, offset int) ([]Event, error) {
	filter := map[string]any{}
	if filters.OwnerID != "" {
		filter["owner_id"] = filters.OwnerID
	}
	if filters.Visibility != "" {
		filter["visibility"] = filters.Visibility
	}

	docs, err := s.col.Find(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	result := make([]Event, 0, len(docs))
	for _, doc := range docs {
		result = append(result, fromDocument(doc))
	}
	return result, nil
}

// Update applies a partial update; an empty sanitized patch is rejected
// with ErrEmptyUpdate.
func (s *Service) Update(ctx context.Context, id string, input any) (Event, error) {
	sanitized, err := payload.Validate(updateSchema, input)
	if err != nil {
		return Event{}, err
	}
	if len(sanitized) == 0 {
		return Event{}, ErrEmptyUpdate
	}

	if err := s.col.UpdateOne(ctx, id, sanitized); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("update event: %w", err)
	}

	s.logger.Info().Str("event_id", id).Msg("event updated")
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.col.DeleteOne(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.logger.Info().Str("event_id", id).Msg("event deleted")
	return nil
}

func fromDocument(doc storage.Document) Event {
	event := Event{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	event.Title, _ = doc.Fields["title"].(string)
	event.Description, _ = doc.Fields["description"].(string)
	event.Visibility, _ = doc.Fields["visibility"].(string)
	event.OwnerID, _ = doc.Fields["owner_id"].(string)

	if raw, ok := doc.Fields["date"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			event.Date = parsed
		}
	}
	if raw, ok := doc.Fields["capacity"].(float64); ok {
		event.Capacity = &raw
	}
	return event
}
