// Package users owns the user resource: its payload schemas, the shape of
// a stored user document, and the CRUD operations over the document store.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calagora/server/internal/domain/ids"
	"github.com/calagora/server/internal/payload"
	"github.com/calagora/server/internal/storage"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailTaken  = errors.New("email is already taken")
	ErrEmptyUpdate = errors.New("update contains no recognized fields")
)

// createSchema drives payload validation for POST /users.
var createSchema = []payload.Field{
	{Name: "first_name", Type: payload.KindString, Required: true},
	{Name: "last_name", Type: payload.KindString, Required: true},
	{Name: "email", Type: payload.KindEmail, Required: true},
}

// updateSchema is the create schema with every field optional.
var updateSchema = []payload.Field{
	{Name: "first_name", Type: payload.KindString},
	{Name: "last_name", Type: payload.KindString},
	{Name: "email", Type: payload.KindEmail},
}

// User is the API-facing shape of a stored user document.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	EventIDs  []string  `json:"event_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filters narrows List results.
type Filters struct {
	Email string
}

type Service struct {
	col    storage.Collection
	logger zerolog.Logger
}

func NewService(col storage.Collection, logger zerolog.Logger) *Service {
	return &Service{
		col:    col,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

// Create validates the raw body against the create schema and inserts the
// sanitized document. A duplicate email maps to ErrEmailTaken.
func (s *Service) Create(ctx context.Context, input any) (User, error) {
	sanitized, err := payload.Validate(createSchema, input)
	errs := asErrors(err)

	eventIDs, listErr := eventIDsFromInput(input)
	if listErr != nil {
		errs = append(errs, *listErr)
	}
	if len(errs) > 0 {
		return User{}, errs
	}

	if eventIDs != nil {
		sanitized["event_ids"] = eventIDs
	}

	id, err := s.col.InsertOne(ctx, sanitized)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info().Str("user_id", id).Msg("user created")
	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	doc, err := s.col.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return fromDocument(doc), nil
}

func (s *Service) List(ctx context.Context, filters Filters, limit, offset int) ([]User, error) {
	filter := map[string]any{}
	if filters.Email != "" {
		filter["email"] = filters.Email
	}

	docs, err := s.col.Find(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	result := make([]User, 0, len(docs))
	for _, doc := range docs {
		result = append(result, fromDocument(doc))
	}
	return result, nil
}

// Update applies a partial update. Every schema field is optional, but a
// sanitized patch with no recognized fields is rejected with
// ErrEmptyUpdate — that business rule lives here, not in the validator.
func (s *Service) Update(ctx context.Context, id string, input any) (User, error) {
	sanitized, err := payload.Validate(updateSchema, input)
	errs := asErrors(err)

	eventIDs, listErr := eventIDsFromInput(input)
	if listErr != nil {
		errs = append(errs, *listErr)
	}
	if len(errs) > 0 {
		return User{}, errs
	}

	if eventIDs != nil {
		sanitized["event_ids"] = eventIDs
	}
	if len(sanitized) == 0 {
		return User{}, ErrEmptyUpdate
	}

	if err := s.col.UpdateOne(ctx, id, sanitized); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return User{}, ErrNotFound
		case errors.Is(err, storage.ErrDuplicate):
			return User{}, ErrEmailTaken
		default:
			return User{}, fmt.Errorf("update user: %w", err)
		}
	}

	s.logger.Info().Str("user_id", id).Msg("user updated")
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.col.DeleteOne(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// FindOrCreateByEmail backs the OAuth callback: it returns the user with
// the given email, creating one from the profile if none exists.
func (s *Service) FindOrCreateByEmail(ctx context.Context, email, firstName, lastName string) (User, error) {
	existing, err := s.List(ctx, Filters{Email: email}, 1, 0)
	if err != nil {
		return User{}, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	if firstName == "" {
		firstName = "Unknown"
	}
	if lastName == "" {
		lastName = "User"
	}
	return s.Create(ctx, map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
	})
}

// eventIDsFromInput validates the optional event_ids list: it must be an
// array whose every element is a well-formed document id. The list is not
// part of the field schema because the validator handles scalar fields;
// repeated ownerId values are checked here element by element.
func eventIDsFromInput(input any) ([]string, *payload.Error) {
	object, ok := input.(map[string]any)
	if !ok {
		return nil, nil
	}
	raw, present := object["event_ids"]
	if !present || raw == nil {
		return nil, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, &payload.Error{Field: "event_ids", Message: "event_ids must be a list of document ids."}
	}

	result := make([]string, 0, len(list))
	for _, entry := range list {
		value, ok := entry.(string)
		if ok {
			if err := ids.Validate(value); err == nil {
				result = append(result, value)
				continue
			}
		}
		return nil, &payload.Error{Field: "event_ids", Message: "event_ids must be a list of document ids."}
	}
	return result, nil
}

func asErrors(err error) payload.Errors {
	if err == nil {
		return nil
	}
	var errs payload.Errors
	if errors.As(err, &errs) {
		return errs
	}
	return payload.Errors{{Field: "body", Message: err.Error()}}
}

func fromDocument(doc storage.Document) User {
	user := User{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	user.FirstName, _ = doc.Fields["first_name"].(string)
	user.LastName, _ = doc.Fields["last_name"].(string)
	user.Email, _ = doc.Fields["email"].(string)

	if raw, ok := doc.Fields["event_ids"].([]any); ok {
		eventIDs := make([]string, 0, len(raw))
		for _, entry := range raw {
			if value, ok := entry.(string); ok {
				eventIDs = append(eventIDs, value)
			}
		}
		user.EventIDs = eventIDs
	}
	return user
}
