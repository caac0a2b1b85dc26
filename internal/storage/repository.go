// Package storage defines the document-store contract the domain services
// depend on. Implementations live in subpackages (postgres).
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

// Document is a stored record: an opaque id plus its field map.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Collection exposes the five primitives the services are written against.
// No transactional coupling between calls is guaranteed.
type Collection interface {
	FindByID(ctx context.Context, id string) (Document, error)
	Find(ctx context.Context, filter map[string]any, limit, offset int) ([]Document, error)
	InsertOne(ctx context.Context, fields map[string]any) (string, error)
	UpdateOne(ctx context.Context, id string, set map[string]any) error
	DeleteOne(ctx context.Context, id string) error
}

// Repository groups data access by collection.
type Repository interface {
	Users() Collection
	Events() Collection
}
