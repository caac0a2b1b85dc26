package handlers

import (
	"context"
	"time"

	"github.com/calagora/server/internal/domain/ids"
	"github.com/calagora/server/internal/storage"
)

// memCollection is an in-memory document store for handler tests, with the
// unique-email behavior the users collection has in Postgres.
type memCollection struct {
	docs        map[string]storage.Document
	uniqueEmail bool
}

func newMemCollection(uniqueEmail bool) *memCollection {
	return &memCollection{docs: make(map[string]storage.Document), uniqueEmail: uniqueEmail}
}

func (m *memCollection) FindByID(_ context.Context, id string) (storage.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	return doc, nil
}

func (m *memCollection) Find(_ context.Context, filter map[string]any, limit, offset int) ([]storage.Document, error) {
	var result []storage.Document
	for _, doc := range m.docs {
		match := true
		for key, want := range filter {
			if doc.Fields[key] != want {
				match = false
				break
			}
		}
		if match {
			result = append(result, doc)
		}
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memCollection) InsertOne(_ context.Context, fields map[string]any) (string, error) {
	if m.uniqueEmail {
		if email, ok := fields["email"].(string); ok {
			for _, doc := range m.docs {
				if doc.Fields["email"] == email {
					return "", storage.ErrDuplicate
				}
			}
		}
	}
	id, err := ids.New()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	m.docs[id] = storage.Document{ID: id, Fields: marshalRoundTrip(fields), CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (m *memCollection) UpdateOne(_ context.Context, id string, set map[string]any) error {
	doc, ok := m.docs[id]
	if !ok {
		return storage.ErrNotFound
	}
	for key, value := range marshalRoundTrip(set) {
		doc.Fields[key] = value
	}
	doc.UpdatedAt = time.Now().UTC()
	m.docs[id] = doc
	return nil
}

// marshalRoundTrip mimics the jsonb storage round-trip: time values come
// back as RFC3339 strings.
func marshalRoundTrip(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if t, ok := value.(time.Time); ok {
			out[key] = t.UTC().Format(time.RFC3339)
			continue
		}
		out[key] = value
	}
	return out
}

func (m *memCollection) DeleteOne(_ context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}
