package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calagora/server/internal/domain/ids"
	"github.com/calagora/server/internal/metrics"
	"github.com/calagora/server/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for unique constraint clashes.
const uniqueViolation = "23505"

// DocumentCollection stores one logical collection inside the shared
// documents table. Field maps are serialized to a jsonb body column;
// filters use jsonb containment.
type DocumentCollection struct {
	pool *pgxpool.Pool
	name string
}

var _ storage.Collection = (*DocumentCollection)(nil)

// observe records the operation outcome on the store metrics.
func (c *DocumentCollection) observe(operation string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, storage.ErrDuplicate):
		outcome = "conflict"
	default:
		outcome = "error"
	}
	metrics.DocumentOperationsTotal.WithLabelValues(c.name, operation, outcome).Inc()
}

func (c *DocumentCollection) FindByID(ctx context.Context, id string) (_ storage.Document, err error) {
	defer func() { c.observe("find_by_id", err) }()

	if err := ids.Validate(id); err != nil {
		return storage.Document{}, storage.ErrNotFound
	}

	row := c.pool.QueryRow(ctx, `
SELECT id, body, created_at, updated_at
  FROM documents
 WHERE collection = $1 AND id = $2
`, c.name, normalizeID(id))

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Document{}, storage.ErrNotFound
		}
		return storage.Document{}, fmt.Errorf("find %s by id: %w", c.name, err)
	}
	return doc, nil
}

func (c *DocumentCollection) Find(ctx context.Context, filter map[string]any, limit, offset int) (_ []storage.Document, err error) {
	defer func() { c.observe("find", err) }()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	filterJSON, err := marshalFields(filter)
	if err != nil {
		return nil, fmt.Errorf("encode %s filter: %w", c.name, err)
	}

	rows, err := c.pool.Query(ctx, `
SELECT id, body, created_at, updated_at
  FROM documents
 WHERE collection = $1 AND body @> $2::jsonb
 ORDER BY id ASC
 LIMIT $3 OFFSET $4
`, c.name, filterJSON, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}
	defer rows.Close()

	docs := make([]storage.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", c.name, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", c.name, err)
	}
	return docs, nil
}

func (c *DocumentCollection) InsertOne(ctx context.Context, fields map[string]any) (_ string, err error) {
	defer func() { c.observe("insert", err) }()

	id, err := ids.New()
	if err != nil {
		return "", fmt.Errorf("mint %s id: %w", c.name, err)
	}

	body, err := marshalFields(fields)
	if err != nil {
		return "", fmt.Errorf("encode %s body: %w", c.name, err)
	}

	_, err = c.pool.Exec(ctx, `
INSERT INTO documents (collection, id, body, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, now(), now())
`, c.name, id, body)
	if err != nil {
		if isUniqueViolation(err) {
			return "", storage.ErrDuplicate
		}
		return "", fmt.Errorf("insert %s: %w", c.name, err)
	}
	return id, nil
}

func (c *DocumentCollection) UpdateOne(ctx context.Context, id string, set map[string]any) (err error) {
	defer func() { c.observe("update", err) }()

	if err := ids.Validate(id); err != nil {
		return storage.ErrNotFound
	}

	patch, err := marshalFields(set)
	if err != nil {
		return fmt.Errorf("encode %s patch: %w", c.name, err)
	}

	tag, err := c.pool.Exec(ctx, `
UPDATE documents
   SET body = body || $3::jsonb, updated_at = now()
 WHERE collection = $1 AND id = $2
`, c.name, normalizeID(id), patch)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		return fmt.Errorf("update %s: %w", c.name, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (c *DocumentCollection) DeleteOne(ctx context.Context, id string) (err error) {
	defer func() { c.observe("delete", err) }()

	if err := ids.Validate(id); err != nil {
		return storage.ErrNotFound
	}

	tag, err := c.pool.Exec(ctx, `
DELETE FROM documents
 WHERE collection = $1 AND id = $2
`, c.name, normalizeID(id))
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.name, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (storage.Document, error) {
	var (
		doc  storage.Document
		body []byte
	)
	if err := row.Scan(&doc.ID, &body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return storage.Document{}, err
	}
	if err := json.Unmarshal(body, &doc.Fields); err != nil {
		return storage.Document{}, fmt.Errorf("decode document body: %w", err)
	}
	return doc, nil
}

func marshalFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	encoded := make(map[string]any, len(fields))
	for key, value := range fields {
		if ts, ok := value.(time.Time); ok {
			value = ts.UTC().Format(time.RFC3339)
		}
		encoded[key] = value
	}
	return json.Marshal(encoded)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Ids are stored lowercase so lookups are case-insensitive.
func normalizeID(id string) string {
	return strings.ToLower(id)
}
