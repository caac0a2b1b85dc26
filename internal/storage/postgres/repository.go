package postgres

import (
	"fmt"

	"github.com/calagora/server/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	collectionUsers  = "users"
	collectionEvents = "events"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() storage.Collection {
	return &DocumentCollection{pool: r.pool, name: collectionUsers}
}

func (r *Repository) Events() storage.Collection {
	return &DocumentCollection{pool: r.pool, name: collectionEvents}
}

var _ storage.Repository = (*Repository)(nil)
