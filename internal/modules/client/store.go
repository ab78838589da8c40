// README: Client store backed by PostgreSQL; lookups are scoped to the owning user.
package client

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"frete/internal/types"
)

var ErrNotFound = errors.New("client not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) FindByID(ctx context.Context, id, ownerID types.ID) (*Client, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, telephone, owner_id, created_at
		FROM clients
		WHERE id = $1 AND owner_id = $2`,
		string(id), string(ownerID),
	)

	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Telephone, &c.OwnerID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
