// README: Driver store backed by PostgreSQL; lookups are scoped to the owning user.
package driver

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"frete/internal/types"
)

var ErrNotFound = errors.New("driver not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) FindByID(ctx context.Context, id, ownerID types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, monthly_cost, daily_rate, owner_id, created_at
		FROM drivers
		WHERE id = $1 AND owner_id = $2`,
		string(id), string(ownerID),
	)

	var d Driver
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.MonthlyCost, &d.DailyRate, &d.OwnerID, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
