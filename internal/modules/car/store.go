// README: Car store backed by PostgreSQL; lookups are scoped to the owning user.
package car

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"frete/internal/types"
)

var ErrNotFound = errors.New("car not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) FindByID(ctx context.Context, id, ownerID types.ID) (*Car, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, model, plate, consumption_km_per_l, fixed_cost, owner_id, created_at
		FROM cars
		WHERE id = $1 AND owner_id = $2`,
		string(id), string(ownerID),
	)

	var c Car
	err := row.Scan(&c.ID, &c.Model, &c.Plate, &c.ConsumptionKmPerL, &c.FixedCost, &c.OwnerID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
