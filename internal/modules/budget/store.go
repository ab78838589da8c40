// README: Postgres-backed budget store. Writes run in SERIALIZABLE transactions
// that re-check driver availability, and the schema carries an exclusion
// constraint as the last line of defense.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"frete/internal/types"
)

const (
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const budgetColumns = `id, origin, destiny, depart_at, return_at, days_out,
	total_distance_km, trip_price, desired_profit, toll, fixed_cost, extra_cost,
	tax_percent, number_of_drivers, was_profitable, status, owner_id, car_id,
	client_id, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, b *Budget) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	busy, err := overlapExists(ctx, tx, b.DriverIDs, b.DepartAt, b.ReturnAt, "")
	if err != nil {
		return err
	}
	if busy {
		return ErrDriverUnavailable
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)`,
		b.ID, b.Origin, b.Destiny, b.DepartAt, b.ReturnAt, b.DaysOut,
		b.TotalDistanceKm, b.TripPrice, b.DesiredProfit, b.Toll, b.FixedCost,
		b.ExtraCost, b.TaxPercent, b.NumberOfDrivers, b.WasProfitable,
		b.Status, b.OwnerID, b.CarID, b.ClientID, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err)
	}

	if err := insertDrivers(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, b *Budget) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	busy, err := overlapExists(ctx, tx, b.DriverIDs, b.DepartAt, b.ReturnAt, b.ID)
	if err != nil {
		return err
	}
	if busy {
		return ErrDriverUnavailable
	}

	tag, err := tx.Exec(ctx, `
		UPDATE budgets SET
			origin = $1, destiny = $2, depart_at = $3, return_at = $4,
			days_out = $5, total_distance_km = $6, trip_price = $7,
			desired_profit = $8, toll = $9, fixed_cost = $10, extra_cost = $11,
			tax_percent = $12, number_of_drivers = $13, was_profitable = $14,
			car_id = $15, client_id = $16, updated_at = $17
		WHERE id = $18 AND owner_id = $19`,
		b.Origin, b.Destiny, b.DepartAt, b.ReturnAt, b.DaysOut,
		b.TotalDistanceKm, b.TripPrice, b.DesiredProfit, b.Toll, b.FixedCost,
		b.ExtraCost, b.TaxPercent, b.NumberOfDrivers, b.WasProfitable,
		b.CarID, b.ClientID, b.UpdatedAt, b.ID, b.OwnerID,
	)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM budget_drivers WHERE budget_id = $1`, b.ID); err != nil {
		return fmt.Errorf("clear budget drivers: %w", err)
	}
	if err := insertDrivers(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id, ownerID types.ID) (*Budget, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	b, err := scanBudget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachDrivers(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PGStore) SetStatus(ctx context.Context, id, ownerID types.ID, status Status) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE budgets SET status = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4`,
		status, time.Now(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id, ownerID types.ID) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM budgets WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, ownerID types.ID) ([]*Budget, error) {
	return s.list(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE owner_id = $1
		ORDER BY created_at DESC`,
		ownerID,
	)
}

func (s *PGStore) ListByStatus(ctx context.Context, ownerID types.ID, status Status) ([]*Budget, error) {
	return s.list(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE owner_id = $1 AND status = $2
		ORDER BY depart_at ASC`,
		ownerID, status,
	)
}

// FindOverlapping returns some budget that books any of the given drivers in a
// window touching [start, end], or nil when all drivers are free. Windows are
// inclusive on both ends.
func (s *PGStore) FindOverlapping(ctx context.Context, driverIDs []types.ID, start, end time.Time, excludeID types.ID) (*Budget, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+prefixedBudgetColumns("b")+`
		FROM budgets b
		JOIN budget_drivers bd ON bd.budget_id = b.id
		WHERE bd.driver_id = ANY($1)
		  AND b.depart_at <= $2 AND b.return_at >= $3
		  AND ($4 = '' OR b.id <> $4)
		LIMIT 1`,
		idStrings(driverIDs), end, start, excludeID,
	)
	b, err := scanBudget(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachDrivers(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PGStore) list(ctx context.Context, query string, args ...any) ([]*Budget, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []*Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range out {
		if err := s.attachDrivers(ctx, b); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *PGStore) attachDrivers(ctx context.Context, b *Budget) error {
	rows, err := s.db.Query(ctx, `
		SELECT driver_id FROM budget_drivers WHERE budget_id = $1 ORDER BY driver_id`,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("load budget drivers: %w", err)
	}
	defer rows.Close()

	b.DriverIDs = b.DriverIDs[:0]
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		b.DriverIDs = append(b.DriverIDs, types.ID(id))
	}
	return rows.Err()
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func overlapExists(ctx context.Context, q queryer, driverIDs []types.ID, start, end time.Time, excludeID types.ID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM budget_drivers bd
			WHERE bd.driver_id = ANY($1)
			  AND bd.depart_at <= $2 AND bd.return_at >= $3
			  AND ($4 = '' OR bd.budget_id <> $4)
		)`,
		idStrings(driverIDs), end, start, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("overlap check: %w", err)
	}
	return exists, nil
}

// budget_drivers duplicates the trip window per driver so the exclusion
// constraint can range over it without a join.
func insertDrivers(ctx context.Context, tx pgx.Tx, b *Budget) error {
	for _, driverID := range b.DriverIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO budget_drivers (budget_id, driver_id, depart_at, return_at)
			VALUES ($1, $2, $3, $4)`,
			b.ID, driverID, b.DepartAt, b.ReturnAt,
		)
		if err != nil {
			return mapWriteErr(err)
		}
	}
	return nil
}

func scanBudget(row pgx.Row) (*Budget, error) {
	var b Budget
	err := row.Scan(
		&b.ID, &b.Origin, &b.Destiny, &b.DepartAt, &b.ReturnAt, &b.DaysOut,
		&b.TotalDistanceKm, &b.TripPrice, &b.DesiredProfit, &b.Toll,
		&b.FixedCost, &b.ExtraCost, &b.TaxPercent, &b.NumberOfDrivers,
		&b.WasProfitable, &b.Status, &b.OwnerID, &b.CarID, &b.ClientID,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// mapWriteErr turns the two concurrency outcomes into ErrDriverUnavailable:
// the exclusion constraint firing, and the serializable transaction losing
// the race to a concurrent booking.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation, pgSerializationFailure:
			return fmt.Errorf("%w: %s", ErrDriverUnavailable, pgErr.Code)
		}
	}
	return fmt.Errorf("write budget: %w", err)
}

func idStrings(ids []types.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func prefixedBudgetColumns(alias string) string {
	return alias + `.id, ` + alias + `.origin, ` + alias + `.destiny, ` +
		alias + `.depart_at, ` + alias + `.return_at, ` + alias + `.days_out, ` +
		alias + `.total_distance_km, ` + alias + `.trip_price, ` +
		alias + `.desired_profit, ` + alias + `.toll, ` + alias + `.fixed_cost, ` +
		alias + `.extra_cost, ` + alias + `.tax_percent, ` +
		alias + `.number_of_drivers, ` + alias + `.was_profitable, ` +
		alias + `.status, ` + alias + `.owner_id, ` + alias + `.car_id, ` +
		alias + `.client_id, ` + alias + `.created_at, ` + alias + `.updated_at`
}
