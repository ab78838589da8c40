// README: Concurrency tests for driver booking (run with -race). These need a
// real Postgres because the guarantees under test live in the transaction
// isolation level and the exclusion constraint.
package budget

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"frete/internal/types"
)

func TestStoreCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	start, end := testWindow(0)
	b := testBudget("b-roundtrip", []types.ID{"d-test-1"}, start, end)
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, b.ID, b.OwnerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Origin != b.Origin || got.Status != StatusPending {
		t.Errorf("stored budget mismatch: %+v", got)
	}
	if len(got.DriverIDs) != 1 || got.DriverIDs[0] != "d-test-1" {
		t.Errorf("driver ids = %v", got.DriverIDs)
	}

	if _, err := store.Get(ctx, b.ID, "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner get = %v, want ErrNotFound", err)
	}
}

func TestStoreFindOverlapping(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	start, end := testWindow(0)
	b := testBudget("b-window", []types.ID{"d-test-1"}, start, end)
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("disjoint window", func(t *testing.T) {
		found, err := store.FindOverlapping(ctx, []types.ID{"d-test-1"}, end.Add(time.Hour), end.Add(25*time.Hour), "")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found != nil {
			t.Errorf("found %v for a disjoint window", found.ID)
		}
	})

	t.Run("touching window", func(t *testing.T) {
		found, err := store.FindOverlapping(ctx, []types.ID{"d-test-1"}, end, end.Add(24*time.Hour), "")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found == nil || found.ID != b.ID {
			t.Errorf("touching window missed booking %s", b.ID)
		}
	})

	t.Run("other driver", func(t *testing.T) {
		found, err := store.FindOverlapping(ctx, []types.ID{"d-test-2"}, start, end, "")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found != nil {
			t.Errorf("found %v for a free driver", found.ID)
		}
	})

	t.Run("excluding itself", func(t *testing.T) {
		found, err := store.FindOverlapping(ctx, []types.ID{"d-test-1"}, start, end, b.ID)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found != nil {
			t.Errorf("budget conflicts with itself")
		}
	})
}

func TestConcurrentCreateSameDriver(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	const attempts = 8
	start, end := testWindow(0)

	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		id := types.ID(fmt.Sprintf("b-race-%d", i))
		wg.Add(1)
		go func(id types.ID) {
			defer wg.Done()
			errs <- store.Create(ctx, testBudget(id, []types.ID{"d-test-1"}, start, end))
		}(id)
	}

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrDriverUnavailable) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}

	booked, err := store.FindOverlapping(ctx, []types.ID{"d-test-1"}, start, end, "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if booked == nil {
		t.Fatal("no booking persisted")
	}
}

func testWindow(offsetDays int) (time.Time, time.Time) {
	start := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC).AddDate(0, 0, offsetDays)
	return start, start.Add(36 * time.Hour)
}

func testBudget(id types.ID, driverIDs []types.ID, start, end time.Time) *Budget {
	now := time.Now().UTC()
	return &Budget{
		ID:              id,
		Origin:          "Chapecó, SC",
		Destiny:         "Itajaí, SC",
		DepartAt:        start,
		ReturnAt:        end,
		DaysOut:         DaysOut(start, end),
		TotalDistanceKm: 1000,
		TripPrice:       1760,
		DesiredProfit:   300,
		Toll:            50,
		FixedCost:       150,
		ExtraCost:       100,
		TaxPercent:      10,
		NumberOfDrivers: len(driverIDs),
		WasProfitable:   false,
		Status:          StatusPending,
		OwnerID:         "owner-test",
		CarID:           "c-test-1",
		ClientID:        "cl-test-1",
		DriverIDs:       driverIDs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func setupTestStore(t *testing.T) *PGStore {
	t.Helper()

	dsn := os.Getenv("FRETE_TEST_DSN")
	if dsn == "" {
		t.Skip("FRETE_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE budget_drivers, budgets, drivers, cars, clients"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	seed := []string{
		`INSERT INTO drivers (id, name, email, monthly_cost, daily_rate, owner_id)
		 VALUES ('d-test-1', 'Pedro', 'pedro@frota.test', 3000, 100, 'owner-test'),
		        ('d-test-2', 'Ana', 'ana@frota.test', 4500, 120, 'owner-test')`,
		`INSERT INTO cars (id, model, plate, consumption_km_per_l, fixed_cost, owner_id)
		 VALUES ('c-test-1', 'Scania R450', 'ABC1D23', 10, 150, 'owner-test')`,
		`INSERT INTO clients (id, name, email, owner_id)
		 VALUES ('cl-test-1', 'Transportes Sul', 'contato@transul.test', 'owner-test')`,
	}
	for _, stmt := range seed {
		if _, err := db.Exec(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	return NewPGStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_init.sql"))
	if err != nil {
		return err
	}

	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
