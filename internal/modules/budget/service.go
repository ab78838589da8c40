// README: Budget service: orchestrates conflict checks, rate resolution, pricing and persistence.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"frete/internal/fuel"
	"frete/internal/geo"
	"frete/internal/modules/car"
	"frete/internal/modules/client"
	"frete/internal/modules/driver"
	"frete/internal/types"
)

// Store is the budget persistence contract. Create and Update re-check the
// driver windows inside the same transaction as the write, so a conflict that
// slips past the fail-fast detector still surfaces as ErrDriverUnavailable.
type Store interface {
	OverlapFinder
	Create(ctx context.Context, b *Budget) error
	Get(ctx context.Context, id, ownerID types.ID) (*Budget, error)
	Update(ctx context.Context, b *Budget) error
	SetStatus(ctx context.Context, id, ownerID types.ID, status Status) error
	Delete(ctx context.Context, id, ownerID types.ID) error
	List(ctx context.Context, ownerID types.ID) ([]*Budget, error)
	ListByStatus(ctx context.Context, ownerID types.ID, status Status) ([]*Budget, error)
}

type DriverDirectory interface {
	FindByID(ctx context.Context, id, ownerID types.ID) (*driver.Driver, error)
}

type CarDirectory interface {
	FindByID(ctx context.Context, id, ownerID types.ID) (*car.Car, error)
}

type ClientDirectory interface {
	FindByID(ctx context.Context, id, ownerID types.ID) (*client.Client, error)
}

type DistanceResolver interface {
	Resolve(ctx context.Context, origin, destination string) (geo.Route, error)
}

type FuelResolver interface {
	Resolve(ctx context.Context) (fuel.Price, error)
}

// Notifier delivers a message to one recipient. Sends are best-effort: the
// service logs failures and never rolls back a persisted change over them.
type Notifier interface {
	Notify(ctx context.Context, email, subject, body string) error
}

type Service struct {
	store    Store
	detector *Detector
	drivers  DriverDirectory
	cars     CarDirectory
	clients  ClientDirectory
	distance DistanceResolver
	diesel   FuelResolver
	notifier Notifier
	log      *logrus.Logger
}

func NewService(
	store Store,
	drivers DriverDirectory,
	cars CarDirectory,
	clients ClientDirectory,
	distance DistanceResolver,
	diesel FuelResolver,
	notifier Notifier,
	log *logrus.Logger,
) *Service {
	return &Service{
		store:    store,
		detector: NewDetector(store),
		drivers:  drivers,
		cars:     cars,
		clients:  clients,
		distance: distance,
		diesel:   diesel,
		notifier: notifier,
		log:      log,
	}
}

type CreateCommand struct {
	Origin        string
	Destiny       string
	DepartAt      time.Time
	ReturnAt      time.Time
	Toll          float64
	DesiredProfit float64
	TaxPercent    float64
	ExtraCost     float64
	ClientID      types.ID
	CarID         types.ID
	DriverIDs     []types.ID
}

func (c CreateCommand) validate() error {
	switch {
	case c.Origin == "" || c.Destiny == "":
		return fmt.Errorf("%w: origin and destiny are required", ErrValidation)
	case c.DepartAt.IsZero() || c.ReturnAt.IsZero():
		return fmt.Errorf("%w: trip and return dates are required", ErrValidation)
	case c.ReturnAt.Before(c.DepartAt):
		return fmt.Errorf("%w: return date precedes departure", ErrValidation)
	case len(c.DriverIDs) == 0:
		return fmt.Errorf("%w: at least one driver is required", ErrValidation)
	case c.CarID == "" || c.ClientID == "":
		return fmt.Errorf("%w: car and client are required", ErrValidation)
	}
	return nil
}

// UpdateCommand carries optional replacements; nil fields keep the stored
// value. Pricing selects between a full recompute and the price/profit
// override paths.
type UpdateCommand struct {
	Origin        *string
	Destiny       *string
	DepartAt      *time.Time
	ReturnAt      *time.Time
	Toll          *float64
	DesiredProfit *float64
	TaxPercent    *float64
	ExtraCost     *float64
	ClientID      *types.ID
	CarID         *types.ID
	DriverIDs     []types.ID
	Pricing       Pricing
}

// Result pairs the stored budget with the full cost breakdown. The breakdown
// is not persisted column by column but callers want it for display.
type Result struct {
	Budget    *Budget   `json:"budget"`
	Breakdown Breakdown `json:"breakdown"`
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand, ownerID types.ID) (*Result, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	// Fail fast: no provider call and no write once a conflict is known.
	conflict, err := s.detector.HasConflict(ctx, cmd.DriverIDs, cmd.DepartAt, cmd.ReturnAt, "")
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if conflict {
		return nil, ErrDriverUnavailable
	}

	vehicle, err := s.loadCar(ctx, cmd.CarID, ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadClient(ctx, cmd.ClientID, ownerID); err != nil {
		return nil, err
	}
	crew, err := s.loadDrivers(ctx, cmd.DriverIDs, ownerID)
	if err != nil {
		return nil, err
	}

	route, price, err := s.resolveRates(ctx, cmd.Origin, cmd.Destiny)
	if err != nil {
		return nil, err
	}

	totalKm := route.DistanceKm * 2
	days := DaysOut(cmd.DepartAt, cmd.ReturnAt)
	breakdown := Calculate(s.costInput(cmd, vehicle, crew, totalKm, price.Value, days))

	now := time.Now()
	b := &Budget{
		ID:              types.ID(uuid.NewString()),
		Origin:          cmd.Origin,
		Destiny:         cmd.Destiny,
		DepartAt:        cmd.DepartAt,
		ReturnAt:        cmd.ReturnAt,
		DaysOut:         days,
		TotalDistanceKm: totalKm,
		TripPrice:       breakdown.TotalPrice,
		DesiredProfit:   breakdown.DesiredProfit,
		Toll:            cmd.Toll,
		FixedCost:       vehicle.FixedCost,
		ExtraCost:       cmd.ExtraCost,
		TaxPercent:      cmd.TaxPercent,
		NumberOfDrivers: len(crew),
		WasProfitable:   breakdown.WasProfitable,
		Status:          StatusPending,
		OwnerID:         ownerID,
		CarID:           cmd.CarID,
		ClientID:        cmd.ClientID,
		DriverIDs:       cmd.DriverIDs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Create(ctx, b); err != nil {
		if errors.Is(err, ErrDriverUnavailable) {
			return nil, ErrDriverUnavailable
		}
		return nil, fmt.Errorf("persist budget: %w", err)
	}
	return &Result{Budget: b, Breakdown: breakdown}, nil
}

func (s *Service) Update(ctx context.Context, id types.ID, cmd UpdateCommand, ownerID types.ID) (*Result, error) {
	existing, err := s.store.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	eff := effectiveFields(existing, cmd)
	if len(eff.DriverIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one driver is required", ErrValidation)
	}
	if eff.ReturnAt.Before(eff.DepartAt) {
		return nil, fmt.Errorf("%w: return date precedes departure", ErrValidation)
	}

	conflict, err := s.detector.HasConflict(ctx, eff.DriverIDs, eff.DepartAt, eff.ReturnAt, id)
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if conflict {
		return nil, ErrDriverUnavailable
	}

	vehicle, err := s.loadCar(ctx, eff.CarID, ownerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadClient(ctx, eff.ClientID, ownerID); err != nil {
		return nil, err
	}
	crew, err := s.loadDrivers(ctx, eff.DriverIDs, ownerID)
	if err != nil {
		return nil, err
	}

	route, price, err := s.resolveRates(ctx, eff.Origin, eff.Destiny)
	if err != nil {
		return nil, err
	}

	totalKm := route.DistanceKm * 2
	days := DaysOut(eff.DepartAt, eff.ReturnAt)
	breakdown := ResolvePricing(s.costInput(eff, vehicle, crew, totalKm, price.Value, days), cmd.Pricing)

	updated := *existing
	updated.Origin = eff.Origin
	updated.Destiny = eff.Destiny
	updated.DepartAt = eff.DepartAt
	updated.ReturnAt = eff.ReturnAt
	updated.DaysOut = days
	updated.TotalDistanceKm = totalKm
	updated.TripPrice = breakdown.TotalPrice
	updated.DesiredProfit = breakdown.DesiredProfit
	updated.Toll = eff.Toll
	updated.FixedCost = vehicle.FixedCost
	updated.ExtraCost = eff.ExtraCost
	updated.TaxPercent = eff.TaxPercent
	updated.NumberOfDrivers = len(crew)
	updated.WasProfitable = breakdown.WasProfitable
	updated.CarID = eff.CarID
	updated.ClientID = eff.ClientID
	updated.DriverIDs = eff.DriverIDs
	updated.UpdatedAt = time.Now()

	if err := s.store.Update(ctx, &updated); err != nil {
		if errors.Is(err, ErrDriverUnavailable) {
			return nil, ErrDriverUnavailable
		}
		return nil, fmt.Errorf("persist budget: %w", err)
	}

	if tripChanged(existing, &updated) {
		s.notifyCrew(ctx, crew, "Viagem atualizada", func(d *driver.Driver) string {
			return tripDetailsBody(d.Name, &updated, "Os dados da sua viagem foram atualizados.")
		})
	}

	return &Result{Budget: &updated, Breakdown: breakdown}, nil
}

func (s *Service) SetStatus(ctx context.Context, id types.ID, status Status, ownerID types.ID) (*Budget, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	b, err := s.store.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	previous := b.Status
	b.Status = status
	if err := s.store.SetStatus(ctx, id, ownerID, status); err != nil {
		return nil, fmt.Errorf("persist status: %w", err)
	}

	if status == StatusApproved && previous != StatusApproved {
		crew, err := s.loadDrivers(ctx, b.DriverIDs, ownerID)
		if err != nil {
			// The status change is already persisted; notification is best-effort.
			s.log.WithError(err).WithField("budget", b.ID).Warn("load drivers for approval notice failed")
			return b, nil
		}
		s.notifyCrew(ctx, crew, "Nova viagem confirmada", func(d *driver.Driver) string {
			return tripDetailsBody(d.Name, b, "Uma nova viagem foi confirmada para você.")
		})
	}

	return b, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID types.ID) error {
	if _, err := s.store.Get(ctx, id, ownerID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id, ownerID)
}

func (s *Service) Get(ctx context.Context, id, ownerID types.ID) (*Budget, error) {
	return s.store.Get(ctx, id, ownerID)
}

func (s *Service) List(ctx context.Context, ownerID types.ID) ([]*Budget, error) {
	return s.store.List(ctx, ownerID)
}

// ListTrips returns only approved budgets: the quotes that became actual trips.
func (s *Service) ListTrips(ctx context.Context, ownerID types.ID) ([]*Budget, error) {
	return s.store.ListByStatus(ctx, ownerID, StatusApproved)
}

// effective is the merged view of an update request over the stored budget.
type effective struct {
	Origin        string
	Destiny       string
	DepartAt      time.Time
	ReturnAt      time.Time
	Toll          float64
	DesiredProfit float64
	TaxPercent    float64
	ExtraCost     float64
	ClientID      types.ID
	CarID         types.ID
	DriverIDs     []types.ID
}

func effectiveFields(b *Budget, cmd UpdateCommand) effective {
	eff := effective{
		Origin:        b.Origin,
		Destiny:       b.Destiny,
		DepartAt:      b.DepartAt,
		ReturnAt:      b.ReturnAt,
		Toll:          b.Toll,
		DesiredProfit: b.DesiredProfit,
		TaxPercent:    b.TaxPercent,
		ExtraCost:     b.ExtraCost,
		ClientID:      b.ClientID,
		CarID:         b.CarID,
		DriverIDs:     b.DriverIDs,
	}
	if cmd.Origin != nil {
		eff.Origin = *cmd.Origin
	}
	if cmd.Destiny != nil {
		eff.Destiny = *cmd.Destiny
	}
	if cmd.DepartAt != nil {
		eff.DepartAt = *cmd.DepartAt
	}
	if cmd.ReturnAt != nil {
		eff.ReturnAt = *cmd.ReturnAt
	}
	if cmd.Toll != nil {
		eff.Toll = *cmd.Toll
	}
	if cmd.DesiredProfit != nil {
		eff.DesiredProfit = *cmd.DesiredProfit
	}
	if cmd.TaxPercent != nil {
		eff.TaxPercent = *cmd.TaxPercent
	}
	if cmd.ExtraCost != nil {
		eff.ExtraCost = *cmd.ExtraCost
	}
	if cmd.ClientID != nil {
		eff.ClientID = *cmd.ClientID
	}
	if cmd.CarID != nil {
		eff.CarID = *cmd.CarID
	}
	if cmd.DriverIDs != nil {
		eff.DriverIDs = cmd.DriverIDs
	}
	return eff
}

type costFields interface {
	fields() (toll, profit, taxPercent, extraCost float64)
}

func (c CreateCommand) fields() (float64, float64, float64, float64) {
	return c.Toll, c.DesiredProfit, c.TaxPercent, c.ExtraCost
}

func (e effective) fields() (float64, float64, float64, float64) {
	return e.Toll, e.DesiredProfit, e.TaxPercent, e.ExtraCost
}

func (s *Service) costInput(src costFields, vehicle *car.Car, crew []*driver.Driver, totalKm, fuelPrice float64, days int) Input {
	toll, profit, taxPercent, extraCost := src.fields()

	var monthly, daily float64
	for _, d := range crew {
		monthly += d.MonthlyCost
		daily += d.DailyRate
	}

	return Input{
		TotalDistanceKm:   totalKm,
		Consumption:       vehicle.ConsumptionKmPerL,
		FuelPrice:         fuelPrice,
		DriverCostMonthly: monthly,
		DriverCostDaily:   daily,
		DaysOut:           days,
		Toll:              toll,
		FixedCost:         vehicle.FixedCost,
		DesiredProfit:     profit,
		TaxPercent:        taxPercent,
		ExtraCost:         extraCost,
	}
}

// resolveRates runs the distance and fuel-price lookups concurrently; neither
// depends on the other.
func (s *Service) resolveRates(ctx context.Context, origin, destiny string) (geo.Route, fuel.Price, error) {
	var route geo.Route
	var price fuel.Price

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.distance.Resolve(gctx, origin, destiny)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProvider, err)
		}
		route = r
		return nil
	})
	g.Go(func() error {
		p, err := s.diesel.Resolve(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProvider, err)
		}
		price = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return geo.Route{}, fuel.Price{}, err
	}
	return route, price, nil
}

func (s *Service) loadDrivers(ctx context.Context, ids []types.ID, ownerID types.ID) ([]*driver.Driver, error) {
	crew := make([]*driver.Driver, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			d, err := s.drivers.FindByID(gctx, id, ownerID)
			if errors.Is(err, driver.ErrNotFound) {
				return fmt.Errorf("%w: driver %s", ErrNotFound, id)
			}
			if err != nil {
				return err
			}
			crew[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return crew, nil
}

func (s *Service) loadCar(ctx context.Context, id, ownerID types.ID) (*car.Car, error) {
	v, err := s.cars.FindByID(ctx, id, ownerID)
	if errors.Is(err, car.ErrNotFound) {
		return nil, fmt.Errorf("%w: car %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) loadClient(ctx context.Context, id, ownerID types.ID) (*client.Client, error) {
	c, err := s.clients.FindByID(ctx, id, ownerID)
	if errors.Is(err, client.ErrNotFound) {
		return nil, fmt.Errorf("%w: client %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) notifyCrew(ctx context.Context, crew []*driver.Driver, subject string, body func(*driver.Driver) string) {
	for _, d := range crew {
		if err := s.notifier.Notify(ctx, d.Email, subject, body(d)); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"driver": d.Email,
			}).Warn("notification send failed")
		}
	}
}

// tripChanged reports whether a field the drivers care about moved: route or
// either timestamp. Writing back identical values must not spam the crew.
func tripChanged(before, after *Budget) bool {
	return before.Origin != after.Origin ||
		before.Destiny != after.Destiny ||
		!before.DepartAt.Equal(after.DepartAt) ||
		!before.ReturnAt.Equal(after.ReturnAt)
}

func tripDetailsBody(name string, b *Budget, intro string) string {
	return fmt.Sprintf(
		"Olá %s,\n\n%s\n\nOrigem: %s\nDestino: %s\nSaída: %s\nRetorno: %s\nDias fora: %d\n",
		name,
		intro,
		b.Origin,
		b.Destiny,
		b.DepartAt.Format("02/01/2006 15:04"),
		b.ReturnAt.Format("02/01/2006 15:04"),
		b.DaysOut,
	)
}
