// README: Budget aggregate: a priced, schedulable freight trip quote.
package budget

import (
	"math"
	"time"

	"frete/internal/types"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved
}

type Budget struct {
	ID      types.ID `json:"id"`
	Origin  string   `json:"origin"`
	Destiny string   `json:"destiny"`

	DepartAt time.Time `json:"depart_at"`
	ReturnAt time.Time `json:"return_at"`
	// DaysOut is derived from the trip window, never below 1.
	DaysOut int `json:"days_out"`

	// TotalDistanceKm is the round trip: twice the one-way route distance.
	TotalDistanceKm float64 `json:"total_distance_km"`
	TripPrice       float64 `json:"trip_price"`
	DesiredProfit   float64 `json:"desired_profit"`

	Toll       float64 `json:"toll"`
	FixedCost  float64 `json:"fixed_cost"`
	ExtraCost  float64 `json:"extra_cost"`
	TaxPercent float64 `json:"tax_percent"`

	NumberOfDrivers int    `json:"number_of_drivers"`
	WasProfitable   bool   `json:"was_profitable"`
	Status          Status `json:"status"`

	OwnerID   types.ID   `json:"owner_id"`
	CarID     types.ID   `json:"car_id"`
	ClientID  types.ID   `json:"client_id"`
	DriverIDs []types.ID `json:"driver_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DaysOut returns the number of calendar days the trip keeps the drivers out:
// the absolute trip window rounded up to whole days, floored at 1.
func DaysOut(departAt, returnAt time.Time) int {
	window := returnAt.Sub(departAt)
	if window < 0 {
		window = -window
	}
	days := int(math.Ceil(window.Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}
