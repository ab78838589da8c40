// README: Car entity consumed by the budget engine.
package car

import (
	"time"

	"frete/internal/types"
)

type Car struct {
	ID    types.ID
	Model string
	Plate string
	// ConsumptionKmPerL is fuel efficiency in km per liter, always > 0.
	ConsumptionKmPerL float64
	FixedCost         float64
	OwnerID           types.ID
	CreatedAt         time.Time
}
