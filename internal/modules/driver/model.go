// README: Driver entity consumed by the budget engine.
package driver

import (
	"time"

	"frete/internal/types"
)

type Driver struct {
	ID          types.ID
	Name        string
	Email       string
	MonthlyCost float64
	DailyRate   float64
	OwnerID     types.ID
	CreatedAt   time.Time
}
