// README: Client entity consumed by the budget engine.
package client

import (
	"time"

	"frete/internal/types"
)

type Client struct {
	ID        types.ID
	Name      string
	Email     string
	Telephone string
	OwnerID   types.ID
	CreatedAt time.Time
}
