// README: Common value types shared across modules.
package types

// ID identifies an entity (uuid string in storage).
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}
