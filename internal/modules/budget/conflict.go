// README: Driver double-booking detection over inclusive trip windows.
package budget

import (
	"context"
	"time"

	"frete/internal/types"
)

// OverlapFinder returns any other budget referencing one of the drivers whose
// window intersects [start, end], bounds inclusive. excludeID removes a budget
// from its own conflict set on update; pass "" when creating.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, driverIDs []types.ID, start, end time.Time, excludeID types.ID) (*Budget, error)
}

// Overlaps reports whether the windows [aStart, aEnd] and [bStart, bEnd]
// intersect. Bounds are inclusive: windows that merely touch conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// Detector answers whether a proposed driver assignment would double-book.
type Detector struct {
	finder OverlapFinder
}

func NewDetector(finder OverlapFinder) *Detector {
	return &Detector{finder: finder}
}

func (d *Detector) HasConflict(ctx context.Context, driverIDs []types.ID, start, end time.Time, excludeID types.ID) (bool, error) {
	existing, err := d.finder.FindOverlapping(ctx, driverIDs, start, end, excludeID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}
