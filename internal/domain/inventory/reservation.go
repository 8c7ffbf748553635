package inventory

import (
	"sort"

	"github.com/google/uuid"
)

// ReservationChange is the stock delta needed to bring one product's
// reservation for an order from its current to its desired quantity.
type ReservationChange struct {
	ProductID uuid.UUID
	Delta     int64
	Type      MovementType
}

// PlanReservation compares the reservation an order should hold with the
// net of its recorded movements and returns the movements that close the
// gap. current holds the summed deltas per product (negative while stock is
// held). Because only the gap is written, re-running the plan after it has
// been applied yields nothing.
//
// releaseType is used when a product's reservation drops to zero
// (RELEASE on cancel, RESTORE on hard delete); other corrections are ADJUST
// and first-time reservations RESERVE.
func PlanReservation(desired map[uuid.UUID]int64, current map[uuid.UUID]int64, releaseType MovementType) []ReservationChange {
	products := make(map[uuid.UUID]struct{}, len(desired)+len(current))
	for id := range desired {
		products[id] = struct{}{}
	}
	for id := range current {
		products[id] = struct{}{}
	}

	changes := make([]ReservationChange, 0, len(products))
	for id := range products {
		held := -current[id]
		want := desired[id]
		delta := held - want
		if delta == 0 {
			continue
		}
		typ := MovementTypeAdjust
		switch {
		case held == 0 && want > 0:
			typ = MovementTypeReserve
		case want == 0 && delta > 0:
			typ = releaseType
		}
		changes = append(changes, ReservationChange{ProductID: id, Delta: delta, Type: typ})
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].ProductID.String() < changes[j].ProductID.String()
	})
	return changes
}

// Outstanding returns the stock each product still holds for an order given
// the summed deltas of its movements.
func Outstanding(current map[uuid.UUID]int64) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64)
	for id, sum := range current {
		if sum < 0 {
			out[id] = -sum
		}
	}
	return out
}
