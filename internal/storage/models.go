package storage

import (
	"time"

	"option-pricer/internal/pricing"
)

// HistoryRecord is one persisted calculation: the request as submitted, the
// result as computed, and store-assigned identity. Records are immutable
// after insert.
type HistoryRecord struct {
	ID        int64
	CreatedAt time.Time
	Request   pricing.Request
	Result    pricing.Result
}

// CellRecord is one persisted sensitivity grid evaluation, linked to its
// parent calculation. Shocks are relative to the parent request's base
// values on the two swept axes.
type CellRecord struct {
	ID            int64
	CalculationID int64
	Axis1Shock    float64
	Axis2Shock    float64
	Price         float64
	Call          bool
}

// ListOptions narrow and order a history listing. The zero value lists the
// most recent records first with the store's default limit.
type ListOptions struct {
	Limit     int
	Since     *time.Time
	Until     *time.Time
	SpotMin   *float64
	SpotMax   *float64
	Ascending bool
}
