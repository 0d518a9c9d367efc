package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/skraps68/planner-sub000/pkg/dates"
)

type WorkerType struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rate is a temporally scoped daily rate for a worker type. EndDate nil
// means the rate is open-ended; at most one open rate exists per worker
// type at any time.
type Rate struct {
	ID           int             `json:"id"`
	WorkerTypeID int             `json:"worker_type_id"`
	DailyRate    decimal.Decimal `json:"daily_rate"`
	StartDate    dates.Date      `json:"start_date"`
	EndDate      *dates.Date     `json:"end_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ActiveOn reports whether the rate applies on the given day.
func (r *Rate) ActiveOn(d dates.Date) bool {
	if d.Before(r.StartDate) {
		return false
	}
	return r.EndDate == nil || !d.After(*r.EndDate)
}
