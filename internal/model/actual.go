package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/skraps68/planner-sub000/pkg/dates"
)

// Actual is a recorded cost for one external worker on one day. The sum of
// AllocationPercent across all actuals of one worker on one day may never
// exceed 100, and CapitalAmount + ExpenseAmount must equal ActualCost
// exactly (decimal equality, no tolerance).
type Actual struct {
	ID                int             `json:"id"`
	ProjectID         int             `json:"project_id"`
	ExternalWorkerID  string          `json:"external_worker_id"`
	WorkerName        string          `json:"worker_name"`
	ActualDate        dates.Date      `json:"actual_date"`
	AllocationPercent decimal.Decimal `json:"allocation_percentage"`
	ActualCost        decimal.Decimal `json:"actual_cost"`
	CapitalAmount     decimal.Decimal `json:"capital_amount"`
	ExpenseAmount     decimal.Decimal `json:"expense_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
