package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/skraps68/planner-sub000/pkg/dates"
)

type Resource struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	WorkerTypeID int       `json:"worker_type_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResourceAssignment allocates a percentage of one resource to one project
// for a single day. The sum of AllocationPercent across all assignments of
// one resource on one day may never exceed 100. Capital and expense percent
// describe how the allocation splits for accounting; together they may not
// exceed 100.
type ResourceAssignment struct {
	ID                int             `json:"id"`
	ResourceID        int             `json:"resource_id"`
	ProjectID         int             `json:"project_id"`
	AssignmentDate    dates.Date      `json:"assignment_date"`
	AllocationPercent decimal.Decimal `json:"allocation_percentage"`
	CapitalPercent    decimal.Decimal `json:"capital_percentage"`
	ExpensePercent    decimal.Decimal `json:"expense_percentage"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
