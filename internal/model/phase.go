package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/skraps68/planner-sub000/pkg/dates"
)

// DefaultPhaseName is the name of the auto-created phase spanning a new
// project's full duration.
const DefaultPhaseName = "Default Phase"

// MaxPhaseNameLength is the longest accepted phase name.
const MaxPhaseNameLength = 100

// Phase is a slice of a project's timeline. Across one project the phases
// are non-overlapping, contiguous, and bounded by the project's start and
// end. Capital + expense must always equal the total budget exactly.
type Phase struct {
	ID            int             `json:"id"`
	ProjectID     int             `json:"project_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	StartDate     dates.Date      `json:"start_date"`
	EndDate       dates.Date      `json:"end_date"`
	CapitalBudget decimal.Decimal `json:"capital_budget"`
	ExpenseBudget decimal.Decimal `json:"expense_budget"`
	TotalBudget   decimal.Decimal `json:"total_budget"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Span returns the inclusive date range the phase covers.
func (p *Phase) Span() dates.Range {
	return dates.Range{From: p.StartDate, To: p.EndDate}
}

// Covers reports whether the phase contains the given day.
func (p *Phase) Covers(d dates.Date) bool { return p.Span().Contains(d) }
