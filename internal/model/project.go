package model

import (
	"time"

	"github.com/skraps68/planner-sub000/pkg/dates"
)

type Program struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project owns its phases: phases are cascade-deleted with the project and
// must always tile [StartDate, EndDate] exactly. Budgets live on phases.
type Project struct {
	ID             int        `json:"id"`
	ProgramID      int        `json:"program_id"`
	Name           string     `json:"name"`
	StartDate      dates.Date `json:"start_date"`
	EndDate        dates.Date `json:"end_date"`
	CostCenterCode string     `json:"cost_center_code"`
	Version        int        `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Span returns the inclusive date range the project covers.
func (p *Project) Span() dates.Range {
	return dates.Range{From: p.StartDate, To: p.EndDate}
}
