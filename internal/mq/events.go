package mq

import (
	"time"

	"github.com/skraps68/planner-sub000/pkg/dates"
)

// Routing keys for domain events on the "events" topic exchange.
const (
	EventProjectCreated    = "project.created"
	EventPhaseCreated      = "phase.created"
	EventPhaseUpdated      = "phase.updated"
	EventPhaseDeleted      = "phase.deleted"
	EventPhasesReplaced    = "phases.replaced"
	EventAssignmentCreated = "assignment.created"
	EventActualRecorded    = "actual.recorded"
)

type ProjectCreatedPayload struct {
	ProjectID      int        `json:"project_id"`
	ProgramID      int        `json:"program_id"`
	Name           string     `json:"name"`
	StartDate      dates.Date `json:"start_date"`
	EndDate        dates.Date `json:"end_date"`
	DefaultPhaseID int        `json:"default_phase_id"`
	CreatedAt      time.Time  `json:"created_at"`
}

type PhaseEventPayload struct {
	PhaseID   int        `json:"phase_id"`
	ProjectID int        `json:"project_id"`
	Name      string     `json:"name,omitempty"`
	StartDate dates.Date `json:"start_date,omitempty"`
	EndDate   dates.Date `json:"end_date,omitempty"`
}

type PhasesReplacedPayload struct {
	ProjectID  int `json:"project_id"`
	PhaseCount int `json:"phase_count"`
}

type AssignmentCreatedPayload struct {
	AssignmentID int        `json:"assignment_id"`
	ResourceID   int        `json:"resource_id"`
	ProjectID    int        `json:"project_id"`
	Date         dates.Date `json:"date"`
}

type ActualRecordedPayload struct {
	ActualID         int        `json:"actual_id"`
	ProjectID        int        `json:"project_id"`
	ExternalWorkerID string     `json:"external_worker_id"`
	Date             dates.Date `json:"date"`
}
