// Package service holds the orchestration layer: each service validates
// against the pure engines before any write and owns one slice of the
// domain. Dependencies arrive as interfaces so tests can substitute
// in-memory fakes for the pgx repositories.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type ProjectRepo interface {
	Get(ctx context.Context, id int) (*model.Project, error)
	GetByCostCenter(ctx context.Context, code string) (*model.Project, error)
	ListByProgram(ctx context.Context, programID int) ([]model.Project, error)
	InsertWithDefaultPhase(ctx context.Context, p *model.Project, defaultPhase *model.Phase) error
	Update(ctx context.Context, p *model.Project, expectedVersion int) (bool, error)
	Delete(ctx context.Context, id int) error
}

type PhaseRepo interface {
	Get(ctx context.Context, id int) (*model.Phase, error)
	GetByProject(ctx context.Context, projectID int) ([]model.Phase, error)
	Insert(ctx context.Context, p *model.Phase) error
	Update(ctx context.Context, p *model.Phase, expectedVersion int) (bool, error)
	Delete(ctx context.Context, id int) error
	Replace(ctx context.Context, projectID int, deleteIDs []int, create []*model.Phase, update []*model.Phase) error
}

type AssignmentRepo interface {
	Get(ctx context.Context, id int) (*model.ResourceAssignment, error)
	GetTotalAllocationForDate(ctx context.Context, resourceID int, day dates.Date, excludeID int) (decimal.Decimal, error)
	GetByDateRange(ctx context.Context, resourceID int, start, end dates.Date) ([]model.ResourceAssignment, error)
	GetByProjectAndDateRange(ctx context.Context, projectID int, start, end dates.Date) ([]model.ResourceAssignment, error)
	Insert(ctx context.Context, a *model.ResourceAssignment) error
	Update(ctx context.Context, a *model.ResourceAssignment) error
	Delete(ctx context.Context, id int) error
}

type ActualRepo interface {
	Get(ctx context.Context, id int) (*model.Actual, error)
	GetTotalAllocationForDate(ctx context.Context, workerID string, day dates.Date, excludeID int) (decimal.Decimal, error)
	GetByDateRange(ctx context.Context, projectID int, start, end dates.Date) ([]model.Actual, error)
	GetByWorkerAndDateRange(ctx context.Context, workerID string, start, end dates.Date) ([]model.Actual, error)
	Insert(ctx context.Context, a *model.Actual) error
	Update(ctx context.Context, a *model.Actual) error
	Delete(ctx context.Context, id int) error
}

type RateRepo interface {
	GetActiveRate(ctx context.Context, workerTypeID int, asOf dates.Date) (*model.Rate, error)
	ListByWorkerType(ctx context.Context, workerTypeID int) ([]model.Rate, error)
	Insert(ctx context.Context, rate *model.Rate, closePrevious bool) error
}

type ResourceRepo interface {
	Get(ctx context.Context, id int) (*model.Resource, error)
}

type UserRepo interface {
	Insert(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// EventPublisher publishes domain events after successful writes. Publish
// failures are logged by callers, never surfaced to the client.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// AllocationLocker serializes the read-validate-write sequence for one
// entity on one day.
type AllocationLocker interface {
	Acquire(ctx context.Context, entity, entityKey string, day dates.Date) error
	Release(ctx context.Context, entity, entityKey string, day dates.Date)
}
