package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/allocation"
	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/internal/mq"
	"github.com/skraps68/planner-sub000/pkg/dates"
	"github.com/skraps68/planner-sub000/pkg/metrics"
)

// AssignmentService owns resource assignments. Every write holds the
// per-(resource, day) lock across the read-validate-write sequence so two
// concurrent requests cannot both pass the 100% ceiling.
type AssignmentService struct {
	assignments AssignmentRepo
	resources   ResourceRepo
	projects    ProjectRepo
	locker      AllocationLocker
	producer    EventPublisher
	logger      *zap.Logger
}

func NewAssignmentService(assignments AssignmentRepo, resources ResourceRepo, projects ProjectRepo, locker AllocationLocker, producer EventPublisher, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		resources:   resources,
		projects:    projects,
		locker:      locker,
		producer:    producer,
		logger:      logger,
	}
}

type CreateAssignmentInput struct {
	ResourceID        int
	ProjectID         int
	AssignmentDate    dates.Date
	AllocationPercent decimal.Decimal
	CapitalPercent    decimal.Decimal
	ExpensePercent    decimal.Decimal
}

type UpdateAssignmentInput struct {
	AssignmentDate    *dates.Date
	AllocationPercent *decimal.Decimal
	CapitalPercent    *decimal.Decimal
	ExpensePercent    *decimal.Decimal
}

func validateAssignmentFields(alloc, capital, expense decimal.Decimal) []apperr.FieldError {
	var errs []apperr.FieldError
	if alloc.IsNegative() || alloc.Cmp(allocation.Limit) > 0 {
		errs = append(errs, apperr.FieldError{
			Field:   "allocation_percentage",
			Message: fmt.Sprintf("allocation percentage %s must be between 0 and 100", alloc),
		})
	}
	if capital.IsNegative() || expense.IsNegative() {
		errs = append(errs, apperr.FieldError{
			Field:   "capital_percentage",
			Message: "capital and expense percentages cannot be negative",
		})
	}
	if !allocation.SplitWithinLimit(capital, expense) {
		errs = append(errs, apperr.FieldError{
			Field: "capital_percentage",
			Message: fmt.Sprintf("capital percentage %s plus expense percentage %s exceeds 100",
				capital, expense),
		})
	}
	return errs
}

// Get returns the assignment.
func (s *AssignmentService) Get(ctx context.Context, id int) (*model.ResourceAssignment, error) {
	a, err := s.assignments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("assignment", id)
	}
	return a, nil
}

// Create validates the ceiling for (resource, day) under the allocation
// lock and persists the assignment only when the day stays at or under 100%.
func (s *AssignmentService) Create(ctx context.Context, in CreateAssignmentInput) (*model.ResourceAssignment, error) {
	resource, err := s.resources.Get(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, apperr.NotFound("resource", in.ResourceID)
	}
	project, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", in.ProjectID)
	}

	if errs := validateAssignmentFields(in.AllocationPercent, in.CapitalPercent, in.ExpensePercent); len(errs) > 0 {
		metrics.IncrementValidationFailure("split")
		return nil, apperr.Validation(errs)
	}

	entityKey := strconv.Itoa(in.ResourceID)
	if err := s.locker.Acquire(ctx, "resource", entityKey, in.AssignmentDate); err != nil {
		return nil, err
	}
	defer s.locker.Release(ctx, "resource", entityKey, in.AssignmentDate)

	total, err := s.assignments.GetTotalAllocationForDate(ctx, in.ResourceID, in.AssignmentDate, 0)
	if err != nil {
		return nil, err
	}
	if !allocation.ValidateLimit(total, in.AllocationPercent) {
		metrics.IncrementAllocationConflict("resource")
		s.logger.Warn("Assignment rejected by allocation ceiling",
			zap.Int("resource_id", in.ResourceID),
			zap.String("date", in.AssignmentDate.String()),
			zap.String("existing_total", total.String()),
			zap.String("new_allocation", in.AllocationPercent.String()),
		)
		return nil, overAllocationError(total, in.AllocationPercent)
	}

	a := &model.ResourceAssignment{
		ResourceID:        in.ResourceID,
		ProjectID:         in.ProjectID,
		AssignmentDate:    in.AssignmentDate,
		AllocationPercent: in.AllocationPercent,
		CapitalPercent:    in.CapitalPercent,
		ExpensePercent:    in.ExpensePercent,
	}
	if err := s.assignments.Insert(ctx, a); err != nil {
		return nil, err
	}

	s.publish(mq.EventAssignmentCreated, mq.AssignmentCreatedPayload{
		AssignmentID: a.ID,
		ResourceID:   a.ResourceID,
		ProjectID:    a.ProjectID,
		Date:         a.AssignmentDate,
	})
	return a, nil
}

// Update merges the provided fields and re-checks the ceiling against the
// day's total excluding this assignment's own prior contribution.
func (s *AssignmentService) Update(ctx context.Context, id int, in UpdateAssignmentInput) (*model.ResourceAssignment, error) {
	current, err := s.assignments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("assignment", id)
	}

	merged := *current
	if in.AssignmentDate != nil {
		merged.AssignmentDate = *in.AssignmentDate
	}
	if in.AllocationPercent != nil {
		merged.AllocationPercent = *in.AllocationPercent
	}
	if in.CapitalPercent != nil {
		merged.CapitalPercent = *in.CapitalPercent
	}
	if in.ExpensePercent != nil {
		merged.ExpensePercent = *in.ExpensePercent
	}

	if errs := validateAssignmentFields(merged.AllocationPercent, merged.CapitalPercent, merged.ExpensePercent); len(errs) > 0 {
		metrics.IncrementValidationFailure("split")
		return nil, apperr.Validation(errs)
	}

	entityKey := strconv.Itoa(merged.ResourceID)
	if err := s.locker.Acquire(ctx, "resource", entityKey, merged.AssignmentDate); err != nil {
		return nil, err
	}
	defer s.locker.Release(ctx, "resource", entityKey, merged.AssignmentDate)

	// Total for the target day excluding this record's own contribution.
	total, err := s.assignments.GetTotalAllocationForDate(ctx, merged.ResourceID, merged.AssignmentDate, id)
	if err != nil {
		return nil, err
	}
	if !allocation.ValidateLimit(total, merged.AllocationPercent) {
		metrics.IncrementAllocationConflict("resource")
		return nil, overAllocationError(total, merged.AllocationPercent)
	}

	if err := s.assignments.Update(ctx, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id int) error {
	current, err := s.assignments.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.NotFound("assignment", id)
	}
	return s.assignments.Delete(ctx, id)
}

// CheckConflicts reports every over-allocated day for one resource in
// [start, end].
func (s *AssignmentService) CheckConflicts(ctx context.Context, resourceID int, start, end dates.Date) ([]allocation.DateConflict, error) {
	resource, err := s.resources.Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, apperr.NotFound("resource", resourceID)
	}

	assignments, err := s.assignments.GetByDateRange(ctx, resourceID, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]allocation.Record, len(assignments))
	for i, a := range assignments {
		records[i] = allocation.Record{
			ID:        a.ID,
			EntityKey: strconv.Itoa(a.ResourceID),
			Name:      resource.Name,
			Date:      a.AssignmentDate,
			Percent:   a.AllocationPercent,
		}
	}
	return allocation.CheckConflicts(records), nil
}

func overAllocationError(existing, requested decimal.Decimal) *apperr.ValidationError {
	return apperr.Validation([]apperr.FieldError{{
		Field: "allocation_percentage",
		Message: fmt.Sprintf("allocation of %s%% would bring the day's total to %s%%, exceeding 100%%",
			requested, existing.Add(requested)),
		Code: apperr.CodeAllocationExceeded,
	}})
}

func (s *AssignmentService) publish(routingKey string, payload any) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
