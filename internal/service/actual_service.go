package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/allocation"
	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/internal/mq"
	"github.com/skraps68/planner-sub000/pkg/dates"
	"github.com/skraps68/planner-sub000/pkg/metrics"
)

// ActualService owns time-phased cost records for external workers. The
// same 100% daily ceiling applies per worker, and the capital/expense
// amounts of every actual must sum to its cost exactly.
type ActualService struct {
	actuals  ActualRepo
	projects ProjectRepo
	locker   AllocationLocker
	producer EventPublisher
	logger   *zap.Logger
}

func NewActualService(actuals ActualRepo, projects ProjectRepo, locker AllocationLocker, producer EventPublisher, logger *zap.Logger) *ActualService {
	return &ActualService{
		actuals:  actuals,
		projects: projects,
		locker:   locker,
		producer: producer,
		logger:   logger,
	}
}

type CreateActualInput struct {
	ProjectID         int
	ExternalWorkerID  string
	WorkerName        string
	ActualDate        dates.Date
	AllocationPercent decimal.Decimal
	ActualCost        decimal.Decimal
	CapitalAmount     decimal.Decimal
	ExpenseAmount     decimal.Decimal
}

func validateActualFields(in CreateActualInput) []apperr.FieldError {
	var errs []apperr.FieldError
	if in.ExternalWorkerID == "" {
		errs = append(errs, apperr.FieldError{Field: "external_worker_id", Message: "external worker id cannot be empty"})
	}
	if in.AllocationPercent.IsNegative() || in.AllocationPercent.Cmp(allocation.Limit) > 0 {
		errs = append(errs, apperr.FieldError{
			Field:   "allocation_percentage",
			Message: fmt.Sprintf("allocation percentage %s must be between 0 and 100", in.AllocationPercent),
		})
	}
	if !allocation.ValidateSplitAmount(in.CapitalAmount, in.ExpenseAmount, in.ActualCost) {
		errs = append(errs, apperr.FieldError{
			Field: "actual_cost",
			Message: fmt.Sprintf("capital amount %s plus expense amount %s does not equal actual cost %s",
				in.CapitalAmount, in.ExpenseAmount, in.ActualCost),
		})
	}
	return errs
}

// Get returns the actual.
func (s *ActualService) Get(ctx context.Context, id int) (*model.Actual, error) {
	a, err := s.actuals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("actual", id)
	}
	return a, nil
}

// Create validates the split and the worker's daily ceiling under the
// allocation lock, then persists.
func (s *ActualService) Create(ctx context.Context, in CreateActualInput) (*model.Actual, error) {
	project, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", in.ProjectID)
	}

	if errs := validateActualFields(in); len(errs) > 0 {
		metrics.IncrementValidationFailure("split")
		return nil, apperr.Validation(errs)
	}

	if err := s.locker.Acquire(ctx, "worker", in.ExternalWorkerID, in.ActualDate); err != nil {
		return nil, err
	}
	defer s.locker.Release(ctx, "worker", in.ExternalWorkerID, in.ActualDate)

	total, err := s.actuals.GetTotalAllocationForDate(ctx, in.ExternalWorkerID, in.ActualDate, 0)
	if err != nil {
		return nil, err
	}
	if !allocation.ValidateLimit(total, in.AllocationPercent) {
		metrics.IncrementAllocationConflict("worker")
		s.logger.Warn("Actual rejected by allocation ceiling",
			zap.String("worker_id", in.ExternalWorkerID),
			zap.String("date", in.ActualDate.String()),
			zap.String("existing_total", total.String()),
		)
		return nil, overAllocationError(total, in.AllocationPercent)
	}

	a := &model.Actual{
		ProjectID:         in.ProjectID,
		ExternalWorkerID:  in.ExternalWorkerID,
		WorkerName:        in.WorkerName,
		ActualDate:        in.ActualDate,
		AllocationPercent: in.AllocationPercent,
		ActualCost:        in.ActualCost,
		CapitalAmount:     in.CapitalAmount,
		ExpenseAmount:     in.ExpenseAmount,
	}
	if err := s.actuals.Insert(ctx, a); err != nil {
		return nil, err
	}

	s.publish(mq.EventActualRecorded, mq.ActualRecordedPayload{
		ActualID:         a.ID,
		ProjectID:        a.ProjectID,
		ExternalWorkerID: a.ExternalWorkerID,
		Date:             a.ActualDate,
	})
	return a, nil
}

// Delete removes an actual.
func (s *ActualService) Delete(ctx context.Context, id int) error {
	current, err := s.actuals.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.NotFound("actual", id)
	}
	return s.actuals.Delete(ctx, id)
}

// CheckConflicts reports every over-allocated day for one worker in
// [start, end], across all projects.
func (s *ActualService) CheckConflicts(ctx context.Context, workerID string, start, end dates.Date) ([]allocation.DateConflict, error) {
	actuals, err := s.actuals.GetByWorkerAndDateRange(ctx, workerID, start, end)
	if err != nil {
		return nil, err
	}

	records := make([]allocation.Record, len(actuals))
	for i, a := range actuals {
		records[i] = allocation.Record{
			ID:        a.ID,
			EntityKey: a.ExternalWorkerID,
			Name:      a.WorkerName,
			Date:      a.ActualDate,
			Percent:   a.AllocationPercent,
		}
	}
	return allocation.CheckConflicts(records), nil
}

// ValidateImport simulates inserting every candidate against the stored
// totals plus the running totals within the batch, without writing
// anything. Import pipelines call this before committing a file.
func (s *ActualService) ValidateImport(ctx context.Context, candidates []CreateActualInput) ([]allocation.BatchConflict, error) {
	// Prefetch the stored total for every distinct (worker, day) pair so
	// the engine's lookup cannot fail mid-simulation.
	type workerDay struct {
		worker string
		day    dates.Date
	}
	totals := make(map[workerDay]decimal.Decimal)
	records := make([]allocation.Record, 0, len(candidates))

	for _, c := range candidates {
		k := workerDay{worker: c.ExternalWorkerID, day: c.ActualDate}
		if _, ok := totals[k]; !ok {
			total, err := s.actuals.GetTotalAllocationForDate(ctx, c.ExternalWorkerID, c.ActualDate, 0)
			if err != nil {
				return nil, err
			}
			totals[k] = total
		}
		records = append(records, allocation.Record{
			EntityKey: c.ExternalWorkerID,
			Name:      c.WorkerName,
			Date:      c.ActualDate,
			Percent:   c.AllocationPercent,
		})
	}

	conflicts := allocation.ValidateBatch(func(worker string, day dates.Date) decimal.Decimal {
		return totals[workerDay{worker: worker, day: day}]
	}, records)

	if len(conflicts) > 0 {
		metrics.IncrementAllocationConflict("worker")
	}
	return conflicts, nil
}

func (s *ActualService) publish(routingKey string, payload any) {
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
