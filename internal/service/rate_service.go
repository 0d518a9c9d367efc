package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

// RateService owns temporally versioned rates per worker type. At most one
// open-ended rate exists per worker type; creating a rate with
// closePrevious set ends the open one at the new start minus one day.
type RateService struct {
	rates  RateRepo
	logger *zap.Logger
}

func NewRateService(rates RateRepo, logger *zap.Logger) *RateService {
	return &RateService{rates: rates, logger: logger}
}

type CreateRateInput struct {
	WorkerTypeID  int
	DailyRate     decimal.Decimal
	StartDate     dates.Date
	EndDate       *dates.Date
	ClosePrevious bool
}

// Create validates and persists a new rate version.
func (s *RateService) Create(ctx context.Context, in CreateRateInput) (*model.Rate, error) {
	var errs []apperr.FieldError
	if in.DailyRate.IsNegative() {
		errs = append(errs, apperr.FieldError{
			Field:   "daily_rate",
			Message: fmt.Sprintf("daily rate %s cannot be negative", in.DailyRate),
		})
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		errs = append(errs, apperr.FieldError{
			Field:   "end_date",
			Message: fmt.Sprintf("rate end date %s is before start date %s", in.EndDate, in.StartDate),
		})
	}
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	if !in.ClosePrevious {
		// Without close-previous an existing open rate would leave two
		// rates active on the same day; reject the ambiguity up front.
		open, err := s.rates.GetActiveRate(ctx, in.WorkerTypeID, in.StartDate)
		if err != nil {
			return nil, err
		}
		if open != nil && open.EndDate == nil {
			return nil, apperr.NewValidation("start_date",
				fmt.Sprintf("worker type %d already has an open-ended rate starting %s; pass close_previous to supersede it",
					in.WorkerTypeID, open.StartDate))
		}
	}

	rate := &model.Rate{
		WorkerTypeID: in.WorkerTypeID,
		DailyRate:    in.DailyRate,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	}
	if err := s.rates.Insert(ctx, rate, in.ClosePrevious); err != nil {
		return nil, err
	}

	s.logger.Info("Rate created",
		zap.Int("rate_id", rate.ID),
		zap.Int("worker_type_id", rate.WorkerTypeID),
		zap.Bool("close_previous", in.ClosePrevious),
	)
	return rate, nil
}

// GetActiveRate returns the rate in effect for a worker type on a day, or
// nil when none applies.
func (s *RateService) GetActiveRate(ctx context.Context, workerTypeID int, asOf dates.Date) (*model.Rate, error) {
	return s.rates.GetActiveRate(ctx, workerTypeID, asOf)
}

// ListByWorkerType returns all rate versions for a worker type.
func (s *RateService) ListByWorkerType(ctx context.Context, workerTypeID int) ([]model.Rate, error) {
	return s.rates.ListByWorkerType(ctx, workerTypeID)
}
