package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type RateRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewRateRepository(db *pgxpool.Pool, logger *zap.Logger) *RateRepository {
	return &RateRepository{db: db, logger: logger}
}

const rateColumns = `id, worker_type_id, daily_rate, start_date, end_date, created_at, updated_at`

func scanRate(row pgx.Row) (*model.Rate, error) {
	var r model.Rate
	var start time.Time
	var end *time.Time
	err := row.Scan(
		&r.ID,
		&r.WorkerTypeID,
		&r.DailyRate,
		&start,
		&end,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.StartDate = dates.FromTime(start)
	if end != nil {
		d := dates.FromTime(*end)
		r.EndDate = &d
	}
	return &r, nil
}

// GetActiveRate returns the rate whose interval contains asOf, or nil.
// Open-ended rates (end_date NULL) match every day from their start on.
func (r *RateRepository) GetActiveRate(ctx context.Context, workerTypeID int, asOf dates.Date) (*model.Rate, error) {
	query := `
        SELECT ` + rateColumns + `
        FROM rates
        WHERE worker_type_id = $1
          AND start_date <= $2
          AND (end_date IS NULL OR end_date >= $2)
        ORDER BY start_date DESC
        LIMIT 1
    `
	rate, err := scanRate(r.db.QueryRow(ctx, query, workerTypeID, asOf.Time()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active rate for worker type %d: %w", workerTypeID, err)
	}
	return rate, nil
}

// ListByWorkerType returns all rates for a worker type, newest first.
func (r *RateRepository) ListByWorkerType(ctx context.Context, workerTypeID int) ([]model.Rate, error) {
	query := `SELECT ` + rateColumns + ` FROM rates WHERE worker_type_id = $1 ORDER BY start_date DESC`

	rows, err := r.db.Query(ctx, query, workerTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := []model.Rate{}
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, *rate)
	}
	return rates, rows.Err()
}

// Insert persists a new rate. When closePrevious is set, the worker type's
// current open-ended rate is closed at rate.StartDate minus one day in the
// same transaction, keeping at most one open rate per worker type.
func (r *RateRepository) Insert(ctx context.Context, rate *model.Rate, closePrevious bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if closePrevious {
		closeQuery := `
            UPDATE rates
            SET end_date = $1, updated_at = NOW()
            WHERE worker_type_id = $2 AND end_date IS NULL
        `
		if _, err := tx.Exec(ctx, closeQuery, rate.StartDate.Add(-1).Time(), rate.WorkerTypeID); err != nil {
			r.logger.Error("Failed to close previous rate",
				zap.Int("worker_type_id", rate.WorkerTypeID),
				zap.Error(err),
			)
			return err
		}
	}

	var end *time.Time
	if rate.EndDate != nil {
		t := rate.EndDate.Time()
		end = &t
	}

	insertQuery := `
        INSERT INTO rates (worker_type_id, daily_rate, start_date, end_date)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	if err := tx.QueryRow(ctx, insertQuery,
		rate.WorkerTypeID,
		rate.DailyRate,
		rate.StartDate.Time(),
		end,
	).Scan(&rate.ID); err != nil {
		r.logger.Error("Failed to insert rate",
			zap.Int("worker_type_id", rate.WorkerTypeID),
			zap.Error(err),
		)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Rate inserted",
		zap.Int("id", rate.ID),
		zap.Int("worker_type_id", rate.WorkerTypeID),
		zap.Bool("closed_previous", closePrevious),
	)
	return nil
}
