package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type ActualRepository struct {
	db *pgxpool.Pool
}

func NewActualRepository(db *pgxpool.Pool) *ActualRepository {
	return &ActualRepository{db: db}
}

const actualColumns = `id, project_id, external_worker_id, worker_name, actual_date,
       allocation_percentage, actual_cost, capital_amount, expense_amount, created_at, updated_at`

func scanActual(row pgx.Row) (*model.Actual, error) {
	var a model.Actual
	var day time.Time
	err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.ExternalWorkerID,
		&a.WorkerName,
		&day,
		&a.AllocationPercent,
		&a.ActualCost,
		&a.CapitalAmount,
		&a.ExpenseAmount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ActualDate = dates.FromTime(day)
	return &a, nil
}

// Get returns the actual or nil when it does not exist.
func (r *ActualRepository) Get(ctx context.Context, id int) (*model.Actual, error) {
	query := `SELECT ` + actualColumns + ` FROM actuals WHERE id = $1`

	a, err := scanActual(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get actual %d: %w", id, err)
	}
	return a, nil
}

// GetTotalAllocationForDate sums one worker's allocation percentage on one
// day across all projects. excludeID, when non-zero, leaves that actual out.
func (r *ActualRepository) GetTotalAllocationForDate(ctx context.Context, workerID string, day dates.Date, excludeID int) (decimal.Decimal, error) {
	query := `
        SELECT COALESCE(SUM(allocation_percentage), 0)
        FROM actuals
        WHERE external_worker_id = $1 AND actual_date = $2 AND ($3 = 0 OR id <> $3)
    `
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, query, workerID, day.Time(), excludeID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum allocation for worker %s on %s: %w", workerID, day, err)
	}
	return total, nil
}

// GetByDateRange returns a project's actuals in [start, end], ordered by date.
func (r *ActualRepository) GetByDateRange(ctx context.Context, projectID int, start, end dates.Date) ([]model.Actual, error) {
	query := `
        SELECT ` + actualColumns + `
        FROM actuals
        WHERE project_id = $1 AND actual_date BETWEEN $2 AND $3
        ORDER BY actual_date, id
    `
	rows, err := r.db.Query(ctx, query, projectID, start.Time(), end.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actuals := []model.Actual{}
	for rows.Next() {
		a, err := scanActual(rows)
		if err != nil {
			return nil, err
		}
		actuals = append(actuals, *a)
	}
	return actuals, rows.Err()
}

// GetByWorkerAndDateRange returns one worker's actuals in [start, end]
// across all projects, ordered by date. Feeds conflict reports.
func (r *ActualRepository) GetByWorkerAndDateRange(ctx context.Context, workerID string, start, end dates.Date) ([]model.Actual, error) {
	query := `
        SELECT ` + actualColumns + `
        FROM actuals
        WHERE external_worker_id = $1 AND actual_date BETWEEN $2 AND $3
        ORDER BY actual_date, id
    `
	rows, err := r.db.Query(ctx, query, workerID, start.Time(), end.Time())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actuals := []model.Actual{}
	for rows.Next() {
		a, err := scanActual(rows)
		if err != nil {
			return nil, err
		}
		actuals = append(actuals, *a)
	}
	return actuals, rows.Err()
}

// Insert persists a new actual and fills in its id.
func (r *ActualRepository) Insert(ctx context.Context, a *model.Actual) error {
	query := `
        INSERT INTO actuals
            (project_id, external_worker_id, worker_name, actual_date,
             allocation_percentage, actual_cost, capital_amount, expense_amount)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.db.QueryRow(ctx, query,
		a.ProjectID,
		a.ExternalWorkerID,
		a.WorkerName,
		a.ActualDate.Time(),
		a.AllocationPercent,
		a.ActualCost,
		a.CapitalAmount,
		a.ExpenseAmount,
	).Scan(&a.ID)
}

// Update persists changed actual fields.
func (r *ActualRepository) Update(ctx context.Context, a *model.Actual) error {
	query := `
        UPDATE actuals
        SET actual_date = $1, allocation_percentage = $2, actual_cost = $3,
            capital_amount = $4, expense_amount = $5, worker_name = $6, updated_at = NOW()
        WHERE id = $7
    `
	_, err := r.db.Exec(ctx, query,
		a.ActualDate.Time(),
		a.AllocationPercent,
		a.ActualCost,
		a.CapitalAmount,
		a.ExpenseAmount,
		a.WorkerName,
		a.ID,
	)
	return err
}

// Delete removes an actual.
func (r *ActualRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM actuals WHERE id = $1`, id)
	return err
}
