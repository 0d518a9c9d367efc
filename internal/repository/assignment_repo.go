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

type AssignmentRepository struct {
	db *pgxpool.Pool
}

func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `id, resource_id, project_id, assignment_date,
       allocation_percentage, capital_percentage, expense_percentage, created_at, updated_at`

func scanAssignment(row pgx.Row) (*model.ResourceAssignment, error) {
	var a model.ResourceAssignment
	var day time.Time
	err := row.Scan(
		&a.ID,
		&a.ResourceID,
		&a.ProjectID,
		&day,
		&a.AllocationPercent,
		&a.CapitalPercent,
		&a.ExpensePercent,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.AssignmentDate = dates.FromTime(day)
	return &a, nil
}

// Get returns the assignment or nil when it does not exist.
func (r *AssignmentRepository) Get(ctx context.Context, id int) (*model.ResourceAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM resource_assignments WHERE id = $1`

	a, err := scanAssignment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment %d: %w", id, err)
	}
	return a, nil
}

// GetTotalAllocationForDate sums the allocation percentage of one resource
// on one day. excludeID, when non-zero, leaves that assignment out of the
// total; update paths use it to exclude the record being modified.
func (r *AssignmentRepository) GetTotalAllocationForDate(ctx context.Context, resourceID int, day dates.Date, excludeID int) (decimal.Decimal, error) {
	query := `
        SELECT COALESCE(SUM(allocation_percentage), 0)
        FROM resource_assignments
        WHERE resource_id = $1 AND assignment_date = $2 AND ($3 = 0 OR id <> $3)
    `
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, query, resourceID, day.Time(), excludeID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum allocation for resource %d on %s: %w", resourceID, day, err)
	}
	return total, nil
}

// GetByDateRange returns one resource's assignments in [start, end],
// ordered by date.
func (r *AssignmentRepository) GetByDateRange(ctx context.Context, resourceID int, start, end dates.Date) ([]model.ResourceAssignment, error) {
	query := `
        SELECT ` + assignmentColumns + `
        FROM resource_assignments
        WHERE resource_id = $1 AND assignment_date BETWEEN $2 AND $3
        ORDER BY assignment_date, id
    `
	return r.queryAssignments(ctx, query, resourceID, start.Time(), end.Time())
}

// GetByProjectAndDateRange returns a project's assignments in [start, end],
// ordered by date. Feeds phase-scoped reports; phase membership is always
// derived from the phase's current date range, never stored.
func (r *AssignmentRepository) GetByProjectAndDateRange(ctx context.Context, projectID int, start, end dates.Date) ([]model.ResourceAssignment, error) {
	query := `
        SELECT ` + assignmentColumns + `
        FROM resource_assignments
        WHERE project_id = $1 AND assignment_date BETWEEN $2 AND $3
        ORDER BY assignment_date, id
    `
	return r.queryAssignments(ctx, query, projectID, start.Time(), end.Time())
}

func (r *AssignmentRepository) queryAssignments(ctx context.Context, query string, args ...any) ([]model.ResourceAssignment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []model.ResourceAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

// Insert persists a new assignment and fills in its id.
func (r *AssignmentRepository) Insert(ctx context.Context, a *model.ResourceAssignment) error {
	query := `
        INSERT INTO resource_assignments
            (resource_id, project_id, assignment_date, allocation_percentage, capital_percentage, expense_percentage)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.db.QueryRow(ctx, query,
		a.ResourceID,
		a.ProjectID,
		a.AssignmentDate.Time(),
		a.AllocationPercent,
		a.CapitalPercent,
		a.ExpensePercent,
	).Scan(&a.ID)
}

// Update persists changed assignment fields.
func (r *AssignmentRepository) Update(ctx context.Context, a *model.ResourceAssignment) error {
	query := `
        UPDATE resource_assignments
        SET assignment_date = $1, allocation_percentage = $2,
            capital_percentage = $3, expense_percentage = $4, updated_at = NOW()
        WHERE id = $5
    `
	_, err := r.db.Exec(ctx, query,
		a.AssignmentDate.Time(),
		a.AllocationPercent,
		a.CapitalPercent,
		a.ExpensePercent,
		a.ID,
	)
	return err
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM resource_assignments WHERE id = $1`, id)
	return err
}
