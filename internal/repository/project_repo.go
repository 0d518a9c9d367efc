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

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

const projectColumns = `id, program_id, name, start_date, end_date, cost_center_code, version, created_at, updated_at`

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var start, end time.Time
	err := row.Scan(
		&p.ID,
		&p.ProgramID,
		&p.Name,
		&start,
		&end,
		&p.CostCenterCode,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.StartDate, p.EndDate = dates.FromTime(start), dates.FromTime(end)
	return &p, nil
}

// Get returns the project or nil when it does not exist.
func (r *ProjectRepository) Get(ctx context.Context, id int) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return p, nil
}

// GetByCostCenter returns the project with the given cost center code, or
// nil when none exists. Cost center codes are unique.
func (r *ProjectRepository) GetByCostCenter(ctx context.Context, code string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE cost_center_code = $1`

	p, err := scanProject(r.db.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project by cost center %q: %w", code, err)
	}
	return p, nil
}

// ListByProgram returns all projects of a program ordered by start date.
func (r *ProjectRepository) ListByProgram(ctx context.Context, programID int) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE program_id = $1 ORDER BY start_date, id`

	rows, err := r.db.Query(ctx, query, programID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// InsertWithDefaultPhase creates the project and its Default Phase in a
// single transaction. Both ids are filled in on success.
func (r *ProjectRepository) InsertWithDefaultPhase(ctx context.Context, p *model.Project, defaultPhase *model.Phase) error {
	r.logger.Debug("Inserting project",
		zap.Int("program_id", p.ProgramID),
		zap.String("name", p.Name),
		zap.String("cost_center_code", p.CostCenterCode),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO projects (program_id, name, start_date, end_date, cost_center_code, version)
        VALUES ($1, $2, $3, $4, $5, 1)
        RETURNING id
    `
	err = tx.QueryRow(ctx, query,
		p.ProgramID,
		p.Name,
		p.StartDate.Time(),
		p.EndDate.Time(),
		p.CostCenterCode,
	).Scan(&p.ID)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return err
	}

	defaultPhase.ProjectID = p.ID
	if err := insertPhaseTx(ctx, tx, defaultPhase); err != nil {
		r.logger.Error("Failed to insert default phase", zap.Error(err))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Project inserted",
		zap.Int("id", p.ID),
		zap.Int("default_phase_id", defaultPhase.ID),
	)
	return nil
}

// Update persists the project when its stored version matches
// expectedVersion, bumping the version. Returns false when the version was
// stale or the row is gone.
func (r *ProjectRepository) Update(ctx context.Context, p *model.Project, expectedVersion int) (bool, error) {
	query := `
        UPDATE projects
        SET name = $1, start_date = $2, end_date = $3, cost_center_code = $4,
            version = version + 1, updated_at = NOW()
        WHERE id = $5 AND version = $6
    `
	tag, err := r.db.Exec(ctx, query,
		p.Name,
		p.StartDate.Time(),
		p.EndDate.Time(),
		p.CostCenterCode,
		p.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Int("id", p.ID), zap.Error(err))
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	p.Version = expectedVersion + 1
	return true, nil
}

// Delete removes the project. Phases cascade at the schema level.
func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Int("id", id), zap.Error(err))
		return err
	}
	r.logger.Info("Project deleted", zap.Int("id", id))
	return nil
}
