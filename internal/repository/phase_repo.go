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

type PhaseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPhaseRepository(db *pgxpool.Pool, logger *zap.Logger) *PhaseRepository {
	return &PhaseRepository{db: db, logger: logger}
}

const phaseColumns = `id, project_id, name, description, start_date, end_date,
       capital_budget, expense_budget, total_budget, version, created_at, updated_at`

func scanPhase(row pgx.Row) (*model.Phase, error) {
	var p model.Phase
	var start, end time.Time
	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.Name,
		&p.Description,
		&start,
		&end,
		&p.CapitalBudget,
		&p.ExpenseBudget,
		&p.TotalBudget,
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

// Get returns the phase or nil when it does not exist.
func (r *PhaseRepository) Get(ctx context.Context, id int) (*model.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM phases WHERE id = $1`

	p, err := scanPhase(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase %d: %w", id, err)
	}
	return p, nil
}

// GetByProject returns all phases of a project ordered by start date.
func (r *PhaseRepository) GetByProject(ctx context.Context, projectID int) ([]model.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM phases WHERE project_id = $1 ORDER BY start_date, id`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phases := []model.Phase{}
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, *p)
	}
	return phases, rows.Err()
}

func insertPhaseTx(ctx context.Context, tx pgx.Tx, p *model.Phase) error {
	query := `
        INSERT INTO phases (project_id, name, description, start_date, end_date,
                            capital_budget, expense_budget, total_budget, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
        RETURNING id
    `
	return tx.QueryRow(ctx, query,
		p.ProjectID,
		p.Name,
		p.Description,
		p.StartDate.Time(),
		p.EndDate.Time(),
		p.CapitalBudget,
		p.ExpenseBudget,
		p.TotalBudget,
	).Scan(&p.ID)
}

// Insert persists a new phase and fills in its id.
func (r *PhaseRepository) Insert(ctx context.Context, p *model.Phase) error {
	query := `
        INSERT INTO phases (project_id, name, description, start_date, end_date,
                            capital_budget, expense_budget, total_budget, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query,
		p.ProjectID,
		p.Name,
		p.Description,
		p.StartDate.Time(),
		p.EndDate.Time(),
		p.CapitalBudget,
		p.ExpenseBudget,
		p.TotalBudget,
	).Scan(&p.ID)
	if err != nil {
		r.logger.Error("Failed to insert phase",
			zap.Int("project_id", p.ProjectID),
			zap.String("name", p.Name),
			zap.Error(err),
		)
		return err
	}

	r.logger.Info("Phase inserted",
		zap.Int("id", p.ID),
		zap.Int("project_id", p.ProjectID),
	)
	return nil
}

func updatePhaseTx(ctx context.Context, tx pgx.Tx, p *model.Phase, expectedVersion int) (bool, error) {
	query := `
        UPDATE phases
        SET name = $1, description = $2, start_date = $3, end_date = $4,
            capital_budget = $5, expense_budget = $6, total_budget = $7,
            version = version + 1, updated_at = NOW()
        WHERE id = $8 AND version = $9
    `
	tag, err := tx.Exec(ctx, query,
		p.Name,
		p.Description,
		p.StartDate.Time(),
		p.EndDate.Time(),
		p.CapitalBudget,
		p.ExpenseBudget,
		p.TotalBudget,
		p.ID,
		expectedVersion,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Update persists the phase when its stored version matches
// expectedVersion. Returns false on a stale version.
func (r *PhaseRepository) Update(ctx context.Context, p *model.Phase, expectedVersion int) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ok, err := updatePhaseTx(ctx, tx, p, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to update phase", zap.Int("id", p.ID), zap.Error(err))
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	p.Version = expectedVersion + 1
	return true, nil
}

// Delete removes a single phase.
func (r *PhaseRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM phases WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete phase", zap.Int("id", id), zap.Error(err))
		return err
	}
	r.logger.Info("Phase deleted", zap.Int("id", id))
	return nil
}

// Replace applies a full batch replace of a project's phases in one
// transaction: delete the ids not retained, insert the new phases, update
// the rest. Nothing is applied if any statement fails.
func (r *PhaseRepository) Replace(ctx context.Context, projectID int, deleteIDs []int, create []*model.Phase, update []*model.Phase) error {
	r.logger.Debug("Replacing project phases",
		zap.Int("project_id", projectID),
		zap.Int("delete", len(deleteIDs)),
		zap.Int("create", len(create)),
		zap.Int("update", len(update)),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, id := range deleteIDs {
		if _, err := tx.Exec(ctx, `DELETE FROM phases WHERE id = $1 AND project_id = $2`, id, projectID); err != nil {
			return fmt.Errorf("failed to delete phase %d: %w", id, err)
		}
	}

	for _, p := range update {
		query := `
            UPDATE phases
            SET name = $1, description = $2, start_date = $3, end_date = $4,
                capital_budget = $5, expense_budget = $6, total_budget = $7,
                version = version + 1, updated_at = NOW()
            WHERE id = $8 AND project_id = $9
        `
		tag, err := tx.Exec(ctx, query,
			p.Name,
			p.Description,
			p.StartDate.Time(),
			p.EndDate.Time(),
			p.CapitalBudget,
			p.ExpenseBudget,
			p.TotalBudget,
			p.ID,
			projectID,
		)
		if err != nil {
			return fmt.Errorf("failed to update phase %d: %w", p.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("phase %d not found in project %d", p.ID, projectID)
		}
	}

	for _, p := range create {
		p.ProjectID = projectID
		if err := insertPhaseTx(ctx, tx, p); err != nil {
			return fmt.Errorf("failed to insert phase %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("Project phases replaced", zap.Int("project_id", projectID))
	return nil
}
