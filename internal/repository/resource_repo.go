package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skraps68/planner-sub000/internal/model"
)

type ResourceRepository struct {
	db *pgxpool.Pool
}

func NewResourceRepository(db *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Get returns the resource or nil when it does not exist.
func (r *ResourceRepository) Get(ctx context.Context, id int) (*model.Resource, error) {
	query := `
        SELECT id, name, worker_type_id, created_at, updated_at
        FROM resources
        WHERE id = $1
    `
	var res model.Resource
	err := r.db.QueryRow(ctx, query, id).Scan(
		&res.ID,
		&res.Name,
		&res.WorkerTypeID,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource %d: %w", id, err)
	}
	return &res, nil
}
