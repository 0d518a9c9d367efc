package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/internal/mq"
	"github.com/skraps68/planner-sub000/internal/timeline"
	"github.com/skraps68/planner-sub000/pkg/dates"
	"github.com/skraps68/planner-sub000/pkg/metrics"
)

// ProjectService owns project lifecycle. Creating a project always creates
// its Default Phase in the same transaction so the timeline invariant holds
// from the first moment.
type ProjectService struct {
	projects ProjectRepo
	phases   PhaseRepo
	producer EventPublisher
	logger   *zap.Logger
}

func NewProjectService(projects ProjectRepo, phases PhaseRepo, producer EventPublisher, logger *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, phases: phases, producer: producer, logger: logger}
}

type CreateProjectInput struct {
	ProgramID      int
	Name           string
	StartDate      dates.Date
	EndDate        dates.Date
	CostCenterCode string
}

type UpdateProjectInput struct {
	Name            *string
	StartDate       *dates.Date
	EndDate         *dates.Date
	CostCenterCode  *string
	ExpectedVersion *int
}

func validateProjectFields(name string, start, end dates.Date) []apperr.FieldError {
	var errs []apperr.FieldError
	if strings.TrimSpace(name) == "" {
		errs = append(errs, apperr.FieldError{Field: "name", Message: "project name cannot be empty"})
	}
	if !start.Before(end) {
		errs = append(errs, apperr.FieldError{
			Field:   "start_date",
			Message: fmt.Sprintf("project start date %s must be before end date %s", start, end),
		})
	}
	return errs
}

// Get returns the project.
func (s *ProjectService) Get(ctx context.Context, id int) (*model.Project, error) {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", id)
	}
	return project, nil
}

// ListByProgram returns all projects of a program.
func (s *ProjectService) ListByProgram(ctx context.Context, programID int) ([]model.Project, error) {
	return s.projects.ListByProgram(ctx, programID)
}

// Create persists the project together with its Default Phase: one phase
// named "Default Phase", zero budgets, spanning the full project duration.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	errs := validateProjectFields(in.Name, in.StartDate, in.EndDate)
	if strings.TrimSpace(in.CostCenterCode) == "" {
		errs = append(errs, apperr.FieldError{Field: "cost_center_code", Message: "cost center code cannot be empty"})
	}
	if len(errs) > 0 {
		metrics.IncrementValidationFailure("name")
		return nil, apperr.Validation(errs)
	}

	existing, err := s.projects.GetByCostCenter(ctx, in.CostCenterCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.NewValidation("cost_center_code",
			fmt.Sprintf("cost center code %q is already used by project %d", in.CostCenterCode, existing.ID))
	}

	project := &model.Project{
		ProgramID:      in.ProgramID,
		Name:           in.Name,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		CostCenterCode: in.CostCenterCode,
		Version:        1,
	}
	defaultPhase := DefaultPhase(in.StartDate, in.EndDate)

	if err := s.projects.InsertWithDefaultPhase(ctx, project, defaultPhase); err != nil {
		return nil, err
	}

	s.publish(mq.EventProjectCreated, mq.ProjectCreatedPayload{
		ProjectID:      project.ID,
		ProgramID:      project.ProgramID,
		Name:           project.Name,
		StartDate:      project.StartDate,
		EndDate:        project.EndDate,
		DefaultPhaseID: defaultPhase.ID,
		CreatedAt:      project.CreatedAt,
	})
	return project, nil
}

// Update merges the provided fields. Changing the project's dates is only
// accepted when the existing phase timeline still tiles the new span; the
// phases themselves are not silently moved.
func (s *ProjectService) Update(ctx context.Context, id int, in UpdateProjectInput) (*model.Project, error) {
	current, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("project", id)
	}

	merged := *current
	if in.Name != nil {
		merged.Name = *in.Name
	}
	if in.StartDate != nil {
		merged.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		merged.EndDate = *in.EndDate
	}
	if in.CostCenterCode != nil {
		merged.CostCenterCode = *in.CostCenterCode
	}

	if errs := validateProjectFields(merged.Name, merged.StartDate, merged.EndDate); len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	if in.CostCenterCode != nil && *in.CostCenterCode != current.CostCenterCode {
		other, err := s.projects.GetByCostCenter(ctx, merged.CostCenterCode)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, apperr.NewValidation("cost_center_code",
				fmt.Sprintf("cost center code %q is already used by project %d", merged.CostCenterCode, other.ID))
		}
	}

	if merged.StartDate != current.StartDate || merged.EndDate != current.EndDate {
		phases, err := s.phases.GetByProject(ctx, id)
		if err != nil {
			return nil, err
		}
		res := timeline.Validate(merged.StartDate, merged.EndDate, phases, 0)
		metrics.IncrementTimelineCheck(res.Valid)
		if !res.Valid {
			metrics.IncrementValidationFailure("timeline")
			return nil, apperr.Validation(res.Errors)
		}
	}

	expected := current.Version
	if in.ExpectedVersion != nil {
		expected = *in.ExpectedVersion
	}
	ok, err := s.projects.Update(ctx, &merged, expected)
	if err != nil {
		return nil, err
	}
	if !ok {
		latest, err := s.projects.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("project", id, latest)
	}

	return &merged, nil
}

// Delete removes the project and, through the schema cascade, its phases.
func (s *ProjectService) Delete(ctx context.Context, id int) error {
	project, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return apperr.NotFound("project", id)
	}
	return s.projects.Delete(ctx, id)
}

func (s *ProjectService) publish(routingKey string, payload any) {
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
