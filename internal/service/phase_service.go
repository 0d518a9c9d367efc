package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/internal/mq"
	"github.com/skraps68/planner-sub000/internal/timeline"
	"github.com/skraps68/planner-sub000/pkg/dates"
	"github.com/skraps68/planner-sub000/pkg/metrics"
)

// PhaseService orchestrates phase writes against a project, running the
// timeline validator before anything is persisted.
type PhaseService struct {
	projects    ProjectRepo
	phases      PhaseRepo
	assignments AssignmentRepo
	producer    EventPublisher
	logger      *zap.Logger
}

func NewPhaseService(projects ProjectRepo, phases PhaseRepo, assignments AssignmentRepo, producer EventPublisher, logger *zap.Logger) *PhaseService {
	return &PhaseService{
		projects:    projects,
		phases:      phases,
		assignments: assignments,
		producer:    producer,
		logger:      logger,
	}
}

// CreatePhaseInput carries the fields of a new phase.
type CreatePhaseInput struct {
	ProjectID     int
	Name          string
	Description   string
	StartDate     dates.Date
	EndDate       dates.Date
	CapitalBudget decimal.Decimal
	ExpenseBudget decimal.Decimal
	TotalBudget   decimal.Decimal
}

// UpdatePhaseInput carries a partial update; nil fields keep their current
// value. ExpectedVersion, when set, makes the update conditional.
type UpdatePhaseInput struct {
	Name            *string
	Description     *string
	StartDate       *dates.Date
	EndDate         *dates.Date
	CapitalBudget   *decimal.Decimal
	ExpenseBudget   *decimal.Decimal
	TotalBudget     *decimal.Decimal
	ExpectedVersion *int
}

// PhaseItem is one entry of a full batch replace. ID zero denotes a phase
// to create.
type PhaseItem struct {
	ID            int
	Name          string
	Description   string
	StartDate     dates.Date
	EndDate       dates.Date
	CapitalBudget decimal.Decimal
	ExpenseBudget decimal.Decimal
	TotalBudget   decimal.Decimal
}

// DefaultPhase builds the zero-budget phase spanning a new project.
func DefaultPhase(projectStart, projectEnd dates.Date) *model.Phase {
	return &model.Phase{
		Name:          model.DefaultPhaseName,
		StartDate:     projectStart,
		EndDate:       projectEnd,
		CapitalBudget: decimal.Zero,
		ExpenseBudget: decimal.Zero,
		TotalBudget:   decimal.Zero,
	}
}

func validateBudgetIdentity(capital, expense, total decimal.Decimal, phaseID int) *apperr.FieldError {
	if capital.Add(expense).Equal(total) {
		return nil
	}
	return &apperr.FieldError{
		Field: "total_budget",
		Message: fmt.Sprintf("capital budget %s plus expense budget %s does not equal total budget %s",
			capital, expense, total),
		PhaseID: phaseID,
	}
}

func (s *PhaseService) validateTimeline(project *model.Project, phases []model.Phase, excludeID int) *apperr.ValidationError {
	res := timeline.Validate(project.StartDate, project.EndDate, phases, excludeID)
	metrics.IncrementTimelineCheck(res.Valid)
	if res.Valid {
		return nil
	}
	metrics.IncrementValidationFailure("timeline")
	return apperr.Validation(res.Errors)
}

// CreateDefaultPhase creates the single Default Phase for a project that
// has none yet. Project creation normally does this in its own
// transaction; this path exists for repair flows.
func (s *PhaseService) CreateDefaultPhase(ctx context.Context, projectID int, projectStart, projectEnd dates.Date) (*model.Phase, error) {
	phase := DefaultPhase(projectStart, projectEnd)
	phase.ProjectID = projectID
	if err := s.phases.Insert(ctx, phase); err != nil {
		return nil, err
	}
	s.logger.Info("Default phase created",
		zap.Int("phase_id", phase.ID),
		zap.Int("project_id", projectID),
	)
	return phase, nil
}

// CreatePhase validates the candidate against the project's full phase set
// and persists it only when the resulting timeline holds.
func (s *PhaseService) CreatePhase(ctx context.Context, in CreatePhaseInput) (*model.Phase, error) {
	project, err := s.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", in.ProjectID)
	}

	if fe := validateBudgetIdentity(in.CapitalBudget, in.ExpenseBudget, in.TotalBudget, 0); fe != nil {
		metrics.IncrementValidationFailure("budget")
		return nil, apperr.Validation([]apperr.FieldError{*fe})
	}

	existing, err := s.phases.GetByProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	candidate := model.Phase{
		ProjectID:     in.ProjectID,
		Name:          in.Name,
		Description:   in.Description,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		CapitalBudget: in.CapitalBudget,
		ExpenseBudget: in.ExpenseBudget,
		TotalBudget:   in.TotalBudget,
	}

	if verr := s.validateTimeline(project, append(existing, candidate), 0); verr != nil {
		s.logger.Warn("Phase creation rejected",
			zap.Int("project_id", in.ProjectID),
			zap.String("name", in.Name),
			zap.Int("violations", len(verr.Errors)),
		)
		return nil, verr
	}

	if err := s.phases.Insert(ctx, &candidate); err != nil {
		return nil, err
	}

	s.publish(mq.EventPhaseCreated, mq.PhaseEventPayload{
		PhaseID:   candidate.ID,
		ProjectID: candidate.ProjectID,
		Name:      candidate.Name,
		StartDate: candidate.StartDate,
		EndDate:   candidate.EndDate,
	})
	return &candidate, nil
}

// UpdatePhase merges the provided fields onto the stored phase, re-runs the
// timeline validation with this phase's dates replaced, and persists only
// on success. A stale ExpectedVersion yields a ConflictError carrying the
// current record.
func (s *PhaseService) UpdatePhase(ctx context.Context, phaseID int, in UpdatePhaseInput) (*model.Phase, error) {
	current, err := s.phases.Get(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("phase", phaseID)
	}

	project, err := s.projects.Get(ctx, current.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", current.ProjectID)
	}

	merged := *current
	if in.Name != nil {
		merged.Name = *in.Name
	}
	if in.Description != nil {
		merged.Description = *in.Description
	}
	if in.StartDate != nil {
		merged.StartDate = *in.StartDate
	}
	if in.EndDate != nil {
		merged.EndDate = *in.EndDate
	}
	if in.CapitalBudget != nil {
		merged.CapitalBudget = *in.CapitalBudget
	}
	if in.ExpenseBudget != nil {
		merged.ExpenseBudget = *in.ExpenseBudget
	}
	if in.TotalBudget != nil {
		merged.TotalBudget = *in.TotalBudget
	}

	if fe := validateBudgetIdentity(merged.CapitalBudget, merged.ExpenseBudget, merged.TotalBudget, phaseID); fe != nil {
		metrics.IncrementValidationFailure("budget")
		return nil, apperr.Validation([]apperr.FieldError{*fe})
	}

	all, err := s.phases.GetByProject(ctx, current.ProjectID)
	if err != nil {
		return nil, err
	}
	// Replace the stored version of this phase with the merged candidate.
	proposed := make([]model.Phase, 0, len(all))
	for _, p := range all {
		if p.ID == phaseID {
			continue
		}
		proposed = append(proposed, p)
	}
	proposed = append(proposed, merged)

	if verr := s.validateTimeline(project, proposed, 0); verr != nil {
		s.logger.Warn("Phase update rejected",
			zap.Int("phase_id", phaseID),
			zap.Int("violations", len(verr.Errors)),
		)
		return nil, verr
	}

	expected := current.Version
	if in.ExpectedVersion != nil {
		expected = *in.ExpectedVersion
	}
	ok, err := s.phases.Update(ctx, &merged, expected)
	if err != nil {
		return nil, err
	}
	if !ok {
		latest, err := s.phases.Get(ctx, phaseID)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("phase", phaseID, latest)
	}

	s.publish(mq.EventPhaseUpdated, mq.PhaseEventPayload{
		PhaseID:   merged.ID,
		ProjectID: merged.ProjectID,
		Name:      merged.Name,
		StartDate: merged.StartDate,
		EndDate:   merged.EndDate,
	})
	return &merged, nil
}

// ReplaceProjectPhases replaces a project's entire phase set in one
// transaction. Items with id zero are created, retained ids updated,
// missing ids deleted. Nothing is applied when validation fails.
func (s *PhaseService) ReplaceProjectPhases(ctx context.Context, projectID int, items []PhaseItem) ([]model.Phase, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", projectID)
	}

	if len(items) == 0 {
		metrics.IncrementValidationFailure("timeline")
		return nil, apperr.NewValidation("phases", "project must have at least one phase")
	}

	var errs []apperr.FieldError
	proposed := make([]model.Phase, 0, len(items))
	for _, item := range items {
		if fe := validateBudgetIdentity(item.CapitalBudget, item.ExpenseBudget, item.TotalBudget, item.ID); fe != nil {
			errs = append(errs, *fe)
		}
		proposed = append(proposed, model.Phase{
			ID:            item.ID,
			ProjectID:     projectID,
			Name:          item.Name,
			Description:   item.Description,
			StartDate:     item.StartDate,
			EndDate:       item.EndDate,
			CapitalBudget: item.CapitalBudget,
			ExpenseBudget: item.ExpenseBudget,
			TotalBudget:   item.TotalBudget,
		})
	}
	if len(errs) > 0 {
		metrics.IncrementValidationFailure("budget")
		return nil, apperr.Validation(errs)
	}

	if verr := s.validateTimeline(project, proposed, 0); verr != nil {
		s.logger.Warn("Phase batch replace rejected",
			zap.Int("project_id", projectID),
			zap.Int("violations", len(verr.Errors)),
		)
		return nil, verr
	}

	existing, err := s.phases.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	retained := make(map[int]bool, len(items))
	var create, update []*model.Phase
	for i := range proposed {
		p := &proposed[i]
		if p.ID == 0 {
			create = append(create, p)
			continue
		}
		retained[p.ID] = true
		update = append(update, p)
	}

	var deleteIDs []int
	existingByID := make(map[int]bool, len(existing))
	for _, p := range existing {
		existingByID[p.ID] = true
		if !retained[p.ID] {
			deleteIDs = append(deleteIDs, p.ID)
		}
	}
	for _, p := range update {
		if !existingByID[p.ID] {
			return nil, apperr.NewValidation("phases", fmt.Sprintf("phase %d does not belong to project %d", p.ID, projectID))
		}
	}

	if err := s.phases.Replace(ctx, projectID, deleteIDs, create, update); err != nil {
		return nil, err
	}

	s.publish(mq.EventPhasesReplaced, mq.PhasesReplacedPayload{
		ProjectID:  projectID,
		PhaseCount: len(items),
	})

	return s.phases.GetByProject(ctx, projectID)
}

// DeletePhase removes a phase only when the remaining phases still cover
// the full project span without gaps. The last phase can never be deleted.
func (s *PhaseService) DeletePhase(ctx context.Context, phaseID int) error {
	phase, err := s.phases.Get(ctx, phaseID)
	if err != nil {
		return err
	}
	if phase == nil {
		return apperr.NotFound("phase", phaseID)
	}

	project, err := s.projects.Get(ctx, phase.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return apperr.NotFound("project", phase.ProjectID)
	}

	all, err := s.phases.GetByProject(ctx, phase.ProjectID)
	if err != nil {
		return err
	}

	if len(all) <= 1 {
		metrics.IncrementValidationFailure("timeline")
		return apperr.Validation([]apperr.FieldError{{
			Field:   "phases",
			Message: "Cannot delete the last remaining phase",
			Code:    apperr.CodeLastPhase,
			PhaseID: phaseID,
		}})
	}

	res := timeline.Validate(project.StartDate, project.EndDate, all, phaseID)
	metrics.IncrementTimelineCheck(res.Valid)
	if !res.Valid {
		metrics.IncrementValidationFailure("timeline")
		return apperr.Validation([]apperr.FieldError{{
			Field: "timeline",
			Message: fmt.Sprintf("deleting phase %q would leave a gap in the project timeline (%s..%s)",
				phase.Name, phase.StartDate, phase.EndDate),
			Code:    apperr.CodeDeletionCreatesGap,
			PhaseID: phaseID,
		}})
	}

	if err := s.phases.Delete(ctx, phaseID); err != nil {
		return err
	}

	s.publish(mq.EventPhaseDeleted, mq.PhaseEventPayload{
		PhaseID:   phaseID,
		ProjectID: phase.ProjectID,
		Name:      phase.Name,
	})
	return nil
}

// GetPhaseForDate resolves which phase contains the given day. Returns nil
// without error when no phase covers it, e.g. a date outside the project.
func (s *PhaseService) GetPhaseForDate(ctx context.Context, projectID int, day dates.Date) (*model.Phase, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", projectID)
	}

	phases, err := s.phases.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return timeline.CoveringPhase(phases, day), nil
}

// GetAssignmentsForPhase returns the project's assignments whose date falls
// inside the phase's current range, ordered ascending by date. Membership
// is derived from the range at call time, never stored.
func (s *PhaseService) GetAssignmentsForPhase(ctx context.Context, phaseID int) ([]model.ResourceAssignment, error) {
	phase, err := s.phases.Get(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, apperr.NotFound("phase", phaseID)
	}
	return s.assignments.GetByProjectAndDateRange(ctx, phase.ProjectID, phase.StartDate, phase.EndDate)
}

// FindTimelineGaps reports the uncovered ranges of a project's timeline.
func (s *PhaseService) FindTimelineGaps(ctx context.Context, projectID int) ([]timeline.Gap, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", projectID)
	}
	phases, err := s.phases.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return timeline.FindGaps(project.StartDate, project.EndDate, phases), nil
}

func (s *PhaseService) publish(routingKey string, payload any) {
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
