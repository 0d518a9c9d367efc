package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

// ForecastService computes budget-vs-actual-vs-forecast figures. All
// figures are derived from phase date boundaries at call time; actuals and
// assignments are tied to phases only through those ranges.
type ForecastService struct {
	projects    ProjectRepo
	phases      PhaseRepo
	assignments AssignmentRepo
	actuals     ActualRepo
	resources   ResourceRepo
	rates       RateRepo
	logger      *zap.Logger
}

func NewForecastService(projects ProjectRepo, phases PhaseRepo, assignments AssignmentRepo, actuals ActualRepo, resources ResourceRepo, rates RateRepo, logger *zap.Logger) *ForecastService {
	return &ForecastService{
		projects:    projects,
		phases:      phases,
		assignments: assignments,
		actuals:     actuals,
		resources:   resources,
		rates:       rates,
		logger:      logger,
	}
}

// PhaseCost is the actual-to-date picture of one phase.
type PhaseCost struct {
	PhaseID      int             `json:"phase_id"`
	PhaseName    string          `json:"phase_name"`
	AsOf         dates.Date      `json:"as_of"`
	TotalBudget  decimal.Decimal `json:"total_budget"`
	ActualTotal  decimal.Decimal `json:"actual_total"`
	CapitalTotal decimal.Decimal `json:"capital_total"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	Variance     decimal.Decimal `json:"variance"`
}

// PhaseForecast is the projected remaining cost for one phase.
type PhaseForecast struct {
	PhaseID          int             `json:"phase_id"`
	PhaseName        string          `json:"phase_name"`
	AsOf             dates.Date      `json:"as_of"`
	ProjectedTotal   decimal.Decimal `json:"projected_total"`
	ProjectedCapital decimal.Decimal `json:"projected_capital"`
	ProjectedExpense decimal.Decimal `json:"projected_expense"`
	// Assignments that could not be priced because no rate covers their
	// date; their cost contribution is zero.
	UnpricedAssignments int `json:"unpriced_assignments,omitempty"`
}

// ProjectCost aggregates phase costs across one project.
type ProjectCost struct {
	ProjectID   int             `json:"project_id"`
	AsOf        dates.Date      `json:"as_of"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	ActualTotal decimal.Decimal `json:"actual_total"`
	Variance    decimal.Decimal `json:"variance"`
	Phases      []PhaseCost     `json:"phases"`
}

// ProgramCost aggregates project costs across one program.
type ProgramCost struct {
	ProgramID   int             `json:"program_id"`
	AsOf        dates.Date      `json:"as_of"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	ActualTotal decimal.Decimal `json:"actual_total"`
	Variance    decimal.Decimal `json:"variance"`
	Projects    []ProjectCost   `json:"projects"`
}

// CalculatePhaseCost sums the phase's actuals up to asOf and reports the
// variance against the phase's total budget.
func (s *ForecastService) CalculatePhaseCost(ctx context.Context, phaseID int, asOf dates.Date) (*PhaseCost, error) {
	phase, err := s.phases.Get(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, apperr.NotFound("phase", phaseID)
	}

	report := &PhaseCost{
		PhaseID:     phase.ID,
		PhaseName:   phase.Name,
		AsOf:        asOf,
		TotalBudget: phase.TotalBudget,
	}

	// Clamp the window to actuals dated inside the phase and at or
	// before asOf.
	end := phase.EndDate
	if asOf.Before(end) {
		end = asOf
	}
	if !end.Before(phase.StartDate) {
		actuals, err := s.actuals.GetByDateRange(ctx, phase.ProjectID, phase.StartDate, end)
		if err != nil {
			return nil, err
		}
		for _, a := range actuals {
			report.ActualTotal = report.ActualTotal.Add(a.ActualCost)
			report.CapitalTotal = report.CapitalTotal.Add(a.CapitalAmount)
			report.ExpenseTotal = report.ExpenseTotal.Add(a.ExpenseAmount)
		}
	}

	report.Variance = report.TotalBudget.Sub(report.ActualTotal)
	return report, nil
}

// CalculatePhaseForecast prices the phase's future assignments (dated
// after asOf) with each resource's rate in effect on the assignment date,
// splitting the projected cost by the assignment's capital/expense
// percentages.
func (s *ForecastService) CalculatePhaseForecast(ctx context.Context, phaseID int, asOf dates.Date) (*PhaseForecast, error) {
	phase, err := s.phases.Get(ctx, phaseID)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, apperr.NotFound("phase", phaseID)
	}

	report := &PhaseForecast{
		PhaseID:   phase.ID,
		PhaseName: phase.Name,
		AsOf:      asOf,
	}

	start := phase.StartDate
	if asOf.Add(1).After(start) {
		start = asOf.Add(1)
	}
	if start.After(phase.EndDate) {
		return report, nil
	}

	assignments, err := s.assignments.GetByProjectAndDateRange(ctx, phase.ProjectID, start, phase.EndDate)
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	workerTypes := make(map[int]int) // resource id -> worker type id

	for _, a := range assignments {
		workerTypeID, ok := workerTypes[a.ResourceID]
		if !ok {
			resource, err := s.resources.Get(ctx, a.ResourceID)
			if err != nil {
				return nil, err
			}
			if resource == nil {
				// Assignment outliving its resource is a data defect;
				// skip rather than fail the whole report.
				s.logger.Warn("Assignment references missing resource",
					zap.Int("assignment_id", a.ID),
					zap.Int("resource_id", a.ResourceID),
				)
				report.UnpricedAssignments++
				continue
			}
			workerTypeID = resource.WorkerTypeID
			workerTypes[a.ResourceID] = workerTypeID
		}

		rate, err := s.rates.GetActiveRate(ctx, workerTypeID, a.AssignmentDate)
		if err != nil {
			return nil, err
		}
		if rate == nil {
			report.UnpricedAssignments++
			continue
		}

		projected := rate.DailyRate.Mul(a.AllocationPercent).Div(hundred)
		report.ProjectedTotal = report.ProjectedTotal.Add(projected)
		report.ProjectedCapital = report.ProjectedCapital.Add(projected.Mul(a.CapitalPercent).Div(hundred))
		report.ProjectedExpense = report.ProjectedExpense.Add(projected.Mul(a.ExpensePercent).Div(hundred))
	}

	return report, nil
}

// CalculateProjectCost rolls phase costs up to the project.
func (s *ForecastService) CalculateProjectCost(ctx context.Context, projectID int, asOf dates.Date) (*ProjectCost, error) {
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

	report := &ProjectCost{ProjectID: projectID, AsOf: asOf, Phases: []PhaseCost{}}
	for _, p := range phases {
		pc, err := s.CalculatePhaseCost(ctx, p.ID, asOf)
		if err != nil {
			return nil, err
		}
		report.Phases = append(report.Phases, *pc)
		report.TotalBudget = report.TotalBudget.Add(pc.TotalBudget)
		report.ActualTotal = report.ActualTotal.Add(pc.ActualTotal)
	}
	report.Variance = report.TotalBudget.Sub(report.ActualTotal)
	return report, nil
}

// CalculateProgramCost rolls project costs up to the program.
func (s *ForecastService) CalculateProgramCost(ctx context.Context, programID int, asOf dates.Date) (*ProgramCost, error) {
	projects, err := s.projects.ListByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}

	report := &ProgramCost{ProgramID: programID, AsOf: asOf, Projects: []ProjectCost{}}
	for _, p := range projects {
		pc, err := s.CalculateProjectCost(ctx, p.ID, asOf)
		if err != nil {
			return nil, err
		}
		report.Projects = append(report.Projects, *pc)
		report.TotalBudget = report.TotalBudget.Add(pc.TotalBudget)
		report.ActualTotal = report.ActualTotal.Add(pc.ActualTotal)
	}
	report.Variance = report.TotalBudget.Sub(report.ActualTotal)
	return report, nil
}
