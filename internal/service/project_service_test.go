package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

type projectFixture struct {
	projects *fakeProjectRepo
	phases   *fakePhaseRepo
	pub      *capturingPublisher
	svc      *ProjectService
}

func newProjectFixture() *projectFixture {
	phases := newFakePhaseRepo()
	projects := newFakeProjectRepo(phases)
	pub := &capturingPublisher{}
	return &projectFixture{
		projects: projects,
		phases:   phases,
		pub:      pub,
		svc:      NewProjectService(projects, phases, pub, zap.NewNop()),
	}
}

func TestProjectServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the default phase spanning the full project", func(t *testing.T) {
		f := newProjectFixture()
		project, err := f.svc.Create(ctx, CreateProjectInput{
			ProgramID:      1,
			Name:           "Platform Migration",
			StartDate:      d("2024-01-01"),
			EndDate:        d("2024-12-31"),
			CostCenterCode: "CC-100",
		})
		require.NoError(t, err)
		require.NotZero(t, project.ID)

		phases, err := f.phases.GetByProject(ctx, project.ID)
		require.NoError(t, err)
		require.Len(t, phases, 1)
		assert.Equal(t, model.DefaultPhaseName, phases[0].Name)
		assert.Equal(t, project.StartDate, phases[0].StartDate)
		assert.Equal(t, project.EndDate, phases[0].EndDate)
		assert.True(t, phases[0].TotalBudget.IsZero())
		assert.Contains(t, f.pub.keys, "project.created")
	})

	t.Run("rejects a duplicate cost center code", func(t *testing.T) {
		f := newProjectFixture()
		_, err := f.svc.Create(ctx, CreateProjectInput{
			ProgramID: 1, Name: "First",
			StartDate: d("2024-01-01"), EndDate: d("2024-12-31"),
			CostCenterCode: "CC-100",
		})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, CreateProjectInput{
			ProgramID: 1, Name: "Second",
			StartDate: d("2024-01-01"), EndDate: d("2024-12-31"),
			CostCenterCode: "CC-100",
		})
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "cost_center_code", verr.Errors[0].Field)
	})

	t.Run("rejects start on or after end", func(t *testing.T) {
		f := newProjectFixture()
		_, err := f.svc.Create(ctx, CreateProjectInput{
			ProgramID: 1, Name: "Backwards",
			StartDate: d("2024-12-31"), EndDate: d("2024-01-01"),
			CostCenterCode: "CC-101",
		})
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("accumulates every violated field", func(t *testing.T) {
		f := newProjectFixture()
		_, err := f.svc.Create(ctx, CreateProjectInput{
			ProgramID: 1, Name: "  ",
			StartDate: d("2024-12-31"), EndDate: d("2024-01-01"),
		})
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Errors, 3)
	})
}

func TestProjectServiceUpdate(t *testing.T) {
	ctx := context.Background()

	seed := func(f *projectFixture) *model.Project {
		project, err := f.svc.Create(ctx, CreateProjectInput{
			ProgramID: 1, Name: "Platform Migration",
			StartDate: d("2024-01-01"), EndDate: d("2024-12-31"),
			CostCenterCode: "CC-100",
		})
		require.NoError(t, err)
		return project
	}

	t.Run("rejects a date change the phase timeline no longer tiles", func(t *testing.T) {
		f := newProjectFixture()
		project := seed(f)

		// The default phase ends 2024-12-31; extending the project would
		// leave December 2025 uncovered.
		end := d("2025-12-31")
		_, err := f.svc.Update(ctx, project.ID, UpdateProjectInput{EndDate: &end})
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)

		stored, _ := f.projects.Get(ctx, project.ID)
		assert.Equal(t, d("2024-12-31"), stored.EndDate)
	})

	t.Run("accepts a date change once the phases cover the new span", func(t *testing.T) {
		f := newProjectFixture()
		project := seed(f)

		phases, _ := f.phases.GetByProject(ctx, project.ID)
		phases[0].EndDate = d("2025-12-31")
		_, err := f.phases.Update(ctx, &phases[0], phases[0].Version)
		require.NoError(t, err)

		end := d("2025-12-31")
		updated, err := f.svc.Update(ctx, project.ID, UpdateProjectInput{EndDate: &end})
		require.NoError(t, err)
		assert.Equal(t, d("2025-12-31"), updated.EndDate)
		assert.Equal(t, 2, updated.Version)
	})

	t.Run("stale expected version yields conflict", func(t *testing.T) {
		f := newProjectFixture()
		project := seed(f)

		name := "Renamed"
		stale := 42
		_, err := f.svc.Update(ctx, project.ID, UpdateProjectInput{Name: &name, ExpectedVersion: &stale})
		var conflict *apperr.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "project", conflict.Resource)
	})

	t.Run("cost center stays unique across projects", func(t *testing.T) {
		f := newProjectFixture()
		seed(f)
		other, err := f.svc.Create(ctx, CreateProjectInput{
			ProgramID: 1, Name: "Other",
			StartDate: d("2024-01-01"), EndDate: d("2024-12-31"),
			CostCenterCode: "CC-200",
		})
		require.NoError(t, err)

		taken := "CC-100"
		_, err = f.svc.Update(ctx, other.ID, UpdateProjectInput{CostCenterCode: &taken})
		var verr *apperr.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestProjectServiceDelete(t *testing.T) {
	ctx := context.Background()
	f := newProjectFixture()
	project, err := f.svc.Create(ctx, CreateProjectInput{
		ProgramID: 1, Name: "Platform Migration",
		StartDate: d("2024-01-01"), EndDate: d("2024-12-31"),
		CostCenterCode: "CC-100",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, project.ID))

	_, err = f.svc.Get(ctx, project.ID)
	var nf *apperr.NotFoundError
	require.ErrorAs(t, err, &nf)

	phases, _ := f.phases.GetByProject(ctx, project.ID)
	assert.Empty(t, phases, "phases are removed with their project")

	assert.ErrorAs(t, f.svc.Delete(ctx, project.ID), &nf)
}

func TestProjectServiceListByProgram(t *testing.T) {
	ctx := context.Background()
	f := newProjectFixture()
	for i, cc := range []string{"CC-1", "CC-2"} {
		_, err := f.svc.Create(ctx, CreateProjectInput{
			ProgramID: 1, Name: cc,
			StartDate: d("2024-01-01"), EndDate: dates.New(2024, 12, 31),
			CostCenterCode: cc,
		})
		require.NoError(t, err, i)
	}
	_, err := f.svc.Create(ctx, CreateProjectInput{
		ProgramID: 2, Name: "Elsewhere",
		StartDate: d("2024-01-01"), EndDate: d("2024-12-31"),
		CostCenterCode: "CC-3",
	})
	require.NoError(t, err)

	got, err := f.svc.ListByProgram(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
