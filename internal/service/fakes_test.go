package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

// In-memory stand-ins for the pgx repositories. They mimic the repository
// contracts closely enough for service behavior tests: nil for missing
// rows, version bumping, transactional replace all-or-nothing.

type fakeProjectRepo struct {
	projects map[int]*model.Project
	phases   *fakePhaseRepo
	nextID   int
}

func newFakeProjectRepo(phases *fakePhaseRepo) *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[int]*model.Project{}, phases: phases, nextID: 1}
}

func (r *fakeProjectRepo) Get(_ context.Context, id int) (*model.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) GetByCostCenter(_ context.Context, code string) (*model.Project, error) {
	for _, p := range r.projects {
		if p.CostCenterCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProjectRepo) ListByProgram(_ context.Context, programID int) ([]model.Project, error) {
	var out []model.Project
	for _, p := range r.projects {
		if p.ProgramID == programID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProjectRepo) InsertWithDefaultPhase(_ context.Context, p *model.Project, defaultPhase *model.Phase) error {
	p.ID = r.nextID
	r.nextID++
	cp := *p
	r.projects[p.ID] = &cp

	defaultPhase.ProjectID = p.ID
	r.phases.insert(defaultPhase)
	return nil
}

func (r *fakeProjectRepo) Update(_ context.Context, p *model.Project, expectedVersion int) (bool, error) {
	current, ok := r.projects[p.ID]
	if !ok || current.Version != expectedVersion {
		return false, nil
	}
	p.Version = expectedVersion + 1
	cp := *p
	r.projects[p.ID] = &cp
	return true, nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, id int) error {
	delete(r.projects, id)
	for pid, ph := range r.phases.phases {
		if ph.ProjectID == id {
			delete(r.phases.phases, pid)
		}
	}
	return nil
}

func (r *fakeProjectRepo) add(p model.Project) *model.Project {
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	} else if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	if p.Version == 0 {
		p.Version = 1
	}
	r.projects[p.ID] = &p
	return r.projects[p.ID]
}

type fakePhaseRepo struct {
	phases map[int]*model.Phase
	nextID int
}

func newFakePhaseRepo() *fakePhaseRepo {
	return &fakePhaseRepo{phases: map[int]*model.Phase{}, nextID: 1}
}

func (r *fakePhaseRepo) insert(p *model.Phase) {
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	} else if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	if p.Version == 0 {
		p.Version = 1
	}
	cp := *p
	r.phases[p.ID] = &cp
}

func (r *fakePhaseRepo) Get(_ context.Context, id int) (*model.Phase, error) {
	p, ok := r.phases[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakePhaseRepo) GetByProject(_ context.Context, projectID int) ([]model.Phase, error) {
	var out []model.Phase
	for _, p := range r.phases {
		if p.ProjectID == projectID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].StartDate.Compare(out[j].StartDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakePhaseRepo) Insert(_ context.Context, p *model.Phase) error {
	r.insert(p)
	return nil
}

func (r *fakePhaseRepo) Update(_ context.Context, p *model.Phase, expectedVersion int) (bool, error) {
	current, ok := r.phases[p.ID]
	if !ok || current.Version != expectedVersion {
		return false, nil
	}
	p.Version = expectedVersion + 1
	cp := *p
	r.phases[p.ID] = &cp
	return true, nil
}

func (r *fakePhaseRepo) Delete(_ context.Context, id int) error {
	delete(r.phases, id)
	return nil
}

func (r *fakePhaseRepo) Replace(_ context.Context, projectID int, deleteIDs []int, create []*model.Phase, update []*model.Phase) error {
	for _, id := range deleteIDs {
		delete(r.phases, id)
	}
	for _, p := range update {
		stored := r.phases[p.ID]
		p.Version = stored.Version + 1
		cp := *p
		cp.ProjectID = projectID
		r.phases[p.ID] = &cp
	}
	for _, p := range create {
		p.ProjectID = projectID
		r.insert(p)
	}
	return nil
}

type fakeAssignmentRepo struct {
	assignments map[int]*model.ResourceAssignment
	nextID      int
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: map[int]*model.ResourceAssignment{}, nextID: 1}
}

func (r *fakeAssignmentRepo) Get(_ context.Context, id int) (*model.ResourceAssignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAssignmentRepo) GetTotalAllocationForDate(_ context.Context, resourceID int, day dates.Date, excludeID int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range r.assignments {
		if a.ResourceID == resourceID && a.AssignmentDate == day && a.ID != excludeID {
			total = total.Add(a.AllocationPercent)
		}
	}
	return total, nil
}

func (r *fakeAssignmentRepo) GetByDateRange(_ context.Context, resourceID int, start, end dates.Date) ([]model.ResourceAssignment, error) {
	rng := dates.Range{From: start, To: end}
	var out []model.ResourceAssignment
	for _, a := range r.assignments {
		if a.ResourceID == resourceID && rng.Contains(a.AssignmentDate) {
			out = append(out, *a)
		}
	}
	sortAssignments(out)
	return out, nil
}

func (r *fakeAssignmentRepo) GetByProjectAndDateRange(_ context.Context, projectID int, start, end dates.Date) ([]model.ResourceAssignment, error) {
	rng := dates.Range{From: start, To: end}
	var out []model.ResourceAssignment
	for _, a := range r.assignments {
		if a.ProjectID == projectID && rng.Contains(a.AssignmentDate) {
			out = append(out, *a)
		}
	}
	sortAssignments(out)
	return out, nil
}

func sortAssignments(out []model.ResourceAssignment) {
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].AssignmentDate.Compare(out[j].AssignmentDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
}

func (r *fakeAssignmentRepo) Insert(_ context.Context, a *model.ResourceAssignment) error {
	a.ID = r.nextID
	r.nextID++
	cp := *a
	r.assignments[a.ID] = &cp
	return nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, a *model.ResourceAssignment) error {
	cp := *a
	r.assignments[a.ID] = &cp
	return nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, id int) error {
	delete(r.assignments, id)
	return nil
}

type fakeActualRepo struct {
	actuals map[int]*model.Actual
	nextID  int
}

func newFakeActualRepo() *fakeActualRepo {
	return &fakeActualRepo{actuals: map[int]*model.Actual{}, nextID: 1}
}

func (r *fakeActualRepo) Get(_ context.Context, id int) (*model.Actual, error) {
	a, ok := r.actuals[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *fakeActualRepo) GetTotalAllocationForDate(_ context.Context, workerID string, day dates.Date, excludeID int) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, a := range r.actuals {
		if a.ExternalWorkerID == workerID && a.ActualDate == day && a.ID != excludeID {
			total = total.Add(a.AllocationPercent)
		}
	}
	return total, nil
}

func (r *fakeActualRepo) GetByDateRange(_ context.Context, projectID int, start, end dates.Date) ([]model.Actual, error) {
	rng := dates.Range{From: start, To: end}
	var out []model.Actual
	for _, a := range r.actuals {
		if a.ProjectID == projectID && rng.Contains(a.ActualDate) {
			out = append(out, *a)
		}
	}
	sortActuals(out)
	return out, nil
}

func (r *fakeActualRepo) GetByWorkerAndDateRange(_ context.Context, workerID string, start, end dates.Date) ([]model.Actual, error) {
	rng := dates.Range{From: start, To: end}
	var out []model.Actual
	for _, a := range r.actuals {
		if a.ExternalWorkerID == workerID && rng.Contains(a.ActualDate) {
			out = append(out, *a)
		}
	}
	sortActuals(out)
	return out, nil
}

func sortActuals(out []model.Actual) {
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].ActualDate.Compare(out[j].ActualDate); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
}

func (r *fakeActualRepo) Insert(_ context.Context, a *model.Actual) error {
	a.ID = r.nextID
	r.nextID++
	cp := *a
	r.actuals[a.ID] = &cp
	return nil
}

func (r *fakeActualRepo) Update(_ context.Context, a *model.Actual) error {
	cp := *a
	r.actuals[a.ID] = &cp
	return nil
}

func (r *fakeActualRepo) Delete(_ context.Context, id int) error {
	delete(r.actuals, id)
	return nil
}

type fakeRateRepo struct {
	rates  map[int]*model.Rate
	nextID int
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{rates: map[int]*model.Rate{}, nextID: 1}
}

func (r *fakeRateRepo) GetActiveRate(_ context.Context, workerTypeID int, asOf dates.Date) (*model.Rate, error) {
	var best *model.Rate
	for _, rate := range r.rates {
		if rate.WorkerTypeID != workerTypeID || !rate.ActiveOn(asOf) {
			continue
		}
		if best == nil || rate.StartDate.After(best.StartDate) {
			best = rate
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeRateRepo) ListByWorkerType(_ context.Context, workerTypeID int) ([]model.Rate, error) {
	var out []model.Rate
	for _, rate := range r.rates {
		if rate.WorkerTypeID == workerTypeID {
			out = append(out, *rate)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].StartDate.Before(out[i].StartDate) })
	return out, nil
}

func (r *fakeRateRepo) Insert(_ context.Context, rate *model.Rate, closePrevious bool) error {
	if closePrevious {
		for _, existing := range r.rates {
			if existing.WorkerTypeID == rate.WorkerTypeID && existing.EndDate == nil {
				end := rate.StartDate.Add(-1)
				existing.EndDate = &end
			}
		}
	}
	rate.ID = r.nextID
	r.nextID++
	cp := *rate
	r.rates[rate.ID] = &cp
	return nil
}

type fakeResourceRepo struct {
	resources map[int]*model.Resource
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{resources: map[int]*model.Resource{}}
}

func (r *fakeResourceRepo) Get(_ context.Context, id int) (*model.Resource, error) {
	res, ok := r.resources[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}, nextID: 1}
}

func (r *fakeUserRepo) Insert(_ context.Context, u *model.User) error {
	u.ID = r.nextID
	r.nextID++
	cp := *u
	r.users[u.Email] = &cp
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// noopLocker satisfies AllocationLocker without any coordination; the
// serialization itself is exercised against redis, not here.
type noopLocker struct{ acquires int }

func (l *noopLocker) Acquire(_ context.Context, _, _ string, _ dates.Date) error {
	l.acquires++
	return nil
}

func (l *noopLocker) Release(_ context.Context, _, _ string, _ dates.Date) {}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	keys []string
}

func (p *capturingPublisher) Publish(routingKey string, _ any) error {
	p.keys = append(p.keys, routingKey)
	return nil
}
