// Package timeline checks that a project's phases form a gap-free,
// non-overlapping tiling of the project's full duration. Pure functions,
// no I/O: services run these before any write.
package timeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/skraps68/planner-sub000/internal/apperr"
	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

// Result is the outcome of a timeline validation. Errors holds every
// violated constraint, never just the first.
type Result struct {
	Valid  bool
	Errors []apperr.FieldError
}

// Gap is a maximal run of project days covered by no phase.
type Gap struct {
	Start dates.Date `json:"start"`
	End   dates.Date `json:"end"`
}

// Overlap identifies two phases whose date ranges intersect.
type Overlap struct {
	PhaseA int `json:"phase_a"`
	PhaseB int `json:"phase_b"`
}

// sortPhases orders phases by start date, ties broken by id so the order
// is deterministic for same-start phases.
func sortPhases(phases []model.Phase) []model.Phase {
	sorted := make([]model.Phase, len(phases))
	copy(sorted, phases)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].StartDate.Compare(sorted[j].StartDate); c != 0 {
			return c < 0
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// Validate checks that phases tile [projectStart, projectEnd] exactly:
// sorted by start date the phases must be pairwise non-overlapping and
// contiguous, the first must start on projectStart and the last must end
// on projectEnd. excludeID, when non-zero, drops that phase from the set
// first; update paths use it to ask "would the timeline still hold with
// this phase replaced". All violations are accumulated.
func Validate(projectStart, projectEnd dates.Date, phases []model.Phase, excludeID int) Result {
	kept := make([]model.Phase, 0, len(phases))
	for _, p := range phases {
		if excludeID != 0 && p.ID == excludeID {
			continue
		}
		kept = append(kept, p)
	}

	var errs []apperr.FieldError

	if len(kept) == 0 {
		errs = append(errs, apperr.FieldError{
			Field:   "phases",
			Message: "project must have at least one phase",
		})
		return Result{Valid: false, Errors: errs}
	}

	for _, p := range kept {
		errs = append(errs, validatePhaseFields(projectStart, projectEnd, p)...)
	}

	sorted := sortPhases(kept)

	if first := sorted[0]; first.StartDate != projectStart {
		errs = append(errs, apperr.FieldError{
			Field:   "timeline",
			Message: fmt.Sprintf("first phase %q starts on %s, project starts on %s", first.Name, first.StartDate, projectStart),
			PhaseID: first.ID,
		})
	}
	if last := sorted[len(sorted)-1]; last.EndDate != projectEnd {
		errs = append(errs, apperr.FieldError{
			Field:   "timeline",
			Message: fmt.Sprintf("last phase %q ends on %s, project ends on %s", last.Name, last.EndDate, projectEnd),
			PhaseID: last.ID,
		})
	}

	for i := 0; i < len(sorted)-1; i++ {
		cur, next := sorted[i], sorted[i+1]
		switch {
		case next.StartDate.After(cur.EndDate.Add(1)):
			errs = append(errs, apperr.FieldError{
				Field: "timeline",
				Message: fmt.Sprintf("gap between phase %q ending %s and phase %q starting %s",
					cur.Name, cur.EndDate, next.Name, next.StartDate),
				PhaseID: next.ID,
			})
		case !next.StartDate.After(cur.EndDate):
			errs = append(errs, apperr.FieldError{
				Field: "timeline",
				Message: fmt.Sprintf("phase %q (%s..%s) overlaps phase %q (%s..%s)",
					cur.Name, cur.StartDate, cur.EndDate, next.Name, next.StartDate, next.EndDate),
				PhaseID: next.ID,
			})
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func validatePhaseFields(projectStart, projectEnd dates.Date, p model.Phase) []apperr.FieldError {
	var errs []apperr.FieldError

	name := strings.TrimSpace(p.Name)
	if name == "" {
		errs = append(errs, apperr.FieldError{
			Field:   "name",
			Message: "phase name cannot be empty",
			PhaseID: p.ID,
		})
	} else if len(name) > model.MaxPhaseNameLength {
		errs = append(errs, apperr.FieldError{
			Field:   "name",
			Message: fmt.Sprintf("phase name exceeds maximum length of %d characters", model.MaxPhaseNameLength),
			PhaseID: p.ID,
		})
	}

	if p.StartDate.After(p.EndDate) {
		errs = append(errs, apperr.FieldError{
			Field:   "start_date",
			Message: fmt.Sprintf("phase %q start date %s is after its end date %s", p.Name, p.StartDate, p.EndDate),
			PhaseID: p.ID,
		})
	}
	if p.StartDate.Before(projectStart) {
		errs = append(errs, apperr.FieldError{
			Field:   "start_date",
			Message: fmt.Sprintf("phase %q starts %s, before project start %s", p.Name, p.StartDate, projectStart),
			PhaseID: p.ID,
		})
	}
	if p.EndDate.After(projectEnd) {
		errs = append(errs, apperr.FieldError{
			Field:   "end_date",
			Message: fmt.Sprintf("phase %q ends %s, after project end %s", p.Name, p.EndDate, projectEnd),
			PhaseID: p.ID,
		})
	}

	return errs
}

// FindGaps reports every maximal run of days in [projectStart, projectEnd]
// covered by no phase. An empty phase set yields the whole project span.
func FindGaps(projectStart, projectEnd dates.Date, phases []model.Phase) []Gap {
	if len(phases) == 0 {
		return []Gap{{Start: projectStart, End: projectEnd}}
	}

	sorted := sortPhases(phases)
	var gaps []Gap

	if first := sorted[0]; first.StartDate.After(projectStart) {
		gaps = append(gaps, Gap{Start: projectStart, End: first.StartDate.Add(-1)})
	}

	for i := 0; i < len(sorted)-1; i++ {
		cur, next := sorted[i], sorted[i+1]
		if next.StartDate.After(cur.EndDate.Add(1)) {
			gaps = append(gaps, Gap{Start: cur.EndDate.Add(1), End: next.StartDate.Add(-1)})
		}
	}

	if last := sorted[len(sorted)-1]; last.EndDate.Before(projectEnd) {
		gaps = append(gaps, Gap{Start: last.EndDate.Add(1), End: projectEnd})
	}

	return gaps
}

// FindOverlaps reports every pair of phases whose ranges intersect. Pairs
// are ordered by start date, each reported once.
func FindOverlaps(phases []model.Phase) []Overlap {
	sorted := sortPhases(phases)
	var overlaps []Overlap

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if !a.StartDate.After(b.EndDate) && !b.StartDate.After(a.EndDate) {
				overlaps = append(overlaps, Overlap{PhaseA: a.ID, PhaseB: b.ID})
			}
		}
	}

	return overlaps
}

// CoveringPhase returns the phase containing the given day, or nil when no
// phase covers it. Valid timelines guarantee at most one match.
func CoveringPhase(phases []model.Phase, day dates.Date) *model.Phase {
	for i := range phases {
		if phases[i].Covers(day) {
			return &phases[i]
		}
	}
	return nil
}
