// Package allocation enforces the 100% daily allocation ceiling shared by
// resource assignments and worker actuals. The engine only sees the common
// shape (entity key, day, allocation percent) and never touches storage.
package allocation

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/skraps68/planner-sub000/pkg/dates"
)

// Limit is the allocation ceiling per entity per day.
var Limit = decimal.NewFromInt(100)

// Record is the shared shape of an assignment or actual for ceiling checks.
// EntityKey is the resource id or external worker id; Name is optional,
// carried through into conflicts for reporting.
type Record struct {
	ID        int
	EntityKey string
	Name      string
	Date      dates.Date
	Percent   decimal.Decimal
}

// DateConflict is one over-allocated day for a single entity.
type DateConflict struct {
	Date            dates.Date      `json:"date"`
	TotalAllocation decimal.Decimal `json:"total_allocation"`
	OverAllocation  decimal.Decimal `json:"over_allocation"`
}

// BatchConflict is a candidate record that would push its day past the
// ceiling, with the totals that led to the rejection.
type BatchConflict struct {
	EntityKey          string          `json:"entity_key"`
	Name               string          `json:"name,omitempty"`
	Date               dates.Date      `json:"date"`
	ExistingAllocation decimal.Decimal `json:"existing_allocation"`
	NewAllocation      decimal.Decimal `json:"new_allocation"`
	TotalAllocation    decimal.Decimal `json:"total_allocation"`
}

// ValidateLimit reports whether adding newAllocation on top of the existing
// total for a day stays within the ceiling. Callers checking an update must
// pass a total that already excludes the record being modified.
func ValidateLimit(existingTotal, newAllocation decimal.Decimal) bool {
	return existingTotal.Add(newAllocation).Cmp(Limit) <= 0
}

// CheckConflicts groups one entity's records by day, sums the allocation
// percent per day, and reports every day over the ceiling, ordered by date.
func CheckConflicts(records []Record) []DateConflict {
	totals := make(map[dates.Date]decimal.Decimal)
	for _, r := range records {
		totals[r.Date] = totals[r.Date].Add(r.Percent)
	}

	var conflicts []DateConflict
	for day, total := range totals {
		if total.Cmp(Limit) > 0 {
			conflicts = append(conflicts, DateConflict{
				Date:            day,
				TotalAllocation: total,
				OverAllocation:  total.Sub(Limit),
			})
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Date.Before(conflicts[j].Date)
	})
	return conflicts
}

type entityDay struct {
	key string
	day dates.Date
}

// ValidateBatch simulates inserting every candidate against the existing
// per-(entity, day) totals plus the running total of earlier candidates in
// the same batch. existingTotal is consulted once per (entity, day) pair.
// Every candidate that would push its day over the ceiling is reported.
func ValidateBatch(existingTotal func(entityKey string, day dates.Date) decimal.Decimal, candidates []Record) []BatchConflict {
	running := make(map[entityDay]decimal.Decimal)
	existing := make(map[entityDay]decimal.Decimal)

	var conflicts []BatchConflict
	for _, c := range candidates {
		k := entityDay{key: c.EntityKey, day: c.Date}
		if _, ok := existing[k]; !ok {
			existing[k] = existingTotal(c.EntityKey, c.Date)
		}

		base := existing[k].Add(running[k])
		if !ValidateLimit(base, c.Percent) {
			conflicts = append(conflicts, BatchConflict{
				EntityKey:          c.EntityKey,
				Name:               c.Name,
				Date:               c.Date,
				ExistingAllocation: base,
				NewAllocation:      c.Percent,
				TotalAllocation:    base.Add(c.Percent),
			})
			continue
		}
		running[k] = running[k].Add(c.Percent)
	}

	return conflicts
}

// ValidateSplitPercent checks that a full capital/expense split sums to
// exactly 100 percent.
func ValidateSplitPercent(capital, expense decimal.Decimal) bool {
	return capital.Add(expense).Equal(Limit)
}

// SplitWithinLimit checks that a partial capital/expense split does not
// exceed 100 percent.
func SplitWithinLimit(capital, expense decimal.Decimal) bool {
	return capital.Add(expense).Cmp(Limit) <= 0
}

// ValidateSplitAmount checks that capital and expense amounts sum to the
// total cost exactly. Decimal equality, no tolerance.
func ValidateSplitAmount(capital, expense, total decimal.Decimal) bool {
	return capital.Add(expense).Equal(total)
}
