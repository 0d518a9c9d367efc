package timeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skraps68/planner-sub000/internal/model"
	"github.com/skraps68/planner-sub000/pkg/dates"
)

var (
	projStart = dates.MustParse("2024-02-01")
	projEnd   = dates.MustParse("2024-11-30")
)

func phase(id int, name, start, end string) model.Phase {
	return model.Phase{
		ID:        id,
		Name:      name,
		StartDate: dates.MustParse(start),
		EndDate:   dates.MustParse(end),
	}
}

func TestValidate_FullCoverage(t *testing.T) {
	t.Run("single phase spanning the project is valid", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "Default Phase", "2024-02-01", "2024-11-30"),
		}, 0)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	})

	t.Run("contiguous phases are valid", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "Build", "2024-02-01", "2024-06-30"),
			phase(2, "Run", "2024-07-01", "2024-11-30"),
		}, 0)
		assert.True(t, res.Valid)
	})

	t.Run("order of input does not matter", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(2, "Run", "2024-07-01", "2024-11-30"),
			phase(1, "Build", "2024-02-01", "2024-06-30"),
		}, 0)
		assert.True(t, res.Valid)
	})
}

func TestValidate_EmptySet(t *testing.T) {
	res := Validate(projStart, projEnd, nil, 0)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "at least one phase")

	t.Run("exclusion emptying the set fails the same way", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "Only", "2024-02-01", "2024-11-30"),
		}, 1)
		require.False(t, res.Valid)
		assert.Contains(t, res.Errors[0].Message, "at least one phase")
	})
}

func TestValidate_GapRejection(t *testing.T) {
	// Phase1 alone leaves 2024-07-01..2024-11-30 uncovered.
	res := Validate(projStart, projEnd, []model.Phase{
		phase(1, "Phase1", "2024-02-01", "2024-06-30"),
	}, 0)
	require.False(t, res.Valid)

	found := false
	for _, e := range res.Errors {
		if e.Field == "timeline" && strings.Contains(e.Message, "2024-11-30") {
			found = true
		}
	}
	assert.True(t, found, "expected a timeline error naming the project end, got %v", res.Errors)

	t.Run("gap between two phases", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "P1", "2024-02-01", "2024-06-30"),
			phase(2, "P2", "2024-08-01", "2024-11-30"),
		}, 0)
		require.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "timeline", res.Errors[0].Field)
		assert.Contains(t, res.Errors[0].Message, "gap")
		assert.Contains(t, res.Errors[0].Message, "P1")
		assert.Contains(t, res.Errors[0].Message, "P2")
	})
}

func TestValidate_OverlapRejection(t *testing.T) {
	res := Validate(projStart, projEnd, []model.Phase{
		phase(1, "P1", "2024-02-01", "2024-06-30"),
		phase(2, "P2", "2024-06-15", "2024-11-30"),
	}, 0)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "timeline", res.Errors[0].Field)
	assert.Contains(t, res.Errors[0].Message, "overlaps")
	assert.Contains(t, res.Errors[0].Message, "P1")
	assert.Contains(t, res.Errors[0].Message, "P2")
}

func TestValidate_Boundaries(t *testing.T) {
	t.Run("first phase must start on project start", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "Late", "2024-02-02", "2024-11-30"),
		}, 0)
		require.False(t, res.Valid)
		assert.Equal(t, "timeline", res.Errors[0].Field)
	})

	t.Run("last phase must end on project end", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "Short", "2024-02-01", "2024-11-29"),
		}, 0)
		require.False(t, res.Valid)
	})

	t.Run("phase outside project bounds", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "Wide", "2024-01-15", "2024-12-15"),
		}, 0)
		require.False(t, res.Valid)
		fields := make(map[string]bool)
		for _, e := range res.Errors {
			fields[e.Field] = true
		}
		assert.True(t, fields["start_date"])
		assert.True(t, fields["end_date"])
	})
}

func TestValidate_PhaseFields(t *testing.T) {
	t.Run("blank name", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "   ", "2024-02-01", "2024-11-30"),
		}, 0)
		require.False(t, res.Valid)
		assert.Equal(t, "name", res.Errors[0].Field)
		assert.Contains(t, res.Errors[0].Message, "cannot be empty")
		assert.Equal(t, 1, res.Errors[0].PhaseID)
	})

	t.Run("name over 100 characters", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, strings.Repeat("x", 101), "2024-02-01", "2024-11-30"),
		}, 0)
		require.False(t, res.Valid)
		assert.Contains(t, res.Errors[0].Message, "maximum length")
	})

	t.Run("name of exactly 100 characters is fine", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, strings.Repeat("x", 100), "2024-02-01", "2024-11-30"),
		}, 0)
		assert.True(t, res.Valid)
	})

	t.Run("start after end", func(t *testing.T) {
		res := Validate(projStart, projEnd, []model.Phase{
			phase(1, "Backwards", "2024-06-30", "2024-02-01"),
			phase(2, "Rest", "2024-07-01", "2024-11-30"),
		}, 0)
		require.False(t, res.Valid)
		found := false
		for _, e := range res.Errors {
			if e.Field == "start_date" && strings.Contains(e.Message, "after its end date") {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestValidate_AccumulatesAllErrors(t *testing.T) {
	// Blank name, gap, and short coverage at once: all reported.
	res := Validate(projStart, projEnd, []model.Phase{
		phase(1, "", "2024-02-01", "2024-04-30"),
		phase(2, "P2", "2024-06-01", "2024-10-31"),
	}, 0)
	require.False(t, res.Valid)
	assert.GreaterOrEqual(t, len(res.Errors), 3)
}

func TestValidate_ExcludeID(t *testing.T) {
	phases := []model.Phase{
		phase(1, "P1", "2024-02-01", "2024-06-30"),
		phase(2, "P2", "2024-07-01", "2024-11-30"),
	}

	// Excluding P2 and replacing it with a stretched candidate keeps the
	// timeline whole. The candidate carries the same id.
	candidate := phase(2, "P2 stretched", "2024-07-01", "2024-11-30")
	res := Validate(projStart, projEnd, append([]model.Phase{candidate}, phases[0]), 0)
	assert.True(t, res.Valid)

	// Excluding P2 without a replacement breaks coverage.
	res = Validate(projStart, projEnd, phases, 2)
	assert.False(t, res.Valid)
}

func TestFindGaps(t *testing.T) {
	t.Run("empty set is one big gap", func(t *testing.T) {
		gaps := FindGaps(projStart, projEnd, nil)
		require.Len(t, gaps, 1)
		assert.Equal(t, projStart, gaps[0].Start)
		assert.Equal(t, projEnd, gaps[0].End)
	})

	t.Run("leading, middle and trailing gaps", func(t *testing.T) {
		gaps := FindGaps(projStart, projEnd, []model.Phase{
			phase(1, "A", "2024-03-01", "2024-04-30"),
			phase(2, "B", "2024-06-01", "2024-09-30"),
		})
		require.Len(t, gaps, 3)
		assert.Equal(t, Gap{Start: dates.MustParse("2024-02-01"), End: dates.MustParse("2024-02-29")}, gaps[0])
		assert.Equal(t, Gap{Start: dates.MustParse("2024-05-01"), End: dates.MustParse("2024-05-31")}, gaps[1])
		assert.Equal(t, Gap{Start: dates.MustParse("2024-10-01"), End: dates.MustParse("2024-11-30")}, gaps[2])
	})

	t.Run("full coverage has no gaps", func(t *testing.T) {
		gaps := FindGaps(projStart, projEnd, []model.Phase{
			phase(1, "A", "2024-02-01", "2024-06-30"),
			phase(2, "B", "2024-07-01", "2024-11-30"),
		})
		assert.Empty(t, gaps)
	})
}

func TestFindOverlaps(t *testing.T) {
	t.Run("disjoint phases", func(t *testing.T) {
		overlaps := FindOverlaps([]model.Phase{
			phase(1, "A", "2024-02-01", "2024-06-30"),
			phase(2, "B", "2024-07-01", "2024-11-30"),
		})
		assert.Empty(t, overlaps)
	})

	t.Run("touching end and start dates overlap", func(t *testing.T) {
		overlaps := FindOverlaps([]model.Phase{
			phase(1, "A", "2024-02-01", "2024-06-30"),
			phase(2, "B", "2024-06-30", "2024-11-30"),
		})
		require.Len(t, overlaps, 1)
		assert.Equal(t, Overlap{PhaseA: 1, PhaseB: 2}, overlaps[0])
	})

	t.Run("one phase containing another reports every pair", func(t *testing.T) {
		overlaps := FindOverlaps([]model.Phase{
			phase(1, "Outer", "2024-02-01", "2024-11-30"),
			phase(2, "Inner", "2024-03-01", "2024-04-30"),
			phase(3, "Tail", "2024-10-01", "2024-11-30"),
		})
		assert.Len(t, overlaps, 2)
	})
}

func TestCoveringPhase(t *testing.T) {
	phases := []model.Phase{
		phase(1, "P1", "2024-02-01", "2024-06-30"),
		phase(2, "P2", "2024-07-01", "2024-11-30"),
	}

	p := CoveringPhase(phases, dates.MustParse("2024-06-30"))
	require.NotNil(t, p)
	assert.Equal(t, 1, p.ID)

	p = CoveringPhase(phases, dates.MustParse("2024-07-01"))
	require.NotNil(t, p)
	assert.Equal(t, 2, p.ID)

	assert.Nil(t, CoveringPhase(phases, dates.MustParse("2024-01-01")))
	assert.Nil(t, CoveringPhase(nil, dates.MustParse("2024-07-01")))
}

// Every day of a valid timeline is covered by exactly one phase.
func TestTimelineCoverageInvariant(t *testing.T) {
	phases := []model.Phase{
		phase(1, "A", "2024-02-01", "2024-03-15"),
		phase(2, "B", "2024-03-16", "2024-08-02"),
		phase(3, "C", "2024-08-03", "2024-11-30"),
	}
	require.True(t, Validate(projStart, projEnd, phases, 0).Valid)

	for d := projStart; !d.After(projEnd); d = d.Add(1) {
		count := 0
		for _, p := range phases {
			if p.Covers(d) {
				count++
			}
		}
		require.Equal(t, 1, count, "day %s covered %d times", d, count)
	}
}
