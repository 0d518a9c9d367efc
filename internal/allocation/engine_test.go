package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skraps68/planner-sub000/pkg/dates"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidateLimit(t *testing.T) {
	t.Run("60 plus 50 is rejected", func(t *testing.T) {
		assert.False(t, ValidateLimit(dec("60"), dec("50")))
	})

	t.Run("60 plus 40 lands exactly on 100 and passes", func(t *testing.T) {
		assert.True(t, ValidateLimit(dec("60"), dec("40")))
	})

	t.Run("zero existing total", func(t *testing.T) {
		assert.True(t, ValidateLimit(decimal.Zero, dec("100")))
		assert.False(t, ValidateLimit(decimal.Zero, dec("100.01")))
	})

	t.Run("fractional percentages are exact", func(t *testing.T) {
		assert.True(t, ValidateLimit(dec("33.33"), dec("66.67")))
		assert.False(t, ValidateLimit(dec("33.34"), dec("66.67")))
	})
}

func TestCheckConflicts(t *testing.T) {
	day1 := dates.MustParse("2024-01-15")
	day2 := dates.MustParse("2024-01-16")
	day3 := dates.MustParse("2024-01-17")

	records := []Record{
		{EntityKey: "R1", Date: day2, Percent: dec("80")},
		{EntityKey: "R1", Date: day1, Percent: dec("60")},
		{EntityKey: "R1", Date: day1, Percent: dec("50")},
		{EntityKey: "R1", Date: day2, Percent: dec("40")},
		{EntityKey: "R1", Date: day3, Percent: dec("100")},
	}

	conflicts := CheckConflicts(records)
	require.Len(t, conflicts, 2)

	// ordered by date
	assert.Equal(t, day1, conflicts[0].Date)
	assert.True(t, conflicts[0].TotalAllocation.Equal(dec("110")))
	assert.True(t, conflicts[0].OverAllocation.Equal(dec("10")))

	assert.Equal(t, day2, conflicts[1].Date)
	assert.True(t, conflicts[1].OverAllocation.Equal(dec("20")))

	t.Run("no conflicts on empty input", func(t *testing.T) {
		assert.Empty(t, CheckConflicts(nil))
	})

	t.Run("exactly 100 is not a conflict", func(t *testing.T) {
		assert.Empty(t, CheckConflicts([]Record{
			{EntityKey: "R1", Date: day1, Percent: dec("60")},
			{EntityKey: "R1", Date: day1, Percent: dec("40")},
		}))
	})
}

func TestValidateBatch(t *testing.T) {
	day := dates.MustParse("2024-03-04")

	existing := func(totals map[string]decimal.Decimal) func(string, dates.Date) decimal.Decimal {
		return func(key string, _ dates.Date) decimal.Decimal {
			return totals[key]
		}
	}

	t.Run("candidate colliding with existing total", func(t *testing.T) {
		conflicts := ValidateBatch(existing(map[string]decimal.Decimal{"W1": dec("60")}), []Record{
			{EntityKey: "W1", Name: "Ada", Date: day, Percent: dec("50")},
		})
		require.Len(t, conflicts, 1)
		c := conflicts[0]
		assert.Equal(t, "W1", c.EntityKey)
		assert.Equal(t, "Ada", c.Name)
		assert.Equal(t, day, c.Date)
		assert.True(t, c.ExistingAllocation.Equal(dec("60")))
		assert.True(t, c.NewAllocation.Equal(dec("50")))
		assert.True(t, c.TotalAllocation.Equal(dec("110")))
	})

	t.Run("candidates within one batch add up", func(t *testing.T) {
		conflicts := ValidateBatch(existing(nil), []Record{
			{EntityKey: "W1", Date: day, Percent: dec("70")},
			{EntityKey: "W1", Date: day, Percent: dec("40")},
		})
		require.Len(t, conflicts, 1)
		assert.True(t, conflicts[0].ExistingAllocation.Equal(dec("70")))
	})

	t.Run("rejected candidate does not poison the running total", func(t *testing.T) {
		conflicts := ValidateBatch(existing(nil), []Record{
			{EntityKey: "W1", Date: day, Percent: dec("70")},
			{EntityKey: "W1", Date: day, Percent: dec("40")}, // rejected
			{EntityKey: "W1", Date: day, Percent: dec("30")}, // still fits
		})
		require.Len(t, conflicts, 1)
		assert.True(t, conflicts[0].NewAllocation.Equal(dec("40")))
	})

	t.Run("entities and days are independent", func(t *testing.T) {
		otherDay := dates.MustParse("2024-03-05")
		conflicts := ValidateBatch(existing(map[string]decimal.Decimal{"W1": dec("90")}), []Record{
			{EntityKey: "W1", Date: otherDay, Percent: dec("90")},
			{EntityKey: "W2", Date: day, Percent: dec("90")},
		})
		// existing total only applies to W1 on its own day; the lookup
		// here keys by entity alone, and neither candidate exceeds 100.
		assert.Empty(t, conflicts)
	})
}

func TestValidateSplitPercent(t *testing.T) {
	assert.True(t, ValidateSplitPercent(dec("60"), dec("40")))
	assert.False(t, ValidateSplitPercent(dec("60"), dec("30")))
	assert.False(t, ValidateSplitPercent(dec("60"), dec("50")))

	assert.True(t, SplitWithinLimit(dec("60"), dec("30")))
	assert.False(t, SplitWithinLimit(dec("60"), dec("50")))
}

func TestValidateSplitAmount(t *testing.T) {
	t.Run("900 against a cost of 800 is rejected", func(t *testing.T) {
		assert.False(t, ValidateSplitAmount(dec("500.00"), dec("400.00"), dec("800.00")))
	})

	t.Run("exact split is accepted", func(t *testing.T) {
		assert.True(t, ValidateSplitAmount(dec("480.00"), dec("320.00"), dec("800.00")))
	})

	t.Run("scale differences do not break equality", func(t *testing.T) {
		assert.True(t, ValidateSplitAmount(dec("480"), dec("320.00"), dec("800.0")))
	})
}
