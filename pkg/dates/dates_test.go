package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid ISO date", func(t *testing.T) {
		d, err := Parse("2024-02-01")
		require.NoError(t, err)
		assert.Equal(t, 2024, d.Year())
		assert.Equal(t, time.February, d.Month())
		assert.Equal(t, 1, d.Day())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := Parse("02/01/2024")
		require.Error(t, err)
	})

	t.Run("round trips through String", func(t *testing.T) {
		d := MustParse("2024-11-30")
		assert.Equal(t, "2024-11-30", d.String())
	})
}

func TestDate_Add(t *testing.T) {
	d := MustParse("2024-06-30")
	assert.Equal(t, MustParse("2024-07-01"), d.Add(1))
	assert.Equal(t, MustParse("2024-06-29"), d.Add(-1))

	// normalization across month and year boundaries
	assert.Equal(t, MustParse("2025-01-01"), MustParse("2024-12-31").Add(1))
	assert.Equal(t, MustParse("2024-02-29"), MustParse("2024-02-28").Add(1)) // leap year
}

func TestDate_Ordering(t *testing.T) {
	a := MustParse("2024-02-01")
	b := MustParse("2024-02-02")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Before(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestDate_DaysUntil(t *testing.T) {
	a := MustParse("2024-02-01")
	assert.Equal(t, 0, a.DaysUntil(a))
	assert.Equal(t, 28, a.DaysUntil(MustParse("2024-02-29")))
	assert.Equal(t, -1, a.DaysUntil(MustParse("2024-01-31")))
}

func TestDate_JSON(t *testing.T) {
	d := MustParse("2024-07-01")

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-07-01"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, d, back)

	require.Error(t, json.Unmarshal([]byte(`"not-a-date"`), &back))
}

func TestRange(t *testing.T) {
	r := NewRange(MustParse("2024-02-01"), MustParse("2024-06-30"))

	assert.True(t, r.Contains(MustParse("2024-02-01")))
	assert.True(t, r.Contains(MustParse("2024-06-30")))
	assert.True(t, r.Contains(MustParse("2024-04-15")))
	assert.False(t, r.Contains(MustParse("2024-01-31")))
	assert.False(t, r.Contains(MustParse("2024-07-01")))

	// reversed bounds are swapped
	rev := NewRange(MustParse("2024-06-30"), MustParse("2024-02-01"))
	assert.Equal(t, r, rev)

	assert.Equal(t, 1, NewRange(MustParse("2024-02-01"), MustParse("2024-02-01")).Days())
	assert.Equal(t, 29, NewRange(MustParse("2024-02-01"), MustParse("2024-02-29")).Days())
}
