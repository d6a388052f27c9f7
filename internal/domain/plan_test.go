package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMonths() []MonthKey {
	return MonthRange(MonthKey{Year: 2023, Month: time.September}, MonthKey{Year: 2024, Month: time.January})
}

func attempted(pairs []Pair) []string {
	var out []string
	for _, p := range pairs {
		if !p.Skipped {
			out = append(out, p.Region.Name+"/"+p.Month.String())
		}
	}
	return out
}

func TestPlan_NoCursorAttemptsEverything(t *testing.T) {
	pairs := Plan(Regions(), testMonths(), nil)
	require.Len(t, pairs, 25)
	for _, p := range pairs {
		assert.False(t, p.Skipped)
	}
	assert.Equal(t, "superior", pairs[0].Region.Name)
	assert.Equal(t, "2023-09", pairs[0].Month.String())
	assert.Equal(t, "ontario", pairs[24].Region.Name)
	assert.Equal(t, "2024-01", pairs[24].Month.String())
}

func TestPlan_CursorInLastRegion(t *testing.T) {
	cursor := &ResumeCursor{Region: "ontario", Month: MonthKey{Year: 2023, Month: time.November}}
	pairs := Plan(Regions(), testMonths(), cursor)

	assert.Equal(t, []string{"ontario/2023-11", "ontario/2023-12", "ontario/2024-01"}, attempted(pairs))
}

func TestPlan_CursorInMiddleRegion(t *testing.T) {
	cursor := &ResumeCursor{Region: "huron", Month: MonthKey{Year: 2023, Month: time.December}}
	pairs := Plan(Regions(), testMonths(), cursor)

	got := attempted(pairs)
	assert.Equal(t, []string{"huron/2023-12", "huron/2024-01"}, got[:2])
	// Later regions run in full, including months before the cursor month.
	assert.Contains(t, got, "erie/2023-09")
	assert.Contains(t, got, "ontario/2023-09")
	assert.Len(t, got, 2+5+5)
	assert.NotContains(t, got, "michigan/2024-01")
}

func TestPlan_CursorWithoutMonthResumesAtRegionStart(t *testing.T) {
	cursor := &ResumeCursor{Region: "erie"}
	got := attempted(Plan(Regions(), testMonths(), cursor))
	assert.Len(t, got, 10)
	assert.Equal(t, "erie/2023-09", got[0])
}

func TestPlan_CursorMonthOutsideRange(t *testing.T) {
	t.Run("before range", func(t *testing.T) {
		cursor := &ResumeCursor{Region: "erie", Month: MonthKey{Year: 2020, Month: time.January}}
		assert.Len(t, attempted(Plan(Regions(), testMonths(), cursor)), 10)
	})
	t.Run("after range", func(t *testing.T) {
		cursor := &ResumeCursor{Region: "erie", Month: MonthKey{Year: 2030, Month: time.January}}
		assert.Equal(t, []string{"ontario/2023-09", "ontario/2023-10", "ontario/2023-11", "ontario/2023-12", "ontario/2024-01"},
			attempted(Plan(Regions(), testMonths(), cursor)))
	})
}

func TestPlan_CursorRegionNotSelected(t *testing.T) {
	selected, err := SelectRegions([]string{"superior", "ontario"})
	require.NoError(t, err)

	cursor := &ResumeCursor{Region: "huron", Month: MonthKey{Year: 2023, Month: time.December}}
	got := attempted(Plan(selected, testMonths(), cursor))
	assert.Len(t, got, 5)
	assert.Equal(t, "ontario/2023-09", got[0])
}

func TestParseResumeCursor(t *testing.T) {
	c, err := ParseResumeCursor("", "")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = ParseResumeCursor("Ontario", "2023-11")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "ontario/2023-11", c.String())

	c, err = ParseResumeCursor("erie", "")
	require.NoError(t, err)
	assert.Equal(t, "erie", c.String())

	_, err = ParseResumeCursor("", "2023-11")
	assert.Error(t, err)

	_, err = ParseResumeCursor("titicaca", "2023-11")
	assert.Error(t, err)

	_, err = ParseResumeCursor("erie", "2023-13")
	assert.Error(t, err)
}
