package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthKey(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		m, err := ParseMonthKey("2023-11")
		require.NoError(t, err)
		assert.Equal(t, MonthKey{Year: 2023, Month: time.November}, m)
		assert.Equal(t, "2023-11", m.String())
	})

	for _, bad := range []string{"", "2023-13", "2023-00", "2023-1", "23-11", "2023/11", "2023-11-01", " 2023-11"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseMonthKey(bad)
			assert.Error(t, err)
		})
	}
}

func TestMonthKey_Timestamp(t *testing.T) {
	m := MonthKey{Year: 2020, Month: time.May}
	assert.Equal(t, "2020-05-15T12:00:00Z", m.Timestamp().Format(time.RFC3339))
}

func TestMonthKey_NextWrapsYear(t *testing.T) {
	assert.Equal(t, MonthKey{Year: 2021, Month: time.January}, MonthKey{Year: 2020, Month: time.December}.Next())
	assert.Equal(t, MonthKey{Year: 2021, Month: time.January}, NewMonthKey(2020, 13))
}

func TestMonthRange(t *testing.T) {
	t.Run("spans years", func(t *testing.T) {
		got := MonthRange(MonthKey{Year: 2018, Month: time.November}, MonthKey{Year: 2019, Month: time.February})
		var names []string
		for _, m := range got {
			names = append(names, m.String())
		}
		assert.Equal(t, []string{"2018-11", "2018-12", "2019-01", "2019-02"}, names)
	})

	t.Run("single month", func(t *testing.T) {
		m := MonthKey{Year: 2024, Month: time.May}
		assert.Equal(t, []MonthKey{m}, MonthRange(m, m))
	})

	t.Run("start after end", func(t *testing.T) {
		assert.Empty(t, MonthRange(MonthKey{Year: 2024, Month: time.June}, MonthKey{Year: 2024, Month: time.May}))
	})

	t.Run("default job range", func(t *testing.T) {
		got := MonthRange(MonthKey{Year: 2018, Month: time.May}, MonthKey{Year: 2024, Month: time.May})
		assert.Len(t, got, 73)
	})
}
