package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "complaintdesk/pkg/domain-errors"
)

func bangkok(t *testing.T) *time.Location {
	t.Helper()
	loc, err := LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	return loc
}

func TestMonthAdd(t *testing.T) {
	tests := []struct {
		from Month
		n    int
		want string
	}{
		{Month{2024, time.March}, -2, "2024-01"},
		{Month{2024, time.March}, -3, "2023-12"},
		{Month{2024, time.January}, -13, "2022-12"},
		{Month{2023, time.December}, 1, "2024-01"},
		{Month{2024, time.June}, 0, "2024-06"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.Add(tt.n).Key())
	}
}

func TestTrailingWrapsAcrossYear(t *testing.T) {
	w := Trailing(Month{2024, time.March}, bangkok(t))

	assert.Equal(t, []string{
		"2023-04", "2023-05", "2023-06", "2023-07", "2023-08", "2023-09",
		"2023-10", "2023-11", "2023-12", "2024-01", "2024-02", "2024-03",
	}, w.Keys())
}

func TestTrailingIsContiguous(t *testing.T) {
	loc := bangkok(t)
	for m := 1; m <= 12; m++ {
		w := Trailing(Month{2025, time.Month(m)}, loc)
		require.Len(t, w.Months, Size)
		assert.Equal(t, Month{2025, time.Month(m)}, w.Months[Size-1])
		for i := 1; i < Size; i++ {
			assert.Equal(t, w.Months[i-1].Add(1), w.Months[i], "gap before %s", w.Months[i].Key())
			assert.Less(t, w.Months[i-1].Key(), w.Months[i].Key())
		}
	}
}

func TestWindowBounds(t *testing.T) {
	loc := bangkok(t)
	w := Trailing(Month{2024, time.February}, loc)

	assert.Equal(t, time.Date(2023, time.March, 1, 0, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 0, loc), w.End)
	assert.True(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.End.Add(time.Second)))
	assert.False(t, w.Contains(w.Start.Add(-time.Second)))
}

func TestWindowIndex(t *testing.T) {
	loc := bangkok(t)
	w := Trailing(Month{2024, time.March}, loc)

	i, ok := w.Index(time.Date(2024, time.January, 10, 0, 0, 0, 0, loc))
	require.True(t, ok)
	assert.Equal(t, "2024-01", w.Months[i].Key())

	// 18:00 UTC on Jan 31 is already Feb 1 in Bangkok.
	i, ok = w.Index(time.Date(2024, time.January, 31, 18, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "2024-02", w.Months[i].Key())

	_, ok = w.Index(time.Date(2024, time.April, 1, 0, 0, 0, 0, loc))
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	loc := bangkok(t)
	now := time.Date(2024, time.May, 31, 20, 0, 0, 0, time.UTC) // June 1 in Bangkok

	w, err := Resolve("", now, loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-06", w.Months[Size-1].Key())

	w, err = Resolve("2023-12", now, loc)
	require.NoError(t, err)
	assert.Equal(t, "2023-01", w.Months[0].Key())

	_, err = Resolve("2023-13", now, loc)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
