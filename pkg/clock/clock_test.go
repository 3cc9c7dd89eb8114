package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayStart(t *testing.T) {
	start, err := DayStart("2026-03-15")
	require.NoError(t, err)

	// Midnight GMT+05:00 is 19:00 UTC the previous day.
	assert.Equal(t, time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC), start)
}

func TestDayEnd(t *testing.T) {
	end, err := DayEnd("2026-03-15")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 15, 18, 59, 59, 999000000, time.UTC), end)
}

func TestDayStartInvalid(t *testing.T) {
	_, err := DayStart("15/03/2026")
	require.Error(t, err)

	_, err = DayStart("")
	require.Error(t, err)
}

func TestBusinessDate(t *testing.T) {
	// 20:00 UTC is already past midnight in the business zone.
	late := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-15", BusinessDate(late))

	noon := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-15", BusinessDate(noon))
}

func TestDayBoundsRoundTrip(t *testing.T) {
	start, err := DayStart("2026-03-15")
	require.NoError(t, err)
	end, err := DayEnd("2026-03-15")
	require.NoError(t, err)

	assert.Equal(t, "2026-03-15", BusinessDate(start))
	assert.Equal(t, "2026-03-15", BusinessDate(end))
	assert.True(t, end.After(start))
}
