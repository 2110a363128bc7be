package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_AddMonths(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	require.Equal(t, date(2023, time.February, 15), AddMonths(date(2023, time.January, 15), 1))
	require.Equal(t, date(2024, time.January, 15), AddMonths(date(2023, time.January, 15), 12))

	// Clamp to the last day of the shorter month.
	require.Equal(t, date(2023, time.February, 28), AddMonths(date(2023, time.January, 31), 1))
	require.Equal(t, date(2024, time.February, 29), AddMonths(date(2024, time.January, 31), 1))
	require.Equal(t, date(2023, time.April, 30), AddMonths(date(2023, time.March, 31), 1))

	// Across year boundaries.
	require.Equal(t, date(2024, time.January, 10), AddMonths(date(2023, time.November, 10), 2))
}
