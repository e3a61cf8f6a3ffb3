package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
	th "github.com/errcHuang/weebly-ecommerce-analytics/internal/testhelpers"
)

func TestWindowsDisplayOrder(t *testing.T) {
	ws := domain.Windows()
	require.Len(t, ws, 4)
	assert.Equal(t, "All to date", ws[0].Label())
	assert.Equal(t, "Past 30 days", ws[1].Label())
	assert.Equal(t, "Past 13 weeks", ws[2].Label())
	assert.Equal(t, "Past 52 weeks", ws[3].Label())
}

func TestWindowContainsHalfOpenLeft(t *testing.T) {
	now := th.Now // 2024-06-01

	// Exactly 30 days back falls on the open boundary and is excluded.
	boundary := now.AddDate(0, 0, -30)
	assert.False(t, domain.WindowLast30Days.Contains(now, boundary))
	assert.True(t, domain.WindowLast30Days.Contains(now, boundary.AddDate(0, 0, 1)))

	// now itself is included.
	assert.True(t, domain.WindowLast30Days.Contains(now, now))

	// Future dates never match, not even for the unbounded window.
	assert.False(t, domain.WindowLast30Days.Contains(now, now.AddDate(0, 0, 1)))
	assert.False(t, domain.WindowAll.Contains(now, now.AddDate(0, 0, 1)))
}

func TestWindowAllHasNoLowerBound(t *testing.T) {
	_, bounded := domain.WindowAll.Start(th.Now)
	assert.False(t, bounded)
	assert.True(t, domain.WindowAll.Contains(th.Now, th.Day("1999-01-01")))
}

func TestWindowStartOffsets(t *testing.T) {
	now := th.Now

	s30, ok := domain.WindowLast30Days.Start(now)
	require.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, -30), s30)

	s13, ok := domain.WindowLast13Weeks.Start(now)
	require.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, -91), s13)

	s52, ok := domain.WindowLast52Weeks.Start(now)
	require.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, -364), s52)
}

func TestWindowApplyFiltersLines(t *testing.T) {
	lines := []domain.OrderLine{
		th.Line("1", "2024-05-20", "Mug", 1, 10, 10, 0),  // inside 30d
		th.Line("2", "2024-04-01", "Mug", 1, 10, 10, 0),  // outside 30d, inside 13w
		th.Line("3", "2022-01-01", "Mug", 1, 10, 10, 0),  // outside all trailing windows
	}

	assert.Len(t, domain.WindowAll.Apply(lines, th.Now), 3)
	assert.Len(t, domain.WindowLast30Days.Apply(lines, th.Now), 1)
	assert.Len(t, domain.WindowLast13Weeks.Apply(lines, th.Now), 2)
	assert.Len(t, domain.WindowLast52Weeks.Apply(lines, th.Now), 2)
}
