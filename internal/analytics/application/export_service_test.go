package application

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/gender"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
	th "github.com/errcHuang/weebly-ecommerce-analytics/internal/testhelpers"
)

func newExportService() *ExportService {
	cache := sharedinfra.NewInMemoryCache()
	classifier := th.FakeClassifier{Names: map[string]gender.Category{"Alex": gender.Andy}}
	return NewExportService(
		NewRevenueService(cache),
		NewSegmentService(classifier, cache, nil),
	)
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportRevenueCSV(t *testing.T) {
	svc := newExportService()
	ds := th.Dataset(th.Line("1", "2024-05-20", "Mug", 2, 40, 40, 5))
	start, end, ok := ordersdomain.DefaultBounds(ds.Lines)
	require.True(t, ok)

	data, err := svc.ExportRevenueCSV(ds, start, end, th.Now)
	require.NoError(t, err)

	rows := parseCSV(t, data)
	assert.Equal(t, []string{"Window", "Product Name", "Product Quantity", "Sales ($)", "% of Total Sales"}, rows[0])

	// Four windows, each with Mug, Shipping and Total rows.
	var totals int
	for _, row := range rows[1:] {
		if len(row) > 1 && row[1] == "Total" {
			totals++
		}
	}
	assert.Equal(t, 4, totals)

	mug := rows[1]
	assert.Equal(t, "All to date", mug[0])
	assert.Equal(t, "Mug", mug[1])
	assert.Equal(t, "2", mug[2])
	assert.Equal(t, "40.00", mug[3])
}

func TestExportRevenueCSVUndefinedPercentEmpty(t *testing.T) {
	svc := newExportService()
	// Dataset entirely outside the 30-day window at the pinned clock.
	ds := th.Dataset(th.Line("1", "2024-01-15", "Mug", 1, 20, 20, 0))
	start, end, ok := ordersdomain.DefaultBounds(ds.Lines)
	require.True(t, ok)

	data, err := svc.ExportRevenueCSV(ds, start, end, th.Now)
	require.NoError(t, err)

	var sawEmptyPercent bool
	for _, row := range parseCSV(t, data)[1:] {
		if len(row) == 5 && row[0] == "Past 30 days" && row[4] == "" {
			sawEmptyPercent = true
		}
	}
	assert.True(t, sawEmptyPercent)
}

func TestExportTopSpendersCSV(t *testing.T) {
	svc := newExportService()
	ds := th.Dataset(th.Line("1", "2024-05-20", "Mug", 1, 150, 150, 15))
	start, end, ok := ordersdomain.DefaultBounds(ds.Lines)
	require.True(t, ok)

	data, err := svc.ExportTopSpendersCSV(ds, start, end, th.Now)
	require.NoError(t, err)

	rows := parseCSV(t, data)
	assert.Equal(t, []string{"Window", "First Name", "Last Name", "Email", "City", "Region", "Total Sales ($)"}, rows[0])

	spender := rows[1]
	assert.Equal(t, "All to date", spender[0])
	assert.Equal(t, "Alex", spender[1])
	assert.Equal(t, "165.00", spender[6])
}
