package domain

import (
	"fmt"
	"math"
	"time"
)

// Granularity is the time-bucket size used by the resampler.
type Granularity string

const (
	Daily   Granularity = "Daily"
	Weekly  Granularity = "Weekly"
	Monthly Granularity = "Monthly"
)

// ParseGranularity validates a user-supplied granularity string.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Daily, Weekly, Monthly:
		return Granularity(s), nil
	case "":
		return Monthly, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// Sample is one dated observation with named numeric fields, the long
// form fed into the resampler.
type Sample struct {
	Date   time.Time
	Values map[string]float64
}

// SeriesPoint is one time bucket with the summed numeric fields.
// Buckets with no matching samples are omitted, so consecutive points
// are not necessarily adjacent periods.
type SeriesPoint struct {
	Period string             `json:"period"`
	Values map[string]float64 `json:"values"`
}

// CategoryPoint is one (period, category) cell of the melted
// per-category fan-out. Missing category/period combinations are
// zero-filled before melting, so every returned period carries every
// category.
type CategoryPoint struct {
	Period   string  `json:"period"`
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// OrderTypePoint is one time bucket of the orders-by-type pivot.
// Total counts distinct orders; Promo + Regular == Total holds for
// every period.
type OrderTypePoint struct {
	Period  string `json:"period"`
	Total   int    `json:"total"`
	Promo   int    `json:"promo"`
	Regular int    `json:"regular"`
}

// Indicator is a single numeric readout. Defined is false when the value
// is mathematically undefined (empty window, zero denominator); callers
// must surface that as "no data", never as 0.
type Indicator struct {
	Value   float64
	Defined bool
}

// DefinedIndicator wraps a computed value.
func DefinedIndicator(v float64) Indicator {
	return Indicator{Value: v, Defined: true}
}

// UndefinedIndicator marks a readout with no meaningful value.
func UndefinedIndicator() Indicator {
	return Indicator{Value: math.NaN(), Defined: false}
}

// SalesIndicators summarizes the filtered record set for the header row
// of the dashboard.
type SalesIndicators struct {
	AvgDailySales Indicator
	TotalSales    float64
	OrderCount    int
}

// Round2 rounds to two decimal places, the precision of every displayed
// dollar and percentage figure.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}
