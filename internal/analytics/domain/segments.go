package domain

import (
	"github.com/errcHuang/weebly-ecommerce-analytics/internal/gender"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
)

// Histogram bin widths. Spend histograms bucket dollars, count
// histograms bucket whole orders.
const (
	SpendBinWidth      = 25.0
	OrderCountBinWidth = 1.0
)

// HistogramBin is one half-open bucket [Lower, Upper).
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is a fixed-width value histogram. Bins run contiguously from
// the lowest to the highest populated bucket.
type Histogram struct {
	BinWidth float64        `json:"bin_width"`
	Bins     []HistogramBin `json:"bins"`
}

// CustomerOrderCount is one (email, postal code, region) group with its
// distinct-order count.
type CustomerOrderCount struct {
	Email      string
	PostalCode string
	Region     string
	Orders     int
}

// TopSpender is one row of the top-spenders ranking.
type TopSpender struct {
	FirstName  string
	LastName   string
	Email      string
	City       string
	Region     string
	TotalSales float64
}

// GenderBreakdown is the classification tally over distinct customers.
// FemalePercent is undefined when no customer classified into any of the
// four gendered categories.
type GenderBreakdown struct {
	Counts        map[gender.Category]int
	FemalePercent Indicator
}

// WindowSegments bundles the customer aggregates for one trailing window.
type WindowSegments struct {
	Window ordersdomain.TimeWindow

	OrderSpend    Histogram
	AvgOrderValue Indicator

	OrderCounts          []CustomerOrderCount
	OrderCountHistogram  Histogram
	AvgOrdersPerCustomer Indicator

	LifetimeSpend    Histogram
	AvgLifetimeSpend Indicator

	TopSpenders []TopSpender

	Gender GenderBreakdown
}

// CustomerSegments is the full segmentation output, one entry per
// trailing window in display order.
type CustomerSegments struct {
	Windows []WindowSegments
}
