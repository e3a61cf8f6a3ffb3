package domain

import (
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
)

// Row labels synthesized by the revenue table builder.
const (
	ShippingRowName = "Shipping"
	TotalRowName    = "Total"
)

// RevenueRow is one product row of the revenue table. Percent is
// meaningless when the owning table's PercentDefined is false.
type RevenueRow struct {
	Product  string
	Quantity int
	Sales    float64
	Percent  float64
}

// RevenueTable is the per-window product revenue breakdown: product rows
// plus the synthetic Shipping row, sorted by descending sales, and a
// synthetic Total row. PercentDefined is false for a window with zero
// total sales, where the percentage column divides by zero.
type RevenueTable struct {
	Window         ordersdomain.TimeWindow
	Rows           []RevenueRow
	Total          RevenueRow
	PercentDefined bool
}
