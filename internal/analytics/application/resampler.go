package application

import (
	"sort"
	"time"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/analytics/domain"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
)

// FieldSales is the canonical name of the combined-revenue series field.
const FieldSales = "Sales ($)"

// Resample buckets samples into daily/weekly/monthly periods and sums
// every named field within each bucket. Monthly buckets follow the
// calendar (label YYYY-MM); weekly buckets are a 7-day cadence anchored
// at the earliest sample date; daily buckets are calendar days (label
// YYYY-MM-DD). Periods with no samples are omitted, so resampling only
// regroups value mass, it never adds or drops any.
func Resample(samples []domain.Sample, g domain.Granularity) []domain.SeriesPoint {
	if len(samples) == 0 {
		return nil
	}

	anchor := minSampleDate(samples)
	buckets := make(map[string]map[string]float64)
	for _, s := range samples {
		label := periodLabel(g, anchor, s.Date)
		sums, ok := buckets[label]
		if !ok {
			sums = make(map[string]float64)
			buckets[label] = sums
		}
		for field, v := range s.Values {
			sums[field] += v
		}
	}

	points := make([]domain.SeriesPoint, 0, len(buckets))
	for label, sums := range buckets {
		points = append(points, domain.SeriesPoint{Period: label, Values: sums})
	}
	// Period labels are zero-padded ISO dates, so lexicographic order
	// is chronological order.
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}

// OverallSalesSeries resamples combined revenue (subtotal + shipping,
// counted once per distinct order) under the FieldSales key.
func OverallSalesSeries(lines []ordersdomain.OrderLine, g domain.Granularity) []domain.SeriesPoint {
	orders := ordersdomain.CollapseOrders(lines)
	samples := make([]domain.Sample, 0, len(orders))
	for _, o := range orders {
		samples = append(samples, domain.Sample{
			Date:   o.Date,
			Values: map[string]float64{FieldSales: o.TotalValue()},
		})
	}
	return Resample(samples, g)
}

// SalesByProduct builds the per-category sales fan-out: line sales are
// pivoted to one column per distinct non-null product name, missing
// category/period cells are filled with 0, resampled, then melted back
// to (period, category, value) form. Pivoting before resampling is
// required; resampling the long form directly would merge rows across
// categories. A synthetic "Shipping" category carries each period's
// shipping revenue, counted once per distinct order.
func SalesByProduct(lines []ordersdomain.OrderLine, g domain.Granularity) []domain.CategoryPoint {
	if len(lines) == 0 {
		return nil
	}

	categories := ordersdomain.ProductNames(lines)
	anchor := minLineDate(lines)

	labels := make(map[string]struct{})
	sales := make(map[string]map[string]float64)
	for _, l := range lines {
		label := periodLabel(g, anchor, l.Date)
		labels[label] = struct{}{}
		if !l.HasProduct() {
			continue
		}
		byCat, ok := sales[label]
		if !ok {
			byCat = make(map[string]float64)
			sales[label] = byCat
		}
		byCat[l.ProductName] += l.LineSales
	}

	shipping := make(map[string]float64)
	for _, o := range ordersdomain.CollapseOrders(lines) {
		shipping[periodLabel(g, anchor, o.Date)] += o.ShippingPrice
	}

	sorted := make([]string, 0, len(labels))
	for label := range labels {
		sorted = append(sorted, label)
	}
	sort.Strings(sorted)

	points := make([]domain.CategoryPoint, 0, len(sorted)*(len(categories)+1))
	for _, label := range sorted {
		for _, cat := range categories {
			points = append(points, domain.CategoryPoint{
				Period:   label,
				Category: cat,
				Value:    sales[label][cat],
			})
		}
		points = append(points, domain.CategoryPoint{
			Period:   label,
			Category: domain.ShippingRowName,
			Value:    shipping[label],
		})
	}
	return points
}

// OrdersByType builds the orders-by-type pivot: per period, Total counts
// distinct order ids, Promo counts those with a coupon, and Regular is
// the difference. Lines are deduplicated to orders before counting;
// counting lines would overstate multi-product orders.
func OrdersByType(lines []ordersdomain.OrderLine, g domain.Granularity) []domain.OrderTypePoint {
	orders := ordersdomain.CollapseOrders(lines)
	if len(orders) == 0 {
		return nil
	}

	anchor := minLineDate(lines)
	buckets := make(map[string]*domain.OrderTypePoint)
	for _, o := range orders {
		label := periodLabel(g, anchor, o.Date)
		p, ok := buckets[label]
		if !ok {
			p = &domain.OrderTypePoint{Period: label}
			buckets[label] = p
		}
		p.Total++
		if o.HasCoupon() {
			p.Promo++
		}
	}

	points := make([]domain.OrderTypePoint, 0, len(buckets))
	for _, p := range buckets {
		p.Regular = p.Total - p.Promo
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points
}

// periodLabel maps a date to its bucket label. anchor fixes the weekly
// cadence to the dataset's first date.
func periodLabel(g domain.Granularity, anchor, d time.Time) string {
	switch g {
	case domain.Monthly:
		return d.Format("2006-01")
	case domain.Weekly:
		days := int(d.Sub(anchor).Hours() / 24)
		if days < 0 {
			// Should not happen with a min-date anchor; clamp to the
			// anchor week rather than emit a pre-anchor label.
			days = 0
		}
		return anchor.AddDate(0, 0, (days/7)*7).Format("2006-01-02")
	default:
		return d.Format("2006-01-02")
	}
}

func minSampleDate(samples []domain.Sample) time.Time {
	min := samples[0].Date
	for _, s := range samples[1:] {
		if s.Date.Before(min) {
			min = s.Date
		}
	}
	return min
}

func minLineDate(lines []ordersdomain.OrderLine) time.Time {
	min := lines[0].Date
	for _, l := range lines[1:] {
		if l.Date.Before(min) {
			min = l.Date
		}
	}
	return min
}
