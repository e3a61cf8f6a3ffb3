package application

import (
	"time"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/analytics/domain"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
)

// SalesService serves the sales and orders chart series plus the header
// indicators. Every result is recomputed from the filtered record set
// and cached per (dataset, filter, granularity); uploads clear the cache
// by replacing the dataset id.
type SalesService struct {
	cache    sharedinfra.Cache
	cacheTTL time.Duration
}

// NewSalesService creates a SalesService over cache.
func NewSalesService(cache sharedinfra.Cache) *SalesService {
	return &SalesService{
		cache:    cache,
		cacheTTL: 5 * time.Minute,
	}
}

// OverallSeries returns the aggregate combined-revenue series for the
// filtered dataset.
func (s *SalesService) OverallSeries(ds *ordersdomain.Dataset, start, end time.Time, g domain.Granularity) []domain.SeriesPoint {
	key := s.key("sales", ds, start, end, string(g))
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.SeriesPoint)
	}

	series := OverallSalesSeries(ordersdomain.FilterByDate(ds.Lines, start, end), g)
	s.cache.Set(key, series, s.cacheTTL)
	return series
}

// ProductSeries returns the per-product fan-out series for the filtered
// dataset.
func (s *SalesService) ProductSeries(ds *ordersdomain.Dataset, start, end time.Time, g domain.Granularity) []domain.CategoryPoint {
	key := s.key("sales-by-product", ds, start, end, string(g))
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.CategoryPoint)
	}

	series := SalesByProduct(ordersdomain.FilterByDate(ds.Lines, start, end), g)
	s.cache.Set(key, series, s.cacheTTL)
	return series
}

// OrderTypeSeries returns the orders-by-type pivot for the filtered
// dataset. The aggregate orders chart reads the Total column of the same
// pivot.
func (s *SalesService) OrderTypeSeries(ds *ordersdomain.Dataset, start, end time.Time, g domain.Granularity) []domain.OrderTypePoint {
	key := s.key("orders-by-type", ds, start, end, string(g))
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.OrderTypePoint)
	}

	series := OrdersByType(ordersdomain.FilterByDate(ds.Lines, start, end), g)
	s.cache.Set(key, series, s.cacheTTL)
	return series
}

// Indicators computes the filtered-range header readouts: average
// per-day combined revenue (resampled daily, then averaged over the
// populated days), total combined revenue, and distinct order count.
func (s *SalesService) Indicators(ds *ordersdomain.Dataset, start, end time.Time) domain.SalesIndicators {
	key := s.key("indicators", ds, start, end, "")
	if cached, ok := s.cache.Get(key); ok {
		return cached.(domain.SalesIndicators)
	}

	filtered := ordersdomain.FilterByDate(ds.Lines, start, end)
	ind := BuildSalesIndicators(filtered)
	s.cache.Set(key, ind, s.cacheTTL)
	return ind
}

// BuildSalesIndicators is the pure form of Indicators.
func BuildSalesIndicators(lines []ordersdomain.OrderLine) domain.SalesIndicators {
	orders := ordersdomain.CollapseOrders(lines)

	var total float64
	for _, o := range orders {
		total += o.TotalValue()
	}

	// Average per populated day, not per order.
	daily := OverallSalesSeries(lines, domain.Daily)
	avg := domain.UndefinedIndicator()
	if len(daily) > 0 {
		var sum float64
		for _, p := range daily {
			sum += p.Values[FieldSales]
		}
		avg = domain.DefinedIndicator(domain.Round2(sum / float64(len(daily))))
	}

	return domain.SalesIndicators{
		AvgDailySales: avg,
		TotalSales:    domain.Round2(total),
		OrderCount:    len(orders),
	}
}

func (s *SalesService) key(op string, ds *ordersdomain.Dataset, start, end time.Time, extra string) string {
	kb := sharedinfra.NewKeyBuilder().
		Add(op).
		Add(ds.ID).
		AddTime(start).
		AddTime(end)
	if extra != "" {
		kb.Add(extra)
	}
	return kb.Build()
}
