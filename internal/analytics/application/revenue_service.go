package application

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/analytics/domain"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
)

// RevenueService builds the four trailing-window revenue tables. The
// windows are measured from the caller-supplied now, compounding with
// the interactive date filter rather than replacing it.
type RevenueService struct {
	cache    sharedinfra.Cache
	cacheTTL time.Duration
}

// NewRevenueService creates a RevenueService over cache.
func NewRevenueService(cache sharedinfra.Cache) *RevenueService {
	return &RevenueService{
		cache:    cache,
		cacheTTL: 5 * time.Minute,
	}
}

// Tables returns one revenue table per trailing window for the filtered
// dataset.
func (s *RevenueService) Tables(ds *ordersdomain.Dataset, start, end, now time.Time) []domain.RevenueTable {
	key := sharedinfra.NewKeyBuilder().
		Add("revenue-tables").
		Add(ds.ID).
		AddTime(start).
		AddTime(end).
		AddTime(now).
		Build()
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]domain.RevenueTable)
	}

	tables := BuildRevenueTables(ordersdomain.FilterByDate(ds.Lines, start, end), now)
	s.cache.Set(key, tables, s.cacheTTL)
	return tables
}

// BuildRevenueTables computes the four window tables. The windows are
// independent of each other and read an immutable line slice, so they
// run on parallel goroutines.
func BuildRevenueTables(lines []ordersdomain.OrderLine, now time.Time) []domain.RevenueTable {
	windows := ordersdomain.Windows()
	tables := make([]domain.RevenueTable, len(windows))

	var wg sync.WaitGroup
	for i, w := range windows {
		i, w := i, w
		wg.Add(1)
		go func() {
			defer wg.Done()
			tables[i] = buildRevenueTable(lines, w, now)
		}()
	}
	wg.Wait()

	return tables
}

// buildRevenueTable groups one window's lines by product, appends the
// synthetic Shipping and Total rows, and computes each row's share of
// total sales.
func buildRevenueTable(lines []ordersdomain.OrderLine, w ordersdomain.TimeWindow, now time.Time) domain.RevenueTable {
	wlines := w.Apply(lines, now)

	type agg struct {
		quantity int
		sales    float64
	}
	byProduct := make(map[string]*agg)
	for _, l := range wlines {
		if !l.HasProduct() {
			continue
		}
		a, ok := byProduct[l.ProductName]
		if !ok {
			a = &agg{}
			byProduct[l.ProductName] = a
		}
		a.quantity += l.Quantity
		a.sales += l.LineSales
	}

	rows := make([]domain.RevenueRow, 0, len(byProduct)+1)
	for name, a := range byProduct {
		rows = append(rows, domain.RevenueRow{Product: name, Quantity: a.quantity, Sales: a.sales})
	}

	// The Shipping row counts shipping line items and sums their
	// price; shipping is displayed alongside products even though it
	// is not one.
	shipping := domain.RevenueRow{Product: domain.ShippingRowName}
	for _, l := range wlines {
		if l.HasShipping {
			shipping.Quantity++
			shipping.Sales += l.ShippingPrice
		}
	}
	rows = append(rows, shipping)

	var totalSales float64
	for _, r := range rows {
		totalSales += r.Sales
	}

	// A zero-total window has no meaningful percentage column; it is
	// surfaced as undefined, never as 0.
	percentDefined := totalSales != 0
	for i := range rows {
		if percentDefined {
			rows[i].Percent = rows[i].Sales / totalSales * 100
		} else {
			rows[i].Percent = math.NaN()
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Sales != rows[j].Sales {
			return rows[i].Sales > rows[j].Sales
		}
		return rows[i].Product < rows[j].Product
	})

	total := domain.RevenueRow{Product: domain.TotalRowName}
	for _, r := range rows {
		total.Quantity += r.Quantity
		total.Sales += r.Sales
		total.Percent += r.Percent
	}
	if !percentDefined {
		total.Percent = math.NaN()
	}

	for i := range rows {
		rows[i].Sales = domain.Round2(rows[i].Sales)
		rows[i].Percent = domain.Round2(rows[i].Percent)
	}
	total.Sales = domain.Round2(total.Sales)
	total.Percent = domain.Round2(total.Percent)

	return domain.RevenueTable{
		Window:         w,
		Rows:           rows,
		Total:          total,
		PercentDefined: percentDefined,
	}
}
