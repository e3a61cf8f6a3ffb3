package application

import (
	"math"
	"sort"
	"time"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/analytics/domain"
	"github.com/errcHuang/weebly-ecommerce-analytics/internal/gender"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
)

// SegmentService builds the customer segmentation aggregates for the
// four trailing windows. Gender classification is delegated to the
// injected collaborator; the four windows run as a batch on the shared
// worker pool since each reads the same immutable line slice.
type SegmentService struct {
	classifier gender.Classifier
	cache      sharedinfra.Cache
	pool       *sharedinfra.WorkerPool
	cacheTTL   time.Duration
}

// NewSegmentService creates a SegmentService. pool may be nil, in which
// case the windows are computed sequentially.
func NewSegmentService(classifier gender.Classifier, cache sharedinfra.Cache, pool *sharedinfra.WorkerPool) *SegmentService {
	return &SegmentService{
		classifier: classifier,
		cache:      cache,
		pool:       pool,
		cacheTTL:   5 * time.Minute,
	}
}

// Segments returns the per-window customer aggregates for the filtered
// dataset.
func (s *SegmentService) Segments(ds *ordersdomain.Dataset, start, end, now time.Time) (domain.CustomerSegments, error) {
	key := sharedinfra.NewKeyBuilder().
		Add("customer-segments").
		Add(ds.ID).
		AddTime(start).
		AddTime(end).
		AddTime(now).
		Build()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(domain.CustomerSegments), nil
	}

	filtered := ordersdomain.FilterByDate(ds.Lines, start, end)
	segments, err := BuildCustomerSegments(filtered, now, s.classifier, s.pool)
	if err != nil {
		return domain.CustomerSegments{}, err
	}

	s.cache.Set(key, segments, s.cacheTTL)
	return segments, nil
}

// BuildCustomerSegments computes one WindowSegments per trailing window.
// A window failing would be window-local by design, but the current
// aggregates are pure and cannot fail; the error return is the seam for
// a remote classifier.
func BuildCustomerSegments(lines []ordersdomain.OrderLine, now time.Time, classifier gender.Classifier, pool *sharedinfra.WorkerPool) (domain.CustomerSegments, error) {
	windows := ordersdomain.Windows()
	results := make([]domain.WindowSegments, len(windows))

	if pool == nil {
		for i, w := range windows {
			results[i] = buildWindowSegments(lines, w, now, classifier)
		}
		return domain.CustomerSegments{Windows: results}, nil
	}

	tasks := make([]sharedinfra.Task, len(windows))
	for i, w := range windows {
		i, w := i, w
		tasks[i] = func() error {
			results[i] = buildWindowSegments(lines, w, now, classifier)
			return nil
		}
	}
	if err := pool.RunBatch(tasks); err != nil {
		return domain.CustomerSegments{}, err
	}
	return domain.CustomerSegments{Windows: results}, nil
}

func buildWindowSegments(lines []ordersdomain.OrderLine, w ordersdomain.TimeWindow, now time.Time, classifier gender.Classifier) domain.WindowSegments {
	wlines := w.Apply(lines, now)
	orders := ordersdomain.CollapseOrders(wlines)

	seg := domain.WindowSegments{Window: w}

	// Per-order spend: one value per collapsed order, so shipping is
	// counted once per order rather than once per line.
	spend := make([]float64, 0, len(orders))
	for _, o := range orders {
		spend = append(spend, o.TotalValue())
	}
	seg.OrderSpend = buildHistogram(spend, domain.SpendBinWidth)
	seg.AvgOrderValue = meanIndicator(spend)

	seg.OrderCounts = customerOrderCounts(orders)
	counts := make([]float64, 0, len(seg.OrderCounts))
	for _, c := range seg.OrderCounts {
		counts = append(counts, float64(c.Orders))
	}
	seg.OrderCountHistogram = buildHistogram(counts, domain.OrderCountBinWidth)
	seg.AvgOrdersPerCustomer = meanIndicator(counts)

	lifetime := lifetimeSpend(orders)
	seg.LifetimeSpend = buildHistogram(lifetime, domain.SpendBinWidth)
	seg.AvgLifetimeSpend = meanIndicator(lifetime)

	seg.TopSpenders = topSpenders(orders)
	seg.Gender = genderBreakdown(orders, classifier)

	return seg
}

// customerOrderCounts groups orders by (email, postal code, region) and
// counts distinct orders per group, sorted descending.
func customerOrderCounts(orders []ordersdomain.Order) []domain.CustomerOrderCount {
	type key struct {
		email  string
		postal string
		region string
	}
	counts := make(map[key]int)
	for _, o := range orders {
		counts[key{o.Email, o.PostalCode, o.Region}]++
	}

	out := make([]domain.CustomerOrderCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.CustomerOrderCount{
			Email:      k.email,
			PostalCode: k.postal,
			Region:     k.region,
			Orders:     n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Orders != out[j].Orders {
			return out[i].Orders > out[j].Orders
		}
		return out[i].Email < out[j].Email
	})
	return out
}

// lifetimeSpend sums each customer's order totals, grouped by email
// alone.
func lifetimeSpend(orders []ordersdomain.Order) []float64 {
	totals := make(map[string]float64)
	var emails []string
	for _, o := range orders {
		if _, ok := totals[o.Email]; !ok {
			emails = append(emails, o.Email)
		}
		totals[o.Email] += o.TotalValue()
	}

	out := make([]float64, 0, len(emails))
	for _, e := range emails {
		out = append(out, totals[e])
	}
	return out
}

// topSpenders ranks customers by summed order totals, grouped by the
// displayed identity columns.
func topSpenders(orders []ordersdomain.Order) []domain.TopSpender {
	type key struct {
		first  string
		last   string
		email  string
		city   string
		region string
	}
	totals := make(map[key]float64)
	for _, o := range orders {
		totals[key{o.FirstName, o.LastName, o.Email, o.City, o.Region}] += o.TotalValue()
	}

	out := make([]domain.TopSpender, 0, len(totals))
	for k, total := range totals {
		out = append(out, domain.TopSpender{
			FirstName:  k.first,
			LastName:   k.last,
			Email:      k.email,
			City:       k.city,
			Region:     k.region,
			TotalSales: domain.Round2(total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSales != out[j].TotalSales {
			return out[i].TotalSales > out[j].TotalSales
		}
		return out[i].Email < out[j].Email
	})
	return out
}

// genderBreakdown classifies each distinct customer's first name.
// Customers are deduplicated by email before classifying so repeat
// buyers count once. The female share is undefined when no name lands
// in any gendered category; it must not degrade to 0% or 100%.
func genderBreakdown(orders []ordersdomain.Order, classifier gender.Classifier) domain.GenderBreakdown {
	seen := make(map[string]struct{})
	counts := make(map[gender.Category]int)
	for _, o := range orders {
		if _, ok := seen[o.Email]; ok {
			continue
		}
		seen[o.Email] = struct{}{}
		name := gender.Capitalize(o.FirstName)
		if name == "" {
			counts[gender.Unknown]++
			continue
		}
		counts[classifier.Classify(name)]++
	}

	female := counts[gender.Female] + counts[gender.MostlyFemale]
	male := counts[gender.Male] + counts[gender.MostlyMale]
	breakdown := domain.GenderBreakdown{Counts: counts}
	if female+male == 0 {
		breakdown.FemalePercent = domain.UndefinedIndicator()
		return breakdown
	}
	breakdown.FemalePercent = domain.DefinedIndicator(
		domain.Round2(float64(female) / float64(female+male) * 100))
	return breakdown
}

// buildHistogram buckets values into fixed-width bins running
// contiguously from the lowest to the highest populated bucket.
func buildHistogram(values []float64, width float64) domain.Histogram {
	h := domain.Histogram{BinWidth: width}
	if len(values) == 0 {
		return h
	}

	counts := make(map[int]int)
	minIdx, maxIdx := math.MaxInt32, math.MinInt32
	for _, v := range values {
		idx := int(math.Floor(v / width))
		counts[idx]++
		if idx < minIdx {
			minIdx = idx
		}
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	for idx := minIdx; idx <= maxIdx; idx++ {
		h.Bins = append(h.Bins, domain.HistogramBin{
			Lower: float64(idx) * width,
			Upper: float64(idx+1) * width,
			Count: counts[idx],
		})
	}
	return h
}

func meanIndicator(values []float64) domain.Indicator {
	if len(values) == 0 {
		return domain.UndefinedIndicator()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return domain.DefinedIndicator(domain.Round2(sum / float64(len(values))))
}
