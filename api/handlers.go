// Package api exposes the analytics engine over HTTP. Handlers are thin:
// they parse parameters, delegate to the application services, and shape
// JSON responses; no aggregation logic lives here.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	analyticsapp "github.com/errcHuang/weebly-ecommerce-analytics/internal/analytics/application"
	analyticsdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/analytics/domain"
	geoapp "github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/application"
	"github.com/errcHuang/weebly-ecommerce-analytics/internal/ingest"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
)

const maxUploadBytes = 32 << 20

// Handlers serves the dashboard API over the single in-memory dataset.
// Each upload replaces the dataset wholesale; the derived views are
// recomputed (through the service caches) on every request.
type Handlers struct {
	logger *zap.Logger
	cache  sharedinfra.Cache

	sales    *analyticsapp.SalesService
	revenue  *analyticsapp.RevenueService
	segments *analyticsapp.SegmentService
	export   *analyticsapp.ExportService
	geo      *geoapp.GeoService

	now func() time.Time

	mu      sync.RWMutex
	dataset *ordersdomain.Dataset
}

// NewHandlers wires the handler set.
func NewHandlers(
	logger *zap.Logger,
	cache sharedinfra.Cache,
	sales *analyticsapp.SalesService,
	revenue *analyticsapp.RevenueService,
	segments *analyticsapp.SegmentService,
	export *analyticsapp.ExportService,
	geo *geoapp.GeoService,
) *Handlers {
	return &Handlers{
		logger:   logger,
		cache:    cache,
		sales:    sales,
		revenue:  revenue,
		segments: segments,
		export:   export,
		geo:      geo,
		now:      time.Now,
	}
}

// Register attaches every route to mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/api/upload", h.Upload)
	mux.HandleFunc("/api/bounds", h.Bounds)
	mux.HandleFunc("/api/sales/series", h.SalesSeries)
	mux.HandleFunc("/api/sales/indicators", h.SalesIndicators)
	mux.HandleFunc("/api/orders/series", h.OrdersSeries)
	mux.HandleFunc("/api/revenue/tables", h.RevenueTables)
	mux.HandleFunc("/api/customers/segments", h.CustomerSegments)
	mux.HandleFunc("/api/geo/orders", h.GeoOrders)
	mux.HandleFunc("/api/geo/products", h.GeoProducts)
	mux.HandleFunc("/api/export/revenue.csv", h.ExportRevenue)
	mux.HandleFunc("/api/export/top-spenders.csv", h.ExportTopSpenders)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// Upload accepts a multipart CSV/Excel order export, normalizes it, and
// replaces the in-memory dataset. Normalization errors reject the whole
// file; no partial dataset is kept.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "reading upload", http.StatusBadRequest)
		return
	}

	lines, err := ingest.NormalizeFile(header.Filename, data)
	if err != nil {
		status := http.StatusInternalServerError
		var schemaErr *ingest.SchemaError
		var formatErr *ingest.FormatError
		var unsupportedErr *ingest.UnsupportedFormatError
		if errors.As(err, &schemaErr) || errors.As(err, &formatErr) || errors.As(err, &unsupportedErr) {
			status = http.StatusBadRequest
		}
		h.logger.Warn("upload rejected",
			zap.String("filename", header.Filename),
			zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	ds := ordersdomain.NewDataset(uuid.NewString(), header.Filename, lines)

	h.mu.Lock()
	h.dataset = ds
	h.mu.Unlock()
	// Keys are dataset-scoped, but entries for the replaced dataset
	// are dead weight; drop them eagerly.
	h.cache.Clear()

	h.logger.Info("dataset replaced",
		zap.String("dataset_id", ds.ID),
		zap.String("filename", ds.Filename),
		zap.Int("lines", len(ds.Lines)))

	start, end, ok := ordersdomain.DefaultBounds(ds.Lines)
	resp := map[string]interface{}{
		"dataset_id": ds.ID,
		"filename":   ds.Filename,
		"lines":      len(ds.Lines),
	}
	if ok {
		resp["start"] = start.Format("2006-01-02")
		resp["end"] = end.Format("2006-01-02")
	}
	h.writeJSON(w, resp)
}

// Bounds returns the date-picker bounds for the current dataset.
func (h *Handlers) Bounds(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, hasData := ordersdomain.DefaultBounds(ds.Lines)
	if !hasData {
		http.Error(w, "dataset is empty", http.StatusNotFound)
		return
	}
	h.writeJSON(w, map[string]string{
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
	})
}

// SalesSeries serves the sales chart: aggregate combined revenue, or the
// per-product fan-out when by_product=true.
func (h *Handlers) SalesSeries(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}
	g, err := analyticsdomain.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("by_product") == "true" {
		h.writeJSON(w, h.sales.ProductSeries(ds, start, end, g))
		return
	}
	h.writeJSON(w, h.sales.OverallSeries(ds, start, end, g))
}

// SalesIndicators serves the filtered-range header readouts.
func (h *Handlers) SalesIndicators(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}

	ind := h.sales.Indicators(ds, start, end)
	h.writeJSON(w, map[string]interface{}{
		"avg_daily_sales": indicatorValue(ind.AvgDailySales),
		"total_sales":     ind.TotalSales,
		"order_count":     ind.OrderCount,
	})
}

// OrdersSeries serves the orders chart; the by-type pivot carries the
// aggregate Total column as well.
func (h *Handlers) OrdersSeries(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}
	g, err := analyticsdomain.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, h.sales.OrderTypeSeries(ds, start, end, g))
}

// RevenueTables serves the four trailing-window revenue tables.
func (h *Handlers) RevenueTables(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}

	tables := h.revenue.Tables(ds, start, end, h.now())
	out := make([]map[string]interface{}, 0, len(tables))
	for _, t := range tables {
		out = append(out, revenueTableJSON(t))
	}
	h.writeJSON(w, out)
}

// CustomerSegments serves the per-window customer aggregates.
func (h *Handlers) CustomerSegments(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}

	segments, err := h.segments.Segments(ds, start, end, h.now())
	if err != nil {
		h.logger.Error("computing segments", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]map[string]interface{}, 0, len(segments.Windows))
	for _, ws := range segments.Windows {
		out = append(out, windowSegmentsJSON(ws))
	}
	h.writeJSON(w, out)
}

// GeoOrders serves the order-level map points for the filtered range.
func (h *Handlers) GeoOrders(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}

	points, err := h.geo.OrderPoints(ordersdomain.FilterByDate(ds.Lines, start, end))
	if err != nil {
		h.logger.Error("aggregating order map points", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, points)
}

// GeoProducts serves the product-level map points for the filtered range.
func (h *Handlers) GeoProducts(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}

	points, err := h.geo.ProductPoints(ordersdomain.FilterByDate(ds.Lines, start, end))
	if err != nil {
		h.logger.Error("aggregating product map points", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, points)
}

// ExportRevenue downloads the revenue tables as CSV.
func (h *Handlers) ExportRevenue(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}

	data, err := h.export.ExportRevenueCSV(ds, start, end, h.now())
	if err != nil {
		h.logger.Error("exporting revenue csv", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeCSV(w, "revenue.csv", data)
}

// ExportTopSpenders downloads the top-spender rankings as CSV.
func (h *Handlers) ExportTopSpenders(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.currentDataset(w)
	if !ok {
		return
	}
	start, end, ok := h.parseRange(w, r, ds)
	if !ok {
		return
	}

	data, err := h.export.ExportTopSpendersCSV(ds, start, end, h.now())
	if err != nil {
		h.logger.Error("exporting top spenders csv", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeCSV(w, "top_spenders.csv", data)
}

// currentDataset fetches the loaded dataset or answers 404.
func (h *Handlers) currentDataset(w http.ResponseWriter) (*ordersdomain.Dataset, bool) {
	h.mu.RLock()
	ds := h.dataset
	h.mu.RUnlock()
	if ds == nil {
		http.Error(w, "no dataset uploaded", http.StatusNotFound)
		return nil, false
	}
	return ds, true
}

// parseRange reads start/end query parameters, defaulting to the
// dataset's derived bounds.
func (h *Handlers) parseRange(w http.ResponseWriter, r *http.Request, ds *ordersdomain.Dataset) (time.Time, time.Time, bool) {
	start, end, _ := ordersdomain.DefaultBounds(ds.Lines)

	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "invalid start date", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		start = t
	}
	if s := r.URL.Query().Get("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			http.Error(w, "invalid end date", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
		end = t
	}
	if end.Before(start) {
		http.Error(w, "end date precedes start date", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", zap.Error(err))
	}
}

func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Write(data)
}

// indicatorValue maps an undefined indicator to JSON null; NaN is not
// representable in JSON and 0 would misread as data.
func indicatorValue(ind analyticsdomain.Indicator) *float64 {
	if !ind.Defined {
		return nil
	}
	v := ind.Value
	return &v
}

func revenueTableJSON(t analyticsdomain.RevenueTable) map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(t.Rows)+1)
	for _, row := range t.Rows {
		rows = append(rows, revenueRowJSON(row, t.PercentDefined))
	}
	return map[string]interface{}{
		"window":          t.Window.Label(),
		"rows":            rows,
		"total":           revenueRowJSON(t.Total, t.PercentDefined),
		"percent_defined": t.PercentDefined,
	}
}

func revenueRowJSON(row analyticsdomain.RevenueRow, percentDefined bool) map[string]interface{} {
	out := map[string]interface{}{
		"product":  row.Product,
		"quantity": row.Quantity,
		"sales":    row.Sales,
	}
	if percentDefined {
		out["percent"] = row.Percent
	} else {
		out["percent"] = nil
	}
	return out
}

func windowSegmentsJSON(ws analyticsdomain.WindowSegments) map[string]interface{} {
	counts := make(map[string]int, len(ws.Gender.Counts))
	for cat, n := range ws.Gender.Counts {
		counts[string(cat)] = n
	}

	spenders := make([]map[string]interface{}, 0, len(ws.TopSpenders))
	for _, s := range ws.TopSpenders {
		spenders = append(spenders, map[string]interface{}{
			"first_name":  s.FirstName,
			"last_name":   s.LastName,
			"email":       s.Email,
			"city":        s.City,
			"region":      s.Region,
			"total_sales": s.TotalSales,
		})
	}

	orderCounts := make([]map[string]interface{}, 0, len(ws.OrderCounts))
	for _, c := range ws.OrderCounts {
		orderCounts = append(orderCounts, map[string]interface{}{
			"email":       c.Email,
			"postal_code": c.PostalCode,
			"region":      c.Region,
			"orders":      c.Orders,
		})
	}

	return map[string]interface{}{
		"window":                  ws.Window.Label(),
		"order_spend_histogram":   ws.OrderSpend,
		"avg_order_value":         indicatorValue(ws.AvgOrderValue),
		"order_counts":            orderCounts,
		"order_count_histogram":   ws.OrderCountHistogram,
		"avg_orders_per_customer": indicatorValue(ws.AvgOrdersPerCustomer),
		"lifetime_spend_histogram": ws.LifetimeSpend,
		"avg_lifetime_spend":      indicatorValue(ws.AvgLifetimeSpend),
		"top_spenders":            spenders,
		"gender_counts":           counts,
		"female_percent":          indicatorValue(ws.Gender.FemalePercent),
	}
}
