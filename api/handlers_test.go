package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	analyticsapp "github.com/errcHuang/weebly-ecommerce-analytics/internal/analytics/application"
	"github.com/errcHuang/weebly-ecommerce-analytics/internal/gender"
	geoapp "github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/application"
	geodomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/domain"
	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
	th "github.com/errcHuang/weebly-ecommerce-analytics/internal/testhelpers"
)

const ordersCSV = `Date,Product Name,Product Quantity,Product Total Price,Subtotal,Shipping Price,Coupon,Order #,Shipping Email,Shipping First Name,Shipping Last Name,Shipping City,Shipping Region,Shipping Postal Code
2024-05-01,Mug,1,50.00,150.00,15.00,,1001,a@example.com,Mary,Doe,Cambridge,MA,02139
2024-05-01,Shirt,2,100.00,150.00,15.00,,1001,a@example.com,Mary,Doe,Cambridge,MA,02139
2024-05-03,Mug,1,30.00,30.00,5.00,SAVE,1002,b@example.com,John,Doe,New York,NY,10001
`

func newTestServer(t *testing.T) (*Handlers, *httptest.Server) {
	t.Helper()

	cache := sharedinfra.NewInMemoryCache()
	classifier := th.FakeClassifier{Names: map[string]gender.Category{
		"Mary": gender.Female,
		"John": gender.Male,
	}}
	geocoder := th.NewFakeGeocoder(map[string]geodomain.Location{
		"02139": {Lat: 42.37, Lng: -71.11},
		"10001": {Lat: 40.75, Lng: -73.99},
	})

	sales := analyticsapp.NewSalesService(cache)
	revenue := analyticsapp.NewRevenueService(cache)
	segments := analyticsapp.NewSegmentService(classifier, cache, nil)
	export := analyticsapp.NewExportService(revenue, segments)
	geo := geoapp.NewGeoService(geocoder)

	h := NewHandlers(zap.NewNop(), cache, sales, revenue, segments, export, geo)
	h.now = func() time.Time { return th.Now }

	mux := http.NewServeMux()
	h.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return h, server
}

func uploadFile(t *testing.T, server *httptest.Server, filename, contents string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := http.Post(server.URL+"/api/upload", writer.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, server *httptest.Server, path string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestEndpointsRequireDataset(t *testing.T) {
	_, server := newTestServer(t)

	for _, path := range []string{
		"/api/bounds",
		"/api/sales/series",
		"/api/sales/indicators",
		"/api/orders/series",
		"/api/revenue/tables",
		"/api/customers/segments",
		"/api/geo/orders",
		"/api/geo/products",
		"/api/export/revenue.csv",
		"/api/export/top-spenders.csv",
	} {
		resp := getJSON(t, server, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestUploadReplacesDataset(t *testing.T) {
	_, server := newTestServer(t)

	resp := uploadFile(t, server, "orders.csv", ordersCSV)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["dataset_id"])
	assert.Equal(t, "orders.csv", body["filename"])
	assert.Equal(t, float64(3), body["lines"])
	assert.Equal(t, "2024-05-01", body["start"])
	assert.Equal(t, "2024-05-04", body["end"]) // max date + 1 day
}

func TestUploadRejectsMissingColumns(t *testing.T) {
	_, server := newTestServer(t)

	resp := uploadFile(t, server, "orders.csv", "Date,Product Name\n2024-05-01,Mug\n")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	_, server := newTestServer(t)

	resp := uploadFile(t, server, "orders.pdf", "not a table")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRejectsBadDate(t *testing.T) {
	_, server := newTestServer(t)

	bad := strings.Replace(ordersCSV, "2024-05-03", "someday", 1)
	resp := uploadFile(t, server, "orders.csv", bad)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBounds(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var bounds map[string]string
	resp := getJSON(t, server, "/api/bounds", &bounds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-05-01", bounds["start"])
	assert.Equal(t, "2024-05-04", bounds["end"])
}

func TestSalesSeriesAggregate(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var points []map[string]interface{}
	resp := getJSON(t, server, "/api/sales/series?granularity=Monthly", &points)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, points, 1)
	assert.Equal(t, "2024-05", points[0]["period"])

	values := points[0]["values"].(map[string]interface{})
	// Order 1001 counts once: 150+15, plus order 1002: 30+5.
	assert.InDelta(t, 200.0, values["Sales ($)"].(float64), 1e-9)
}

func TestSalesSeriesByProduct(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var points []map[string]interface{}
	resp := getJSON(t, server, "/api/sales/series?granularity=Monthly&by_product=true", &points)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, points, 3) // Mug, Shirt, Shipping for the single period

	categories := make(map[string]float64)
	for _, p := range points {
		categories[p["category"].(string)] = p["value"].(float64)
	}
	assert.InDelta(t, 80.0, categories["Mug"], 1e-9)
	assert.InDelta(t, 100.0, categories["Shirt"], 1e-9)
	assert.InDelta(t, 20.0, categories["Shipping"], 1e-9)
}

func TestSalesSeriesRejectsBadGranularity(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	resp := getJSON(t, server, "/api/sales/series?granularity=Hourly", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSalesSeriesRejectsInvertedRange(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	resp := getJSON(t, server, "/api/sales/series?start=2024-05-10&end=2024-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSalesIndicators(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var body map[string]interface{}
	resp := getJSON(t, server, "/api/sales/indicators", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 200.0, body["total_sales"].(float64), 1e-9)
	assert.Equal(t, float64(2), body["order_count"])
	assert.InDelta(t, 100.0, body["avg_daily_sales"].(float64), 1e-9)
}

func TestOrdersSeries(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var points []map[string]interface{}
	resp := getJSON(t, server, "/api/orders/series?granularity=Monthly", &points)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, points, 1)
	assert.Equal(t, float64(2), points[0]["total"])
	assert.Equal(t, float64(1), points[0]["promo"])
	assert.Equal(t, float64(1), points[0]["regular"])
}

func TestRevenueTables(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var tables []map[string]interface{}
	resp := getJSON(t, server, "/api/revenue/tables", &tables)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, tables, 4)
	assert.Equal(t, "All to date", tables[0]["window"])

	total := tables[0]["total"].(map[string]interface{})
	assert.Equal(t, "Total", total["product"])
	assert.InDelta(t, 100.0, total["percent"].(float64), 0.02)
}

func TestCustomerSegments(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var windows []map[string]interface{}
	resp := getJSON(t, server, "/api/customers/segments", &windows)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, windows, 4)

	all := windows[0]
	assert.Equal(t, "All to date", all["window"])
	assert.InDelta(t, 50.0, all["female_percent"].(float64), 1e-9)

	counts := all["gender_counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["female"])
	assert.Equal(t, float64(1), counts["male"])
}

func TestGeoOrders(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var points []map[string]interface{}
	resp := getJSON(t, server, "/api/geo/orders", &points)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, points, 2)
	assert.Equal(t, "02139", points[0]["postal_code"])
}

func TestGeoProducts(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	var points []map[string]interface{}
	resp := getJSON(t, server, "/api/geo/products", &points)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, points, 3) // 1001/Mug, 1001/Shirt, 1002/Mug
}

func TestExportRevenueCSVEndpoint(t *testing.T) {
	_, server := newTestServer(t)
	uploadFile(t, server, "orders.csv", ordersCSV).Body.Close()

	resp := getJSON(t, server, "/api/export/revenue.csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "revenue.csv")
}

func TestUploadMethodNotAllowed(t *testing.T) {
	_, server := newTestServer(t)

	resp := getJSON(t, server, "/api/upload", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	_, server := newTestServer(t)

	var body map[string]string
	resp := getJSON(t, server, "/api/health", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
