// Package testhelpers holds shared fixtures for unit tests: order-line
// builders, a pinned clock, and deterministic collaborator doubles.
package testhelpers

import (
	"fmt"
	"time"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/gender"
	geodomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/domain"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
)

// Now is the pinned clock used by window tests.
var Now = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

// Day builds a UTC calendar date from an ISO string, failing loudly on
// typos in fixtures.
func Day(iso string) time.Time {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		panic(fmt.Sprintf("bad fixture date %q: %v", iso, err))
	}
	return t
}

// Line builds a fully populated order line. Customer fields derive from
// the order id so multi-line fixtures stay consistent by default;
// override what the test cares about.
func Line(orderID, date, product string, qty int, lineSales, subtotal, shipping float64) ordersdomain.OrderLine {
	return ordersdomain.OrderLine{
		OrderID:       orderID,
		Date:          Day(date),
		ProductName:   product,
		Quantity:      qty,
		LineSales:     lineSales,
		Subtotal:      subtotal,
		HasSubtotal:   true,
		ShippingPrice: shipping,
		HasShipping:   true,
		Email:         fmt.Sprintf("%s@example.com", orderID),
		FirstName:     "Alex",
		LastName:      "Doe",
		City:          "Cambridge",
		Region:        "MA",
		PostalCode:    "02139",
	}
}

// Dataset wraps lines in a dataset with a fixed id.
func Dataset(lines ...ordersdomain.OrderLine) *ordersdomain.Dataset {
	return ordersdomain.NewDataset("test-dataset", "orders.csv", lines)
}

// FakeGeocoder resolves from a fixed table and counts lookups per
// normalized postal code, so tests can assert memoization.
type FakeGeocoder struct {
	Locations map[string]geodomain.Location
	Calls     map[string]int
}

// NewFakeGeocoder creates a FakeGeocoder over locations.
func NewFakeGeocoder(locations map[string]geodomain.Location) *FakeGeocoder {
	return &FakeGeocoder{
		Locations: locations,
		Calls:     make(map[string]int),
	}
}

// Lookup resolves zip from the table, recording the call.
func (g *FakeGeocoder) Lookup(zip string) (geodomain.Location, error) {
	key := geodomain.NormalizeZip(zip)
	g.Calls[key]++
	if loc, ok := g.Locations[key]; ok {
		return loc, nil
	}
	return geodomain.Location{}, geodomain.ErrNotFound
}

// FakeClassifier classifies from a fixed table, defaulting to Unknown.
type FakeClassifier struct {
	Names map[string]gender.Category
}

// Classify returns the table's category for the capitalized name.
func (c FakeClassifier) Classify(name string) gender.Category {
	if cat, ok := c.Names[gender.Capitalize(name)]; ok {
		return cat
	}
	return gender.Unknown
}
