// Package domain defines the geocode collaborator contract and the
// aggregated map-point shapes.
package domain

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by a Geocoder for a postal code it cannot
// resolve. Callers omit the point rather than abort the aggregation.
var ErrNotFound = errors.New("postal code not found")

// Location is a resolved map coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a postal code to a coordinate. Implementations must
// accept codes whose leading zeros were lost by numeric round-trips
// ("02139" arriving as "2139").
type Geocoder interface {
	Lookup(postalCode string) (Location, error)
}

// OrderPoint is one (postal code, city) group of order-deduplicated
// lines, with numeric fields summed and a resolved coordinate.
type OrderPoint struct {
	PostalCode    string   `json:"postal_code"`
	City          string   `json:"city"`
	Subtotal      float64  `json:"subtotal"`
	ShippingPrice float64  `json:"shipping_price"`
	Sales         float64  `json:"sales"`
	Quantity      int      `json:"quantity"`
	Location      Location `json:"location"`
}

// ProductPoint is one (order, product, city) group of forward-filled
// lines with its reattached postal code and resolved coordinate.
type ProductPoint struct {
	OrderID     string   `json:"order_id"`
	ProductName string   `json:"product_name"`
	City        string   `json:"city"`
	PostalCode  string   `json:"postal_code"`
	Sales       float64  `json:"sales"`
	Quantity    int      `json:"quantity"`
	Location    Location `json:"location"`
}

// NormalizeZip canonicalizes a postal code to its 5-digit US form:
// whitespace trimmed, any ZIP+4 suffix dropped, spreadsheet float
// artifacts removed, and lost leading zeros restored.
func NormalizeZip(raw string) string {
	z := strings.TrimSpace(raw)
	if i := strings.IndexByte(z, '-'); i >= 0 {
		z = z[:i]
	}
	z = strings.TrimSuffix(z, ".0")
	if z == "" || !allDigits(z) {
		return z
	}
	for len(z) < 5 {
		z = "0" + z
	}
	return z
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
