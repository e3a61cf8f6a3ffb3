package domain

import (
	"sort"
	"time"
)

// OrderLine is one product row of a Weebly order export. Orders with
// several products repeat the order-level fields (subtotal, shipping,
// customer) on every line, so most consumers must collapse lines to
// Orders before summing them.
type OrderLine struct {
	OrderID     string
	Date        time.Time
	ProductName string // "" means no product on the line
	Quantity    int
	LineSales   float64 // per-line product revenue ("Sales ($)")

	// Order-level fields, duplicated per line by the export.
	Subtotal      float64
	HasSubtotal   bool
	ShippingPrice float64
	HasShipping   bool
	Coupon        string // "" means no coupon

	Email      string
	FirstName  string
	LastName   string
	City       string
	Region     string
	PostalCode string
}

// HasProduct reports whether the line carries a product.
func (l OrderLine) HasProduct() bool {
	return l.ProductName != ""
}

// HasCoupon reports whether the line's order used a coupon.
func (l OrderLine) HasCoupon() bool {
	return l.Coupon != ""
}

// Dataset is one uploaded, normalized record set. It is replaced
// wholesale on every upload and never mutated afterwards, so consumers
// may share it across goroutines.
type Dataset struct {
	ID       string
	Filename string
	Lines    []OrderLine
}

// NewDataset creates an immutable dataset for one upload.
func NewDataset(id, filename string, lines []OrderLine) *Dataset {
	return &Dataset{
		ID:       id,
		Filename: filename,
		Lines:    lines,
	}
}

// ProductNames returns the distinct non-empty product names in lines,
// sorted lexicographically.
func ProductNames(lines []OrderLine) []string {
	return distinctSorted(lines, func(l OrderLine) string { return l.ProductName })
}

// ForwardFill returns a copy of lines where every missing field has been
// filled with the last seen value, in input order. Lines of multi-product
// orders that omit the repeated order-level fields inherit them from the
// sibling line above.
func ForwardFill(lines []OrderLine) []OrderLine {
	filled := make([]OrderLine, len(lines))
	var prev OrderLine
	for i, l := range lines {
		if l.OrderID == "" {
			l.OrderID = prev.OrderID
		}
		if l.Date.IsZero() {
			l.Date = prev.Date
		}
		if l.ProductName == "" {
			l.ProductName = prev.ProductName
		}
		if !l.HasSubtotal && prev.HasSubtotal {
			l.Subtotal = prev.Subtotal
			l.HasSubtotal = true
		}
		if !l.HasShipping && prev.HasShipping {
			l.ShippingPrice = prev.ShippingPrice
			l.HasShipping = true
		}
		if l.Coupon == "" {
			l.Coupon = prev.Coupon
		}
		if l.Email == "" {
			l.Email = prev.Email
		}
		if l.FirstName == "" {
			l.FirstName = prev.FirstName
		}
		if l.LastName == "" {
			l.LastName = prev.LastName
		}
		if l.City == "" {
			l.City = prev.City
		}
		if l.Region == "" {
			l.Region = prev.Region
		}
		if l.PostalCode == "" {
			l.PostalCode = prev.PostalCode
		}
		filled[i] = l
		prev = l
	}
	return filled
}

func distinctSorted(lines []OrderLine, key func(OrderLine) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, l := range lines {
		k := key(l)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
