package domain

import "time"

// Order is the collapse of the OrderLines sharing one order id. The
// order-level fields come from the first line seen; the export repeats
// them identically on every line of the order.
type Order struct {
	ID            string
	Date          time.Time
	Subtotal      float64
	ShippingPrice float64
	Coupon        string
	Email         string
	FirstName     string
	LastName      string
	City          string
	Region        string
	PostalCode    string
	LineCount     int
}

// TotalValue returns the order's combined revenue. Subtotal and shipping
// are order-level amounts, so this is NOT the sum of the line sales.
func (o Order) TotalValue() float64 {
	return o.Subtotal + o.ShippingPrice
}

// HasCoupon reports whether the order used a coupon.
func (o Order) HasCoupon() bool {
	return o.Coupon != ""
}

// CollapseOrders deduplicates lines by order id into one Order each,
// preserving first-seen order. Summing subtotal or shipping without this
// collapse would count them once per line instead of once per order.
func CollapseOrders(lines []OrderLine) []Order {
	index := make(map[string]int)
	var orders []Order
	for _, l := range lines {
		if i, ok := index[l.OrderID]; ok {
			orders[i].LineCount++
			continue
		}
		index[l.OrderID] = len(orders)
		orders = append(orders, Order{
			ID:            l.OrderID,
			Date:          l.Date,
			Subtotal:      l.Subtotal,
			ShippingPrice: l.ShippingPrice,
			Coupon:        l.Coupon,
			Email:         l.Email,
			FirstName:     l.FirstName,
			LastName:      l.LastName,
			City:          l.City,
			Region:        l.Region,
			PostalCode:    l.PostalCode,
			LineCount:     1,
		})
	}
	return orders
}

// FirstLines deduplicates lines by order id keeping the first line of
// each order intact, line-level fields included.
func FirstLines(lines []OrderLine) []OrderLine {
	seen := make(map[string]struct{})
	var out []OrderLine
	for _, l := range lines {
		if _, ok := seen[l.OrderID]; ok {
			continue
		}
		seen[l.OrderID] = struct{}{}
		out = append(out, l)
	}
	return out
}
