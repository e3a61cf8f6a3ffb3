package application

import (
	"errors"
	"sort"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/domain"
	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
)

// GeoService derives the map-point aggregates. The geocode collaborator
// is injected so tests can swap in a deterministic double.
type GeoService struct {
	geocoder domain.Geocoder
}

// NewGeoService creates a service backed by geocoder.
func NewGeoService(geocoder domain.Geocoder) *GeoService {
	return &GeoService{geocoder: geocoder}
}

// OrderPoints aggregates order-deduplicated lines by (postal code, city)
// and resolves one coordinate per distinct postal code. Unresolvable
// codes drop their point; they never abort the pass.
func (s *GeoService) OrderPoints(lines []ordersdomain.OrderLine) ([]domain.OrderPoint, error) {
	type groupKey struct {
		zip  string
		city string
	}

	groups := make(map[groupKey]*domain.OrderPoint)
	for _, l := range ordersdomain.FirstLines(lines) {
		key := groupKey{zip: domain.NormalizeZip(l.PostalCode), city: l.City}
		p, ok := groups[key]
		if !ok {
			p = &domain.OrderPoint{PostalCode: key.zip, City: key.city}
			groups[key] = p
		}
		p.Subtotal += l.Subtotal
		p.ShippingPrice += l.ShippingPrice
		p.Sales += l.LineSales
		p.Quantity += l.Quantity
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].zip != keys[j].zip {
			return keys[i].zip < keys[j].zip
		}
		return keys[i].city < keys[j].city
	})

	memo := newLookupMemo(s.geocoder)
	points := make([]domain.OrderPoint, 0, len(keys))
	for _, k := range keys {
		loc, err := memo.lookup(k.zip)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		p := *groups[k]
		p.Location = loc
		points = append(points, p)
	}
	return points, nil
}

// ProductPoints aggregates forward-filled lines by (order, product,
// city), reattaches each order's postal code, and resolves coordinates.
// The forward fill lets lines that omit the repeated shipping fields
// inherit them from the sibling line above.
func (s *GeoService) ProductPoints(lines []ordersdomain.OrderLine) ([]domain.ProductPoint, error) {
	filled := ordersdomain.ForwardFill(lines)

	orderZip := make(map[string]string)
	for _, l := range filled {
		if _, ok := orderZip[l.OrderID]; !ok {
			orderZip[l.OrderID] = domain.NormalizeZip(l.PostalCode)
		}
	}

	type groupKey struct {
		orderID string
		product string
		city    string
	}

	groups := make(map[groupKey]*domain.ProductPoint)
	for _, l := range filled {
		key := groupKey{orderID: l.OrderID, product: l.ProductName, city: l.City}
		p, ok := groups[key]
		if !ok {
			p = &domain.ProductPoint{
				OrderID:     key.orderID,
				ProductName: key.product,
				City:        key.city,
				PostalCode:  orderZip[key.orderID],
			}
			groups[key] = p
		}
		p.Sales += l.LineSales
		p.Quantity += l.Quantity
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].orderID != keys[j].orderID {
			return keys[i].orderID < keys[j].orderID
		}
		if keys[i].product != keys[j].product {
			return keys[i].product < keys[j].product
		}
		return keys[i].city < keys[j].city
	})

	memo := newLookupMemo(s.geocoder)
	points := make([]domain.ProductPoint, 0, len(keys))
	for _, k := range keys {
		loc, err := memo.lookup(groups[k].PostalCode)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		p := *groups[k]
		p.Location = loc
		points = append(points, p)
	}
	return points, nil
}

// lookupMemo resolves each distinct postal code at most once per
// aggregation pass, on top of whatever caching the geocoder itself does.
type lookupMemo struct {
	geocoder domain.Geocoder
	results  map[string]domain.Location
	misses   map[string]struct{}
}

func newLookupMemo(geocoder domain.Geocoder) *lookupMemo {
	return &lookupMemo{
		geocoder: geocoder,
		results:  make(map[string]domain.Location),
		misses:   make(map[string]struct{}),
	}
}

func (m *lookupMemo) lookup(zip string) (domain.Location, error) {
	if loc, ok := m.results[zip]; ok {
		return loc, nil
	}
	if _, ok := m.misses[zip]; ok {
		return domain.Location{}, domain.ErrNotFound
	}

	loc, err := m.geocoder.Lookup(zip)
	if errors.Is(err, domain.ErrNotFound) {
		m.misses[zip] = struct{}{}
		return domain.Location{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Location{}, err
	}

	m.results[zip] = loc
	return loc, nil
}
