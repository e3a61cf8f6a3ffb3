package ingest

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
)

// Column names as they appear in the export's header row.
const (
	ColDate          = "Date"
	ColProductName   = "Product Name"
	ColQuantity      = "Product Quantity"
	ColLineSales     = "Product Total Price"
	ColSubtotal      = "Subtotal"
	ColShippingPrice = "Shipping Price"
	ColCoupon        = "Coupon"
	ColOrderID       = "Order #"
	ColEmail         = "Shipping Email"
	ColFirstName     = "Shipping First Name"
	ColLastName      = "Shipping Last Name"
	ColCity          = "Shipping City"
	ColRegion        = "Shipping Region"
	ColPostalCode    = "Shipping Postal Code"
)

// RequiredColumns is the minimum header set; extra columns are ignored.
var RequiredColumns = []string{
	ColDate, ColProductName, ColQuantity, ColLineSales,
	ColSubtotal, ColShippingPrice, ColCoupon, ColOrderID,
	ColEmail, ColFirstName, ColLastName, ColCity, ColRegion, ColPostalCode,
}

// dateLayouts are tried in order when parsing the Date column.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"1/2/06",
	time.RFC3339,
}

// NormalizeFile decodes and normalizes an uploaded export in one step.
func NormalizeFile(filename string, data []byte) ([]domain.OrderLine, error) {
	rows, err := ReadTable(filename, data)
	if err != nil {
		return nil, err
	}
	return Normalize(rows)
}

// Normalize canonicalizes raw tabular rows into OrderLines: dates are
// parsed, emails lower-cased, cities title-cased, and "Product Total
// Price" becomes the canonical line-sales field. Any error rejects the
// whole upload; downstream bucketing assumes a fully ordered dataset.
func Normalize(rows [][]string) ([]domain.OrderLine, error) {
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: RequiredColumns}
	}

	idx, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	titler := cases.Title(language.AmericanEnglish)
	lines := make([]domain.OrderLine, 0, len(rows)-1)

	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rowNum := i + 2 // 1-based, after the header

		date, err := parseDate(cell(row, idx[ColDate]), rowNum)
		if err != nil {
			return nil, err
		}
		qty, err := parseInt(cell(row, idx[ColQuantity]), ColQuantity, rowNum)
		if err != nil {
			return nil, err
		}
		sales, _, err := parseFloat(cell(row, idx[ColLineSales]), ColLineSales, rowNum)
		if err != nil {
			return nil, err
		}
		subtotal, hasSubtotal, err := parseFloat(cell(row, idx[ColSubtotal]), ColSubtotal, rowNum)
		if err != nil {
			return nil, err
		}
		shipping, hasShipping, err := parseFloat(cell(row, idx[ColShippingPrice]), ColShippingPrice, rowNum)
		if err != nil {
			return nil, err
		}

		lines = append(lines, domain.OrderLine{
			OrderID:       strings.TrimSpace(cell(row, idx[ColOrderID])),
			Date:          date,
			ProductName:   normalizeProduct(cell(row, idx[ColProductName])),
			Quantity:      qty,
			LineSales:     sales,
			Subtotal:      subtotal,
			HasSubtotal:   hasSubtotal,
			ShippingPrice: shipping,
			HasShipping:   hasShipping,
			Coupon:        strings.TrimSpace(cell(row, idx[ColCoupon])),
			Email:         strings.ToLower(strings.TrimSpace(cell(row, idx[ColEmail]))),
			FirstName:     strings.TrimSpace(cell(row, idx[ColFirstName])),
			LastName:      strings.TrimSpace(cell(row, idx[ColLastName])),
			City:          titler.String(strings.TrimSpace(cell(row, idx[ColCity]))),
			Region:        strings.TrimSpace(cell(row, idx[ColRegion])),
			PostalCode:    strings.TrimSpace(cell(row, idx[ColPostalCode])),
		})
	}

	return lines, nil
}

// columnIndex maps required column names to their header positions.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// normalizeProduct maps the textual null spellings to "no product".
func normalizeProduct(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}

func parseDate(s string, row int) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		// Continuation lines of a multi-product order may omit the
		// repeated fields; they get forward-filled downstream.
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &FormatError{Row: row, Column: ColDate, Value: s}
}

func parseFloat(s, col string, row int) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false, &FormatError{Row: row, Column: col, Value: s}
	}
	return v, true, nil
}

func parseInt(s, col string, row int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Excel sometimes renders integer quantities as floats.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, &FormatError{Row: row, Column: col, Value: s}
		}
		return int(f), nil
	}
	return v, nil
}
