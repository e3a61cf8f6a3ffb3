package application

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	ordersdomain "github.com/errcHuang/weebly-ecommerce-analytics/internal/orders/domain"
)

// ExportService renders derived tables as downloadable CSV. Buffers are
// built in memory; nothing touches disk.
type ExportService struct {
	revenue  *RevenueService
	segments *SegmentService
}

// NewExportService creates an ExportService over the table builders.
func NewExportService(revenue *RevenueService, segments *SegmentService) *ExportService {
	return &ExportService{
		revenue:  revenue,
		segments: segments,
	}
}

// ExportRevenueCSV renders all four window revenue tables into one CSV.
// Undefined percentage cells are left empty rather than written as 0.
func (s *ExportService) ExportRevenueCSV(ds *ordersdomain.Dataset, start, end, now time.Time) ([]byte, error) {
	tables := s.revenue.Tables(ds, start, end, now)

	buffer := bytes.NewBuffer(make([]byte, 0, 64*1024))
	writer := csv.NewWriter(buffer)

	writer.Write([]string{"Window", "Product Name", "Product Quantity", "Sales ($)", "% of Total Sales"})
	for _, table := range tables {
		for _, row := range table.Rows {
			writer.Write(revenueCSVRow(table.Window.Label(), row.Product, row.Quantity, row.Sales, row.Percent, table.PercentDefined))
		}
		writer.Write(revenueCSVRow(table.Window.Label(), table.Total.Product, table.Total.Quantity, table.Total.Sales, table.Total.Percent, table.PercentDefined))
		writer.Write([]string{})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// ExportTopSpendersCSV renders the per-window top-spender rankings into
// one CSV.
func (s *ExportService) ExportTopSpendersCSV(ds *ordersdomain.Dataset, start, end, now time.Time) ([]byte, error) {
	segments, err := s.segments.Segments(ds, start, end, now)
	if err != nil {
		return nil, err
	}

	buffer := bytes.NewBuffer(make([]byte, 0, 64*1024))
	writer := csv.NewWriter(buffer)

	writer.Write([]string{"Window", "First Name", "Last Name", "Email", "City", "Region", "Total Sales ($)"})
	for _, w := range segments.Windows {
		for _, spender := range w.TopSpenders {
			writer.Write([]string{
				w.Window.Label(),
				spender.FirstName,
				spender.LastName,
				spender.Email,
				spender.City,
				spender.Region,
				fmt.Sprintf("%.2f", spender.TotalSales),
			})
		}
		writer.Write([]string{})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func revenueCSVRow(window, product string, quantity int, sales, percent float64, percentDefined bool) []string {
	pct := ""
	if percentDefined {
		pct = fmt.Sprintf("%.2f", percent)
	}
	return []string{
		window,
		product,
		strconv.Itoa(quantity),
		fmt.Sprintf("%.2f", sales),
		pct,
	}
}
