package infrastructure

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/domain"
)

// ZipcodeRepository resolves postal codes against the zipcodes reference
// table loaded by cmd/seed.
type ZipcodeRepository struct {
	db *sql.DB
}

// NewZipcodeRepository creates a repository over db.
func NewZipcodeRepository(db *sql.DB) *ZipcodeRepository {
	return &ZipcodeRepository{db: db}
}

// Lookup resolves one postal code. Codes are normalized first, so both
// "02139" and its zero-stripped form "2139" hit the same row. A missing
// row maps to domain.ErrNotFound.
func (r *ZipcodeRepository) Lookup(postalCode string) (domain.Location, error) {
	zip := domain.NormalizeZip(postalCode)
	if zip == "" {
		return domain.Location{}, domain.ErrNotFound
	}

	query := `SELECT lat, lng FROM zipcodes WHERE zip = $1`

	var loc domain.Location
	err := r.db.QueryRow(query, zip).Scan(&loc.Lat, &loc.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Location{}, fmt.Errorf("zipcode lookup %s: %w", zip, err)
	}
	return loc, nil
}

// NoopGeocoder resolves nothing. It keeps the dashboard serving when no
// zipcode database is configured; every map point degrades to a miss.
type NoopGeocoder struct{}

// Lookup always reports the code as unresolvable.
func (NoopGeocoder) Lookup(string) (domain.Location, error) {
	return domain.Location{}, domain.ErrNotFound
}
