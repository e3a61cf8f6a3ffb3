package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/errcHuang/weebly-ecommerce-analytics/internal/geo/domain"
	sharedinfra "github.com/errcHuang/weebly-ecommerce-analytics/internal/shared/infrastructure"
)

// countingGeocoder resolves one zip and counts every lookup.
type countingGeocoder struct {
	calls int
}

func (g *countingGeocoder) Lookup(postalCode string) (domain.Location, error) {
	g.calls++
	if domain.NormalizeZip(postalCode) == "02139" {
		return domain.Location{Lat: 42.37, Lng: -71.11}, nil
	}
	return domain.Location{}, domain.ErrNotFound
}

func TestCachedGeocoderMemoizesHits(t *testing.T) {
	inner := &countingGeocoder{}
	g := NewCachedGeocoder(inner, sharedinfra.NewInMemoryCache())

	first, err := g.Lookup("02139")
	require.NoError(t, err)

	second, err := g.Lookup("2139") // same zip after normalization
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoderMemoizesMisses(t *testing.T) {
	inner := &countingGeocoder{}
	g := NewCachedGeocoder(inner, sharedinfra.NewInMemoryCache())

	_, err := g.Lookup("99999")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = g.Lookup("99999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, inner.calls)
}

func TestNoopGeocoderNeverResolves(t *testing.T) {
	_, err := NoopGeocoder{}.Lookup("02139")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
