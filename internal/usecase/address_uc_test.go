//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
)

func addressRecord(alias, full, lat, lon string) AddressRecord {
	var r AddressRecord
	r.Alias = alias
	r.Address.Full = full
	r.Coordinates.Lat = lat
	r.Coordinates.Lon = lon
	return r
}

func TestEnsureFlowIsIdempotent(t *testing.T) {
	flows := newMemFlowStore()
	uc := NewAddressUseCase(flows, &fakeGeocoder{}, "pizzeria", newTestLogger())

	f1, err := uc.EnsureFlow(context.Background())
	require.NoError(t, err)
	f2, err := uc.EnsureFlow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, f1.ID, f2.ID)
	assert.Equal(t, "Pizzeria", f1.Name)
	assert.Len(t, flows.fields[f1.ID], 4)
}

func TestImportAddresses(t *testing.T) {
	flows := newMemFlowStore()
	geo := &fakeGeocoder{known: map[string]model.Coordinates{
		"Москва, Тверская 1": {Lat: 55.757, Lon: 37.613},
	}}
	uc := NewAddressUseCase(flows, geo, "pizzeria", newTestLogger())

	rep, err := uc.ImportAddresses(context.Background(), []AddressRecord{
		addressRecord("Арбат", "Москва, Арбат 10", "55.751", "37.596"),
		addressRecord("Тверская", "Москва, Тверская 1", "", ""),
		addressRecord("Nowhere", "Атлантида", "", ""),
		addressRecord("Empty", "", "1", "1"),
	})
	require.NoError(t, err)
	assert.Equal(t, AddressReport{Stored: 2, Geocoded: 1, Skipped: 2}, rep)
	assert.Equal(t, []string{"Москва, Тверская 1", "Атлантида"}, geo.calls)

	stored := flows.entries["pizzeria"]
	require.Len(t, stored, 2)
	addr, ok := model.AddressFromEntry(stored[1])
	require.True(t, ok)
	assert.Equal(t, "Тверская", addr.Alias)
	assert.InDelta(t, 55.757, addr.Coords.Lat, 1e-9)
}

func TestNearest(t *testing.T) {
	flows := newMemFlowStore()
	uc := NewAddressUseCase(flows, &fakeGeocoder{}, "pizzeria", newTestLogger())
	ctx := context.Background()

	_, err := uc.Nearest(ctx, model.Coordinates{Lat: 55.75, Lon: 37.6})
	require.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = uc.ImportAddresses(ctx, []AddressRecord{
		addressRecord("far", "Far st", "59.93", "30.31"),
		addressRecord("near", "Near st", "55.76", "37.61"),
	})
	require.NoError(t, err)
	// entries without coordinates are ignored
	flows.entries["pizzeria"] = append(flows.entries["pizzeria"], model.Entry{ID: "broken", Fields: map[string]interface{}{"address": "x"}})

	got, err := uc.Nearest(ctx, model.Coordinates{Lat: 55.75, Lon: 37.6})
	require.NoError(t, err)
	assert.Equal(t, "near", got.Address.Alias)
	assert.Greater(t, got.DistanceKm, 0.0)
}
