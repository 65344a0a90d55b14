// File: internal/usecase/address_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/domain"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/logging"
)

var _ AddressUseCase = (*addressUC)(nil)

// AddressUseCase keeps pickup addresses as entries of a backend flow.
type AddressUseCase interface {
	EnsureFlow(ctx context.Context) (*model.Flow, error)
	ImportAddresses(ctx context.Context, records []AddressRecord) (AddressReport, error)
	Nearest(ctx context.Context, from model.Coordinates) (*NearestAddress, error)
}

// AddressRecord is one record of addresses.json. Coordinates are optional;
// records without them are geocoded from Address.Full.
type AddressRecord struct {
	ID      string `json:"id"`
	Alias   string `json:"alias"`
	Address struct {
		Full string `json:"full"`
		City string `json:"city"`
	} `json:"address"`
	Coordinates struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	} `json:"coordinates"`
}

type AddressReport struct {
	Stored   int
	Geocoded int
	Skipped  int
}

type NearestAddress struct {
	Address    model.Address
	DistanceKm float64
}

type addressUC struct {
	flows    adapter.FlowStore
	geocoder adapter.Geocoder
	slug     string
	log      *zerolog.Logger
}

func NewAddressUseCase(flows adapter.FlowStore, geocoder adapter.Geocoder, flowSlug string, logger *zerolog.Logger) *addressUC {
	if logger == nil {
		logger = logging.Nop()
	}
	if flowSlug == "" {
		flowSlug = "pizzeria"
	}
	return &addressUC{flows: flows, geocoder: geocoder, slug: flowSlug, log: logger}
}

func addressFields() []model.Field {
	return []model.Field{
		{Name: "Address", Slug: model.AddressFieldAddress, Type: "string", Description: "Full address", Required: true},
		{Name: "Alias", Slug: model.AddressFieldAlias, Type: "string", Description: "Short name", Required: false},
		{Name: "Latitude", Slug: model.AddressFieldLatitude, Type: "float", Description: "Latitude", Required: true},
		{Name: "Longitude", Slug: model.AddressFieldLongitude, Type: "float", Description: "Longitude", Required: true},
	}
}

func (u *addressUC) EnsureFlow(ctx context.Context) (*model.Flow, error) {
	defer logging.TraceDuration(u.log, "AddressUC.EnsureFlow")()

	flow, err := u.flows.GetFlowBySlug(ctx, u.slug)
	if err == nil {
		return flow, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get flow %s: %w", u.slug, err)
	}

	flow, err = u.flows.CreateFlow(ctx, model.Flow{
		Name:        strings.ToUpper(u.slug[:1]) + u.slug[1:],
		Slug:        u.slug,
		Description: "Pickup addresses",
	})
	if err != nil {
		return nil, fmt.Errorf("create flow %s: %w", u.slug, err)
	}
	for _, f := range addressFields() {
		if _, err := u.flows.CreateField(ctx, flow.ID, f); err != nil {
			return nil, fmt.Errorf("create field %s: %w", f.Slug, err)
		}
	}
	u.log.Info().Str("flow", u.slug).Str("flow_id", flow.ID).Msg("address flow created")
	return flow, nil
}

func (u *addressUC) ImportAddresses(ctx context.Context, records []AddressRecord) (AddressReport, error) {
	defer logging.TraceDuration(u.log, "AddressUC.ImportAddresses")()
	var rep AddressReport

	for _, r := range records {
		text := strings.TrimSpace(r.Address.Full)
		if text == "" {
			rep.Skipped++
			continue
		}

		coords, err := model.ParseCoordinates(r.Coordinates.Lat, r.Coordinates.Lon)
		if err != nil {
			var found bool
			coords, found, err = u.geocoder.FetchCoordinates(ctx, text)
			if err != nil {
				return rep, fmt.Errorf("geocode %q: %w", text, err)
			}
			if !found {
				u.log.Warn().Str("address", text).Msg("address not found by geocoder, skipped")
				rep.Skipped++
				continue
			}
			rep.Geocoded++
		}

		addr := model.Address{Alias: r.Alias, Text: text, Coords: coords}
		if _, err := u.flows.CreateEntry(ctx, u.slug, addr.Entry()); err != nil {
			return rep, fmt.Errorf("store address %q: %w", text, err)
		}
		rep.Stored++
	}
	return rep, nil
}

// Nearest returns domain.ErrNotFound when the flow holds no usable entries.
func (u *addressUC) Nearest(ctx context.Context, from model.Coordinates) (*NearestAddress, error) {
	entries, err := u.flows.ListEntries(ctx, u.slug)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	var best *NearestAddress
	for _, e := range entries {
		addr, ok := model.AddressFromEntry(e)
		if !ok {
			continue
		}
		km, ok := u.geocoder.Distance(&from, &addr.Coords)
		if !ok {
			continue
		}
		if best == nil || km < best.DistanceKm {
			best = &NearestAddress{Address: addr, DistanceKm: km}
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}
