package adapter

import (
	"context"

	"telegram-storefront/internal/domain/model"
)

// Geocoder resolves free-text addresses and measures distances between them.
type Geocoder interface {
	// FetchCoordinates uses the best-ranked match; found=false means zero matches.
	FetchCoordinates(ctx context.Context, address string) (coords model.Coordinates, found bool, err error)
	// Distance is the great-circle distance in km rounded to two decimals;
	// ok=false when either point is nil.
	Distance(from, to *model.Coordinates) (km float64, ok bool)
}
