// File: internal/infra/geocoder/yandex.go
package geocoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"telegram-storefront/internal/config"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/domain/ports/adapter"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/metrics"
)

var _ adapter.Geocoder = (*Yandex)(nil)

const firstPosPath = "response.GeoObjectCollection.featureMember.0.GeoObject.Point.pos"

// APIError is a non-2xx answer of the geocoder.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("geocoder: http %d: %s", e.Status, e.Detail)
}

// Yandex resolves addresses with the Yandex HTTP geocoder.
type Yandex struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zerolog.Logger
}

func NewYandex(cfg config.GeocoderConfig, logger *zerolog.Logger) (*Yandex, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("geocoder api key empty")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Yandex{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		log:     logging.Component(logger, "geocoder"),
	}, nil
}

// FetchCoordinates takes the best-ranked match. Zero matches is found=false
// with a nil error.
func (y *Yandex) FetchCoordinates(ctx context.Context, address string) (model.Coordinates, bool, error) {
	q := url.Values{"geocode": {address}, "apikey": {y.apiKey}, "format": {"json"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, false, err
	}

	start := time.Now()
	resp, err := y.client.Do(req)
	if err != nil {
		metrics.ObserveBackendCall("geocoder", "geocode", 0, time.Since(start).Milliseconds())
		return model.Coordinates{}, false, fmt.Errorf("geocoder: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveBackendCall("geocoder", "geocode", resp.StatusCode, time.Since(start).Milliseconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Coordinates{}, false, fmt.Errorf("geocoder: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := gjson.GetBytes(body, "message").String()
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return model.Coordinates{}, false, &APIError{Status: resp.StatusCode, Detail: detail}
	}

	pos := gjson.GetBytes(body, firstPosPath)
	if !pos.Exists() {
		y.log.Debug().Str("address", address).Msg("no matches")
		return model.Coordinates{}, false, nil
	}
	coords, err := parsePos(pos.String())
	if err != nil {
		return model.Coordinates{}, false, err
	}
	return coords, true, nil
}

// parsePos reads the "<lon> <lat>" pair of a GeoJSON-ish point.
func parsePos(pos string) (model.Coordinates, error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return model.Coordinates{}, fmt.Errorf("geocoder: malformed pos %q", pos)
	}
	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("geocoder: longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.Coordinates{}, fmt.Errorf("geocoder: latitude %q: %w", parts[1], err)
	}
	return model.Coordinates{Lat: lat, Lon: lon}, nil
}

func (y *Yandex) Distance(from, to *model.Coordinates) (float64, bool) {
	return Distance(from, to)
}

// Distance is the great-circle distance in kilometres, rounded to two decimals.
func Distance(from, to *model.Coordinates) (float64, bool) {
	if from == nil || to == nil {
		return 0, false
	}
	m := geo.DistanceHaversine(orb.Point{from.Lon, from.Lat}, orb.Point{to.Lon, to.Lat})
	return math.Round(m/1000*100) / 100, true
}
