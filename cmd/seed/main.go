// File: cmd/seed/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-storefront/internal/config"
	"telegram-storefront/internal/domain/model"
	"telegram-storefront/internal/infra/catalog"
	"telegram-storefront/internal/infra/geocoder"
	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	menuPath := flag.String("menu", "", "menu.json to import as products")
	addrPath := flag.String("addresses", "", "addresses.json to import into the address flow")
	nearest := flag.String("nearest", "", `"lat,lon" to print the closest stored address`)
	wipe := flag.Bool("wipe", false, "delete all products and files before importing")
	currency := flag.String("currency", "RUB", "currency of menu prices")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client, err := catalog.NewClient(cfg.Catalog, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("catalog client")
	}

	importUC := usecase.NewImportUseCase(client, *currency, logging.Component(logger, "import"))
	if *wipe {
		if err := importUC.WipeCatalog(ctx); err != nil {
			logger.Fatal().Err(err).Msg("wipe catalog")
		}
	}
	if *menuPath != "" {
		var items []usecase.MenuItem
		if err := readJSON(*menuPath, &items); err != nil {
			logger.Fatal().Err(err).Msg("read menu")
		}
		rep, err := importUC.ImportMenu(ctx, items)
		if err != nil {
			logger.Fatal().Err(err).Int("created", rep.Created).Msg("import menu")
		}
		logger.Info().Int("created", rep.Created).Int("without_images", rep.WithoutImages).Msg("menu imported")
	}

	if *addrPath == "" && *nearest == "" {
		return
	}
	geo, err := geocoder.NewYandex(cfg.Geocoder, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("geocoder")
	}
	addrUC := usecase.NewAddressUseCase(client, geo, cfg.Catalog.AddressFlow, logging.Component(logger, "addresses"))

	if *addrPath != "" {
		if err := importAddresses(ctx, addrUC, *addrPath, logger); err != nil {
			logger.Fatal().Err(err).Msg("import addresses")
		}
	}
	if *nearest != "" {
		if err := printNearest(ctx, addrUC, *nearest); err != nil {
			logger.Fatal().Err(err).Msg("nearest address")
		}
	}
}

func importAddresses(ctx context.Context, uc usecase.AddressUseCase, path string, logger *zerolog.Logger) error {
	var records []usecase.AddressRecord
	if err := readJSON(path, &records); err != nil {
		return err
	}
	if _, err := uc.EnsureFlow(ctx); err != nil {
		return err
	}
	rep, err := uc.ImportAddresses(ctx, records)
	if err != nil {
		return err
	}
	logger.Info().Int("stored", rep.Stored).Int("geocoded", rep.Geocoded).Int("skipped", rep.Skipped).Msg("addresses imported")
	return nil
}

func printNearest(ctx context.Context, uc usecase.AddressUseCase, latLon string) error {
	lat, lon, ok := strings.Cut(latLon, ",")
	if !ok {
		return errors.New(`expected "lat,lon"`)
	}
	from, err := model.ParseCoordinates(strings.TrimSpace(lat), strings.TrimSpace(lon))
	if err != nil {
		return err
	}
	n, err := uc.Nearest(ctx, from)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s): %.2f km\n", n.Address.Text, n.Address.Alias, n.DistanceKm)
	return nil
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
