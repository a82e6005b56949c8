package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/cache"
	"github.com/andresuchdata/replenish/backend-go/internal/config"
	"github.com/andresuchdata/replenish/backend-go/internal/database"
	"github.com/andresuchdata/replenish/backend-go/internal/domain"
	"github.com/andresuchdata/replenish/backend-go/internal/report"
	"github.com/andresuchdata/replenish/backend-go/internal/repository"
	"github.com/andresuchdata/replenish/backend-go/internal/service"
	"github.com/andresuchdata/replenish/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// newObjectStorage opens the bucket export --upload writes to
var newObjectStorage = func(cfg config.StorageConfig) (storage.ObjectStorage, error) {
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func fromContext(c *cli.Context) (*database.DB, *config.Config, error) {
	db, ok := c.Context.Value(dbKey).(*database.DB)
	if !ok || db == nil {
		return nil, nil, fmt.Errorf("database not initialized")
	}
	cfg, ok := c.Context.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}
	return db, cfg, nil
}

func requestFrom(c *cli.Context) domain.ReplenishmentRequest {
	req := domain.ReplenishmentRequest{LookbackWeeks: c.Int("lookback-weeks")}
	if c.IsSet("warehouse-id") {
		id := c.Int64("warehouse-id")
		req.WarehouseID = &id
	}
	return req
}

// computeSuggestions runs the estimator straight against the database; the CLI never caches
func computeSuggestions(c *cli.Context) ([]domain.ReplenishmentSuggestion, domain.ReplenishmentRequest, *config.Config, error) {
	db, cfg, err := fromContext(c)
	if err != nil {
		return nil, domain.ReplenishmentRequest{}, nil, err
	}

	svc, err := service.NewReplenishmentService(repository.NewReplenishmentRepository(db.DB), cache.NewNoopSuggestionCache(), cfg.Replenishment)
	if err != nil {
		return nil, domain.ReplenishmentRequest{}, nil, err
	}

	req := requestFrom(c)
	suggestions, err := svc.GetSuggestions(c.Context, req)
	if err != nil {
		return nil, req, nil, err
	}
	return suggestions, req, cfg, nil
}

func runReport(c *cli.Context) error {
	suggestions, _, _, err := computeSuggestions(c)
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		fmt.Fprintln(c.App.Writer, "no products with demand in the selected window")
		return nil
	}
	return report.WriteTable(c.App.Writer, suggestions)
}

func runExport(c *cli.Context) error {
	suggestions, req, cfg, err := computeSuggestions(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, suggestions); err != nil {
		return err
	}

	if err := writeOutput(c.App.Writer, c.String("output"), buf.Bytes()); err != nil {
		return err
	}

	if !c.Bool("upload") {
		return nil
	}

	key, err := uploadReport(c.Context, cfg.Storage, req.WarehouseID, buf.Bytes())
	if err != nil {
		return err
	}

	log.Info().Str("bucket", cfg.Storage.Bucket).Str("key", key).Int("rows", len(suggestions)).Msg("suggestions uploaded")
	return nil
}

// uploadReport stores a CSV export under the configured prefix and returns its key
func uploadReport(ctx context.Context, cfg config.StorageConfig, warehouseID *int64, data []byte) (string, error) {
	objects, err := newObjectStorage(cfg)
	if err != nil {
		return "", fmt.Errorf("object storage: %w", err)
	}
	key := storage.ReportKey(cfg.Prefix, time.Now(), warehouseID, "csv")
	if err := objects.UploadObject(ctx, key, data, report.CSVContentType); err != nil {
		return "", err
	}
	return key, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("suggestions exported")
	return nil
}

func runSchema(c *cli.Context) error {
	db, _, err := fromContext(c)
	if err != nil {
		return err
	}
	if err := database.EnsureSchema(c.Context, db); err != nil {
		return err
	}
	log.Info().Str("driver", db.DriverName()).Msg("schema ready")
	return nil
}
