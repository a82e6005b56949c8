package main

import (
	"context"
	"fmt"
	"os"

	"github.com/andresuchdata/replenish/backend-go/internal/config"
	"github.com/andresuchdata/replenish/backend-go/internal/database"
	"github.com/andresuchdata/replenish/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

type contextKey string

const (
	dbKey     contextKey = "db"
	configKey contextKey = "config"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database URL (postgres://... or sqlite://path)",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newRequestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "lookback-weeks",
			Usage:   "Weeks of sales history to read (0 uses REPLENISHMENT_LOOKBACK_WEEKS)",
			EnvVars: []string{"LOOKBACK_WEEKS"},
		},
		&cli.Int64Flag{
			Name:  "warehouse-id",
			Usage: "Restrict demand to one warehouse",
		},
	}
}

func initApp(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)

	db, err := database.OpenURL(c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	c.Context = context.WithValue(c.Context, configKey, cfg)
	return nil
}

func closeApp(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*database.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "replenish",
		Usage: "Compute purchase suggestions from weekly sales history",
		Commands: []*cli.Command{
			{
				Name:   "report",
				Usage:  "Print ranked suggestions as a table",
				Flags:  append([]cli.Flag{newDBURLFlag()}, newRequestFlags()...),
				Before: initApp,
				After:  closeApp,
				Action: runReport,
			},
			{
				Name:  "export",
				Usage: "Write ranked suggestions as CSV",
				Flags: append([]cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file, - for stdout",
						Value:   "-",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Also upload the CSV to object storage (STORAGE_* settings)",
					},
				}, newRequestFlags()...),
				Before: initApp,
				After:  closeApp,
				Action: runExport,
			},
			{
				Name:   "schema",
				Usage:  "Create the sales history and policy tables if missing",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initApp,
				After:  closeApp,
				Action: runSchema,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("replenish failed")
	}
}
