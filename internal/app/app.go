package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"option-pricer/internal/config"
	"option-pricer/internal/grid"
	"option-pricer/internal/pricing"
	"option-pricer/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// openStore connects to the configured database and ensures the schema
// exists. Returns a nil store when no DSN is configured.
func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool, a.Config.Store.AdvisoryLockKey)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// PriceOptions hold parameters for a single valuation.
type PriceOptions struct {
	Request pricing.Request
	Save    bool
}

// HeatmapOptions hold parameters for a sensitivity grid run.
type HeatmapOptions struct {
	Request pricing.Request
	Axis1   grid.AxisSpec
	Axis2   grid.AxisSpec
	Type    grid.OptionType
	CSVPath string
	PNGPath string
	Save    bool
}

// HistoryOptions configure a history listing.
type HistoryOptions struct {
	Limit   int
	Since   *time.Time
	Until   *time.Time
	SpotMin *float64
	SpotMax *float64
}
