package benchseed

import (
	"database/sql"

	"github.com/petrijr/benchseed/internal/engine"
	"github.com/petrijr/benchseed/internal/persistence"
	"github.com/petrijr/benchseed/internal/seed"
	"github.com/petrijr/benchseed/internal/site"
	"github.com/petrijr/benchseed/pkg/driver"
)

type (
	Driver       = driver.Driver
	DriverConfig = driver.Config
	Report       = driver.Report
	StepResult   = driver.StepResult
)

// Scenario names of the built-in catalogue.
const (
	ScenarioWordPress   = seed.ScenarioWordPress
	ScenarioMisc        = seed.ScenarioMisc
	ScenarioWooCommerce = seed.ScenarioWooCommerce
	ScenarioLearnDash   = seed.ScenarioLearnDash
	ScenarioFinalize    = seed.ScenarioFinalize
	ScenarioClean       = seed.ScenarioClean
)

// BundleConfig tunes NewSQLiteBundle.
type BundleConfig struct {
	Driver   DriverConfig
	Observer Observer

	// HashCost is the bcrypt cost used for generated accounts. Zero keeps
	// the site default.
	HashCost int
}

// Bundle wires together a site, the built-in scenario catalogue, a
// Dispatcher gated by a persisted status, and a Driver whose cursors live
// in the same database.
type Bundle struct {
	Dispatcher Dispatcher
	Driver     *Driver
	Site       *site.Site
}

// NewSQLiteBundle builds a durable Bundle on db. Site tables, the status
// label, and run cursors all share the one database.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:bench.db?_journal=WAL")
//	bundle, err := benchseed.NewSQLiteBundle(db, benchseed.BundleConfig{})
//	report, err := bundle.Driver.RunScenario(ctx, benchseed.ScenarioClean, benchseed.Config{})
func NewSQLiteBundle(db *sql.DB, cfg BundleConfig) (*Bundle, error) {
	var opts []site.Option
	if cfg.HashCost > 0 {
		opts = append(opts, site.WithHashCost(cfg.HashCost))
	}
	s, err := site.Open(db, opts...)
	if err != nil {
		return nil, err
	}

	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}

	d := engine.NewDispatcher(engine.Config{Status: store, Observer: cfg.Observer})
	if err := seed.Register(d, seed.New(s)); err != nil {
		return nil, err
	}

	return &Bundle{
		Dispatcher: d,
		Driver:     driver.NewWithConfig(d, store, cfg.Driver),
		Site:       s,
	}, nil
}
