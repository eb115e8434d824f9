package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	"github.com/petrijr/benchseed"
	"github.com/petrijr/benchseed/internal/engine"
	"github.com/petrijr/benchseed/internal/persistence"
	"github.com/petrijr/benchseed/internal/seed"
	"github.com/petrijr/benchseed/internal/site"
	"github.com/petrijr/benchseed/pkg/api"
	"github.com/petrijr/benchseed/pkg/driver"
	"github.com/petrijr/benchseed/pkg/metrics"
)

// app is everything a command needs, wired from settings.
type app struct {
	logger     *slog.Logger
	site       *site.Site
	store      persistence.Persistence
	dispatcher api.Dispatcher
	driver     *driver.Driver

	closers []func() error
}

func openApp(ctx context.Context, s settings, logger *slog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	db, err := sql.Open("sqlite", s.SiteDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	a.closers = append(a.closers, db.Close)

	var opts []site.Option
	if s.HashCost > 0 {
		opts = append(opts, site.WithHashCost(s.HashCost))
	}
	if a.site, err = site.Open(db, opts...); err != nil {
		return nil, err
	}

	st, closeStore, err := openStore(ctx, s, db)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, closeStore)

	observers := []api.Observer{api.NewLoggingObserver(logger)}
	if s.MetricsAddr != "" {
		obs, err := a.serveMetrics(s.MetricsAddr)
		if err != nil {
			return nil, err
		}
		observers = append(observers, obs)
	}

	a.dispatcher = engine.NewDispatcher(engine.Config{
		Status:   st.Status,
		Observer: api.NewCompositeObserver(observers...),
	})
	if err := seed.Register(a.dispatcher, seed.New(a.site)); err != nil {
		return nil, err
	}

	a.driver = driver.NewWithConfig(a.dispatcher, st.Cursors, driver.Config{
		Retry:    benchseed.DefaultRetry(s.RetryAttempts, s.RetryBackoff).Policy(),
		CallRate: s.CallRate,
		Logger:   logger,
	})
	return a, nil
}

// serveMetrics starts a /metrics endpoint on addr backed by a private
// registry and returns the observer feeding it.
func (a *app) serveMetrics(addr string) (api.Observer, error) {
	reg := prometheus.NewRegistry()
	obs, err := metrics.NewPrometheusObserver(reg)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	a.logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))

	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	return obs, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
