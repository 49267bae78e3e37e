package app

import (
	"context"
	"os/signal"
	"syscall"

	"sessionchart/internal/metrics"
	"sessionchart/internal/server"
)

// ServeOptions configure the serve command.
type ServeOptions struct {
	Addr string
}

// Serve runs the dashboard HTTP server until interrupted.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rec := metrics.New()
	svc, err := a.newService(rec)
	if err != nil {
		return err
	}
	page, err := a.newPage()
	if err != nil {
		return err
	}

	srvCfg := a.Config.Server
	if opts.Addr != "" {
		srvCfg.Addr = opts.Addr
	}

	srv := server.New(svc, server.Options{
		Page:    page,
		Chart:   a.chartOptions(),
		Metrics: rec.Handler(),
	}, a.Logger)
	return srv.ListenAndServe(ctx, srvCfg)
}
