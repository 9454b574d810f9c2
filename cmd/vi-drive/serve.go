package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// serve runs the simulation without a terminal; clients drive it over the websocket
func serve() error {
	log := consoleLogger(os.Stderr, CLI.Debug)

	cfg, loader, err := loadConfig(log)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if CLI.Serve.Addr != "" {
		addr = CLI.Serve.Addr
	}

	a, err := newApp(cfg, loader, log, CLI.Serve.Record, true, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", addr).Uint("run", a.runID).Msg("serving")

	err = runHeadless(ctx, a, addr, cfg.FPS())

	if cerr := a.close(); cerr != nil {
		log.Warn().Err(cerr).Msg("shutdown")
	}
	stats := a.session.Snapshot().Stats
	log.Info().
		Int64("frames", stats.Frames).
		Float64("distance", stats.Distance).
		Int("respawns", stats.Respawns).
		Msg("stopped")
	return err
}

// runHeadless serves until ctx is done, the listener fails or the session quits
func runHeadless(ctx context.Context, a *app, addr string, fps int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.ListenAndServe(ctx, addr)
	})
	g.Go(func() error {
		// A quitting session stops the listener too
		defer cancel()
		return a.session.Run(ctx, fps, nil)
	})
	return g.Wait()
}
