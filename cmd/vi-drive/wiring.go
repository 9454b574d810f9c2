package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/lixenwraith/vi-drive/config"
	"github.com/lixenwraith/vi-drive/engine"
	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/server"
	"github.com/lixenwraith/vi-drive/store"
	"github.com/lixenwraith/vi-drive/telemetry"
	"github.com/lixenwraith/vi-drive/tuning"
)

// app owns everything a session needs beyond the simulation itself
type app struct {
	cfg    config.Config
	loader *config.Loader
	log    zerolog.Logger

	tuning   *tuning.Store
	controls *input.Controls
	runs     *store.Store
	runID    uint
	server   *server.Server
	session  *engine.Session
}

// loadConfig reads the optional config file named on the command line
func loadConfig(log zerolog.Logger) (config.Config, *config.Loader, error) {
	loader := config.NewLoader(log)
	cfg, err := loader.Load(CLI.ConfigFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, loader, nil
}

// newApp opens the run store, builds the sinks and starts a session
// record overrides telemetry.record when set; sound may be nil
func newApp(cfg config.Config, loader *config.Loader, log zerolog.Logger, record string, forceServer bool, sound engine.Sound) (*app, error) {
	tcfg, err := cfg.TuningConfig()
	if err != nil {
		return nil, err
	}
	keys, err := cfg.KeyTable()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		loader:   loader,
		log:      log,
		tuning:   tuning.NewStore(tcfg),
		controls: input.NewControls(),
	}
	started := time.Now()

	// A broken run store costs history, not the drive
	if runs, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN, log); err != nil {
		log.Warn().Err(err).Str("driver", cfg.Storage.Driver).Msg("run store unavailable")
	} else if id, err := runs.BeginRun(started, tcfg); err != nil {
		log.Warn().Err(err).Msg("failed to begin run")
		runs.Close()
	} else {
		a.runs, a.runID = runs, id
	}

	sinks, err := a.sinks(started, tcfg, record, forceServer)
	if err != nil {
		a.closeRuns()
		return nil, err
	}

	if CLI.ConfigFile != "" {
		loader.Watch(a.tuning)
	}

	opts := engine.Options{
		Gravity:          cfg.World.Gravity,
		FloorY:           cfg.World.FloorY,
		Spawn:            cfg.SpawnPoint(),
		GroundHalfExtent: cfg.World.GroundHalfExtent,
		Obstacles:        cfg.World.Obstacles,
		Tuning:           a.tuning,
		Controls:         a.controls,
		Keys:             keys,
		HoldWindow:       cfg.Input.HoldWindow,
		Sinks:            sinks,
		Sound:            sound,
		RunID:            a.runID,
		Logger:           log,
	}
	if a.runs != nil {
		opts.Runs = a.runs
	}
	a.session = engine.NewSession(opts)
	return a, nil
}

func (a *app) sinks(started time.Time, tcfg tuning.Config, record string, forceServer bool) (telemetry.Sinks, error) {
	var sinks telemetry.Sinks

	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	sinks = append(sinks, metrics)

	if record == "" {
		record = a.cfg.Telemetry.Record
	}
	if record != "" {
		rec, err := telemetry.CreateRecording(record, a.cfg.Telemetry.Compress, telemetry.Header{
			Version: telemetry.FormatVersion,
			Started: started,
			Tuning:  tcfg,
			RunID:   a.runID,
		})
		if err != nil {
			sinks.Close()
			return nil, fmt.Errorf("recording: %w", err)
		}
		a.log.Info().Str("path", record).Bool("compress", a.cfg.Telemetry.Compress).Msg("recording frames")
		sinks = append(sinks, rec)
	}

	if ic := a.cfg.Influx; ic.Enabled {
		sinks = append(sinks, telemetry.NewInfluxSink(telemetry.InfluxConfig{
			URL:    ic.URL,
			Token:  ic.Token,
			Org:    ic.Org,
			Bucket: ic.Bucket,
			Every:  ic.Every,
		}, "run-"+strconv.FormatUint(uint64(a.runID), 10), a.log))
	}

	if a.cfg.Server.Enabled || forceServer {
		a.server = server.New(server.Options{
			Tuning:   a.tuning,
			Controls: a.controls,
			Respawn: func() {
				if a.session != nil {
					a.session.RequestRespawn()
				}
			},
			Interval: parameter.BroadcastInterval,
			Log:      a.log,
		})
		sinks = append(sinks, a.server)
	}
	return sinks, nil
}

// close finishes the run and releases the store after the session flushed its sinks
func (a *app) close() error {
	var errs []error
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.closeRuns(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) closeRuns() error {
	if a.runs == nil {
		return nil
	}
	err := a.runs.Close()
	a.runs = nil
	return err
}
