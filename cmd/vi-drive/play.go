package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-drive/audio"
	"github.com/lixenwraith/vi-drive/engine"
	"github.com/lixenwraith/vi-drive/render"
)

// play owns the terminal until the driver quits
func play() (err error) {
	logFile, log := setupLogging(CLI.Debug)
	if logFile != nil {
		defer logFile.Close()
	}

	cfg, loader, err := loadConfig(log)
	if err != nil {
		return err
	}

	var sound engine.Sound
	if cfg.Audio.Enabled {
		sm := audio.NewSoundManager()
		if err := sm.Initialize(); err != nil {
			// Continue without audio
			log.Warn().Err(err).Msg("audio unavailable")
		} else {
			defer sm.Cleanup()
			sound = sm
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	screen.HideCursor()

	// Restore the terminal before the trace reaches stderr
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "\n\033[31m[CRASH] %v\033[0m\n\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	a, err := newApp(cfg, loader, log, CLI.Play.Record, false, sound)
	if err != nil {
		screen.Fini()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.server != nil {
		go func() {
			if err := a.server.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Error().Err(err).Msg("control server stopped")
			}
		}()
	}

	width, height := screen.Size()
	renderer := render.NewRenderer(width, height, a.session.Colliders())
	resized := make(chan struct{}, 1)

	go pollEvents(screen, a.session, resized)

	runErr := a.session.Run(ctx, cfg.FPS(), func(snap engine.Snapshot) {
		select {
		case <-resized:
			w, h := screen.Size()
			renderer.Resize(w, h)
			screen.Sync()
		default:
		}
		renderer.Render(screen, snap)
	})

	screen.Fini()
	stats := a.session.Snapshot().Stats
	if err := a.close(); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
	log.Info().
		Int64("frames", stats.Frames).
		Float64("top_speed", stats.TopSpeed).
		Float64("distance", stats.Distance).
		Int("respawns", stats.Respawns).
		Msg("run finished")
	return runErr
}

// pollEvents forwards key and resize events until the screen is finalized
func pollEvents(screen tcell.Screen, session *engine.Session, resized chan<- struct{}) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			session.Key(ev.Key(), ev.Rune())
		case *tcell.EventResize:
			select {
			case resized <- struct{}{}:
			default:
			}
		}
	}
}
