package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lixenwraith/vi-drive/config"
	"github.com/lixenwraith/vi-drive/store"
	"github.com/lixenwraith/vi-drive/telemetry"
)

// printConfig writes the effective configuration, defaults included
func printConfig() error {
	log := consoleLogger(os.Stderr, CLI.Debug)
	cfg, _, err := loadConfig(log)
	if err != nil {
		return err
	}
	out, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func replay(path string) error {
	rec, err := telemetry.OpenRecording(path)
	if err != nil {
		return err
	}
	defer rec.Close()

	sum, err := telemetry.Summarize(rec.Reader)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	h := rec.Header
	fmt.Fprintf(w, "started\t%s\n", h.Started.Format(time.RFC3339))
	if h.RunID != 0 {
		fmt.Fprintf(w, "run\t%d\n", h.RunID)
	}
	fmt.Fprintf(w, "model\t%s\n", h.Tuning.DriveModel)
	fmt.Fprintf(w, "frames\t%d\n", sum.Frames)
	fmt.Fprintf(w, "duration\t%.2fs\n", sum.Duration)
	fmt.Fprintf(w, "top speed\t%.1f km/h\n", sum.TopSpeed*3.6)
	fmt.Fprintf(w, "distance\t%.1f m\n", sum.Distance)
	fmt.Fprintf(w, "respawns\t%d\n", sum.Respawns)
	return w.Flush()
}

func listRuns(limit int) error {
	log := consoleLogger(os.Stderr, CLI.Debug)
	cfg, _, err := loadConfig(log)
	if err != nil {
		return err
	}

	runs, err := store.Open(cfg.Storage.Driver, cfg.Storage.DSN, log)
	if err != nil {
		return err
	}
	defer runs.Close()

	recent, err := runs.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tMODEL\tFRAMES\tTOP KM/H\tDISTANCE\tRESPAWNS")
	for _, r := range recent {
		duration := "running"
		if r.EndedAt != nil {
			duration = r.EndedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%.1f\t%.1f\t%d\n",
			r.ID,
			r.StartedAt.Format(time.RFC3339),
			duration,
			r.DriveModel,
			r.Frames,
			r.TopSpeed*3.6,
			r.Distance,
			len(r.Respawns),
		)
	}
	return w.Flush()
}
