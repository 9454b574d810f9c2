// Package store keeps a history of driving runs and the respawns inside them
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lixenwraith/vi-drive/tuning"
)

// ErrNoRun is returned when a run id does not exist or has already finished
var ErrNoRun = errors.New("store: no such active run")

// Run is one play or serve session
type Run struct {
	ID         uint `gorm:"primarykey"`
	StartedAt  time.Time
	EndedAt    *time.Time
	DriveModel string         `gorm:"size:32"`
	Tuning     datatypes.JSON `json:"tuning"`
	Frames     int64
	TopSpeed   float64
	Distance   float64
	Respawns   []Respawn `gorm:"constraint:OnDelete:CASCADE"`
}

// Respawn is one vehicle reset
type Respawn struct {
	ID      uint `gorm:"primarykey"`
	RunID   uint `gorm:"index"`
	At      float64
	Reason  string `gorm:"size:16"`
	X, Y, Z float64
}

// Stats closes a run
type Stats struct {
	Frames   int64
	TopSpeed float64
	Distance float64
}

// Store wraps the run history database
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open connects with driver "sqlite" or "postgres" and migrates the schema
// An empty sqlite dsn opens a private in-memory database
func Open(driver, dsn string, log zerolog.Logger) (*Store, error) {
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	memory := false
	switch strings.ToLower(driver) {
	case "", "sqlite":
		if dsn == "" || strings.Contains(dsn, ":memory:") {
			dsn = "file::memory:"
			memory = true
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true})
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql interface: %w", err)
	}
	if memory {
		// Every connection to an unshared memory database sees its own schema
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Run{}, &Respawn{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Str("driver", driver).Bool("memory", memory).Msg("run store opened")
	return &Store{db: db, log: log}, nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// BeginRun records the start of a session and returns its id
func (s *Store) BeginRun(started time.Time, cfg tuning.Config) (uint, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("encode tuning: %w", err)
	}
	run := Run{
		StartedAt:  started,
		DriveModel: cfg.DriveModel.String(),
		Tuning:     datatypes.JSON(raw),
	}
	if err := s.db.Create(&run).Error; err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	s.log.Info().Uint("run", run.ID).Str("model", run.DriveModel).Msg("run started")
	return run.ID, nil
}

// RecordRespawn appends a reset to an active run
func (s *Store) RecordRespawn(runID uint, at float64, reason string, pos [3]float64) error {
	if err := s.active(runID); err != nil {
		return err
	}
	r := Respawn{RunID: runID, At: at, Reason: reason, X: pos[0], Y: pos[1], Z: pos[2]}
	if err := s.db.Create(&r).Error; err != nil {
		return fmt.Errorf("record respawn: %w", err)
	}
	return nil
}

// FinishRun stamps the end time and final statistics
func (s *Store) FinishRun(runID uint, ended time.Time, st Stats) error {
	if err := s.active(runID); err != nil {
		return err
	}
	res := s.db.Model(&Run{}).Where("id = ?", runID).Updates(map[string]any{
		"ended_at":  ended,
		"frames":    st.Frames,
		"top_speed": st.TopSpeed,
		"distance":  st.Distance,
	})
	if res.Error != nil {
		return fmt.Errorf("finish run: %w", res.Error)
	}
	s.log.Info().Uint("run", runID).Float64("distance", st.Distance).Msg("run finished")
	return nil
}

// RecentRuns lists the newest runs first with their respawns
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []Run
	err := s.db.
		Preload("Respawns", func(db *gorm.DB) *gorm.DB { return db.Order("at") }).
		Order("started_at DESC, id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}

// TuningOf decodes the tuning snapshot stored with a run
func (r Run) TuningOf() (tuning.Config, error) {
	var cfg tuning.Config
	if len(r.Tuning) == 0 {
		return tuning.Default(), nil
	}
	if err := json.Unmarshal(r.Tuning, &cfg); err != nil {
		return cfg, fmt.Errorf("decode tuning: %w", err)
	}
	return cfg, nil
}

func (s *Store) active(runID uint) error {
	var run Run
	err := s.db.Select("id", "ended_at").First(&run, runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoRun
	}
	if err != nil {
		return err
	}
	if run.EndedAt != nil {
		return ErrNoRun
	}
	return nil
}
