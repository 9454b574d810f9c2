// Package config loads the application configuration through viper
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/tuning"
	"github.com/lixenwraith/vi-drive/vmath"
)

// EnvPrefix scopes environment overrides, e.g. VIDRIVE_TUNING_ENGINEFORCE=120
const EnvPrefix = "VIDRIVE"

// TuningSection is the file form of tuning.Config
type TuningSection struct {
	EngineForce          float64 `mapstructure:"engineForce" yaml:"engineForce"`
	DragCoefficient      float64 `mapstructure:"dragCoefficient" yaml:"dragCoefficient"`
	DragSpeedFactor      float64 `mapstructure:"dragSpeedFactor" yaml:"dragSpeedFactor"`
	BrakeDragCoefficient float64 `mapstructure:"brakeDragCoefficient" yaml:"brakeDragCoefficient"`
	MaxSpeed             float64 `mapstructure:"maxSpeed" yaml:"maxSpeed"`
	SteeringRate         float64 `mapstructure:"steeringRate" yaml:"steeringRate"`
	DriveModel           string  `mapstructure:"driveModel" yaml:"driveModel"`
}

type InputSection struct {
	HoldWindow time.Duration `mapstructure:"holdWindow" yaml:"holdWindow"`
}

type WorldSection struct {
	Gravity          float64       `mapstructure:"gravity" yaml:"gravity"`
	FloorY           float64       `mapstructure:"floorY" yaml:"floorY"`
	Spawn            []float64     `mapstructure:"spawn" yaml:"spawn,flow"`
	LockDuration     time.Duration `mapstructure:"lockDuration" yaml:"lockDuration"`
	GroundHalfExtent float64       `mapstructure:"groundHalfExtent" yaml:"groundHalfExtent"`
	Obstacles        bool          `mapstructure:"obstacles" yaml:"obstacles"`
}

type ServerSection struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

type StorageSection struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

type TelemetrySection struct {
	// Record is a recording path; empty disables recording
	Record   string `mapstructure:"record" yaml:"record"`
	Compress bool   `mapstructure:"compress" yaml:"compress"`
}

type InfluxSection struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
	Token   string `mapstructure:"token" yaml:"token"`
	Org     string `mapstructure:"org" yaml:"org"`
	Bucket  string `mapstructure:"bucket" yaml:"bucket"`
	Every   int    `mapstructure:"every" yaml:"every"`
}

type AudioSection struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type FrameSection struct {
	FPS int `mapstructure:"fps" yaml:"fps"`
}

// Config is the whole application configuration
type Config struct {
	Tuning    TuningSection       `mapstructure:"tuning" yaml:"tuning"`
	Keys      map[string][]string `mapstructure:"keys" yaml:"keys"`
	Input     InputSection        `mapstructure:"input" yaml:"input"`
	World     WorldSection        `mapstructure:"world" yaml:"world"`
	Server    ServerSection       `mapstructure:"server" yaml:"server"`
	Storage   StorageSection      `mapstructure:"storage" yaml:"storage"`
	Telemetry TelemetrySection    `mapstructure:"telemetry" yaml:"telemetry"`
	Influx    InfluxSection       `mapstructure:"influx" yaml:"influx"`
	Audio     AudioSection        `mapstructure:"audio" yaml:"audio"`
	Frame     FrameSection        `mapstructure:"frame" yaml:"frame"`
}

func setDefaults(v *viper.Viper) {
	d := tuning.Default()
	v.SetDefault("tuning.engineForce", d.EngineForce)
	v.SetDefault("tuning.dragCoefficient", d.DragCoefficient)
	v.SetDefault("tuning.dragSpeedFactor", d.DragSpeedFactor)
	v.SetDefault("tuning.brakeDragCoefficient", d.BrakeDragCoefficient)
	v.SetDefault("tuning.maxSpeed", d.MaxSpeed)
	v.SetDefault("tuning.steeringRate", d.SteeringRate)
	v.SetDefault("tuning.driveModel", d.DriveModel.String())

	v.SetDefault("keys", map[string][]string{})
	v.SetDefault("input.holdWindow", parameter.InputHoldWindow)

	v.SetDefault("world.gravity", parameter.Gravity)
	v.SetDefault("world.floorY", parameter.FloorY)
	v.SetDefault("world.spawn", parameter.SpawnPoint[:])
	v.SetDefault("world.lockDuration", parameter.LockDurationDefault)
	v.SetDefault("world.groundHalfExtent", parameter.GroundHalfExtent)
	v.SetDefault("world.obstacles", true)

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", "127.0.0.1:7420")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "vi-drive.db")

	v.SetDefault("telemetry.record", "")
	v.SetDefault("telemetry.compress", true)

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "vi-drive")
	v.SetDefault("influx.bucket", "vehicle")
	v.SetDefault("influx.every", 6)

	v.SetDefault("audio.enabled", true)
	v.SetDefault("frame.fps", parameter.FrameRateDefault)
}

// Loader owns a viper instance; the zero value is not usable
type Loader struct {
	v   *viper.Viper
	log zerolog.Logger
}

// NewLoader registers defaults and environment overrides
func NewLoader(log zerolog.Logger) *Loader {
	v := newViper()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v, log: log.With().Str("component", "config").Logger()}
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// Load reads path (YAML, TOML or JSON by extension) over the defaults
// An empty path uses defaults and environment only
func (l *Loader) Load(path string) (Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		l.log.Info().Str("file", l.v.ConfigFileUsed()).Msg("configuration loaded")
	}
	return l.decode()
}

func (l *Loader) decode() (Config, error) {
	var c Config
	if err := l.v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if c.Keys == nil {
		c.Keys = map[string][]string{}
	}
	return c, nil
}

// Reload re-reads the file and pushes the tuning section into store
func (l *Loader) Reload(store *tuning.Store) (tuning.Config, bool, error) {
	if l.v.ConfigFileUsed() == "" {
		return store.Load(), false, errors.New("config: no file to reload")
	}
	if err := l.v.ReadInConfig(); err != nil {
		return store.Load(), false, fmt.Errorf("reread config: %w", err)
	}
	c, err := l.decode()
	if err != nil {
		return store.Load(), false, err
	}
	next, err := c.TuningConfig()
	if err != nil {
		return store.Load(), false, err
	}
	applied, changed := store.Update(next)
	return applied, changed, nil
}

// Watch hot-reloads tuning whenever the file changes
func (l *Loader) Watch(store *tuning.Store) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, changed, err := l.Reload(store)
		if err != nil {
			l.log.Warn().Err(err).Str("file", e.Name).Msg("config reload rejected")
			return
		}
		if changed {
			l.log.Info().
				Float64("engineForce", cfg.EngineForce).
				Float64("maxSpeed", cfg.MaxSpeed).
				Str("model", cfg.DriveModel.String()).
				Msg("tuning reloaded")
		}
	})
	l.v.WatchConfig()
}

// TuningConfig merges the tuning and world sections into a sanitized tuning.Config
func (c Config) TuningConfig() (tuning.Config, error) {
	model, err := tuning.ParseDriveModel(c.Tuning.DriveModel)
	if err != nil {
		return tuning.Config{}, fmt.Errorf("tuning.driveModel: %w", err)
	}
	return tuning.Sanitize(tuning.Config{
		EngineForce:          c.Tuning.EngineForce,
		DragCoefficient:      c.Tuning.DragCoefficient,
		DragSpeedFactor:      c.Tuning.DragSpeedFactor,
		BrakeDragCoefficient: c.Tuning.BrakeDragCoefficient,
		MaxSpeed:             c.Tuning.MaxSpeed,
		SteeringRate:         c.Tuning.SteeringRate,
		LockDuration:         c.World.LockDuration,
		DriveModel:           model,
	}), nil
}

// KeyTable returns the default bindings with the keys section applied
func (c Config) KeyTable() (*input.KeyTable, error) {
	kt := input.DefaultKeyTable()
	if len(c.Keys) == 0 {
		return kt, nil
	}
	override, err := input.LoadKeyBindings(c.Keys)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	kt.Merge(override)
	return kt, nil
}

// SpawnPoint falls back to the stock spawn when the list is not three finite numbers
func (c Config) SpawnPoint() mgl64.Vec3 {
	def := mgl64.Vec3(parameter.SpawnPoint)
	if len(c.World.Spawn) != 3 {
		return def
	}
	p := mgl64.Vec3{c.World.Spawn[0], c.World.Spawn[1], c.World.Spawn[2]}
	if !vmath.IsFiniteVec(p) {
		return def
	}
	return p
}

// FPS clamps the configured frame rate
func (c Config) FPS() int {
	switch {
	case c.Frame.FPS <= 0:
		return parameter.FrameRateDefault
	case c.Frame.FPS < parameter.FrameRateMin:
		return parameter.FrameRateMin
	case c.Frame.FPS > parameter.FrameRateMax:
		return parameter.FrameRateMax
	}
	return c.Frame.FPS
}
