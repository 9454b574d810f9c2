package telemetry

import (
	"fmt"
	"sync"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"
)

// InfluxConfig locates the InfluxDB bucket for vehicle telemetry
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	// Every writes one point per Every frames; 0 or 1 writes all
	Every int
}

// InfluxSink streams frames as "vehicle" points through a non-blocking write API
type InfluxSink struct {
	client influxdb2.Client
	writer influxdb2_api.WriteAPI
	every  int
	tags   map[string]string
	log    zerolog.Logger

	mu     sync.Mutex
	count  int
	closed bool
	done   chan struct{}
}

// NewInfluxSink connects lazily; write failures are logged, never returned
func NewInfluxSink(cfg InfluxConfig, runTag string, log zerolog.Logger) *InfluxSink {
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)
	s := &InfluxSink{
		client: client,
		writer: client.WriteAPI(cfg.Org, cfg.Bucket),
		every:  cfg.Every,
		tags:   map[string]string{"run": runTag},
		log:    log.With().Str("component", "influx").Logger(),
		done:   make(chan struct{}),
	}
	go s.drainErrors()
	return s
}

func (s *InfluxSink) drainErrors() {
	errs := s.writer.Errors()
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.Warn().Err(err).Msg("influx write failed")
		case <-s.done:
			return
		}
	}
}

// Write queues a point for f
func (s *InfluxSink) Write(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.count++
	if s.every > 1 && (s.count-1)%s.every != 0 && f.Respawn == "" {
		return nil
	}

	fields := map[string]interface{}{
		"x":        f.Position[0],
		"y":        f.Position[1],
		"z":        f.Position[2],
		"speed":    f.ForwardSpeed,
		"yaw":      f.Yaw,
		"steer":    f.SteerAngle,
		"brake":    f.BrakeIntensity,
		"locked":   f.Locked,
		"sim_time": f.Time,
	}
	if f.Respawn != "" {
		fields["respawn"] = f.Respawn
	}
	p := influxdb2.NewPoint("vehicle", s.tags, fields, f.Wall)
	s.writer.WritePoint(p)
	return nil
}

// Close flushes pending points and shuts the client down
func (s *InfluxSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.writer.Flush()
	close(s.done)
	s.client.Close()
	return nil
}

// String identifies the sink in logs
func (s *InfluxSink) String() string {
	return fmt.Sprintf("influx(%s)", s.client.ServerURL())
}
