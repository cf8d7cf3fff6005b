package channel

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/signetlabdei/qd-channel/antenna"
	"github.com/signetlabdei/qd-channel/trace"
)

// ErrClockRegression is returned when a channel is requested for a timestep
// earlier than the one of the cached matrix.
var ErrClockRegression = errors.New("channel: simulation time went backwards")

// SnapshotSource is the part of a trace repository the model reads.
type SnapshotSource interface {
	Snapshot(key trace.LinkKey, timestep uint64) (trace.MultipathSnapshot, error)
	Config() trace.ScenarioConfig
}

// Params are the scenario wide parameters of a channel model.
type Params struct {
	Duration     time.Duration // total simulated duration
	Frequency    float64       // carrier frequency in Hz
	Timesteps    uint64
	UpdatePeriod time.Duration
}

// ChannelModel hands out the channel matrix of a link at a given time.
type ChannelModel interface {
	GetChannel(link trace.LinkIdentity, now time.Duration, tx, rx antenna.Geometry) (*Matrix, error)
	Params() Params
}

// Model is the ChannelModel backed by ray-tracer snapshots. It keeps the
// most recent matrix of every link and recomputes it only when the trace
// timestep changes. A Model is not safe for concurrent use.
type Model struct {
	repo    SnapshotSource
	cfg     trace.ScenarioConfig
	clock   Clock
	metrics *Metrics
	reg     prometheus.Registerer
	cache   map[trace.LinkKey]*Matrix
}

type Option func(*Model)

// WithClock sets the clock used by Channel. The default is a ManualClock at
// time zero.
func WithClock(c Clock) Option {
	return func(m *Model) { m.clock = c }
}

// WithMetrics registers the cache metrics against reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(m *Model) { m.reg = reg }
}

func NewModel(repo SnapshotSource, opts ...Option) (*Model, error) {
	m := &Model{
		repo:  repo,
		cfg:   repo.Config(),
		clock: &ManualClock{},
		cache: make(map[trace.LinkKey]*Matrix),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.reg != nil {
		metrics, err := NewMetrics(m.reg)
		if err != nil {
			return nil, fmt.Errorf("channel: register metrics: %w", err)
		}
		m.metrics = metrics
	}
	return m, nil
}

// GetChannel returns the channel of link at time now. Within one trace
// timestep the same *Matrix is returned for both directions of a link.
func (m *Model) GetChannel(link trace.LinkIdentity, now time.Duration, tx, rx antenna.Geometry) (*Matrix, error) {
	key := link.Key()
	timestep, err := m.cfg.Timestep(now)
	if err != nil {
		return nil, err
	}

	result := Miss
	if cached, ok := m.cache[key]; ok {
		generated, err := m.cfg.Timestep(cached.Generated)
		if err != nil {
			return nil, err
		}
		switch {
		case generated == timestep:
			m.metrics.observe(Hit, len(m.cache))
			return cached, nil
		case generated > timestep:
			return nil, fmt.Errorf("%w: link %v cached at timestep %d, requested %d", ErrClockRegression, link, generated, timestep)
		}
		result = Stale
	}

	snapshot, err := m.repo.Snapshot(key, timestep)
	if err != nil {
		return nil, err
	}
	matrix := Synthesize(snapshot, m.cfg.Frequency, tx, rx, now, link)
	m.cache[key] = matrix
	m.metrics.observe(result, len(m.cache))

	log.WithFields(log.Fields{
		"link":       link,
		"timestep":   timestep,
		"components": snapshot.NumComponents,
		"lookup":     result,
	}).Debug("channel matrix generated")
	return matrix, nil
}

// Channel is GetChannel at the model clock's current time.
func (m *Model) Channel(link trace.LinkIdentity, tx, rx antenna.Geometry) (*Matrix, error) {
	return m.GetChannel(link, m.clock.Now(), tx, rx)
}

func (m *Model) Params() Params {
	return Params{
		Duration:     m.cfg.Duration,
		Frequency:    m.cfg.Frequency,
		Timesteps:    m.cfg.Timesteps,
		UpdatePeriod: m.cfg.UpdatePeriod(),
	}
}

func (m *Model) GetTotalSimulatedDuration() time.Duration {
	return m.cfg.Duration
}

func (m *Model) GetCarrierFrequency() float64 {
	return m.cfg.Frequency
}

// SetFrequency is kept for callers that configure every channel model with
// a frequency. The carrier frequency is owned by the scenario file, so the
// value is ignored.
func (m *Model) SetFrequency(f float64) {
	log.WithFields(log.Fields{"requested": f, "scenario": m.cfg.Frequency}).
		Warn("carrier frequency is set by the scenario configuration, ignoring")
}

// CachedLinks is the number of links with a cached matrix.
func (m *Model) CachedLinks() int {
	return len(m.cache)
}

var _ ChannelModel = (*Model)(nil)
