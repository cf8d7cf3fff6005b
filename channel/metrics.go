package channel

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// LookupResult classifies a cache lookup.
type LookupResult int

var LookupResults = [...]string{
	"hit",
	"miss",
	"stale",
}

func (r LookupResult) String() string {
	if int(r) < 0 || int(r) >= len(LookupResults) {
		return "unknown"
	}
	return LookupResults[r]
}

const (
	Hit LookupResult = iota
	Miss
	Stale
)

// Metrics bundles the Prometheus collectors of the channel cache. A nil
// *Metrics records nothing.
type Metrics struct {
	Lookups     *prometheus.CounterVec
	CachedLinks prometheus.Gauge
}

// NewMetrics registers the cache metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qdchannel_cache_lookups_total",
		Help: "Channel cache lookups, labeled by result (hit, miss, stale).",
	}, []string{"result"}), "qdchannel_cache_lookups_total")
	if err != nil {
		return nil, err
	}
	cached, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "qdchannel_cached_links",
		Help: "Number of links with a cached channel matrix.",
	}), "qdchannel_cached_links")
	if err != nil {
		return nil, err
	}
	return &Metrics{Lookups: lookups, CachedLinks: cached}, nil
}

func (m *Metrics) observe(r LookupResult, cachedLinks int) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(r.String()).Inc()
	m.CachedLinks.Set(float64(cachedLinks))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
