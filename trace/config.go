package trace

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	ms "github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
)

// ScenarioConfig holds the global parameters of a ray-traced scenario.
type ScenarioConfig struct {
	Path      string
	Scenario  string
	Timesteps uint64        // number of time divisions
	Duration  time.Duration // total simulated time
	Frequency float64       // carrier frequency in Hz
}

// UpdatePeriod is the length of one timestep, truncated to whole
// nanoseconds.
func (c ScenarioConfig) UpdatePeriod() time.Duration {
	if c.Timesteps == 0 {
		return 0
	}
	return c.Duration / time.Duration(c.Timesteps)
}

// Timestep maps a simulation time onto the index of the trace snapshot
// valid at that time.
func (c ScenarioConfig) Timestep(t time.Duration) (uint64, error) {
	period := c.UpdatePeriod()
	if period <= 0 {
		return 0, &ConfigError{Reason: "update period is not positive"}
	}
	if t < 0 {
		return 0, &RangeError{Time: t, Limit: c.Timesteps, Reason: fmt.Sprintf("negative time %v", t)}
	}
	ts := uint64(t / period)
	if ts > c.Timesteps {
		return 0, &RangeError{Time: t, Timestep: ts, Limit: c.Timesteps,
			Reason: fmt.Sprintf("time %v is past the end of the scenario (%v, %d timesteps)", t, c.Duration, c.Timesteps)}
	}
	return ts, nil
}

func (c ScenarioConfig) validate() error {
	if c.Timesteps == 0 {
		return &ConfigError{Reason: "numberOfTimeDivisions must be positive"}
	}
	if c.UpdatePeriod() <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("update period of %v over %d timesteps is not positive", c.Duration, c.Timesteps)}
	}
	if c.Frequency <= 0 || math.IsNaN(c.Frequency) || math.IsInf(c.Frequency, 0) {
		return &ConfigError{Reason: "carrierFrequency must be positive"}
	}
	return nil
}

// paraCfg is the subset of the ray tracer's parameter file this package uses.
type paraCfg struct {
	NumberOfTimeDivisions int     `mapstructure:"numberOfTimeDivisions" validate:"gt=0"`
	TotalTimeDuration     float64 `mapstructure:"totalTimeDuration" validate:"gt=0"`
	CarrierFrequency      float64 `mapstructure:"carrierFrequency" validate:"gt=0"`
}

var validate = validator.New()

// ReadConfig parses a paraCfgCurrent.txt file: a header line followed by
// name<TAB>value lines. Unknown names are ignored.
func ReadConfig(fname string) (ScenarioConfig, error) {
	fid, err := os.Open(fname)
	if err != nil {
		return ScenarioConfig{}, &ConfigError{Path: fname, Reason: "cannot open scenario configuration", Err: err}
	}
	defer fid.Close()

	values := make(map[string]interface{})
	scanner := bufio.NewScanner(fid)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.SplitN(scanner.Text(), "\t", 3)
		if len(fields) < 2 {
			continue
		}
		values[strings.TrimSpace(fields[0])] = strings.TrimSpace(fields[1])
	}
	if err := scanner.Err(); err != nil {
		return ScenarioConfig{}, &ConfigError{Path: fname, Reason: "cannot read scenario configuration", Err: err}
	}
	return decodeConfig(fname, values)
}

func decodeConfig(fname string, values map[string]interface{}) (ScenarioConfig, error) {
	var raw paraCfg
	decoder, err := ms.NewDecoder(&ms.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return ScenarioConfig{}, err
	}
	if err := decoder.Decode(values); err != nil {
		return ScenarioConfig{}, &ConfigError{Path: fname, Reason: "malformed scenario configuration", Err: err}
	}
	if err := validate.Struct(raw); err != nil {
		return ScenarioConfig{}, &ConfigError{Path: fname, Reason: "missing or non-positive scenario parameter", Err: err}
	}
	cfg := ScenarioConfig{
		Timesteps: uint64(raw.NumberOfTimeDivisions),
		Duration:  time.Duration(math.Round(raw.TotalTimeDuration * float64(time.Second))),
		Frequency: raw.CarrierFrequency,
	}
	if err := cfg.validate(); err != nil {
		ce := err.(*ConfigError)
		ce.Path = fname
		return ScenarioConfig{}, ce
	}
	log.WithFields(log.Fields{
		"timesteps": cfg.Timesteps,
		"duration":  cfg.Duration,
		"frequency": cfg.Frequency,
	}).Debug("scenario configuration")
	return cfg, nil
}
