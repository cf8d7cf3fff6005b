package trace

import (
	"errors"
	"fmt"
	"time"

	"github.com/wiless/vlib"
)

// Sentinels for errors.Is. Every typed error below matches exactly one.
var (
	ErrConfig           = errors.New("trace: invalid scenario configuration")
	ErrGeometryMismatch = errors.New("trace: position not matched to a live node")
	ErrCountMismatch    = errors.New("trace: value count mismatch")
	ErrRange            = errors.New("trace: out of range")
)

// ConfigError reports a missing or malformed scenario file or value.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "trace: " + e.Reason
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error        { return e.Err }
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// GeometryMismatchError reports a trace position with no live node at the
// same coordinates.
type GeometryMismatchError struct {
	RtID     uint32
	Position vlib.Location3D
}

func (e *GeometryMismatchError) Error() string {
	return fmt.Sprintf("trace: position %d (%g,%g,%g) does not match any node, were node positions set before loading?",
		e.RtID, e.Position.X, e.Position.Y, e.Position.Z)
}

func (e *GeometryMismatchError) Is(target error) bool { return target == ErrGeometryMismatch }

// CountMismatchError reports a field line whose value count differs from the
// declared number of components, or a link whose snapshot sequence length
// differs from the configured number of timesteps. Timestep is 1-based, zero
// when the error concerns a whole link.
type CountMismatchError struct {
	File     string
	Timestep int
	Field    string
	Got      int
	Want     int
}

func (e *CountMismatchError) Error() string {
	if e.Timestep == 0 {
		return fmt.Sprintf("trace: %s has %d %s, want %d", e.File, e.Got, e.Field, e.Want)
	}
	return fmt.Sprintf("trace: mismatch between number of %s (%d) and number of components (%d), timestep=%d, file=%s",
		e.Field, e.Got, e.Want, e.Timestep, e.File)
}

func (e *CountMismatchError) Is(target error) bool { return target == ErrCountMismatch }

// RangeError reports a lookup outside the loaded data: an unknown link, a
// timestep past the end of a sequence, or a time outside the scenario.
type RangeError struct {
	Key      LinkKey
	Timestep uint64
	Limit    uint64
	Time     time.Duration
	Reason   string
}

func (e *RangeError) Error() string {
	if e.Reason != "" {
		return "trace: " + e.Reason
	}
	return fmt.Sprintf("trace: timestep %d out of range [0,%d) for link %d", e.Timestep, e.Limit, e.Key)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }
