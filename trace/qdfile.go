package trace

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/wiless/vlib"
)

// MultipathSnapshot is the ray tracer output for one link at one timestep.
// Angles are in radians, elevations measured from the z axis.
type MultipathSnapshot struct {
	NumComponents int
	Delay         vlib.VectorF // s
	PathGain      vlib.VectorF // dB (power)
	Phase         vlib.VectorF // rad
	ElAoD         vlib.VectorF
	AzAoD         vlib.VectorF
	ElAoA         vlib.VectorF
	AzAoA         vlib.VectorF
}

type field struct {
	name    string
	degrees bool
	set     func(s *MultipathSnapshot, v vlib.VectorF)
}

var fullFormat = []field{
	{"path delays", false, func(s *MultipathSnapshot, v vlib.VectorF) { s.Delay = v }},
	{"path gains", false, func(s *MultipathSnapshot, v vlib.VectorF) { s.PathGain = v }},
	{"path phases", false, func(s *MultipathSnapshot, v vlib.VectorF) { s.Phase = v }},
	{"path elev AoDs", true, func(s *MultipathSnapshot, v vlib.VectorF) { s.ElAoD = v }},
	{"path az AoDs", true, func(s *MultipathSnapshot, v vlib.VectorF) { s.AzAoD = v }},
	{"path elev AoAs", true, func(s *MultipathSnapshot, v vlib.VectorF) { s.ElAoA = v }},
	{"path az AoAs", true, func(s *MultipathSnapshot, v vlib.VectorF) { s.AzAoA = v }},
}

// noPhaseFormat is the older trace layout without the phase line.
var noPhaseFormat = []field{fullFormat[0], fullFormat[1], fullFormat[3], fullFormat[4], fullFormat[5], fullFormat[6]}

var qdFileName = regexp.MustCompile(`^Tx(\d+)Rx(\d+)\.txt$`)

// parseQdFileName extracts the ray-tracer ids from a Tx<i>Rx<j>.txt name.
func parseQdFileName(name string) (tx, rx uint32, ok bool) {
	m := qdFileName.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	t, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	r, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(t), uint32(r), true
}

// ReadQdFile parses every snapshot of a per-link trace file.
func ReadQdFile(fname string, withPhase bool) ([]MultipathSnapshot, error) {
	fid, err := os.Open(fname)
	if err != nil {
		return nil, &ConfigError{Path: fname, Reason: "cannot open trace file", Err: err}
	}
	defer fid.Close()
	return parseQd(fid, fname, withPhase)
}

func parseQd(r io.Reader, fname string, withPhase bool) ([]MultipathSnapshot, error) {
	format := fullFormat
	if !withPhase {
		format = noPhaseFormat
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	next := func() (string, bool) {
		if scanner.Scan() {
			return scanner.Text(), true
		}
		return "", false
	}

	var result []MultipathSnapshot
	for {
		line, ok := next()
		if !ok {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		timestep := len(result) + 1
		n, err := strconv.Atoi(line)
		if err != nil || n < 0 {
			return nil, &ConfigError{Path: fname, Reason: fmt.Sprintf("timestep %d: bad component count %q", timestep, line), Err: err}
		}

		snapshot := MultipathSnapshot{NumComponents: n}
		if n > 0 {
			for _, f := range format {
				line, ok := next()
				if !ok {
					return nil, &CountMismatchError{File: fname, Timestep: timestep, Field: f.name, Got: 0, Want: n}
				}
				values, err := parseCsv(line, f.degrees)
				if err != nil {
					return nil, &ConfigError{Path: fname, Reason: fmt.Sprintf("timestep %d: malformed %s", timestep, f.name), Err: err}
				}
				if len(values) != n {
					return nil, &CountMismatchError{File: fname, Timestep: timestep, Field: f.name, Got: len(values), Want: n}
				}
				f.set(&snapshot, values)
			}
		}
		snapshot.fill()
		result = append(result, snapshot)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{Path: fname, Reason: "cannot read trace file", Err: err}
	}
	return result, nil
}

// fill gives every absent field a zero vector of the right length.
func (s *MultipathSnapshot) fill() {
	for _, v := range []*vlib.VectorF{&s.Delay, &s.PathGain, &s.Phase, &s.ElAoD, &s.AzAoD, &s.ElAoA, &s.AzAoA} {
		if *v == nil {
			*v = vlib.NewVectorF(s.NumComponents)
		}
	}
}

// parseCsv reads comma separated floats, tolerating a trailing comma.
func parseCsv(line string, toRad bool) (vlib.VectorF, error) {
	tokens := strings.Split(strings.TrimSpace(line), ",")
	result := vlib.NewVectorF(0)
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, err
		}
		if toRad {
			v = degreesToRadians(v)
		}
		result = append(result, v)
	}
	return result, nil
}

func degreesToRadians(v float64) float64 {
	return v * math.Pi / 180.0
}

// validate checks the seven vectors all have NumComponents entries.
func (s MultipathSnapshot) validate() error {
	for _, v := range []vlib.VectorF{s.Delay, s.PathGain, s.Phase, s.ElAoD, s.AzAoD, s.ElAoA, s.AzAoA} {
		if len(v) != s.NumComponents {
			return fmt.Errorf("snapshot declares %d components, vector has %d", s.NumComponents, len(v))
		}
	}
	return nil
}
