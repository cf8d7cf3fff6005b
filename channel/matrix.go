// Package channel turns ray-tracer snapshots into MIMO channel matrices and
// caches one matrix per link for the duration of a trace timestep.
package channel

import (
	"math"
	"math/cmplx"
	"time"

	"github.com/wiless/vlib"

	"github.com/signetlabdei/qd-channel/antenna"
	"github.com/signetlabdei/qd-channel/trace"
)

// Matrix is the channel of one link at one instant.
type Matrix struct {
	// H[u][s][n]: rx element u, tx element s, tap n. There is one tap when
	// the snapshot had at least one component and none otherwise.
	H     [][][]complex128
	Delay vlib.VectorF
	AzAoA vlib.VectorF
	ElAoA vlib.VectorF
	AzAoD vlib.VectorF
	ElAoD vlib.VectorF

	Generated time.Duration
	Link      trace.LinkIdentity

	rxElements int
	txElements int
}

func (m *Matrix) RxElements() int { return m.rxElements }
func (m *Matrix) TxElements() int { return m.txElements }

// Taps is 1 for a channel with propagation and 0 otherwise.
func (m *Matrix) Taps() int {
	if m.rxElements == 0 || m.txElements == 0 {
		return 0
	}
	return len(m.H[0][0])
}

// Angles returns the angle vectors in the order azimuth of arrival,
// elevation of arrival, azimuth of departure, elevation of departure.
func (m *Matrix) Angles() [4]vlib.VectorF {
	return [4]vlib.VectorF{m.AzAoA, m.ElAoA, m.AzAoD, m.ElAoD}
}

// Synthesize builds the channel matrix of snapshot for the given arrays.
// Every component adds a plane wave with amplitude 10^(gain/20), phase
// -2*pi*delay*f + phase, and the array steering phases of its departure and
// arrival directions. Element positions are in wavelengths.
func Synthesize(snapshot trace.MultipathSnapshot, frequency float64, tx, rx antenna.Geometry, now time.Duration, link trace.LinkIdentity) *Matrix {
	rxSize, txSize := rx.NumElements(), tx.NumElements()
	taps := 0
	if snapshot.NumComponents > 0 {
		taps = 1
	}

	H := make([][][]complex128, rxSize)
	for u := range H {
		H[u] = make([][]complex128, txSize)
		for s := range H[u] {
			H[u][s] = make([]complex128, taps)
		}
	}

	rxLocs := locations(rx)
	txLocs := locations(tx)
	rxPattern, _ := rx.(antenna.ElementPattern)
	txPattern, _ := tx.(antenna.ElementPattern)

	rxWeight := make([]complex128, rxSize)
	txWeight := make([]complex128, txSize)
	for i := 0; i < snapshot.NumComponents; i++ {
		initialPhase := -2*math.Pi*snapshot.Delay[i]*frequency + snapshot.Phase[i]
		pathGain := math.Pow(10, snapshot.PathGain[i]/20)

		rxGain, txGain := 1.0, 1.0
		if rxPattern != nil {
			rxGain = rxPattern.FieldGain(snapshot.AzAoA[i], snapshot.ElAoA[i])
		}
		if txPattern != nil {
			txGain = txPattern.FieldGain(snapshot.AzAoD[i], snapshot.ElAoD[i])
		}
		ray := complex(pathGain*rxGain*txGain, 0) * cmplx.Rect(1, initialPhase)

		steering(rxWeight, rxLocs, snapshot.AzAoA[i], snapshot.ElAoA[i])
		steering(txWeight, txLocs, snapshot.AzAoD[i], snapshot.ElAoD[i])
		for u := 0; u < rxSize; u++ {
			for s := 0; s < txSize; s++ {
				H[u][s][0] += ray * rxWeight[u] * txWeight[s]
			}
		}
	}

	return &Matrix{
		H:          H,
		Delay:      snapshot.Delay,
		AzAoA:      snapshot.AzAoA,
		ElAoA:      snapshot.ElAoA,
		AzAoD:      snapshot.AzAoD,
		ElAoD:      snapshot.ElAoD,
		Generated:  now,
		Link:       link,
		rxElements: rxSize,
		txElements: txSize,
	}
}

func locations(g antenna.Geometry) []vlib.Location3D {
	result := make([]vlib.Location3D, g.NumElements())
	for i := range result {
		result[i] = g.ElementLocation(i)
	}
	return result
}

// steering fills w with exp(j*2*pi*(a.r)) for the unit vector a of the
// direction (azimuth, elevation from the z axis).
func steering(w []complex128, locs []vlib.Location3D, azimuth, elevation float64) {
	sinEl, cosEl := math.Sincos(elevation)
	sinAz, cosAz := math.Sincos(azimuth)
	ax, ay, az := sinEl*cosAz, sinEl*sinAz, cosEl
	for i, r := range locs {
		w[i] = cmplx.Rect(1, 2*math.Pi*(ax*r.X+ay*r.Y+az*r.Z))
	}
}
