// Package beamforming derives analog beamforming vectors from a channel
// matrix: the dominant eigenvectors of the transmit and receive spatial
// correlation matrices, found by power iteration.
package beamforming

import (
	"errors"
	"math/cmplx"

	"github.com/wiless/vlib"
	"gonum.org/v1/gonum/cmplxs"

	"github.com/signetlabdei/qd-channel/channel"
)

const (
	DefaultMaxIterations = 30
	DefaultTolerance     = 1e-8
)

// ErrNoPropagation is returned for a channel matrix that is identically zero.
var ErrNoPropagation = errors.New("beamforming: channel has no propagation path")

type State int

var States = [...]string{
	"Iterating",
	"Converged",
	"Exhausted",
}

func (s State) String() string {
	if int(s) < 0 || int(s) >= len(States) {
		return "Unknown-State"
	}
	return States[s]
}

const (
	Iterating State = iota
	Converged
	Exhausted
)

// Result of a power iteration.
type Result struct {
	Vector     vlib.VectorC
	Iterations int
	Diff       float64 // squared distance between the last two iterates
	State      State
}

// PowerIteration approximates the dominant eigenvector of the square matrix
// m starting from its first non-zero row. Every iteration multiplies by m and
// normalises to unit L2 norm; it stops once the squared change is at most
// tolerance (Converged) or after maxIterations (Exhausted). A zero product is
// kept as the zero vector.
func PowerIteration(m [][]complex128, maxIterations int, tolerance float64) Result {
	size := len(m)
	if size == 0 {
		return Result{Vector: vlib.NewVectorC(0), State: Converged}
	}
	w := vlib.NewVectorC(size)
	copy(w, m[0])
	// an element without any coupling zeroes its row; start elsewhere
	for row := 1; row < size && cmplxs.Norm(w, 2) == 0; row++ {
		copy(w, m[row])
	}

	result := Result{Diff: 1, State: Iterating}
	for result.State == Iterating {
		if result.Iterations >= maxIterations {
			result.State = Exhausted
			break
		}
		next := vlib.NewVectorC(size)
		for row := 0; row < size; row++ {
			var sum complex128
			for col := 0; col < size; col++ {
				sum += m[row][col] * w[col]
			}
			next[row] = sum
		}
		if norm := cmplxs.Norm(next, 2); norm > 0 {
			cmplxs.ScaleReal(1/norm, next)
		}

		diff := 0.0
		for i := range next {
			d := next[i] - w[i]
			diff += real(d)*real(d) + imag(d)*imag(d)
		}
		result.Diff = diff
		result.Iterations++
		w = next
		if diff <= tolerance {
			result.State = Converged
		}
	}
	result.Vector = w
	return result
}

// FirstEigenvector is the vector found by PowerIteration.
func FirstEigenvector(m [][]complex128, maxIterations int, tolerance float64) vlib.VectorC {
	return PowerIteration(m, maxIterations, tolerance).Vector
}

// Narrowband sums h over its tap index.
func Narrowband(h [][][]complex128, txElements int) [][]complex128 {
	result := make([][]complex128, len(h))
	for u := range h {
		result[u] = make([]complex128, txElements)
		for s := 0; s < txElements && s < len(h[u]); s++ {
			var sum complex128
			for _, tap := range h[u][s] {
				sum += tap
			}
			result[u][s] = sum
		}
	}
	return result
}

// ComputeVectors returns the transmit and receive beamforming vectors of the
// channel: the dominant eigenvector of H^H H for the transmitter and the
// conjugate of the dominant eigenvector of H H^H for the receiver.
func ComputeVectors(m *channel.Matrix) (tx, rx vlib.VectorC, err error) {
	rxSize, txSize := m.RxElements(), m.TxElements()
	h := Narrowband(m.H, txSize)
	if isZero(h) {
		return nil, nil, ErrNoPropagation
	}

	bQ := make([][]complex128, txSize)
	for s1 := 0; s1 < txSize; s1++ {
		bQ[s1] = make([]complex128, txSize)
		for s2 := 0; s2 < txSize; s2++ {
			var sum complex128
			for u := 0; u < rxSize; u++ {
				sum += cmplx.Conj(h[u][s1]) * h[u][s2]
			}
			bQ[s1][s2] = sum
		}
	}
	tx = FirstEigenvector(bQ, DefaultMaxIterations, DefaultTolerance)

	aQ := make([][]complex128, rxSize)
	for u1 := 0; u1 < rxSize; u1++ {
		aQ[u1] = make([]complex128, rxSize)
		for u2 := 0; u2 < rxSize; u2++ {
			var sum complex128
			for s := 0; s < txSize; s++ {
				sum += h[u1][s] * cmplx.Conj(h[u2][s])
			}
			aQ[u1][u2] = sum
		}
	}
	rx = FirstEigenvector(aQ, DefaultMaxIterations, DefaultTolerance)
	for i := range rx {
		rx[i] = cmplx.Conj(rx[i])
	}
	return tx, rx, nil
}

func isZero(h [][]complex128) bool {
	for _, row := range h {
		for _, v := range row {
			if v != 0 {
				return false
			}
		}
	}
	return true
}
