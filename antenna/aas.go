// Package antenna describes antenna arrays as seen by the channel model: the
// location of every element (in wavelengths) and the field pattern of one
// element, plus the analog beamforming vector currently applied to the array.
package antenna

import (
	"errors"
	"fmt"
	"math"

	"github.com/wiless/vlib"
)

// Geometry is the minimum the channel synthesizer needs from an array.
type Geometry interface {
	NumElements() int
	// ElementLocation returns the position of element i relative to the array
	// reference point, expressed in wavelengths.
	ElementLocation(i int) vlib.Location3D
}

// ElementPattern is implemented by arrays (and elements) that weight each ray
// with a direction dependent field gain. Angles are in radians, elevation is
// measured from the z axis.
type ElementPattern interface {
	FieldGain(azimuth, elevation float64) float64
}

var ErrWeightSize = errors.New("antenna: beamforming vector size mismatch")

// UniformPlanarArray is a Rows x Columns rectangular array lying on the y-z
// plane of its local coordinate system. Bearing rotates the array around z
// and Downtilt around the rotated y axis, as in 3GPP TR 38.901 (7.1-4).
type UniformPlanarArray struct {
	Rows     int
	Columns  int
	SpacingH float64 // horizontal element spacing in wavelengths
	SpacingV float64 // vertical element spacing in wavelengths
	Bearing  float64 // radians
	Downtilt float64 // radians
	Element  ElementPattern

	weights vlib.VectorC
}

// NewUPA returns a rows x columns array with half wavelength spacing and
// isotropic elements.
func NewUPA(rows, columns int) *UniformPlanarArray {
	return &UniformPlanarArray{
		Rows:     rows,
		Columns:  columns,
		SpacingH: 0.5,
		SpacingV: 0.5,
		Element:  Isotropic{},
	}
}

func (a *UniformPlanarArray) NumElements() int {
	return a.Rows * a.Columns
}

func (a *UniformPlanarArray) ElementLocation(i int) vlib.Location3D {
	if i < 0 || i >= a.NumElements() {
		panic(fmt.Sprintf("antenna: element index %d out of range [0,%d)", i, a.NumElements()))
	}
	// bottom left element at the origin
	yPrime := a.SpacingH * float64(i%a.Columns)
	zPrime := a.SpacingV * math.Floor(float64(i/a.Columns))

	sinAlpha, cosAlpha := math.Sincos(a.Bearing)
	sinBeta, cosBeta := math.Sincos(a.Downtilt)
	return vlib.Location3D{
		X: -sinAlpha*yPrime + cosAlpha*sinBeta*zPrime,
		Y: cosAlpha*yPrime + sinAlpha*sinBeta*zPrime,
		Z: cosBeta * zPrime,
	}
}

// ElementLocations lists every element location in index order.
func (a *UniformPlanarArray) ElementLocations() []vlib.Location3D {
	result := make([]vlib.Location3D, a.NumElements())
	for i := range result {
		result[i] = a.ElementLocation(i)
	}
	return result
}

// FieldGain maps the global direction into the array's local frame and
// evaluates the element pattern there.
func (a *UniformPlanarArray) FieldGain(azimuth, elevation float64) float64 {
	if a.Element == nil {
		return 1
	}
	localAz, localEl := a.toLocal(azimuth, elevation)
	return a.Element.FieldGain(localAz, localEl)
}

func (a *UniformPlanarArray) toLocal(azimuth, elevation float64) (float64, float64) {
	if a.Bearing == 0 && a.Downtilt == 0 {
		return azimuth, elevation
	}
	sinEl, cosEl := math.Sincos(elevation)
	sinAz, cosAz := math.Sincos(azimuth)
	dx, dy, dz := sinEl*cosAz, sinEl*sinAz, cosEl

	sinAlpha, cosAlpha := math.Sincos(a.Bearing)
	sinBeta, cosBeta := math.Sincos(a.Downtilt)
	x := cosAlpha*cosBeta*dx + sinAlpha*cosBeta*dy - sinBeta*dz
	y := -sinAlpha*dx + cosAlpha*dy
	z := cosAlpha*sinBeta*dx + sinAlpha*sinBeta*dy + cosBeta*dz

	z = math.Max(-1, math.Min(1, z))
	return math.Atan2(y, x), math.Acos(z)
}

// SetBeamformingVector stores the analog weights applied to the array.
func (a *UniformPlanarArray) SetBeamformingVector(w vlib.VectorC) error {
	if w.Size() != a.NumElements() {
		return fmt.Errorf("%w: got %d weights for %d elements", ErrWeightSize, w.Size(), a.NumElements())
	}
	a.weights = w
	return nil
}

// BeamformingVector returns the stored weights, nil when none were set.
func (a *UniformPlanarArray) BeamformingVector() vlib.VectorC {
	return a.weights
}

// Radian converts degrees to radians.
func Radian(degree float64) float64 {
	return degree * math.Pi / 180.0
}

func Degree(radian float64) float64 {
	return radian * 180.0 / math.Pi
}
