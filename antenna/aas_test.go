package antenna_test

import (
	"math"
	"testing"

	"github.com/signetlabdei/qd-channel/antenna"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiless/vlib"
)

func TestUPAElementLocations(t *testing.T) {
	upa := antenna.NewUPA(2, 2)
	require.Equal(t, 4, upa.NumElements())

	want := []vlib.Location3D{
		{X: 0, Y: 0, Z: 0},
		{X: 0, Y: 0.5, Z: 0},
		{X: 0, Y: 0, Z: 0.5},
		{X: 0, Y: 0.5, Z: 0.5},
	}
	for i, loc := range upa.ElementLocations() {
		assert.InDelta(t, want[i].X, loc.X, 1e-12, "element %d x", i)
		assert.InDelta(t, want[i].Y, loc.Y, 1e-12, "element %d y", i)
		assert.InDelta(t, want[i].Z, loc.Z, 1e-12, "element %d z", i)
	}
}

func TestUPABearingRotation(t *testing.T) {
	upa := antenna.NewUPA(1, 2)
	upa.Bearing = math.Pi / 2

	loc := upa.ElementLocation(1)
	assert.InDelta(t, -0.5, loc.X, 1e-12)
	assert.InDelta(t, 0, loc.Y, 1e-12)
	assert.InDelta(t, 0, loc.Z, 1e-12)
}

func TestUPAElementIndexOutOfRange(t *testing.T) {
	upa := antenna.NewUPA(2, 2)
	assert.Panics(t, func() { upa.ElementLocation(4) })
}

func TestSetBeamformingVector(t *testing.T) {
	upa := antenna.NewUPA(2, 2)
	assert.Nil(t, upa.BeamformingVector())

	err := upa.SetBeamformingVector(vlib.NewVectorC(3))
	assert.ErrorIs(t, err, antenna.ErrWeightSize)

	w := vlib.VectorC{1, 1i, -1, -1i}
	require.NoError(t, upa.SetBeamformingVector(w))
	assert.Equal(t, w, upa.BeamformingVector())
}

func TestUPAFieldGainFollowsBearing(t *testing.T) {
	upa := antenna.NewUPA(2, 2)
	upa.Element = antenna.NewThreeGPP()

	boresight := upa.FieldGain(0, math.Pi/2)

	upa.Bearing = math.Pi / 2
	assert.InDelta(t, boresight, upa.FieldGain(math.Pi/2, math.Pi/2), 1e-9)
	assert.Less(t, upa.FieldGain(0, math.Pi/2), boresight)
}
