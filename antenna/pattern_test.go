package antenna_test

import (
	"math"
	"testing"

	"github.com/signetlabdei/qd-channel/antenna"
	"github.com/stretchr/testify/assert"
)

func TestWrapAngles(t *testing.T) {
	cases := []struct {
		in, to180, to0180 float64
	}{
		{in: 45, to180: 45, to0180: 45},
		{in: -90, to180: -90, to0180: 90},
		{in: 270, to180: -90, to0180: 90},
		{in: -270, to180: 90, to0180: 90},
		{in: 540, to180: 180, to0180: 180},
	}
	for _, c := range cases {
		assert.InDelta(t, c.to180, antenna.Wrap180To180(c.in), 1e-12, "Wrap180To180(%v)", c.in)
		assert.InDelta(t, c.to0180, antenna.Wrap0To180(c.in), 1e-12, "Wrap0To180(%v)", c.in)
	}
}

func TestThreeGPPPattern(t *testing.T) {
	e := antenna.NewThreeGPP()

	_, _, ag := e.PatternDb(0, 90)
	assert.InDelta(t, 8.0, ag, 1e-12)

	// 3 dB down at half the beamwidth in azimuth
	ah, av, ag := e.PatternDb(32.5, 90)
	assert.InDelta(t, -3.0, ah, 1e-12)
	assert.InDelta(t, 0.0, av, 1e-12)
	assert.InDelta(t, 5.0, ag, 1e-12)

	// floor at the side lobe level
	_, _, ag = e.PatternDb(180, 0)
	assert.InDelta(t, 8.0-30.0, ag, 1e-12)

	assert.InDelta(t, math.Sqrt(math.Pow(10, 0.8)), e.FieldGain(0, math.Pi/2), 1e-12)
}

func TestIsotropic(t *testing.T) {
	assert.Equal(t, 1.0, antenna.Isotropic{}.FieldGain(1.2, 0.3))
}
