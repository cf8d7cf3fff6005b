package antenna

import (
	"math"

	"github.com/wiless/vlib"
)

// Isotropic radiates with unit field gain in every direction.
type Isotropic struct{}

func (Isotropic) FieldGain(azimuth, elevation float64) float64 {
	return 1
}

// ThreeGPP is the directional element of 3GPP TR 38.901 Table 7.3-1 (also
// Table 8-6 of Report ITU-R M.2412).
type ThreeGPP struct {
	MaxGainDbi  float64 // 8 dBi
	Beamwidth   float64 // 3dB beamwidth in degrees, 65
	SideLobeDb  float64 // maximum attenuation SLAmax, 30 dB
	BoresightEl float64 // zenith angle of the boresight in degrees, 90 (horizon)
}

func NewThreeGPP() ThreeGPP {
	return ThreeGPP{MaxGainDbi: 8, Beamwidth: 65, SideLobeDb: 30, BoresightEl: 90}
}

// Wrap0To180 wraps the input angle to 0 to 180
func Wrap0To180(degree float64) float64 {
	if degree >= 0 && degree <= 180 {
		return degree
	}
	if degree < 0 {
		degree = -degree
	}
	if degree >= 360 {
		degree = math.Mod(degree, 360)
	}
	if degree > 180 {
		degree = 360 - degree
	}
	return degree
}

// Wrap180To180 wraps the input angle to -180 to 180
func Wrap180To180(degree float64) float64 {
	if degree >= -180 && degree <= 180 {
		return degree
	}
	degree = math.Mod(degree, 360)
	if degree > 180 {
		degree -= 360
	} else if degree < -180 {
		degree += 360
	}
	return degree
}

// PatternDb returns the horizontal cut Ah, the vertical cut Av and the
// element gain Ag (dBi) for an azimuth theta and zenith phi in degrees.
func (e ThreeGPP) PatternDb(theta, phi float64) (az, el, Ag float64) {
	phi = Wrap0To180(phi)
	theta = Wrap180To180(theta)
	Am := e.SideLobeDb
	Ah := -math.Min(12.0*math.Pow(theta/e.Beamwidth, 2.0), Am)
	Av := -math.Min(12.0*math.Pow((phi-e.BoresightEl)/e.Beamwidth, 2.0), e.SideLobeDb)
	result := -math.Min(-(Av + Ah), Am)
	return Ah, Av, result + e.MaxGainDbi
}

// FieldGain is the amplitude counterpart of the power gain Ag.
func (e ThreeGPP) FieldGain(azimuth, elevation float64) float64 {
	_, _, ag := e.PatternDb(Degree(azimuth), Degree(elevation))
	return math.Sqrt(vlib.InvDb(ag))
}
