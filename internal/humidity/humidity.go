// Package humidity converts relative humidity readings into absolute humidity.
package humidity

import "math"

// Magnus formula coefficients over water.
const (
	magnusBase = 6.112  // hPa
	magnusA    = 17.62  // dimensionless
	magnusB    = 243.12 // °C

	// 216.7 = 100 / R_w, with R_w the specific gas constant of water vapour, scaled to g/m³.
	vapourFactor = 216.7
	kelvinOffset = 273.15
)

// SaturationVaporPressure returns the saturation vapour pressure in hPa at tempC.
func SaturationVaporPressure(tempC float64) float64 {
	return magnusBase * math.Exp(magnusA*tempC/(magnusB+tempC))
}

// AbsoluteHumidity returns the mass of water vapour per cubic metre of air (g/m³)
// for the given air temperature in °C and relative humidity in percent.
//
// The result is not clamped. NaN inputs yield NaN.
func AbsoluteHumidity(tempC, rhPercent float64) float64 {
	svp := SaturationVaporPressure(tempC)
	return vapourFactor * (rhPercent / 100) * svp / (tempC + kelvinOffset)
}
