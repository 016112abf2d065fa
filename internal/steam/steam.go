// Package steam provides saturated steam properties and the enthalpy/quality
// derivation used by production-well report rows.
package steam

import "math"

// satTable rows are {pressure bar, liquid enthalpy hf, vapor enthalpy hg},
// enthalpies in kJ/kg, monotonically increasing in pressure.
var satTable = [...][3]float64{
	{0.1, 191.8, 2584.7},
	{1, 417.4, 2675.5},
	{2, 504.7, 2706.7},
	{4, 604.7, 2738.6},
	{6, 670.6, 2756.8},
	{8, 721.1, 2769.1},
	{10, 762.8, 2778.1},
	{12, 798.6, 2784.8},
	{15, 844.9, 2792.2},
	{20, 908.8, 2799.5},
	{30, 1008.4, 2804.2},
	{40, 1087.3, 2801.4},
}

// Properties returns the saturated liquid and vapor enthalpies at the given
// pressure, linearly interpolated between the bracketing table rows.
// Pressures outside the 0.1–40 bar table extend the line of the first or
// last interval.
func Properties(pressureBar float64) (hf, hg float64) {
	i := 0
	for i < len(satTable)-2 && pressureBar >= satTable[i+1][0] {
		i++
	}
	lower, upper := satTable[i], satTable[i+1]
	ratio := (pressureBar - lower[0]) / (upper[0] - lower[0])
	hf = lower[1] + (upper[1]-lower[1])*ratio
	hg = lower[2] + (upper[2]-lower[2])*ratio
	return hf, hg
}

// Derive computes the two-phase mixture enthalpy (kJ/kg, 2 decimals) and
// steam quality (percent, 1 decimal) for a production well row. The
// separator pressure is used when positive, otherwise the head pressure.
// ok is false when the effective pressure or the total flow is not positive;
// callers must leave the row's existing values untouched in that case.
func Derive(headPressure, sepPressure, steamFlow, waterFlow float64) (enthalpy, quality float64, ok bool) {
	pressure := headPressure
	if sepPressure > 0 {
		pressure = sepPressure
	}
	total := steamFlow + waterFlow
	if pressure <= 0 || total <= 0 {
		return 0, 0, false
	}

	hf, hg := Properties(pressure)
	x := steamFlow / total
	enthalpy = math.Round((hf+x*(hg-hf))*100) / 100
	quality = math.Round(x*1000) / 10
	return enthalpy, quality, true
}
