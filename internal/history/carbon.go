package history

// Natural gas emission factor.
// 119.58 lbs CO2 / 1000 cubic feet of natural gas:
// 119.58 lbs * (1 kg / 2.204623 lbs) / ((0.0254 * 12)^3 m^3/ft^3 * 1000)
const GasKgCO2PerCubicMeter = 119.58 * (1 / 2.204623) / ((0.0254 * 12 * 0.0254 * 12 * 0.0254 * 12) * 1000)

// Natural gas energy density: 1037 Btu/ft^3, 1055.1 J/Btu.
const (
	GasJoulesPerCubicMeter = 1037 * 1055.1 / (0.0254 * 12 * 0.0254 * 12 * 0.0254 * 12)
	KWhPerJoule            = 1.0 / (60 * 60 * 1000)
	GasKWhPerCubicMeter    = GasJoulesPerCubicMeter * KWhPerJoule
)

// CarbonColumn derives per-row CO2 emissions (kg) from the gas consumption
// column, for export alongside the billed figures.
func CarbonColumn(t *Table) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if gas, ok := row.Values["Gas Consumption"]; ok {
			out[i] = gas * GasKgCO2PerCubicMeter
		}
	}
	return out
}
