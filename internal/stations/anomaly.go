package stations

import (
	"math"

	"factory-floor/internal/models"
)

const (
	// TemperatureLimit температура, выше которой ставится HIGH_TEMPERATURE
	TemperatureLimit = 85.0
	// TemperatureSpan перегрев, при котором интенсивность достигает 1
	TemperatureSpan = 15.0
	// VibrationLimit вибрация, выше которой ставится HIGH_VIBRATION
	VibrationLimit = 3.0
)

// FlagAnomalies вычисляет флаги и интенсивность перегрева по последней строке
func FlagAnomalies(row models.TelemetryRow) ([]models.Alert, float64) {
	alerts := make([]models.Alert, 0, 2)
	intensity := 0.0

	if row.TemperatureCelsius > TemperatureLimit {
		alerts = append(alerts, models.AlertHighTemperature)
		intensity = TemperatureIntensity(row.TemperatureCelsius)
	}
	if row.VibrationMMS > VibrationLimit {
		alerts = append(alerts, models.AlertHighVibration)
	}
	return alerts, intensity
}

// TemperatureIntensity min((t-85)/15, 1), ограниченная [0, 1]
func TemperatureIntensity(t float64) float64 {
	v := (t - TemperatureLimit) / TemperatureSpan
	return math.Max(0, math.Min(v, 1))
}
