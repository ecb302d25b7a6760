package stations_test

import (
	"math"
	"testing"

	"factory-floor/internal/models"
	"factory-floor/internal/stations"
)

func TestClassifyQualityBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.QualityTier
	}{
		{100, models.TierExcellent},
		{98.0, models.TierExcellent},
		{97.999, models.TierGood},
		{95.0, models.TierGood},
		{94.999, models.TierFair},
		{90.0, models.TierFair},
		{89.999, models.TierPoor},
		{0, models.TierPoor},
		{-5, models.TierPoor},
	}

	for _, tt := range tests {
		if got := stations.ClassifyQuality(tt.score); got != tt.want {
			t.Errorf("ClassifyQuality(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestFlagAnomalies(t *testing.T) {
	alerts, intensity := stations.FlagAnomalies(models.TelemetryRow{TemperatureCelsius: 85.0, VibrationMMS: 3.0})
	if len(alerts) != 0 || intensity != 0 {
		t.Errorf("85°C / 3mm/s must not alert, got %v %v", alerts, intensity)
	}

	alerts, intensity = stations.FlagAnomalies(models.TelemetryRow{TemperatureCelsius: 85.01})
	if len(alerts) != 1 || alerts[0] != models.AlertHighTemperature {
		t.Fatalf("expected HIGH_TEMPERATURE, got %v", alerts)
	}
	if math.Abs(intensity-0.0007) > 0.0001 {
		t.Errorf("expected intensity ≈ 0.0007, got %v", intensity)
	}

	_, intensity = stations.FlagAnomalies(models.TelemetryRow{TemperatureCelsius: 100})
	if intensity != 1.0 {
		t.Errorf("expected intensity 1.0 at 100°C, got %v", intensity)
	}

	alerts, intensity = stations.FlagAnomalies(models.TelemetryRow{TemperatureCelsius: 150, VibrationMMS: 3.01})
	if len(alerts) != 2 || alerts[0] != models.AlertHighTemperature || alerts[1] != models.AlertHighVibration {
		t.Errorf("expected both alerts in fixed order, got %v", alerts)
	}
	if intensity != 1.0 {
		t.Errorf("intensity must clamp to 1, got %v", intensity)
	}
}
