package metrics

import "factory-floor/internal/models"

var trackedAlerts = []models.Alert{models.AlertHighTemperature, models.AlertHighVibration}

// RecordSnapshot обновляет gauge-метрики станций по опубликованному снимку
func RecordSnapshot(snapshot models.Snapshot) {
	withData := 0
	for _, st := range snapshot.Stations {
		if st.HasData {
			withData++
			StationQuality.WithLabelValues(st.StationID, st.ProductionLine).Set(st.Latest.QualityScore)
		} else {
			StationQuality.DeleteLabelValues(st.StationID, st.ProductionLine)
		}
		StationTemperatureIntensity.WithLabelValues(st.StationID).Set(st.TemperatureIntensity)

		for _, alert := range trackedAlerts {
			active := 0.0
			if st.HasAlert(alert) {
				active = 1
			}
			StationAlerts.WithLabelValues(st.StationID, string(alert)).Set(active)
		}
	}
	StationsWithData.Set(float64(withData))
}
