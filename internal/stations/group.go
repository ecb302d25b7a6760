package stations

import "factory-floor/internal/models"

// Group раскладывает строки по известным станциям с сохранением порядка.
// Строки с неизвестным или пустым station_id отбрасываются и возвращаются отдельно.
func Group(rows []models.TelemetryRow, known map[string]int) (map[string][]models.TelemetryRow, []models.TelemetryRow) {
	grouped := make(map[string][]models.TelemetryRow, len(known))
	for id := range known {
		grouped[id] = nil
	}

	var dropped []models.TelemetryRow
	for _, row := range rows {
		if _, ok := known[row.StationID]; !ok {
			dropped = append(dropped, row)
			continue
		}
		grouped[row.StationID] = append(grouped[row.StationID], row)
	}
	return grouped, dropped
}

// Latest последняя строка в порядке поступления
func Latest(rows []models.TelemetryRow) (models.TelemetryRow, bool) {
	if len(rows) == 0 {
		return models.TelemetryRow{}, false
	}
	return rows[len(rows)-1], true
}
