package models

import "time"

// DefaultProductionLine линия по умолчанию, если в строке она не указана
const DefaultProductionLine = "Unknown"

// QualityTier дискретный уровень качества станции
type QualityTier string

const (
	TierExcellent QualityTier = "EXCELLENT"
	TierGood      QualityTier = "GOOD"
	TierFair      QualityTier = "FAIR"
	TierPoor      QualityTier = "POOR"
	TierUnknown   QualityTier = "UNKNOWN"
)

// Alert флаг аномалии станции
type Alert string

const (
	AlertHighTemperature Alert = "HIGH_TEMPERATURE"
	AlertHighVibration   Alert = "HIGH_VIBRATION"
)

// TelemetryRow одно наблюдение по станции после разрешения полей
type TelemetryRow struct {
	StationID          string  `json:"station_id"`
	ProductionLine     string  `json:"production_line"`
	TemperatureCelsius float64 `json:"temperature_celsius"`
	PressurePSI        float64 `json:"pressure_psi"`
	VibrationMMS       float64 `json:"vibration_mm_s"`
	QualityScore       float64 `json:"quality_score"`
	PowerConsumptionKW float64 `json:"power_consumption_kw"`
	CycleTimeSeconds   float64 `json:"cycle_time_seconds"`
}

// StationDefinition статическое описание станции на схеме цеха
type StationDefinition struct {
	StationID      string `json:"station_id" mapstructure:"station_id"`
	ProductionLine string `json:"production_line" mapstructure:"production_line"`
	Ordinal        int    `json:"ordinal" mapstructure:"ordinal"`
}

// StationState производное состояние станции для отрисовки
type StationState struct {
	StationID            string        `json:"station_id"`
	ProductionLine       string        `json:"production_line"`
	Ordinal              int           `json:"ordinal"`
	HasData              bool          `json:"has_data"`
	Latest               *TelemetryRow `json:"latest"`
	QualityTier          QualityTier   `json:"quality_tier"`
	Alerts               []Alert       `json:"alerts"`
	TemperatureIntensity float64       `json:"temperature_intensity"`
	RowCount             int           `json:"row_count"`
}

// HasAlert проверяет наличие флага
func (s StationState) HasAlert(a Alert) bool {
	for _, existing := range s.Alerts {
		if existing == a {
			return true
		}
	}
	return false
}

// Diagnostics счетчики деградации при разборе пакета
type Diagnostics struct {
	RowsTotal         int            `json:"rows_total"`
	RowsAccepted      int            `json:"rows_accepted"`
	RowsDropped       int            `json:"rows_dropped"`
	DroppedStationIDs []string       `json:"dropped_station_ids,omitempty"`
	DefaultedFields   map[string]int `json:"defaulted_fields,omitempty"`
}

// Snapshot результат обработки одного пакета телеметрии
type Snapshot struct {
	BatchID     string         `json:"batch_id"`
	Sequence    uint64         `json:"sequence"`
	DerivedAt   time.Time      `json:"derived_at"`
	Empty       bool           `json:"empty"`
	Stations    []StationState `json:"stations"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// Station ищет состояние станции по идентификатору
func (s *Snapshot) Station(id string) (StationState, bool) {
	for _, st := range s.Stations {
		if st.StationID == id {
			return st, true
		}
	}
	return StationState{}, false
}

// LineView состояние производственной линии в порядке потока
type LineView struct {
	ProductionLine   string         `json:"production_line"`
	Stations         []StationState `json:"stations"`
	StationsWithData int            `json:"stations_with_data"`
	AlertCount       int            `json:"alert_count"`
}
