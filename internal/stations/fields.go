package stations

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"factory-floor/internal/models"
)

// Field логическое поле строки телеметрии
type Field string

const (
	FieldStationID          Field = "station_id"
	FieldProductionLine     Field = "production_line"
	FieldTemperatureCelsius Field = "temperature_celsius"
	FieldPressurePSI        Field = "pressure_psi"
	FieldVibrationMMS       Field = "vibration_mm_s"
	FieldQualityScore       Field = "quality_score"
	FieldPowerConsumptionKW Field = "power_consumption_kw"
	FieldCycleTimeSeconds   Field = "cycle_time_seconds"
)

// Fields все поля в порядке разрешения
var Fields = []Field{
	FieldStationID,
	FieldProductionLine,
	FieldTemperatureCelsius,
	FieldPressurePSI,
	FieldVibrationMMS,
	FieldQualityScore,
	FieldPowerConsumptionKW,
	FieldCycleTimeSeconds,
}

// editorNames имена полей в панели настройки хост-платформы
var editorNames = map[string]Field{
	"temperature": FieldTemperatureCelsius,
	"pressure":    FieldPressurePSI,
	"vibration":   FieldVibrationMMS,
}

// ParseField принимает каноническое имя или имя из панели настройки
func ParseField(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	f, ok := editorNames[name]
	return f, ok
}

// AliasTable логическое поле -> упорядоченный список допустимых ключей.
// Канонический ключ проверяется всегда первым и в таблицу не входит.
type AliasTable map[Field][]string

// DefaultAliases написания колонок, встречавшиеся в источниках данных
func DefaultAliases() AliasTable {
	return AliasTable{
		FieldStationID:          {"Station_ID", "Station ID", "STATION_ID"},
		FieldProductionLine:     {"Production_Line", "Production Line", "LINE"},
		FieldTemperatureCelsius: {"Temperature_Celsius", "Temperature (°C)", "temperature"},
		FieldPressurePSI:        {"Pressure_PSI", "Pressure (PSI)", "pressure"},
		FieldVibrationMMS:       {"Vibration_mm_s", "Vibration (mm/s)", "vibration"},
		FieldQualityScore:       {"Quality_Score", "Quality Score", "quality"},
		FieldPowerConsumptionKW: {"Power_Consumption_kW", "Power Consumption (kW)"},
		FieldCycleTimeSeconds:   {"Cycle_Time_Seconds", "Cycle Time (s)"},
	}
}

// Keys возвращает ключи поиска поля: канонический, затем алиасы
func (t AliasTable) Keys(f Field) []string {
	keys := make([]string, 0, len(t[f])+1)
	keys = append(keys, string(f))
	return append(keys, t[f]...)
}

// Lookup возвращает первое присутствующее не-nil значение поля
func (t AliasTable) Lookup(row Record, f Field) (interface{}, bool) {
	for _, key := range t.Keys(f) {
		if v, ok := row[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// ResolveNumber разрешает числовое поле. Второе значение false, если
// применено значение по умолчанию (поле отсутствует или не число).
func (t AliasTable) ResolveNumber(row Record, f Field) (float64, bool) {
	v, ok := t.Lookup(row, f)
	if !ok {
		return 0, false
	}
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	return n, true
}

// ResolveString разрешает строковое поле; пустая строка считается отсутствием
func (t AliasTable) ResolveString(row Record, f Field) (string, bool) {
	v, ok := t.Lookup(row, f)
	if !ok {
		return "", false
	}
	s := strings.TrimSpace(toString(v))
	return s, s != ""
}

// Resolve собирает TelemetryRow из сырой строки.
// Возвращает список полей, для которых подставлено значение по умолчанию.
func (t AliasTable) Resolve(row Record) (models.TelemetryRow, []Field) {
	var defaulted []Field
	number := func(f Field) float64 {
		n, ok := t.ResolveNumber(row, f)
		if !ok {
			defaulted = append(defaulted, f)
		}
		return n
	}

	stationID, ok := t.ResolveString(row, FieldStationID)
	if !ok {
		defaulted = append(defaulted, FieldStationID)
	}
	line, ok := t.ResolveString(row, FieldProductionLine)
	if !ok {
		line = models.DefaultProductionLine
		defaulted = append(defaulted, FieldProductionLine)
	}

	return models.TelemetryRow{
		StationID:          stationID,
		ProductionLine:     line,
		TemperatureCelsius: number(FieldTemperatureCelsius),
		PressurePSI:        number(FieldPressurePSI),
		VibrationMMS:       number(FieldVibrationMMS),
		QualityScore:       number(FieldQualityScore),
		PowerConsumptionKW: number(FieldPowerConsumptionKW),
		CycleTimeSeconds:   number(FieldCycleTimeSeconds),
	}, defaulted
}

// toNumber приводит скаляр к конечному float64
func toNumber(v interface{}) (float64, bool) {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case float32:
		n = float64(val)
	case int:
		n = float64(val)
	case int8:
		n = float64(val)
	case int16:
		n = float64(val)
	case int32:
		n = float64(val)
	case int64:
		n = float64(val)
	case uint:
		n = float64(val)
	case uint8:
		n = float64(val)
	case uint16:
		n = float64(val)
	case uint32:
		n = float64(val)
	case uint64:
		n = float64(val)
	case json.Number:
		return parseLeadingNumber(string(val))
	case string:
		return parseLeadingNumber(val)
	default:
		return 0, false
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// parseLeadingNumber читает десятичное число в начале строки:
// "98.5%" -> 98.5, "92 pts" -> 92, "0x1p4" -> 0, "n/a" -> нет значения
func parseLeadingNumber(s string) (float64, bool) {
	prefix := decimalPrefix(strings.TrimSpace(s))
	if prefix == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// decimalPrefix [+-]digits[.digits][(e|E)[+-]digits], хотя бы одна цифра в мантиссе
func decimalPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return s[:i]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	default:
		return ""
	}
}
