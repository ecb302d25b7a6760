package stations_test

import (
	"encoding/json"
	"testing"

	"factory-floor/internal/stations"
)

func TestResolveNumberCoercion(t *testing.T) {
	aliases := stations.DefaultAliases()
	tests := []struct {
		name  string
		value interface{}
		want  float64
		ok    bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"json number", json.Number("3.25"), 3.25, true},
		{"string", " 42.1 ", 42.1, true},
		{"percent suffix", "98.5%", 98.5, true},
		{"unit suffix", "92 pts", 92, true},
		{"hex is not a number literal", "0x1p4", 0, true},
		{"leading dot", "-.5", -0.5, true},
		{"dangling exponent", "7e", 7, true},
		{"exponent", "1.5E2kPa", 150, true},
		{"overflow", "1e400", 0, false},
		{"sign only", "-", 0, false},
		{"bad string", "n/a", 0, false},
		{"empty string", "", 0, false},
		{"infinity string", "Inf", 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := aliases.ResolveNumber(stations.Record{"pressure_psi": tt.value}, stations.FieldPressurePSI)
			if got != tt.want || ok != tt.ok {
				t.Errorf("got (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLookupOrder(t *testing.T) {
	aliases := stations.DefaultAliases()

	row := stations.Record{
		"Temperature (°C)":    50.0,
		"Temperature_Celsius": 60.0,
	}
	if got, _ := aliases.ResolveNumber(row, stations.FieldTemperatureCelsius); got != 60 {
		t.Errorf("expected earlier alias to win, got %v", got)
	}

	row["temperature_celsius"] = 0.0
	if got, ok := aliases.ResolveNumber(row, stations.FieldTemperatureCelsius); got != 0 || !ok {
		t.Errorf("present zero under canonical key must win, got (%v, %v)", got, ok)
	}

	row["temperature_celsius"] = nil
	if got, _ := aliases.ResolveNumber(row, stations.FieldTemperatureCelsius); got != 60 {
		t.Errorf("nil canonical value must fall through to aliases, got %v", got)
	}
}

func TestResolveStringFields(t *testing.T) {
	aliases := stations.DefaultAliases()

	row, defaulted := aliases.Resolve(stations.Record{"Station ID": " ST-03 ", "Production Line": "  "})
	if row.StationID != "ST-03" {
		t.Errorf("expected trimmed station id, got %q", row.StationID)
	}
	if row.ProductionLine != "Unknown" {
		t.Errorf("blank line should default to Unknown, got %q", row.ProductionLine)
	}
	if len(defaulted) != 7 {
		t.Errorf("expected 7 defaulted fields, got %v", defaulted)
	}

	for _, id := range []interface{}{7, int8(7), int16(7), uint8(7), uint16(7), json.Number("7")} {
		row, _ = aliases.Resolve(stations.Record{"station_id": id})
		if row.StationID != "7" {
			t.Errorf("numeric station id %T should be formatted, got %q", id, row.StationID)
		}
	}
}

func TestParseField(t *testing.T) {
	for name, want := range map[string]stations.Field{
		"station_id":    stations.FieldStationID,
		"temperature":   stations.FieldTemperatureCelsius,
		"pressure":      stations.FieldPressurePSI,
		"vibration":     stations.FieldVibrationMMS,
		"quality_score": stations.FieldQualityScore,
	} {
		got, ok := stations.ParseField(name)
		if !ok || got != want {
			t.Errorf("ParseField(%q) = %q, %v", name, got, ok)
		}
	}
	if _, ok := stations.ParseField("humidity"); ok {
		t.Errorf("unknown field must not parse")
	}
}
