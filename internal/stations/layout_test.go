package stations_test

import (
	"reflect"
	"testing"

	"factory-floor/internal/models"
	"factory-floor/internal/stations"
)

func TestDefaultLayout(t *testing.T) {
	defs := stations.DefaultLayout()
	if len(defs) != 12 {
		t.Fatalf("expected 12 stations, got %d", len(defs))
	}
	if defs[0] != (models.StationDefinition{StationID: "ST-01", ProductionLine: "LINE-A", Ordinal: 1}) {
		t.Errorf("unexpected first station: %+v", defs[0])
	}
	if defs[11] != (models.StationDefinition{StationID: "ST-12", ProductionLine: "LINE-C", Ordinal: 4}) {
		t.Errorf("unexpected last station: %+v", defs[11])
	}
}

func TestFlowsAndLines(t *testing.T) {
	d := newDeriver(t)

	flows := d.Flows()
	if len(flows) != 3 {
		t.Fatalf("expected 3 flows, got %d", len(flows))
	}
	if !reflect.DeepEqual(flows[1].Stations, []string{"ST-05", "ST-06", "ST-07", "ST-08"}) {
		t.Errorf("unexpected LINE-B flow: %v", flows[1])
	}

	res := d.Derive([]map[string]interface{}{
		{"station_id": "ST-10", "temperature_celsius": 95, "vibration_mm_s": 4},
		{"station_id": "ST-11"},
	}, nil)
	lines := stations.Lines(res.States)
	if len(lines) != 3 || lines[2].ProductionLine != "LINE-C" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if lines[2].StationsWithData != 2 || lines[2].AlertCount != 2 {
		t.Errorf("unexpected LINE-C summary: %+v", lines[2])
	}
	if lines[0].StationsWithData != 0 {
		t.Errorf("LINE-A should have no data")
	}
}
