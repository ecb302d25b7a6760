package ingest_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"factory-floor/internal/ingest"
	"factory-floor/internal/stations"
)

func TestDecodeJSONRows(t *testing.T) {
	batch, err := ingest.DecodeJSON(strings.NewReader(`  [{"station_id":"ST-01","quality_score":98.5}]`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}

	rows, ok := batch.Data.([]interface{})
	if !ok || len(rows) != 1 {
		t.Fatalf("expected one row, got %#v", batch.Data)
	}
	row := rows[0].(map[string]interface{})
	if row["quality_score"] != json.Number("98.5") {
		t.Errorf("numbers should be kept as json.Number, got %#v", row["quality_score"])
	}
}

func TestDecodeJSONColumnarEnvelope(t *testing.T) {
	body := `{
		"columns": {"Machine": ["ST-01", "ST-02"], "Q": [99, 70]},
		"mapping": {"station_id": "Machine", "quality_score": "Q", "humidity": "H"}
	}`
	batch, err := ingest.DecodeJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}

	if batch.Mapping[stations.FieldStationID] != "Machine" || batch.Mapping[stations.FieldQualityScore] != "Q" {
		t.Errorf("unexpected mapping: %v", batch.Mapping)
	}
	if len(batch.Mapping) != 2 {
		t.Errorf("unknown fields must be ignored, got %v", batch.Mapping)
	}

	records := stations.Normalize(batch.Data, batch.Mapping)
	if len(records) != 2 || records[1]["station_id"] != "ST-02" {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestDecodeJSONBareObjects(t *testing.T) {
	batch, err := ingest.DecodeJSON(strings.NewReader(`{"station_id":"ST-03","temperature_celsius":"91"}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if records := stations.Normalize(batch.Data, nil); len(records) != 1 {
		t.Errorf("single object should be one row, got %v", records)
	}

	batch, err = ingest.DecodeJSON(strings.NewReader(`{"station_id":["ST-03","ST-04"]}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if records := stations.Normalize(batch.Data, nil); len(records) != 2 {
		t.Errorf("object of arrays should be columnar, got %v", records)
	}
}

func TestDecodeJSONColumnNamedLikeEnvelope(t *testing.T) {
	body := `{"station_id":["ST-01","ST-02"],"quality_score":[99,91],"data":["a","b"]}`
	batch, err := ingest.DecodeJSON(strings.NewReader(body))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if batch.Mapping != nil {
		t.Errorf("plain table must not carry a mapping, got %v", batch.Mapping)
	}

	records := stations.Normalize(batch.Data, nil)
	if len(records) != 2 || records[0]["station_id"] != "ST-01" || records[1]["data"] != "b" {
		t.Fatalf("data column must stay a column, got %v", records)
	}

	batch, err = ingest.DecodeJSON(strings.NewReader(`{"station_id":"ST-04","rows":3}`))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if records := stations.Normalize(batch.Data, nil); len(records) != 1 || records[0]["station_id"] != "ST-04" {
		t.Errorf("single row with a rows column must stay one row, got %v", records)
	}
}

func TestDecodeJSONTrailingWhitespace(t *testing.T) {
	if _, err := ingest.DecodeJSON(strings.NewReader("[{\"station_id\": \"ST-01\"}]\n\t ")); err != nil {
		t.Errorf("trailing whitespace must be accepted, got %v", err)
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	bad := []string{
		`"just a string"`,
		`[{"station_id": }`,
		`{"rows": [], "columns": {}}`,
		`{"rows": [], "mapping": ["station_id"]}`,
		`{"mapping": {"station_id": "A"}}`,
		`[{"station_id": "ST-01"}] trailing-garbage`,
		`[{"station_id": "ST-01"}] [{"station_id": "ST-02"}]`,
		`{"station_id": "ST-01"} {}`,
	}
	for _, body := range bad {
		if _, err := ingest.DecodeJSON(strings.NewReader(body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}

	batch, err := ingest.DecodeJSON(strings.NewReader("   "))
	if err != nil || batch.Data != nil {
		t.Errorf("blank body should be an empty batch, got %v %v", batch, err)
	}
}

func TestDecodeCSV(t *testing.T) {
	body := "Station ID,Quality Score,temperature_celsius\n" +
		"ST-01,99,\n" +
		"ST-02, 91.5 ,90\n"

	batch, err := ingest.Decode("text/csv; charset=utf-8", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	rows, ok := batch.Data.([]stations.Record)
	if !ok || len(rows) != 2 {
		t.Fatalf("expected 2 records, got %#v", batch.Data)
	}
	if _, ok := rows[0]["temperature_celsius"]; ok {
		t.Errorf("empty cell must be absent, got %v", rows[0])
	}
	if rows[1]["Quality Score"] != "91.5" {
		t.Errorf("cells should be trimmed, got %q", rows[1]["Quality Score"])
	}
}

func TestDecodeUnsupportedContentType(t *testing.T) {
	_, err := ingest.Decode("application/xml", strings.NewReader("<rows/>"))
	if !errors.Is(err, ingest.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
