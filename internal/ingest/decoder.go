package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"factory-floor/internal/stations"
)

// ErrUnsupportedFormat формат тела запроса не поддерживается
var ErrUnsupportedFormat = errors.New("unsupported telemetry format")

// Batch пакет телеметрии от хост-платформы в исходной форме
// (строки или колонки) и сопоставление полей, пришедшее вместе с ним
type Batch struct {
	Data    interface{}
	Mapping stations.FieldMapping
}

// envelope ключи обертки {"rows"|"columns"|"data": ..., "mapping": {...}}
var envelopeKeys = []string{"rows", "columns", "data"}

// Decode выбирает декодер по Content-Type (по умолчанию JSON)
func Decode(contentType string, r io.Reader) (Batch, error) {
	mediaType := "application/json"
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return Batch{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json", "text/json":
		return DecodeJSON(r)
	case "text/csv", "application/csv":
		return DecodeCSV(r)
	default:
		return Batch{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediaType)
	}
}

// DecodeJSON читает массив строк, объект (колонки или одна строка) или обертку с mapping.
// Числа сохраняются как json.Number, приведение выполняет Deriver.
func DecodeJSON(r io.Reader) (Batch, error) {
	buf := bufio.NewReader(r)
	head, err := peekNonSpace(buf)
	if err != nil {
		if err == io.EOF {
			return Batch{}, nil
		}
		return Batch{}, fmt.Errorf("failed to peek start token: %w", err)
	}

	decoder := json.NewDecoder(buf)
	decoder.UseNumber()

	switch head {
	case '[':
		var rows []interface{}
		if err := decoder.Decode(&rows); err != nil {
			return Batch{}, fmt.Errorf("failed to decode rows: %w", err)
		}
		if err := expectEOF(decoder); err != nil {
			return Batch{}, err
		}
		return Batch{Data: rows}, nil

	case '{':
		var obj map[string]interface{}
		if err := decoder.Decode(&obj); err != nil {
			return Batch{}, fmt.Errorf("failed to decode object: %w", err)
		}
		if err := expectEOF(decoder); err != nil {
			return Batch{}, err
		}
		return fromObject(obj)

	default:
		return Batch{}, fmt.Errorf("unexpected JSON format (expected '[' or '{', got '%c')", head)
	}
}

// expectEOF после значения допустимы только пробельные символы
func expectEOF(decoder *json.Decoder) error {
	tok, err := decoder.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unexpected data after JSON value: %w", err)
	}
	return fmt.Errorf("unexpected data after JSON value: %v", tok)
}

// isEnvelope объект состоит только из ключей обертки; иначе это колонки или одна строка,
// даже если среди колонок есть "data" или "rows"
func isEnvelope(obj map[string]interface{}) bool {
	if len(obj) == 0 {
		return false
	}
	for key := range obj {
		if key == "mapping" {
			continue
		}
		known := false
		for _, k := range envelopeKeys {
			if key == k {
				known = true
				break
			}
		}
		if !known {
			return false
		}
	}
	return true
}

func fromObject(obj map[string]interface{}) (Batch, error) {
	if !isEnvelope(obj) {
		return Batch{Data: obj}, nil
	}
	rawMapping, hasMapping := obj["mapping"]

	var payload interface{}
	found := false
	for _, key := range envelopeKeys {
		if v, ok := obj[key]; ok {
			if found {
				return Batch{}, fmt.Errorf("ambiguous envelope: more than one of %v", envelopeKeys)
			}
			payload, found = v, true
		}
	}

	if !found {
		if hasMapping {
			return Batch{}, errors.New("mapping given without rows, columns or data")
		}
		return Batch{Data: obj}, nil
	}

	batch := Batch{Data: payload}
	if hasMapping {
		mapping, err := parseMapping(rawMapping)
		if err != nil {
			return Batch{}, err
		}
		batch.Mapping = mapping
	}
	return batch, nil
}

func parseMapping(raw interface{}) (stations.FieldMapping, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errors.New("mapping must be an object of field -> column")
	}
	pairs := make(map[string]string, len(obj))
	for field, col := range obj {
		s, ok := col.(string)
		if !ok {
			return nil, fmt.Errorf("mapping for %q must be a column name", field)
		}
		pairs[field] = s
	}
	return stations.ParseMapping(pairs), nil
}

// DecodeCSV читает таблицу с заголовком. Пустые ячейки считаются отсутствующими,
// чтобы разрешение полей могло перейти к алиасам.
func DecodeCSV(r io.Reader) (Batch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return Batch{}, nil
		}
		return Batch{}, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []stations.Record
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Batch{}, fmt.Errorf("csv read error at line %d: %w", len(rows)+2, err)
		}

		row := make(stations.Record, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(record) {
				continue
			}
			if cell := strings.TrimSpace(record[i]); cell != "" {
				row[h] = cell
			}
		}
		rows = append(rows, row)
	}

	return Batch{Data: rows}, nil
}

func peekNonSpace(r *bufio.Reader) (byte, error) {
	for {
		b, err := r.Peek(1)
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsAny(b, " \t\r\n") {
			return b[0], nil
		}
		if _, err := r.ReadByte(); err != nil {
			return 0, err
		}
	}
}
