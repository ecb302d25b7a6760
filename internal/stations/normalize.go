package stations

// Record сырая строка таблицы: имя колонки -> скаляр
type Record map[string]interface{}

// Columnar колоночное представление: имя колонки -> массив значений
type Columnar map[string][]interface{}

// FieldMapping логическое поле -> имя колонки в источнике
type FieldMapping map[Field]string

// Merge возвращает копию m, дополненную/переопределенную значениями override
func (m FieldMapping) Merge(override FieldMapping) FieldMapping {
	merged := make(FieldMapping, len(m)+len(override))
	for f, col := range m {
		merged[f] = col
	}
	for f, col := range override {
		if col != "" {
			merged[f] = col
		}
	}
	return merged
}

// ParseMapping строит FieldMapping из строковых пар, неизвестные поля пропускаются
func ParseMapping(raw map[string]string) FieldMapping {
	mapping := make(FieldMapping, len(raw))
	for name, col := range raw {
		if f, ok := ParseField(name); ok && col != "" {
			mapping[f] = col
		}
	}
	return mapping
}

// Normalize приводит входные данные к строкам, определяя форму по структуре.
// Поддерживаются строки ([]Record, []map[string]interface{}, []interface{} объектов,
// одиночный объект) и колонки (Columnar, map[string][]interface{}, объект из массивов).
// Нераспознанные значения дают пустой результат. Входные данные не изменяются.
func Normalize(data interface{}, mapping FieldMapping) []Record {
	switch v := data.(type) {
	case nil:
		return nil
	case []Record:
		return mapRows(v, mapping)
	case []map[string]interface{}:
		rows := make([]Record, 0, len(v))
		for _, r := range v {
			rows = append(rows, Record(r))
		}
		return mapRows(rows, mapping)
	case []interface{}:
		rows := make([]Record, 0, len(v))
		for _, item := range v {
			if r, ok := asObject(item); ok {
				rows = append(rows, r)
			} else {
				// не объект: строка без полей, отбрасывается группировкой
				rows = append(rows, Record{})
			}
		}
		return mapRows(rows, mapping)
	case Columnar:
		return transpose(v, mapping)
	case map[string][]interface{}:
		return transpose(Columnar(v), mapping)
	case Record:
		return normalizeObject(map[string]interface{}(v), mapping)
	case map[string]interface{}:
		return normalizeObject(v, mapping)
	default:
		return nil
	}
}

func asObject(v interface{}) (Record, bool) {
	switch obj := v.(type) {
	case Record:
		return obj, true
	case map[string]interface{}:
		return Record(obj), true
	default:
		return nil, false
	}
}

// normalizeObject: объект, все значения которого массивы, колоночный; иначе одна строка
func normalizeObject(obj map[string]interface{}, mapping FieldMapping) []Record {
	if len(obj) == 0 {
		return nil
	}
	columns := make(Columnar, len(obj))
	for name, value := range obj {
		arr, ok := value.([]interface{})
		if !ok {
			return mapRows([]Record{Record(obj)}, mapping)
		}
		columns[name] = arr
	}
	return transpose(columns, mapping)
}

// transpose переводит колонки в строки. Массивы разной длины дополняются
// отсутствующими ячейками до самого длинного.
func transpose(columns Columnar, mapping FieldMapping) []Record {
	n := 0
	for _, values := range columns {
		if len(values) > n {
			n = len(values)
		}
	}
	if n == 0 {
		return nil
	}

	rows := make([]Record, n)
	for i := 0; i < n; i++ {
		row := make(Record, len(columns))
		for name, values := range columns {
			if i < len(values) {
				row[name] = values[i]
			}
		}
		rows[i] = row
	}
	return mapRows(rows, mapping)
}

// mapRows копирует колонки из mapping на канонические ключи
func mapRows(rows []Record, mapping FieldMapping) []Record {
	if len(mapping) == 0 {
		return rows
	}

	out := make([]Record, len(rows))
	for i, row := range rows {
		mapped := make(Record, len(row)+len(mapping))
		for k, v := range row {
			mapped[k] = v
		}
		for f, col := range mapping {
			if v, ok := row[col]; ok {
				mapped[string(f)] = v
			}
		}
		out[i] = mapped
	}
	return out
}
