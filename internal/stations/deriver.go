package stations

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"factory-floor/internal/models"
)

var (
	// ErrNoStations список станций пуст
	ErrNoStations = errors.New("no station definitions")
	// ErrInvalidDefinition некорректное описание станции
	ErrInvalidDefinition = errors.New("invalid station definition")
)

// Deriver вычисляет состояния станций по пакету телеметрии.
// Чистая функция от (описания станций, пакет); безопасен для конкурентного использования.
type Deriver struct {
	definitions []models.StationDefinition // в порядке вывода
	index       map[string]int
	aliases     AliasTable
}

// Option настройка Deriver
type Option func(*Deriver)

// WithAliases заменяет таблицу алиасов колонок
func WithAliases(aliases AliasTable) Option {
	return func(d *Deriver) {
		if aliases != nil {
			d.aliases = aliases
		}
	}
}

// NewDeriver проверяет описания станций и фиксирует порядок вывода:
// линия (по первому появлению), затем ordinal, затем исходный порядок.
func NewDeriver(definitions []models.StationDefinition, opts ...Option) (*Deriver, error) {
	if len(definitions) == 0 {
		return nil, ErrNoStations
	}

	defs := make([]models.StationDefinition, len(definitions))
	lineOrder := make(map[string]int)
	seen := make(map[string]bool, len(definitions))
	for i, def := range definitions {
		def.StationID = strings.TrimSpace(def.StationID)
		def.ProductionLine = strings.TrimSpace(def.ProductionLine)
		if def.StationID == "" {
			return nil, fmt.Errorf("%w: empty station_id at position %d", ErrInvalidDefinition, i)
		}
		if seen[def.StationID] {
			return nil, fmt.Errorf("%w: duplicate station_id %q", ErrInvalidDefinition, def.StationID)
		}
		seen[def.StationID] = true
		if def.ProductionLine == "" {
			def.ProductionLine = models.DefaultProductionLine
		}
		if _, ok := lineOrder[def.ProductionLine]; !ok {
			lineOrder[def.ProductionLine] = len(lineOrder)
		}
		defs[i] = def
	}

	sort.SliceStable(defs, func(i, j int) bool {
		li, lj := lineOrder[defs[i].ProductionLine], lineOrder[defs[j].ProductionLine]
		if li != lj {
			return li < lj
		}
		return defs[i].Ordinal < defs[j].Ordinal
	})

	d := &Deriver{
		definitions: defs,
		index:       make(map[string]int, len(defs)),
		aliases:     DefaultAliases(),
	}
	for i, def := range defs {
		d.index[def.StationID] = i
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Definitions описания станций в порядке вывода
func (d *Deriver) Definitions() []models.StationDefinition {
	out := make([]models.StationDefinition, len(d.definitions))
	copy(out, d.definitions)
	return out
}

// Known проверяет, описана ли станция
func (d *Deriver) Known(stationID string) bool {
	_, ok := d.index[stationID]
	return ok
}

// Result состояния всех станций и диагностика пакета
type Result struct {
	States      []models.StationState
	Diagnostics models.Diagnostics
}

// Empty пакет не содержал ни одной строки
func (r Result) Empty() bool {
	return r.Diagnostics.RowsTotal == 0
}

// Derive вычисляет состояния станций. Никогда не завершается ошибкой:
// отсутствующие поля получают значения по умолчанию, неизвестные станции отбрасываются.
func (d *Deriver) Derive(data interface{}, mapping FieldMapping) Result {
	records := Normalize(data, mapping)

	diag := models.Diagnostics{RowsTotal: len(records)}
	rows := make([]models.TelemetryRow, 0, len(records))
	for _, rec := range records {
		row, defaulted := d.aliases.Resolve(rec)
		rows = append(rows, row)
		for _, f := range defaulted {
			if diag.DefaultedFields == nil {
				diag.DefaultedFields = make(map[string]int)
			}
			diag.DefaultedFields[string(f)]++
		}
	}

	grouped, dropped := Group(rows, d.index)
	diag.RowsDropped = len(dropped)
	diag.RowsAccepted = len(rows) - len(dropped)
	diag.DroppedStationIDs = droppedIDs(dropped)

	states := make([]models.StationState, 0, len(d.definitions))
	for _, def := range d.definitions {
		states = append(states, deriveState(def, grouped[def.StationID]))
	}

	return Result{States: states, Diagnostics: diag}
}

func deriveState(def models.StationDefinition, rows []models.TelemetryRow) models.StationState {
	state := models.StationState{
		StationID:      def.StationID,
		ProductionLine: def.ProductionLine,
		Ordinal:        def.Ordinal,
		QualityTier:    models.TierUnknown,
		Alerts:         []models.Alert{},
		RowCount:       len(rows),
	}

	latest, ok := Latest(rows)
	if !ok {
		return state
	}

	state.HasData = true
	state.Latest = &latest
	state.QualityTier = ClassifyQuality(latest.QualityScore)
	state.Alerts, state.TemperatureIntensity = FlagAnomalies(latest)
	return state
}

// Align приводит ранее вычисленные состояния к текущим описаниям станций:
// ровно одна запись на описание в порядке вывода. Станции, которых нет
// в описаниях, отбрасываются; отсутствующие получают состояние UNKNOWN.
func (d *Deriver) Align(states []models.StationState) []models.StationState {
	byID := make(map[string]models.StationState, len(states))
	for _, st := range states {
		byID[st.StationID] = st
	}

	out := make([]models.StationState, 0, len(d.definitions))
	for _, def := range d.definitions {
		st, ok := byID[def.StationID]
		if !ok {
			out = append(out, deriveState(def, nil))
			continue
		}
		st.ProductionLine = def.ProductionLine
		st.Ordinal = def.Ordinal
		if st.Alerts == nil {
			st.Alerts = []models.Alert{}
		}
		out = append(out, st)
	}
	return out
}

// droppedIDs уникальные отброшенные идентификаторы, без пустых
func droppedIDs(rows []models.TelemetryRow) []string {
	if len(rows) == 0 {
		return nil
	}
	set := make(map[string]struct{})
	for _, r := range rows {
		if r.StationID != "" {
			set[r.StationID] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Derive разовое вычисление с таблицей алиасов по умолчанию
func Derive(definitions []models.StationDefinition, data interface{}, mapping FieldMapping) (Result, error) {
	d, err := NewDeriver(definitions)
	if err != nil {
		return Result{}, err
	}
	return d.Derive(data, mapping), nil
}
