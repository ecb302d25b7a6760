package stations

import (
	"fmt"

	"factory-floor/internal/models"
)

// DefaultLines производственные линии стандартной схемы цеха
var DefaultLines = []string{"LINE-A", "LINE-B", "LINE-C"}

// StationsPerLine станций на линии в стандартной схеме
const StationsPerLine = 4

// DefaultLayout 12 станций ST-01..ST-12, по четыре на LINE-A/B/C
func DefaultLayout() []models.StationDefinition {
	defs := make([]models.StationDefinition, 0, len(DefaultLines)*StationsPerLine)
	n := 1
	for _, line := range DefaultLines {
		for ord := 1; ord <= StationsPerLine; ord++ {
			defs = append(defs, models.StationDefinition{
				StationID:      fmt.Sprintf("ST-%02d", n),
				ProductionLine: line,
				Ordinal:        ord,
			})
			n++
		}
	}
	return defs
}

// Flow упорядоченная цепочка станций одной линии
type Flow struct {
	ProductionLine string   `json:"production_line"`
	Stations       []string `json:"stations"`
}

// Flows цепочки станций по линиям в порядке вывода Deriver
func (d *Deriver) Flows() []Flow {
	var flows []Flow
	pos := make(map[string]int)
	for _, def := range d.definitions {
		i, ok := pos[def.ProductionLine]
		if !ok {
			i = len(flows)
			pos[def.ProductionLine] = i
			flows = append(flows, Flow{ProductionLine: def.ProductionLine})
		}
		flows[i].Stations = append(flows[i].Stations, def.StationID)
	}
	return flows
}

// Lines группирует состояния по линиям, сохраняя порядок
func Lines(states []models.StationState) []models.LineView {
	var lines []models.LineView
	pos := make(map[string]int)
	for _, st := range states {
		i, ok := pos[st.ProductionLine]
		if !ok {
			i = len(lines)
			pos[st.ProductionLine] = i
			lines = append(lines, models.LineView{ProductionLine: st.ProductionLine})
		}
		lines[i].Stations = append(lines[i].Stations, st)
		if st.HasData {
			lines[i].StationsWithData++
		}
		lines[i].AlertCount += len(st.Alerts)
	}
	return lines
}
