package output

import (
	"sort"
	"time"

	"github.com/trackql/fetcher/internal/identifiers"
)

// SeriesRow is one (label, step) sample of a series frame.
type SeriesRow struct {
	Label identifiers.Label
	Step  float64
	Cells map[string]SeriesCell
}

// SeriesCell carries a non-numeric series point's value (string/histogram/
// file descriptor) plus an optional timestamp subcolumn.
type SeriesCell struct {
	Value        any
	AbsoluteTime *time.Time
}

// SeriesFrame mirrors MetricFrame's shape for non-numeric series: same
// (label, step) ordering, no preview subcolumns (spec.md §4.7.3).
type SeriesFrame struct {
	IncludeTime bool
	Paths       []string
	Rows        []SeriesRow
}

// BuildSeriesFrame assembles a SeriesFrame from retrieval.FetchSeriesValues'
// output.
func BuildSeriesFrame(
	data map[identifiers.RunAttributeDefinition][]identifiers.SeriesValue,
	sysIDToLabel map[identifiers.SysId]identifiers.Label,
	includeTime bool,
) *SeriesFrame {
	frame := &SeriesFrame{IncludeTime: includeTime}

	type key struct {
		label identifiers.Label
		step  float64
	}
	rows := map[key]map[string]SeriesCell{}
	pathSet := map[string]bool{}

	for attr, values := range data {
		label := sysIDToLabel[attr.RunIdentifier.SysId]
		path := attr.AttributeDefinition.Name
		pathSet[path] = true

		for _, v := range values {
			k := key{label: label, step: v.Step}
			if rows[k] == nil {
				rows[k] = map[string]SeriesCell{}
			}
			cell := SeriesCell{Value: v.Value}
			if includeTime {
				t := time.UnixMilli(v.Timestamp).UTC()
				cell.AbsoluteTime = &t
			}
			rows[k][path] = cell
		}
	}

	for path := range pathSet {
		frame.Paths = append(frame.Paths, path)
	}
	sort.Strings(frame.Paths)

	for k, cells := range rows {
		frame.Rows = append(frame.Rows, SeriesRow{Label: k.label, Step: k.step, Cells: cells})
	}
	sort.Slice(frame.Rows, func(i, j int) bool {
		if frame.Rows[i].Label != frame.Rows[j].Label {
			return frame.Rows[i].Label < frame.Rows[j].Label
		}
		return frame.Rows[i].Step < frame.Rows[j].Step
	})

	return frame
}
