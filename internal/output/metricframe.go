package output

import (
	"sort"
	"time"

	"github.com/trackql/fetcher/internal/identifiers"
)

// MetricRow is one (label, step) sample of a metric frame, with subcolumns
// keyed by path (spec.md §4.7.2).
type MetricRow struct {
	Label identifiers.Label
	Step  float64
	Cells map[string]MetricCell // path -> cell
}

// MetricCell carries a metric point's value plus whichever optional
// subcolumns the caller requested.
type MetricCell struct {
	Value             float64
	AbsoluteTime      *time.Time
	IsPreview         *bool
	PreviewCompletion *float64
}

// MetricFrame is the result of a float-series fetch: rows sorted by
// (label, step) ascending, one column per metric path.
type MetricFrame struct {
	IncludeTime          bool
	IncludePointPreviews bool
	Paths                []string // sorted
	Rows                 []MetricRow
}

// BuildMetricFrame assembles a MetricFrame from the per-(run,attribute)
// point lists produced by retrieval.FetchMultipleSeriesValues, labeling
// each run via sysIDToLabel (spec.md §4.7.2). When typeSuffixInColumnNames
// is set, every path is suffixed with ":float_series" (metric frames only
// ever carry one attribute type, so no collision detection is needed here).
func BuildMetricFrame(
	data map[identifiers.RunAttributeDefinition][]identifiers.Point,
	sysIDToLabel map[identifiers.SysId]identifiers.Label,
	includeTime bool,
	includePointPreviews bool,
	typeSuffixInColumnNames bool,
) *MetricFrame {
	frame := &MetricFrame{IncludeTime: includeTime, IncludePointPreviews: includePointPreviews}

	type key struct {
		label identifiers.Label
		step  float64
	}
	rows := map[key]map[string]MetricCell{}
	pathSet := map[string]bool{}

	for attr, points := range data {
		label := sysIDToLabel[attr.RunIdentifier.SysId]
		path := attr.AttributeDefinition.Name
		if typeSuffixInColumnNames {
			path += ":float_series"
		}
		pathSet[path] = true

		for _, p := range points {
			k := key{label: label, step: p.Step}
			if rows[k] == nil {
				rows[k] = map[string]MetricCell{}
			}
			cell := MetricCell{Value: p.Value}
			if includeTime {
				t := time.UnixMilli(p.Timestamp).UTC()
				cell.AbsoluteTime = &t
			}
			if includePointPreviews {
				preview := p.Preview
				completion := p.CompletionRatio
				cell.IsPreview = &preview
				cell.PreviewCompletion = &completion
			}
			rows[k][path] = cell
		}
	}

	for path := range pathSet {
		frame.Paths = append(frame.Paths, path)
	}
	sort.Strings(frame.Paths)

	for k, cells := range rows {
		frame.Rows = append(frame.Rows, MetricRow{Label: k.label, Step: k.step, Cells: cells})
	}
	sort.Slice(frame.Rows, func(i, j int) bool {
		if frame.Rows[i].Label != frame.Rows[j].Label {
			return frame.Rows[i].Label < frame.Rows[j].Label
		}
		return frame.Rows[i].Step < frame.Rows[j].Step
	})

	return frame
}
