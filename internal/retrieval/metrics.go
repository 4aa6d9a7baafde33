package retrieval

import (
	"context"
	"fmt"

	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/transport"
)

// TotalPointLimit bounds the number of (run, attribute) pairs a single
// fetch_multiple_series_values call may request, matching the original
// client's guard against pathologically wide queries.
const TotalPointLimit = 1_000_000

// StepRange is a half-open/closed [from, to] interval over a series' step
// axis; either end may be nil for unbounded.
type StepRange struct {
	From *float64
	To   *float64
}

// FetchMultipleSeriesValues resolves every float-series point for the given
// run/attribute pairs (spec.md §4.4.4). When tailLimit is set, points are
// fetched newest-first (descending) so the last N points arrive first, then
// reversed back to ascending order before being returned; otherwise points
// are fetched ascending directly.
func FetchMultipleSeriesValues(
	ctx context.Context,
	t transport.Transport,
	runAttributeDefinitions []identifiers.RunAttributeDefinition,
	includeInherited bool,
	includePreview bool,
	stepRange StepRange,
	tailLimit *int,
) (map[identifiers.RunAttributeDefinition][]identifiers.Point, error) {
	if len(runAttributeDefinitions) == 0 {
		return map[identifiers.RunAttributeDefinition][]identifiers.Point{}, nil
	}
	if len(runAttributeDefinitions) > TotalPointLimit {
		return nil, fmt.Errorf("requested %d attributes exceeds the maximum of %d; reduce the number of attributes",
			len(runAttributeDefinitions), TotalPointLimit)
	}

	width := len(fmt.Sprintf("%d", len(runAttributeDefinitions)-1))
	requestIDToAttribute := make(map[string]identifiers.RunAttributeDefinition, len(runAttributeDefinitions))
	order := make([]string, len(runAttributeDefinitions))
	for i, attr := range runAttributeDefinitions {
		id := fmt.Sprintf("%0*d", width, i)
		requestIDToAttribute[id] = attr
		order[i] = id
	}

	lineage := "NONE"
	if includeInherited {
		lineage = "FULL"
	}

	activeIDs := append([]string{}, order...)
	afterStep := map[string]float64{}

	sortOrder := "ascending"
	if tailLimit != nil {
		sortOrder = "descending"
	}

	results := make(map[identifiers.RunAttributeDefinition][]identifiers.Point, len(runAttributeDefinitions))
	for _, attr := range runAttributeDefinitions {
		results[attr] = nil
	}

	for len(activeIDs) > 0 {
		perSeriesLimit := TotalPointLimit / len(activeIDs)
		if perSeriesLimit < 1 {
			perSeriesLimit = 1
		}
		if tailLimit != nil {
			remaining := *tailLimit - len(results[requestIDToAttribute[activeIDs[0]]])
			if remaining < perSeriesLimit {
				perSeriesLimit = remaining
			}
		}

		req := transport.FloatSeriesValuesRequest{
			Order:                sortOrder,
			PerSeriesPointsLimit: perSeriesLimit,
			StepRange:            transport.StepRange{From: stepRange.From, To: stepRange.To},
		}
		for _, id := range activeIDs {
			attr := requestIDToAttribute[id]
			entry := transport.FloatSeriesRequestEntry{
				RequestID: id,
				Series: transport.SeriesRef{
					Holder:         transport.SeriesHolder{Identifier: string(attr.RunIdentifier.SysId), Type: "experiment"},
					Attribute:      attr.AttributeDefinition.Name,
					Lineage:        lineage,
					IncludePreview: includePreview,
				},
			}
			if step, ok := afterStep[id]; ok {
				entry.AfterStep = &step
			}
			req.Requests = append(req.Requests, entry)
		}

		resp, err := t.FloatSeriesValues(ctx, req)
		if err != nil {
			return nil, err
		}

		var nextActive []string
		for _, series := range resp.Results {
			attr := requestIDToAttribute[series.RequestID]
			points := make([]identifiers.Point, len(series.Points))
			for i, p := range series.Points {
				points[i] = identifiers.Point{
					Step:            p.Step,
					Value:           p.Value,
					Timestamp:       p.Timestamp,
					Preview:         p.Preview,
					CompletionRatio: p.CompletionRatio,
				}
			}
			results[attr] = append(results[attr], points...)

			isFull := len(series.Points) == perSeriesLimit
			needMore := true
			if tailLimit != nil {
				needMore = len(results[attr]) < *tailLimit
			}
			if isFull && needMore && len(series.Points) > 0 {
				afterStep[series.RequestID] = series.Points[len(series.Points)-1].Step
				nextActive = append(nextActive, series.RequestID)
			}
		}
		activeIDs = nextActive
	}

	if tailLimit != nil {
		for attr, points := range results {
			results[attr] = reversePoints(points)
		}
	}

	return results, nil
}

func reversePoints(points []identifiers.Point) []identifiers.Point {
	out := make([]identifiers.Point, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}
