package retrieval

import (
	"context"
	"fmt"

	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/transport"
)

// FetchSeriesValues resolves non-numeric series (string/histogram/file
// points) for the given run/attribute pairs (spec.md §4.4.5), sharing
// FetchMultipleSeriesValues' pagination discipline: per-series afterStep
// continuation, descending fetch + reversal when tailLimit is set.
func FetchSeriesValues(
	ctx context.Context,
	t transport.Transport,
	runAttributeDefinitions []identifiers.RunAttributeDefinition,
	includeInherited bool,
	stepRange StepRange,
	tailLimit *int,
) (map[identifiers.RunAttributeDefinition][]identifiers.SeriesValue, error) {
	if len(runAttributeDefinitions) == 0 {
		return map[identifiers.RunAttributeDefinition][]identifiers.SeriesValue{}, nil
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

	results := make(map[identifiers.RunAttributeDefinition][]identifiers.SeriesValue, len(runAttributeDefinitions))
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

		req := transport.SeriesValuesRequest{
			Order:                sortOrder,
			PerSeriesPointsLimit: perSeriesLimit,
			StepRange:            transport.StepRange{From: stepRange.From, To: stepRange.To},
		}
		for _, id := range activeIDs {
			attr := requestIDToAttribute[id]
			entry := transport.FloatSeriesRequestEntry{
				RequestID: id,
				Series: transport.SeriesRef{
					Holder:    transport.SeriesHolder{Identifier: string(attr.RunIdentifier.SysId), Type: "experiment"},
					Attribute: attr.AttributeDefinition.Name,
					Lineage:   lineage,
				},
			}
			if step, ok := afterStep[id]; ok {
				entry.AfterStep = &step
			}
			req.Requests = append(req.Requests, entry)
		}

		resp, err := t.SeriesValues(ctx, req)
		if err != nil {
			return nil, err
		}

		var nextActive []string
		for _, series := range resp.Results {
			attr := requestIDToAttribute[series.RequestID]
			values := make([]identifiers.SeriesValue, len(series.Points))
			for i, p := range series.Points {
				values[i] = identifiers.SeriesValue{Step: p.Step, Value: p.Value, Timestamp: p.Timestamp}
			}
			results[attr] = append(results[attr], values...)

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
		for attr, values := range results {
			results[attr] = reverseSeriesValues(values)
		}
	}

	return results, nil
}

func reverseSeriesValues(values []identifiers.SeriesValue) []identifiers.SeriesValue {
	out := make([]identifiers.SeriesValue, len(values))
	for i, v := range values {
		out[len(values)-1-i] = v
	}
	return out
}
