package retrieval

import (
	"context"
	"iter"
	"sort"

	"go.uber.org/zap"

	"github.com/trackql/fetcher/internal/concurrency"
	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/logging"
	"github.com/trackql/fetcher/internal/transport"
)

const attributeDefinitionsPageSize = 1000

// FetchAttributeDefinitions splits a disjunctive filter into its leaves,
// issues one concurrent paginated call per leaf on pool, and unions the
// results deduplicated by (name, type) (spec.md §4.4.2). The aggregations
// field of each leaf is ignored here; it only matters to value/series
// fetches further down the pipeline.
func FetchAttributeDefinitions(
	ctx context.Context,
	pool *concurrency.Pool,
	t transport.Transport,
	project identifiers.ProjectIdentifier,
	runs []identifiers.SysId,
	alternative filters.AttributeFilterAlternative,
) iter.Seq2[identifiers.AttributeDefinition, error] {
	return func(yield func(identifiers.AttributeDefinition, error) bool) {
		downstreams := make([]func(ctx context.Context, emit func(concurrency.Result)), 0, len(alternative.Filters))
		for _, leaf := range alternative.Filters {
			leaf := leaf
			downstreams = append(downstreams, func(ctx context.Context, emit func(concurrency.Result)) {
				fetchAttributeDefinitionLeaf(ctx, t, project, runs, leaf, emit)
			})
		}

		ch := concurrency.ForkConcurrently(pool, downstreams)

		seen := map[identifiers.AttributeDefinition]bool{}
		stop := false
		concurrency.GatherResults(ch, func(r concurrency.Result) bool {
			if r.Err != nil {
				stop = !yield(identifiers.AttributeDefinition{}, r.Err)
				return !stop
			}
			def := r.Payload.(identifiers.AttributeDefinition)
			if seen[def] {
				return true
			}
			seen[def] = true
			if !yield(def, nil) {
				stop = true
				return false
			}
			return true
		})
	}
}

func fetchAttributeDefinitionLeaf(
	ctx context.Context,
	t transport.Transport,
	project identifiers.ProjectIdentifier,
	runs []identifiers.SysId,
	leaf filters.AttributeFilter,
	emit func(concurrency.Result),
) {
	wire := leaf.ToWire()
	experimentIDs := make([]string, len(runs))
	for i, r := range runs {
		experimentIDs[i] = string(r)
	}

	var typeFilters []transport.AttributeTypeFilterEntry
	for _, wt := range wire.AttributeTypes {
		typeFilters = append(typeFilters, transport.AttributeTypeFilterEntry{AttributeType: wt})
	}

	for page, err := range FetchPages(func(pageToken string) ([]transport.AttributeDefinitionEntry, string, error) {
		resp, err := t.QueryAttributeDefinitions(ctx, transport.QueryAttributeDefinitionsRequest{
			ProjectIdentifiers:  []string{string(project)},
			ExperimentIdsFilter: experimentIDs,
			AttributeNameFilter: transport.AttributeNameFilter{
				MustMatchRegexes:    wire.MustMatchRegexes,
				MustNotMatchRegexes: wire.MustNotMatchRegexes,
			},
			AttributeFilter: typeFilters,
			NextPage:        transport.NextPage{Limit: attributeDefinitionsPageSize, NextPageToken: pageToken},
		})
		if err != nil {
			return nil, "", err
		}
		return resp.Entries, resp.NextPage.NextPageToken, nil
	}) {
		if err != nil {
			emit(concurrency.Result{Kind: concurrency.KindAttributeDefinitionPage, Err: err})
			return
		}
		for _, e := range page.Items {
			emit(concurrency.Result{
				Kind:    concurrency.KindAttributeDefinitionPage,
				Payload: identifiers.AttributeDefinition{Name: e.Name, Type: e.Type},
			})
		}
	}
}

var unknownTypeWarner = logging.NewOnceWarner()

// FetchAttributeValues resolves the concrete value of each
// RunAttributeDefinition, decoding the backend's typed union into a
// strongly-typed AttributeValue.Value. Series-typed attributes return their
// aggregations struct here, not the series itself (spec.md §4.4.3). Unknown
// value types are dropped with a single once-per-type warning.
func FetchAttributeValues(
	ctx context.Context,
	t transport.Transport,
	project identifiers.ProjectIdentifier,
	runs []identifiers.SysId,
	attributeDefinitions []identifiers.AttributeDefinition,
) iter.Seq2[Page[identifiers.AttributeValue], error] {
	experimentIDs := make([]string, len(runs))
	for i, r := range runs {
		experimentIDs[i] = string(r)
	}
	names := make([]string, len(attributeDefinitions))
	for i, d := range attributeDefinitions {
		names[i] = d.Name
	}
	sort.Strings(names)

	return FetchPages(func(pageToken string) ([]identifiers.AttributeValue, string, error) {
		resp, err := t.QueryAttributes(ctx, transport.QueryAttributesRequest{
			ExperimentIdsFilter:  experimentIDs,
			AttributeNamesFilter: names,
			NextPage:             transport.NextPage{Limit: 1000, NextPageToken: pageToken},
		})
		if err != nil {
			return nil, "", err
		}

		items := make([]identifiers.AttributeValue, 0, len(resp.Entries))
		for _, e := range resp.Entries {
			if !filters.KnownType(e.Type) {
				unknownTypeWarner.Warn(e.Type, func() {
					logging.Default().Warn("skipping attribute value of unrecognized type", zap.String("type", e.Type))
				})
				continue
			}
			items = append(items, identifiers.AttributeValue{
				RunIdentifier:       identifiers.RunIdentifier{Project: project, SysId: identifiers.SysId(e.ExperimentID)},
				AttributeDefinition: identifiers.AttributeDefinition{Name: e.Name, Type: e.Type},
				Value:               decodeValue(e.Type, e.Value),
			})
		}
		return items, resp.NextPage.NextPageToken, nil
	})
}

// decodeValue converts the JSON-decoded raw value (sonic produces
// map[string]any for nested objects) into the strongly-typed shape
// identifiers.AttributeValue.Value is documented to carry for each
// attribute type (spec.md §4.4.3).
func decodeValue(attrType string, raw any) any {
	switch attrType {
	case filters.TypeFile:
		return decodeFileProperties(raw)
	case filters.TypeFloatSeries, filters.TypeStringSeries, filters.TypeFileSeries, filters.TypeHistogramSeries:
		m, ok := raw.(map[string]any)
		if !ok {
			return raw
		}
		aggs := make(identifiers.SeriesAggregations, len(m))
		for k, v := range m {
			switch attrType {
			case filters.TypeFloatSeries:
				if f, ok := v.(float64); ok {
					aggs[k] = f
				}
			case filters.TypeFileSeries:
				aggs[k] = decodeFileProperties(v)
			default:
				// string_series carries plain strings; histogram_series
				// carries a nested {"type","values","edges"} object with no
				// dedicated Go type yet, so it passes through as decoded by
				// sonic (map[string]any / []any / string / float64).
				aggs[k] = v
			}
		}
		return aggs
	case filters.TypeStringSet:
		rawSlice, ok := raw.([]any)
		if !ok {
			return raw
		}
		set := make([]string, 0, len(rawSlice))
		for _, v := range rawSlice {
			if s, ok := v.(string); ok {
				set = append(set, s)
			}
		}
		return set
	default:
		return raw
	}
}

// decodeFileProperties decodes a "file"-typed value, whether it appears as a
// top-level attribute value or as the "last" aggregation of a file_series.
func decodeFileProperties(raw any) any {
	m, ok := raw.(map[string]any)
	if !ok {
		return raw
	}
	props := identifiers.FileProperties{}
	if s, ok := m["path"].(string); ok {
		props.Path = s
	}
	if n, ok := m["size_bytes"].(float64); ok {
		props.SizeBytes = int64(n)
	}
	if s, ok := m["mime_type"].(string); ok {
		props.MimeType = s
	}
	return props
}
