package composition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/output"
	"github.com/trackql/fetcher/internal/retrieval"
	"github.com/trackql/fetcher/internal/transport"
)

// fakeTransport is the composition-layer twin of internal/retrieval's fake:
// same shape, duplicated here because FetchTable/FetchMetrics/FetchSeries drive
// the whole retrieval stack through a single transport.Transport.
type fakeTransport struct {
	searchPages      [][]transport.LeaderboardEntry
	definitionPages  map[string][][]transport.AttributeDefinitionEntry // keyed by MustMatchRegexes[0]
	attributePages   [][]transport.AttributeValueEntry
	floatSeriesResps []transport.FloatSeriesValuesResponse
	seriesResps      []transport.SeriesValuesResponse

	searchCalls int
	floatCalls  int
	seriesCalls int
}

func (f *fakeTransport) ClientConfig(ctx context.Context) (*transport.ClientConfig, error) {
	return &transport.ClientConfig{}, nil
}

func (f *fakeTransport) SearchLeaderboardEntries(ctx context.Context, req transport.SearchLeaderboardEntriesRequest) (*transport.SearchLeaderboardEntriesResponse, error) {
	idx := f.searchCalls
	f.searchCalls++
	if idx >= len(f.searchPages) {
		return &transport.SearchLeaderboardEntriesResponse{}, nil
	}
	next := ""
	if idx+1 < len(f.searchPages) {
		next = "next"
	}
	return &transport.SearchLeaderboardEntriesResponse{
		Entries:    f.searchPages[idx],
		Pagination: transport.NextPage{NextPageToken: next},
	}, nil
}

func (f *fakeTransport) QueryAttributeDefinitions(ctx context.Context, req transport.QueryAttributeDefinitionsRequest) (*transport.QueryAttributeDefinitionsResponse, error) {
	key := ""
	if len(req.AttributeNameFilter.MustMatchRegexes) > 0 {
		key = req.AttributeNameFilter.MustMatchRegexes[0]
	}
	pages := f.definitionPages[key]
	idx := 0
	if req.NextPage.NextPageToken != "" {
		idx = 1
	}
	if idx >= len(pages) {
		return &transport.QueryAttributeDefinitionsResponse{}, nil
	}
	next := ""
	if idx+1 < len(pages) {
		next = "next"
	}
	return &transport.QueryAttributeDefinitionsResponse{
		Entries:  pages[idx],
		NextPage: transport.NextPage{NextPageToken: next},
	}, nil
}

func (f *fakeTransport) QueryAttributes(ctx context.Context, req transport.QueryAttributesRequest) (*transport.QueryAttributesResponse, error) {
	idx := 0
	if req.NextPage.NextPageToken != "" {
		idx = 1
	}
	if idx >= len(f.attributePages) {
		return &transport.QueryAttributesResponse{}, nil
	}
	next := ""
	if idx+1 < len(f.attributePages) {
		next = "next"
	}
	entries := f.attributePages[idx]
	if len(req.ExperimentIdsFilter) > 0 {
		wanted := map[string]bool{}
		for _, id := range req.ExperimentIdsFilter {
			wanted[id] = true
		}
		var kept []transport.AttributeValueEntry
		for _, e := range entries {
			if wanted[e.ExperimentID] {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	return &transport.QueryAttributesResponse{Entries: entries, NextPage: transport.NextPage{NextPageToken: next}}, nil
}

func (f *fakeTransport) FloatSeriesValues(ctx context.Context, req transport.FloatSeriesValuesRequest) (*transport.FloatSeriesValuesResponse, error) {
	idx := f.floatCalls
	f.floatCalls++
	if idx >= len(f.floatSeriesResps) {
		return &transport.FloatSeriesValuesResponse{}, nil
	}
	return &f.floatSeriesResps[idx], nil
}

func (f *fakeTransport) SeriesValues(ctx context.Context, req transport.SeriesValuesRequest) (*transport.SeriesValuesResponse, error) {
	idx := f.seriesCalls
	f.seriesCalls++
	if idx >= len(f.seriesResps) {
		return &transport.SeriesValuesResponse{}, nil
	}
	return &f.seriesResps[idx], nil
}

func TestFetchTableAssemblesValuesByLabel(t *testing.T) {
	ft := &fakeTransport{
		searchPages: [][]transport.LeaderboardEntry{
			{{SysID: "R-1", CustomRunID: "run-1"}, {SysID: "R-2", CustomRunID: "run-2"}},
		},
		definitionPages: map[string][][]transport.AttributeDefinitionEntry{
			"^(config/lr)$": {{{Name: "config/lr", Type: "float"}}},
		},
		attributePages: [][]transport.AttributeValueEntry{
			{
				{ExperimentID: "R-1", Name: "config/lr", Type: "float", Value: 0.1},
				{ExperimentID: "R-2", Name: "config/lr", Type: "float", Value: 0.2},
			},
		},
	}

	table, err := FetchTable(context.Background(), Deps{Transport: ft, Project: "ws/proj"}, TableParams{
		ContainerType: retrieval.ContainerRun,
		Attributes: filters.AttributeFilterAlternative{
			Filters: []filters.AttributeFilter{{NameEq: []string{"config/lr"}}},
		},
		SortBy:        filters.Attribute{Name: "sys/creation_time", Type: filters.TypeDatetime},
		SortDirection: SortAscending,
	})
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Len(t, table.Labels, 2)
	assert.Equal(t, "run", table.IndexName)

	v, ok := table.Cell(table.Labels[0], output.Column{Attribute: "config/lr"})
	require.True(t, ok)
	assert.Equal(t, 0.1, v)
}

func TestFetchTableShortCircuitsOnEmptyRunDomain(t *testing.T) {
	ft := &fakeTransport{}
	f := filters.Eq(filters.Attribute{Name: "config/lr"}, 0.1)

	table, err := FetchTable(context.Background(), Deps{Transport: ft, Project: "ws/proj"}, TableParams{
		ContainerType: retrieval.ContainerRun,
		Filter:        &f,
		SortBy:       filters.Attribute{Name: "sys/creation_time", Type: filters.TypeDatetime},
		SortDirection: SortAscending,
	})
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Empty(t, table.Labels)
}

func TestFetchTableRejectsInvalidSortDirection(t *testing.T) {
	ft := &fakeTransport{}
	_, err := FetchTable(context.Background(), Deps{Transport: ft, Project: "ws/proj"}, TableParams{
		ContainerType: retrieval.ContainerRun,
		SortDirection: "sideways",
	})
	require.Error(t, err)
}

func TestFetchTableRejectsInvalidLimit(t *testing.T) {
	ft := &fakeTransport{}
	bad := 0
	_, err := FetchTable(context.Background(), Deps{Transport: ft, Project: "ws/proj"}, TableParams{
		ContainerType: retrieval.ContainerRun,
		SortDirection: SortAscending,
		Limit:         &bad,
	})
	require.Error(t, err)
}

func TestFetchMetricsAssemblesFloatSeriesPoints(t *testing.T) {
	ft := &fakeTransport{
		searchPages: [][]transport.LeaderboardEntry{
			{{SysID: "R-1", CustomRunID: "run-1"}},
		},
		definitionPages: map[string][][]transport.AttributeDefinitionEntry{
			"^(loss)$": {{{Name: "loss", Type: "float_series"}}},
		},
		floatSeriesResps: []transport.FloatSeriesValuesResponse{
			{Results: []transport.FloatSeriesResultEntry{
				{RequestID: "0", Points: []transport.FloatPointEntry{{Step: 1, Value: 0.5}}},
			}},
		},
	}

	frame, err := FetchMetrics(context.Background(), Deps{Transport: ft, Project: "ws/proj"}, MetricsParams{
		ContainerType: retrieval.ContainerRun,
		Attributes: filters.AttributeFilterAlternative{
			Filters: []filters.AttributeFilter{{NameEq: []string{"loss"}}},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, frame)
	require.Len(t, frame.Paths, 1)
	assert.Equal(t, "loss", frame.Paths[0])
	require.Len(t, frame.Rows, 1)
}

func TestFetchMetricsShortCircuitsOnEmptyRunDomain(t *testing.T) {
	f := filters.Eq(filters.Attribute{Name: "config/lr"}, 0.1)
	frame, err := FetchMetrics(context.Background(), Deps{Transport: &fakeTransport{}, Project: "ws/proj"}, MetricsParams{
		ContainerType: retrieval.ContainerRun,
		Filter:        &f,
	})
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Empty(t, frame.Rows)
}

func TestFetchMetricsRejectsBadStepRange(t *testing.T) {
	from, to := 10.0, 1.0
	_, err := FetchMetrics(context.Background(), Deps{Transport: &fakeTransport{}, Project: "ws/proj"}, MetricsParams{
		ContainerType: retrieval.ContainerRun,
		StepRange:     retrieval.StepRange{From: &from, To: &to},
	})
	require.Error(t, err)
}

func TestFetchMetricsRejectsBadIncludeTime(t *testing.T) {
	_, err := FetchMetrics(context.Background(), Deps{Transport: &fakeTransport{}, Project: "ws/proj"}, MetricsParams{
		ContainerType: retrieval.ContainerRun,
		IncludeTime:   "relative",
	})
	require.Error(t, err)
}

func TestFetchSeriesAssemblesNonNumericPoints(t *testing.T) {
	ft := &fakeTransport{
		searchPages: [][]transport.LeaderboardEntry{
			{{SysID: "R-1", CustomRunID: "run-1"}},
		},
		definitionPages: map[string][][]transport.AttributeDefinitionEntry{
			"^(logs)$": {{{Name: "logs", Type: "string_series"}}},
		},
		seriesResps: []transport.SeriesValuesResponse{
			{Results: []transport.SeriesResultEntry{
				{RequestID: "0", Points: []transport.SeriesPointEntry{{Step: 1, Value: "hello"}}},
			}},
		},
	}

	frame, err := FetchSeries(context.Background(), Deps{Transport: ft, Project: "ws/proj"}, SeriesParams{
		ContainerType: retrieval.ContainerRun,
		Attributes: filters.AttributeFilterAlternative{
			Filters: []filters.AttributeFilter{{NameEq: []string{"logs"}}},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, frame)
	require.Len(t, frame.Paths, 1)
	assert.Equal(t, "logs", frame.Paths[0])
}

func TestFetchSeriesExcludesFloatSeriesAttributes(t *testing.T) {
	ft := &fakeTransport{
		searchPages: [][]transport.LeaderboardEntry{
			{{SysID: "R-1", CustomRunID: "run-1"}},
		},
		definitionPages: map[string][][]transport.AttributeDefinitionEntry{
			"^(loss)$": {{{Name: "loss", Type: "float_series"}}},
		},
	}

	frame, err := FetchSeries(context.Background(), Deps{Transport: ft, Project: "ws/proj"}, SeriesParams{
		ContainerType: retrieval.ContainerRun,
		Attributes: filters.AttributeFilterAlternative{
			Filters: []filters.AttributeFilter{{NameEq: []string{"loss"}}},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, frame.Paths)
	assert.Equal(t, 0, ft.seriesCalls)
}

func TestSelectedAggregationsForDefaultsToLast(t *testing.T) {
	alt := filters.AttributeFilterAlternative{Filters: []filters.AttributeFilter{{NameEq: []string{"loss"}}}}
	defs := []identifiers.AttributeDefinition{{Name: "loss", Type: filters.TypeFloatSeries}}

	sel := selectedAggregationsFor(alt, defs)
	require.Contains(t, sel, defs[0])
	assert.True(t, sel[defs[0]][filters.AggLast])
	assert.Len(t, sel[defs[0]], 1)
}

func TestSelectedAggregationsForUnionsAcrossLeaves(t *testing.T) {
	alt := filters.AttributeFilterAlternative{Filters: []filters.AttributeFilter{
		{NameEq: []string{"loss"}, Aggregations: []filters.Aggregation{filters.AggMin}},
		{NameEq: []string{"acc"}, Aggregations: []filters.Aggregation{filters.AggMax}},
	}}
	defs := []identifiers.AttributeDefinition{{Name: "loss", Type: filters.TypeFloatSeries}}

	sel := selectedAggregationsFor(alt, defs)
	require.Contains(t, sel, defs[0])
	assert.True(t, sel[defs[0]][filters.AggMin])
	assert.True(t, sel[defs[0]][filters.AggMax])
}

func TestSelectedAggregationsForIgnoresNonSeriesDefinitions(t *testing.T) {
	alt := filters.AttributeFilterAlternative{Filters: []filters.AttributeFilter{{NameEq: []string{"config/lr"}}}}
	defs := []identifiers.AttributeDefinition{{Name: "config/lr", Type: filters.TypeFloat}}

	sel := selectedAggregationsFor(alt, defs)
	assert.Empty(t, sel)
}
