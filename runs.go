package fetcher

import (
	"context"

	"github.com/trackql/fetcher/internal/composition"
	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/output"
	"github.com/trackql/fetcher/internal/retrieval"
)

// defaultSortBy mirrors the original's fetch_experiments_table default:
// rows ordered by creation time when the caller doesn't specify sort_by.
var defaultSortBy = Attribute{Name: "sys/creation_time", Type: filters.TypeDatetime}

// SortDirection orders the rows of a fetched table.
type SortDirection = composition.SortDirection

const (
	Ascending  = composition.SortAscending
	Descending = composition.SortDescending
)

// ContainerType distinguishes runs from experiment head runs as the unit
// FetchMetrics/FetchSeries walk; FetchRunsTable/FetchExperimentsTable fix
// this themselves and don't expose it.
type ContainerType = retrieval.ContainerType

const (
	Runs        = retrieval.ContainerRun
	Experiments = retrieval.ContainerExperiment
)

// Table is the assembled result of FetchRunsTable/FetchExperimentsTable: an
// ordered set of columns keyed by (attribute path, subcolumn) over an
// ordered set of row labels.
type Table = output.Table

// TableOptions configures FetchRunsTable/FetchExperimentsTable.
type TableOptions struct {
	// Ctx overrides the process-wide Context for this call.
	Ctx *Context

	Filter        *Filter
	Attributes    AttributeFilterAlternative
	SortBy        Attribute
	SortDirection SortDirection
	Limit         *int

	// TypeSuffixInColumnNames, when true, appends ":type" to every column
	// name instead of raising ConflictingAttributeTypes when an attribute
	// name resolves to more than one type across the matched runs.
	TypeSuffixInColumnNames bool
	// FlattenFileProperties expands a file attribute into three
	// subcolumns (path, size_bytes, mime_type) instead of one struct cell.
	FlattenFileProperties bool
}

// FetchRunsTable resolves opts.Filter and opts.SortBy against every run in
// the project and assembles a Table of the attributes opts.Attributes
// selects, one row per run.
func FetchRunsTable(ctx context.Context, opts TableOptions) (*Table, error) {
	return fetchTable(ctx, retrieval.ContainerRun, opts)
}

// FetchExperimentsTable is FetchRunsTable scoped to experiment head runs.
func FetchExperimentsTable(ctx context.Context, opts TableOptions) (*Table, error) {
	return fetchTable(ctx, retrieval.ContainerExperiment, opts)
}

func fetchTable(ctx context.Context, containerType retrieval.ContainerType, opts TableOptions) (*Table, error) {
	t, project, cfg, err := newTransport(opts.Ctx)
	if err != nil {
		return nil, err
	}
	attrs, err := opts.Attributes.lower()
	if err != nil {
		return nil, err
	}

	sortBy := opts.SortBy
	if sortBy.Name == "" {
		sortBy = defaultSortBy
	}
	sortDirection := opts.SortDirection
	if sortDirection == "" {
		sortDirection = Ascending
	}

	return composition.FetchTable(ctx, depsFromConfig(t, project, cfg), composition.TableParams{
		ContainerType:           containerType,
		Filter:                  opts.Filter,
		Attributes:              attrs,
		SortBy:                  sortBy,
		SortDirection:           sortDirection,
		Limit:                   opts.Limit,
		TypeSuffixInColumnNames: opts.TypeSuffixInColumnNames,
		FlattenFileProperties:   opts.FlattenFileProperties,
	})
}
