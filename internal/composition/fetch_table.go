package composition

import (
	"context"
	"sync"

	"github.com/trackql/fetcher/internal/concurrency"
	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/output"
	"github.com/trackql/fetcher/internal/retrieval"
	"github.com/trackql/fetcher/internal/typeinference"
)

// TableParams bundles the user-facing knobs for FetchTable (spec.md §4.7.1,
// grounded on the original's fetch_table.py / fetch_experiments_table).
type TableParams struct {
	ContainerType           retrieval.ContainerType
	Filter                  *filters.Filter
	Attributes              filters.AttributeFilterAlternative
	SortBy                  filters.Attribute
	SortDirection           SortDirection
	Limit                   *int
	TypeSuffixInColumnNames bool
	FlattenFileProperties   bool
}

// FetchTable resolves the filter and sort-by attribute types, walks the
// matching run (or experiment) domain, and assembles an output.Table of
// every attribute the caller's AttributeFilterAlternative selects (spec.md
// §4.7.1). An empty run domain short-circuits to an empty table rather than
// raising, per the v1-branch behavior spec.md §9 prefers.
func FetchTable(ctx context.Context, deps Deps, params TableParams) (*output.Table, error) {
	if err := ValidateLimit(params.Limit); err != nil {
		return nil, err
	}
	sortDirection, err := ValidateSortDirection(params.SortDirection)
	if err != nil {
		return nil, err
	}

	indexName := "run"
	if params.ContainerType == retrieval.ContainerExperiment {
		indexName = "experiment"
	}
	emptyTable := func() (*output.Table, error) {
		return output.BuildTable(nil, nil, nil, params.TypeSuffixInColumnNames, params.FlattenFileProperties, indexName)
	}

	pool := concurrency.NewPool(ctx, deps.workers())
	defer pool.Release()
	attrDefPool := concurrency.NewPool(ctx, deps.workers())
	defer attrDefPool.Release()

	attrDefsLookup := attributeDefinitionsLookup(attrDefPool, deps)

	// Filter inference always walks the whole project domain, regardless of
	// the filter being resolved; sort-by inference is scoped by that
	// already-resolved filter, because sort order only matters over the
	// filtered run domain (matching the original's two distinct
	// `_infer_attribute_types_from_api(filter_=...)` call sites).
	filterState := typeinference.InferFilter(ctx, deps.Project, params.Filter, typeinference.Deps{
		Search:                  runDomainSearch(deps, params.ContainerType, nil),
		AttributeDefinitions:    attrDefsLookup,
		Pool:                    pool,
		AttributeDefinitionPool: attrDefPool,
	})
	if filterState.IsRunDomainEmpty() {
		return emptyTable()
	}
	if err := filterState.RaiseIfIncomplete(); err != nil {
		return nil, err
	}

	sortState, resolvedSortBy := typeinference.InferSortBy(ctx, deps.Project, params.Filter, params.SortBy, typeinference.Deps{
		Search:                  runDomainSearch(deps, params.ContainerType, params.Filter),
		AttributeDefinitions:    attrDefsLookup,
		Pool:                    pool,
		AttributeDefinitionPool: attrDefPool,
	})
	if sortState.IsRunDomainEmpty() {
		return emptyTable()
	}
	if err := sortState.RaiseIfIncomplete(); err != nil {
		return nil, err
	}

	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	var mu sync.Mutex
	sysIDToLabel := map[identifiers.SysId]identifiers.Label{}
	var labelOrder []identifiers.Label
	valuesByLabel := map[identifiers.Label][]identifiers.AttributeValue{}
	var allDefinitions []identifiers.AttributeDefinition
	seenDef := map[identifiers.AttributeDefinition]bool{}

	for page, err := range retrieval.FetchSysIDLabels(
		ctx, deps.Transport, deps.Project, params.ContainerType,
		params.Filter, filters.RenderAttribute(*resolvedSortBy), sortDirection, limit,
	) {
		if err != nil {
			return nil, err
		}

		sysIDs := make([]identifiers.SysId, 0, len(page.Items))
		for _, item := range page.Items {
			sysIDToLabel[item.SysID] = item.Label
			labelOrder = append(labelOrder, item.Label)
			if _, ok := valuesByLabel[item.Label]; !ok {
				valuesByLabel[item.Label] = nil
			}
			sysIDs = append(sysIDs, item.SysID)
		}

		for _, batch := range concurrency.SplitSysIDs(sysIDs, deps.sysAttrsBatchSize()) {
			batch := batch
			pool.Go(func(ctx context.Context) error {
				var defs []identifiers.AttributeDefinition
				seenLocal := map[identifiers.AttributeDefinition]bool{}
				for _, defBatch := range concurrency.SplitSysIDs(batch, deps.attributeDefinitionsBatchSize()) {
					for def, err := range retrieval.FetchAttributeDefinitions(ctx, attrDefPool, deps.Transport, deps.Project, defBatch, params.Attributes) {
						if err != nil {
							return err
						}
						if seenLocal[def] {
							continue
						}
						seenLocal[def] = true
						defs = append(defs, def)
					}
				}

				mu.Lock()
				for _, d := range defs {
					if !seenDef[d] {
						seenDef[d] = true
						allDefinitions = append(allDefinitions, d)
					}
				}
				mu.Unlock()

				for _, valBatch := range concurrency.SplitSysIDs(batch, deps.attributeValuesBatchSize()) {
					for page, err := range retrieval.FetchAttributeValues(ctx, deps.Transport, deps.Project, valBatch, defs) {
						if err != nil {
							return err
						}
						mu.Lock()
						for _, v := range page.Items {
							label := sysIDToLabel[v.RunIdentifier.SysId]
							valuesByLabel[label] = append(valuesByLabel[label], v)
						}
						mu.Unlock()
					}
				}
				return nil
			})
		}
	}

	if err := pool.Wait(); err != nil {
		return nil, err
	}

	selected := selectedAggregationsFor(params.Attributes, allDefinitions)
	return output.BuildTable(labelOrder, valuesByLabel, selected, params.TypeSuffixInColumnNames, params.FlattenFileProperties, indexName)
}

// runDomainSearch walks every sys id matching filter (the whole project when
// filter is nil), used by type inference both to check whether the matched
// run domain is empty and to scope the attribute-definitions lookup that
// resolves a still-unknown attribute's type (spec.md §4.2).
func runDomainSearch(deps Deps, containerType retrieval.ContainerType, filter *filters.Filter) typeinference.SearchFunc {
	return func(ctx context.Context, yield func([]identifiers.SysId) bool) {
		for page, err := range retrieval.FetchSysIDLabels(ctx, deps.Transport, deps.Project, containerType, filter, "", retrieval.SortAscending, 0) {
			if err != nil {
				return
			}
			ids := make([]identifiers.SysId, len(page.Items))
			for i, item := range page.Items {
				ids[i] = item.SysID
			}
			if !yield(ids) {
				return
			}
		}
	}
}

func attributeDefinitionsLookup(pool *concurrency.Pool, deps Deps) typeinference.AttributeDefinitionsFunc {
	return func(ctx context.Context, project identifiers.ProjectIdentifier, sysIDs []identifiers.SysId, nameFilter filters.AttributeFilter, yield func(identifiers.AttributeDefinition) bool) {
		alt := filters.AttributeFilterAlternative{Filters: []filters.AttributeFilter{nameFilter}}
		for def, err := range retrieval.FetchAttributeDefinitions(ctx, pool, deps.Transport, project, sysIDs, alt) {
			if err != nil {
				return
			}
			if !yield(def) {
				return
			}
		}
	}
}
