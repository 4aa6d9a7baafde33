package composition

import (
	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
)

// selectedAggregationsFor computes, for every series-typed definition
// FetchTable resolved, which aggregation subcolumns to emit: the union of
// every leaf's requested aggregations (intersected with what's valid for
// that definition's type), or just "last" when no leaf requested any --
// matching the original's documented default ("if the user doesn't specify
// metrics' aggregates to be returned, only the last aggregate is
// returned"). This merges aggregation requests across every leaf of the
// alternative rather than tracking which leaf produced which definition;
// see DESIGN.md for why the per-leaf attribution the original's
// AttributeDefinitionAggregation performs isn't reproduced here.
func selectedAggregationsFor(
	alternative filters.AttributeFilterAlternative,
	definitions []identifiers.AttributeDefinition,
) map[identifiers.AttributeDefinition]map[filters.Aggregation]bool {
	var requested []filters.Aggregation
	for _, leaf := range alternative.Filters {
		requested = append(requested, leaf.Aggregations...)
	}

	out := map[identifiers.AttributeDefinition]map[filters.Aggregation]bool{}
	for _, def := range definitions {
		valid, ok := filters.TypeAggregations[def.Type]
		if !ok {
			continue
		}

		sel := map[filters.Aggregation]bool{}
		if len(requested) == 0 {
			if valid[filters.AggLast] {
				sel[filters.AggLast] = true
			}
		} else {
			for _, agg := range requested {
				if valid[agg] {
					sel[agg] = true
				}
			}
		}
		if len(sel) > 0 {
			out[def] = sel
		}
	}
	return out
}
