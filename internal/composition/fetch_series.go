package composition

import (
	"context"
	"sync"

	"github.com/trackql/fetcher/internal/concurrency"
	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/logging"
	"github.com/trackql/fetcher/internal/output"
	"github.com/trackql/fetcher/internal/retrieval"
	"github.com/trackql/fetcher/internal/typeinference"
)

// nonNumericSeriesTypes is the set of series types FetchSeries resolves --
// every series type except float_series, which FetchMetrics handles
// instead (spec.md §4.4.5's supplement over the distilled spec.md, which
// only documents a single fetch_series_values adapter).
var nonNumericSeriesTypes = map[filters.AttributeType]bool{
	filters.TypeStringSeries:    true,
	filters.TypeFileSeries:      true,
	filters.TypeHistogramSeries: true,
}

// SeriesParams bundles the user-facing knobs for FetchSeries (spec.md
// §4.7.3, grounded on the original's fetch_series.py).
type SeriesParams struct {
	ContainerType    retrieval.ContainerType
	Filter           *filters.Filter
	Attributes       filters.AttributeFilterAlternative
	IncludeTime      string // "" or "absolute"
	StepRange        retrieval.StepRange
	LineageToTheRoot bool
	TailLimit        *int
}

// FetchSeries resolves every non-numeric series attribute the caller's
// filter selects and assembles an output.SeriesFrame of their points
// (spec.md §4.7.3).
func FetchSeries(ctx context.Context, deps Deps, params SeriesParams) (*output.SeriesFrame, error) {
	if err := ValidateStepRange(params.StepRange); err != nil {
		return nil, err
	}
	if err := ValidateTailLimit(params.TailLimit); err != nil {
		return nil, err
	}
	if err := ValidateIncludeTime(params.IncludeTime); err != nil {
		return nil, err
	}

	pool := concurrency.NewPool(ctx, deps.workers())
	defer pool.Release()
	attrDefPool := concurrency.NewPool(ctx, deps.workers())
	defer attrDefPool.Release()

	filterState := typeinference.InferFilter(ctx, deps.Project, params.Filter, typeinference.Deps{
		Search:                  runDomainSearch(deps, params.ContainerType, nil),
		AttributeDefinitions:    attributeDefinitionsLookup(attrDefPool, deps),
		Pool:                    pool,
		AttributeDefinitionPool: attrDefPool,
	})
	empty := func() *output.SeriesFrame {
		return output.BuildSeriesFrame(nil, nil, params.IncludeTime == "absolute")
	}
	if filterState.IsRunDomainEmpty() {
		return empty(), nil
	}
	if err := filterState.RaiseIfIncomplete(); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	sysIDToLabel := map[identifiers.SysId]identifiers.Label{}
	seriesData := map[identifiers.RunAttributeDefinition][]identifiers.SeriesValue{}

	for page, err := range retrieval.FetchSysIDLabels(ctx, deps.Transport, deps.Project, params.ContainerType, params.Filter, "", retrieval.SortAscending, 0) {
		if err != nil {
			return nil, err
		}

		sysIDs := make([]identifiers.SysId, 0, len(page.Items))
		for _, item := range page.Items {
			mu.Lock()
			sysIDToLabel[item.SysID] = item.Label
			mu.Unlock()
			sysIDs = append(sysIDs, item.SysID)
		}

		for _, batch := range concurrency.SplitSysIDs(sysIDs, deps.sysAttrsBatchSize()) {
			batch := batch
			pool.Go(func(ctx context.Context) error {
				var seriesDefs []identifiers.AttributeDefinition
				seenDef := map[identifiers.AttributeDefinition]bool{}
				for _, defBatch := range concurrency.SplitSysIDs(batch, deps.attributeDefinitionsBatchSize()) {
					for def, err := range retrieval.FetchAttributeDefinitions(ctx, attrDefPool, deps.Transport, deps.Project, defBatch, params.Attributes) {
						if err != nil {
							return err
						}
						if seenDef[def] {
							continue
						}
						seenDef[def] = true
						if nonNumericSeriesTypes[def.Type] {
							seriesDefs = append(seriesDefs, def)
						}
					}
				}

				var paths []identifiers.RunAttributeDefinition
				for _, sysID := range batch {
					for _, def := range seriesDefs {
						paths = append(paths, identifiers.RunAttributeDefinition{
							RunIdentifier:       identifiers.RunIdentifier{Project: deps.Project, SysId: sysID},
							AttributeDefinition: def,
						})
					}
				}

				for _, pathBatch := range concurrency.SplitSeriesAttributes(paths, func(r identifiers.RunAttributeDefinition) string {
					return r.AttributeDefinition.Name
				}, deps.seriesBatchSize(), deps.querySizeLimitBytes(), logging.Default()) {
					values, err := retrieval.FetchSeriesValues(ctx, deps.Transport, pathBatch, params.LineageToTheRoot, params.StepRange, params.TailLimit)
					if err != nil {
						return err
					}
					mu.Lock()
					for attr, points := range values {
						seriesData[attr] = append(seriesData[attr], points...)
					}
					mu.Unlock()
				}
				return nil
			})
		}
	}

	if err := pool.Wait(); err != nil {
		return nil, err
	}

	return output.BuildSeriesFrame(seriesData, sysIDToLabel, params.IncludeTime == "absolute"), nil
}
