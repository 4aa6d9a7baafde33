package fetcher

import (
	"context"

	"github.com/trackql/fetcher/internal/composition"
	"github.com/trackql/fetcher/internal/output"
	"github.com/trackql/fetcher/internal/retrieval"
)

// StepRange bounds a metrics/series fetch to a [From, To] step window; a
// nil bound on either side is unbounded in that direction.
type StepRange = retrieval.StepRange

// MetricFrame is the assembled result of FetchMetrics: one sparse
// (label, step)-keyed table of float_series points.
type MetricFrame = output.MetricFrame

// MetricsOptions configures FetchMetrics.
type MetricsOptions struct {
	Ctx *Context

	ContainerType ContainerType
	Filter        *Filter
	Attributes    AttributeFilterAlternative

	// IncludeTime, when "absolute", adds a wall-clock timestamp column
	// alongside each point's step. Leave empty to omit it.
	IncludeTime      string
	StepRange        StepRange
	LineageToTheRoot bool
	// TailLimit caps the number of trailing points returned per series.
	TailLimit               *int
	TypeSuffixInColumnNames bool
	IncludePointPreviews    bool
}

// FetchMetrics resolves every float_series attribute opts.Attributes
// selects across the matched run domain and assembles a MetricFrame of
// their points.
func FetchMetrics(ctx context.Context, opts MetricsOptions) (*MetricFrame, error) {
	t, project, cfg, err := newTransport(opts.Ctx)
	if err != nil {
		return nil, err
	}
	attrs, err := opts.Attributes.lower()
	if err != nil {
		return nil, err
	}

	containerType := opts.ContainerType
	if containerType == "" {
		containerType = Runs
	}

	return composition.FetchMetrics(ctx, depsFromConfig(t, project, cfg), composition.MetricsParams{
		ContainerType:           containerType,
		Filter:                  opts.Filter,
		Attributes:              attrs,
		IncludeTime:             opts.IncludeTime,
		StepRange:               opts.StepRange,
		LineageToTheRoot:        opts.LineageToTheRoot,
		TailLimit:               opts.TailLimit,
		TypeSuffixInColumnNames: opts.TypeSuffixInColumnNames,
		IncludePointPreviews:    opts.IncludePointPreviews,
	})
}
