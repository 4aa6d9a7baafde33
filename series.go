package fetcher

import (
	"context"

	"github.com/trackql/fetcher/internal/composition"
	"github.com/trackql/fetcher/internal/output"
)

// SeriesFrame is the assembled result of FetchSeries: one sparse
// (label, step)-keyed table of non-numeric series points (string, file, or
// histogram series).
type SeriesFrame = output.SeriesFrame

// SeriesOptions configures FetchSeries.
type SeriesOptions struct {
	Ctx *Context

	ContainerType    ContainerType
	Filter           *Filter
	Attributes       AttributeFilterAlternative
	IncludeTime      string
	StepRange        StepRange
	LineageToTheRoot bool
	TailLimit        *int
}

// FetchSeries resolves every string_series/file_series/histogram_series
// attribute opts.Attributes selects across the matched run domain and
// assembles a SeriesFrame of their points. float_series attributes are
// excluded; use FetchMetrics for those.
func FetchSeries(ctx context.Context, opts SeriesOptions) (*SeriesFrame, error) {
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

	return composition.FetchSeries(ctx, depsFromConfig(t, project, cfg), composition.SeriesParams{
		ContainerType:    containerType,
		Filter:           opts.Filter,
		Attributes:       attrs,
		IncludeTime:      opts.IncludeTime,
		StepRange:        opts.StepRange,
		LineageToTheRoot: opts.LineageToTheRoot,
		TailLimit:        opts.TailLimit,
	})
}
