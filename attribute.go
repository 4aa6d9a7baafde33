package fetcher

import (
	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/pattern"
)

// Attribute, AttributeType, and Aggregation re-export internal/filters'
// types so callers never need to import an internal package to build a
// filter or a sort-by reference.
type (
	Attribute     = filters.Attribute
	AttributeType = filters.AttributeType
	Aggregation   = filters.Aggregation
)

const (
	Float           = filters.TypeFloat
	Int             = filters.TypeInt
	String          = filters.TypeString
	Bool            = filters.TypeBool
	Datetime        = filters.TypeDatetime
	FloatSeries     = filters.TypeFloatSeries
	StringSet       = filters.TypeStringSet
	StringSeries    = filters.TypeStringSeries
	File            = filters.TypeFile
	FileSeries      = filters.TypeFileSeries
	HistogramSeries = filters.TypeHistogramSeries
)

const (
	AggLast     = filters.AggLast
	AggMin      = filters.AggMin
	AggMax      = filters.AggMax
	AggAverage  = filters.AggAverage
	AggVariance = filters.AggVariance
)

// NewAttribute names an attribute for use in a filter predicate or a
// sort_by clause. type_ and aggregation are optional: an attribute whose
// Type is left empty is resolved by type inference against the matched run
// domain before the query is sent.
func NewAttribute(name string, type_ AttributeType, aggregation Aggregation) Attribute {
	return Attribute{Name: name, Type: type_, Aggregation: aggregation}
}

// AttributeFilter selects which attributes a table/metrics/series fetch
// should return: by exact name, by extended-regex pattern, restricted to a
// set of types, and (for series types) restricted to a set of aggregations.
type AttributeFilter struct {
	NameEq          []string
	NameMatches     string
	NameMatchesNone []string
	TypeIn          []AttributeType
	Aggregations    []Aggregation
}

// lower validates and converts a public AttributeFilter into the internal
// disjunctive shape the retrieval/composition layers operate on.
func (f AttributeFilter) lower() (filters.AttributeFilter, error) {
	if f.NameMatches == "" {
		return filters.AttributeFilter{
			NameEq:          f.NameEq,
			NameMatchesNone: f.NameMatchesNone,
			TypeIn:          f.TypeIn,
			Aggregations:    f.Aggregations,
		}, nil
	}
	base, err := pattern.BuildExtendedRegexAttributeFilter(f.NameMatches, f.TypeIn, f.Aggregations)
	if err != nil {
		return filters.AttributeFilter{}, err
	}
	base.NameEq = f.NameEq
	base.NameMatchesNone = f.NameMatchesNone
	return base, nil
}

// AttributeFilterAlternative is an OR of several AttributeFilter leaves:
// every leaf's matches are unioned and deduplicated downstream.
type AttributeFilterAlternative struct {
	Filters []AttributeFilter
}

func (a AttributeFilterAlternative) lower() (filters.AttributeFilterAlternative, error) {
	out := filters.AttributeFilterAlternative{Filters: make([]filters.AttributeFilter, 0, len(a.Filters))}
	for _, f := range a.Filters {
		lowered, err := f.lower()
		if err != nil {
			return filters.AttributeFilterAlternative{}, err
		}
		out.Filters = append(out.Filters, lowered)
	}
	return out, nil
}
