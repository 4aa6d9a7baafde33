package fetcher

import (
	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/pattern"
)

// Filter is the public filter-tree type: a boolean combination of attribute
// predicates that narrows which runs/experiments a fetch matches.
type Filter = filters.Filter

func Eq(attr Attribute, value any) Filter    { return filters.Eq(attr, value) }
func Ne(attr Attribute, value any) Filter    { return filters.Ne(attr, value) }
func Gt(attr Attribute, value any) Filter    { return filters.Gt(attr, value) }
func Ge(attr Attribute, value any) Filter    { return filters.Ge(attr, value) }
func Lt(attr Attribute, value any) Filter    { return filters.Lt(attr, value) }
func Le(attr Attribute, value any) Filter    { return filters.Le(attr, value) }
func Exists(attr Attribute) Filter           { return filters.Exists(attr) }
func NameIn(names []string) Filter           { return filters.NameIn(names) }
func All(fs ...Filter) Filter                { return filters.All(fs...) }
func AnyFilters(fs ...Filter) Filter         { return filters.AnyFilters(fs...) }
func Negate(f Filter) Filter                 { return filters.Negate(f) }

// ContainsAll/ContainsNone lower to an AND of individual CONTAINS/NOT
// CONTAINS predicates, one per value; an empty values list is a
// ValidationError.
func ContainsAll(attr Attribute, values []string) (Filter, error) {
	return filters.ContainsAll(attr, values)
}

func ContainsNone(attr Attribute, values []string) (Filter, error) {
	return filters.ContainsNone(attr, values)
}

// Matches builds a MATCHES predicate over attr after validating pattern
// against the backend's supported extended-regex subset.
func Matches(attr Attribute, extendedRegexPattern string) (Filter, error) {
	return pattern.BuildExtendedRegexFilter(attr, extendedRegexPattern)
}

// MatchesAll/MatchesNone lower to an AND of individual MATCHES/NOT MATCHES
// predicates, one per pattern, mirroring ContainsAll/ContainsNone; an empty
// patterns list is a ValidationError.
func MatchesAll(attr Attribute, extendedRegexPatterns []string) (Filter, error) {
	return pattern.BuildExtendedRegexFilterAll(attr, extendedRegexPatterns)
}

func MatchesNone(attr Attribute, extendedRegexPatterns []string) (Filter, error) {
	return pattern.BuildExtendedRegexFilterNone(attr, extendedRegexPatterns)
}

// ValidationError is a user-input error raised by filter/attribute-filter
// construction (empty contains_* lists, unsupported regex constructs).
type ValidationError = filters.ValidationError
