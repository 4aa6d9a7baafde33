// Package pattern validates the regex patterns accepted by the public
// Filter/AttributeFilter constructors, rejecting patterns that do not parse
// at construction time (a user error, never a runtime surprise). A valid
// pattern is passed to the backend unchanged; no rewriting into another
// regex form is done.
package pattern

import (
	"fmt"
	"regexp/syntax"

	"github.com/trackql/fetcher/internal/filters"
)

// Validate parses pattern with Go's regexp/syntax (Perl flags) and returns a
// *filters.ValidationError when parsing fails, which covers unbalanced
// groups, backreferences and lookaround. No other construct is rejected.
func Validate(pattern string) error {
	_, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return &filters.ValidationError{Message: fmt.Sprintf("invalid regex pattern %q: %s", pattern, err)}
	}
	return nil
}

// BuildExtendedRegexFilter builds a MATCHES predicate over attr after
// checking with Validate that pattern parses.
func BuildExtendedRegexFilter(attr filters.Attribute, pattern string) (filters.Filter, error) {
	if err := Validate(pattern); err != nil {
		return filters.Filter{}, err
	}
	return filters.Filter{Root: &filters.ValuePredicate{Op: filters.OpMatches, Attribute: attr, Value: pattern}}, nil
}

// BuildExtendedRegexFilterAll lowers to an AND of individual MATCHES
// predicates, one per pattern, mirroring filters.ContainsAll's per-value
// expansion. An empty pattern list is a user error, same as ContainsAll.
func BuildExtendedRegexFilterAll(attr filters.Attribute, extendedRegexPatterns []string) (filters.Filter, error) {
	if len(extendedRegexPatterns) == 0 {
		return filters.Filter{}, &filters.ValidationError{Message: "matches_all requires a non-empty list of patterns"}
	}
	children := make([]filters.Node, 0, len(extendedRegexPatterns))
	for _, p := range extendedRegexPatterns {
		if err := Validate(p); err != nil {
			return filters.Filter{}, err
		}
		children = append(children, &filters.ValuePredicate{Op: filters.OpMatches, Attribute: attr, Value: p})
	}
	return filters.Filter{Root: &filters.Associative{Op: filters.AssocAnd, Children: children}}, nil
}

// BuildExtendedRegexFilterNone lowers to an AND of individual NOT MATCHES
// predicates, one per pattern, mirroring filters.ContainsNone.
func BuildExtendedRegexFilterNone(attr filters.Attribute, extendedRegexPatterns []string) (filters.Filter, error) {
	if len(extendedRegexPatterns) == 0 {
		return filters.Filter{}, &filters.ValidationError{Message: "matches_none requires a non-empty list of patterns"}
	}
	children := make([]filters.Node, 0, len(extendedRegexPatterns))
	for _, p := range extendedRegexPatterns {
		if err := Validate(p); err != nil {
			return filters.Filter{}, err
		}
		children = append(children, &filters.ValuePredicate{Op: filters.OpNotMatches, Attribute: attr, Value: p})
	}
	return filters.Filter{Root: &filters.Associative{Op: filters.AssocAnd, Children: children}}, nil
}

// BuildExtendedRegexAttributeFilter builds an AttributeFilter whose name
// criterion is the validated extended-regex pattern, used when
// the public AttributeFilter.NameMatches is a single pattern string rather
// than an exact-name list.
func BuildExtendedRegexAttributeFilter(pattern string, typeIn []filters.AttributeType, aggregations []filters.Aggregation) (filters.AttributeFilter, error) {
	if err := Validate(pattern); err != nil {
		return filters.AttributeFilter{}, err
	}
	return filters.AttributeFilter{
		NameMatchesAny: []string{pattern},
		TypeIn:         typeIn,
		Aggregations:   aggregations,
	}, nil
}
