// Package composition wires the filter algebra, type inference, retrieval
// adapters, and result assembly into the end-to-end table/metrics/series
// fetch operations (spec.md §4, "Public composition entry points").
package composition

import (
	"fmt"

	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/retrieval"
)

// SortDirection is the composition-layer sort direction literal accepted
// from the public API ("asc"/"desc"), translated to retrieval.SortDirection
// by ValidateSortDirection.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// ValidateSortDirection checks dir is one of "asc"/"desc" and translates it
// to the retrieval package's wire-level direction.
func ValidateSortDirection(dir SortDirection) (retrieval.SortDirection, error) {
	switch dir {
	case SortAscending:
		return retrieval.SortAscending, nil
	case SortDescending:
		return retrieval.SortDescending, nil
	default:
		return "", &filters.ValidationError{Message: fmt.Sprintf("sort_direction %q is invalid; must be \"asc\" or \"desc\"", dir)}
	}
}

// ValidateLimit checks that limit, if present, is a positive integer.
func ValidateLimit(limit *int) error {
	return validateOptionalPositiveInt(limit, "limit")
}

// ValidateTailLimit checks that tailLimit, if present, is a positive integer.
func ValidateTailLimit(tailLimit *int) error {
	return validateOptionalPositiveInt(tailLimit, "tail_limit")
}

func validateOptionalPositiveInt(v *int, name string) error {
	if v != nil && *v <= 0 {
		return &filters.ValidationError{Message: fmt.Sprintf("%s must be greater than 0", name)}
	}
	return nil
}

// ValidateStepRange checks that a step range's bounds, if both present, are
// properly ordered.
func ValidateStepRange(stepRange retrieval.StepRange) error {
	if stepRange.From != nil && stepRange.To != nil && *stepRange.From > *stepRange.To {
		return &filters.ValidationError{Message: "step_range start must be less than or equal to end"}
	}
	return nil
}

// ValidateIncludeTime checks includeTime is empty or "absolute", the only
// value the output layer currently knows how to render as a timestamp
// subcolumn.
func ValidateIncludeTime(includeTime string) error {
	if includeTime != "" && includeTime != "absolute" {
		return &filters.ValidationError{Message: "include_time must be \"absolute\""}
	}
	return nil
}
