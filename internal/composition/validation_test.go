package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/retrieval"
)

func TestValidateSortDirectionRejectsUnknownValue(t *testing.T) {
	_, err := ValidateSortDirection("sideways")
	require.Error(t, err)
	assert.IsType(t, &filters.ValidationError{}, err)
}

func TestValidateSortDirectionAcceptsKnownValues(t *testing.T) {
	dir, err := ValidateSortDirection(SortAscending)
	require.NoError(t, err)
	assert.Equal(t, retrieval.SortAscending, dir)
}

func TestValidateLimitRejectsNonPositive(t *testing.T) {
	bad := 0
	err := ValidateLimit(&bad)
	require.Error(t, err)
	assert.IsType(t, &filters.ValidationError{}, err)
}

func TestValidateLimitAcceptsNil(t *testing.T) {
	require.NoError(t, ValidateLimit(nil))
}

func TestValidateStepRangeRejectsInvertedBounds(t *testing.T) {
	from, to := 10.0, 1.0
	err := ValidateStepRange(retrieval.StepRange{From: &from, To: &to})
	require.Error(t, err)
	assert.IsType(t, &filters.ValidationError{}, err)
}

func TestValidateIncludeTimeRejectsUnknownValue(t *testing.T) {
	err := ValidateIncludeTime("relative")
	require.Error(t, err)
	assert.IsType(t, &filters.ValidationError{}, err)
}

func TestValidateIncludeTimeAcceptsAbsoluteAndEmpty(t *testing.T) {
	require.NoError(t, ValidateIncludeTime(""))
	require.NoError(t, ValidateIncludeTime("absolute"))
}
