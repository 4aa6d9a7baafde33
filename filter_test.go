package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqRendersValuePredicate(t *testing.T) {
	f := Eq(NewAttribute("config/lr", Float, ""), 0.1)
	assert.Equal(t, "`config/lr`:float == 0.1", f.ToQuery())
}

func TestAllCombinesWithAnd(t *testing.T) {
	f := All(
		Eq(NewAttribute("config/lr", Float, ""), 0.1),
		Exists(NewAttribute("config/bs", Int, "")),
	)
	assert.Equal(t, "(`config/lr`:float == 0.1 AND `config/bs`:int EXISTS)", f.ToQuery())
}

func TestContainsAllRejectsEmptyValues(t *testing.T) {
	_, err := ContainsAll(NewAttribute("sys/tags", StringSet, ""), nil)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestContainsNoneBuildsFilter(t *testing.T) {
	f, err := ContainsNone(NewAttribute("sys/tags", StringSet, ""), []string{"debug"})
	require.NoError(t, err)
	assert.Equal(t, "`sys/tags`:stringSet NOT CONTAINS \"debug\"", f.ToQuery())
}

func TestMatchesRejectsUnsupportedPattern(t *testing.T) {
	_, err := Matches(NewAttribute("config/name", String, ""), "config/(")
	require.Error(t, err)
}

func TestMatchesBuildsFilter(t *testing.T) {
	f, err := Matches(NewAttribute("config/name", String, ""), "config/.*")
	require.NoError(t, err)
	assert.Equal(t, "`config/name`:string MATCHES \"config/.*\"", f.ToQuery())
}

func TestMatchesAllCombinesWithAnd(t *testing.T) {
	f, err := MatchesAll(NewAttribute("config/name", String, ""), []string{"a.*", "b.*"})
	require.NoError(t, err)
	assert.Equal(t, "(`config/name`:string MATCHES \"a.*\" AND `config/name`:string MATCHES \"b.*\")", f.ToQuery())
}

func TestMatchesAllRejectsEmptyPatterns(t *testing.T) {
	_, err := MatchesAll(NewAttribute("config/name", String, ""), nil)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestMatchesNoneBuildsFilter(t *testing.T) {
	f, err := MatchesNone(NewAttribute("config/name", String, ""), []string{"a.*"})
	require.NoError(t, err)
	assert.Equal(t, "`config/name`:string NOT MATCHES \"a.*\"", f.ToQuery())
}
