package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lr = Attribute{Name: "config/lr", Type: TypeFloat}

func TestValuePredicateToQuery(t *testing.T) {
	f := Eq(lr, 0.1)
	assert.Equal(t, "`config/lr`:float == 0.1", f.ToQuery())
}

func TestExistsPredicateToQuery(t *testing.T) {
	f := Exists(lr)
	assert.Equal(t, "`config/lr`:float EXISTS", f.ToQuery())
}

func TestAllFlattensSingleFilter(t *testing.T) {
	f := All(Eq(lr, 0.1))
	assert.Equal(t, "`config/lr`:float == 0.1", f.ToQuery())
}

func TestAllJoinsWithAnd(t *testing.T) {
	f := All(Eq(lr, 0.1), Exists(lr))
	assert.Equal(t, "(`config/lr`:float == 0.1 AND `config/lr`:float EXISTS)", f.ToQuery())
}

func TestAnyFiltersJoinsWithOr(t *testing.T) {
	f := AnyFilters(Eq(lr, 0.1), Eq(lr, 0.2))
	assert.Equal(t, "(`config/lr`:float == 0.1 OR `config/lr`:float == 0.2)", f.ToQuery())
}

func TestNegateWrapsWithNot(t *testing.T) {
	f := Negate(Exists(lr))
	assert.Equal(t, "NOT `config/lr`:float EXISTS", f.ToQuery())
}

func TestNameInBuildsOrOfEquality(t *testing.T) {
	f := NameIn([]string{"run-1", "run-2"})
	assert.Equal(t, "(`sys/name`:string == \"run-1\" OR `sys/name`:string == \"run-2\")", f.ToQuery())
}

func TestContainsAllRejectsEmptyValues(t *testing.T) {
	_, err := ContainsAll(Attribute{Name: "sys/tags", Type: TypeStringSet}, nil)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestContainsAllJoinsWithAnd(t *testing.T) {
	f, err := ContainsAll(Attribute{Name: "sys/tags", Type: TypeStringSet}, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "(`sys/tags`:stringSet CONTAINS \"a\" AND `sys/tags`:stringSet CONTAINS \"b\")", f.ToQuery())
}

func TestContainsNoneRejectsEmptyValues(t *testing.T) {
	_, err := ContainsNone(Attribute{Name: "sys/tags", Type: TypeStringSet}, nil)
	require.Error(t, err)
}

func TestFilterAndOrNotMethods(t *testing.T) {
	a := Eq(lr, 0.1)
	b := Exists(lr)
	assert.Equal(t, a.And(b).ToQuery(), All(a, b).ToQuery())
	assert.Equal(t, a.Or(b).ToQuery(), AnyFilters(a, b).ToQuery())
	assert.Equal(t, a.Not().ToQuery(), Negate(a).ToQuery())
}

func TestWalkAttributesVisitsEveryLeaf(t *testing.T) {
	f := All(Eq(lr, 0.1), Exists(Attribute{Name: "config/bs", Type: TypeInt}))

	var names []string
	f.WalkAttributes(func(a *Attribute) {
		names = append(names, a.Name)
	})
	assert.Equal(t, []string{"config/lr", "config/bs"}, names)
}

func TestWalkAttributesOnEmptyFilterIsNoop(t *testing.T) {
	var f Filter
	called := false
	f.WalkAttributes(func(a *Attribute) { called = true })
	assert.False(t, called)
}

func TestEmptyFilterToQueryIsEmptyString(t *testing.T) {
	var f Filter
	assert.Equal(t, "", f.ToQuery())
}
