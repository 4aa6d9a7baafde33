package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
)

func TestBuildTableEmpty(t *testing.T) {
	table, err := BuildTable(nil, nil, nil, true, false, "experiment")
	require.NoError(t, err)
	assert.Empty(t, table.Labels)
	assert.Empty(t, table.Columns)
}

func TestBuildTableScalarColumns(t *testing.T) {
	labels := []identifiers.Label{"exp-A", "exp-B"}
	values := map[identifiers.Label][]identifiers.AttributeValue{
		"exp-A": {{AttributeDefinition: identifiers.AttributeDefinition{Name: "config/lr", Type: "float"}, Value: 0.1}},
		"exp-B": {{AttributeDefinition: identifiers.AttributeDefinition{Name: "config/lr", Type: "float"}, Value: 0.2}},
	}

	table, err := BuildTable(labels, values, nil, false, false, "experiment")
	require.NoError(t, err)
	require.Len(t, table.Columns, 1)
	assert.Equal(t, "config/lr", table.Columns[0].Attribute)

	v, ok := table.Cell("exp-A", Column{Attribute: "config/lr"})
	require.True(t, ok)
	assert.Equal(t, 0.1, v)
}

func TestBuildTableTypeSuffixCollisionRaises(t *testing.T) {
	labels := []identifiers.Label{"exp-A"}
	values := map[identifiers.Label][]identifiers.AttributeValue{
		"exp-A": {
			{AttributeDefinition: identifiers.AttributeDefinition{Name: "x", Type: "float"}, Value: 1.0},
		},
	}
	// Simulate a collision by constructing two attributes whose stripped name matches
	// but whose wire type differs, via two separate rows sharing the same label.
	values["exp-A"] = append(values["exp-A"], identifiers.AttributeValue{
		AttributeDefinition: identifiers.AttributeDefinition{Name: "x", Type: "int"},
		Value:               2,
	})

	_, err := BuildTable(labels, values, nil, false, false, "experiment")
	require.Error(t, err)
	var conflict *ConflictingAttributeTypes
	require.ErrorAs(t, err, &conflict)
}

func TestBuildTableSeriesAggregationSubcolumns(t *testing.T) {
	labels := []identifiers.Label{"exp-A"}
	def := identifiers.AttributeDefinition{Name: "metrics/loss", Type: filters.TypeFloatSeries}
	values := map[identifiers.Label][]identifiers.AttributeValue{
		"exp-A": {{AttributeDefinition: def, Value: identifiers.SeriesAggregations{"last": 0.5, "min": 0.1}}},
	}
	selected := map[identifiers.AttributeDefinition]map[string]bool{
		def: {"last": true, "min": true},
	}

	table, err := BuildTable(labels, values, selected, false, false, "experiment")
	require.NoError(t, err)
	require.Len(t, table.Columns, 2)

	v, ok := table.Cell("exp-A", Column{Attribute: "metrics/loss", Aggregation: "last"})
	require.True(t, ok)
	assert.Equal(t, 0.5, v)
}

func TestBuildMetricFrameSortsByLabelThenStep(t *testing.T) {
	data := map[identifiers.RunAttributeDefinition][]identifiers.Point{
		{RunIdentifier: identifiers.RunIdentifier{SysId: "R-1"}, AttributeDefinition: identifiers.AttributeDefinition{Name: "loss"}}: {
			{Step: 2, Value: 0.4}, {Step: 1, Value: 0.5},
		},
	}
	labels := map[identifiers.SysId]identifiers.Label{"R-1": "exp-A"}

	frame := BuildMetricFrame(data, labels, false, false, false)
	require.Len(t, frame.Rows, 2)
	assert.Equal(t, 1.0, frame.Rows[0].Step)
	assert.Equal(t, 2.0, frame.Rows[1].Step)
}

func TestBuildFilesFrameSortsAttributesAndLabels(t *testing.T) {
	path := "/tmp/a.bin"
	downloads := []FileDownload{
		{RunIdentifier: identifiers.RunIdentifier{SysId: "R-2"}, AttributeDefinition: identifiers.AttributeDefinition{Name: "z-attr"}, LocalPath: &path},
		{RunIdentifier: identifiers.RunIdentifier{SysId: "R-1"}, AttributeDefinition: identifiers.AttributeDefinition{Name: "a-attr"}, LocalPath: nil},
	}
	labels := map[identifiers.SysId]identifiers.Label{"R-1": "exp-A", "R-2": "exp-B"}

	frame := BuildFilesFrame(downloads, labels)
	assert.Equal(t, []string{"a-attr", "z-attr"}, frame.Attributes)
	assert.Equal(t, []identifiers.Label{"exp-A", "exp-B"}, frame.Labels)
	assert.Nil(t, frame.Paths["exp-A"]["a-attr"])
	assert.Equal(t, &path, frame.Paths["exp-B"]["z-attr"])
}
