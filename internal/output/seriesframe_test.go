package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackql/fetcher/internal/identifiers"
)

func TestBuildSeriesFrameSortsPathsAndRows(t *testing.T) {
	data := map[identifiers.RunAttributeDefinition][]identifiers.SeriesValue{
		{RunIdentifier: identifiers.RunIdentifier{SysId: "R-1"}, AttributeDefinition: identifiers.AttributeDefinition{Name: "logs"}}: {
			{Step: 2, Value: "b", Timestamp: 2000}, {Step: 1, Value: "a", Timestamp: 1000},
		},
		{RunIdentifier: identifiers.RunIdentifier{SysId: "R-1"}, AttributeDefinition: identifiers.AttributeDefinition{Name: "artifacts"}}: {
			{Step: 1, Value: "file.bin", Timestamp: 1000},
		},
	}
	labels := map[identifiers.SysId]identifiers.Label{"R-1": "run-1"}

	frame := BuildSeriesFrame(data, labels, false)
	assert.Equal(t, []string{"artifacts", "logs"}, frame.Paths)
	require.Len(t, frame.Rows, 2)
	assert.Equal(t, 1.0, frame.Rows[0].Step)
	assert.Equal(t, 2.0, frame.Rows[1].Step)

	cell := frame.Rows[0].Cells["logs"]
	assert.Equal(t, "a", cell.Value)
	assert.Nil(t, cell.AbsoluteTime)
}

func TestBuildSeriesFrameIncludesAbsoluteTime(t *testing.T) {
	data := map[identifiers.RunAttributeDefinition][]identifiers.SeriesValue{
		{RunIdentifier: identifiers.RunIdentifier{SysId: "R-1"}, AttributeDefinition: identifiers.AttributeDefinition{Name: "logs"}}: {
			{Step: 1, Value: "a", Timestamp: 1700000000000},
		},
	}
	labels := map[identifiers.SysId]identifiers.Label{"R-1": "run-1"}

	frame := BuildSeriesFrame(data, labels, true)
	require.Len(t, frame.Rows, 1)
	cell := frame.Rows[0].Cells["logs"]
	require.NotNil(t, cell.AbsoluteTime)
	assert.EqualValues(t, 1700000000000, cell.AbsoluteTime.UnixMilli())
}

func TestBuildSeriesFrameEmptyData(t *testing.T) {
	frame := BuildSeriesFrame(nil, nil, false)
	assert.Empty(t, frame.Paths)
	assert.Empty(t, frame.Rows)
}
