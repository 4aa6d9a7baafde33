package fetcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSeriesPropagatesMissingProjectError(t *testing.T) {
	_, err := FetchSeries(context.Background(), SeriesOptions{Ctx: &Context{APIToken: "tok"}})
	require.Error(t, err)
	assert.IsType(t, &ProjectNotProvided{}, err)
}

func TestFetchSeriesPropagatesAttributeLowerError(t *testing.T) {
	_, err := FetchSeries(context.Background(), SeriesOptions{
		Ctx:        &Context{Project: "ws/proj", APIToken: "tok"},
		Attributes: AttributeFilterAlternative{Filters: []AttributeFilter{{NameMatches: "("}}},
	})
	require.Error(t, err)
}
