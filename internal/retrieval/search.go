package retrieval

import (
	"context"
	"iter"

	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/transport"
)

// ContainerType distinguishes the two kinds of leaderboard entries the
// search endpoint can return (spec.md §4.4.1).
type ContainerType string

const (
	ContainerRun        ContainerType = "run"
	ContainerExperiment ContainerType = "experiment"
)

// SortDirection mirrors the backend's ascending/descending sort parameter.
type SortDirection string

const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
)

const searchPageSize = 1000

// SysIDLabel pairs a SysId with the label the caller asked for: custom_run_id
// for runs, sys/name for experiment heads.
type SysIDLabel struct {
	SysID identifiers.SysId
	Label identifiers.Label
}

// FetchSysIDLabels walks the run/experiment search endpoint, honoring an
// optional server-side filter and sort, and yields pages of (SysId, Label)
// pairs. If limit is nonzero, the total number of items across all pages is
// capped at limit (spec.md §4.4.1).
func FetchSysIDLabels(
	ctx context.Context,
	t transport.Transport,
	project identifiers.ProjectIdentifier,
	containerType ContainerType,
	filter *filters.Filter,
	sortBy string,
	sortDirection SortDirection,
	limit int,
) iter.Seq2[Page[SysIDLabel], error] {
	var query string
	if filter != nil {
		query = filter.ToQuery()
	}

	emitted := 0
	return FetchPages(func(pageToken string) ([]SysIDLabel, string, error) {
		if limit > 0 && emitted >= limit {
			return nil, "", nil
		}

		pageLimit := searchPageSize
		if limit > 0 && limit-emitted < pageLimit {
			pageLimit = limit - emitted
		}

		resp, err := t.SearchLeaderboardEntries(ctx, transport.SearchLeaderboardEntriesRequest{
			Project:     string(project),
			Types:       []string{string(containerType)},
			FilterQuery: query,
			SortBy:      sortBy,
			SortDir:     string(sortDirection),
			Limit:       pageLimit,
			Pagination:  transport.NextPage{Limit: pageLimit, NextPageToken: pageToken},
		})
		if err != nil {
			return nil, "", err
		}

		items := make([]SysIDLabel, 0, len(resp.Entries))
		for _, e := range resp.Entries {
			label := e.CustomRunID
			if containerType == ContainerExperiment {
				label = e.SysName
			}
			items = append(items, SysIDLabel{SysID: identifiers.SysId(e.SysID), Label: identifiers.Label(label)})
		}
		emitted += len(items)
		return items, resp.Pagination.NextPageToken, nil
	})
}
