// Package fetcher is a client-side query engine for an experiment-tracking
// backend: it resolves a filter/sort-by attribute's type against the
// matched run domain, fetches attribute definitions and values concurrently
// in batches, and assembles the results into a Table, MetricFrame, or
// SeriesFrame.
//
// A minimal read looks like:
//
//	fetcher.SetContext("workspace/project", "", "", nil)
//	table, err := fetcher.FetchRunsTable(ctx, fetcher.TableOptions{
//		Filter: ptr(fetcher.Eq(fetcher.NewAttribute("sys/state", fetcher.String, ""), "active")),
//	})
//
// Credentials and connection details resolve from SetContext/GetContext,
// falling back to the NEPTUNE_PROJECT/NEPTUNE_API_TOKEN/NEPTUNE_API_URL
// environment variables.
package fetcher
