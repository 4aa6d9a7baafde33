package composition

import (
	"github.com/trackql/fetcher/internal/identifiers"
	"github.com/trackql/fetcher/internal/transport"
)

// Deps bundles the collaborators every Fetch* entry point needs: the
// transport to talk to the backend over, the project it's scoped to, and
// the tunables that size its two worker pools and its batching (spec.md
// §4.3, §4.6; env-resolved by internal/env in production, passed through by
// the public constructors so NEPTUNE_FETCHER_* overrides actually apply).
type Deps struct {
	Transport transport.Transport
	Project   identifiers.ProjectIdentifier

	MaxWorkers                    int
	SysAttrsBatchSize             int
	AttributeDefinitionsBatchSize int
	AttributeValuesBatchSize      int
	SeriesBatchSize               int
	QuerySizeLimitBytes           int
}

func (d Deps) workers() int {
	if d.MaxWorkers > 0 {
		return d.MaxWorkers
	}
	return 10
}

func (d Deps) sysAttrsBatchSize() int {
	if d.SysAttrsBatchSize > 0 {
		return d.SysAttrsBatchSize
	}
	return 10_000
}

func (d Deps) attributeDefinitionsBatchSize() int {
	if d.AttributeDefinitionsBatchSize > 0 {
		return d.AttributeDefinitionsBatchSize
	}
	return 10_000
}

func (d Deps) attributeValuesBatchSize() int {
	if d.AttributeValuesBatchSize > 0 {
		return d.AttributeValuesBatchSize
	}
	return 10_000
}

func (d Deps) seriesBatchSize() int {
	if d.SeriesBatchSize > 0 {
		return d.SeriesBatchSize
	}
	return 10_000
}

func (d Deps) querySizeLimitBytes() int {
	if d.QuerySizeLimitBytes > 0 {
		return d.QuerySizeLimitBytes
	}
	return 220_000
}
