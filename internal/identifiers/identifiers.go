// Package identifiers holds the value types that identify a project, a run,
// and an attribute within it. They carry no behavior beyond equality and
// string formatting, matching the plain dataclasses of the backend this
// module talks to.
package identifiers

import "fmt"

// ProjectIdentifier is the "workspace/project" pair the backend expects on
// every request.
type ProjectIdentifier string

// SysId is the backend-internal identifier of a run, distinct from its
// user-facing Label (custom_id / experiment name).
type SysId string

// Label is the human-assigned name shown in the Neptune UI ("sys/custom_run_id"
// for runs, "sys/name" for experiments).
type Label string

// RunIdentifier pairs a project with a SysId, uniquely addressing one run
// across the whole backend.
type RunIdentifier struct {
	Project ProjectIdentifier
	SysId   SysId
}

func (r RunIdentifier) String() string {
	return fmt.Sprintf("%s/%s", r.Project, r.SysId)
}

// AttributeDefinition names one attribute path and its backend type, e.g.
// ("config/lr", "float").
type AttributeDefinition struct {
	Name string
	Type string
}

func (a AttributeDefinition) String() string {
	return fmt.Sprintf("%s:%s", a.Name, a.Type)
}

// RunAttributeDefinition scopes an AttributeDefinition to a specific run, the
// unit that attribute-value and series fetches operate on.
type RunAttributeDefinition struct {
	RunIdentifier       RunIdentifier
	AttributeDefinition AttributeDefinition
}

// AttributeValue is one concrete value returned for a RunAttributeDefinition:
// a scalar, a set, a file reference, or a series-aggregation value (see the
// SeriesAggregations map defined below).
type AttributeValue struct {
	RunIdentifier       RunIdentifier
	AttributeDefinition AttributeDefinition
	Value               any
}

// Point is one sample of a float-series metric at a given step.
type Point struct {
	Step      float64
	Value     float64
	Timestamp int64 // milliseconds since epoch
	Preview   bool
	// CompletionRatio is only meaningful when Preview is true; it is the
	// backend's estimate of how complete the series was at the time the
	// preview point was produced.
	CompletionRatio float64
}

// SeriesValue is one sample of a non-numeric series (string, file, or
// histogram) at a given step.
type SeriesValue struct {
	Step      float64
	Value     any
	Timestamp int64
}

// FileProperties is the decoded value of a "file"-typed attribute: a
// reference to a blob the backend holds, not its content.
type FileProperties struct {
	Path      string
	SizeBytes int64
	MimeType  string
}

// SeriesAggregations is the decoded value of a series-typed attribute when
// fetched as a plain attribute value (not a series): one value per
// aggregation name requested (spec.md §3, §4.4.3). The value's concrete type
// tracks the series kind the aggregation was computed over: float64 for
// float_series, string for string_series's "last", FileProperties for
// file_series's "last", and a decoded map for histogram_series's "last".
type SeriesAggregations map[string]any
