// Package typeinference resolves untyped attribute references in a filter
// (or a sort-by attribute) against local knowledge and, failing that, a
// single backend round trip, before the filter is dispatched to the
// search/attribute-fetch pipeline (spec.md §4.2).
package typeinference

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/trackql/fetcher/internal/concurrency"
	"github.com/trackql/fetcher/internal/filters"
	"github.com/trackql/fetcher/internal/identifiers"
)

// AttributeState tracks one attribute reference through the inference
// pipeline: which original attribute it came from, the (possibly still
// mutating) copy being resolved, and its terminal outcome.
type AttributeState struct {
	Original       filters.Attribute
	Attribute      *filters.Attribute
	InferredType   string
	SuccessDetails string
	Error          string
}

func (s *AttributeState) IsFinalized() bool {
	return s.InferredType != "" || s.Error != ""
}

func (s *AttributeState) IsInferred() bool { return s.InferredType != "" }

func (s *AttributeState) SetSuccess(inferredType, details string) {
	s.InferredType = inferredType
	s.SuccessDetails = details
	s.Attribute.Type = inferredType
}

func (s *AttributeState) SetError(msg string) { s.Error = msg }

// State is the outcome of a single inference run over either a filter or a
// sort-by attribute.
type State struct {
	Attributes     []*AttributeState
	RunDomainEmpty *bool
}

func Empty() *State { return &State{} }

func (s *State) IsComplete() bool {
	for _, a := range s.Attributes {
		if !a.IsFinalized() {
			return false
		}
	}
	return true
}

func (s *State) IncompleteAttributes() []*AttributeState {
	var out []*AttributeState
	for _, a := range s.Attributes {
		if !a.IsFinalized() {
			out = append(out, a)
		}
	}
	return out
}

func (s *State) IsRunDomainEmpty() bool {
	return s.RunDomainEmpty != nil && *s.RunDomainEmpty
}

// AttributeTypeInferenceError is raised when one or more attributes remain
// untyped (or conflicting) after both inference passes. It is a UserError:
// never retried, and reported with every failing attribute at once.
type AttributeTypeInferenceError struct {
	AttributeNames []string
	Details        []string
}

func (e *AttributeTypeInferenceError) Error() string {
	var attrStr string
	if len(e.AttributeNames) == 1 {
		attrStr = fmt.Sprintf("attribute %s", e.AttributeNames[0])
	} else {
		attrStr = fmt.Sprintf("attributes [%s]", strings.Join(e.AttributeNames, ", "))
	}
	msg := fmt.Sprintf("failed to infer types for %s", attrStr)
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, "; ")
	}
	return msg
}

// RaiseIfIncomplete returns an *AttributeTypeInferenceError naming every
// attribute that didn't resolve to a type, or nil if every attribute in s
// was successfully inferred.
func (s *State) RaiseIfIncomplete() error {
	var names []string
	var details []string
	for _, a := range s.Attributes {
		if a.IsInferred() {
			continue
		}
		names = append(names, a.Original.Name)
		if a.Error != "" {
			details = append(details, fmt.Sprintf("%s: %s", a.Original.Name, a.Error))
		} else {
			details = append(details, fmt.Sprintf("%s: could not find the attribute", a.Original.Name))
		}
	}
	if len(names) == 0 {
		return nil
	}
	return &AttributeTypeInferenceError{AttributeNames: names, Details: details}
}

func stateFromAttribute(attr filters.Attribute) (*State, *filters.Attribute) {
	copyAttr := attr
	success := ""
	if copyAttr.Type != "" {
		success = "Type provided"
	}
	state := &AttributeState{
		Original:       attr,
		Attribute:      &copyAttr,
		InferredType:   copyAttr.Type,
		SuccessDetails: success,
	}
	return &State{Attributes: []*AttributeState{state}}, &copyAttr
}

func stateFromFilter(f filters.Filter) *State {
	var states []*AttributeState
	if f.Root != nil {
		f.WalkAttributes(func(a *filters.Attribute) {
			success := ""
			if a.Type != "" {
				success = "Type provided"
			}
			states = append(states, &AttributeState{
				Original:       *a,
				Attribute:      a,
				InferredType:   a.Type,
				SuccessDetails: success,
			})
		})
	}
	return &State{Attributes: states}
}

// SearchFunc walks the sys ids of the run domain page by page. The remote
// pass passes the collected ids to AttributeDefinitionsFunc to scope its
// query, and uses an empty result to set RunDomainEmpty (spec.md §4.2's
// "run_domain_empty" short-circuit).
type SearchFunc func(ctx context.Context, yield func([]identifiers.SysId) bool)

// AttributeDefinitionsFunc fetches the attribute-definition pages matching
// nameFilter, across the given sys ids: every sys id of the project for
// plain-filter inference, only the filter's matching ones for sort-by
// inference. sysIDs is nil only when the search found no runs.
type AttributeDefinitionsFunc func(ctx context.Context, project identifiers.ProjectIdentifier, sysIDs []identifiers.SysId, nameFilter filters.AttributeFilter, yield func(identifiers.AttributeDefinition) bool)

// Deps bundles the collaborators the remote inference pass needs: a way to
// walk the run domain and a way to fetch attribute definitions. Both are
// backed by internal/retrieval in production and by fakes in tests.
type Deps struct {
	Search                SearchFunc
	AttributeDefinitions  AttributeDefinitionsFunc
	Pool                  *concurrency.Pool
	AttributeDefinitionPool *concurrency.Pool
}

// InferFilter resolves every attribute referenced in f, setting the
// inferred types on the attributes of f's own tree in place (no copy of f
// is made) and returning the resulting State. A nil filter yields Empty().
func InferFilter(ctx context.Context, project identifiers.ProjectIdentifier, f *filters.Filter, deps Deps) *State {
	if f == nil || f.Root == nil {
		return Empty()
	}
	state := stateFromFilter(*f)
	if state.IsComplete() {
		return state
	}
	inferLocally(state)
	if state.IsComplete() {
		return state
	}
	inferFromAPI(ctx, project, nil, state, deps)
	return state
}

// InferSortBy resolves the type of a single sort-by attribute, optionally
// scoped by filter (sort order only matters over the filtered run domain,
// so the remote pass restricts its attribute-definition query to the
// filter's matching runs).
func InferSortBy(ctx context.Context, project identifiers.ProjectIdentifier, filter *filters.Filter, sortBy filters.Attribute, deps Deps) (*State, *filters.Attribute) {
	state, copyAttr := stateFromAttribute(sortBy)
	if state.IsComplete() {
		return state, copyAttr
	}
	inferLocally(state)
	if state.IsComplete() {
		return state, copyAttr
	}
	inferFromAPI(ctx, project, filter, state, deps)
	return state, copyAttr
}

// inferLocally is the first pass (spec.md §4.2 step 1): known sys/*
// attributes resolve immediately; otherwise, if the requested aggregation
// set is valid for exactly one series type, that type is inferred.
func inferLocally(state *State) {
	for _, s := range state.IncompleteAttributes() {
		attr := s.Attribute
		if t, ok := filters.SystemAttributeTypes[attr.Name]; ok {
			s.SetSuccess(t, "Inferred from well-known system attribute name")
			continue
		}

		if attr.Aggregation == "" {
			continue
		}

		var matches []string
		for t, aggs := range filters.TypeAggregations {
			if aggs[attr.Aggregation] {
				matches = append(matches, t)
			}
		}
		sort.Strings(matches)
		if len(matches) == 1 {
			s.SetSuccess(matches[0], "Inferred from aggregation")
		}
	}
}

// inferFromAPI is the second pass (spec.md §4.2 steps 2-3): issue a single
// attribute-definition query restricted to the residual attribute names,
// and resolve each one by the set of types observed.
func inferFromAPI(ctx context.Context, project identifiers.ProjectIdentifier, filter *filters.Filter, state *State, deps Deps) {
	residual := state.IncompleteAttributes()
	if len(residual) == 0 {
		return
	}

	nameSet := map[string]bool{}
	for _, s := range residual {
		nameSet[s.Attribute.Name] = true
	}
	names := make([]string, 0, len(nameSet))
	for n := range nameSet {
		names = append(names, n)
	}
	sort.Strings(names)
	nameFilter := filters.AttributeFilter{NameEq: names, TypeIn: filters.AllTypes}

	// The sys-id walk also tells us whether the run domain is empty, which
	// callers use to short-circuit to an empty result instead of raising
	// (spec.md §9 "v1 branch" behavior). For plain-filter inference, deps.Search
	// is expected to be scoped to the whole project (filter_=None in the
	// original); for sort-by inference it is scoped to the caller's filter,
	// because sort order only matters over the filtered domain.
	var sysIDs []identifiers.SysId
	if deps.Search != nil {
		deps.Search(ctx, func(page []identifiers.SysId) bool {
			sysIDs = append(sysIDs, page...)
			return true
		})
	}

	nameToTypes := map[string]map[string]bool{}
	if deps.AttributeDefinitions != nil {
		deps.AttributeDefinitions(ctx, project, sysIDs, nameFilter, func(def identifiers.AttributeDefinition) bool {
			set, ok := nameToTypes[def.Name]
			if !ok {
				set = map[string]bool{}
				nameToTypes[def.Name] = set
			}
			set[def.Type] = true
			return true
		})
	}

	for _, s := range residual {
		types, ok := nameToTypes[s.Attribute.Name]
		if !ok {
			continue
		}
		if len(types) == 1 {
			for t := range types {
				s.SetSuccess(t, "Inferred from the backend")
			}
			continue
		}
		if len(types) > 1 {
			observed := make([]string, 0, len(types))
			for t := range types {
				observed = append(observed, t)
			}
			sort.Strings(observed)
			s.SetError(fmt.Sprintf("found the attribute name with conflicting types: %s", strings.Join(observed, ", ")))
		}
	}

	empty := len(sysIDs) == 0
	state.RunDomainEmpty = &empty
}
