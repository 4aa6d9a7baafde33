// Package filters implements the filter algebra described by the backend's
// query language (NQL): logical trees of typed attribute predicates that
// serialize to a query string, plus the separate attribute-filter shape used
// to select which attributes a run-matching query should fetch.
package filters

import (
	"fmt"
)

// Attribute identifies one attribute reference inside a filter or a sort
// clause. Type is optional at construction time and is filled in by the
// type-inference pass before the filter is serialized.
type Attribute struct {
	Name        string
	Aggregation Aggregation
	Type        AttributeType
}

func (a Attribute) String() string {
	return RenderAttribute(a)
}

// Op is a leaf comparison operator.
type Op string

const (
	OpEq          Op = "=="
	OpNe          Op = "!="
	OpGt          Op = ">"
	OpGe          Op = ">="
	OpLt          Op = "<"
	OpLe          Op = "<="
	OpMatches     Op = "MATCHES"
	OpNotMatches  Op = "NOT MATCHES"
	OpContains    Op = "CONTAINS"
	OpNotContains Op = "NOT CONTAINS"
)

// AssocOp is the operator of an associative (variadic) filter node.
type AssocOp string

const (
	AssocAnd AssocOp = "AND"
	AssocOr  AssocOp = "OR"
)

// Node is one node of the filter tree. Every concrete node type in this
// package implements it; the set is closed (leaf value predicate, leaf
// existence predicate, associative AND/OR, prefix NOT), so callers should
// type-switch rather than expect structural extension.
type Node interface {
	ToQuery() string
	walkAttributes(func(*Attribute))
}

// ValuePredicate is a leaf `attr <op> literal` comparison.
type ValuePredicate struct {
	Op        Op
	Attribute Attribute
	Value     any
}

func (p *ValuePredicate) ToQuery() string {
	return fmt.Sprintf("%s %s %s", RenderAttribute(p.Attribute), p.Op, renderLiteral(p.Value))
}

func (p *ValuePredicate) walkAttributes(fn func(*Attribute)) { fn(&p.Attribute) }

// ExistsPredicate is a leaf `attr EXISTS` test.
type ExistsPredicate struct {
	Attribute Attribute
}

func (p *ExistsPredicate) ToQuery() string {
	return fmt.Sprintf("%s EXISTS", RenderAttribute(p.Attribute))
}

func (p *ExistsPredicate) walkAttributes(fn func(*Attribute)) { fn(&p.Attribute) }

// Associative is an AND/OR node over one or more children.
type Associative struct {
	Op       AssocOp
	Children []Node
}

func (n *Associative) ToQuery() string {
	if len(n.Children) == 1 {
		return n.Children[0].ToQuery()
	}
	out := "("
	for i, c := range n.Children {
		if i > 0 {
			out += fmt.Sprintf(" %s ", n.Op)
		}
		out += c.ToQuery()
	}
	return out + ")"
}

func (n *Associative) walkAttributes(fn func(*Attribute)) {
	for _, c := range n.Children {
		c.walkAttributes(fn)
	}
}

// Not is a prefix negation node.
type Not struct {
	Child Node
}

func (n *Not) ToQuery() string {
	return fmt.Sprintf("NOT %s", n.Child.ToQuery())
}

func (n *Not) walkAttributes(fn func(*Attribute)) { n.Child.walkAttributes(fn) }

// Filter is the public wrapper around a filter tree, giving it the factory
// methods and operator overloads (And/Or/Not) the rest of the module
// builds queries with.
type Filter struct {
	Root Node
}

func New(root Node) Filter { return Filter{Root: root} }

func (f Filter) ToQuery() string {
	if f.Root == nil {
		return ""
	}
	return f.Root.ToQuery()
}

func (f Filter) String() string { return f.ToQuery() }

// WalkAttributes visits every attribute reference in the filter tree, in
// left-to-right order, letting the caller mutate each Attribute in place
// (used by type inference to fill in resolved types).
func (f Filter) WalkAttributes(fn func(*Attribute)) {
	if f.Root == nil {
		return
	}
	f.Root.walkAttributes(fn)
}

func Eq(attr Attribute, value any) Filter {
	return Filter{Root: &ValuePredicate{Op: OpEq, Attribute: attr, Value: value}}
}

func Ne(attr Attribute, value any) Filter {
	return Filter{Root: &ValuePredicate{Op: OpNe, Attribute: attr, Value: value}}
}

func Gt(attr Attribute, value any) Filter {
	return Filter{Root: &ValuePredicate{Op: OpGt, Attribute: attr, Value: value}}
}

func Ge(attr Attribute, value any) Filter {
	return Filter{Root: &ValuePredicate{Op: OpGe, Attribute: attr, Value: value}}
}

func Lt(attr Attribute, value any) Filter {
	return Filter{Root: &ValuePredicate{Op: OpLt, Attribute: attr, Value: value}}
}

func Le(attr Attribute, value any) Filter {
	return Filter{Root: &ValuePredicate{Op: OpLe, Attribute: attr, Value: value}}
}

func Exists(attr Attribute) Filter {
	return Filter{Root: &ExistsPredicate{Attribute: attr}}
}

// ContainsAll lowers to an AND of individual CONTAINS predicates, one per
// value. An empty values list is a user error: the caller can't express
// "contains all of nothing" meaningfully.
func ContainsAll(attr Attribute, values []string) (Filter, error) {
	if len(values) == 0 {
		return Filter{}, &ValidationError{Message: "contains_all requires a non-empty list of values"}
	}
	children := make([]Node, 0, len(values))
	for _, v := range values {
		children = append(children, &ValuePredicate{Op: OpContains, Attribute: attr, Value: v})
	}
	return Filter{Root: &Associative{Op: AssocAnd, Children: children}}, nil
}

// ContainsNone lowers to an AND of individual NOT CONTAINS predicates.
func ContainsNone(attr Attribute, values []string) (Filter, error) {
	if len(values) == 0 {
		return Filter{}, &ValidationError{Message: "contains_none requires a non-empty list of values"}
	}
	children := make([]Node, 0, len(values))
	for _, v := range values {
		children = append(children, &ValuePredicate{Op: OpNotContains, Attribute: attr, Value: v})
	}
	return Filter{Root: &Associative{Op: AssocAnd, Children: children}}, nil
}

// NameIn lowers to an OR of `sys/name == x` predicates.
func NameIn(names []string) Filter {
	nameAttr := Attribute{Name: "sys/name", Type: TypeString}
	children := make([]Node, 0, len(names))
	for _, n := range names {
		children = append(children, &ValuePredicate{Op: OpEq, Attribute: nameAttr, Value: n})
	}
	return Any(children...)
}

// All ANDs the given filters together, flattening a single-filter input.
func All(filters ...Filter) Filter {
	nodes := make([]Node, 0, len(filters))
	for _, f := range filters {
		nodes = append(nodes, f.Root)
	}
	return Filter{Root: flatten(AssocAnd, nodes)}
}

// Any ORs the given nodes together.
func Any(nodes ...Node) Filter {
	return Filter{Root: flatten(AssocOr, nodes)}
}

// AnyFilters ORs the given filters together.
func AnyFilters(filters ...Filter) Filter {
	nodes := make([]Node, 0, len(filters))
	for _, f := range filters {
		nodes = append(nodes, f.Root)
	}
	return Any(nodes...)
}

func flatten(op AssocOp, nodes []Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &Associative{Op: op, Children: nodes}
}

func Negate(f Filter) Filter {
	return Filter{Root: &Not{Child: f.Root}}
}

func (f Filter) And(other Filter) Filter { return All(f, other) }
func (f Filter) Or(other Filter) Filter  { return AnyFilters(f, other) }
func (f Filter) Not() Filter             { return Negate(f) }

// ValidationError is a user-input error raised by filter/attribute-filter
// construction (empty contains_* lists, unsupported regex constructs, bad
// aggregation/type literals). It is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
