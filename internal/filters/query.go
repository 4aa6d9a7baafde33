package filters

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RenderAttribute renders an attribute reference the way the backend query
// language expects: a backtick-quoted name, optionally suffixed with
// `:wireType`, optionally wrapped in `aggregation(ref, name)` when an
// aggregation was requested.
func RenderAttribute(a Attribute) string {
	ref := "`" + escapeBacktick(a.Name) + "`"
	if a.Type != "" {
		ref = ref + ":" + WireType(a.Type)
	}
	if a.Aggregation != "" {
		ref = fmt.Sprintf("aggregation(%s, %s)", ref, a.Aggregation)
	}
	return ref
}

func escapeBacktick(s string) string {
	return strings.ReplaceAll(s, "`", "\\`")
}

// renderLiteral renders the right-hand side of a value predicate.
func renderLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return renderStringLiteral(val)
	case time.Time:
		return val.Format("2006-01-02T15:04:05.000-07:00")
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func renderStringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// AttributeFilter is the disjunctive, lower-level attribute selector used
// by attribute-definition/value fetches: "give me every attribute whose
// name matches these criteria and is one of these types". A caller-facing
// AttributeFilter (e.g. built from a string-or-list name) lowers to this
// shape via the pattern package or directly.
type AttributeFilter struct {
	NameEq          []string
	NameMatchesAny  []string // positive regex alternatives, already backend-normalized
	NameMatchesNone []string // negative regex alternatives
	TypeIn          []AttributeType
	Aggregations    []Aggregation
}

// AttributeFilterAlternative is an OR of several AttributeFilter leaves,
// each becoming an independent fetch whose results are unioned and
// deduplicated by (name, type) downstream (spec.md §4.4.2).
type AttributeFilterAlternative struct {
	Filters []AttributeFilter
}

// WireAttributeFilter is the payload shape sent to
// /query-attribute-definitions-within-project for one AttributeFilter leaf.
type WireAttributeFilter struct {
	MustMatchRegexes    []string
	MustNotMatchRegexes []string
	AttributeTypes      []string
}

// ToWire lowers an AttributeFilter to its wire shape: name_eq becomes an
// anchored regex alternation merged into the positive regex set; type_in is
// translated to backend wire-type tags. Aggregations is carried separately
// as metadata (it drives which aggregation the value/series fetch later
// requests, not the attribute-definition query itself).
func (f AttributeFilter) ToWire() WireAttributeFilter {
	positive := append([]string{}, f.NameMatchesAny...)
	if len(f.NameEq) > 0 {
		positive = append(positive, anchoredAlternation(f.NameEq))
	}

	types := f.TypeIn
	if len(types) == 0 {
		types = AllTypes
	}
	wireTypes := make([]string, 0, len(types))
	for _, t := range types {
		wireTypes = append(wireTypes, WireType(t))
	}

	return WireAttributeFilter{
		MustMatchRegexes:    positive,
		MustNotMatchRegexes: append([]string{}, f.NameMatchesNone...),
		AttributeTypes:      wireTypes,
	}
}

func anchoredAlternation(names []string) string {
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = regexEscape(n)
	}
	return "^(" + strings.Join(escaped, "|") + ")$"
}

func regexEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
