package filters

// AttributeType is the closed set of value types a backend attribute can
// carry.
type AttributeType = string

const (
	TypeFloat            AttributeType = "float"
	TypeInt              AttributeType = "int"
	TypeString           AttributeType = "string"
	TypeBool             AttributeType = "bool"
	TypeDatetime         AttributeType = "datetime"
	TypeFloatSeries      AttributeType = "float_series"
	TypeStringSet        AttributeType = "string_set"
	TypeStringSeries     AttributeType = "string_series"
	TypeFile             AttributeType = "file"
	TypeFileSeries       AttributeType = "file_series"
	TypeHistogramSeries  AttributeType = "histogram_series"
)

// AllTypes lists every attribute type known to the client. AttributeFilter.ToWire
// sends all of them when the caller leaves AttributeFilter.TypeIn empty.
var AllTypes = []AttributeType{
	TypeFloat, TypeInt, TypeString, TypeBool, TypeDatetime,
	TypeFloatSeries, TypeStringSet, TypeStringSeries, TypeFile,
	TypeFileSeries, TypeHistogramSeries,
}

// KnownTypes is the subset of AllTypes that the public v1-style Filter /
// AttributeFilter surface accepts (file_series is intentionally excluded
// there, matching the original library's KNOWN_TYPES).
var KnownTypes = []AttributeType{
	TypeFloat, TypeInt, TypeString, TypeBool, TypeDatetime,
	TypeFloatSeries, TypeStringSet, TypeStringSeries, TypeFile,
	TypeHistogramSeries,
}

// KnownType reports whether t is one of AllTypes, the full set the backend
// can return in a typed-union response.
func KnownType(t AttributeType) bool {
	for _, known := range AllTypes {
		if known == t {
			return true
		}
	}
	return false
}

// Aggregation is one of the scalar summaries computable over a series type.
type Aggregation = string

const (
	AggLast     Aggregation = "last"
	AggMin      Aggregation = "min"
	AggMax      Aggregation = "max"
	AggAverage  Aggregation = "average"
	AggVariance Aggregation = "variance"
)

// Per-type aggregation tables: which aggregations are valid for each series
// type. Used both for validation and for local type inference (an attribute
// whose requested aggregations fit exactly one of these sets can be typed
// without a round trip to the backend).
var (
	FloatSeriesAggregations     = map[Aggregation]bool{AggLast: true, AggMin: true, AggMax: true, AggAverage: true, AggVariance: true}
	StringSeriesAggregations    = map[Aggregation]bool{AggLast: true}
	FileSeriesAggregations      = map[Aggregation]bool{AggLast: true}
	HistogramSeriesAggregations = map[Aggregation]bool{AggLast: true}
)

// TypeAggregations maps each series type to its valid aggregation set, used
// by the local-inference pass to find the unique series type compatible
// with a requested aggregation set.
var TypeAggregations = map[AttributeType]map[Aggregation]bool{
	TypeFloatSeries:     FloatSeriesAggregations,
	TypeStringSeries:    StringSeriesAggregations,
	TypeFileSeries:      FileSeriesAggregations,
	TypeHistogramSeries: HistogramSeriesAggregations,
}

// AllAggregations is the union of every per-type aggregation set, used to
// validate a caller-supplied aggregation list.
var AllAggregations = unionAggregations(FloatSeriesAggregations, StringSeriesAggregations, FileSeriesAggregations, HistogramSeriesAggregations)

func unionAggregations(sets ...map[Aggregation]bool) map[Aggregation]bool {
	out := map[Aggregation]bool{}
	for _, set := range sets {
		for k := range set {
			out[k] = true
		}
	}
	return out
}

// attributeTypePythonToBackend maps the client-side type literal to the
// wire-level type tag the backend expects in filter queries and
// attribute-filter payloads.
var attributeTypePythonToBackend = map[AttributeType]string{
	TypeFloatSeries:     "floatSeries",
	TypeStringSet:       "stringSet",
	TypeStringSeries:    "stringSeries",
	TypeFile:            "fileRef",
	TypeFileSeries:      "fileRefSeries",
	TypeHistogramSeries: "histogramSeries",
}

var attributeTypeBackendToPython = invert(attributeTypePythonToBackend)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// WireType converts a client-side attribute type literal to its backend wire
// tag. Types that are spelled identically on both sides (float, int, string,
// bool, datetime) pass through unchanged.
func WireType(t AttributeType) string {
	if wire, ok := attributeTypePythonToBackend[t]; ok {
		return wire
	}
	return t
}

// FromWireType is the inverse of WireType.
func FromWireType(wire string) AttributeType {
	if t, ok := attributeTypeBackendToPython[wire]; ok {
		return t
	}
	return wire
}

// SystemAttributeTypes is the fixed table of well-known sys/* attribute
// names used by the local type-inference pass, so common filters like
// `sys/name == "..."` never need a round trip to the backend.
var SystemAttributeTypes = map[string]AttributeType{
	"sys/id":                  TypeString,
	"sys/name":                TypeString,
	"sys/custom_run_id":       TypeString,
	"sys/creation_time":       TypeDatetime,
	"sys/modification_time":   TypeDatetime,
	"sys/ping_time":           TypeDatetime,
	"sys/owner":               TypeString,
	"sys/size":                TypeFloat,
	"sys/tags":                TypeStringSet,
	"sys/group_tags":          TypeStringSet,
	"sys/state":               TypeString,
	"sys/failed":              TypeBool,
	"sys/trashed":              TypeBool,
	"sys/monitoring_time":     TypeFloat,
	"sys/runtime":             TypeFloat,
	"sys/family":              TypeString,
	"sys/description":         TypeString,
}
