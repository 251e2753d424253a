// Package properties implements the tagged-value property bag carried on
// every bus command: tuning knobs such as max answers, attention-broker
// update flags and evolutionary-search parameters, serialized as a flat,
// count-prefixed list of (key, type, value) triples.
package properties

import (
	"fmt"
	"strconv"
)

// Well-known property keys.
const (
	Context                           = "context"
	Hostname                          = "hostname"
	PortLower                         = "port_lower"
	PortUpper                         = "port_upper"
	KnownPeerID                       = "known_peer_id"
	AttentionUpdateFlag               = "attention_update_flag"
	CountFlag                         = "count_flag"
	MaxBundleSize                     = "max_bundle_size"
	MaxAnswers                        = "max_answers"
	PositiveImportanceFlag            = "positive_importance_flag"
	UniqueAssignmentFlag              = "unique_assignment_flag"
	PopulateMettaMapping              = "populate_metta_mapping"
	UseMettaAsQueryTokens             = "use_metta_as_query_tokens"
	PopulationSize                    = "population_size"
	MaxGenerations                    = "max_generations"
	ElitismRate                       = "elitism_rate"
	SelectionRate                     = "selection_rate"
	TotalAttentionTokens              = "total_attention_tokens"
	UseCache                          = "use_cache"
	EnforceCacheRecreation            = "enforce_cache_recreation"
	InitialRentRate                   = "initial_rent_rate"
	InitialSpreadingRateLowerbound    = "initial_spreading_rate_lowerbound"
	InitialSpreadingRateUpperbound    = "initial_spreading_rate_upperbound"
)

// Value is a tagged union over the wire value types the protocol supports.
// The zero Value is the empty string.
type Value struct {
	kind kind
	s    string
	i64  int64
	u64  uint64
	f64  float64
	b    bool
}

type kind uint8

const (
	kindString kind = iota
	kindInt64
	kindUint64
	kindFloat64
	kindBool
)

func String(s string) Value  { return Value{kind: kindString, s: s} }
func Int64(i int64) Value    { return Value{kind: kindInt64, i64: i} }
func Uint64(u uint64) Value  { return Value{kind: kindUint64, u64: u} }
func Float64(f float64) Value { return Value{kind: kindFloat64, f64: f} }
func Bool(b bool) Value      { return Value{kind: kindBool, b: b} }

func (v Value) typeTag() string {
	switch v.kind {
	case kindInt64:
		return "long"
	case kindUint64:
		return "unsigned_int"
	case kindFloat64:
		return "double"
	case kindBool:
		return "bool"
	default:
		return "string"
	}
}

// String renders v the way it appears on the wire.
func (v Value) String() string {
	switch v.kind {
	case kindInt64:
		return strconv.FormatInt(v.i64, 10)
	case kindUint64:
		return strconv.FormatUint(v.u64, 10)
	case kindFloat64:
		return strconv.FormatFloat(v.f64, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

func (v Value) AsUint64() uint64 {
	if v.kind == kindUint64 {
		return v.u64
	}
	if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
		return u
	}
	return 0
}

func (v Value) AsInt64() int64 {
	if v.kind == kindInt64 {
		return v.i64
	}
	if i, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
		return i
	}
	return 0
}

func (v Value) AsFloat64() float64 {
	if v.kind == kindFloat64 {
		return v.f64
	}
	if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
		return f
	}
	return 0
}

func (v Value) AsBool() bool {
	if v.kind == kindBool {
		return v.b
	}
	return v.String() == "true"
}

// ParseValue infers a Value's type from its wire text, trying bool, then
// uint64, then int64, then float64, and finally falling back to string.
// Trying uint64 before int64 means a non-negative integer literal always
// parses as uint64; only a negative literal yields int64.
func ParseValue(s string) Value {
	if b, err := strconv.ParseBool(s); err == nil {
		return Bool(b)
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Uint64(u)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int64(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float64(f)
	}
	return String(s)
}

// Properties is the ordered property bag attached to a query proxy. Key
// order is insertion order, which matters because Serialize emits the wire
// form in the same order every time for a given Properties value.
type Properties struct {
	order []string
	vals  map[string]Value
}

// NewDefault returns the fixed default property set every query starts
// from.
func NewDefault() *Properties {
	p := New()
	p.Set(MaxAnswers, Uint64(1000))
	p.Set(MaxBundleSize, Uint64(1000))
	p.Set(UniqueAssignmentFlag, Bool(true))
	p.Set(PopulateMettaMapping, Bool(true))
	p.Set(UseMettaAsQueryTokens, Bool(true))
	p.Set(PopulationSize, Uint64(50))
	p.Set(MaxGenerations, Uint64(10))
	p.Set(ElitismRate, Float64(0.08))
	p.Set(SelectionRate, Float64(0.1))
	p.Set(TotalAttentionTokens, Uint64(100000))
	p.Set(UseCache, Bool(true))
	p.Set(InitialRentRate, Float64(0.25))
	p.Set(InitialSpreadingRateLowerbound, Float64(0.50))
	p.Set(InitialSpreadingRateUpperbound, Float64(0.70))
	return p
}

// New returns an empty property bag.
func New() *Properties {
	return &Properties{vals: map[string]Value{}}
}

// Clone returns a deep copy.
func (p *Properties) Clone() *Properties {
	c := New()
	for _, k := range p.order {
		c.Set(k, p.vals[k])
	}
	return c
}

// Set inserts or overwrites key, preserving first-insertion order.
func (p *Properties) Set(key string, v Value) {
	if _, ok := p.vals[key]; !ok {
		p.order = append(p.order, key)
	}
	p.vals[key] = v
}

// Get returns the value for key, or the zero Value if absent.
func (p *Properties) Get(key string) Value {
	return p.vals[key]
}

// Has reports whether key is present.
func (p *Properties) Has(key string) bool {
	_, ok := p.vals[key]
	return ok
}

// Serialize renders the property bag as the flat wire form: a leading count
// of the remaining elements (3 per triple) followed by the (key, type tag,
// value) triples themselves.
func (p *Properties) Serialize() []string {
	out := make([]string, 0, 1+3*len(p.order))
	out = append(out, strconv.Itoa(3*len(p.order)))
	for _, k := range p.order {
		v := p.vals[k]
		out = append(out, k, v.typeTag(), v.String())
	}
	return out
}

// ParseTriples reconstructs a Properties from the wire form produced by
// Serialize, starting at fields[0] (the count of remaining elements, 3 per
// triple). It returns the number of string fields consumed so a caller
// decoding a larger arg list can continue parsing immediately after.
func ParseTriples(fields []string) (*Properties, int, error) {
	if len(fields) == 0 {
		return nil, 0, fmt.Errorf("properties: empty field list")
	}
	elementCount, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, 0, fmt.Errorf("properties: bad count %q: %w", fields[0], err)
	}
	if elementCount%3 != 0 {
		return nil, 0, fmt.Errorf("properties: element count %d not a multiple of 3", elementCount)
	}
	n := elementCount / 3
	consumed := 1
	p := New()
	for i := 0; i < n; i++ {
		if consumed+3 > len(fields) {
			return nil, 0, fmt.Errorf("properties: truncated triple at index %d", i)
		}
		key, tag, raw := fields[consumed], fields[consumed+1], fields[consumed+2]
		consumed += 3
		var v Value
		switch tag {
		case "long":
			i64, _ := strconv.ParseInt(raw, 10, 64)
			v = Int64(i64)
		case "unsigned_int":
			u64, _ := strconv.ParseUint(raw, 10, 64)
			v = Uint64(u64)
		case "double":
			f64, _ := strconv.ParseFloat(raw, 64)
			v = Float64(f64)
		case "bool":
			v = Bool(raw == "true")
		default:
			v = String(raw)
		}
		p.Set(key, v)
	}
	return p, consumed, nil
}
