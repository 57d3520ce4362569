package dii

import (
	"encoding/json"
	"math"
)

// NullFloat is an optional numeric value. Absent, null or non-numeric
// inputs become the invalid state at the ingestion boundary, so the engine
// never inspects runtime types.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float wraps a present value.
func Float(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

// MarshalJSON renders invalid values as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts a number or null; anything else stays invalid.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	var v *float64
	if err := json.Unmarshal(data, &v); err != nil || v == nil {
		*n = NullFloat{}
		return nil
	}
	*n = Float(*v)
	return nil
}

// Row is one subject's nutrient totals for one observation period, keyed
// by source-native field name. The engine never mutates it.
type Row map[string]NullFloat

// Engine computes DII scores from intake rows. All state is read-only
// after construction, so a single Engine serves concurrent callers.
type Engine struct {
	params  *ParameterTable
	schemas *SchemaRegistry
}

// NewEngine builds an engine over an injected parameter table and schema
// registry. Tests substitute smaller tables here.
func NewEngine(params *ParameterTable, schemas *SchemaRegistry) *Engine {
	return &Engine{params: params, schemas: schemas}
}

// DefaultEngine builds an engine over the 45 published parameters and the
// two supported export formats.
func DefaultEngine() *Engine {
	return NewEngine(NewParameterTable(DefaultParameters()), DefaultSchemas())
}

// DataSources lists the recognized data source ids.
func (e *Engine) DataSources() []string { return e.schemas.Sources() }

// Params returns the engine's parameter table.
func (e *Engine) Params() *ParameterTable { return e.params }

// Mapping returns the schema for a data source, or ErrUnknownDataSource.
func (e *Engine) Mapping(source string) (*SchemaMapping, error) {
	return e.schemas.Mapping(source)
}

// percentile maps a standard score onto (-1, 1): 2*Phi(z)-1 for the
// standard normal CDF Phi, which is erf(z/sqrt(2)). Zero at the population
// mean, saturating toward +-1 for extreme intakes, so outliers have
// bounded influence.
func percentile(z float64) float64 {
	return math.Erf(z / math.Sqrt2)
}

// Score computes the total DII score and the per-parameter contributions
// for one intake row. Every parameter id in the table appears in the
// returned map, and a schema may add placeholder ids beyond the table, so
// the map can exceed the table's length; fields that are missing, null or
// outside the table contribute zero rather than failing, so partial
// nutrition logs still score. The total is summed in table order followed
// by placeholder ids in field order, so identical rows always produce
// bit-identical totals. The only error is an unrecognized data source.
func (e *Engine) Score(row Row, source string) (float64, map[string]float64, error) {
	mapping, err := e.schemas.Mapping(source)
	if err != nil {
		return 0, nil, err
	}

	order := e.params.IDs()
	contributions := make(map[string]float64, len(order))
	for _, id := range order {
		contributions[id] = 0
	}

	for _, field := range mapping.Fields() {
		id, _ := mapping.ParameterFor(field)
		if _, tracked := contributions[id]; !tracked {
			// schema placeholder outside the parameter table
			contributions[id] = 0
			order = append(order, id)
		}
		value, ok := row[field]
		if !ok || !value.Valid {
			continue
		}
		param, ok := e.params.Lookup(id)
		if !ok {
			continue
		}
		z := (mapping.Convert(field, value.Value) - param.Mean) / param.SD
		contributions[id] = percentile(z) * param.Weight
	}

	total := 0.0
	for _, id := range order {
		total += contributions[id]
	}
	return total, contributions, nil
}
