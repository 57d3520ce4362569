package dii

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownDataSource is returned when a data source id is not in the
// registry. It is the only hard failure the engine produces.
var ErrUnknownDataSource = errors.New("unknown data source")

// Recognized data source ids.
const (
	SourceCronometer   = "cronometer"
	SourceMyFitnessPal = "myfitnesspal"
)

// SchemaMapping translates one data source's native field names into
// parameter ids, with per-field unit conversions. Both directions are
// built once: forward for scoring, reverse for recovering a human-readable
// field name from a parameter id.
type SchemaMapping struct {
	source  string
	forward map[string]string  // field name -> parameter id
	reverse map[string]string  // parameter id -> field name
	factors map[string]float64 // field name -> multiplicative conversion
	fields  []string           // sorted field names
}

// NewSchemaMapping builds a mapping. Each field maps to exactly one
// parameter id, and each parameter id is targeted by at most one field;
// a duplicate target panics, since mappings are static build-time data.
func NewSchemaMapping(source string, fields map[string]string, factors map[string]float64) *SchemaMapping {
	m := &SchemaMapping{
		source:  source,
		forward: make(map[string]string, len(fields)),
		reverse: make(map[string]string, len(fields)),
		factors: make(map[string]float64, len(factors)),
		fields:  make([]string, 0, len(fields)),
	}
	for field, id := range fields {
		if prev, dup := m.reverse[id]; dup {
			panic(fmt.Sprintf("schema %s: parameter %s mapped by both %q and %q", source, id, prev, field))
		}
		m.forward[field] = id
		m.reverse[id] = field
		m.fields = append(m.fields, field)
	}
	sort.Strings(m.fields)
	for field, f := range factors {
		if _, ok := m.forward[field]; !ok {
			panic(fmt.Sprintf("schema %s: conversion for unmapped field %q", source, field))
		}
		m.factors[field] = f
	}
	return m
}

// Source returns the data source id this mapping belongs to.
func (m *SchemaMapping) Source() string { return m.source }

// Fields returns the mapped field names in sorted order.
func (m *SchemaMapping) Fields() []string {
	out := make([]string, len(m.fields))
	copy(out, m.fields)
	return out
}

// ParameterFor resolves a source-native field name to a parameter id.
func (m *SchemaMapping) ParameterFor(field string) (string, bool) {
	id, ok := m.forward[field]
	return id, ok
}

// FieldFor is the reverse lookup: the field name that feeds a parameter.
// Not every parameter has a field in every source.
func (m *SchemaMapping) FieldFor(parameterID string) (string, bool) {
	field, ok := m.reverse[parameterID]
	return field, ok
}

// Convert applies the field's unit conversion, if any, to a raw value.
func (m *SchemaMapping) Convert(field string, value float64) float64 {
	if f, ok := m.factors[field]; ok {
		return value * f
	}
	return value
}

// SchemaRegistry holds the recognized data sources.
type SchemaRegistry struct {
	mappings map[string]*SchemaMapping
	order    []string
}

// NewSchemaRegistry builds a registry from mappings, preserving order.
func NewSchemaRegistry(mappings ...*SchemaMapping) *SchemaRegistry {
	r := &SchemaRegistry{mappings: make(map[string]*SchemaMapping, len(mappings))}
	for _, m := range mappings {
		if _, dup := r.mappings[m.source]; dup {
			continue
		}
		r.mappings[m.source] = m
		r.order = append(r.order, m.source)
	}
	return r
}

// Mapping returns the schema for a data source id, or ErrUnknownDataSource.
func (r *SchemaRegistry) Mapping(source string) (*SchemaMapping, error) {
	m, ok := r.mappings[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataSource, source)
	}
	return m, nil
}

// Sources lists the recognized data source ids in registration order.
func (r *SchemaRegistry) Sources() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// iuToMicrograms converts international units of vitamin D to micrograms.
// This rule holds across sources; it is attached to whichever source
// reports the field in IU.
const iuToMicrograms = 1.0 / 40.0

// DefaultSchemas returns the registry for the two supported export formats.
//
// Cronometer exports canonical units except vitamin D (IU). MyFitnessPal
// reports several micronutrients as percent of the recommended daily
// allowance; those are rescaled to canonical mass units with fixed RDA
// reference amounts (vitamin A 900 µg RAE, vitamin C 90 mg, calcium
// 1000 mg, iron 18 mg per 100%). Conversions are data on the (source,
// field) pair so new sources never touch the scoring loop.
func DefaultSchemas() *SchemaRegistry {
	cronometer := NewSchemaMapping(SourceCronometer,
		map[string]string{
			"Alcohol (g)":           "ALCOHOL_DII",
			"B12 (Cobalamin) (µg)":  "VITB12_DII",
			"B6 (Pyridoxine) (mg)":  "VITB6_DII",
			"Caffeine (mg)":         "CAFFEINE_DII",
			"Carbs (g)":             "CARB_DII",
			"Cholesterol (mg)":      "CHOLES_DII",
			"Energy (kcal)":         "KCAL_DII",
			"Fat (g)":               "TOTALFAT_DII",
			"Fiber (g)":             "FIBER_DII",
			"Folate (µg)":           "FOLICACID_DII",
			"Iron (mg)":             "IRON_DII",
			"Magnesium (mg)":        "MG_DII",
			"Monounsaturated (g)":   "MUFA_DII",
			"B3 (Niacin) (mg)":      "NIACIN_DII",
			"Omega-3 (g)":           "N3FAT_DII",
			"Omega-6 (g)":           "N6FAT_DII",
			"Protein (g)":           "PROTEIN_DII",
			"Polyunsaturated (g)":   "PUFA_DII",
			"B2 (Riboflavin) (mg)":  "RIBOFLAVIN_DII",
			"Saturated (g)":         "SATFAT_DII",
			"Selenium (µg)":         "SE_DII",
			"B1 (Thiamine) (mg)":    "THIAMIN_DII",
			"Trans-Fats (g)":        "TRANSFAT_DII",
			"Vitamin A (µg)":        "VITA_DII",
			"Vitamin C (mg)":        "VITC_DII",
			"Vitamin D (IU)":        "VITD_DII",
			"Vitamin E (mg)":        "VITE_DII",
			"Zinc (mg)":             "ZN_DII",
		},
		map[string]float64{
			"Vitamin D (IU)": iuToMicrograms,
		})

	// SODIUM_DII, POTASSIUM_DII, SUGAR_DII and CALCIUM_DII are placeholders
	// outside the parameter table; they score as zero until weights exist.
	myfitnesspal := NewSchemaMapping(SourceMyFitnessPal,
		map[string]string{
			"Calories":            "KCAL_DII",
			"Fat (g)":             "TOTALFAT_DII",
			"Saturated Fat":       "SATFAT_DII",
			"Polyunsaturated Fat": "PUFA_DII",
			"Monounsaturated Fat": "MUFA_DII",
			"Trans Fat":           "TRANSFAT_DII",
			"Cholesterol":         "CHOLES_DII",
			"Sodium (mg)":         "SODIUM_DII",
			"Potassium":           "POTASSIUM_DII",
			"Carbohydrates (g)":   "CARB_DII",
			"Fiber":               "FIBER_DII",
			"Sugar":               "SUGAR_DII",
			"Protein (g)":         "PROTEIN_DII",
			"Vitamin A":           "VITA_DII",
			"Vitamin C":           "VITC_DII",
			"Calcium":             "CALCIUM_DII",
			"Iron":                "IRON_DII",
		},
		map[string]float64{
			"Vitamin A": 9,    // % RDA -> µg RAE
			"Vitamin C": 0.9,  // % RDA -> mg
			"Calcium":   10,   // % RDA -> mg
			"Iron":      0.18, // % RDA -> mg
		})

	return NewSchemaRegistry(cronometer, myfitnesspal)
}
