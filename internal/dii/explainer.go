package dii

import (
	"math"
	"sort"
)

// Classification bands a total score.
type Classification string

const (
	AntiInflammatory Classification = "anti-inflammatory"
	Neutral          Classification = "neutral"
	ProInflammatory  Classification = "pro-inflammatory"
)

// Band thresholds are fixed design constants, not derived from data.
const (
	antiInflammatoryBelow = -1.0
	neutralBelow          = 1.0
)

// Classify bands a total score. Comparisons are strictly-below on both
// boundaries: exactly -1 is neutral and exactly +1 is pro-inflammatory.
func Classify(total float64) Classification {
	switch {
	case total < antiInflammatoryBelow:
		return AntiInflammatory
	case total < neutralBelow:
		return Neutral
	default:
		return ProInflammatory
	}
}

// Recommendation is the advised action for one contributor.
type Recommendation string

const (
	RecommendReduce   Recommendation = "consider reducing intake"
	RecommendIncrease Recommendation = "increase intake"
	RecommendMaintain Recommendation = "continue current intake"
	RecommendLimit    Recommendation = "continue limiting intake"
)

// recommendFor derives the action from weight sign x contribution sign.
// The two sign-flip cells are the counter-intuitive ones: an
// anti-inflammatory nutrient eaten below the population average pushes the
// score up, and vice versa.
func recommendFor(weight, contribution float64) Recommendation {
	switch {
	case weight < 0 && contribution > 0:
		return RecommendIncrease
	case weight >= 0 && contribution < 0:
		return RecommendLimit
	case weight < 0:
		return RecommendMaintain
	default:
		return RecommendReduce
	}
}

// ReportItem annotates one ranked contributor.
type ReportItem struct {
	ParameterID      string         `json:"parameter_id"`
	Name             string         `json:"name"`
	Value            NullFloat      `json:"value"` // converted, comparable to PopulationMean
	PopulationMean   float64        `json:"population_mean"`
	Weight           float64        `json:"weight"`
	ZScore           NullFloat      `json:"z_score"`
	AboveAverage     bool           `json:"above_average"`
	Contribution     float64        `json:"contribution"`
	PercentOfTotal   NullFloat      `json:"percent_of_total"` // null when the total is zero
	CounterIntuitive bool           `json:"counter_intuitive"`
	Recommendation   Recommendation `json:"recommendation"`
}

// Report is the ranked, annotated breakdown of one score.
type Report struct {
	Total          float64        `json:"total"`
	Classification Classification `json:"classification"`
	Items          []ReportItem   `json:"items"` // by descending |contribution|
	Leads          []ReportItem   `json:"leads"` // the head of Items
}

const (
	reportDepth = 10
	leadDepth   = 5
)

// Explain ranks the non-zero contributions and annotates the top ones for
// reporting. The row is consulted again, with the same unit conversions,
// so displayed values are comparable to the population means.
func (e *Engine) Explain(row Row, total float64, contributions map[string]float64, source string) (Report, error) {
	mapping, err := e.schemas.Mapping(source)
	if err != nil {
		return Report{}, err
	}

	type ranked struct {
		id string
		c  float64
	}
	nonzero := make([]ranked, 0, len(contributions))
	for id, c := range contributions {
		if c != 0 {
			nonzero = append(nonzero, ranked{id: id, c: c})
		}
	}
	sort.Slice(nonzero, func(i, j int) bool {
		ai, aj := math.Abs(nonzero[i].c), math.Abs(nonzero[j].c)
		if ai != aj {
			return ai > aj
		}
		return nonzero[i].id < nonzero[j].id
	})
	if len(nonzero) > reportDepth {
		nonzero = nonzero[:reportDepth]
	}

	items := make([]ReportItem, 0, len(nonzero))
	for _, rc := range nonzero {
		param, ok := e.params.Lookup(rc.id)
		if !ok {
			continue
		}

		name := rc.id
		value := NullFloat{}
		if field, mapped := mapping.FieldFor(rc.id); mapped {
			name = field
			if raw, present := row[field]; present && raw.Valid {
				value = Float(mapping.Convert(field, raw.Value))
			}
		}

		z := NullFloat{}
		if value.Valid {
			z = Float((value.Value - param.Mean) / param.SD)
		}

		pct := NullFloat{}
		if total != 0 {
			pct = Float(math.Abs(rc.c) / math.Abs(total) * 100)
		}

		items = append(items, ReportItem{
			ParameterID:      rc.id,
			Name:             name,
			Value:            value,
			PopulationMean:   param.Mean,
			Weight:           param.Weight,
			ZScore:           z,
			AboveAverage:     z.Valid && z.Value > 0,
			Contribution:     rc.c,
			PercentOfTotal:   pct,
			CounterIntuitive: (param.Weight < 0) != (rc.c < 0),
			Recommendation:   recommendFor(param.Weight, rc.c),
		})
	}

	leads := items
	if len(leads) > leadDepth {
		leads = leads[:leadDepth]
	}

	return Report{
		Total:          total,
		Classification: Classify(total),
		Items:          items,
		Leads:          leads,
	}, nil
}
