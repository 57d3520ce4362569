package types

import (
	"encoding/json"

	"github.com/nutrilog/dii-meter/internal/dii"
)

// ScoreRequest is the body of the score and analyze endpoints: one intake
// row plus the id of the export format it came from.
type ScoreRequest struct {
	Source string                     `json:"source" binding:"required"`
	Row    map[string]json.RawMessage `json:"row" binding:"required"`
}

// IntakeRow converts the raw JSON row into typed optional numerics. Null
// and non-numeric values become invalid entries, which score as zero.
func (r *ScoreRequest) IntakeRow() dii.Row {
	row := make(dii.Row, len(r.Row))
	for field, raw := range r.Row {
		var v dii.NullFloat
		_ = v.UnmarshalJSON(raw)
		row[field] = v
	}
	return row
}

// ScoreResponse is the engine output for one row.
type ScoreResponse struct {
	Source         string             `json:"source"`
	Total          float64            `json:"total"`
	Classification dii.Classification `json:"classification"`
	Contributions  map[string]float64 `json:"contributions"`
}

// AnalyzeResponse adds the ranked explanation to a score.
type AnalyzeResponse struct {
	ScoreResponse
	Report dii.Report `json:"report"`
}

// DayReport is one scored and explained day of an uploaded log.
type DayReport struct {
	Date   string     `json:"date"`
	Report dii.Report `json:"report"`
}

// CSVAnalysis is the response for an uploaded multi-day log: each day's
// report plus the multi-day average.
type CSVAnalysis struct {
	Source              string      `json:"source"`
	Days                []DayReport `json:"days"`
	Average             dii.Report  `json:"average"`
	RecognizedColumns   []string    `json:"recognized_columns"`
	UnrecognizedColumns []string    `json:"unrecognized_columns,omitempty"`
}
