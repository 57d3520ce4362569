// Package ingest parses exported nutrition logs into intake rows. It is
// the boundary where free-form CSV cells become typed optional numerics;
// downstream scoring never sees raw strings.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nutrilog/dii-meter/internal/dii"
)

// Columns that carry labels rather than nutrient values.
var labelColumns = map[string]bool{
	"Date":      true,
	"Meal":      true,
	"Note":      true,
	"Completed": true,
}

// Record is one parsed log row: its labels plus the nutrient fields.
type Record struct {
	Date   string  `json:"date"`
	Meal   string  `json:"meal,omitempty"`
	Fields dii.Row `json:"fields"`
}

// Table is a parsed export file.
type Table struct {
	Columns []string
	Records []Record
}

// ParseCSV reads a header-driven nutrition export. Blank and non-numeric
// cells become invalid values, which score as zero downstream; they are
// never an error.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty csv input")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Columns: header}
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(t.Records)+2, err)
		}

		rec := Record{Fields: make(dii.Row, len(header))}
		for i, col := range header {
			if i >= len(cells) {
				break
			}
			cell := strings.TrimSpace(cells[i])
			switch col {
			case "Date":
				rec.Date = cell
			case "Meal":
				rec.Meal = cell
			default:
				if labelColumns[col] {
					continue
				}
				rec.Fields[col] = parseCell(cell)
			}
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

func parseCell(cell string) dii.NullFloat {
	if cell == "" {
		return dii.NullFloat{}
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return dii.NullFloat{}
	}
	return dii.Float(v)
}

// HasColumn reports whether the export carried a column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Normalize returns one record per observation day. Meal-level exports
// (those with a Meal column) are grouped by date with numeric fields
// summed; day-level exports pass through unchanged.
func (t *Table) Normalize() []Record {
	if !t.HasColumn("Meal") {
		return t.Records
	}
	return groupByDate(t.Records)
}

func groupByDate(records []Record) []Record {
	var order []string
	byDate := make(map[string]*Record)
	for _, rec := range records {
		day, ok := byDate[rec.Date]
		if !ok {
			day = &Record{Date: rec.Date, Fields: make(dii.Row)}
			byDate[rec.Date] = day
			order = append(order, rec.Date)
		}
		for field, v := range rec.Fields {
			if !v.Valid {
				continue
			}
			sum := day.Fields[field]
			day.Fields[field] = dii.Float(sum.Value + v.Value)
		}
	}

	out := make([]Record, 0, len(order))
	for _, date := range order {
		out = append(out, *byDate[date])
	}
	return out
}

// AverageRows builds a pseudo-row of per-field mean intakes across
// records, skipping unrecorded values. It feeds the explanation of a
// multi-day average, where displayed values should be daily means.
func AverageRows(records []Record) dii.Row {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, rec := range records {
		for field, v := range rec.Fields {
			if !v.Valid {
				continue
			}
			sums[field] += v.Value
			counts[field]++
		}
	}

	row := make(dii.Row, len(sums))
	for field, sum := range sums {
		row[field] = dii.Float(sum / float64(counts[field]))
	}
	return row
}

// SplitColumns partitions the nutrient columns into those the mapping
// recognizes and those it ignores, for operator feedback.
func (t *Table) SplitColumns(m *dii.SchemaMapping) (recognized, unrecognized []string) {
	for _, col := range t.Columns {
		if labelColumns[col] {
			continue
		}
		if _, ok := m.ParameterFor(col); ok {
			recognized = append(recognized, col)
		} else {
			unrecognized = append(unrecognized, col)
		}
	}
	return recognized, unrecognized
}
