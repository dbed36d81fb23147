// Package chart derives a bar-chart series from imported rows.
package chart

import (
	"fmt"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/klytics/sheetkit/internal/record"
)

// Point is one bar.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is the data behind one chart.
type Series struct {
	LabelColumn string  `json:"labelColumn"`
	ValueColumn string  `json:"valueColumn"`
	Points      []Point `json:"points"`
}

// Summary holds descriptive statistics of a series.
type Summary struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// NumericColumns returns, in column order, the columns whose present values
// are all numbers. Columns with no values are excluded.
func NumericColumns(columns []string, rows []record.Row) []string {
	var out []string
	for _, col := range columns {
		seen := false
		numeric := true
		for _, row := range rows {
			v := row.Get(col)
			if v.IsNull() {
				continue
			}
			seen = true
			if v.Kind() != record.KindNumber {
				numeric = false
				break
			}
		}
		if seen && numeric {
			out = append(out, col)
		}
	}
	return out
}

// Build picks the label and value columns and extracts the points. An empty
// value column means the first numeric column; an empty label column means
// the first non-numeric column, or the row number when there is none.
func Build(columns []string, rows []record.Row, label, value string) (*Series, error) {
	numeric := NumericColumns(columns, rows)

	if value == "" {
		if len(numeric) == 0 {
			return nil, fmt.Errorf("no numeric column to chart — columns: %v", columns)
		}
		value = numeric[0]
	} else if !contains(columns, value) {
		return nil, fmt.Errorf("column %q not found — available columns: %v", value, columns)
	}

	if label == "" {
		for _, col := range columns {
			if !contains(numeric, col) {
				label = col
				break
			}
		}
	} else if !contains(columns, label) {
		return nil, fmt.Errorf("column %q not found — available columns: %v", label, columns)
	}

	s := &Series{LabelColumn: label, ValueColumn: value, Points: []Point{}}
	for i, row := range rows {
		n, ok := row.Get(value).AsNumber()
		if !ok {
			continue
		}
		name := strconv.Itoa(i + 1)
		if label != "" {
			if l := row.Get(label).String(); l != "" {
				name = l
			}
		}
		s.Points = append(s.Points, Point{Label: name, Value: n})
	}
	return s, nil
}

// Values returns the point values in order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Summary computes descriptive statistics. An empty series yields a zero Summary.
func (s *Series) Summary() (Summary, error) {
	data := stats.Float64Data(s.Values())
	if data.Len() == 0 {
		return Summary{}, nil
	}

	var (
		sum Summary
		err error
	)
	sum.Count = data.Len()
	if sum.Sum, err = data.Sum(); err != nil {
		return Summary{}, err
	}
	if sum.Min, err = data.Min(); err != nil {
		return Summary{}, err
	}
	if sum.Max, err = data.Max(); err != nil {
		return Summary{}, err
	}
	if sum.Mean, err = data.Mean(); err != nil {
		return Summary{}, err
	}
	if sum.Median, err = data.Median(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
