package features

import (
	"fmt"
	"time"
)

// Table is the engineered feature table: one row per historical day, sorted ascending.
type Table struct {
	Dates  []time.Time
	Target []float64

	columns []string
	data    map[string][]float64
}

func newTable(dates []time.Time, target []float64) *Table {
	return &Table{
		Dates:  dates,
		Target: target,
		data:   make(map[string][]float64),
	}
}

func (t *Table) add(name string, values []float64) {
	t.columns = append(t.columns, name)
	t.data[name] = values
}

// Len is the number of historical rows.
func (t *Table) Len() int {
	return len(t.Dates)
}

// FeatureNames lists the engineered columns in emission order.
func (t *Table) FeatureNames() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Column(name string) ([]float64, bool) {
	col, ok := t.data[name]
	return col, ok
}

// Last returns the most recent historical date.
func (t *Table) Last() time.Time {
	return t.Dates[len(t.Dates)-1]
}

// Matrix returns rows [from, to) restricted to schema, in schema order.
func (t *Table) Matrix(schema []string, from, to int) ([][]float64, error) {
	if from < 0 || to > t.Len() || from > to {
		return nil, fmt.Errorf("row range [%d,%d) outside table of %d rows", from, to, t.Len())
	}
	cols := make([][]float64, len(schema))
	for j, name := range schema {
		col, ok := t.data[name]
		if !ok {
			return nil, fmt.Errorf("column %q not in feature table", name)
		}
		cols[j] = col
	}
	out := make([][]float64, 0, to-from)
	for i := from; i < to; i++ {
		row := make([]float64, len(schema))
		for j := range schema {
			row[j] = cols[j][i]
		}
		out = append(out, row)
	}
	return out, nil
}
