package models

import "time"

// Row is one record of an input table. Keys are column names; the engine
// reads the configured date and target columns and ignores the rest.
type Row map[string]any

// Point is a single observation of a stored daily series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// PointsToRows converts stored points into engine rows under the given column names.
func PointsToRows(points []Point, dateCol, targetCol string) []Row {
	rows := make([]Row, len(points))
	for i, p := range points {
		rows[i] = Row{dateCol: p.Date, targetCol: p.Value}
	}
	return rows
}
