// Package report renders forecast records as Excel workbooks.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetForecast    = "Forecast"
	SheetPerformance = "Performance"
	SheetInsights    = "Insights"

	// ContentType is the MIME type of the rendered workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrErrorRecord is returned for records that carry only an error.
var ErrErrorRecord = errors.New("cannot render an error record")

// WriteWorkbook writes rec as an .xlsx workbook with forecast, performance
// and insight sheets.
func WriteWorkbook(w io.Writer, rec *models.Forecast) error {
	if rec == nil || rec.Failed() {
		return ErrErrorRecord
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetForecast); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetPerformance, SheetInsights} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	if err := writeRows(f, SheetForecast, forecastRows(rec)); err != nil {
		return err
	}
	if err := writeRows(f, SheetPerformance, performanceRows(rec)); err != nil {
		return err
	}
	if err := writeRows(f, SheetInsights, insightRows(rec.Insights)); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetForecast, "A", "A", 12); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func forecastRows(rec *models.Forecast) [][]interface{} {
	header := []interface{}{"Date", "Forecast"}
	if rec.ConfidenceIntervals != nil {
		header = append(header, "Lower", "Upper")
	}
	for _, ind := range rec.IndividualForecasts {
		header = append(header, ind.Insights.ModelUsed)
	}

	rows := [][]interface{}{header}
	for i, d := range rec.FutureDates {
		row := []interface{}{d.Format("2006-01-02"), at(rec.FutureValues, i)}
		if ci := rec.ConfidenceIntervals; ci != nil {
			row = append(row, at(ci.Lower, i), at(ci.Upper, i))
		}
		for _, ind := range rec.IndividualForecasts {
			row = append(row, at(ind.FutureValues, i))
		}
		rows = append(rows, row)
	}
	return rows
}

func performanceRows(rec *models.Forecast) [][]interface{} {
	rows := [][]interface{}{{"Model", "MAE", "MSE", "RMSE", "R2", "MAPE %", "Weight"}}
	rows = append(rows, perfRow(rec.Insights.ModelUsed, rec.Performance, nil))
	for _, ind := range rec.IndividualForecasts {
		var weight interface{}
		if w, ok := rec.Weights[ind.Backend]; ok {
			weight = w
		}
		rows = append(rows, perfRow(ind.Insights.ModelUsed, ind.Performance, weight))
	}
	return rows
}

func perfRow(name string, p models.Performance, weight interface{}) []interface{} {
	row := []interface{}{name, p.MAE, p.MSE, p.RMSE, p.R2, p.MAPE}
	if weight != nil {
		row = append(row, weight)
	}
	return row
}

func insightRows(in models.Insights) [][]interface{} {
	rows := [][]interface{}{
		{"Model", in.ModelUsed},
		{"Confidence", in.Confidence},
		{"Growth %", in.GrowthPrediction},
		{"Forecast average", in.ForecastAvg},
		{"Current average", in.CurrentAvg},
	}
	if in.Note != "" {
		rows = append(rows, []interface{}{"Note", in.Note})
	}
	return rows
}

func at(v []float64, i int) interface{} {
	if i < len(v) {
		return v[i]
	}
	return nil
}
