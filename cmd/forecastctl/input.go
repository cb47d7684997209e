package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
)

// readRowsFile picks the decoder from the file extension; anything that is not .json is read as CSV.
func readRowsFile(path string) ([]models.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return readJSONRows(f)
	}
	return readCSVRows(f)
}

// readCSVRows keeps every cell as a string; empty cells become nulls.
func readCSVRows(r io.Reader) ([]models.Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []models.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(models.Row, len(header))
		for i, name := range header {
			if i >= len(rec) || rec[i] == "" {
				row[name] = nil
				continue
			}
			row[name] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readJSONRows(r io.Reader) ([]models.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rows []models.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json rows: %w", err)
	}
	return rows, nil
}
