package engine

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
)

// readCSV reads a comma separated data file. Empty cells and empty rows are
// dropped, and a missing file reads as no rows.
func readCSV(path string) [][]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		var row []string
		for _, cell := range rec {
			if cell != "" {
				row = append(row, cell)
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}
