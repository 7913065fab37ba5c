package service

import (
	"encoding/csv"
	"fmt"
	"os"
)

// DatasetRow is one CSV row keyed by its header names.
type DatasetRow map[string]string

// DatasetService serves the external participant dataset backing the
// report view. The CSV file is read once at startup; the hub only ever
// hands out the loaded rows.
type DatasetService struct {
	// Key is the dataset column the history payloads are joined on.
	Key  string
	rows []DatasetRow
}

// NewDatasetService loads the header-row CSV at path. The key column must
// be present in the header.
func NewDatasetService(path, key string) (*DatasetService, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("dataset %s has no header row", path)
	}

	headers := all[0]
	keyFound := false
	for _, h := range headers {
		if h == key {
			keyFound = true
			break
		}
	}
	if !keyFound {
		return nil, fmt.Errorf("dataset %s is missing key column %q", path, key)
	}

	rows := make([]DatasetRow, 0, len(all)-1)
	for _, rec := range all[1:] {
		row := make(DatasetRow, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return &DatasetService{Key: key, rows: rows}, nil
}

// Rows returns the dataset rows in file order. The slice is shared;
// callers must not mutate the rows.
func (s *DatasetService) Rows() []DatasetRow {
	return s.rows
}
