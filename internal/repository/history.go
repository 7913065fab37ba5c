// Package repository provides persistence for the scan history
// using a single JSON file as the backing store.
package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/avetisov/qrvalidator/internal/models"
)

// FileHistoryRepository stores the full history as one JSON array,
// rewritten wholesale on every save.
type FileHistoryRepository struct {
	// Path is the location of the history file.
	Path string
}

// NewFileHistoryRepository creates a repository backed by the file at path.
// The file is created lazily on the first Save.
func NewFileHistoryRepository(path string) *FileHistoryRepository {
	return &FileHistoryRepository{Path: path}
}

// Load reads the persisted history. A missing or malformed file yields an
// empty history and no error; the file is the source of truth only when it
// is readable.
func (r *FileHistoryRepository) Load() ([]models.ScanRecord, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ScanRecord{}, nil
		}
		return []models.ScanRecord{}, fmt.Errorf("read history file: %w", err)
	}

	var records []models.ScanRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return []models.ScanRecord{}, fmt.Errorf("parse history file: %w", err)
	}
	if records == nil {
		records = []models.ScanRecord{}
	}
	return records, nil
}

// Save rewrites the entire history file with the given records in order.
func (r *FileHistoryRepository) Save(records []models.ScanRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(r.Path, data, 0o600); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}
