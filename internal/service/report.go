package service

import (
	"encoding/json"

	"github.com/avetisov/qrvalidator/internal/models"
	"github.com/avetisov/qrvalidator/internal/schema"
)

// Attendance markers added to report rows.
const (
	// AttendancePresent marks a dataset row with a matching scan record.
	AttendancePresent = "Hadir"
	// AttendanceAbsent marks a dataset row with no matching scan record.
	AttendanceAbsent = "Alpa"
	// AttendanceColumn is the synthetic column carrying the marker.
	AttendanceColumn = "Kehadiran"
)

// AttendanceReport joins dataset rows against the scan history, marking
// each row present when any record's payload identifies it through the
// key column. Payloads that do not parse as participants are skipped.
func AttendanceReport(history []models.ScanRecord, rows []DatasetRow, key string) []DatasetRow {
	seen := make(map[string]struct{}, len(history))
	for _, rec := range history {
		var p schema.Participant
		if err := json.Unmarshal([]byte(rec.Data), &p); err != nil {
			continue
		}
		if p.NIM != "" {
			seen[p.NIM] = struct{}{}
		}
	}

	out := make([]DatasetRow, 0, len(rows))
	for _, row := range rows {
		marked := make(DatasetRow, len(row)+1)
		for k, v := range row {
			marked[k] = v
		}
		if _, ok := seen[row[key]]; ok {
			marked[AttendanceColumn] = AttendancePresent
		} else {
			marked[AttendanceColumn] = AttendanceAbsent
		}
		out = append(out, marked)
	}
	return out
}
