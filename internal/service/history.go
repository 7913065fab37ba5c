package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avetisov/qrvalidator/internal/models"
)

// ErrDuplicate is returned when a submitted payload already exists in
// the history.
var ErrDuplicate = errors.New("payload already recorded")

// HistoryRepository defines the persistence operations needed by the
// HistoryService.
type HistoryRepository interface {
	// Load reads the full persisted history. A missing or corrupt backing
	// file yields an empty history together with the read error.
	Load() ([]models.ScanRecord, error)
	// Save rewrites the full history wholesale.
	Save(records []models.ScanRecord) error
}

// HistoryService owns the in-memory scan history. All mutations are
// serialized through its mutex, which preserves the dedup invariant
// (no two records share a payload) and newest-first insertion order.
// It persists through the repository on every mutation; a persistence
// failure is logged and the in-memory state stays authoritative.
type HistoryService struct {
	mu      sync.Mutex
	records []models.ScanRecord
	repo    HistoryRepository
	log     *zap.Logger

	// now is the clock used for ids and timestamps, swappable in tests.
	now func() time.Time
}

// NewHistoryService constructs a HistoryService seeded from the repository.
// A load failure is logged and the service starts with an empty history;
// it is never fatal.
func NewHistoryService(repo HistoryRepository, log *zap.Logger) *HistoryService {
	records, err := repo.Load()
	if err != nil {
		log.Warn("starting with empty history", zap.Error(err))
	}
	return &HistoryService{
		records: records,
		repo:    repo,
		log:     log,
		now:     time.Now,
	}
}

// Submit records a new validation decision at the head of the history.
// The payload is compared byte-for-byte against every stored record; the
// caller is expected to pass the exact serialized form it wants deduped
// (the post-validation serialization, not a re-normalized one). On success
// it returns the new record and the post-mutation snapshot; a duplicate
// payload returns ErrDuplicate and leaves the history untouched.
func (s *HistoryService) Submit(payload, validatorName string, status models.ScanStatus) (*models.ScanRecord, []models.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].Data == payload {
			return nil, nil, ErrDuplicate
		}
	}

	record := models.ScanRecord{
		ID:            s.newID(),
		Data:          payload,
		ValidatorName: validatorName,
		ValidatedAt:   s.now().UTC().Format(time.RFC3339),
		Status:        status,
	}
	s.records = append([]models.ScanRecord{record}, s.records...)
	s.persist()
	return &record, s.snapshotLocked(), nil
}

// Remove deletes the record with the given id. It reports whether a record
// was actually removed; a missing id is a no-op, not an error. The backing
// file is only rewritten when something changed.
func (s *HistoryService) Remove(id string) ([]models.ScanRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			s.persist()
			return s.snapshotLocked(), true
		}
	}
	return nil, false
}

// Snapshot returns a copy of the current history, newest first.
func (s *HistoryService) Snapshot() []models.ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *HistoryService) snapshotLocked() []models.ScanRecord {
	out := make([]models.ScanRecord, len(s.records))
	copy(out, s.records)
	return out
}

// persist writes the current history through the repository. On failure the
// in-memory mutation is kept; the next successful save rewrites the whole
// file and reconciles it.
func (s *HistoryService) persist() {
	if err := s.repo.Save(s.records); err != nil {
		s.log.Error("failed to persist history", zap.Error(err))
	}
}

// newID produces a time-based id in the original scan_<millis> form.
// Two submissions inside the same millisecond get a uuid suffix so ids
// stay unique without a global counter.
func (s *HistoryService) newID() string {
	id := fmt.Sprintf("scan_%d", s.now().UnixMilli())
	for i := range s.records {
		if s.records[i].ID == id {
			return id + "_" + uuid.NewString()[:8]
		}
	}
	return id
}
