// Package models defines the core data structures for scan records and users.
package models

// ScanStatus is the decision recorded for a scanned payload.
type ScanStatus string

const (
	// StatusValid marks a payload accepted by the validator.
	StatusValid ScanStatus = "Valid"
	// StatusNotValid marks a payload rejected by the validator.
	StatusNotValid ScanStatus = "Not Valid"
)

// Known returns true if s is one of the defined statuses.
func (s ScanStatus) Known() bool {
	return s == StatusValid || s == StatusNotValid
}

// ScanRecord is one accept/reject decision in the shared history.
// Records are created by validation submissions and removed by admin
// deletions; they are never mutated in place.
type ScanRecord struct {
	// ID is the unique identifier of the record.
	ID string `json:"id"`
	// Data is the opaque payload string the decision applies to.
	// It is unique across the history.
	Data string `json:"data"`
	// ValidatorName is the display name of the submitting validator.
	ValidatorName string `json:"validatorName"`
	// ValidatedAt is the submission time in RFC 3339 form.
	ValidatedAt string `json:"validatedAt"`
	// Status is the recorded decision.
	Status ScanStatus `json:"status"`
}

// Authorization levels carried inside user tokens.
const (
	// LevelReadOnly may only receive history broadcasts.
	LevelReadOnly = 0
	// LevelValidator may additionally submit validations.
	LevelValidator = 1
	// LevelAdmin may additionally delete history entries.
	LevelAdmin = 2
)

// User is the identity embedded in an encrypted auth token.
type User struct {
	// ID is the numeric user identifier.
	ID int `json:"id"`
	// Name is the display name shown next to validations.
	Name string `json:"name"`
	// AuthorizeLevel is 0 (read-only), 1 (validator) or 2 (admin).
	AuthorizeLevel int `json:"authorizeLevel"`
}

// AtLeast reports whether the user holds the given level or higher.
func (u *User) AtLeast(level int) bool {
	return u != nil && u.AuthorizeLevel >= level
}
