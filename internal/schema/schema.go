// Package schema validates decrypted scan payloads against the expected
// participant shape before they are offered for validation.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidJSON is returned when the payload is not a JSON object.
var ErrInvalidJSON = errors.New("invalid JSON format")

// Participant is the structured value carried inside a scan payload.
type Participant struct {
	// NIM is the 8-character student identifier.
	NIM string `json:"nim"`
	// Nama is the participant name, 1 to 25 characters.
	Nama string `json:"nama"`
}

// Validate parses decrypted payload text and checks it against the
// participant schema. The returned error message is safe to show to the
// submitting client.
func Validate(decrypted string) (*Participant, error) {
	var p Participant
	if err := json.Unmarshal([]byte(decrypted), &p); err != nil {
		return nil, ErrInvalidJSON
	}
	if utf8.RuneCountInString(p.NIM) != 8 {
		return nil, fmt.Errorf("nim: must be exactly 8 characters")
	}
	if n := utf8.RuneCountInString(p.Nama); n < 1 || n > 25 {
		return nil, fmt.Errorf("nama: must be between 1 and 25 characters")
	}
	return &p, nil
}
