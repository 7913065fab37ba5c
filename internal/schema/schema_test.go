package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_OK(t *testing.T) {
	p, err := Validate(`{"nim":"23100002","nama":"Budi"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NIM != "23100002" || p.Nama != "Budi" {
		t.Errorf("unexpected participant: %+v", p)
	}
}

func TestValidate_CountsRunesNotBytes(t *testing.T) {
	// Multibyte identifiers are 8 runes but more than 8 bytes, and
	// accented names routinely exceed 25 bytes within 25 characters.
	nim := "231000а9" // Cyrillic а, 8 runes / 9 bytes
	nama := strings.Repeat("é", 25)
	p, err := Validate(`{"nim":"` + nim + `","nama":"` + nama + `"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NIM != nim || p.Nama != nama {
		t.Errorf("unexpected participant: %+v", p)
	}
}

func TestValidate_InvalidJSON(t *testing.T) {
	for _, in := range []string{"", "not json", "[1,2,3"} {
		_, err := Validate(in)
		if !errors.Is(err, ErrInvalidJSON) {
			t.Errorf("Validate(%q) error = %v, want ErrInvalidJSON", in, err)
		}
	}
}

func TestValidate_FieldConstraints(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"nim too short", `{"nim":"1234567","nama":"Budi"}`},
		{"nim too long", `{"nim":"123456789","nama":"Budi"}`},
		{"nim missing", `{"nama":"Budi"}`},
		{"nama empty", `{"nim":"23100002","nama":""}`},
		{"nama too long", `{"nim":"23100002","nama":"` + strings.Repeat("x", 26) + `"}`},
		{"nama 26 runes multibyte", `{"nim":"23100002","nama":"` + strings.Repeat("é", 26) + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Validate(tc.in); err == nil {
				t.Errorf("expected validation failure")
			}
		})
	}
}
