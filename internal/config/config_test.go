package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validOptions(t *testing.T) *Options {
	t.Helper()
	allowlist := filepath.Join(t.TempDir(), "authorized-users.json")
	if err := os.WriteFile(allowlist, []byte(`["aa:bb:cc"]`), 0o600); err != nil {
		t.Fatalf("write allow-list: %v", err)
	}
	return &Options{
		Addr:          "localhost:3000",
		HistoryFile:   "history.json",
		AllowlistFile: allowlist,
		AuthKey:       strings.Repeat("a", 32),
		PayloadKey:    strings.Repeat("p", 32),
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validOptions(t).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_KeyLengths(t *testing.T) {
	opts := validOptions(t)
	opts.AuthKey = "too short"
	if err := opts.Validate(); err == nil {
		t.Error("expected an error for a short auth key")
	}

	opts = validOptions(t)
	opts.PayloadKey = strings.Repeat("p", 33)
	if err := opts.Validate(); err == nil {
		t.Error("expected an error for an oversized payload key")
	}
}

func TestValidate_MissingAllowlist(t *testing.T) {
	opts := validOptions(t)
	opts.AllowlistFile = filepath.Join(t.TempDir(), "nope.json")
	if err := opts.Validate(); err == nil {
		t.Error("expected an error for a missing allow-list file")
	}
}

func TestLoadAllowlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized-users.json")
	if err := os.WriteFile(path, []byte(`["tok-1","tok-2"]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tokens, err := LoadAllowlist(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "tok-1" || tokens[1] != "tok-2" {
		t.Errorf("unexpected tokens: %v", tokens)
	}
}

func TestLoadAllowlist_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized-users.json")
	if err := os.WriteFile(path, []byte(`{`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadAllowlist(path); err == nil {
		t.Error("expected a parse error")
	}
}
