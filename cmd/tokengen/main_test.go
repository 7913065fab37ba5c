package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avetisov/qrvalidator/internal/crypto"
	"github.com/avetisov/qrvalidator/internal/models"
)

func TestTokengen_IssuesDecryptableTokens(t *testing.T) {
	key := strings.Repeat("k", 32)

	usersFile := filepath.Join(t.TempDir(), "users.json")
	users := `[{"id":1,"name":"Super Admin","authorizeLevel":2},{"id":3,"name":"Read-Only User","authorizeLevel":0}]`
	if err := os.WriteFile(usersFile, []byte(users), 0o600); err != nil {
		t.Fatalf("write users: %v", err)
	}

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--users", usersFile, "--key", key})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// The printed allow-list must decrypt back to the input users.
	output := out.String()
	idx := strings.Index(output, "--- allow-list JSON ---")
	if idx < 0 {
		t.Fatalf("missing allow-list section in output:\n%s", output)
	}
	var tokens []string
	if err := json.Unmarshal([]byte(output[idx+len("--- allow-list JSON ---"):]), &tokens); err != nil {
		t.Fatalf("parse allow-list: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("tokens = %d, want 2", len(tokens))
	}

	codec, err := crypto.NewCodec([]byte(key))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	plain, err := codec.Decrypt(tokens[0])
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	var user models.User
	if err := json.Unmarshal(plain, &user); err != nil {
		t.Fatalf("parse user: %v", err)
	}
	if user.Name != "Super Admin" || user.AuthorizeLevel != models.LevelAdmin {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestTokengen_RejectsBadKey(t *testing.T) {
	usersFile := filepath.Join(t.TempDir(), "users.json")
	if err := os.WriteFile(usersFile, []byte(`[]`), 0o600); err != nil {
		t.Fatalf("write users: %v", err)
	}

	cmd := newRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--users", usersFile, "--key", "short"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for a short key")
	}
}
