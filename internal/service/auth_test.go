package service_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/avetisov/qrvalidator/internal/crypto"
	"github.com/avetisov/qrvalidator/internal/models"
	"github.com/avetisov/qrvalidator/internal/service"
)

func authKey() []byte {
	return []byte("auth-key-32-bytes-exactly-here.!")
}

func issueToken(t *testing.T, codec *crypto.Codec, user models.User) string {
	t.Helper()
	payload, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}
	token, err := codec.Encrypt(payload)
	if err != nil {
		t.Fatalf("encrypt token: %v", err)
	}
	return token
}

func TestAuthenticate_Success(t *testing.T) {
	codec, err := crypto.NewCodec(authKey())
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	want := models.User{ID: 2, Name: "Standard Validator", AuthorizeLevel: models.LevelValidator}
	token := issueToken(t, codec, want)

	svc := service.NewAuthService(codec, []string{token})
	got, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *got != want {
		t.Errorf("user = %+v, want %+v", got, want)
	}
}

func TestAuthenticate_NotInAllowlist(t *testing.T) {
	codec, err := crypto.NewCodec(authKey())
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	// A perfectly valid token that was never issued.
	token := issueToken(t, codec, models.User{ID: 9, Name: "Intruder", AuthorizeLevel: models.LevelAdmin})

	svc := service.NewAuthService(codec, nil)
	if _, err := svc.Authenticate(token); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticate_UndecryptableAllowlistedToken(t *testing.T) {
	codec, err := crypto.NewCodec(authKey())
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	// Allow-listed garbage must still fail: both checks are required.
	svc := service.NewAuthService(codec, []string{"not-a-token"})
	if _, err := svc.Authenticate("not-a-token"); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthenticate_WrongKeyToken(t *testing.T) {
	codec, err := crypto.NewCodec(authKey())
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	other, err := crypto.NewCodec([]byte("some-other-32-byte-long-secret!!"))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	token := issueToken(t, other, models.User{ID: 1, Name: "Admin", AuthorizeLevel: models.LevelAdmin})

	svc := service.NewAuthService(codec, []string{token})
	if _, err := svc.Authenticate(token); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestUserAtLeast(t *testing.T) {
	var anon *models.User
	if anon.AtLeast(models.LevelReadOnly) {
		t.Error("nil user must fail every level check")
	}

	validator := &models.User{AuthorizeLevel: models.LevelValidator}
	if !validator.AtLeast(models.LevelValidator) {
		t.Error("level 1 must pass a level 1 check")
	}
	if validator.AtLeast(models.LevelAdmin) {
		t.Error("level 1 must fail a level 2 check")
	}
}
