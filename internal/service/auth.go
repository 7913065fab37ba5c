// Package service provides business-logic services for authentication,
// history management and dataset access, delegating persistence to
// repository interfaces.
package service

import (
	"encoding/json"
	"errors"

	"github.com/avetisov/qrvalidator/internal/crypto"
	"github.com/avetisov/qrvalidator/internal/models"
)

// ErrInvalidToken is returned for every failed authentication attempt.
// Unknown, undecryptable and unparsable tokens are indistinguishable.
var ErrInvalidToken = errors.New("invalid token")

// AuthService authenticates clients by encrypted capability token.
// A token authenticates iff it is a member of the static allow-list of
// issued tokens and decrypts to a user payload under the auth key.
type AuthService struct {
	codec   *crypto.Codec
	allowed map[string]struct{}
}

// NewAuthService constructs an AuthService from the auth-token codec and
// the allow-list of issued tokens loaded at startup.
func NewAuthService(codec *crypto.Codec, allowlist []string) *AuthService {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, token := range allowlist {
		allowed[token] = struct{}{}
	}
	return &AuthService{codec: codec, allowed: allowed}
}

// Authenticate resolves a token to the user it was issued for.
// Membership in the allow-list is checked before any decryption work.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	if _, ok := s.allowed[token]; !ok {
		return nil, ErrInvalidToken
	}

	plaintext, err := s.codec.Decrypt(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var user models.User
	if err := json.Unmarshal(plaintext, &user); err != nil {
		return nil, ErrInvalidToken
	}
	return &user, nil
}
