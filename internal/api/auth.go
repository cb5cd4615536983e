package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidTokenHash means an auth token hash is not a bcrypt hash.
var ErrInvalidTokenHash = errors.New("invalid auth token hash")

// HashToken returns the bcrypt hash to configure instead of a plaintext token.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: token cannot be empty", ErrInvalidTokenHash)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hashed), nil
}

// ValidateTokenHash checks that hash can be used as Config.AuthTokenHash.
func ValidateTokenHash(hash string) error {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokenHash, err)
	}
	return nil
}

// tokenAuth accepts a plaintext token, a token matching a bcrypt hash, or
// both. Tokens that matched the hash are remembered by digest so bcrypt runs
// once per token.
type tokenAuth struct {
	token    []byte
	hash     []byte
	accepted sync.Map // [sha256.Size]byte -> struct{}
}

func newTokenAuth(token, hash string) *tokenAuth {
	if token == "" && hash == "" {
		return nil
	}
	a := &tokenAuth{}
	if token != "" {
		a.token = []byte(token)
	}
	if hash != "" {
		a.hash = []byte(hash)
	}
	return a
}

func (a *tokenAuth) allow(token string) bool {
	if token == "" {
		return false
	}
	if a.token != nil && subtle.ConstantTimeCompare([]byte(token), a.token) == 1 {
		return true
	}
	if a.hash == nil {
		return false
	}
	sum := sha256.Sum256([]byte(token))
	if _, ok := a.accepted.Load(sum); ok {
		return true
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(token)) != nil {
		return false
	}
	a.accepted.Store(sum, struct{}{})
	return true
}
