package gateway

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/medisur/hmis-go/internal/util"
)

var (
	ErrCookieMalformed = errors.New("session cookie malformed")
	ErrCookieInvalid   = errors.New("session cookie invalid")
)

// NewSessionToken mints the opaque cookie value in selector.verifier form.
// Only the sha256 hash of the verifier is stored, so a leaked session table
// cannot be replayed as cookies.
func NewSessionToken() (token, selector, verifierHash string, err error) {
	rawToken := make([]byte, util.RawTokenLength)
	if _, err = rand.Read(rawToken); err != nil {
		return "", "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	selector = base64.RawURLEncoding.EncodeToString(rawToken[:16])
	verifier := base64.RawURLEncoding.EncodeToString(rawToken[16:])

	hashedVerifierBytes := sha256.Sum256([]byte(verifier))
	verifierHash = hex.EncodeToString(hashedVerifierBytes[:])

	token = selector + "." + verifier

	return token, selector, verifierHash, nil
}

// SplitSessionToken extracts the selector used to look the session row up.
func SplitSessionToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != util.TokenPartsExpected {
		return "", ErrCookieMalformed
	}
	return parts[0], nil
}

// ValidateSessionToken compares the cookie verifier against the stored hash
// in constant time.
func ValidateSessionToken(token, verifierHash string) error {
	parts := strings.Split(token, ".")
	if len(parts) != util.TokenPartsExpected {
		return ErrCookieMalformed
	}

	verifier := parts[1]

	hashedVerifierBytes, err := hex.DecodeString(verifierHash)
	if err != nil {
		return fmt.Errorf("failed to decode stored hash: %w", err)
	}

	newHashBytes := sha256.Sum256([]byte(verifier))

	if subtle.ConstantTimeCompare(newHashBytes[:], hashedVerifierBytes) != 1 {
		return ErrCookieInvalid
	}

	return nil
}
