package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, selector, verifierHash, err := NewSessionToken()
	require.NoError(t, err)

	assert.Equal(t, selector+".", token[:len(selector)+1])
	require.NoError(t, ValidateSessionToken(token, verifierHash))

	got, err := SplitSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, selector, got)
}

func TestSessionTokensAreUnique(t *testing.T) {
	a, _, _, err := NewSessionToken()
	require.NoError(t, err)
	b, _, _, err := NewSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidateSessionTokenRejectsTampering(t *testing.T) {
	token, _, verifierHash, err := NewSessionToken()
	require.NoError(t, err)

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + ".AAAAAAAAAAAAAAAAAAAAAA"
	assert.ErrorIs(t, ValidateSessionToken(tampered, verifierHash), ErrCookieInvalid)
}

func TestSplitSessionTokenMalformed(t *testing.T) {
	_, err := SplitSessionToken("no-dot-in-here")
	assert.ErrorIs(t, err, ErrCookieMalformed)

	_, err = SplitSessionToken("too.many.parts")
	assert.ErrorIs(t, err, ErrCookieMalformed)

	assert.ErrorIs(t, ValidateSessionToken("no-dot-in-here", "abcd"), ErrCookieMalformed)
}
