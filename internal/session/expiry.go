package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessExpiresSoon reports whether the access credential expires within
// leeway. The claims are read unverified: the client has no signing key and
// only needs the exp claim to decide whether a proactive refresh is worth it.
// Unparsable tokens report false; the 401 path handles them.
func AccessExpiresSoon(accessToken string, leeway time.Duration) bool {
	if accessToken == "" {
		return false
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(accessToken, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}

	return time.Until(claims.ExpiresAt.Time) < leeway
}
