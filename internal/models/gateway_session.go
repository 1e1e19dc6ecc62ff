package models

import "time"

// GatewaySession is a server-held session of the cookie-based auth variant.
// The browser only ever sees the opaque selector.verifier cookie token; the
// backend access/refresh pair never leaves the gateway.
type GatewaySession struct {
	ID           int64     `json:"id"`
	Selector     string    `json:"selector"`
	VerifierHash string    `json:"verifier_hash"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TenantID     string    `json:"tenant_id"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}
