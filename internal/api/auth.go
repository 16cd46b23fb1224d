package api

import (
	"crypto/sha512"
	"encoding/hex"
	"time"
)

const (
	salt       = "Otus"
	adminLogin = "admin"
	adminSalt  = "42"
)

// Authenticator verifies method-call tokens. The clock is injectable because
// admin tokens are only valid within the current hour.
type Authenticator struct {
	now func() time.Time
}

// NewAuthenticator builds an authenticator. A nil clock defaults to the
// system time.
func NewAuthenticator(now func() time.Time) *Authenticator {
	if now == nil {
		now = time.Now
	}
	return &Authenticator{now: now}
}

// Check reports whether the supplied token matches the expected digest for
// the caller. Requests without a login or token never authenticate.
func (a *Authenticator) Check(req *MethodRequest) bool {
	if req.Login == nil || req.Token == nil {
		return false
	}

	var expected string
	if req.IsAdmin() {
		expected = adminDigest(a.now())
	} else {
		account := ""
		if req.Account != nil {
			account = *req.Account
		}
		expected = userDigest(account, *req.Login)
	}
	return *req.Token == expected
}

// adminDigest derives the admin token for the hour containing t.
func adminDigest(t time.Time) string {
	return sha512Hex(t.Format("2006010215") + adminSalt)
}

// userDigest derives the token for a regular account.
func userDigest(account, login string) string {
	return sha512Hex(account + login + salt)
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
