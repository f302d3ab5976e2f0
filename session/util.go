package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var SameSite = http.SameSiteNoneMode
var UseDomain = false

// GetPrincipal reads the principal attached to a request context.
func GetPrincipal(ctx context.Context) (*Principal, error) {
	v := ctx.Value(principalKey)
	if v == nil {
		return nil, errors.New("no principal in context")
	}
	p, ok := v.(*Principal)
	if !ok {
		return nil, errors.New("invalid principal type in context")
	}
	return p, nil
}

// Compute HMAC-SHA256 signature of a message using secret
func computeHMAC(message string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// Validate HMAC signature
func validateHMAC(message, sig string, secret []byte) bool {
	expected := computeHMAC(message, secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

// SetSessionCookie serializes the principal, signs it, and sets it as an HTTP cookie
func SetSessionCookie(w http.ResponseWriter, p *Principal, secret []byte) error {
	jsonData, err := json.Marshal(p)
	if err != nil {
		return err
	}
	value := base64.URLEncoding.EncodeToString(jsonData)
	sig := computeHMAC(value, secret)
	cookieValue := fmt.Sprintf("%s|%s", value, sig)
	var expires time.Time
	if p.ExpiresAt > 0 {
		expires = time.Unix(p.ExpiresAt, 0)
	}
	c := &http.Cookie{
		Name:        sessionCookieName,
		Value:       cookieValue,
		Path:        "/",
		Expires:     expires,
		HttpOnly:    false,
		Secure:      true,
		SameSite:    SameSite,
		Partitioned: true,
	}
	if UseDomain {
		c.Domain = p.Domain
	}
	http.SetCookie(w, c)
	return nil
}

// ClearSessionCookie clears the session cookie by setting its expiration to a past date.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: SameSite,
	})
}
