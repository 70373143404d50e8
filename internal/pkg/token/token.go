package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

const bearerScheme = "Bearer "

// Generate returns a fresh owner token: 256 bits from crypto/rand encoded
// base64url without padding.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Digest computes the keyed digest stored alongside a card in place of the
// plaintext token. Deterministic for a given (token, secret) pair.
func Digest(token, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret is required for token digest")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the digest for a presented token and compares in
// constant time.
func Verify(token, storedDigest, secret string) bool {
	if token == "" || storedDigest == "" {
		return false
	}
	computed, err := Digest(token, secret)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(computed), []byte(storedDigest))
}

// ExtractBearer pulls the token out of an Authorization header value. Only
// the exact "Bearer " scheme is accepted; the remainder is trimmed. The
// second return is false when no bearer token is present at all.
func ExtractBearer(headerValue string) (string, bool) {
	if !strings.HasPrefix(headerValue, bearerScheme) {
		return "", false
	}
	return strings.TrimSpace(headerValue[len(bearerScheme):]), true
}
