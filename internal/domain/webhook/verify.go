package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Verify checks a webhook signature: HMAC-SHA256 over the raw request body,
// base64-encoded, compared in constant time against the signature header.
// It returns false, never an error, on a missing header or secret.
//
// The hash MUST be computed over the exact raw bytes as transmitted.
// Re-serializing parsed JSON changes key order and whitespace and silently
// breaks verification even when the payload is semantically identical.
func Verify(rawBody []byte, signatureHeader, secret string) bool {
	if signatureHeader == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// Sign computes the base64 HMAC-SHA256 signature for a body. Used by tests
// and by outbound calls to platforms that expect the same scheme.
func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
