package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/desterroshop/whatsapp-gateway/pkg/log"
)

const SignatureHeader = "X-Webhook-Signature"

// SignatureInvalidError reports a failed HMAC check on an inbound webhook.
type SignatureInvalidError struct {
	Reason string
}

func (e *SignatureInvalidError) Error() string {
	return "invalid webhook signature: " + e.Reason
}

// Verifier checks inbound webhook authenticity with HMAC-SHA256 over the
// raw, un-parsed request body.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Sign computes the hex HMAC-SHA256 of the payload under the secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature header against the raw body. With no secret
// configured, verification is skipped and a warning is logged: that is an
// explicit insecure fallback, callers needing strict security must set
// WEBHOOK_SECRET. With a secret configured, a missing header fails closed.
func (v *Verifier) Verify(rawBody []byte, signatureHeader string) error {
	if v.secret == "" {
		log.Webhook("").Warn("WEBHOOK_SECRET not configured, skipping HMAC verification")
		return nil
	}

	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" {
		return &SignatureInvalidError{Reason: "signature header missing"}
	}
	// Accept the GitHub-style "sha256=" prefix some senders use.
	signatureHeader = strings.TrimPrefix(signatureHeader, "sha256=")

	expected := Sign(rawBody, v.secret)
	if !hmac.Equal([]byte(expected), []byte(signatureHeader)) {
		return &SignatureInvalidError{Reason: "signature mismatch"}
	}
	return nil
}
