package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"
)

// SignatureHeader is the header carrying the hex HMAC-SHA512 of the raw request body.
// Paystack uses the same scheme for its event notifications.
const SignatureHeader = "X-Paystack-Signature"

// Sign returns the lower-case hex HMAC-SHA512 of payload keyed by secret.
func Sign(secret string, payload []byte) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	h := hmac.New(sha512.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks signature against the HMAC-SHA512 of the exact payload bytes.
// It fails closed: an empty secret, payload or signature is never valid.
func Verify(secret string, payload []byte, signature string) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("%w: signature is missing", ErrInvalidSignature)
	}

	expected, err := Sign(secret, payload)
	if err != nil {
		return err
	}

	// Gateways are not consistent about hex case.
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}

	return nil
}
