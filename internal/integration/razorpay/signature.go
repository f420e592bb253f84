package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeSignature returns the hex-encoded HMAC-SHA256 of message under
// the shared secret. The gateway signs checkout confirmations over
// "<paymentID>|<subscriptionID>" and webhooks over the raw request body.
func ComputeSignature(message []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the expected digest of
// message. The comparison is constant-time. Webhook callers must pass the
// raw, unparsed body: re-serialized JSON can differ byte-for-byte from
// what the gateway signed.
func VerifySignature(message []byte, signature, secret string) bool {
	expected := ComputeSignature(message, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CheckoutMessage builds the canonical string the gateway signs when a
// client-side checkout completes.
func CheckoutMessage(paymentID, subscriptionID string) []byte {
	return []byte(paymentID + "|" + subscriptionID)
}
