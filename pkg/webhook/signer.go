package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// HMACSigner signs payloads with timestamped HMAC-SHA256.
//
// The signature header format is:
//
//	X-Funnel-Signature: t={timestamp},v1={signature}
//
// where signature = HMAC-SHA256(secret, "{timestamp}.{payload}").
type HMACSigner struct{}

// NewHMACSigner creates a signer.
func NewHMACSigner() *HMACSigner {
	return &HMACSigner{}
}

// Sign produces the X-Funnel-Signature header value. Implements Signer.
func (s *HMACSigner) Sign(payload []byte, secret string) map[string]string {
	return s.SignWithTimestamp(payload, secret, time.Now().Unix())
}

// SignWithTimestamp produces the signature header with a fixed timestamp.
// Useful for testing.
func (s *HMACSigner) SignWithTimestamp(payload []byte, secret string, timestamp int64) map[string]string {
	sig := ComputeSignature(timestamp, payload, secret)
	return map[string]string{
		"X-Funnel-Signature": fmt.Sprintf("t=%d,v1=%s", timestamp, sig),
	}
}

// ComputeSignature computes the HMAC-SHA256 signature over
// "{timestamp}.{payload}". Receivers verify deliveries with the same call.
func ComputeSignature(timestamp int64, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
