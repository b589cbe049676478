package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// Signature scheme: HMAC-SHA256 over "v0:{timestamp}:{rawBody}", hex
// encoded and prefixed with "v0=". Requests whose timestamp is skewed more
// than MaxSignatureSkew from server time are rejected regardless of
// signature validity, which bounds the replay window.
const (
	signatureVersion = "v0"
	MaxSignatureSkew = 300 * time.Second
)

var (
	ErrMissingSignature = errors.New("missing signature headers")
	ErrStaleTimestamp   = errors.New("request timestamp outside allowed window")
	ErrBadSignature     = errors.New("signature mismatch")
)

// VerifySignature checks a webhook request against the shared signing
// secret. It must run on the raw body bytes before any parsing; unverified
// bytes never reach the dispatcher.
func VerifySignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrStaleTimestamp
	}
	skew := now.Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > MaxSignatureSkew {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

// Sign computes the signature for a body, used by tests and tooling.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}
