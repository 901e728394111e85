// Package qrcode maps verification tokens to and from scannable payloads.
// The codec is pure: it touches no store and keeps no state beyond its
// optional signing key.
package qrcode

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/Jenil-Kakadiya/ScanNGo/internal/token"
	qr "github.com/skip2/go-qrcode"
)

// ErrMalformedPayload is returned when a scanned payload is not a
// syntactically valid token, or its signature does not verify.
var ErrMalformedPayload = errors.New("malformed payload")

const signaturePrefix = "sig:"

// Codec renders tokens into QR payloads and back. When constructed with a
// non-empty signing key, payloads carry an HMAC-SHA256 signature so that a
// fabricated token fails before any store lookup.
type Codec struct {
	signingKey []byte
}

// NewCodec returns a codec. Pass an empty key to disable payload signing.
func NewCodec(signingKey string) *Codec {
	c := &Codec{}
	if signingKey != "" {
		c.signingKey = []byte(signingKey)
	}
	return c
}

// EncodePayload returns the scannable string content for a token.
func (c *Codec) EncodePayload(t string) string {
	if c.signingKey == nil {
		return t
	}
	return t + ";" + signaturePrefix + c.sign(t)
}

// EncodePNG renders the token's payload as a 256x256 QR code image.
func (c *Codec) EncodePNG(t string) ([]byte, error) {
	return qr.Encode(c.EncodePayload(t), qr.Medium, 256)
}

// DecodePayload is the inverse of EncodePayload. It validates token syntax
// (fixed length, base32 alphabet) and, when signing is enabled, the HMAC.
func (c *Codec) DecodePayload(payload string) (string, error) {
	if c.signingKey == nil {
		if !token.Valid(payload) {
			return "", ErrMalformedPayload
		}
		return payload, nil
	}

	parts := strings.Split(payload, ";")
	if len(parts) != 2 || !strings.HasPrefix(parts[1], signaturePrefix) {
		return "", ErrMalformedPayload
	}
	t := parts[0]
	if !token.Valid(t) {
		return "", ErrMalformedPayload
	}
	signature := strings.TrimPrefix(parts[1], signaturePrefix)
	if !hmac.Equal([]byte(c.sign(t)), []byte(signature)) {
		return "", ErrMalformedPayload
	}
	return t, nil
}

func (c *Codec) sign(t string) string {
	h := hmac.New(sha256.New, c.signingKey)
	h.Write([]byte(t))
	return hex.EncodeToString(h.Sum(nil))
}
