// Package token issues the verification tokens embedded in attendee QR codes.
package token

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
)

// Length is the fixed size of an encoded token: 20 random bytes (160 bits)
// in unpadded base32.
const Length = 32

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New returns a fresh, unguessable verification token. Tokens are opaque
// and carry no relation to registration IDs.
func New() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return encoding.EncodeToString(buf), nil
}

// Valid reports whether s is syntactically a verification token: exact
// length and base32 alphabet only. It says nothing about whether the token
// exists.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '2' || c > '7') {
			return false
		}
	}
	return true
}
