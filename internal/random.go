package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"strings"
)

// Recovery codes are grouped base32-like strings, e.g. "K7QF2-9MX4H".
// The alphabet omits 0/1/O/I to keep codes transcribable.
const (
	recoveryAlphabet   = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	recoveryGroupSize  = 5
	recoveryGroupCount = 2
)

// NewRecoveryCode generates one plaintext recovery code.
func NewRecoveryCode() (string, error) {
	raw := make([]byte, recoveryGroupSize*recoveryGroupCount)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(raw) + recoveryGroupCount - 1)
	for i, v := range raw {
		if i > 0 && i%recoveryGroupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(recoveryAlphabet[int(v)%len(recoveryAlphabet)])
	}
	return b.String(), nil
}

// NormalizeRecoveryCode strips separators and whitespace and upcases the
// submission so user-mangled codes still match.
func NormalizeRecoveryCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToUpper(code) {
		if r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HashRecoveryCode derives the stored hash for a code. The account ID salts
// the digest so identical codes on different accounts never collide in
// storage.
func HashRecoveryCode(accountID, code string) [32]byte {
	normalized := NormalizeRecoveryCode(code)
	return sha256.Sum256([]byte(accountID + ":" + normalized))
}

// LooksLikeTOTP reports whether a second-factor submission should route to
// TOTP validation rather than recovery-code consumption.
func LooksLikeTOTP(submission string) bool {
	trimmed := strings.TrimSpace(submission)
	if len(trimmed) != 6 {
		return false
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NewNonce returns random URL-safe bytes for one-shot identifiers.
func NewNonce(size int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.New("invalid nonce size")
	}
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	return raw, nil
}
