package internal

import (
	"strings"
	"testing"
)

func TestNewRecoveryCodeShape(t *testing.T) {
	code, err := NewRecoveryCode()
	if err != nil {
		t.Fatalf("NewRecoveryCode failed: %v", err)
	}

	groups := strings.Split(code, "-")
	if len(groups) != recoveryGroupCount {
		t.Fatalf("expected %d groups, got %q", recoveryGroupCount, code)
	}
	for _, g := range groups {
		if len(g) != recoveryGroupSize {
			t.Fatalf("expected %d-char groups, got %q", recoveryGroupSize, code)
		}
		for _, r := range g {
			if !strings.ContainsRune(recoveryAlphabet, r) {
				t.Fatalf("character %q outside the alphabet in %q", r, code)
			}
		}
	}
}

func TestNormalizeRecoveryCode(t *testing.T) {
	cases := map[string]string{
		"K7QF2-9MX4H":   "K7QF29MX4H",
		"k7qf2-9mx4h":   "K7QF29MX4H",
		" k7qf2 9mx4h ": "K7QF29MX4H",
		"K7QF29MX4H":    "K7QF29MX4H",
	}
	for in, want := range cases {
		if got := NormalizeRecoveryCode(in); got != want {
			t.Fatalf("NormalizeRecoveryCode(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestHashRecoveryCodeSaltedByAccount(t *testing.T) {
	a := HashRecoveryCode("acct-1", "K7QF2-9MX4H")
	b := HashRecoveryCode("acct-2", "K7QF2-9MX4H")
	if a == b {
		t.Fatal("same code on different accounts must hash differently")
	}

	mangled := HashRecoveryCode("acct-1", " k7qf2 9mx4h ")
	if a != mangled {
		t.Fatal("hash must be insensitive to user mangling")
	}
}

func TestLooksLikeTOTP(t *testing.T) {
	positives := []string{"123456", "000000", " 123456 "}
	for _, s := range positives {
		if !LooksLikeTOTP(s) {
			t.Fatalf("%q should route to totp", s)
		}
	}
	negatives := []string{"", "12345", "1234567", "12345a", "K7QF2-9MX4H", "K7QF29"}
	for _, s := range negatives {
		if LooksLikeTOTP(s) {
			t.Fatalf("%q should not route to totp", s)
		}
	}
}

func TestNewNonce(t *testing.T) {
	if _, err := NewNonce(0); err == nil {
		t.Fatal("zero size should be rejected")
	}
	a, err := NewNonce(16)
	if err != nil {
		t.Fatalf("NewNonce failed: %v", err)
	}
	b, err := NewNonce(16)
	if err != nil {
		t.Fatalf("NewNonce failed: %v", err)
	}
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("expected 16 bytes, got %d and %d", len(a), len(b))
	}
	if string(a) == string(b) {
		t.Fatal("nonces should not repeat")
	}
}
