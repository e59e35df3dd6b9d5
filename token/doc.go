// Package token issues and verifies the signed credentials used across the
// engine: short-lived access tokens, rotating refresh tokens, long-lived
// trusted-device tokens, and transient MFA challenges. Verification is strict
// and kind-aware so a credential minted for one purpose never passes as
// another.
package token
