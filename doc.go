// Package zauth provides a session-security engine with JWT access tokens,
// rotating hashed refresh records, exponential-backoff lockout, session-epoch
// mass invalidation, and TOTP-based MFA with single-use recovery codes.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// zauth is the public surface. It exposes [Engine], [Builder], [Config], the
// [AccountProvider] integration interface, and value types (LoginResult,
// MetricsSnapshot, etc.). Credential signing lives in token/, refresh record
// storage in refresh/, password hashing in password/; audit dispatch and
// random-material helpers live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Persist account state itself; every account mutation goes through the
//     caller-supplied [AccountProvider].
//   - Import any sub-package that re-imports zauth (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path. It is purely computational: signature check
// plus claim validation, no provider or Redis round-trip. Login, Refresh, and
// the MFA operations are allowed Redis round-trips.
package zauth
