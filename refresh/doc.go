// Package refresh persists hashed refresh-token records and implements the
// atomic rotation protocol that makes replay of a rotated token detectable.
//
// # Storage model
//
// Tokens are never stored in plaintext. Each record is keyed by the SHA-256
// of the presented token and carries only the owning account ID, the expiry,
// and a revoked flag. A per-account index set supports counting and mass
// revocation.
//
// # Rotation
//
// Rotate runs as a single Lua script: it re-reads the presented record,
// rejects revoked or expired records, marks the record revoked, and inserts
// the replacement. Under concurrent rotation of the same token exactly one
// caller succeeds; every other caller observes the revoked flag.
//
// # Architecture boundaries
//
// This package owns persistence and atomicity only. What to do when replay
// is detected (mass revocation, auditing) is Engine policy.
package refresh
