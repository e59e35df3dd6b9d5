// Package internal contains helper utilities that are intentionally private to zauth,
// including secure random generation and recovery-code hashing helpers.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//
// # What this package must NOT do
//
//   - Export types that appear in the public zauth API.
//   - Be imported by any package outside the zauth module.
package internal
