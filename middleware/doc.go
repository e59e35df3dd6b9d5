// Package middleware exposes net/http adapters for bearer-token enforcement
// and the credential cookie contract built on top of zauth.Engine.
//
// # Guards
//
//   - [Guard] — verifies the Authorization bearer token and injects the
//     principal into the request context.
//   - [RequireRole] — Guard plus an allow-list on the principal's role.
//
// # Cookies
//
// Refresh and trusted-device credentials travel as HTTP-only cookies named
// refreshToken and deviceToken, path "/", with maxAge matched to each
// credential's TTL. [CookiePolicy] controls Secure, SameSite, and Domain.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself: all decisions are delegated to
// Engine.Authenticate.
package middleware
