package zauth

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned for unknown email and wrong password
	// alike. Callers must not distinguish the two cases.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while the exponential-backoff lock window
	// is open. It carries no remaining-time detail.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountInactive is returned when a deactivated account attempts any
	// authenticated operation.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountExists is returned on registration with an email that is
	// already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound is the provider-contract sentinel for a missing
	// account. The engine maps it to ErrInvalidCredentials at the login
	// boundary.
	ErrAccountNotFound = errors.New("account not found")
	// ErrRoleInvalid is returned when a role label maps to no known role.
	ErrRoleInvalid = errors.New("invalid role")
	// ErrTokenInvalid is returned for malformed, mis-signed, or wrong-kind
	// credentials.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for structurally valid credentials whose
	// lifetime has lapsed.
	ErrTokenExpired = errors.New("token expired")
	// ErrSessionSuperseded is returned when a credential's embedded token
	// version trails the account's current version.
	ErrSessionSuperseded = errors.New("session superseded")
	// ErrReplayOrUnknown is returned when a presented refresh token matches
	// no live record. Replayed and never-seen tokens are indistinguishable
	// to the caller.
	ErrReplayOrUnknown = errors.New("refresh token replay or unknown")
	// ErrMFARequired signals that the password was correct and a second
	// factor must be presented to finish the login.
	ErrMFARequired = errors.New("mfa required")
	// ErrMFAChallengeInvalid is returned for a missing, expired, or
	// mis-signed MFA challenge.
	ErrMFAChallengeInvalid = errors.New("mfa challenge invalid")
	// ErrMFACodeInvalid is returned for a wrong TOTP code or an unknown
	// recovery code.
	ErrMFACodeInvalid = errors.New("invalid mfa code")
	// ErrMFANotEnabled is returned for MFA operations on an account without
	// a confirmed second factor.
	ErrMFANotEnabled = errors.New("mfa not enabled")
	// ErrMFAAlreadyEnabled is returned when setup is started on an account
	// that already confirmed a second factor.
	ErrMFAAlreadyEnabled = errors.New("mfa already enabled")
	// ErrMFASetupNotPending is returned when confirmation arrives without a
	// prior setup start.
	ErrMFASetupNotPending = errors.New("mfa setup not pending")
	// ErrMFARateLimited is returned when code-guessing throttling trips.
	ErrMFARateLimited = errors.New("mfa attempts rate limited")
	// ErrPasswordPolicy is returned when a new password fails policy checks.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when the replacement password equals the
	// current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrRegistrationDisabled is returned when self-service registration is
	// switched off.
	ErrRegistrationDisabled = errors.New("registration disabled")
	// ErrBackendUnavailable wraps persistence and store failures. Token
	// issuance paths fail closed on it.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEngineNotReady is returned when an Engine method is called before
	// Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Kind classifies an engine error for boundary layers. It deliberately
// carries less information than the sentinel itself.
type Kind uint8

const (
	// KindInput covers malformed or policy-violating request payloads.
	KindInput Kind = iota
	// KindAuthentication covers failed or missing proof of identity.
	KindAuthentication
	// KindAuthorization covers authenticated but forbidden operations.
	KindAuthorization
	// KindConflict covers duplicate-resource collisions.
	KindConflict
	// KindRateLimited covers throttled and locked-out requests.
	KindRateLimited
	// KindInternal covers backend failures and programming errors.
	KindInternal
)

// KindOf maps an engine error to its Kind. Unrecognized errors classify as
// KindInternal so that boundary layers never leak their detail.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReuse),
		errors.Is(err, ErrRoleInvalid):
		return KindInput
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrSessionSuperseded),
		errors.Is(err, ErrReplayOrUnknown),
		errors.Is(err, ErrMFARequired),
		errors.Is(err, ErrMFAChallengeInvalid),
		errors.Is(err, ErrMFACodeInvalid):
		return KindAuthentication
	case errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrRegistrationDisabled):
		return KindAuthorization
	case errors.Is(err, ErrAccountExists),
		errors.Is(err, ErrMFAAlreadyEnabled),
		errors.Is(err, ErrMFASetupNotPending),
		errors.Is(err, ErrMFANotEnabled):
		return KindConflict
	case errors.Is(err, ErrAccountLocked),
		errors.Is(err, ErrMFARateLimited):
		return KindRateLimited
	default:
		return KindInternal
	}
}

// HTTPStatus maps a Kind to the status code the cookie-speaking boundary
// uses.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInput:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
