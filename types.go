package zauth

import (
	"context"
	"io"

	internalaudit "github.com/chukwuma7703/zauth/internal/audit"
	"github.com/chukwuma7703/zauth/token"
)

// Role is the closed set of account roles. Claims carry the string form;
// anything outside the set is rejected at the boundary.
type Role string

const (
	// RoleGlobalAdmin administers every school in the deployment.
	RoleGlobalAdmin Role = "global_admin"
	// RoleSchoolAdmin administers a single school.
	RoleSchoolAdmin Role = "school_admin"
	// RolePrincipal is an exported constant used by role checks.
	RolePrincipal Role = "principal"
	// RoleTeacher is an exported constant used by role checks.
	RoleTeacher Role = "teacher"
	// RoleParent is an exported constant used by role checks.
	RoleParent Role = "parent"
	// RoleStudent is an exported constant used by role checks.
	RoleStudent Role = "student"
)

// legacy labels written by earlier deployments, mapped once at the parse
// boundary.
var legacyRoleLabels = map[string]Role{
	"GLOBAL_SUPER_ADMIN": RoleGlobalAdmin,
	"MAIN_SUPER_ADMIN":   RoleSchoolAdmin,
	"PRINCIPAL":          RolePrincipal,
	"TEACHER":            RoleTeacher,
	"PARENT":             RoleParent,
	"STUDENT":            RoleStudent,
}

// ParseRole maps a stored or submitted role label to a Role. Current labels
// and legacy uppercase labels are accepted; everything else returns
// ErrRoleInvalid.
func ParseRole(label string) (Role, error) {
	switch Role(label) {
	case RoleGlobalAdmin, RoleSchoolAdmin, RolePrincipal, RoleTeacher, RoleParent, RoleStudent:
		return Role(label), nil
	}
	if mapped, ok := legacyRoleLabels[label]; ok {
		return mapped, nil
	}
	return "", ErrRoleInvalid
}

// String returns the wire form of the role.
func (r Role) String() string { return string(r) }

// Account is the full account record exchanged with the [AccountProvider].
// It carries the hidden security fields that default queries must omit.
type Account struct {
	AccountID    string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Active       bool

	TokenVersion uint32

	LoginAttempts int
	LockUntil     int64
	LockoutCount  int

	MFAEnabled bool
	MFAPending bool
	MFASecret  string
}

// LockoutState is the persisted slice of an account's failed-login history.
type LockoutState struct {
	LoginAttempts int
	LockUntil     int64
	LockoutCount  int
}

// RecoveryCodeRecord stores the salted SHA-256 hash of a single recovery
// code. The plaintext is never persisted.
type RecoveryCodeRecord struct {
	Hash [32]byte
}

// CreateAccountInput is the input for [AccountProvider.Create].
type CreateAccountInput struct {
	Email        string
	Name         string
	PasswordHash string
	Role         Role
}

// AccountProvider is the primary interface that callers implement to
// integrate the engine with their account database. It covers credential
// lookup, account creation, lockout persistence, token-version bumps, and
// the MFA secret and recovery-code lifecycle.
//
// ConsumeRecoveryCode must remove the matching hash and report whether it
// was present as one atomic step; under concurrent submission of the same
// code exactly one caller may observe true. BumpTokenVersion must be atomic
// for the same reason.
type AccountProvider interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, accountID string) (*Account, error)
	Create(ctx context.Context, input CreateAccountInput) (*Account, error)
	UpdatePasswordHash(ctx context.Context, accountID, newHash string) error
	UpdateLockoutState(ctx context.Context, accountID string, state LockoutState) error
	BumpTokenVersion(ctx context.Context, accountID string) (uint32, error)
	SetMFAPending(ctx context.Context, accountID, secret string) error
	EnableMFA(ctx context.Context, accountID string) error
	DisableMFA(ctx context.Context, accountID string) error
	ReplaceRecoveryCodes(ctx context.Context, accountID string, codes []RecoveryCodeRecord) error
	ConsumeRecoveryCode(ctx context.Context, accountID string, hash [32]byte) (bool, error)
}

// PresenceNotifier receives login and logout transitions so the host can
// broadcast online status. Implementations must not block; the engine calls
// them on the request path after the security decision is already made.
type PresenceNotifier interface {
	LoggedIn(ctx context.Context, accountID string)
	LoggedOut(ctx context.Context, accountID string)
}

// NoOpPresence discards presence transitions.
type NoOpPresence struct{}

// LoggedIn implements [PresenceNotifier].
func (NoOpPresence) LoggedIn(context.Context, string) {}

// LoggedOut implements [PresenceNotifier].
func (NoOpPresence) LoggedOut(context.Context, string) {}

// TokenIssuer signs and verifies credentials. Production uses
// [token.Manager]; tests inject stubs. The engine never probes which
// implementation it holds.
type TokenIssuer interface {
	Issue(kind token.Kind, accountID, role string, tokenVersion uint32) (string, error)
	Verify(tokenStr string, kind token.Kind) (*token.Claims, error)
}

// Principal is the minimal identity attached to a verified access
// credential.
type Principal struct {
	AccountID    string
	Role         Role
	TokenVersion uint32
}

// LoginResult is returned by [Engine.Login] and [Engine.ConfirmMFALogin].
// When MFARequired is set only MFAChallenge is populated; otherwise the
// three credentials are present.
type LoginResult struct {
	AccountID    string
	Role         Role
	AccessToken  string
	RefreshToken string
	DeviceToken  string

	MFARequired  bool
	MFAChallenge string
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Email    string
	Name     string
	Password string
	Role     Role
}

// RegisterResult is returned by [Engine.Register]. Tokens are present only
// when auto-login is enabled.
type RegisterResult struct {
	AccountID    string
	Role         Role
	AccessToken  string
	RefreshToken string
	DeviceToken  string
}

// MFASetup holds the base32 secret and otpauth:// URI returned by
// [Engine.StartMFASetup].
type MFASetup struct {
	SecretBase32 string
	URI          string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit
// dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
