package zauth

import (
	"context"
	"time"
)

// Audit event names emitted by the engine. Sinks key dashboards and alerts
// off these strings, so they are part of the public surface.
const (
	AuditLoginSuccess        = "login.success"
	AuditLoginFailure        = "login.failure"
	AuditLoginLocked         = "login.locked"
	AuditLoginMFARequired    = "login.mfa_required"
	AuditMFALoginSuccess     = "login.mfa_success"
	AuditMFALoginFailure     = "login.mfa_failure"
	AuditOAuthLogin          = "login.oauth"
	AuditRegister            = "account.register"
	AuditRefreshRotated      = "refresh.rotated"
	AuditRefreshReplay       = "refresh.replay_detected"
	AuditRefreshFailure      = "refresh.failure"
	AuditDeviceFallback      = "refresh.device_fallback"
	AuditLogout              = "logout"
	AuditLogoutAll           = "logout.all"
	AuditPasswordChanged     = "password.changed"
	AuditEpochBumped         = "session.epoch_bumped"
	AuditMFASetupStarted     = "mfa.setup_started"
	AuditMFAEnabled          = "mfa.enabled"
	AuditMFADisabled         = "mfa.disabled"
	AuditRecoveryCodeUsed    = "mfa.recovery_code_used"
	AuditRecoveryRegenerated = "mfa.recovery_codes_regenerated"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType, accountID string,
	success bool,
	opErr error,
	metadata map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	e.audit.Emit(ctx, event)
}
