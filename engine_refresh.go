package zauth

import (
	"context"
	"errors"
	"time"

	"github.com/chukwuma7703/zauth/refresh"
	"github.com/chukwuma7703/zauth/token"
)

// TokenPair is the product of a successful rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Refresh exchanges a refresh credential for a fresh access/refresh pair.
// The presented record is atomically revoked; presenting it again reports
// ErrReplayOrUnknown and revokes every live record for the account.
//
// When the refresh credential fails and deviceToken is non-empty, the
// trusted-device credential mints a brand-new pair instead.
func (e *Engine) Refresh(ctx context.Context, refreshToken, deviceToken string) (*TokenPair, error) {
	if e == nil || e.provider == nil {
		return nil, ErrEngineNotReady
	}

	pair, err := e.rotate(ctx, refreshToken)
	if err == nil {
		return pair, nil
	}
	if errors.Is(err, ErrBackendUnavailable) || deviceToken == "" {
		return nil, err
	}

	return e.deviceFallback(ctx, deviceToken, err)
}

func (e *Engine) rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := e.issuer.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, mapTokenError(err)
	}

	account, err := e.loadActiveAccount(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrReplayOrUnknown
		}
		return nil, err
	}
	if claims.TokenVersion != account.TokenVersion {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrSessionSuperseded
	}

	next, err := e.issuer.Issue(token.KindRefresh, account.AccountID, account.Role.String(), account.TokenVersion)
	if err != nil {
		return nil, wrapBackend(err)
	}

	record := &refresh.Record{
		AccountID: account.AccountID,
		ExpiresAt: time.Now().Add(e.config.Token.RefreshTTL).Unix(),
	}
	err = e.refreshStore.Rotate(ctx, refresh.HashToken(refreshToken), refresh.HashToken(next), record)
	switch {
	case err == nil:
	case errors.Is(err, refresh.ErrRecordRevoked):
		// Replay of a rotated token: assume theft and cut every session.
		e.metricInc(MetricReplayDetected)
		e.emitAudit(ctx, AuditRefreshReplay, account.AccountID, false, ErrReplayOrUnknown, nil)
		if revokeErr := e.refreshStore.RevokeAllForAccount(ctx, account.AccountID); revokeErr != nil {
			return nil, wrapBackend(revokeErr)
		}
		return nil, ErrReplayOrUnknown
	case errors.Is(err, refresh.ErrRecordNotFound), errors.Is(err, refresh.ErrRecordExpired):
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefreshFailure, account.AccountID, false, ErrReplayOrUnknown, nil)
		return nil, ErrReplayOrUnknown
	default:
		return nil, wrapBackend(err)
	}

	access, err := e.issuer.Issue(token.KindAccess, account.AccountID, account.Role.String(), account.TokenVersion)
	if err != nil {
		return nil, wrapBackend(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditRefreshRotated, account.AccountID, true, nil, nil)

	return &TokenPair{AccessToken: access, RefreshToken: next}, nil
}

func (e *Engine) deviceFallback(ctx context.Context, deviceToken string, refreshErr error) (*TokenPair, error) {
	claims, err := e.issuer.Verify(deviceToken, token.KindDevice)
	if err != nil {
		return nil, refreshErr
	}

	account, err := e.loadActiveAccount(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, refreshErr
		}
		return nil, err
	}
	if claims.TokenVersion != account.TokenVersion {
		return nil, ErrSessionSuperseded
	}

	access, next, _, err := e.issueTokenSet(ctx, account, false)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricDeviceFallback)
	e.emitAudit(ctx, AuditDeviceFallback, account.AccountID, true, nil, nil)

	return &TokenPair{AccessToken: access, RefreshToken: next}, nil
}

// Logout revokes the presented refresh credential's record. It is
// idempotent: unknown and already-revoked tokens succeed silently.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || e.refreshStore == nil {
		return ErrEngineNotReady
	}
	if refreshToken == "" {
		return nil
	}

	hash := refresh.HashToken(refreshToken)
	record, err := e.refreshStore.Get(ctx, hash)
	if err != nil {
		if errors.Is(err, refresh.ErrRecordNotFound) || errors.Is(err, refresh.ErrRecordExpired) {
			return nil
		}
		return wrapBackend(err)
	}

	if err := e.refreshStore.Revoke(ctx, hash, record.AccountID); err != nil {
		return wrapBackend(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, record.AccountID, true, nil, nil)
	e.presence.LoggedOut(ctx, record.AccountID)
	return nil
}

// LogoutEverywhere advances the account's token version and revokes every
// refresh record. All outstanding refresh and device credentials stop
// working; access credentials lapse within their TTL.
func (e *Engine) LogoutEverywhere(ctx context.Context, accountID string) error {
	if e == nil || e.provider == nil {
		return ErrEngineNotReady
	}

	if _, err := e.bumpEpoch(ctx, accountID); err != nil {
		return err
	}

	e.metricInc(MetricLogoutAll)
	e.metricInc(MetricEpochBumped)
	e.emitAudit(ctx, AuditLogoutAll, accountID, true, nil, nil)
	e.presence.LoggedOut(ctx, accountID)
	return nil
}

// ActiveSessionCount reports how many live refresh records the account has.
func (e *Engine) ActiveSessionCount(ctx context.Context, accountID string) (int, error) {
	if e == nil || e.refreshStore == nil {
		return 0, ErrEngineNotReady
	}
	count, err := e.refreshStore.ActiveCountForAccount(ctx, accountID)
	if err != nil {
		return 0, wrapBackend(err)
	}
	return count, nil
}
