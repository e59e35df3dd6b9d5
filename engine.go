package zauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chukwuma7703/zauth/password"
	"github.com/chukwuma7703/zauth/refresh"
	"github.com/chukwuma7703/zauth/token"
)

// Engine defines a public type used by zauth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	provider     AccountProvider
	issuer       TokenIssuer
	refreshStore *refresh.Store
	mfaLimiter   *mfaLimiter
	totp         *totpManager
	passwordHash *password.Argon2
	presence     PresenceNotifier
	audit        *auditDispatcher
	metrics      *Metrics

	// dummyHash equalizes verify cost for unknown emails.
	dummyHash string
}

// Close flushes the audit dispatcher. The Engine is unusable afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure since the engine started.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters and
// histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authenticate verifies an access credential and returns the minimal
// principal for downstream authorization. It is stateless: no provider or
// store round-trip happens here, which is why access lifetimes are short.
func (e *Engine) Authenticate(accessToken string) (*Principal, error) {
	if e == nil || e.issuer == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	claims, err := e.issuer.Verify(accessToken, token.KindAccess)
	if e.metrics != nil {
		e.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	if err != nil {
		return nil, mapTokenError(err)
	}

	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &Principal{
		AccountID:    claims.AccountID,
		Role:         role,
		TokenVersion: claims.TokenVersion,
	}, nil
}

// issueTokenSet mints the access/refresh pair plus optionally a device
// credential, and records the refresh token's hash. Any persistence failure
// fails closed: no tokens are returned.
func (e *Engine) issueTokenSet(
	ctx context.Context,
	account *Account,
	includeDevice bool,
) (access, refreshToken, device string, err error) {
	access, err = e.issuer.Issue(token.KindAccess, account.AccountID, account.Role.String(), account.TokenVersion)
	if err != nil {
		return "", "", "", wrapBackend(err)
	}

	refreshToken, err = e.issuer.Issue(token.KindRefresh, account.AccountID, account.Role.String(), account.TokenVersion)
	if err != nil {
		return "", "", "", wrapBackend(err)
	}

	record := &refresh.Record{
		AccountID: account.AccountID,
		ExpiresAt: time.Now().Add(e.config.Token.RefreshTTL).Unix(),
	}
	if err = e.refreshStore.Save(ctx, refresh.HashToken(refreshToken), record); err != nil {
		return "", "", "", wrapBackend(err)
	}

	if includeDevice {
		device, err = e.issuer.Issue(token.KindDevice, account.AccountID, account.Role.String(), account.TokenVersion)
		if err != nil {
			return "", "", "", wrapBackend(err)
		}
	}

	return access, refreshToken, device, nil
}

// bumpEpoch advances the account's token version and revokes every stored
// refresh record. Credentials minted before the bump stop rotating.
func (e *Engine) bumpEpoch(ctx context.Context, accountID string) (uint32, error) {
	version, err := e.provider.BumpTokenVersion(ctx, accountID)
	if err != nil {
		return 0, wrapBackend(err)
	}
	if err := e.refreshStore.RevokeAllForAccount(ctx, accountID); err != nil {
		return 0, wrapBackend(err)
	}
	e.emitAudit(ctx, AuditEpochBumped, accountID, true, nil, nil)
	return version, nil
}

func (e *Engine) loadActiveAccount(ctx context.Context, accountID string) (*Account, error) {
	account, err := e.provider.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, wrapBackend(err)
	}
	if !account.Active {
		return nil, ErrAccountInactive
	}
	return account, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

func wrapBackend(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
