package zauth

import "context"

// ChangePassword replaces the account's password after verifying the
// current one. The session epoch is bumped, so every outstanding refresh
// and device credential stops working.
func (e *Engine) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if e == nil || e.provider == nil {
		return ErrEngineNotReady
	}

	account, err := e.loadActiveAccount(ctx, accountID)
	if err != nil {
		return err
	}

	ok, verr := e.passwordHash.Verify(oldPassword, account.PasswordHash)
	if verr != nil || !ok {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, AuditPasswordChanged, accountID, false, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if len(newPassword) < e.config.Password.MinLength {
		return ErrPasswordPolicy
	}
	if newPassword == oldPassword {
		e.metricInc(MetricPasswordChangeFailure)
		return ErrPasswordReuse
	}

	newHash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		return ErrPasswordPolicy
	}
	if err := e.provider.UpdatePasswordHash(ctx, accountID, newHash); err != nil {
		return wrapBackend(err)
	}

	if _, err := e.bumpEpoch(ctx, accountID); err != nil {
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.metricInc(MetricEpochBumped)
	e.emitAudit(ctx, AuditPasswordChanged, accountID, true, nil, nil)
	return nil
}
