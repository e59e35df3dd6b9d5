package internaldefs

import (
	zauth "github.com/chukwuma7703/zauth"
)

// CounterDef defines a public type used by zauth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   zauth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by zauth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   zauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication engine.
var CounterDefs = []CounterDef{
	{ID: zauth.MetricLoginSuccess, Name: "zauth_login_success_total", Help: "Successful login attempts."},
	{ID: zauth.MetricLoginFailure, Name: "zauth_login_failure_total", Help: "Failed login attempts."},
	{ID: zauth.MetricLoginLocked, Name: "zauth_login_locked_total", Help: "Login attempts rejected while the account was locked."},
	{ID: zauth.MetricLoginMFARequired, Name: "zauth_login_mfa_required_total", Help: "Login flows requiring MFA step-up."},
	{ID: zauth.MetricMFALoginSuccess, Name: "zauth_mfa_login_success_total", Help: "Successful MFA login confirmations."},
	{ID: zauth.MetricMFALoginFailure, Name: "zauth_mfa_login_failure_total", Help: "Failed MFA login confirmations."},
	{ID: zauth.MetricMFARateLimited, Name: "zauth_mfa_rate_limited_total", Help: "Rate-limited MFA verification attempts."},
	{ID: zauth.MetricOAuthLogin, Name: "zauth_oauth_login_total", Help: "Logins completed through a verified external identity."},
	{ID: zauth.MetricRegisterSuccess, Name: "zauth_register_success_total", Help: "Successful account registrations."},
	{ID: zauth.MetricRegisterDuplicate, Name: "zauth_register_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: zauth.MetricRefreshSuccess, Name: "zauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: zauth.MetricRefreshFailure, Name: "zauth_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: zauth.MetricReplayDetected, Name: "zauth_replay_detected_total", Help: "Detected refresh-token replays."},
	{ID: zauth.MetricDeviceFallback, Name: "zauth_device_fallback_total", Help: "Sessions re-established via trusted-device credentials."},
	{ID: zauth.MetricLogout, Name: "zauth_logout_total", Help: "Single-session logout operations."},
	{ID: zauth.MetricLogoutAll, Name: "zauth_logout_all_total", Help: "Logout-all operations."},
	{ID: zauth.MetricEpochBumped, Name: "zauth_epoch_bumped_total", Help: "Session-epoch advances."},
	{ID: zauth.MetricPasswordChangeSuccess, Name: "zauth_password_change_success_total", Help: "Successful password changes."},
	{ID: zauth.MetricPasswordChangeFailure, Name: "zauth_password_change_failure_total", Help: "Failed password change attempts."},
	{ID: zauth.MetricRecoveryCodeUsed, Name: "zauth_recovery_code_used_total", Help: "Successful recovery-code authentications."},
	{ID: zauth.MetricRecoveryCodeFailed, Name: "zauth_recovery_code_failed_total", Help: "Failed recovery-code authentications."},
	{ID: zauth.MetricRecoveryCodesRegenerated, Name: "zauth_recovery_codes_regenerated_total", Help: "Recovery-code regeneration operations."},
	{ID: zauth.MetricMFAEnabled, Name: "zauth_mfa_enabled_total", Help: "MFA enablement operations."},
	{ID: zauth.MetricMFADisabled, Name: "zauth_mfa_disabled_total", Help: "MFA disablement operations."},
}

// HistogramDefs is an exported constant or variable used by the authentication engine.
var HistogramDefs = []HistogramDef{
	{ID: zauth.MetricVerifyLatency, Name: "zauth_verify_latency_seconds", Help: "Access-token verification latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the authentication engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the authentication engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket snapshot to the fixed
// eight-bucket shape the exporters render.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form the
// Prometheus text format expects.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
