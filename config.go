package zauth

import (
	"errors"
	"time"
)

// Config defines a public type used by zauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Lockout  LockoutConfig
	MFA      MFAConfig
	Refresh  RefreshConfig
	Register RegisterConfig
	Audit    AuditConfig
	Metrics  MetricsConfig

	ProductionMode bool
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines signing material and per-kind lifetimes.
type TokenConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	DeviceTTL     time.Duration
	MFAPendingTTL time.Duration

	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by zauth APIs.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig tunes the exponential-backoff lockout policy.
//
// The lock duration after the Nth lockout is
// BaseLockMinutes * 2^(N-1), capped at MaxLockMinutes.
type LockoutConfig struct {
	Threshold       int
	BaseLockMinutes int
	MaxLockMinutes  int
}

/*
====================================
MFA CONFIG
====================================
*/

// MFAConfig defines a public type used by zauth APIs.
type MFAConfig struct {
	Enabled           bool
	Issuer            string
	Digits            int
	Period            uint
	Skew              uint
	RecoveryCodeCount int
	MaxAttempts       int
	AttemptCooldown   time.Duration
}

// RefreshConfig defines a public type used by zauth APIs.
type RefreshConfig struct {
	RedisPrefix string
}

// RegisterConfig defines a public type used by zauth APIs.
type RegisterConfig struct {
	Enabled     bool
	AutoLogin   bool
	DefaultRole Role
}

// AuditConfig defines a public type used by zauth APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by zauth APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     time.Hour,
			RefreshTTL:    30 * 24 * time.Hour,
			DeviceTTL:     365 * 24 * time.Hour,
			MFAPendingTTL: 5 * time.Minute,
			SigningMethod: "ed25519",
			Issuer:        "zauth",
			Leeway:        30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   8,
		},
		Lockout: LockoutConfig{
			Threshold:       5,
			BaseLockMinutes: 30,
			MaxLockMinutes:  1440,
		},
		MFA: MFAConfig{
			Enabled:           true,
			Issuer:            "zauth",
			Digits:            6,
			Period:            30,
			Skew:              1,
			RecoveryCodeCount: 10,
			MaxAttempts:       5,
			AttemptCooldown:   time.Minute,
		},
		Refresh: RefreshConfig{
			RedisPrefix: "zrt",
		},
		Register: RegisterConfig{
			Enabled:     true,
			AutoLogin:   true,
			DefaultRole: RoleStudent,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the development baseline. Production deployments
// should start from [ProductionConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

// ProductionConfig returns the hardened baseline: latency histograms on and
// production-mode checks enforced at Build time.
func ProductionConfig() Config {
	cfg := defaultConfig()
	cfg.ProductionMode = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

// Validate checks cross-field consistency. Builder.Build calls it; direct
// callers only need it when mutating a Config by hand.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 ||
		c.Token.DeviceTTL <= 0 || c.Token.MFAPendingTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	if c.Token.RefreshTTL > c.Token.DeviceTTL {
		return errors.New("refresh TTL must not exceed device TTL")
	}
	switch c.Token.SigningMethod {
	case "ed25519", "hs256":
	default:
		return errors.New("unsupported signing method")
	}
	if c.ProductionMode && c.Token.SigningMethod == "hs256" && len(c.Token.PrivateKey) < 32 {
		return errors.New("production hs256 requires a key of at least 32 bytes")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("argon2 memory below safe minimum")
	}
	if c.Password.Time == 0 || c.Password.Parallelism == 0 {
		return errors.New("argon2 time and parallelism must be positive")
	}
	if c.Password.SaltLength < 8 || c.Password.KeyLength < 16 {
		return errors.New("argon2 salt/key length below safe minimum")
	}
	if c.Password.MinLength < 8 {
		return errors.New("minimum password length below 8")
	}

	if c.Lockout.Threshold <= 0 {
		return errors.New("lockout threshold must be positive")
	}
	if c.Lockout.BaseLockMinutes <= 0 || c.Lockout.MaxLockMinutes < c.Lockout.BaseLockMinutes {
		return errors.New("invalid lockout durations")
	}

	if c.MFA.Enabled {
		if c.MFA.Digits != 6 && c.MFA.Digits != 8 {
			return errors.New("totp digits must be 6 or 8")
		}
		if c.MFA.Period == 0 {
			return errors.New("totp period must be positive")
		}
		if c.MFA.RecoveryCodeCount <= 0 {
			return errors.New("recovery code count must be positive")
		}
		if c.MFA.MaxAttempts <= 0 || c.MFA.AttemptCooldown <= 0 {
			return errors.New("mfa attempt limits must be positive")
		}
	}

	if c.Register.Enabled {
		if _, err := ParseRole(string(c.Register.DefaultRole)); err != nil {
			return errors.New("register default role invalid")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
