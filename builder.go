package zauth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/chukwuma7703/zauth/password"
	"github.com/chukwuma7703/zauth/refresh"
	"github.com/chukwuma7703/zauth/token"
)

// Builder defines a public type used by zauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	provider AccountProvider
	issuer   TokenIssuer
	presence PresenceNotifier
	sink     AuditSink

	built bool
}

// New returns a Builder seeded with the development defaults.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing refresh records and MFA
// attempt limiting. Build fails without one.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAccountProvider supplies the account store. Build fails without one.
func (b *Builder) WithAccountProvider(p AccountProvider) *Builder {
	b.provider = p
	return b
}

// WithTokenIssuer overrides the default JWT issuer with a custom signing
// strategy. Omit it to use the built-in manager driven by Config.Token.
func (b *Builder) WithTokenIssuer(issuer TokenIssuer) *Builder {
	b.issuer = issuer
	return b
}

// WithPresenceNotifier registers a listener for login and logout events.
// Defaults to a no-op.
func (b *Builder) WithPresenceNotifier(n PresenceNotifier) *Builder {
	b.presence = n
	return b
}

// WithAuditSink registers the destination for audit events. Omitting it
// disables audit delivery even when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithMetricsEnabled toggles counter collection.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles verify-latency histogram collection.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every component, and returns a
// ready Engine. A Builder is single use.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.provider == nil {
		return nil, errors.New("account provider required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Register.Enabled && cfg.Register.AutoLogin && cfg.Token.RefreshTTL <= 0 {
		return nil, errors.New("Register AutoLogin requires refresh credentials")
	}

	engine := &Engine{
		config:   cloneConfig(cfg),
		provider: b.provider,
	}

	engine.refreshStore = refresh.NewStore(b.redis, cfg.Refresh.RedisPrefix)
	engine.mfaLimiter = newMFALimiter(b.redis, cfg.MFA)
	engine.totp = newTOTPManager(cfg.MFA)
	engine.audit = newAuditDispatcher(cfg.Audit, b.sink)
	engine.metrics = NewMetrics(cfg.Metrics)

	engine.presence = b.presence
	if engine.presence == nil {
		engine.presence = NoOpPresence{}
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	// Hashing a throwaway password keeps unknown-email logins as slow as
	// wrong-password logins.
	throwaway := make([]byte, 18)
	if _, err := rand.Read(throwaway); err != nil {
		return nil, err
	}
	dummy, err := ph.Hash(hex.EncodeToString(throwaway))
	if err != nil {
		return nil, err
	}
	engine.dummyHash = dummy

	engine.issuer = b.issuer
	if engine.issuer == nil {
		tm, err := token.NewManager(token.Config{
			AccessTTL:     cfg.Token.AccessTTL,
			RefreshTTL:    cfg.Token.RefreshTTL,
			DeviceTTL:     cfg.Token.DeviceTTL,
			MFAPendingTTL: cfg.Token.MFAPendingTTL,
			SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
			PublicKey:     cloneBytes(cfg.Token.PublicKey),
			Issuer:        cfg.Token.Issuer,
			Audience:      cfg.Token.Audience,
			Leeway:        cfg.Token.Leeway,
		})
		if err != nil {
			return nil, err
		}
		engine.issuer = tm
	}

	b.built = true

	return engine, nil
}
