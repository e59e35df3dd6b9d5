package zauth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeProvider is an in-memory AccountProvider used across engine tests.
type fakeProvider struct {
	mu       sync.Mutex
	accounts map[string]Account
	byEmail  map[string]string
	codes    map[string]map[[32]byte]struct{}

	failAll bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: make(map[string]Account),
		byEmail:  make(map[string]string),
		codes:    make(map[string]map[[32]byte]struct{}),
	}
}

func (p *fakeProvider) put(a Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[a.AccountID] = a
	p.byEmail[a.Email] = a.AccountID
}

func (p *fakeProvider) get(accountID string) Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accounts[accountID]
}

func (p *fakeProvider) recoveryCodeCount(accountID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.codes[accountID])
}

func (p *fakeProvider) FindByEmail(_ context.Context, email string) (*Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll {
		return nil, context.DeadlineExceeded
	}
	id, ok := p.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	a := p.accounts[id]
	return &a, nil
}

func (p *fakeProvider) FindByID(_ context.Context, accountID string) (*Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll {
		return nil, context.DeadlineExceeded
	}
	a, ok := p.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func (p *fakeProvider) Create(_ context.Context, input CreateAccountInput) (*Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byEmail[input.Email]; exists {
		return nil, ErrAccountExists
	}
	a := Account{
		AccountID:    "acct-" + input.Email,
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		Active:       true,
	}
	p.accounts[a.AccountID] = a
	p.byEmail[a.Email] = a.AccountID
	return &a, nil
}

func (p *fakeProvider) UpdatePasswordHash(_ context.Context, accountID, newHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.PasswordHash = newHash
	p.accounts[accountID] = a
	return nil
}

func (p *fakeProvider) UpdateLockoutState(_ context.Context, accountID string, state LockoutState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.LoginAttempts = state.LoginAttempts
	a.LockUntil = state.LockUntil
	a.LockoutCount = state.LockoutCount
	p.accounts[accountID] = a
	return nil
}

func (p *fakeProvider) BumpTokenVersion(_ context.Context, accountID string) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[accountID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	a.TokenVersion++
	p.accounts[accountID] = a
	return a.TokenVersion, nil
}

func (p *fakeProvider) SetMFAPending(_ context.Context, accountID, secret string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.MFAPending = true
	a.MFASecret = secret
	p.accounts[accountID] = a
	return nil
}

func (p *fakeProvider) EnableMFA(_ context.Context, accountID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.MFAEnabled = true
	a.MFAPending = false
	p.accounts[accountID] = a
	return nil
}

func (p *fakeProvider) DisableMFA(_ context.Context, accountID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	a.MFAEnabled = false
	a.MFAPending = false
	a.MFASecret = ""
	p.accounts[accountID] = a
	return nil
}

func (p *fakeProvider) ReplaceRecoveryCodes(_ context.Context, accountID string, codes []RecoveryCodeRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	set := make(map[[32]byte]struct{}, len(codes))
	for _, c := range codes {
		set[c.Hash] = struct{}{}
	}
	p.codes[accountID] = set
	return nil
}

func (p *fakeProvider) ConsumeRecoveryCode(_ context.Context, accountID string, hash [32]byte) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.codes[accountID]
	if !ok {
		return false, nil
	}
	if _, ok := set[hash]; !ok {
		return false, nil
	}
	delete(set, hash)
	return true, nil
}

// engineTestConfig returns a config with fast argon2 parameters so test
// suites stay quick.
func engineTestConfig(t *testing.T) Config {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Token.PrivateKey = priv
	cfg.Token.PublicKey = pub
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

// newTestEngine builds an engine over miniredis and a fake provider.
func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeProvider, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	provider := newFakeProvider()
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountProvider(provider).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	done := func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
	return engine, provider, done
}

// seedAccount hashes the password with the engine's hasher and stores an
// active account.
func seedAccount(t *testing.T, engine *Engine, provider *fakeProvider, id, email, pass string, role Role) {
	t.Helper()

	hash, err := engine.passwordHash.Hash(pass)
	if err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}
	provider.put(Account{
		AccountID:    id,
		Email:        email,
		Name:         "Test Account",
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	})
}
