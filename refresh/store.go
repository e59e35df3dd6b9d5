package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is returned when the backing store cannot be reached
// or replies with something the store cannot interpret.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrRecordNotFound is returned when no record exists for the presented hash.
var ErrRecordNotFound = errors.New("refresh record not found")

// ErrRecordExpired is returned when the presented record has lapsed.
var ErrRecordExpired = errors.New("refresh record expired")

// ErrRecordRevoked is returned when the presented record was already rotated
// or revoked. Presenting such a record is the replay signal.
var ErrRecordRevoked = errors.New("refresh record revoked")

// ErrRecordCorrupt is returned when a stored blob cannot be decoded.
var ErrRecordCorrupt = errors.New("refresh record corrupt")

const (
	rotateStatusNotFound int64 = 0
	rotateStatusRevoked  int64 = 1
	rotateStatusExpired  int64 = 2
	rotateStatusRotated  int64 = 3
	rotateStatusCorrupt  int64 = 4
)

// Rotation is a single atomic step: the presented record is re-read under
// the script, rejected if revoked or expired, marked revoked, and the
// replacement inserted. Under a concurrent race on the same record exactly
// one caller reaches status 3.
const rotateScript = `
local function read_be64(s, i)
  local b1 = string.byte(s, i)
  local b2 = string.byte(s, i + 1)
  local b3 = string.byte(s, i + 2)
  local b4 = string.byte(s, i + 3)
  local b5 = string.byte(s, i + 4)
  local b6 = string.byte(s, i + 5)
  local b7 = string.byte(s, i + 6)
  local b8 = string.byte(s, i + 7)
  if not b8 then
    return nil
  end
  return ((((((((b1 * 256) + b2) * 256 + b3) * 256 + b4) * 256 + b5) * 256 + b6) * 256 + b7) * 256 + b8)
end

local old = redis.call("GET", KEYS[1])
if not old then
  return {0}
end

local version = string.byte(old, 1)
if not version or version ~= 1 then
  return {4}
end
local revoked = string.byte(old, 2)
local aid_len = string.byte(old, 3)
if not aid_len or aid_len == 0 or #old < 3 + aid_len + 8 then
  return {4}
end
local expires_at = read_be64(old, 4 + aid_len)
if not expires_at then
  return {4}
end

if revoked == 1 then
  return {1}
end

local now_unix = tonumber(ARGV[3])
if expires_at <= now_unix then
  redis.call("DEL", KEYS[1])
  redis.call("SREM", KEYS[3], ARGV[4])
  return {2}
end

local pttl = redis.call("PTTL", KEYS[1])
if pttl <= 0 then
  redis.call("DEL", KEYS[1])
  redis.call("SREM", KEYS[3], ARGV[4])
  return {2}
end

local marked = string.sub(old, 1, 1) .. string.char(1) .. string.sub(old, 3)
redis.call("SET", KEYS[1], marked, "PX", pttl)
redis.call("SREM", KEYS[3], ARGV[4])

local inserted = redis.call("SET", KEYS[2], ARGV[1], "PX", tonumber(ARGV[2]), "NX")
if inserted then
  redis.call("SADD", KEYS[3], ARGV[5])
end

return {3}
`

var rotateLua = redis.NewScript(rotateScript)

const markRevokedScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local pttl = redis.call("PTTL", KEYS[1])
if pttl <= 0 then
  return 0
end
local marked = string.sub(data, 1, 1) .. string.char(1) .. string.sub(data, 3)
redis.call("SET", KEYS[1], marked, "PX", pttl)
redis.call("SREM", KEYS[2], ARGV[1])
return 1
`

var markRevokedLua = redis.NewScript(markRevokedScript)

// Store is the Redis-backed refresh-token record store.
//
// Store instances are safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a record [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "zrt"
	}
	return &Store{redis: redisClient, prefix: prefix}
}

func (s *Store) key(hash string) string {
	return s.prefix + ":" + hash
}

func (s *Store) accountKey(accountID string) string {
	return s.prefix + ":acct:" + accountID
}

// Save inserts a record for hash if none exists. A concurrent duplicate
// insert of the same hash is a no-op for the loser, never an error.
func (s *Store) Save(ctx context.Context, hash string, record *Record) error {
	data, err := encodeRecord(record)
	if err != nil {
		return err
	}

	ttl := time.Until(time.Unix(record.ExpiresAt, 0))
	if ttl <= 0 {
		return ErrRecordExpired
	}

	inserted, err := s.redis.SetNX(ctx, s.key(hash), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !inserted {
		return nil
	}

	if err := s.redis.SAdd(ctx, s.accountKey(record.AccountID), hash).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get retrieves the record for hash without mutating it.
func (s *Store) Get(ctx context.Context, hash string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(hash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	record, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if record.expired(time.Now()) {
		_, _ = s.redis.Del(ctx, s.key(hash)).Result()
		_, _ = s.redis.SRem(ctx, s.accountKey(record.AccountID), hash).Result()
		return nil, ErrRecordExpired
	}
	return record, nil
}

// Rotate atomically marks the record at oldHash revoked and inserts next
// under newHash. Exactly one of N concurrent callers presenting the same
// oldHash succeeds; the rest receive ErrRecordRevoked.
//
// The revoked record is retained until its original expiry so that a later
// replay of the rotated token is still distinguishable from an unknown token.
func (s *Store) Rotate(ctx context.Context, oldHash, newHash string, next *Record) error {
	data, err := encodeRecord(next)
	if err != nil {
		return err
	}

	ttl := time.Until(time.Unix(next.ExpiresAt, 0))
	if ttl <= 0 {
		return ErrRecordExpired
	}

	result, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.key(oldHash), s.key(newHash), s.accountKey(next.AccountID)},
		data,
		ttl.Milliseconds(),
		time.Now().Unix(),
		oldHash,
		newHash,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return fmt.Errorf("%w: invalid rotate script status", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return ErrRecordNotFound
	case rotateStatusRevoked:
		return ErrRecordRevoked
	case rotateStatusExpired:
		return ErrRecordExpired
	case rotateStatusRotated:
		return nil
	case rotateStatusCorrupt:
		return ErrRecordCorrupt
	default:
		return fmt.Errorf("%w: unknown rotate script status", ErrRedisUnavailable)
	}
}

// Revoke marks the record at hash revoked, keeping it until expiry so replay
// stays detectable. Revoking an absent record is a no-op.
func (s *Store) Revoke(ctx context.Context, hash, accountID string) error {
	_, err := markRevokedLua.Run(
		ctx,
		s.redis,
		[]string{s.key(hash), s.accountKey(accountID)},
		hash,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevokeAllForAccount marks every live record for the account revoked and
// clears the account index.
//
// ATOMICITY NOTE: the index read and the per-record revocations are separate
// commands. A record inserted between the read and the revocation phase is
// not captured here; callers that need a hard cutoff pair this with a
// token-version bump.
func (s *Store) RevokeAllForAccount(ctx context.Context, accountID string) error {
	accountKey := s.accountKey(accountID)

	hashes, err := s.redis.SMembers(ctx, accountKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	for _, hash := range hashes {
		if _, err := markRevokedLua.Run(
			ctx,
			s.redis,
			[]string{s.key(hash), accountKey},
			hash,
		).Result(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if err := s.redis.Del(ctx, accountKey).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ActiveCountForAccount returns the number of live (unrevoked, unexpired at
// insert time) records tracked for the account.
func (s *Store) ActiveCountForAccount(ctx context.Context, accountID string) (int, error) {
	count, err := s.redis.SCard(ctx, s.accountKey(accountID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
