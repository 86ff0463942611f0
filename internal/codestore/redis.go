package codestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/domain"
)

// retentionGrace keeps consumed/expired entries around long enough to
// report "already consumed" and "expired" instead of a bare not-found.
const retentionGrace = time.Hour

// putScript stores a fresh entry, carrying over the digits of a live
// code it replaces so those digits later read as expired.
var putScript = redis.NewScript(`
local entry = cjson.decode(ARGV[1])
local prev = redis.call('GET', KEYS[1])
if prev then
	local old = cjson.decode(prev)
	if not old.consumed then
		local superseded = old.superseded or {}
		superseded[#superseded + 1] = old.code
		entry.superseded = superseded
	end
end
redis.call('SET', KEYS[1], cjson.encode(entry), 'PX', tonumber(ARGV[2]))
return 'OK'
`)

// consumeScript linearizes consumption server-side so exactly one
// concurrent caller wins. Expiry is checked against the stored deadline,
// not the key TTL, which only reclaims memory.
var consumeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
	return 'not_found'
end
local entry = cjson.decode(raw)
if tonumber(ARGV[2]) >= entry.expires_at_ms then
	redis.call('DEL', KEYS[1])
	return 'expired'
end
if entry.consumed then
	return 'consumed'
end
if entry.code ~= ARGV[1] then
	if entry.superseded then
		for _, old in ipairs(entry.superseded) do
			if old == ARGV[1] then
				return 'superseded'
			end
		end
	end
	return 'mismatch'
end
entry.consumed = true
local ttl = redis.call('PTTL', KEYS[1])
redis.call('SET', KEYS[1], cjson.encode(entry))
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
end
return raw
`)

type redisEntry struct {
	Identity     string   `json:"identity"`
	Purpose      string   `json:"purpose"`
	Code         string   `json:"code"`
	BoundSubject string   `json:"bound_subject,omitempty"`
	IssuedAtMS   int64    `json:"issued_at_ms"`
	ExpiresAtMS  int64    `json:"expires_at_ms"`
	Consumed     bool     `json:"consumed"`
	Superseded   []string `json:"superseded,omitempty"`
}

// Redis is a code store backed by a shared Redis instance, for
// deployments where verification and booking requests land on different
// processes.
type Redis struct {
	client *redis.Client
	clock  clock.Clock
}

func NewRedis(client *redis.Client, clk clock.Clock) *Redis {
	return &Redis{client: client, clock: clk}
}

func (r *Redis) Put(ctx context.Context, code domain.VerificationCode) error {
	entry := redisEntry{
		Identity:     code.Identity,
		Purpose:      code.Purpose,
		Code:         code.Code,
		BoundSubject: code.BoundSubject,
		IssuedAtMS:   code.IssuedAt.UnixMilli(),
		ExpiresAtMS:  code.ExpiresAt.UnixMilli(),
		Consumed:     code.Consumed,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal code entry: %w", err)
	}

	ttl := code.ExpiresAt.Sub(code.IssuedAt) + retentionGrace
	err = putScript.Run(ctx, r.client,
		[]string{redisCodeKey(code.Identity, code.Purpose)},
		raw, ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("store code entry: %w", err)
	}
	return nil
}

func (r *Redis) Peek(ctx context.Context, identity, purpose string) (domain.VerificationCode, error) {
	raw, err := r.client.Get(ctx, redisCodeKey(identity, purpose)).Result()
	if err == redis.Nil {
		return domain.VerificationCode{}, domain.ErrCodeNotFound
	}
	if err != nil {
		return domain.VerificationCode{}, fmt.Errorf("get code entry: %w", err)
	}

	code, err := decodeEntry(raw)
	if err != nil {
		return domain.VerificationCode{}, err
	}
	if !code.ExpiresAt.After(r.clock.Now()) {
		return domain.VerificationCode{}, domain.ErrCodeExpired
	}
	return code, nil
}

func (r *Redis) Consume(ctx context.Context, identity, purpose, supplied string) (domain.VerificationCode, error) {
	res, err := consumeScript.Run(ctx, r.client,
		[]string{redisCodeKey(identity, purpose)},
		supplied, r.clock.Now().UnixMilli(),
	).Text()
	if err != nil {
		return domain.VerificationCode{}, fmt.Errorf("consume code entry: %w", err)
	}

	switch res {
	case "not_found":
		return domain.VerificationCode{}, domain.ErrCodeNotFound
	case "expired", "superseded":
		return domain.VerificationCode{}, domain.ErrCodeExpired
	case "consumed":
		return domain.VerificationCode{}, domain.ErrCodeAlreadyConsumed
	case "mismatch":
		return domain.VerificationCode{}, domain.ErrCodeMismatch
	}

	code, err := decodeEntry(res)
	if err != nil {
		return domain.VerificationCode{}, err
	}
	code.Consumed = true
	return code, nil
}

func decodeEntry(raw string) (domain.VerificationCode, error) {
	var entry redisEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return domain.VerificationCode{}, fmt.Errorf("decode code entry: %w", err)
	}
	return domain.VerificationCode{
		Identity:     entry.Identity,
		Purpose:      entry.Purpose,
		Code:         entry.Code,
		BoundSubject: entry.BoundSubject,
		IssuedAt:     time.UnixMilli(entry.IssuedAtMS).UTC(),
		ExpiresAt:    time.UnixMilli(entry.ExpiresAtMS).UTC(),
		Consumed:     entry.Consumed,
	}, nil
}

// redisCodeKey length-prefixes the purpose so a purpose containing ':'
// cannot collide with another (identity, purpose) pair.
func redisCodeKey(identity, purpose string) string {
	return "otp:code:" + strconv.Itoa(len(purpose)) + ":" + purpose + ":" + identity
}
