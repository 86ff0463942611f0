// Package codestore holds pending verification codes and the single-use
// tickets minted when a code is verified. Codes are deliberately
// non-durable: losing them on restart only forces the caller to request
// a new one.
package codestore

import (
	"context"
	"sync"
	"time"

	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/domain"
)

// Memory is an in-process code store. Expiry is enforced lazily at read
// time; Sweep only reclaims memory. Consumed entries are retained until
// they expire so a replayed code is reported as already consumed rather
// than missing.
type Memory struct {
	mu    sync.Mutex
	clock clock.Clock
	codes map[codeKey]memoryEntry
}

type codeKey struct {
	identity string
	purpose  string
}

// memoryEntry pairs the active code with the digits of any codes it
// replaced, so a superseded code reads as expired rather than as a
// wrong guess.
type memoryEntry struct {
	code       domain.VerificationCode
	superseded []string
}

func NewMemory(clk clock.Clock) *Memory {
	return &Memory{
		clock: clk,
		codes: make(map[codeKey]memoryEntry),
	}
}

// Put registers a pending code, replacing any existing entry for the
// same (identity, purpose) pair. The replaced code is invalidated but
// its digits are remembered until the entry expires.
func (m *Memory) Put(_ context.Context, code domain.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := codeKey{identity: code.Identity, purpose: code.Purpose}
	entry := memoryEntry{code: code}
	if prev, ok := m.codes[key]; ok && !prev.code.Consumed {
		entry.superseded = append(prev.superseded, prev.code.Code)
	}
	m.codes[key] = entry
	return nil
}

// Peek returns the stored entry without consuming it.
func (m *Memory) Peek(_ context.Context, identity, purpose string) (domain.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := codeKey{identity: identity, purpose: purpose}
	entry, ok := m.codes[key]
	if !ok {
		return domain.VerificationCode{}, domain.ErrCodeNotFound
	}
	if !entry.code.ExpiresAt.After(m.clock.Now()) {
		delete(m.codes, key)
		return domain.VerificationCode{}, domain.ErrCodeExpired
	}
	return entry.code, nil
}

// Consume atomically marks the entry consumed when supplied matches the
// stored code. Under concurrent calls for the same key exactly one caller
// succeeds; the rest observe ErrCodeAlreadyConsumed. Digits belonging to
// a replaced code fail with ErrCodeExpired, not ErrCodeMismatch.
func (m *Memory) Consume(_ context.Context, identity, purpose, supplied string) (domain.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := codeKey{identity: identity, purpose: purpose}
	entry, ok := m.codes[key]
	if !ok {
		return domain.VerificationCode{}, domain.ErrCodeNotFound
	}
	if !entry.code.ExpiresAt.After(m.clock.Now()) {
		delete(m.codes, key)
		return domain.VerificationCode{}, domain.ErrCodeExpired
	}
	if entry.code.Consumed {
		return domain.VerificationCode{}, domain.ErrCodeAlreadyConsumed
	}
	if entry.code.Code != supplied {
		for _, old := range entry.superseded {
			if old == supplied {
				return domain.VerificationCode{}, domain.ErrCodeExpired
			}
		}
		return domain.VerificationCode{}, domain.ErrCodeMismatch
	}

	entry.code.Consumed = true
	m.codes[key] = entry
	return entry.code, nil
}

// Sweep removes entries past their expiry and reports how many were
// dropped. Not required for correctness.
func (m *Memory) Sweep(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for key, entry := range m.codes {
		if !entry.code.ExpiresAt.After(now) {
			delete(m.codes, key)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on the given interval until ctx is cancelled.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}
