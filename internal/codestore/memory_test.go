package codestore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/booking-api/internal/clock"
	"github.com/carebridge/booking-api/internal/domain"
)

func testCode(now time.Time) domain.VerificationCode {
	return domain.VerificationCode{
		Identity:  "a@x.com",
		Purpose:   "lab-test-booking",
		Code:      "123456",
		IssuedAt:  now,
		ExpiresAt: now.Add(5 * time.Minute),
	}
}

func TestMemory_ConsumeOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemory(clock.NewFixed(now))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testCode(now)))

	got, err := store.Consume(ctx, "a@x.com", "lab-test-booking", "123456")
	require.NoError(t, err)
	assert.True(t, got.Consumed)

	_, err = store.Consume(ctx, "a@x.com", "lab-test-booking", "123456")
	assert.ErrorIs(t, err, domain.ErrCodeAlreadyConsumed)
}

func TestMemory_Mismatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemory(clock.NewFixed(now))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testCode(now)))

	_, err := store.Consume(ctx, "a@x.com", "lab-test-booking", "654321")
	assert.ErrorIs(t, err, domain.ErrCodeMismatch)

	// A wrong guess must not burn the code.
	_, err = store.Consume(ctx, "a@x.com", "lab-test-booking", "123456")
	assert.NoError(t, err)
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewStepping(now)
	store := NewMemory(clk)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testCode(now)))

	clk.Advance(5*time.Minute + time.Millisecond)

	_, err := store.Consume(ctx, "a@x.com", "lab-test-booking", "123456")
	assert.ErrorIs(t, err, domain.ErrCodeExpired)

	// The lazy expiry removed the entry.
	_, err = store.Peek(ctx, "a@x.com", "lab-test-booking")
	assert.ErrorIs(t, err, domain.ErrCodeNotFound)
}

func TestMemory_ReissueReplacesPrior(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemory(clock.NewFixed(now))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testCode(now)))

	second := testCode(now)
	second.Code = "999999"
	require.NoError(t, store.Put(ctx, second))

	third := testCode(now)
	third.Code = "555555"
	require.NoError(t, store.Put(ctx, third))

	// Superseded digits read as expired, not as a wrong guess, and do
	// not burn the live code.
	_, err := store.Consume(ctx, "a@x.com", "lab-test-booking", "123456")
	assert.ErrorIs(t, err, domain.ErrCodeExpired)
	_, err = store.Consume(ctx, "a@x.com", "lab-test-booking", "999999")
	assert.ErrorIs(t, err, domain.ErrCodeExpired)

	// Digits that never belonged to this key are still a mismatch.
	_, err = store.Consume(ctx, "a@x.com", "lab-test-booking", "000000")
	assert.ErrorIs(t, err, domain.ErrCodeMismatch)

	got, err := store.Consume(ctx, "a@x.com", "lab-test-booking", "555555")
	require.NoError(t, err)
	assert.Equal(t, "555555", got.Code)
}

func TestMemory_PurposeScoping(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemory(clock.NewFixed(now))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testCode(now)))

	// Same identity and digits, different workflow: not replayable.
	_, err := store.Consume(ctx, "a@x.com", "pharmacy-order", "123456")
	assert.ErrorIs(t, err, domain.ErrCodeNotFound)
}

func TestMemory_ConcurrentConsume(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewMemory(clock.NewFixed(now))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testCode(now)))

	const workers = 50
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.Consume(ctx, "a@x.com", "lab-test-booking", "123456")
		}()
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			assert.ErrorIs(t, err, domain.ErrCodeAlreadyConsumed)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent consume must win")
}

func TestMemory_Sweep(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewStepping(now)
	store := NewMemory(clk)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, testCode(now)))
	fresh := testCode(now)
	fresh.Purpose = "vaccination-booking"
	fresh.ExpiresAt = now.Add(time.Hour)
	require.NoError(t, store.Put(ctx, fresh))

	clk.Advance(10 * time.Minute)

	assert.Equal(t, 1, store.Sweep(ctx))

	_, err := store.Peek(ctx, "a@x.com", "vaccination-booking")
	assert.NoError(t, err)
}
