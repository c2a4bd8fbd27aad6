package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"clinicbook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverLocker prefers the primary locker and switches to the fallback
// while the primary is failing. A held lock is not a failure.
type FailoverLocker struct {
	primary   domain.Locker
	fallback  domain.Locker
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	// issuer remembers which locker handed out a token.
	issuer sync.Map
}

func NewFailoverLocker(primary, fallback domain.Locker, logger *zerolog.Logger) *FailoverLocker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if r.usePrimary() {
		token, err := r.primary.Acquire(ctx, key, ttl)
		if err == nil {
			r.recovered()
			r.issuer.Store(token, r.primary)
			return token, nil
		}
		if errors.Is(err, domain.ErrLockHeld) {
			return "", err
		}
		r.logger.Error().Err(err).Msg("Primary locker failed, falling back to memory")
		r.markDown()
	}

	token, err := r.fallback.Acquire(ctx, key, ttl)
	if err != nil {
		return "", err
	}
	r.issuer.Store(token, r.fallback)
	return token, nil
}

func (r *FailoverLocker) Release(ctx context.Context, key, token string) error {
	v, ok := r.issuer.LoadAndDelete(token)
	if !ok {
		return nil
	}
	return v.(domain.Locker).Release(ctx, key, token)
}

// usePrimary reports whether the primary should be tried, retrying it once
// per recoveryInterval while marked down.
func (r *FailoverLocker) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	if time.Since(last) > recoveryInterval {
		r.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (r *FailoverLocker) markDown() {
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverLocker) recovered() {
	if r.isDown.CompareAndSwap(true, false) {
		r.logger.Info().Msg("Primary locker recovered")
	}
}
