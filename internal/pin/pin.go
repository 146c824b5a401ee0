// Package pin guards the deposit-address admin surface with a second factor:
// an operator PIN checked per request and throttled per client.
package pin

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured = errors.New("admin PIN is not configured")
	ErrInvalidPin    = errors.New("invalid admin PIN")
	ErrRateLimited   = errors.New("too many PIN attempts")
)

// Verifier checks PINs against either a bcrypt hash or a plain value. The
// hash wins when both are set.
type Verifier struct {
	hash  []byte
	plain []byte

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewVerifier allows attempts PIN checks per window for each client key.
func NewVerifier(plain, hash string, attempts int, window time.Duration) *Verifier {
	if attempts <= 0 {
		attempts = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	v := &Verifier{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(window / time.Duration(attempts)),
		burst:    attempts,
		window:   window,
		now:      time.Now,
	}
	if hash != "" {
		v.hash = []byte(hash)
	} else if plain != "" {
		v.plain = []byte(plain)
	}
	return v
}

func (v *Verifier) Configured() bool {
	return len(v.hash) > 0 || len(v.plain) > 0
}

// Check consumes one attempt for client and compares candidate.
func (v *Verifier) Check(client, candidate string) error {
	if !v.Configured() {
		return ErrNotConfigured
	}
	if !v.allow(client) {
		return ErrRateLimited
	}
	if candidate == "" {
		return ErrInvalidPin
	}

	if len(v.hash) > 0 {
		if err := bcrypt.CompareHashAndPassword(v.hash, []byte(candidate)); err != nil {
			return ErrInvalidPin
		}
		return nil
	}
	if subtle.ConstantTimeCompare(v.plain, []byte(candidate)) != 1 {
		return ErrInvalidPin
	}
	return nil
}

func (v *Verifier) allow(client string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	entry, exists := v.limiters[client]
	if !exists {
		entry = &clientLimiter{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.limiters[client] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Cleanup drops limiters idle for a whole window. Their buckets have refilled,
// so a returning client gets the same budget from a fresh limiter.
func (v *Verifier) Cleanup() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	removed := 0
	for client, entry := range v.limiters {
		if now.Sub(entry.lastSeen) >= v.window {
			delete(v.limiters, client)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done
func (v *Verifier) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = v.window
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := v.Cleanup(); removed > 0 {
					zap.L().Debug("Evicted idle PIN limiters", zap.Int("count", removed))
				}
			}
		}
	}()
}

// Hash produces the value to put in ADMIN_PIN_HASH.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
