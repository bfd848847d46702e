package service

import (
	"context"
	"sync"
	"time"
)

// OTPRateLimiter decide si un email puede pedir otro codigo y cuanto debe esperar si no.
type OTPRateLimiter interface {
	Reserve(ctx context.Context, email string) (retryAfter time.Duration, ok bool)
}

type otpWindow struct {
	count   int
	resetAt time.Time
}

// otpRateLimiter usa ventanas fijas por email, igual que la version en Redis.
type otpRateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	windows   map[string]otpWindow
	nextSweep time.Time
	now       func() time.Time
}

// NewOTPRateLimiter crea un rate limiter en memoria.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &otpRateLimiter{
		window:  window,
		max:     max,
		windows: make(map[string]otpWindow),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (l *otpRateLimiter) Reserve(_ context.Context, email string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[email]
	if !ok || !now.Before(w.resetAt) {
		w = otpWindow{resetAt: now.Add(l.window)}
	}
	if w.count >= l.max {
		return w.resetAt.Sub(now), false
	}
	w.count++
	l.windows[email] = w
	return 0, true
}

// sweep descarta las ventanas vencidas, como mucho una vez por ventana.
func (l *otpRateLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for email, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, email)
		}
	}
	l.nextSweep = now.Add(l.window)
}
