package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Devuelve {solicitudes en la ventana, ms hasta que vence}.
const otpReserveScript = `
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`

const redisOpTimeout = 500 * time.Millisecond

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisOTPRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
	logger *zap.Logger
}

// NewRedisOTPRateLimiter comparte el limite entre instancias usando una ventana fija en Redis.
func NewRedisOTPRateLimiter(client *redis.Client, window time.Duration, max int, logger *zap.Logger) OTPRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisOTPRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "askio:otp:rl:",
		logger: logger,
	}
}

func (l *redisOTPRateLimiter) Reserve(ctx context.Context, email string) (time.Duration, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	key := l.prefix + emailDigest(email)
	res, err := l.client.Eval(ctx, otpReserveScript, []string{key}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		// sin Redis no se bloquea el login
		l.logger.Warn("otp rate limiter unavailable", zap.Error(err))
		return 0, true
	}
	if res[0] <= int64(l.max) {
		return 0, true
	}
	retry := time.Duration(res[1]) * time.Millisecond
	if retry <= 0 {
		retry = l.window
	}
	return retry, false
}

// emailDigest evita guardar direcciones en claro en Redis.
func emailDigest(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:16])
}
