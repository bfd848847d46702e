package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"ask-io/internal/domain"
	"ask-io/internal/email"
	"ask-io/internal/repository"
)

const (
	defaultOTPTTL  = 5 * time.Minute
	maxOTPAttempts = 5
)

// OTPService emite y verifica codigos de verificacion por email.
type OTPService struct {
	logger   *zap.Logger
	codes    repository.OTPRepository
	sender   email.Sender
	limiter  OTPRateLimiter
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, string, error)
}

type IssuedOTP struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifiedOTP struct {
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

func NewOTPService(logger *zap.Logger, codes repository.OTPRepository, sender email.Sender, limiter OTPRateLimiter, ttl time.Duration) *OTPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	return &OTPService{
		logger:   logger,
		codes:    codes,
		sender:   sender,
		limiter:  limiter,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		generate: generateOTP,
	}
}

// Issue genera un codigo nuevo, lo persiste hasheado y lo envia por email.
func (s *OTPService) Issue(ctx context.Context, emailAddr string) (IssuedOTP, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return IssuedOTP{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	if s.limiter != nil {
		if retry, ok := s.limiter.Reserve(ctx, emailAddr); !ok {
			s.logger.Info("otp request throttled", zap.String("email", emailAddr), zap.Duration("retry_after", retry))
			return IssuedOTP{}, &RateLimitError{RetryAfter: retry}
		}
	}

	code, hash, err := s.generate()
	if err != nil {
		return IssuedOTP{}, fmt.Errorf("generate otp: %w", err)
	}

	now := s.now()
	record := domain.OneTimeCode{
		ID:        newID(),
		Email:     emailAddr,
		CodeHash:  hash,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.codes.Create(ctx, record); err != nil {
		s.logger.Error("store otp failed", zap.Error(err), zap.String("email", emailAddr))
		return IssuedOTP{}, storageErr(err)
	}

	if s.sender == nil {
		return IssuedOTP{}, fmt.Errorf("%w: no email sender configured", ErrDeliveryFailure)
	}
	msg := email.VerifyEmail(code, s.ttl).To(emailAddr)
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("send verification otp failed", zap.Error(err), zap.String("email", emailAddr))
		return IssuedOTP{}, fmt.Errorf("%w: %w", ErrDeliveryFailure, err)
	}

	s.logger.Info("otp issued", zap.String("email", emailAddr), zap.Time("expires_at", record.ExpiresAt))
	return IssuedOTP{Email: emailAddr, ExpiresAt: record.ExpiresAt}, nil
}

// Verify consume el codigo mas reciente del email si coincide.
func (s *OTPService) Verify(ctx context.Context, emailAddr, code string) (VerifiedOTP, error) {
	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" || code == "" {
		return VerifiedOTP{}, fmt.Errorf("%w: email and code are required", ErrInvalidInput)
	}
	if !isValidOTPCode(code) {
		return VerifiedOTP{}, ErrInvalidOrExpired
	}

	now := s.now()
	current, err := s.codes.LatestActive(ctx, emailAddr, now)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VerifiedOTP{}, ErrInvalidOrExpired
		}
		return VerifiedOTP{}, storageErr(err)
	}
	if current.Consumed || current.IsExpired(now) || current.Attempts >= maxOTPAttempts {
		return VerifiedOTP{}, ErrInvalidOrExpired
	}

	if !verifyOTP(code, current.CodeHash) {
		if err := s.codes.IncrementAttempts(ctx, current.ID); err != nil {
			return VerifiedOTP{}, storageErr(err)
		}
		s.logger.Info("otp mismatch", zap.String("email", emailAddr), zap.Int("attempts", current.Attempts+1))
		return VerifiedOTP{}, ErrInvalidOrExpired
	}

	ok, err := s.codes.MarkConsumed(ctx, current.ID, now)
	if err != nil {
		return VerifiedOTP{}, storageErr(err)
	}
	if !ok {
		return VerifiedOTP{}, ErrInvalidOrExpired
	}

	return VerifiedOTP{Email: emailAddr, VerifiedAt: now}, nil
}

func generateOTP() (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	return code, saltStr + ":" + hashOTP(saltStr, code), nil
}

func hashOTP(salt, code string) string {
	hashBytes := sha256.Sum256([]byte(salt + ":" + code))
	return base64.StdEncoding.EncodeToString(hashBytes[:])
}

func verifyOTP(code, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	hash := hashOTP(parts[0], code)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(parts[1])) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func newID() string {
	return uuid.NewString()
}
