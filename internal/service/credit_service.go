package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"ask-io/internal/domain"
	"ask-io/internal/repository"
)

const (
	defaultCreditGrant = 100
	// MaxCreditGrant es el maximo aceptado en una sola asignacion.
	MaxCreditGrant       = 1_000_000
	maxCreditTotal int64 = 1<<31 - 1
)

// CreditService mide y cobra creditos por operacion.
type CreditService struct {
	logger       *zap.Logger
	accounts     repository.CreditRepository
	usage        repository.CreditUsageRepository
	defaultGrant int
	now          func() time.Time
}

// Authorization es el resultado de consultar si una operacion es asequible.
type Authorization struct {
	Allowed   bool `json:"authorized"`
	Cost      int  `json:"cost"`
	Remaining int  `json:"remaining"`
}

func NewCreditService(logger *zap.Logger, accounts repository.CreditRepository, usage repository.CreditUsageRepository, defaultGrant int) *CreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultGrant <= 0 {
		defaultGrant = defaultCreditGrant
	}
	return &CreditService{
		logger:       logger,
		accounts:     accounts,
		usage:        usage,
		defaultGrant: defaultGrant,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateAccount devuelve la cuenta del usuario creandola con el saldo inicial si falta.
func (s *CreditService) GetOrCreateAccount(ctx context.Context, userID string) (domain.CreditAccount, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.CreditAccount{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	account, err := s.accounts.GetByUserID(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.CreditAccount{}, storageErr(err)
	}

	fresh := domain.CreditAccount{
		UserID:       userID,
		TotalCredits: s.defaultGrant,
		UsedCredits:  0,
		LastUpdated:  s.now(),
	}
	if err := s.accounts.CreateIfMissing(ctx, fresh); err != nil {
		return domain.CreditAccount{}, storageErr(err)
	}
	// otro request pudo crear la fila primero; se relee la version persistida
	account, err = s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return domain.CreditAccount{}, storageErr(err)
	}
	s.logger.Info("credit account created", zap.String("user_id", userID), zap.Int("total_credits", account.TotalCredits))
	return account, nil
}

// Authorize informa si el saldo cubre la operacion sin modificarlo.
func (s *CreditService) Authorize(ctx context.Context, userID string, kind domain.OperationKind) (Authorization, error) {
	cost, ok := kind.Cost()
	if !ok {
		return Authorization{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, kind)
	}
	account, err := s.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return Authorization{}, err
	}
	remaining := account.Remaining()
	return Authorization{
		Allowed:   remaining >= cost,
		Cost:      cost,
		Remaining: remaining,
	}, nil
}

// Debit descuenta el costo de la operacion. No vuelve a verificar el saldo.
func (s *CreditService) Debit(ctx context.Context, userID string, kind domain.OperationKind) (domain.CreditAccount, error) {
	cost, ok := kind.Cost()
	if !ok {
		return domain.CreditAccount{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, kind)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.CreditAccount{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	account, err := s.accounts.IncrementUsed(ctx, userID, cost, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CreditAccount{}, fmt.Errorf("%w: credit account not found", ErrStorageFailure)
		}
		return domain.CreditAccount{}, storageErr(err)
	}
	return account, nil
}

// Grant suma creditos al total del usuario.
func (s *CreditService) Grant(ctx context.Context, userID string, amount int) (domain.CreditAccount, error) {
	if amount <= 0 {
		return domain.CreditAccount{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if amount > MaxCreditGrant {
		return domain.CreditAccount{}, fmt.Errorf("%w: amount exceeds %d", ErrInvalidInput, MaxCreditGrant)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.CreditAccount{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	current, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CreditAccount{}, fmt.Errorf("%w: credit account not found", ErrStorageFailure)
		}
		return domain.CreditAccount{}, storageErr(err)
	}
	// total_credits es INTEGER en Postgres
	if int64(current.TotalCredits)+int64(amount) > maxCreditTotal {
		return domain.CreditAccount{}, fmt.Errorf("%w: credit total would exceed %d", ErrInvalidInput, maxCreditTotal)
	}
	account, err := s.accounts.IncrementTotal(ctx, userID, amount, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CreditAccount{}, fmt.Errorf("%w: credit account not found", ErrStorageFailure)
		}
		return domain.CreditAccount{}, storageErr(err)
	}
	s.logger.Info("credits granted", zap.String("user_id", userID), zap.Int("amount", amount))
	return account, nil
}

// LogUsage agrega una entrada al historial con el costo de la operacion.
func (s *CreditService) LogUsage(ctx context.Context, userID string, kind domain.OperationKind, description string) (domain.CreditUsageRecord, error) {
	cost, ok := kind.Cost()
	if !ok {
		return domain.CreditUsageRecord{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, kind)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.CreditUsageRecord{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	record := domain.CreditUsageRecord{
		ID:          newID(),
		UserID:      userID,
		Operation:   kind,
		CreditsUsed: cost,
		Description: description,
		CreatedAt:   s.now(),
	}
	if err := s.usage.Create(ctx, record); err != nil {
		return domain.CreditUsageRecord{}, storageErr(err)
	}
	return record, nil
}

// ListUsageHistory devuelve el historial del usuario, mas reciente primero.
func (s *CreditService) ListUsageHistory(ctx context.Context, userID string) ([]domain.CreditUsageRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	records, err := s.usage.ListByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	return records, nil
}

// Charge cobra la operacion en una sola actualizacion condicional y registra el uso.
// Devuelve false si el saldo no alcanza.
func (s *CreditService) Charge(ctx context.Context, userID string, kind domain.OperationKind, description string) (domain.CreditAccount, bool, error) {
	cost, ok := kind.Cost()
	if !ok {
		return domain.CreditAccount{}, false, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, kind)
	}
	current, err := s.GetOrCreateAccount(ctx, userID)
	if err != nil {
		return domain.CreditAccount{}, false, err
	}

	account, charged, err := s.accounts.ChargeIfAvailable(ctx, current.UserID, cost, s.now())
	if err != nil {
		return domain.CreditAccount{}, false, storageErr(err)
	}
	if !charged {
		return current, false, nil
	}
	if _, err := s.LogUsage(ctx, current.UserID, kind, description); err != nil {
		return account, true, err
	}
	return account, true, nil
}
