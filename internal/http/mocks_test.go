package http

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"ask-io/internal/domain"
	"ask-io/internal/email"
	"ask-io/internal/service"
)

type mockOTPRepo struct {
	mu    sync.Mutex
	codes []domain.OneTimeCode
}

func (m *mockOTPRepo) Create(_ context.Context, code domain.OneTimeCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *mockOTPRepo) LatestActive(_ context.Context, emailAddr string, now time.Time) (domain.OneTimeCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.Email == emailAddr && !c.Consumed && !now.After(c.ExpiresAt) {
			return c, nil
		}
	}
	return domain.OneTimeCode{}, pgx.ErrNoRows
}

func (m *mockOTPRepo) IncrementAttempts(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.codes {
		if m.codes[i].ID == id {
			m.codes[i].Attempts++
		}
	}
	return nil
}

func (m *mockOTPRepo) MarkConsumed(_ context.Context, id string, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.codes {
		if m.codes[i].ID == id && !m.codes[i].Consumed {
			m.codes[i].Consumed = true
			return true, nil
		}
	}
	return false, nil
}

type mockCreditRepo struct {
	accounts map[string]domain.CreditAccount
}

func (m *mockCreditRepo) GetByUserID(_ context.Context, userID string) (domain.CreditAccount, error) {
	a, ok := m.accounts[userID]
	if !ok {
		return domain.CreditAccount{}, pgx.ErrNoRows
	}
	return a, nil
}

func (m *mockCreditRepo) CreateIfMissing(_ context.Context, account domain.CreditAccount) error {
	if _, ok := m.accounts[account.UserID]; !ok {
		m.accounts[account.UserID] = account
	}
	return nil
}

func (m *mockCreditRepo) IncrementUsed(_ context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, error) {
	a, ok := m.accounts[userID]
	if !ok {
		return domain.CreditAccount{}, pgx.ErrNoRows
	}
	a.UsedCredits += amount
	a.LastUpdated = at
	m.accounts[userID] = a
	return a, nil
}

func (m *mockCreditRepo) IncrementTotal(_ context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, error) {
	a, ok := m.accounts[userID]
	if !ok {
		return domain.CreditAccount{}, pgx.ErrNoRows
	}
	a.TotalCredits += amount
	a.LastUpdated = at
	m.accounts[userID] = a
	return a, nil
}

func (m *mockCreditRepo) ChargeIfAvailable(_ context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, bool, error) {
	a, ok := m.accounts[userID]
	if !ok || a.TotalCredits-a.UsedCredits < amount {
		return domain.CreditAccount{}, false, nil
	}
	a.UsedCredits += amount
	a.LastUpdated = at
	m.accounts[userID] = a
	return a, true, nil
}

type mockUsageRepo struct {
	records []domain.CreditUsageRecord
}

func (m *mockUsageRepo) Create(_ context.Context, r domain.CreditUsageRecord) error {
	m.records = append(m.records, r)
	return nil
}

func (m *mockUsageRepo) ListByUserID(_ context.Context, userID string) ([]domain.CreditUsageRecord, error) {
	out := []domain.CreditUsageRecord{}
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

type mockProfileRepo struct {
	byID map[string]domain.Profile
}

func (m *mockProfileRepo) Create(_ context.Context, p domain.Profile) error {
	m.byID[p.ID] = p
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (domain.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return domain.Profile{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockProfileRepo) GetByEmail(_ context.Context, emailAddr string) (domain.Profile, error) {
	for _, p := range m.byID {
		if p.Email == emailAddr {
			return p, nil
		}
	}
	return domain.Profile{}, pgx.ErrNoRows
}

func (m *mockProfileRepo) Update(_ context.Context, p domain.Profile) error {
	if _, ok := m.byID[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[p.ID] = p
	return nil
}

func (m *mockProfileRepo) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	p, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.EmailVerifiedAt = &at
	m.byID[id] = p
	return nil
}

type mockNotificationRepo struct {
	items []domain.Notification
}

func (m *mockNotificationRepo) Create(_ context.Context, n domain.Notification) error {
	m.items = append(m.items, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	out := []domain.Notification{}
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		n := m.items[i]
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	c := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.Read {
			c++
		}
	}
	return c, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID string, ids []string) (int64, error) {
	var n int64
	for i := range m.items {
		for _, id := range ids {
			if m.items[i].ID == id && m.items[i].UserID == userID && !m.items[i].Read {
				m.items[i].Read = true
				n++
			}
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].Read {
			m.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, userID, id string) (bool, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type mockEmailSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (m *mockEmailSender) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockEmailSender) last() (email.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return email.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type mockLimiter struct {
	allow bool
	retry time.Duration
}

func (m *mockLimiter) Reserve(_ context.Context, _ string) (time.Duration, bool) {
	return m.retry, m.allow
}

type profileDirectory map[string]domain.Profile

func (d profileDirectory) Get(_ context.Context, id string) (domain.Profile, error) {
	p, ok := d[id]
	if !ok {
		return domain.Profile{}, service.ErrProfileNotFound
	}
	return p, nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error {
	return m.err
}
