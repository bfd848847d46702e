package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"ask-io/internal/domain"
	"ask-io/internal/email"
)

type memOTPRepo struct {
	mu        sync.Mutex
	codes     []domain.OneTimeCode
	createErr error
	latestErr error
}

func (m *memOTPRepo) Create(_ context.Context, code domain.OneTimeCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.codes = append(m.codes, code)
	return nil
}

func (m *memOTPRepo) LatestActive(_ context.Context, emailAddr string, now time.Time) (domain.OneTimeCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return domain.OneTimeCode{}, m.latestErr
	}
	for i := len(m.codes) - 1; i >= 0; i-- {
		c := m.codes[i]
		if c.Email == emailAddr && !c.Consumed && !now.After(c.ExpiresAt) {
			return c, nil
		}
	}
	return domain.OneTimeCode{}, pgx.ErrNoRows
}

func (m *memOTPRepo) IncrementAttempts(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.codes {
		if m.codes[i].ID == id {
			m.codes[i].Attempts++
		}
	}
	return nil
}

func (m *memOTPRepo) MarkConsumed(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.codes {
		if m.codes[i].ID == id && !m.codes[i].Consumed {
			m.codes[i].Consumed = true
			m.codes[i].ConsumedAt = &at
			return true, nil
		}
	}
	return false, nil
}

type memCreditRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.CreditAccount
	getErr   error
}

func newMemCreditRepo() *memCreditRepo {
	return &memCreditRepo{accounts: make(map[string]domain.CreditAccount)}
}

func (m *memCreditRepo) GetByUserID(_ context.Context, userID string) (domain.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.CreditAccount{}, m.getErr
	}
	a, ok := m.accounts[userID]
	if !ok {
		return domain.CreditAccount{}, pgx.ErrNoRows
	}
	return a, nil
}

func (m *memCreditRepo) CreateIfMissing(_ context.Context, account domain.CreditAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.UserID]; !ok {
		m.accounts[account.UserID] = account
	}
	return nil
}

func (m *memCreditRepo) IncrementUsed(_ context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return domain.CreditAccount{}, pgx.ErrNoRows
	}
	a.UsedCredits += amount
	a.LastUpdated = at
	m.accounts[userID] = a
	return a, nil
}

func (m *memCreditRepo) IncrementTotal(_ context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return domain.CreditAccount{}, pgx.ErrNoRows
	}
	a.TotalCredits += amount
	a.LastUpdated = at
	m.accounts[userID] = a
	return a, nil
}

func (m *memCreditRepo) ChargeIfAvailable(_ context.Context, userID string, amount int, at time.Time) (domain.CreditAccount, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok || a.TotalCredits-a.UsedCredits < amount {
		return domain.CreditAccount{}, false, nil
	}
	a.UsedCredits += amount
	a.LastUpdated = at
	m.accounts[userID] = a
	return a, true, nil
}

type memUsageRepo struct {
	mu        sync.Mutex
	records   []domain.CreditUsageRecord
	createErr error
}

func (m *memUsageRepo) Create(_ context.Context, r domain.CreditUsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memUsageRepo) ListByUserID(_ context.Context, userID string) ([]domain.CreditUsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.CreditUsageRecord{}
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memProfileRepo struct {
	mu        sync.Mutex
	byID      map[string]domain.Profile
	createErr error
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{byID: make(map[string]domain.Profile)}
}

func (m *memProfileRepo) Create(_ context.Context, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memProfileRepo) GetByID(_ context.Context, id string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.Profile{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memProfileRepo) GetByEmail(_ context.Context, emailAddr string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Email == emailAddr {
			return p, nil
		}
	}
	return domain.Profile{}, pgx.ErrNoRows
}

func (m *memProfileRepo) Update(_ context.Context, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memProfileRepo) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if p.EmailVerifiedAt == nil {
		p.EmailVerifiedAt = &at
		m.byID[id] = p
	}
	return nil
}

type memNotificationRepo struct {
	mu    sync.Mutex
	items []domain.Notification
	limit int
}

func (m *memNotificationRepo) Create(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, n)
	return nil
}

func (m *memNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = limit
	out := []domain.Notification{}
	for i := len(m.items) - 1; i >= 0 && len(out) < limit; i-- {
		n := m.items[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.Read {
			c++
		}
	}
	return c, nil
}

func (m *memNotificationRepo) MarkRead(_ context.Context, userID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && want[m.items[i].ID] && !m.items[i].Read {
			m.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *memNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].Read {
			m.items[i].Read = true
			n++
		}
	}
	return n, nil
}

func (m *memNotificationRepo) Delete(_ context.Context, userID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type memChatHistory struct {
	mu      sync.Mutex
	msgs    []domain.ChatMessage
	saveErr error
}

func (m *memChatHistory) Save(_ context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return domain.ChatMessage{}, m.saveErr
	}
	msg.ID = newID()
	m.msgs = append(m.msgs, msg)
	return msg, nil
}

func (m *memChatHistory) ListByUser(_ context.Context, userID string, limit int64) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.ChatMessage{}
	for _, msg := range m.msgs {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	if int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]email.Message, len(s.sent))
	copy(out, s.sent)
	return out
}
