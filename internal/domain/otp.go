package domain

import "time"

// OneTimeCode representa un codigo de verificacion enviado por email.
type OneTimeCode struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	CodeHash   string     `json:"-"`
	Attempts   int        `json:"attempts"`
	Consumed   bool       `json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsExpired indica si el codigo ya no es valido en el instante dado.
func (c OneTimeCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
