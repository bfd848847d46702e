package domain

import (
	"strings"
	"time"
)

// OperationKind identifica una operacion medida en creditos.
type OperationKind string

const (
	OperationTextQuery    OperationKind = "TEXT_QUERY"
	OperationFileAnalysis OperationKind = "FILE_ANALYSIS"
	OperationLinkAnalysis OperationKind = "LINK_ANALYSIS"
)

// OperationKinds lista las operaciones conocidas en orden estable.
var OperationKinds = []OperationKind{
	OperationTextQuery,
	OperationFileAnalysis,
	OperationLinkAnalysis,
}

// Cost devuelve el costo en creditos de la operacion.
func (k OperationKind) Cost() (int, bool) {
	switch k {
	case OperationTextQuery:
		return 1, true
	case OperationFileAnalysis:
		return 5, true
	case OperationLinkAnalysis:
		return 3, true
	default:
		return 0, false
	}
}

// Valid reporta si la operacion pertenece a la tabla de costos.
func (k OperationKind) Valid() bool {
	_, ok := k.Cost()
	return ok
}

// ParseOperationKind normaliza y valida un nombre de operacion.
func ParseOperationKind(raw string) (OperationKind, bool) {
	k := OperationKind(strings.ToUpper(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", false
	}
	return k, true
}

// CreditAccount guarda el saldo prepago de un usuario.
type CreditAccount struct {
	UserID       string    `json:"user_id"`
	TotalCredits int       `json:"total_credits"`
	UsedCredits  int       `json:"used_credits"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Remaining calcula los creditos disponibles; nunca negativo.
func (a CreditAccount) Remaining() int {
	r := a.TotalCredits - a.UsedCredits
	if r < 0 {
		return 0
	}
	return r
}

// CreditUsageRecord es una entrada del historial de consumo.
type CreditUsageRecord struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Operation   OperationKind `json:"operation"`
	CreditsUsed int           `json:"credits_used"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}
