package domain

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is the No-Objection Certificate issued once a purchase is fully repaid
type Certificate struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PurchaseID uuid.UUID `json:"purchase_id" db:"purchase_id"`
	Number     string    `json:"number" db:"number"`
	IssuedAt   time.Time `json:"issued_at" db:"issued_at"`
}
