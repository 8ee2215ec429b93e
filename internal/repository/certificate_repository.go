package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/emi-ledger/internal/domain"
)

type certificateRepository struct {
	db *sqlx.DB
}

func NewCertificateRepository(db *sqlx.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

// Create fails on a second certificate for the same purchase (unique purchase_id)
func (r *certificateRepository) Create(ctx context.Context, certificate *domain.Certificate) error {
	query := r.db.Rebind(`
		INSERT INTO certificates (id, purchase_id, number, issued_at)
		VALUES (?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		certificate.ID,
		certificate.PurchaseID,
		certificate.Number,
		certificate.IssuedAt,
	)
	return err
}

func (r *certificateRepository) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*domain.Certificate, error) {
	query := r.db.Rebind(`SELECT id, purchase_id, number, issued_at FROM certificates WHERE purchase_id = ?`)

	var certificate domain.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, purchaseID); err != nil {
		return nil, err
	}

	return &certificate, nil
}
