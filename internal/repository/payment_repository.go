package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/emi-ledger/internal/domain"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
)

const paymentColumns = `id, installment_id, purchase_id, sequence, amount_paid, late_fee_paid,
	payment_date, method, created_at`

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) RecordPayment(ctx context.Context, installment *domain.Installment, payment *domain.PaymentEvent, markCompleted bool) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Only an unpaid row may transition; a concurrent writer leaves nothing to update
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE installments
		SET status = ?, paid_date = ?, late_fee = ?
		WHERE id = ? AND status <> ?
	`),
		installment.Status,
		installment.PaidDate,
		installment.LateFee,
		installment.ID,
		domain.InstallmentStatusPaid,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, customError.WrapConcurrentUpdate(installment.Sequence)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		payment.ID,
		payment.InstallmentID,
		payment.PurchaseID,
		payment.Sequence,
		payment.AmountPaid,
		payment.LateFeePaid,
		payment.PaymentDate,
		payment.Method,
		payment.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	completed := false
	if markCompleted {
		res, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE purchases
			SET status = ?, updated_at = ?
			WHERE id = ? AND status <> ?
		`),
			domain.PurchaseStatusCompleted,
			time.Now().UTC(),
			payment.PurchaseID,
			domain.PurchaseStatusCompleted,
		)
		if err != nil {
			return false, err
		}
		if affected, err = res.RowsAffected(); err != nil {
			return false, err
		}
		completed = affected == 1
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return completed, nil
}

func (r *paymentRepository) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) ([]*domain.PaymentEvent, error) {
	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE purchase_id = ?
		ORDER BY sequence
	`)

	var payments []*domain.PaymentEvent
	if err := r.db.SelectContext(ctx, &payments, query, purchaseID); err != nil {
		return nil, err
	}

	return payments, nil
}

// GetTotalPaid sums in Go; sqlite keeps amounts as TEXT and would sum them as floats
func (r *paymentRepository) GetTotalPaid(ctx context.Context, purchaseID uuid.UUID) (decimal.Decimal, error) {
	payments, err := r.GetByPurchaseID(ctx, purchaseID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Total())
	}

	return total, nil
}
