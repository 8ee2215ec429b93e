package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/emi-ledger/internal/domain"
)

const purchaseColumns = `id, customer_id, product_name, total_price, down_payment,
	processing_fee, tds_amount, insurance_amount, documentation_charges, other_charges,
	loan_amount, tenure, interest_rate, installment_amount, start_date, status, created_at, updated_at`

const installmentColumns = `id, purchase_id, sequence, due_date, principal_amount, interest_amount,
	total_amount, late_fee, status, paid_date, created_at`

type purchaseRepository struct {
	db *sqlx.DB
}

func NewPurchaseRepository(db *sqlx.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) CreateWithSchedule(ctx context.Context, purchase *domain.Purchase, schedule []*domain.Installment) error {
	purchaseQuery := r.db.Rebind(`
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	installmentQuery := r.db.Rebind(`
		INSERT INTO installments (` + installmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, purchaseQuery,
		purchase.ID,
		purchase.CustomerID,
		purchase.ProductName,
		purchase.TotalPrice,
		purchase.DownPayment,
		purchase.ProcessingFee,
		purchase.TDSAmount,
		purchase.InsuranceAmount,
		purchase.DocumentationCharges,
		purchase.OtherCharges,
		purchase.LoanAmount,
		purchase.Tenure,
		purchase.InterestRate,
		purchase.InstallmentAmount,
		purchase.StartDate,
		purchase.Status,
		purchase.CreatedAt,
		purchase.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for _, inst := range schedule {
		_, err = tx.ExecContext(ctx, installmentQuery,
			inst.ID,
			inst.PurchaseID,
			inst.Sequence,
			inst.DueDate,
			inst.PrincipalAmount,
			inst.InterestAmount,
			inst.TotalAmount,
			inst.LateFee,
			inst.Status,
			inst.PaidDate,
			inst.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *purchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	query := r.db.Rebind(`SELECT ` + purchaseColumns + ` FROM purchases WHERE id = ?`)

	var purchase domain.Purchase
	if err := r.db.GetContext(ctx, &purchase, query, id); err != nil {
		return nil, err
	}

	return &purchase, nil
}

func (r *purchaseRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Purchase, error) {
	query := r.db.Rebind(`
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE status = ?
		ORDER BY created_at
	`)

	var purchases []*domain.Purchase
	if err := r.db.SelectContext(ctx, &purchases, query, status); err != nil {
		return nil, err
	}

	return purchases, nil
}

// UpdateStatus leaves completed purchases alone; completion is only set by RecordPayment
func (r *purchaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := r.db.Rebind(`UPDATE purchases SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`)

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id, domain.PurchaseStatusCompleted)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *purchaseRepository) GetSchedule(ctx context.Context, purchaseID uuid.UUID) ([]*domain.Installment, error) {
	query := r.db.Rebind(`
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE purchase_id = ?
		ORDER BY sequence
	`)

	var schedule []*domain.Installment
	if err := r.db.SelectContext(ctx, &schedule, query, purchaseID); err != nil {
		return nil, err
	}

	return schedule, nil
}
