package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/emi-ledger/internal/domain"
)

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := r.db.Rebind(`
		INSERT INTO customers (id, name, mobile, email, address)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.Name,
		customer.Mobile,
		customer.Email,
		customer.Address,
	)
	return err
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	query := r.db.Rebind(`SELECT id, name, mobile, email, address FROM customers WHERE id = ?`)

	var customer domain.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		return nil, err
	}

	return &customer, nil
}
