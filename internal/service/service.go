package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/internal/repository"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
)

// Clock returns the current time; tests replace it
type Clock func() time.Time

// today is the current moment in the shop's timezone. The ledger compares its calendar date.
func today(now Clock, loc *time.Location) time.Time {
	return now().In(loc)
}

func getPurchase(ctx context.Context, repo repository.PurchaseRepository, id uuid.UUID) (*domain.Purchase, error) {
	purchase, err := repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapPurchaseNotFound(id.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return purchase, nil
}

// customerFor falls back to a placeholder contact so a missing customer row
// never blocks a ledger operation; delivery will fail for channels without an address.
func customerFor(ctx context.Context, repo repository.CustomerRepository, customerID string, logger *logrus.Logger) (*domain.Customer, error) {
	customer, err := repo.GetByID(ctx, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.WithField("customer_id", customerID).Warn("Customer not found, using placeholder contact")
		return &domain.Customer{ID: customerID, Name: "Customer"}, nil
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return customer, nil
}
