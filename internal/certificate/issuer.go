package certificate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/internal/repository"
)

// Issuer produces the No-Objection Certificate for a fully repaid purchase.
// Issue is idempotent: a purchase has at most one certificate and later calls return it.
type Issuer interface {
	Issue(ctx context.Context, purchase *domain.Purchase) (*domain.Certificate, error)
}

// RecordIssuer numbers certificates and stores them. Rendering the document is left to
// whoever reads the stored record.
type RecordIssuer struct {
	repo repository.CertificateRepository
	now  func() time.Time
}

func NewRecordIssuer(repo repository.CertificateRepository) *RecordIssuer {
	return &RecordIssuer{repo: repo, now: time.Now}
}

func (i *RecordIssuer) Issue(ctx context.Context, purchase *domain.Purchase) (*domain.Certificate, error) {
	existing, err := i.repo.GetByPurchaseID(ctx, purchase.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("look up certificate for purchase %s: %w", purchase.ID, err)
	}

	issuedAt := i.now().UTC()
	cert := &domain.Certificate{
		ID:         uuid.New(),
		PurchaseID: purchase.ID,
		Number:     Number(purchase.ID, issuedAt),
		IssuedAt:   issuedAt,
	}

	if err := i.repo.Create(ctx, cert); err != nil {
		// Another caller may have stored it first (unique purchase_id)
		if winner, lookupErr := i.repo.GetByPurchaseID(ctx, purchase.ID); lookupErr == nil {
			return winner, nil
		}
		return nil, fmt.Errorf("store certificate for purchase %s: %w", purchase.ID, err)
	}

	return cert, nil
}

// Number formats a certificate number as NOC-<purchase id>-<unix seconds>
func Number(purchaseID uuid.UUID, issuedAt time.Time) string {
	return fmt.Sprintf("NOC-%s-%d", purchaseID, issuedAt.Unix())
}
