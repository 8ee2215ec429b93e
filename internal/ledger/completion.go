package ledger

import (
	"github.com/segyhp/emi-ledger/internal/domain"
)

// CompletionResult tells the caller whether the purchase just became fully repaid
type CompletionResult struct {
	JustCompleted  bool
	RemainingCount int
}

// CheckCompletion is evaluated right after a successful ApplyPayment.
//
// priorStatus is the purchase status read before the payment was applied. JustCompleted is
// true only when no installment is left unpaid and the purchase was not completed yet, so
// a caller that retries after marking the purchase completed gets false and does not issue
// a second certificate. An empty schedule never completes.
func CheckCompletion(priorStatus string, schedule []*domain.Installment) CompletionResult {
	remaining := RemainingCount(schedule)

	return CompletionResult{
		JustCompleted:  len(schedule) > 0 && remaining == 0 && priorStatus != domain.PurchaseStatusCompleted,
		RemainingCount: remaining,
	}
}
