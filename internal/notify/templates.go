package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/emi-ledger/internal/domain"
)

const (
	KindPaymentConfirmation = "payment_confirmation"
	KindPaymentReminder     = "payment_reminder"
	KindLateFee             = "late_fee"
	KindNOC                 = "noc"
)

const dateLayout = "02 Jan 2006"

// Message is a rendered notification addressed to one customer
type Message struct {
	Kind       string
	CustomerID string
	Mobile     string
	Email      string
	Subject    string
	Body       string
}

// Templates renders customer messages signed with the shop name
type Templates struct {
	ShopName string
}

func NewTemplates(shopName string) *Templates {
	return &Templates{ShopName: shopName}
}

func (t *Templates) PaymentConfirmation(c *domain.Customer, amount decimal.Decimal, sequence, remaining int) Message {
	body := fmt.Sprintf(
		"Dear %s, your EMI payment of Rs.%s for installment %d has been received. %d installments remaining. Thank you! - %s",
		c.Name, amount.StringFixed(2), sequence, remaining, t.ShopName,
	)
	return t.message(KindPaymentConfirmation, c, "EMI Payment Received", body)
}

func (t *Templates) Reminder(c *domain.Customer, amount decimal.Decimal, dueDate time.Time) Message {
	body := fmt.Sprintf(
		"Dear %s, reminder: Your EMI of Rs.%s is due on %s. Please make payment on time. - %s",
		c.Name, amount.StringFixed(2), dueDate.Format(dateLayout), t.ShopName,
	)
	return t.message(KindPaymentReminder, c, "Upcoming EMI Reminder", body)
}

func (t *Templates) LateFee(c *domain.Customer, amount, lateFee decimal.Decimal) Message {
	body := fmt.Sprintf(
		"Dear %s, your EMI of Rs.%s is overdue. Late fee of Rs.%s has been added. Please pay immediately. - %s",
		c.Name, amount.StringFixed(2), lateFee.StringFixed(2), t.ShopName,
	)
	return t.message(KindLateFee, c, "Overdue EMI Notification", body)
}

func (t *Templates) NOC(c *domain.Customer, productName, certificateNo string) Message {
	body := fmt.Sprintf(
		"Dear %s, congratulations! You have successfully completed all EMI payments for %s. No Objection Certificate (NOC) is hereby issued. Thank you for your business! - %s",
		c.Name, productName, t.ShopName,
	)
	if certificateNo != "" {
		body += fmt.Sprintf(" Ref: %s", certificateNo)
	}
	return t.message(KindNOC, c, "No Objection Certificate", body)
}

func (t *Templates) message(kind string, c *domain.Customer, subject, body string) Message {
	return Message{
		Kind:       kind,
		CustomerID: c.ID,
		Mobile:     c.Mobile,
		Email:      c.Email,
		Subject:    fmt.Sprintf("%s - %s", subject, t.ShopName),
		Body:       body,
	}
}
