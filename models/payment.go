package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment is made
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCheque   PaymentMethod = "CHEQUE"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSettled  PaymentStatus = "SETTLED"
	PaymentStatusRejected PaymentStatus = "REJECTED"
)

// CashPaymentCeiling is the legal ceiling on a single cash settlement.
// Kept as a constant rather than configuration until a second jurisdiction
// needs a different value.
var CashPaymentCeiling = decimal.RequireFromString("20000.00")

// Payment represents a payment recorded against an order. Cash payments
// settle immediately on creation; cheque and transfer payments start
// PENDING and require an explicit settle or reject.
type Payment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderID        uint            `gorm:"not null;uniqueIndex:idx_payments_order_seq" json:"order_id"`
	SequenceNumber int             `gorm:"not null;uniqueIndex:idx_payments_order_seq" json:"sequence_number"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method         PaymentMethod   `gorm:"not null;size:20" json:"method"`
	Status         PaymentStatus   `gorm:"not null;default:'PENDING';size:20" json:"status"`
	PaymentDate    time.Time       `gorm:"not null" json:"payment_date"`
	SettledAt      *time.Time      `json:"settled_at"`
	Reference      string          `gorm:"not null;size:100" json:"reference"`
	Bank           string          `gorm:"size:100" json:"bank"`
	DueDate        *time.Time      `json:"due_date"`
	Notes          string          `gorm:"size:500" json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}

// IsSettled reports whether the payment has been collected
func (p *Payment) IsSettled() bool {
	return p.Status == PaymentStatusSettled
}

// RespectsCashCeiling reports whether the amount is legal for the method
func (p *Payment) RespectsCashCeiling() bool {
	if p.Method == PaymentMethodCash {
		return p.Amount.LessThanOrEqual(CashPaymentCeiling)
	}
	return true
}

// Settle marks the payment as collected. Callers must check the status
// transition is valid first.
func (p *Payment) Settle(at time.Time) {
	p.Status = PaymentStatusSettled
	p.SettledAt = &at
}

// Reject marks the payment as rejected, appending the reason to notes
func (p *Payment) Reject(reason string) {
	p.Status = PaymentStatusRejected
	if reason != "" {
		if p.Notes != "" {
			p.Notes = p.Notes + " | Rejected: " + reason
		} else {
			p.Notes = "Rejected: " + reason
		}
	}
}

// GenerateReference builds the human-readable payment reference embedding
// the method, order id, sequence number and a disambiguating suffix.
func (p *Payment) GenerateReference(orderID uint) {
	var prefix string
	switch p.Method {
	case PaymentMethodCash:
		prefix = "CSH"
	case PaymentMethodCheque:
		prefix = "CHQ"
	case PaymentMethodTransfer:
		prefix = "TRF"
	default:
		prefix = "PAY"
	}
	suffix := uuid.New().String()[:8]
	p.Reference = fmt.Sprintf("%s-%d-%d-%s", prefix, orderID, p.SequenceNumber, suffix)
}
