package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartshop/smartshop-api/models"
)

// CreatePaymentRequest records a payment against an order
type CreatePaymentRequest struct {
	OrderID uint                 `json:"order_id" binding:"required"`
	Amount  decimal.Decimal      `json:"amount" binding:"required"`
	Method  models.PaymentMethod `json:"method" binding:"required,oneof=CASH CHEQUE TRANSFER"`
	Bank    string               `json:"bank"`
	DueDate *time.Time           `json:"due_date"`
	Notes   string               `json:"notes"`
}

// PaymentService is the payment ledger: it records payments against
// PENDING orders under the legal cash ceiling and keeps the order's
// paid/remaining amounts consistent with its settled payments.
type PaymentService struct {
	db *gorm.DB
}

// NewPaymentService creates a PaymentService
func NewPaymentService(db *gorm.DB) *PaymentService {
	return &PaymentService{db: db}
}

// CreatePayment records a payment against a PENDING order. The amount must
// be positive, have at most 2 decimal places, not exceed the remaining
// amount, and for cash not exceed the legal ceiling. Cash payments settle
// immediately; cheque and transfer payments start PENDING.
func (s *PaymentService) CreatePayment(req CreatePaymentRequest) (*models.Payment, error) {
	var payment models.Payment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, req.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("ORDER_NOT_FOUND", "order not found with id %d", req.OrderID)
			}
			return err
		}

		if order.Status != models.OrderStatusPending {
			return businessError("ORDER_NOT_PENDING",
				"cannot add a payment to an order that is not pending. Status: %s", order.Status)
		}

		if req.Amount.LessThanOrEqual(decimal.Zero) {
			return businessError("INVALID_AMOUNT", "payment amount must be greater than 0")
		}

		if req.Amount.Exponent() < -2 {
			return businessError("INVALID_AMOUNT", "payment amount cannot have more than 2 decimal places")
		}

		if req.Amount.GreaterThan(order.AmountRemaining) {
			return businessError("AMOUNT_EXCEEDS_REMAINING",
				"payment amount (%s) exceeds the amount remaining to pay (%s)",
				req.Amount.StringFixed(2), order.AmountRemaining.StringFixed(2))
		}

		seq, err := s.nextSequenceNumber(tx, order.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		payment = models.Payment{
			OrderID:        order.ID,
			SequenceNumber: seq,
			Amount:         req.Amount.Round(2),
			Method:         req.Method,
			Status:         models.PaymentStatusPending,
			PaymentDate:    now,
			Bank:           req.Bank,
			DueDate:        req.DueDate,
			Notes:          req.Notes,
		}

		if !payment.RespectsCashCeiling() {
			return businessError("CASH_CEILING_EXCEEDED",
				"a cash payment cannot exceed %s", models.CashPaymentCeiling.StringFixed(2))
		}

		// Cash settles immediately upon creation
		if req.Method == models.PaymentMethodCash {
			payment.Settle(now)
		}

		payment.GenerateReference(order.ID)

		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		if payment.IsSettled() {
			return s.applySettledAmount(tx, order.ID, payment.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// SettlePayment marks a PENDING payment as collected and updates the
// parent order's paid/remaining amounts.
func (s *PaymentService) SettlePayment(paymentID uint) (*models.Payment, error) {
	var payment models.Payment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("PAYMENT_NOT_FOUND", "payment not found with id %d", paymentID)
			}
			return err
		}

		if payment.Status != models.PaymentStatusPending {
			return businessError("PAYMENT_NOT_PENDING",
				"cannot settle a payment that is not pending. Current status: %s", payment.Status)
		}

		payment.Settle(time.Now())
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		return s.applySettledAmount(tx, payment.OrderID, payment.Amount)
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// RejectPayment marks a PENDING payment as rejected, appending the optional
// reason to its notes. Rejected payments never count towards the order.
func (s *PaymentService) RejectPayment(paymentID uint, reason string) (*models.Payment, error) {
	var payment models.Payment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("PAYMENT_NOT_FOUND", "payment not found with id %d", paymentID)
			}
			return err
		}

		if payment.Status != models.PaymentStatusPending {
			return businessError("PAYMENT_NOT_PENDING",
				"cannot reject a payment that is not pending. Current status: %s", payment.Status)
		}

		payment.Reject(reason)
		return tx.Save(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// nextSequenceNumber assigns the next 1-based payment sequence number for
// the order.
func (s *PaymentService) nextSequenceNumber(tx *gorm.DB, orderID uint) (int, error) {
	var maxSeq int64
	err := tx.Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(MAX(sequence_number), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	return int(maxSeq) + 1, nil
}

// applySettledAmount claims a settled amount against the order's running
// balance with a guarded update, re-checked at mutation time. The losing
// side of a settlement race gets a conflict and rolls back, so the order's
// paid and remaining amounts always sum to its gross total.
func (s *PaymentService) applySettledAmount(tx *gorm.DB, orderID uint, amount decimal.Decimal) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND amount_remaining >= ?", orderID, amount).
		Updates(map[string]interface{}{
			"amount_paid":      gorm.Expr("amount_paid + ?", amount),
			"amount_remaining": gorm.Expr("amount_remaining - ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("PAYMENT_CONFLICT",
			"settling %s would exceed the amount remaining on order %d", amount.StringFixed(2), orderID)
	}
	return nil
}

// GetPaymentByID loads a single payment
func (s *PaymentService) GetPaymentByID(paymentID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("PAYMENT_NOT_FOUND", "payment not found with id %d", paymentID)
		}
		return nil, err
	}
	return &payment, nil
}

// ListPaymentsByOrder returns an order's payments in sequence order
func (s *PaymentService) ListPaymentsByOrder(orderID uint) ([]models.Payment, error) {
	var count int64
	if err := s.db.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, notFound("ORDER_NOT_FOUND", "order not found with id %d", orderID)
	}

	var payments []models.Payment
	err := s.db.Where("order_id = ?", orderID).
		Order("sequence_number ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ListPaymentsByStatus returns all payments with a given status
func (s *PaymentService) ListPaymentsByStatus(status models.PaymentStatus) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Where("status = ?", status).
		Order("payment_date ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ListOverdueCheques returns pending cheque payments whose due date has passed
func (s *PaymentService) ListOverdueCheques() ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.Where("method = ? AND status = ? AND due_date IS NOT NULL AND due_date < ?",
		models.PaymentMethodCheque, models.PaymentStatusPending, time.Now()).
		Order("due_date ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
