package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/smartshop/smartshop-api/models"
)

func seedPendingOrder(t *testing.T, db *gorm.DB, price string, quantity int) *models.Order {
	client := seedClient(t, db, models.TierBasic)
	product := seedProduct(t, db, "Bulk Item", price, quantity*2)

	order, err := NewOrderService(db).CreateOrder(CreateOrderRequest{
		ClientID: client.ID,
		Items:    []CreateOrderItemRequest{{ProductID: product.ID, Quantity: quantity}},
	})
	if err != nil {
		t.Fatalf("Failed to seed order: %v", err)
	}
	return order
}

func TestCreatePayment_CashSettlesImmediately(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	// 100 sub-total, 20% tax: gross 120.00
	order := seedPendingOrder(t, db, "100.00", 1)

	payment, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("120.00"),
		Method:  models.PaymentMethodCash,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSettled, payment.Status)
	assert.NotNil(t, payment.SettledAt)
	assert.Equal(t, 1, payment.SequenceNumber)
	assert.Regexp(t, `^CSH-\d+-1-[0-9a-f]{8}$`, payment.Reference)

	// The order is fully paid right away
	fresh, err := NewOrderService(db).GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.True(t, fresh.AmountPaid.Equal(d("120.00")))
	assert.True(t, fresh.AmountRemaining.IsZero())
	assert.True(t, fresh.IsFullyPaid())
}

func TestCreatePayment_ChequeStartsPending(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	order := seedPendingOrder(t, db, "100.00", 1)
	due := time.Now().Add(30 * 24 * time.Hour)

	payment, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("120.00"),
		Method:  models.PaymentMethodCheque,
		Bank:    "First National",
		DueDate: &due,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Nil(t, payment.SettledAt)
	assert.Equal(t, "First National", payment.Bank)

	// Pending payments do not count towards the order
	fresh, err := NewOrderService(db).GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.True(t, fresh.AmountPaid.IsZero())
	assert.True(t, fresh.AmountRemaining.Equal(d("120.00")))
	assert.False(t, fresh.IsFullyPaid())
}

func TestCreatePayment_CashCeiling(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	// 25000 sub-total, gross 30000.00
	order := seedPendingOrder(t, db, "25000.00", 1)

	// Cash exactly at the ceiling is accepted and settles
	payment, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("20000.00"),
		Method:  models.PaymentMethodCash,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSettled, payment.Status)

	// One cent over the ceiling is refused
	_, err = svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("10000.00"),
		Method:  models.PaymentMethodCash,
	})
	assert.NoError(t, err)

	order2 := seedPendingOrder(t, db, "25000.00", 1)
	_, err = svc.CreatePayment(CreatePaymentRequest{
		OrderID: order2.ID,
		Amount:  d("20000.01"),
		Method:  models.PaymentMethodCash,
	})
	var be *BusinessError
	if assert.ErrorAs(t, err, &be) {
		assert.Equal(t, "CASH_CEILING_EXCEEDED", be.Code)
	}

	// The ceiling does not apply to transfers
	_, err = svc.CreatePayment(CreatePaymentRequest{
		OrderID: order2.ID,
		Amount:  d("20000.01"),
		Method:  models.PaymentMethodTransfer,
	})
	assert.NoError(t, err)
}

func TestCreatePayment_Validation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	order := seedPendingOrder(t, db, "100.00", 1)

	tests := []struct {
		name         string
		req          CreatePaymentRequest
		expectedCode string
		notFound     bool
	}{
		{
			name:         "Unknown order",
			req:          CreatePaymentRequest{OrderID: 9999, Amount: d("10.00"), Method: models.PaymentMethodCash},
			expectedCode: "ORDER_NOT_FOUND",
			notFound:     true,
		},
		{
			name:         "Zero amount",
			req:          CreatePaymentRequest{OrderID: order.ID, Amount: decimal.Zero, Method: models.PaymentMethodCash},
			expectedCode: "INVALID_AMOUNT",
		},
		{
			name:         "Negative amount",
			req:          CreatePaymentRequest{OrderID: order.ID, Amount: d("-5.00"), Method: models.PaymentMethodCash},
			expectedCode: "INVALID_AMOUNT",
		},
		{
			name:         "More than 2 decimal places",
			req:          CreatePaymentRequest{OrderID: order.ID, Amount: d("10.001"), Method: models.PaymentMethodCash},
			expectedCode: "INVALID_AMOUNT",
		},
		{
			name:         "Overpayment",
			req:          CreatePaymentRequest{OrderID: order.ID, Amount: d("120.01"), Method: models.PaymentMethodCash},
			expectedCode: "AMOUNT_EXCEEDS_REMAINING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePayment(tt.req)

			if tt.notFound {
				var nf *NotFoundError
				if assert.ErrorAs(t, err, &nf) {
					assert.Equal(t, tt.expectedCode, nf.Code)
				}
			} else {
				var be *BusinessError
				if assert.ErrorAs(t, err, &be) {
					assert.Equal(t, tt.expectedCode, be.Code)
				}
			}
		})
	}

	// No payments survived the failed attempts
	var count int64
	db.Model(&models.Payment{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreatePayment_OrderNotPending(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)
	orders := NewOrderService(db)

	order := seedPendingOrder(t, db, "50.00", 1)
	_, err := orders.CancelOrder(order.ID)
	assert.NoError(t, err)

	_, err = svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("10.00"),
		Method:  models.PaymentMethodCash,
	})
	var be *BusinessError
	if assert.ErrorAs(t, err, &be) {
		assert.Equal(t, "ORDER_NOT_PENDING", be.Code)
	}
}

func TestCreatePayment_SequenceNumbers(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	// gross 240.00
	order := seedPendingOrder(t, db, "100.00", 2)

	amounts := []string{"100.00", "80.00", "60.00"}
	for i, amount := range amounts {
		payment, err := svc.CreatePayment(CreatePaymentRequest{
			OrderID: order.ID,
			Amount:  d(amount),
			Method:  models.PaymentMethodCash,
		})
		assert.NoError(t, err)
		assert.Equal(t, i+1, payment.SequenceNumber)
	}

	payments, err := svc.ListPaymentsByOrder(order.ID)
	assert.NoError(t, err)
	assert.Len(t, payments, 3)
	for i, payment := range payments {
		assert.Equal(t, i+1, payment.SequenceNumber)
	}

	// Partial payments sum up and remaining hits zero exactly
	fresh, err := NewOrderService(db).GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.True(t, fresh.AmountPaid.Equal(d("240.00")))
	assert.True(t, fresh.AmountRemaining.IsZero())
	assert.True(t, fresh.AmountPaid.Add(fresh.AmountRemaining).Equal(fresh.GrossTotal))
}

func TestSettlePayment(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	order := seedPendingOrder(t, db, "100.00", 1)

	payment, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("120.00"),
		Method:  models.PaymentMethodTransfer,
	})
	assert.NoError(t, err)

	settled, err := svc.SettlePayment(payment.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSettled, settled.Status)
	assert.NotNil(t, settled.SettledAt)

	// Settlement flows into the order amounts
	fresh, err := NewOrderService(db).GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.True(t, fresh.AmountRemaining.IsZero())

	// Settlement is single shot
	_, err = svc.SettlePayment(payment.ID)
	var be *BusinessError
	if assert.ErrorAs(t, err, &be) {
		assert.Equal(t, "PAYMENT_NOT_PENDING", be.Code)
	}
}

func TestSettlePayment_RecheckedAtMutation(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	// gross 120.00, covered twice over by two pending cheques
	order := seedPendingOrder(t, db, "100.00", 1)

	first, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("120.00"),
		Method:  models.PaymentMethodCheque,
	})
	assert.NoError(t, err)

	second, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("120.00"),
		Method:  models.PaymentMethodCheque,
	})
	assert.NoError(t, err)

	_, err = svc.SettlePayment(first.ID)
	assert.NoError(t, err)

	// The second settlement would push the paid amount past the gross
	// total, so the running balance refuses it and nothing is persisted
	_, err = svc.SettlePayment(second.ID)
	var ce *ConflictError
	if assert.ErrorAs(t, err, &ce) {
		assert.Equal(t, "PAYMENT_CONFLICT", ce.Code)
	}

	freshPayment, err := svc.GetPaymentByID(second.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, freshPayment.Status)

	fresh, err := NewOrderService(db).GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.True(t, fresh.AmountPaid.Equal(d("120.00")))
	assert.True(t, fresh.AmountRemaining.IsZero())
	assert.True(t, fresh.AmountPaid.Add(fresh.AmountRemaining).Equal(fresh.GrossTotal))
}

func TestRejectPayment(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	order := seedPendingOrder(t, db, "100.00", 1)

	payment, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  d("120.00"),
		Method:  models.PaymentMethodCheque,
	})
	assert.NoError(t, err)

	rejected, err := svc.RejectPayment(payment.ID, "insufficient funds")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRejected, rejected.Status)
	assert.Contains(t, rejected.Notes, "Rejected: insufficient funds")

	// Rejected payments never count towards the order
	fresh, err := NewOrderService(db).GetOrderByID(order.ID)
	assert.NoError(t, err)
	assert.True(t, fresh.AmountPaid.IsZero())
	assert.True(t, fresh.AmountRemaining.Equal(d("120.00")))

	// Rejection is single shot too
	_, err = svc.RejectPayment(payment.ID, "again")
	var be *BusinessError
	if assert.ErrorAs(t, err, &be) {
		assert.Equal(t, "PAYMENT_NOT_PENDING", be.Code)
	}

	// A rejected payment cannot be settled afterwards
	_, err = svc.SettlePayment(payment.ID)
	if assert.ErrorAs(t, err, &be) {
		assert.Equal(t, "PAYMENT_NOT_PENDING", be.Code)
	}
}

func TestListPaymentsByOrder_UnknownOrder(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	_, err := svc.ListPaymentsByOrder(9999)
	var nf *NotFoundError
	if assert.ErrorAs(t, err, &nf) {
		assert.Equal(t, "ORDER_NOT_FOUND", nf.Code)
	}
}

func TestListOverdueCheques(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	// gross 240.00, room for several partial payments
	order := seedPendingOrder(t, db, "100.00", 2)

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)

	overdue, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID, Amount: d("50.00"), Method: models.PaymentMethodCheque, DueDate: &past,
	})
	assert.NoError(t, err)

	_, err = svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID, Amount: d("50.00"), Method: models.PaymentMethodCheque, DueDate: &future,
	})
	assert.NoError(t, err)

	// Overdue but a transfer, not a cheque
	_, err = svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID, Amount: d("50.00"), Method: models.PaymentMethodTransfer, DueDate: &past,
	})
	assert.NoError(t, err)

	// Overdue cheque that was already settled
	settledCheque, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID, Amount: d("50.00"), Method: models.PaymentMethodCheque, DueDate: &past,
	})
	assert.NoError(t, err)
	_, err = svc.SettlePayment(settledCheque.ID)
	assert.NoError(t, err)

	cheques, err := svc.ListOverdueCheques()
	assert.NoError(t, err)
	assert.Len(t, cheques, 1)
	assert.Equal(t, overdue.ID, cheques[0].ID)
}

func TestListPaymentsByStatus(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewPaymentService(db)

	order := seedPendingOrder(t, db, "100.00", 2)

	_, err := svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID, Amount: d("100.00"), Method: models.PaymentMethodCash,
	})
	assert.NoError(t, err)
	_, err = svc.CreatePayment(CreatePaymentRequest{
		OrderID: order.ID, Amount: d("140.00"), Method: models.PaymentMethodCheque,
	})
	assert.NoError(t, err)

	pending, err := svc.ListPaymentsByStatus(models.PaymentStatusPending)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, models.PaymentMethodCheque, pending[0].Method)

	settled, err := svc.ListPaymentsByStatus(models.PaymentStatusSettled)
	assert.NoError(t, err)
	assert.Len(t, settled, 1)
	assert.Equal(t, models.PaymentMethodCash, settled[0].Method)
}
