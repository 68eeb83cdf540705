package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/smartshop/smartshop-api/config"
	"github.com/smartshop/smartshop-api/models"
	"github.com/smartshop/smartshop-api/services"
)

// createPaidableOrder seeds a PENDING order with a 120.00 gross total
func createPaidableOrder(t *testing.T, db *gorm.DB) *models.Order {
	client := createTestClient(t, db, models.TierBasic)
	product := createTestProduct(t, db, "Speaker", "100.00", 10)

	order, err := services.NewOrderService(db).CreateOrder(services.CreateOrderRequest{
		ClientID: client.ID,
		Items:    []services.CreateOrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}
	return order
}

func TestCreatePaymentEndpoint(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	order := createPaidableOrder(t, db)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name: "Cash payment settles immediately",
			requestBody: map[string]interface{}{
				"order_id": order.ID,
				"amount":   "60.00",
				"method":   "CASH",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "SETTLED", data["status"])
				assert.NotNil(t, data["settled_at"])
				assert.Equal(t, float64(1), data["sequence_number"])
				assert.Contains(t, data["reference"], "CSH-")
			},
		},
		{
			name: "Cheque payment starts pending",
			requestBody: map[string]interface{}{
				"order_id": order.ID,
				"amount":   "30.00",
				"method":   "CHEQUE",
				"bank":     "First National",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "PENDING", data["status"])
				assert.Nil(t, data["settled_at"])
				assert.Equal(t, float64(2), data["sequence_number"])
				assert.Contains(t, data["reference"], "CHQ-")
			},
		},
		{
			name: "Fail with unsupported method",
			requestBody: map[string]interface{}{
				"order_id": order.ID,
				"amount":   "10.00",
				"method":   "BITCOIN",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with overpayment",
			requestBody: map[string]interface{}{
				"order_id": order.ID,
				"amount":   "999.00",
				"method":   "CASH",
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "AMOUNT_EXCEEDS_REMAINING",
		},
		{
			name: "Fail with unknown order",
			requestBody: map[string]interface{}{
				"order_id": 9999,
				"amount":   "10.00",
				"method":   "CASH",
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  "ORDER_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/payments", CreatePayment)

			w := performJSON(router, http.MethodPost, "/payments", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}

			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestCreatePaymentEndpoint_CashCeiling(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	client := createTestClient(t, db, models.TierBasic)
	product := createTestProduct(t, db, "Industrial Printer", "25000.00", 5)

	order, err := services.NewOrderService(db).CreateOrder(services.CreateOrderRequest{
		ClientID: client.ID,
		Items:    []services.CreateOrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	router := setupTestRouter()
	router.POST("/payments", CreatePayment)

	w := performJSON(router, http.MethodPost, "/payments", map[string]interface{}{
		"order_id": order.ID,
		"amount":   "20000.01",
		"method":   "CASH",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "CASH_CEILING_EXCEEDED")
}

func TestSettlePaymentEndpoint(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	order := createPaidableOrder(t, db)

	payment, err := services.NewPaymentService(db).CreatePayment(services.CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  order.GrossTotal,
		Method:  models.PaymentMethodTransfer,
	})
	assert.NoError(t, err)

	router := setupTestRouter()
	router.POST("/payments/:id/settle", SettlePayment)

	w := performJSON(router, http.MethodPost, fmt.Sprintf("/payments/%d/settle", payment.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "SETTLED", data["status"])

	// Settling twice fails
	w = performJSON(router, http.MethodPost, fmt.Sprintf("/payments/%d/settle", payment.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "PAYMENT_NOT_PENDING")
}

func TestRejectPaymentEndpoint(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	order := createPaidableOrder(t, db)

	payment, err := services.NewPaymentService(db).CreatePayment(services.CreatePaymentRequest{
		OrderID: order.ID,
		Amount:  order.GrossTotal,
		Method:  models.PaymentMethodCheque,
	})
	assert.NoError(t, err)

	router := setupTestRouter()
	router.POST("/payments/:id/reject", RejectPayment)

	w := performJSON(router, http.MethodPost, fmt.Sprintf("/payments/%d/reject", payment.ID),
		map[string]interface{}{"reason": "bounced"})
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "REJECTED", data["status"])
	assert.Contains(t, data["notes"], "Rejected: bounced")
}

func TestListPaymentsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)

	order := createPaidableOrder(t, db)
	svc := services.NewPaymentService(db)

	past := time.Now().Add(-24 * time.Hour)
	_, err := svc.CreatePayment(services.CreatePaymentRequest{
		OrderID: order.ID, Amount: order.GrossTotal, Method: models.PaymentMethodCheque, DueDate: &past,
	})
	assert.NoError(t, err)

	router := setupTestRouter()
	router.GET("/payments", ListPayments)

	// By order
	w := performJSON(router, http.MethodGet, fmt.Sprintf("/payments?order_id=%d", order.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response["data"].([]interface{}), 1)

	// Overdue cheques
	w = performJSON(router, http.MethodGet, "/payments?overdue_cheques=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response["data"].([]interface{}), 1)

	// By status
	w = performJSON(router, http.MethodGet, "/payments?status=SETTLED", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response["data"].([]interface{}), 0)
}
