package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartshop/smartshop-api/models"
)

// DefaultTaxRatePercent is the tax rate applied to orders unless
// overridden through configuration.
var DefaultTaxRatePercent = decimal.NewFromInt(20)

// CreateOrderItemRequest is one line of a cart submission
type CreateOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest is a cart submission
type CreateOrderRequest struct {
	ClientID  uint                     `json:"client_id" binding:"required"`
	Items     []CreateOrderItemRequest `json:"items" binding:"required,dive"`
	PromoCode string                   `json:"promo_code"`
	Notes     string                   `json:"notes"`
}

// OrderService drives the order lifecycle: creation with pricing,
// confirmation, cancellation and rejection. Every operation is a single
// transaction; nothing partial is ever persisted.
type OrderService struct {
	db      *gorm.DB
	taxRate decimal.Decimal
}

// NewOrderService creates an OrderService with the default tax rate
func NewOrderService(db *gorm.DB) *OrderService {
	return NewOrderServiceWithTaxRate(db, DefaultTaxRatePercent)
}

// NewOrderServiceWithTaxRate creates an OrderService with an explicit tax rate
func NewOrderServiceWithTaxRate(db *gorm.DB, taxRate decimal.Decimal) *OrderService {
	return &OrderService{db: db, taxRate: taxRate}
}

// CreateOrder validates and prices a cart into a PENDING order. The client
// must be active, the cart non-empty, every product available and in stock,
// and the promo code (if given) valid. The promo usage counter is
// incremented exactly once, atomically with order persistence. Any failure
// aborts the whole operation.
func (s *OrderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	var order models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.First(&client, req.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("CLIENT_NOT_FOUND", "client not found with id %d", req.ClientID)
			}
			return err
		}

		if !client.IsActive {
			return businessError("CLIENT_INACTIVE", "client %q is inactive and cannot place orders", client.Name)
		}

		if len(req.Items) == 0 {
			return businessError("EMPTY_ORDER", "an order must contain at least one item")
		}

		subTotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.Items))
		for _, line := range req.Items {
			if line.Quantity <= 0 {
				return businessError("INVALID_QUANTITY", "item quantity must be greater than 0")
			}

			var product models.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFound("PRODUCT_NOT_FOUND", "product not found with id %d", line.ProductID)
				}
				return err
			}

			if !product.IsAvailable() {
				return businessError("PRODUCT_UNAVAILABLE", "product %q is no longer available", product.Name)
			}

			if !product.HasEnoughStock(line.Quantity) {
				return businessError("INSUFFICIENT_STOCK",
					"insufficient stock for product %q: requested %d, available %d",
					product.Name, line.Quantity, product.Stock)
			}

			item := models.NewOrderItem(&product, line.Quantity)
			items = append(items, item)
			subTotal = subTotal.Add(item.LineTotal)
		}

		promoRate := decimal.Zero
		var promoCodeID *uint
		if req.PromoCode != "" {
			promo, err := s.redeemPromoCode(tx, req.PromoCode)
			if err != nil {
				return err
			}
			promoRate = decimal.NewFromInt(int64(promo.DiscountPercentage))
			promoCodeID = &promo.ID
		}

		pricing := ComputePricing(subTotal, client.CustomerTier, promoRate, s.taxRate)

		reference, err := s.nextOrderReference(tx)
		if err != nil {
			return err
		}

		now := time.Now()
		order = models.Order{
			Reference:             reference,
			ClientID:              client.ID,
			Items:                 items,
			PromoCodeID:           promoCodeID,
			OrderDate:             now,
			SubTotal:              pricing.SubTotal,
			LoyaltyDiscountRate:   pricing.LoyaltyDiscountRate,
			LoyaltyDiscountAmount: pricing.LoyaltyDiscountAmount,
			PromoDiscountRate:     pricing.PromoDiscountRate,
			PromoDiscountAmount:   pricing.PromoDiscountAmount,
			TotalDiscount:         pricing.TotalDiscount,
			NetAmount:             pricing.NetAmount,
			TaxRate:               pricing.TaxRate,
			TaxAmount:             pricing.TaxAmount,
			GrossTotal:            pricing.GrossTotal,
			AmountPaid:            decimal.Zero,
			AmountRemaining:       pricing.GrossTotal,
			Status:                models.OrderStatusPending,
			ClientTierAtOrder:     client.CustomerTier,
			Notes:                 req.Notes,
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrderByID(order.ID)
}

// redeemPromoCode validates the code and increments its usage counter with
// a guarded update, so the cap is re-checked at mutation time. Two orders
// racing for the last use can never both win.
func (s *OrderService) redeemPromoCode(tx *gorm.DB, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	if err := tx.Where("code = ?", code).First(&promo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("PROMO_NOT_FOUND", "promo code not found: %s", code)
		}
		return nil, err
	}

	if !promo.IsValid() {
		return nil, businessError("PROMO_INVALID", "promo code %q is not valid or has expired", promo.Code)
	}

	res := tx.Model(&models.PromoCode{}).
		Where("id = ? AND active = ?", promo.ID, true).
		Where("max_uses IS NULL OR uses_count < max_uses").
		Update("uses_count", gorm.Expr("uses_count + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, conflict("PROMO_EXHAUSTED", "promo code %q has no uses left", promo.Code)
	}

	return &promo, nil
}

// nextOrderReference generates a unique human-readable order reference from
// a year prefix and the next order sequence.
func (s *OrderService) nextOrderReference(tx *gorm.DB) (string, error) {
	var maxID int64
	if err := tx.Model(&models.Order{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("CMD-%s-%05d", time.Now().Format("2006"), maxID+1), nil
}

// claimPendingTransition flips a PENDING order into a terminal status with a
// guarded update, so the transition is re-checked at mutation time. Two
// callers racing to move the same order out of PENDING can never both win.
func (s *OrderService) claimPendingTransition(tx *gorm.DB, orderID uint, updates map[string]interface{}) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conflict("ORDER_CONFLICT", "order %d was updated concurrently", orderID)
	}
	return nil
}

// ConfirmOrder transitions a fully paid PENDING order to CONFIRMED. The
// status flip is claimed with a guarded update before any side effect, so a
// concurrent confirmation cannot decrement stock or update the client's
// statistics twice. Stock is then decremented for every line item with a
// guarded update that re-checks availability at mutation time, and the
// client's loyalty statistics and tier are updated. Everything happens in
// one transaction.
func (s *OrderService) ConfirmOrder(orderID uint) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("ORDER_NOT_FOUND", "order not found with id %d", orderID)
			}
			return err
		}

		if order.Status != models.OrderStatusPending {
			return businessError("ORDER_NOT_PENDING",
				"cannot confirm an order that is not pending. Current status: %s", order.Status)
		}

		if !order.IsFullyPaid() {
			return businessError("ORDER_NOT_PAID",
				"order cannot be confirmed. Amount remaining to pay: %s", order.AmountRemaining.StringFixed(2))
		}

		now := time.Now()
		err := s.claimPendingTransition(tx, orderID, map[string]interface{}{
			"status":       models.OrderStatusConfirmed,
			"confirmed_at": now,
		})
		if err != nil {
			return err
		}

		for _, item := range order.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND deleted = ? AND stock >= ?", item.ProductID, false, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return conflict("STOCK_CONFLICT",
					"stock for product %q was depleted before confirmation", item.ProductName)
			}
		}

		var client models.Client
		if err := tx.First(&client, order.ClientID).Error; err != nil {
			return err
		}

		client.ApplyOrderStatistics(order.GrossTotal, now)
		return tx.Save(&client).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrderByID(orderID)
}

// CancelOrder transitions a PENDING order to CANCELED. Nothing was ever
// committed, so there are no stock or statistics side effects.
func (s *OrderService) CancelOrder(orderID uint) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("ORDER_NOT_FOUND", "order not found with id %d", orderID)
			}
			return err
		}

		if !order.CanBeCanceled() {
			return businessError("ORDER_NOT_PENDING",
				"cannot cancel this order. Current status: %s", order.Status)
		}

		return s.claimPendingTransition(tx, orderID, map[string]interface{}{
			"status":      models.OrderStatusCanceled,
			"canceled_at": time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrderByID(orderID)
}

// RejectOrder transitions a PENDING order to REJECTED, appending the
// optional reason to the order notes.
func (s *OrderService) RejectOrder(orderID uint, reason string) (*models.Order, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("ORDER_NOT_FOUND", "order not found with id %d", orderID)
			}
			return err
		}

		if order.Status != models.OrderStatusPending {
			return businessError("ORDER_NOT_PENDING",
				"cannot reject an order that is not pending. Current status: %s", order.Status)
		}

		if reason != "" {
			order.AppendNote("Rejected: " + reason)
		}
		return s.claimPendingTransition(tx, orderID, map[string]interface{}{
			"status": models.OrderStatusRejected,
			"notes":  order.Notes,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrderByID(orderID)
}

// GetOrderByID loads an order with its items, payments and relations
func (s *OrderService) GetOrderByID(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Payments").Preload("Client").Preload("PromoCode").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ORDER_NOT_FOUND", "order not found with id %d", orderID)
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderByReference loads an order by its human-readable reference
func (s *OrderService) GetOrderByReference(reference string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Payments").Preload("Client").Preload("PromoCode").
		Where("reference = ?", reference).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("ORDER_NOT_FOUND", "order not found with reference %s", reference)
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders returns a page of orders, most recent first, with the total count
func (s *OrderService) ListOrders(page, limit int) ([]models.Order, int64, error) {
	return s.listOrders(s.db, page, limit)
}

// ListOrdersByClient returns a page of a client's orders
func (s *OrderService) ListOrdersByClient(clientID uint, page, limit int) ([]models.Order, int64, error) {
	var count int64
	if err := s.db.Model(&models.Client{}).Where("id = ?", clientID).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if count == 0 {
		return nil, 0, notFound("CLIENT_NOT_FOUND", "client not found with id %d", clientID)
	}
	return s.listOrders(s.db.Where("client_id = ?", clientID), page, limit)
}

// ListOrdersByStatus returns a page of orders in a given status
func (s *OrderService) ListOrdersByStatus(status models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	return s.listOrders(s.db.Where("status = ?", status), page, limit)
}

func (s *OrderService) listOrders(query *gorm.DB, page, limit int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Session(&gorm.Session{}).Preload("Items").Preload("Client").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
