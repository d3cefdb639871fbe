// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jradiance/jradiance-backend/internal/config"
	"github.com/jradiance/jradiance-backend/internal/models"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

// OrderService owns the order lifecycle: checkout construction, the status
// state machine, cancellation and refund with their stock side effects, and
// the payment status tracker. Every staff mutation resolves permissions
// first and writes its audit row in the same transaction as the change.
type OrderService struct {
	db          *gorm.DB
	cfg         *config.Config
	permissions *PermissionService
	audit       *AuditService
	revalidate  *RevalidateService
}

type OrderFilter struct {
	utils.PaginationParams
	UserID        *uuid.UUID            `json:"user_id,omitempty"`
	Status        *models.OrderStatus   `json:"status,omitempty"`
	PaymentStatus *models.PaymentStatus `json:"payment_status,omitempty"`
	CreatedAfter  *time.Time            `json:"created_after,omitempty"`
	CreatedBefore *time.Time            `json:"created_before,omitempty"`
}

type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items           []CheckoutItem         `json:"items" validate:"required,min=1,dive"`
	ShippingAddress map[string]interface{} `json:"shipping_address" validate:"required"`
	BillingAddress  map[string]interface{} `json:"billing_address,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
}

func NewOrderService(db *gorm.DB, cfg *config.Config, permissions *PermissionService, audit *AuditService, revalidate *RevalidateService) *OrderService {
	return &OrderService{
		db:          db,
		cfg:         cfg,
		permissions: permissions,
		audit:       audit,
		revalidate:  revalidate,
	}
}

// CreateOrder builds an order from the customer's cart lines. Product names
// and prices are frozen into the items, totals are derived, and stock is
// decremented conditionally in the same transaction, so overselling two
// concurrent checkouts of the last unit is impossible.
func (s *OrderService) CreateOrder(userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, invalidf("validation failed: %v", err)
	}

	orderNumber, err := utils.GenerateOrderNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	var order *models.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, line := range req.Items {
			var product models.Product
			if err := tx.First(&product, "id = ?", line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %s: %w", line.ProductID, ErrNotFound)
				}
				return fmt.Errorf("database error: %w", err)
			}

			if !product.IsActive {
				return invalidf("product %q is no longer available", product.Name)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", product.ID, line.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return invalidf("insufficient stock for %q (requested %d)", product.Name, line.Quantity)
			}

			item, err := models.NewOrderItem(&product, line.Quantity)
			if err != nil {
				return invalidf("%v", err)
			}
			items = append(items, item)
		}

		tax, shipping := s.checkoutCosts(items)
		order, err = models.NewOrder(userID, orderNumber, items, tax, shipping,
			models.JSONB(req.ShippingAddress), models.JSONB(req.BillingAddress))
		if err != nil {
			return invalidf("%v", err)
		}
		order.Notes = req.Notes

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.revalidate.Paths("/admin/orders")
	return order, nil
}

func (s *OrderService) checkoutCosts(items []models.OrderItem) (tax, shipping float64) {
	var subtotal float64
	for _, item := range items {
		subtotal += item.TotalPrice
	}

	tax = subtotal * s.cfg.Checkout.TaxRate
	shipping = s.cfg.Checkout.FlatShippingCost
	if subtotal >= s.cfg.Checkout.FreeShippingThreshold {
		shipping = 0
	}
	return tax, shipping
}

// GetOrders lists orders for the admin area.
func (s *OrderService) GetOrders(actorID uuid.UUID, filter OrderFilter) ([]models.Order, int64, error) {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return nil, 0, err
	}
	if !perms.ManageOrders {
		return nil, 0, ErrPermissionDenied
	}

	query := s.db.Model(&models.Order{}).Preload("Items").Preload("User")

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if filter.Search != "" {
		query = query.Where("order_number ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "total_amount", "status", "payment_status", "order_number"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// GetOrder returns one order with its items.
func (s *OrderService) GetOrder(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").Preload("User").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &order, nil
}

// GetUserOrders lists a customer's own orders, newest first.
func (s *OrderService) GetUserOrders(userID uuid.UUID, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Preload("Items").Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "total_amount", "status"})
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderStatus moves an order along the lifecycle graph. Validation
// runs against the freshly read persisted status, and the write is
// conditional on that same status, so two admins racing on one order cannot
// both win. Generic updates never touch stock; that side effect belongs to
// CancelOrder and ProcessRefund alone.
func (s *OrderService) UpdateOrderStatus(actorID, orderID uuid.UUID, next models.OrderStatus) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageOrders {
		return ErrPermissionDenied
	}

	if !next.Valid() {
		return invalidf("unknown order status %q", next)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !order.Status.CanTransitionTo(next) {
			return invalidf("cannot change order status from %q to %q", order.Status, next)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(map[string]interface{}{
				"status":     next,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return s.audit.Record(tx, &actorID, "order_status_updated", "order", &orderID,
			models.JSONB{"old_status": order.Status, "new_status": next})
	})
	if err != nil {
		return err
	}

	s.revalidate.Paths("/admin/orders", "/orders/"+orderID.String())
	return nil
}

// CancelOrder is the only path into the cancelled state that restores stock.
// Legal from pending and confirmed only.
func (s *OrderService) CancelOrder(actorID, orderID uuid.UUID, reason string) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageOrders {
		return ErrPermissionDenied
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !order.Status.Cancellable() {
			return invalidf("cannot cancel order in status %q", order.Status)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(map[string]interface{}{
				"status":     models.OrderStatusCancelled,
				"notes":      appendNote(order.Notes, "Cancelled: "+reason),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to cancel order: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		// The conditional update above guarantees this runs at most once per
		// order, so restoration cannot double-count on retry.
		if err := restoreStock(tx, order.Items); err != nil {
			return err
		}

		return s.audit.Record(tx, &actorID, "order_cancelled", "order", &orderID,
			models.JSONB{"old_status": order.Status, "new_status": models.OrderStatusCancelled, "reason": reason})
	})
	if err != nil {
		return err
	}

	s.revalidate.Paths("/admin/orders", "/orders/"+orderID.String())
	return nil
}

// ProcessRefund returns a shipped or delivered order. Order status and
// payment status flip together in one conditional update, stock is restored
// once, and the audit row joins the same transaction.
func (s *OrderService) ProcessRefund(actorID, orderID uuid.UUID, amount float64, reason string) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageOrders {
		return ErrPermissionDenied
	}

	var paymentRef string
	var refundAmount float64

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !order.Status.Refundable() {
			return invalidf("cannot refund order in status %q", order.Status)
		}

		refundAmount = amount
		if refundAmount <= 0 || refundAmount > order.TotalAmount {
			refundAmount = order.TotalAmount
		}
		paymentRef = order.PaymentRef

		note := fmt.Sprintf("Refunded %.2f", refundAmount)
		if reason != "" {
			note += ": " + reason
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(map[string]interface{}{
				"status":         models.OrderStatusReturned,
				"payment_status": models.PaymentStatusRefunded,
				"notes":          appendNote(order.Notes, note),
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to process refund: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if err := restoreStock(tx, order.Items); err != nil {
			return err
		}

		return s.audit.Record(tx, &actorID, "order_refunded", "order", &orderID,
			models.JSONB{
				"old_status":         order.Status,
				"new_status":         models.OrderStatusReturned,
				"old_payment_status": order.PaymentStatus,
				"new_payment_status": models.PaymentStatusRefunded,
				"amount":             refundAmount,
				"reason":             reason,
			})
	})
	if err != nil {
		return err
	}

	// Gateway settlement happens after commit; a gateway failure here is
	// reconciled out of band rather than un-returning the order.
	if s.cfg.Payment.StripeSecretKey != "" && paymentRef != "" {
		if err := refundViaGateway(paymentRef, refundAmount); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"order_id":    orderID,
				"payment_ref": paymentRef,
			}).Warn("Gateway refund failed, needs manual reconciliation")
		}
	}

	s.revalidate.Paths("/admin/orders", "/orders/"+orderID.String())
	return nil
}

// UpdatePaymentStatus is the staff-facing payment tracker update. Refunded
// is unreachable here: that state only exists through ProcessRefund, and a
// completed payment cannot be walked back to pending or failed.
func (s *OrderService) UpdatePaymentStatus(actorID, orderID uuid.UUID, next models.PaymentStatus) error {
	perms, err := s.permissions.Resolve(actorID)
	if err != nil {
		return err
	}
	if !perms.ManageOrders {
		return ErrPermissionDenied
	}

	if !next.Valid() {
		return invalidf("unknown payment status %q", next)
	}
	if next == models.PaymentStatusRefunded {
		return invalidf("payment status refunded can only be set by processing a refund")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !order.PaymentStatus.CanTransitionTo(next) {
			return invalidf("cannot change payment status from %q to %q", order.PaymentStatus, next)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, order.PaymentStatus).
			Updates(map[string]interface{}{
				"payment_status": next,
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update payment status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return s.audit.Record(tx, &actorID, "payment_status_updated", "order", &orderID,
			models.JSONB{"old_payment_status": order.PaymentStatus, "new_payment_status": next})
	})
	if err != nil {
		return err
	}

	s.revalidate.Paths("/admin/orders")
	return nil
}

// MarkGatewayPayment applies a payment gateway callback outcome. There is
// no staff actor; the audit row records a nil actor for the gateway.
func (s *OrderService) MarkGatewayPayment(orderID uuid.UUID, next models.PaymentStatus, paymentRef string) error {
	if next != models.PaymentStatusCompleted && next != models.PaymentStatusFailed {
		return invalidf("gateway cannot set payment status %q", next)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		if !order.PaymentStatus.CanTransitionTo(next) {
			return invalidf("cannot change payment status from %q to %q", order.PaymentStatus, next)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, order.PaymentStatus).
			Updates(map[string]interface{}{
				"payment_status": next,
				"payment_ref":    paymentRef,
				"updated_at":     time.Now(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to record gateway payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return s.audit.Record(tx, nil, "payment_gateway_callback", "order", &orderID,
			models.JSONB{"old_payment_status": order.PaymentStatus, "new_payment_status": next, "payment_ref": paymentRef})
	})
}

// restoreStock adds each line's quantity back to its product.
func restoreStock(tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		res := tx.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity))
		if res.Error != nil {
			return fmt.Errorf("failed to restore stock for product %s: %w", item.ProductID, res.Error)
		}
	}
	return nil
}

func appendNote(notes, note string) string {
	if strings.TrimSpace(notes) == "" {
		return note
	}
	return notes + "\n" + note
}
