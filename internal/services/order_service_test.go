// internal/services/order_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jradiance/jradiance-backend/internal/models"
	"github.com/jradiance/jradiance-backend/internal/utils"
)

func TestCreateOrderBuildsOrderAndReservesStock(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)
	orders := NewOrderService(db, cfg, permissions, audit, NewRevalidateService(cfg))

	customer := createUser(t, db, models.RoleCustomer, true)
	serum := createProduct(t, db, "Radiance Serum", 25.00, 10)
	cleanser := createProduct(t, db, "Gentle Cleanser", 12.50, 5)

	order, err := orders.CreateOrder(customer.ID, &CreateOrderRequest{
		Items: []CheckoutItem{
			{ProductID: serum.ID, Quantity: 2},
			{ProductID: cleanser.ID, Quantity: 1},
		},
		ShippingAddress: map[string]interface{}{"city": "Lyon"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Len(t, order.Items, 2)

	// subtotal 62.50, 8% tax 5.00, flat shipping below the free threshold
	assert.Equal(t, 62.50, order.Subtotal)
	assert.Equal(t, 5.00, order.Tax)
	assert.Equal(t, 7.50, order.ShippingCost)
	assert.Equal(t, 75.00, order.TotalAmount)

	var stockedSerum models.Product
	require.NoError(t, db.First(&stockedSerum, "id = ?", serum.ID).Error)
	assert.Equal(t, 8, stockedSerum.StockQuantity)

	var stockedCleanser models.Product
	require.NoError(t, db.First(&stockedCleanser, "id = ?", cleanser.ID).Error)
	assert.Equal(t, 4, stockedCleanser.StockQuantity)
}

func TestCreateOrderFreeShippingOverThreshold(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)
	orders := NewOrderService(db, cfg, permissions, audit, NewRevalidateService(cfg))

	customer := createUser(t, db, models.RoleCustomer, true)
	serum := createProduct(t, db, "Radiance Serum", 60.00, 10)

	order, err := orders.CreateOrder(customer.ID, &CreateOrderRequest{
		Items:           []CheckoutItem{{ProductID: serum.ID, Quantity: 2}},
		ShippingAddress: map[string]interface{}{"city": "Lyon"},
	})
	require.NoError(t, err)

	assert.Equal(t, 120.00, order.Subtotal)
	assert.Equal(t, 0.0, order.ShippingCost)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)
	orders := NewOrderService(db, cfg, permissions, audit, NewRevalidateService(cfg))

	customer := createUser(t, db, models.RoleCustomer, true)
	serum := createProduct(t, db, "Radiance Serum", 25.00, 3)
	cleanser := createProduct(t, db, "Gentle Cleanser", 12.50, 5)

	_, err := orders.CreateOrder(customer.ID, &CreateOrderRequest{
		Items: []CheckoutItem{
			{ProductID: cleanser.ID, Quantity: 2},
			{ProductID: serum.ID, Quantity: 4},
		},
		ShippingAddress: map[string]interface{}{"city": "Lyon"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	// The whole transaction rolled back, including the first line's reservation.
	var stocked models.Product
	require.NoError(t, db.First(&stocked, "id = ?", cleanser.ID).Error)
	assert.Equal(t, 5, stocked.StockQuantity)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderRejectsInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	cfg := testConfig()
	permissions := NewPermissionService(db)
	audit := NewAuditService(db, permissions)
	orders := NewOrderService(db, cfg, permissions, audit, NewRevalidateService(cfg))

	customer := createUser(t, db, models.RoleCustomer, true)
	serum := createProduct(t, db, "Retired Serum", 25.00, 10)
	require.NoError(t, db.Model(serum).UpdateColumn("is_active", false).Error)

	_, err := orders.CreateOrder(customer.ID, &CreateOrderRequest{
		Items:           []CheckoutItem{{ProductID: serum.ID, Quantity: 1}},
		ShippingAddress: map[string]interface{}{"city": "Lyon"},
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateOrderStatusHappyPath(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	require.NoError(t, f.orders.UpdateOrderStatus(f.admin.ID, f.order.ID, models.OrderStatusConfirmed))

	order := f.reloadOrder(t)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.EqualValues(t, 1, f.auditCount(t, "order_status_updated"))
}

func TestUpdateOrderStatusRejectsIllegalTransition(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	err := f.orders.UpdateOrderStatus(f.admin.ID, f.order.ID, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, ErrInvalid)

	// A failed transition leaves the row untouched and writes no audit entry.
	order := f.reloadOrder(t)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Zero(t, f.auditCount(t, "order_status_updated"))
}

func TestUpdateOrderStatusDeliveredToReturnedOnlyViaRefund(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusDelivered, models.PaymentStatusCompleted)

	err := f.orders.UpdateOrderStatus(f.admin.ID, f.order.ID, models.OrderStatusReturned)
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, f.orders.ProcessRefund(f.admin.ID, f.order.ID, 0, "damaged"))
	order := f.reloadOrder(t)
	assert.Equal(t, models.OrderStatusReturned, order.Status)
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	err := f.orders.UpdateOrderStatus(f.admin.ID, f.order.ID, models.OrderStatus("misplaced"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestUpdateOrderStatusDeniedForCustomer(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	err := f.orders.UpdateOrderStatus(f.customer.ID, f.order.ID, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdateOrderStatusDeniedForDeactivatedAdmin(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)
	require.NoError(t, f.db.Model(f.admin).UpdateColumn("is_active", false).Error)

	err := f.orders.UpdateOrderStatus(f.admin.ID, f.order.ID, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	err := f.orders.UpdateOrderStatus(f.admin.ID, f.customer.ID, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelOrderRestoresStockOnce(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusConfirmed, models.PaymentStatusPending)
	before := f.reloadProduct(t).StockQuantity

	require.NoError(t, f.orders.CancelOrder(f.admin.ID, f.order.ID, "customer request"))

	order := f.reloadOrder(t)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.Contains(t, order.Notes, "Cancelled: customer request")
	assert.Equal(t, before+2, f.reloadProduct(t).StockQuantity)
	assert.EqualValues(t, 1, f.auditCount(t, "order_cancelled"))

	// Cancelling again must fail and must not touch stock a second time.
	err := f.orders.CancelOrder(f.admin.ID, f.order.ID, "again")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, before+2, f.reloadProduct(t).StockQuantity)
	assert.EqualValues(t, 1, f.auditCount(t, "order_cancelled"))
}

func TestCancelOrderRejectsShipped(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusShipped, models.PaymentStatusCompleted)

	err := f.orders.CancelOrder(f.admin.ID, f.order.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, models.OrderStatusShipped, f.reloadOrder(t).Status)
}

func TestProcessRefundFlipsBothStatusesAndRestoresStock(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusDelivered, models.PaymentStatusCompleted)
	before := f.reloadProduct(t).StockQuantity

	require.NoError(t, f.orders.ProcessRefund(f.admin.ID, f.order.ID, 0, "unwanted"))

	order := f.reloadOrder(t)
	assert.Equal(t, models.OrderStatusReturned, order.Status)
	assert.Equal(t, models.PaymentStatusRefunded, order.PaymentStatus)
	assert.Contains(t, order.Notes, "Refunded 61.50")
	assert.Equal(t, before+2, f.reloadProduct(t).StockQuantity)
	assert.EqualValues(t, 1, f.auditCount(t, "order_refunded"))

	// Refunding a returned order must fail without another stock restore.
	err := f.orders.ProcessRefund(f.admin.ID, f.order.ID, 0, "again")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, before+2, f.reloadProduct(t).StockQuantity)
}

func TestProcessRefundRejectsPending(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	err := f.orders.ProcessRefund(f.admin.ID, f.order.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestProcessRefundDeniedForCustomer(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusDelivered, models.PaymentStatusCompleted)

	err := f.orders.ProcessRefund(f.customer.ID, f.order.ID, 0, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestUpdatePaymentStatusHappyPath(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	require.NoError(t, f.orders.UpdatePaymentStatus(f.admin.ID, f.order.ID, models.PaymentStatusCompleted))
	assert.Equal(t, models.PaymentStatusCompleted, f.reloadOrder(t).PaymentStatus)
	assert.EqualValues(t, 1, f.auditCount(t, "payment_status_updated"))
}

func TestUpdatePaymentStatusFailedMayRetry(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusFailed)

	require.NoError(t, f.orders.UpdatePaymentStatus(f.admin.ID, f.order.ID, models.PaymentStatusPending))
	assert.Equal(t, models.PaymentStatusPending, f.reloadOrder(t).PaymentStatus)
}

func TestUpdatePaymentStatusCompletedIsFinal(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusConfirmed, models.PaymentStatusCompleted)

	for _, next := range []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusFailed} {
		err := f.orders.UpdatePaymentStatus(f.admin.ID, f.order.ID, next)
		assert.ErrorIs(t, err, ErrInvalid, string(next))
	}
}

func TestUpdatePaymentStatusRefundedUnreachableDirectly(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusDelivered, models.PaymentStatusCompleted)

	err := f.orders.UpdatePaymentStatus(f.admin.ID, f.order.ID, models.PaymentStatusRefunded)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, models.PaymentStatusCompleted, f.reloadOrder(t).PaymentStatus)
}

func TestMarkGatewayPaymentCompletes(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	require.NoError(t, f.orders.MarkGatewayPayment(f.order.ID, models.PaymentStatusCompleted, "pi_123"))

	order := f.reloadOrder(t)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, "pi_123", order.PaymentRef)

	// The gateway has no staff actor; the audit row records a nil actor.
	var entry models.AdminActivityLog
	require.NoError(t, f.db.Where("action = ?", "payment_gateway_callback").First(&entry).Error)
	assert.Nil(t, entry.ActorID)
}

func TestMarkGatewayPaymentRejectsNonTerminalOutcomes(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	for _, next := range []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusRefunded} {
		err := f.orders.MarkGatewayPayment(f.order.ID, next, "pi_123")
		assert.ErrorIs(t, err, ErrInvalid, string(next))
	}
}

func TestGetOrdersRequiresManageOrders(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)

	_, _, err := f.orders.GetOrders(f.customer.ID, OrderFilter{})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	orders, total, err := f.orders.GetOrders(f.admin.ID, OrderFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, orders, 1)
}

func TestGetUserOrdersScopedToOwner(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)
	stranger := createUser(t, f.db, models.RoleCustomer, true)

	orders, total, err := f.orders.GetUserOrders(f.customer.ID, utils.PaginationParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, orders, 1)

	orders, total, err = f.orders.GetUserOrders(stranger.ID, utils.PaginationParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
}
