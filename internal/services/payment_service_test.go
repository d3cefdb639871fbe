// internal/services/payment_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jradiance/jradiance-backend/internal/models"
)

func TestHandleGatewayCallbackRejectsBadSecret(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)
	payments := NewPaymentService(f.cfg, f.orders)

	err := payments.HandleGatewayCallback(&GatewayCallbackRequest{
		OrderID: f.order.ID,
		Outcome: "paid",
		Secret:  "wrong",
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, models.PaymentStatusPending, f.reloadOrder(t).PaymentStatus)
}

func TestHandleGatewayCallbackPaid(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)
	payments := NewPaymentService(f.cfg, f.orders)

	require.NoError(t, payments.HandleGatewayCallback(&GatewayCallbackRequest{
		OrderID:    f.order.ID,
		Outcome:    "paid",
		PaymentRef: "pi_456",
		Secret:     f.cfg.Payment.CallbackSecret,
	}))

	order := f.reloadOrder(t)
	assert.Equal(t, models.PaymentStatusCompleted, order.PaymentStatus)
	assert.Equal(t, "pi_456", order.PaymentRef)
}

func TestHandleGatewayCallbackFailed(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)
	payments := NewPaymentService(f.cfg, f.orders)

	require.NoError(t, payments.HandleGatewayCallback(&GatewayCallbackRequest{
		OrderID: f.order.ID,
		Outcome: "failed",
		Secret:  f.cfg.Payment.CallbackSecret,
	}))

	assert.Equal(t, models.PaymentStatusFailed, f.reloadOrder(t).PaymentStatus)
}

func TestHandleGatewayCallbackIgnoredOnceCompleted(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusCompleted)
	payments := NewPaymentService(f.cfg, f.orders)

	// A duplicate callback cannot move a completed payment anywhere.
	err := payments.HandleGatewayCallback(&GatewayCallbackRequest{
		OrderID: f.order.ID,
		Outcome: "failed",
		Secret:  f.cfg.Payment.CallbackSecret,
	})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, models.PaymentStatusCompleted, f.reloadOrder(t).PaymentStatus)
}

func TestCreateCheckoutSessionOwnershipAndState(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusPending, models.PaymentStatusPending)
	payments := NewPaymentService(f.cfg, f.orders)
	stranger := createUser(t, f.db, models.RoleCustomer, true)

	_, err := payments.CreateCheckoutSession(stranger.ID, f.order.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateCheckoutSessionRejectsPaidOrder(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusConfirmed, models.PaymentStatusCompleted)
	payments := NewPaymentService(f.cfg, f.orders)

	_, err := payments.CreateCheckoutSession(f.customer.ID, f.order.ID)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateCheckoutSessionRejectsCancelledOrder(t *testing.T) {
	f := newOrderFixture(t, models.OrderStatusCancelled, models.PaymentStatusPending)
	payments := NewPaymentService(f.cfg, f.orders)

	_, err := payments.CreateCheckoutSession(f.customer.ID, f.order.ID)
	assert.ErrorIs(t, err, ErrInvalid)
}
