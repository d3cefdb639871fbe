// internal/services/payment_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/jradiance/jradiance-backend/internal/config"
	"github.com/jradiance/jradiance-backend/internal/models"
)

// PaymentService fronts the external payment gateway. The gateway UI is an
// opaque redirect: we create a hosted checkout session, send the shopper
// there, and apply the outcome when the gateway calls back.
type PaymentService struct {
	cfg    *config.Config
	orders *OrderService
}

type CheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type GatewayCallbackRequest struct {
	OrderID    uuid.UUID `json:"order_id" validate:"required"`
	Outcome    string    `json:"outcome" validate:"required,oneof=paid failed"`
	PaymentRef string    `json:"payment_ref,omitempty"`
	Secret     string    `json:"secret,omitempty"`
}

func NewPaymentService(cfg *config.Config, orders *OrderService) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		cfg:    cfg,
		orders: orders,
	}
}

// CreateCheckoutSession builds a hosted gateway checkout for an order the
// shopper owns and has not paid yet.
func (s *PaymentService) CreateCheckoutSession(userID, orderID uuid.UUID) (*CheckoutSessionResponse, error) {
	order, err := s.orders.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, ErrPermissionDenied
	}
	if order.PaymentStatus == models.PaymentStatusCompleted {
		return nil, invalidf("order is already paid")
	}
	if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusReturned {
		return nil, invalidf("cannot pay for an order in status %q", order.Status)
	}

	amountInCents := int64(order.TotalAmount * 100)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Payment.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order " + order.OrderNumber),
					},
					UnitAmount: stripe.Int64(amountInCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.Frontend.BaseURL + "/orders/" + orderID.String() + "?payment=success"),
		CancelURL:  stripe.String(s.cfg.Frontend.BaseURL + "/orders/" + orderID.String() + "?payment=cancelled"),
	}
	params.AddMetadata("order_id", orderID.String())
	params.AddMetadata("order_number", order.OrderNumber)

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSessionResponse{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

// HandleGatewayCallback applies a gateway outcome to the payment tracker.
// The shared secret authenticates the gateway, not a user session.
func (s *PaymentService) HandleGatewayCallback(req *GatewayCallbackRequest) error {
	if s.cfg.Payment.CallbackSecret != "" && req.Secret != s.cfg.Payment.CallbackSecret {
		return ErrPermissionDenied
	}

	status := models.PaymentStatusCompleted
	if req.Outcome == "failed" {
		status = models.PaymentStatusFailed
	}

	return s.orders.MarkGatewayPayment(req.OrderID, status, req.PaymentRef)
}

// refundViaGateway asks the gateway to return money for a settled payment,
// in the payment's original currency.
func refundViaGateway(paymentRef string, amount float64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(int64(amount * 100)),
	}

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("gateway refund failed: %w", err)
	}
	return nil
}
