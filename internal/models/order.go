// internal/models/order.go
package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusReturned  OrderStatus = "returned"
)

// orderTransitions is the directed graph of legal direct status updates.
// delivered -> returned is deliberately absent: that edge only exists through
// the refund operation, which also flips the payment status and restores stock.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusReturned},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
	OrderStatusReturned:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether a direct status update from s to next is legal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether the order may still be cancelled outright.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// Refundable reports whether the order is far enough along to be refunded.
func (s OrderStatus) Refundable() bool {
	return s == OrderStatusDelivered || s == OrderStatusShipped
}

// AllOrderStatuses enumerates every lifecycle state, in lifecycle order.
// Reporting uses it to emit complete zero-filled breakdowns.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// paymentTransitions governs direct payment status updates. A completed
// payment can only become refunded, and only through the refund operation,
// so completed has no outgoing edges here. A failed payment may be retried.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted: {},
	PaymentStatusFailed:    {PaymentStatusPending, PaymentStatusCompleted},
	PaymentStatusRefunded:  {},
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	BaseModel
	OrderNumber       string        `json:"order_number" gorm:"uniqueIndex;size:30;not null"`
	UserID            uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	Subtotal          float64       `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	Tax               float64       `json:"tax" gorm:"type:decimal(10,2);not null"`
	ShippingCost      float64       `json:"shipping_cost" gorm:"type:decimal(10,2);not null"`
	TotalAmount       float64       `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	ShippingAddress   JSONB         `json:"shipping_address" gorm:"type:jsonb"`
	BillingAddress    JSONB         `json:"billing_address" gorm:"type:jsonb"`
	Status            OrderStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus     PaymentStatus `json:"payment_status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentRef        string        `json:"payment_ref,omitempty" gorm:"size:255"`
	Notes             string        `json:"notes" gorm:"type:text"`
	EstimatedDelivery *time.Time    `json:"estimated_delivery"`

	// Relationships
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	// ProductName is a snapshot taken at order time; it must not change
	// when the catalog entry is later renamed.
	ProductName string  `json:"product_name" gorm:"size:255;not null"`
	Quantity    int     `json:"quantity" gorm:"not null"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice  float64 `json:"total_price" gorm:"type:decimal(10,2);not null"`
}

// NewOrderItem freezes the product's name and price into an immutable line.
func NewOrderItem(product *Product, quantity int) (OrderItem, error) {
	if quantity < 1 {
		return OrderItem{}, fmt.Errorf("invalid quantity %d for product %q", quantity, product.Name)
	}
	return OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		TotalPrice:  roundCents(float64(quantity) * product.Price),
	}, nil
}

// NewOrder assembles an order in its initial state. The total is derived,
// never accepted from the caller, so total = subtotal + tax + shipping holds
// by construction.
func NewOrder(userID uuid.UUID, orderNumber string, items []OrderItem, tax, shippingCost float64, shippingAddress, billingAddress JSONB) (*Order, error) {
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.TotalPrice
	}
	subtotal = roundCents(subtotal)

	return &Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		Subtotal:        subtotal,
		Tax:             roundCents(tax),
		ShippingCost:    roundCents(shippingCost),
		TotalAmount:     roundCents(subtotal + tax + shippingCost),
		ShippingAddress: shippingAddress,
		BillingAddress:  billingAddress,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusPending,
		Items:           items,
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
