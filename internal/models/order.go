package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
	OrderStatusRefunded  = "refunded"
	OrderStatusCancelled = "cancelled"
)

// OrderItem snapshots a purchased line at checkout time. Later product edits or
// deletions never change a recorded order.
type OrderItem struct {
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName  string             `bson:"productName" json:"productName"`
	VariantIndex *int               `bson:"variantIndex,omitempty" json:"variantIndex,omitempty"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	BasePrice    float64            `bson:"basePrice" json:"basePrice"`
	Discount     float64            `bson:"discount" json:"discount"`
	UnitPrice    float64            `bson:"unitPrice" json:"unitPrice"`
	TotalPrice   float64            `bson:"totalPrice" json:"totalPrice"`
	ImageURL     string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// ShippingAddress is derived best-effort from the Stripe session's shipping or
// customer details.
type ShippingAddress struct {
	Name       string `bson:"name,omitempty" json:"name,omitempty"`
	Line1      string `bson:"line1,omitempty" json:"line1,omitempty"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city,omitempty" json:"city,omitempty"`
	State      string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
}

// Order is an immutable receipt. Items and amounts are frozen at creation;
// only Status may transition afterwards. StripeSessionID is the idempotency
// key: one order per checkout session.
type Order struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID                primitive.ObjectID `bson:"userId" json:"userId"`
	Email                 string             `bson:"email,omitempty" json:"email,omitempty"`
	Items                 []OrderItem        `bson:"items" json:"items"`
	Subtotal              float64            `bson:"subtotal" json:"subtotal"`
	TaxAmount             float64            `bson:"taxAmount" json:"taxAmount"`
	TotalAmount           float64            `bson:"totalAmount" json:"totalAmount"`
	Status                string             `bson:"status" json:"status"`
	ShippingAddress       *ShippingAddress   `bson:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	StripeSessionID       string             `bson:"stripeSessionId" json:"stripeSessionId"`
	StripePaymentIntentID string             `bson:"stripePaymentIntentId,omitempty" json:"stripePaymentIntentId,omitempty"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}
