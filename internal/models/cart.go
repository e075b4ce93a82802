package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem is one (product, variant) line in a user's cart. VariantIndex is nil
// for standalone products; at most one line exists per (productId, variantIndex).
type CartItem struct {
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	ProductType  string             `bson:"productType" json:"productType"`
	VariantIndex *int               `bson:"variantIndex,omitempty" json:"variantIndex,omitempty"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	AddedAt      time.Time          `bson:"addedAt" json:"addedAt"`
}

// Cart is the single per-user cart document. It is created lazily on first add
// and deleted outright when emptied or materialized into an order.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
