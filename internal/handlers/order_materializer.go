package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
	"backend/internal/payments"
)

// errDuplicateOrder signals that a concurrent delivery of the same session
// inserted the order first.
var errDuplicateOrder = errors.New("order already recorded for session")

// orderStore is the persistence surface the materializer runs against. The
// mongo implementation is the production path; an in-memory substitute covers
// the idempotency branches in tests.
type orderStore interface {
	findOrderBySession(ctx context.Context, sessionID string) (*models.Order, error)
	insertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error)
	loadCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	loadProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
	loadColors(ctx context.Context, products map[primitive.ObjectID]models.Product) (map[primitive.ObjectID]string, error)
	decrementStock(ctx context.Context, items []models.CartItem, products map[primitive.ObjectID]models.Product)
	deleteCart(ctx context.Context, userID primitive.ObjectID) error
}

type mongoOrderStore struct {
	db *mongo.Database
}

func (s mongoOrderStore) findOrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := s.db.Collection("orders").FindOne(ctx, bson.M{"stripeSessionId": sessionID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s mongoOrderStore) insertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	result, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, errDuplicateOrder
		}
		return primitive.NilObjectID, err
	}
	id, _ := result.InsertedID.(primitive.ObjectID)
	return id, nil
}

func (s mongoOrderStore) loadCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	return findCart(ctx, s.db, userID)
}

func (s mongoOrderStore) loadProducts(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	return loadActiveProducts(ctx, s.db, ids)
}

func (s mongoOrderStore) loadColors(ctx context.Context, products map[primitive.ObjectID]models.Product) (map[primitive.ObjectID]string, error) {
	return loadColorNames(ctx, s.db, products)
}

func (s mongoOrderStore) decrementStock(ctx context.Context, items []models.CartItem, products map[primitive.ObjectID]models.Product) {
	decrementStock(ctx, s.db, items, products)
}

func (s mongoOrderStore) deleteCart(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.db.Collection("carts").DeleteOne(ctx, bson.M{"userId": userID})
	return err
}

// materializeOrder converts a completed checkout session into a persisted
// order exactly once. Both the confirm endpoint and the webhook call it.
func materializeOrder(ctx context.Context, db *mongo.Database, session *stripe.CheckoutSession) (*models.Order, bool, error) {
	return materializeOrderWith(ctx, mongoOrderStore{db: db}, session)
}

// materializeOrderWith holds the whole conversion flow.
//
// The lookup-then-insert pair is the only idempotency guard; the unique index
// on stripeSessionId catches the rare race between two concurrent deliveries,
// and the loser re-reads the winner's order. Stock decrement and cart deletion
// after the insert are not transactional: a crash in between leaves a recorded
// order with stale stock or an uncleared cart, which is logged, not recovered.
func materializeOrderWith(ctx context.Context, store orderStore, session *stripe.CheckoutSession) (*models.Order, bool, error) {
	existing, err := store.findOrderBySession(ctx, session.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if session.Metadata[payments.MetadataOrderType] != payments.OrderTypeProduct {
		return nil, false, errNotProductOrder
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, false, errSessionUnpaid
	}

	userID, err := primitive.ObjectIDFromHex(session.Metadata[payments.MetadataUserID])
	if err != nil {
		return nil, false, fmt.Errorf("invalid userId metadata: %w", err)
	}

	cart, err := store.loadCart(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, false, errCartEmpty
	}

	products, err := store.loadProducts(ctx, cartProductIDs(cart.Items))
	if err != nil {
		return nil, false, err
	}
	colorNames, err := store.loadColors(ctx, products)
	if err != nil {
		return nil, false, err
	}

	items, subtotal, err := buildOrderItems(cart.Items, products, colorNames)
	if err != nil {
		return nil, false, err
	}

	subtotal, tax, total := sessionTotals(session, subtotal)

	now := time.Now()
	order := models.Order{
		UserID:          userID,
		Email:           sessionEmail(session),
		Items:           items,
		Subtotal:        subtotal,
		TaxAmount:       tax,
		TotalAmount:     total,
		Status:          models.OrderStatusPaid,
		ShippingAddress: deriveShippingAddress(session),
		StripeSessionID: session.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if session.PaymentIntent != nil {
		order.StripePaymentIntentID = session.PaymentIntent.ID
	}

	id, err := store.insertOrder(ctx, order)
	if err == errDuplicateOrder {
		// Lost the race against a concurrent delivery of the same session:
		// return the winner's order.
		if winner, lookupErr := store.findOrderBySession(ctx, session.ID); lookupErr == nil && winner != nil {
			return winner, false, nil
		}
		return nil, false, err
	}
	if err != nil {
		return nil, false, err
	}
	order.ID = id

	store.decrementStock(ctx, cart.Items, products)

	if err := store.deleteCart(ctx, userID); err != nil {
		log.Println("[ORDER] [ERROR] cart delete after order failed:", err)
	}

	return &order, true, nil
}

// buildOrderItems snapshots cart lines into immutable order items. Lines whose
// product disappeared or whose variant no longer resolves are skipped — the
// resolver treats those as unavailable, so they must not be charged. If nothing
// remains the order fails instead of recording an empty receipt.
func buildOrderItems(items []models.CartItem, products map[primitive.ObjectID]models.Product, colorNames map[primitive.ObjectID]string) ([]models.OrderItem, float64, error) {
	orderItems := make([]models.OrderItem, 0, len(items))
	subtotal := 0.0

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		if product.ProductType == models.ProductTypeVariant && variantAt(&product, item.VariantIndex) == nil {
			continue
		}

		unitPrice := productUnitPrice(product)
		discount := 0.0
		if product.Discount != nil {
			discount = *product.Discount
		}

		orderItems = append(orderItems, models.OrderItem{
			ProductID:    item.ProductID,
			ProductName:  resolveDisplayName(&product, item.VariantIndex, colorNames),
			VariantIndex: item.VariantIndex,
			Quantity:     item.Quantity,
			BasePrice:    product.Price,
			Discount:     discount,
			UnitPrice:    unitPrice,
			TotalPrice:   roundMoney(unitPrice * float64(item.Quantity)),
			ImageURL:     resolveImageURL(&product, item.VariantIndex),
		})
		subtotal += unitPrice * float64(item.Quantity)
	}

	if len(orderItems) == 0 {
		return nil, 0, errNoOrderableItems
	}
	return orderItems, roundMoney(subtotal), nil
}

// sessionTotals prefers Stripe's authoritative, tax-calculated amounts and
// falls back to the locally summed subtotal when the provider sent none.
func sessionTotals(session *stripe.CheckoutSession, localSubtotal float64) (subtotal, tax, total float64) {
	subtotal = localSubtotal
	total = localSubtotal

	if session.AmountSubtotal > 0 {
		subtotal = roundMoney(float64(session.AmountSubtotal) / 100)
	}
	if session.TotalDetails != nil && session.TotalDetails.AmountTax > 0 {
		tax = roundMoney(float64(session.TotalDetails.AmountTax) / 100)
	}
	if session.AmountTotal > 0 {
		total = roundMoney(float64(session.AmountTotal) / 100)
	}
	return subtotal, tax, total
}

func sessionEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}
	return session.CustomerEmail
}

// deriveShippingAddress reads the session's shipping details, falling back to
// the billing/customer details; nil when neither carries an address.
func deriveShippingAddress(session *stripe.CheckoutSession) *models.ShippingAddress {
	var name string
	var address *stripe.Address

	if session.ShippingDetails != nil && session.ShippingDetails.Address != nil {
		name = session.ShippingDetails.Name
		address = session.ShippingDetails.Address
	} else if session.CustomerDetails != nil && session.CustomerDetails.Address != nil {
		name = session.CustomerDetails.Name
		address = session.CustomerDetails.Address
	}

	if address == nil {
		return nil
	}
	return &models.ShippingAddress{
		Name:       name,
		Line1:      address.Line1,
		Line2:      address.Line2,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
	}
}

// stockField returns the field a purchase decrements, or false when the line
// no longer resolves to purchasable inventory. An unguarded $inc on an
// out-of-range variants index would make Mongo null-pad the array, so stale
// lines are skipped entirely.
func stockField(product models.Product, variantIndex *int) (string, bool) {
	if product.ProductType == models.ProductTypeVariant {
		if variantAt(&product, variantIndex) == nil {
			return "", false
		}
		return fmt.Sprintf("variants.%d.stock", *variantIndex), true
	}
	return "stock", true
}

// decrementStock applies the purchased quantities. No floor clamp: concurrent
// carts over-subscribing the same inventory can drive stock negative, matching
// the storefront's historical behavior. Failures are logged, not retried.
func decrementStock(ctx context.Context, db *mongo.Database, items []models.CartItem, products map[primitive.ObjectID]models.Product) {
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}

		field, ok := stockField(product, item.VariantIndex)
		if !ok {
			continue
		}

		_, err := db.Collection("products").UpdateOne(ctx,
			bson.M{"_id": item.ProductID},
			bson.M{"$inc": bson.M{field: -item.Quantity}},
		)
		if err != nil {
			log.Printf("[ORDER] [ERROR] stock decrement failed for %s: %v", item.ProductID.Hex(), err)
		}
	}
}
