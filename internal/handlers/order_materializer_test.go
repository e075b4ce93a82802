package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
	"backend/internal/payments"
)

func TestBuildOrderItemsSnapshotsPricing(t *testing.T) {
	productID := primitive.NewObjectID()
	discount := 25.0
	products := map[primitive.ObjectID]models.Product{
		productID: {
			ID:            productID,
			Name:          "Pirate Minifig",
			ProductType:   models.ProductTypeStandalone,
			Price:         20,
			Discount:      &discount,
			DiscountPrice: floatPtr(15),
			Stock:         10,
			Images:        []models.ProductImage{{URL: "https://cdn.example.com/p.jpg"}},
		},
	}
	items := []models.CartItem{
		{ProductID: productID, ProductType: models.ProductTypeStandalone, Quantity: 2, AddedAt: time.Now()},
	}

	orderItems, subtotal, err := buildOrderItems(items, products, nil)
	if err != nil {
		t.Fatalf("buildOrderItems returned error: %v", err)
	}
	if len(orderItems) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(orderItems))
	}

	item := orderItems[0]
	if item.BasePrice != 20 || item.Discount != 25 || item.UnitPrice != 15 {
		t.Fatalf("unexpected pricing snapshot: %+v", item)
	}
	if item.TotalPrice != 30 || subtotal != 30 {
		t.Fatalf("expected line total and subtotal 30, got %v / %v", item.TotalPrice, subtotal)
	}
	if item.ImageURL != "https://cdn.example.com/p.jpg" {
		t.Fatalf("unexpected image url %q", item.ImageURL)
	}
}

func TestBuildOrderItemsFailsWhenNothingResolves(t *testing.T) {
	items := []models.CartItem{
		{ProductID: primitive.NewObjectID(), Quantity: 1, AddedAt: time.Now()},
	}

	_, _, err := buildOrderItems(items, map[primitive.ObjectID]models.Product{}, nil)
	if err != errNoOrderableItems {
		t.Fatalf("expected errNoOrderableItems, got %v", err)
	}
}

func TestSessionTotalsPrefersProviderAmounts(t *testing.T) {
	session := &stripe.CheckoutSession{
		AmountSubtotal: 3000,
		AmountTotal:    3240,
		TotalDetails:   &stripe.CheckoutSessionTotalDetails{AmountTax: 240},
	}

	subtotal, tax, total := sessionTotals(session, 29.5)
	if subtotal != 30 || tax != 2.4 || total != 32.4 {
		t.Fatalf("unexpected totals: %v / %v / %v", subtotal, tax, total)
	}
}

func TestSessionTotalsFallsBackToLocalSubtotal(t *testing.T) {
	subtotal, tax, total := sessionTotals(&stripe.CheckoutSession{}, 29.5)
	if subtotal != 29.5 || tax != 0 || total != 29.5 {
		t.Fatalf("unexpected fallback totals: %v / %v / %v", subtotal, tax, total)
	}
}

func TestDeriveShippingAddressPrefersShippingDetails(t *testing.T) {
	session := &stripe.CheckoutSession{
		ShippingDetails: &stripe.ShippingDetails{
			Name: "Ada Brick",
			Address: &stripe.Address{
				Line1:      "1 Minifig Way",
				City:       "Billund",
				PostalCode: "7190",
				Country:    "DK",
			},
		},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Name:    "Someone Else",
			Address: &stripe.Address{Line1: "other"},
		},
	}

	addr := deriveShippingAddress(session)
	if addr == nil || addr.Name != "Ada Brick" || addr.Line1 != "1 Minifig Way" || addr.Country != "DK" {
		t.Fatalf("unexpected address %+v", addr)
	}
}

func TestDeriveShippingAddressFallsBackToCustomerDetails(t *testing.T) {
	session := &stripe.CheckoutSession{
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Name:    "Ada Brick",
			Address: &stripe.Address{Line1: "2 Castle Rd", Country: "US"},
		},
	}

	addr := deriveShippingAddress(session)
	if addr == nil || addr.Line1 != "2 Castle Rd" {
		t.Fatalf("unexpected address %+v", addr)
	}

	if got := deriveShippingAddress(&stripe.CheckoutSession{}); got != nil {
		t.Fatalf("expected nil address for empty session, got %+v", got)
	}
}

func TestBuildOrderItemsDropsStaleVariantLines(t *testing.T) {
	productID := primitive.NewObjectID()
	colorID := primitive.NewObjectID()
	product := variantProduct("Dragon", colorID, 4)
	product.ID = productID
	product.Price = 20
	products := map[primitive.ObjectID]models.Product{productID: *product}

	// Index 3 pointed at a variant that has since been removed.
	items := []models.CartItem{
		{ProductID: productID, ProductType: models.ProductTypeVariant, VariantIndex: intPtr(0), Quantity: 1, AddedAt: time.Now()},
		{ProductID: productID, ProductType: models.ProductTypeVariant, VariantIndex: intPtr(3), Quantity: 2, AddedAt: time.Now()},
	}

	orderItems, subtotal, err := buildOrderItems(items, products, map[primitive.ObjectID]string{colorID: "Red"})
	if err != nil {
		t.Fatalf("buildOrderItems returned error: %v", err)
	}
	if len(orderItems) != 1 {
		t.Fatalf("expected stale line to be dropped, got %d items", len(orderItems))
	}
	if orderItems[0].VariantIndex == nil || *orderItems[0].VariantIndex != 0 {
		t.Fatalf("expected surviving line to be variant 0, got %+v", orderItems[0])
	}
	if subtotal != 20 {
		t.Fatalf("expected subtotal 20 from the surviving line only, got %v", subtotal)
	}

	stale := []models.CartItem{
		{ProductID: productID, ProductType: models.ProductTypeVariant, VariantIndex: intPtr(3), Quantity: 2, AddedAt: time.Now()},
	}
	if _, _, err := buildOrderItems(stale, products, nil); err != errNoOrderableItems {
		t.Fatalf("expected errNoOrderableItems when only stale lines remain, got %v", err)
	}
}

func TestBuildCheckoutLineItemsSkipsStaleVariantLines(t *testing.T) {
	productID := primitive.NewObjectID()
	colorID := primitive.NewObjectID()
	product := variantProduct("Dragon", colorID, 4)
	product.ID = productID
	product.Price = 20
	products := map[primitive.ObjectID]models.Product{productID: *product}

	items := []models.CartItem{
		{ProductID: productID, ProductType: models.ProductTypeVariant, VariantIndex: intPtr(0), Quantity: 1, AddedAt: time.Now()},
		{ProductID: productID, ProductType: models.ProductTypeVariant, VariantIndex: intPtr(3), Quantity: 2, AddedAt: time.Now()},
	}

	lineItems := buildCheckoutLineItems(items, products, nil)
	if len(lineItems) != 1 {
		t.Fatalf("expected stale variant line to be skipped, got %d items", len(lineItems))
	}
	if got := *lineItems[0].Quantity; got != 1 {
		t.Fatalf("expected the resolvable line's quantity 1, got %d", got)
	}
}

func TestStockFieldGuardsVariantBounds(t *testing.T) {
	colorID := primitive.NewObjectID()
	product := variantProduct("Dragon", colorID, 4)

	field, ok := stockField(*product, intPtr(0))
	if !ok || field != "variants.0.stock" {
		t.Fatalf("expected variants.0.stock, got %q (ok=%v)", field, ok)
	}
	if _, ok := stockField(*product, intPtr(3)); ok {
		t.Fatal("expected out-of-range variant index to be refused")
	}
	if _, ok := stockField(*product, nil); ok {
		t.Fatal("expected missing variant index to be refused")
	}

	standalone := standaloneProduct(primitive.NewObjectID(), "Knight", 20, nil, 5)
	field, ok = stockField(standalone, nil)
	if !ok || field != "stock" {
		t.Fatalf("expected stock for standalone product, got %q (ok=%v)", field, ok)
	}
}

func TestBuildCheckoutLineItemsUsesServerPrices(t *testing.T) {
	productID := primitive.NewObjectID()
	products := map[primitive.ObjectID]models.Product{
		productID: standaloneProduct(productID, "Knight", 19.99, floatPtr(13.39), 5),
	}
	items := []models.CartItem{
		{ProductID: productID, Quantity: 2, AddedAt: time.Now()},
		{ProductID: primitive.NewObjectID(), Quantity: 1, AddedAt: time.Now()},
	}

	lineItems := buildCheckoutLineItems(items, products, nil)
	if len(lineItems) != 1 {
		t.Fatalf("expected inactive line to be skipped, got %d items", len(lineItems))
	}
	if got := *lineItems[0].PriceData.UnitAmount; got != 1339 {
		t.Fatalf("expected unit amount 1339, got %d", got)
	}
	if got := *lineItems[0].Quantity; got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}
	if got := *lineItems[0].PriceData.ProductData.Name; got != "Knight" {
		t.Fatalf("unexpected display name %q", got)
	}
}

// fakeOrderStore is an in-memory orderStore keyed by session id, standing in
// for the orders and carts collections.
type fakeOrderStore struct {
	orders          map[string]models.Order
	cart            *models.Cart
	products        map[primitive.ObjectID]models.Product
	colors          map[primitive.ObjectID]string
	insertLosesRace bool
	stockCalls      int
	cartDeletes     int
}

func (s *fakeOrderStore) findOrderBySession(_ context.Context, sessionID string) (*models.Order, error) {
	if order, ok := s.orders[sessionID]; ok {
		return &order, nil
	}
	return nil, nil
}

func (s *fakeOrderStore) insertOrder(_ context.Context, order models.Order) (primitive.ObjectID, error) {
	if s.insertLosesRace {
		// A concurrent delivery slipped in between the lookup and this
		// insert; its order is what the unique index protects.
		order.ID = primitive.NewObjectID()
		s.orders[order.StripeSessionID] = order
		return primitive.NilObjectID, errDuplicateOrder
	}
	if _, ok := s.orders[order.StripeSessionID]; ok {
		return primitive.NilObjectID, errDuplicateOrder
	}
	order.ID = primitive.NewObjectID()
	s.orders[order.StripeSessionID] = order
	return order.ID, nil
}

func (s *fakeOrderStore) loadCart(_ context.Context, _ primitive.ObjectID) (*models.Cart, error) {
	return s.cart, nil
}

func (s *fakeOrderStore) loadProducts(_ context.Context, _ []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	return s.products, nil
}

func (s *fakeOrderStore) loadColors(_ context.Context, _ map[primitive.ObjectID]models.Product) (map[primitive.ObjectID]string, error) {
	return s.colors, nil
}

func (s *fakeOrderStore) decrementStock(_ context.Context, _ []models.CartItem, _ map[primitive.ObjectID]models.Product) {
	s.stockCalls++
}

func (s *fakeOrderStore) deleteCart(_ context.Context, _ primitive.ObjectID) error {
	s.cartDeletes++
	s.cart = nil
	return nil
}

func paidProductSession(id string, userID primitive.ObjectID) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            id,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: map[string]string{
			payments.MetadataOrderType: payments.OrderTypeProduct,
			payments.MetadataUserID:    userID.Hex(),
		},
	}
}

func sessionStoreFixture(userID primitive.ObjectID) *fakeOrderStore {
	productID := primitive.NewObjectID()
	return &fakeOrderStore{
		orders: map[string]models.Order{},
		cart: &models.Cart{
			UserID: userID,
			Items: []models.CartItem{
				{ProductID: productID, ProductType: models.ProductTypeStandalone, Quantity: 2, AddedAt: time.Now()},
			},
		},
		products: map[primitive.ObjectID]models.Product{
			productID: standaloneProduct(productID, "Knight", 20, nil, 5),
		},
	}
}

func TestMaterializeOrderSecondDeliveryReturnsExistingOrder(t *testing.T) {
	userID := primitive.NewObjectID()
	store := sessionStoreFixture(userID)
	session := paidProductSession("cs_test_once", userID)

	first, created, err := materializeOrderWith(context.Background(), store, session)
	if err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if !created || first.ID.IsZero() {
		t.Fatalf("expected first delivery to create the order, got created=%v order=%+v", created, first)
	}
	if store.stockCalls != 1 {
		t.Fatalf("expected one stock decrement, got %d", store.stockCalls)
	}
	if store.cartDeletes != 1 || store.cart != nil {
		t.Fatal("expected the cart to be gone after materialization")
	}

	second, created, err := materializeOrderWith(context.Background(), store, session)
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if created {
		t.Fatal("second delivery must not create a new order")
	}
	if second.ID != first.ID {
		t.Fatalf("expected the recorded order back, got %s vs %s", second.ID.Hex(), first.ID.Hex())
	}
	if len(store.orders) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(store.orders))
	}
	if store.stockCalls != 1 || store.cartDeletes != 1 {
		t.Fatal("second delivery must not touch stock or carts again")
	}
}

func TestMaterializeOrderDuplicateInsertReturnsWinner(t *testing.T) {
	userID := primitive.NewObjectID()
	store := sessionStoreFixture(userID)
	store.insertLosesRace = true
	session := paidProductSession("cs_test_race", userID)

	order, created, err := materializeOrderWith(context.Background(), store, session)
	if err != nil {
		t.Fatalf("losing the insert race must not fail: %v", err)
	}
	if created {
		t.Fatal("the losing delivery must report created=false")
	}
	if winner := store.orders[session.ID]; order.ID != winner.ID {
		t.Fatalf("expected the winner's order, got %s vs %s", order.ID.Hex(), winner.ID.Hex())
	}
	if store.stockCalls != 0 || store.cartDeletes != 0 {
		t.Fatal("the losing delivery must not decrement stock or delete the cart")
	}
}

func TestMaterializeOrderRejectsUnpaidSession(t *testing.T) {
	userID := primitive.NewObjectID()
	store := sessionStoreFixture(userID)
	session := paidProductSession("cs_test_unpaid", userID)
	session.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid

	if _, _, err := materializeOrderWith(context.Background(), store, session); err != errSessionUnpaid {
		t.Fatalf("expected errSessionUnpaid, got %v", err)
	}
	if len(store.orders) != 0 || store.cart == nil {
		t.Fatal("an unpaid session must leave orders and cart untouched")
	}
}

func TestWebhookAcknowledgesUnprocessableSessions(t *testing.T) {
	// Wrong order type and not-yet-paid sessions can never succeed on
	// redelivery, so the webhook must return 200 for them.
	if !webhookAckable(errNotProductOrder) || !webhookAckable(errSessionUnpaid) {
		t.Fatal("expected unprocessable sessions to be acknowledged")
	}
	if webhookAckable(errCartEmpty) || webhookAckable(errors.New("db down")) {
		t.Fatal("transient failures must surface as errors so the event is redelivered")
	}
}
