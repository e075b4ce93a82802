package handlers

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func standaloneProduct(id primitive.ObjectID, name string, price float64, discountPrice *float64, stock int) models.Product {
	return models.Product{
		ID:            id,
		Name:          name,
		ProductType:   models.ProductTypeStandalone,
		Price:         price,
		DiscountPrice: discountPrice,
		Stock:         stock,
		IsActive:      true,
	}
}

func TestBuildCartViewComputesSubtotalFromEffectivePrices(t *testing.T) {
	productID := primitive.NewObjectID()
	products := map[primitive.ObjectID]models.Product{
		productID: standaloneProduct(productID, "Pirate Minifig", 20, floatPtr(15), 10),
	}
	items := []models.CartItem{
		{ProductID: productID, ProductType: models.ProductTypeStandalone, Quantity: 2, AddedAt: time.Now()},
	}

	views, subtotal := buildCartView(items, products, nil)
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].UnitPrice != 15 || views[0].LineTotal != 30 {
		t.Fatalf("unexpected pricing: unit=%v line=%v", views[0].UnitPrice, views[0].LineTotal)
	}
	if !views[0].HasDiscount {
		t.Fatal("expected hasDiscount=true")
	}
	if subtotal != 30 {
		t.Fatalf("expected subtotal 30, got %v", subtotal)
	}
}

func TestBuildCartViewDropsMissingProductsAndSortsNewestFirst(t *testing.T) {
	keptID := primitive.NewObjectID()
	goneID := primitive.NewObjectID()
	newerID := primitive.NewObjectID()
	products := map[primitive.ObjectID]models.Product{
		keptID:  standaloneProduct(keptID, "Knight", 10, nil, 5),
		newerID: standaloneProduct(newerID, "Wizard", 5, nil, 5),
	}

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	items := []models.CartItem{
		{ProductID: keptID, Quantity: 1, AddedAt: older},
		{ProductID: goneID, Quantity: 3, AddedAt: newer},
		{ProductID: newerID, Quantity: 1, AddedAt: newer},
	}

	views, subtotal := buildCartView(items, products, nil)
	if len(views) != 2 {
		t.Fatalf("expected missing product to be dropped, got %d views", len(views))
	}
	if views[0].Name != "Wizard" || views[1].Name != "Knight" {
		t.Fatalf("expected newest-first order, got %q then %q", views[0].Name, views[1].Name)
	}
	if subtotal != 15 {
		t.Fatalf("expected subtotal 15 without the missing product, got %v", subtotal)
	}
}

func TestMergeSyncItemsReplacesAndValidates(t *testing.T) {
	activeID := primitive.NewObjectID()
	variantID := primitive.NewObjectID()
	colorID := primitive.NewObjectID()
	robot := variantProduct("Robot", colorID, 4, 2)
	robot.ID = variantID
	products := map[primitive.ObjectID]models.Product{
		activeID:  standaloneProduct(activeID, "Knight", 10, nil, 5),
		variantID: *robot,
	}

	items := mergeSyncItems([]cartSyncItem{
		{ProductID: activeID.Hex(), Quantity: 2},
		{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},       // unknown product: dropped
		{ProductID: "not-an-id", Quantity: 1},                         // malformed id: dropped
		{ProductID: variantID.Hex(), Quantity: 1, VariantIndex: nil},  // variant type without index: dropped
		{ProductID: variantID.Hex(), Quantity: 1, VariantIndex: intPtr(9)}, // out of range: dropped
		{ProductID: variantID.Hex(), Quantity: 0, VariantIndex: intPtr(1)}, // clamped to 1
		{ProductID: activeID.Hex(), Quantity: 3},                      // merges with first line
	}, products)

	if len(items) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(items))
	}
	if line := findCartLine(items, activeID, nil); line < 0 || items[line].Quantity != 5 {
		t.Fatalf("expected merged quantity 5 for standalone line, got %+v", items)
	}
	if line := findCartLine(items, variantID, intPtr(1)); line < 0 || items[line].Quantity != 1 {
		t.Fatalf("expected clamped quantity 1 for variant line, got %+v", items)
	}
}

func TestMergeSyncItemsEmptyInputYieldsEmptyCart(t *testing.T) {
	if items := mergeSyncItems(nil, nil); len(items) != 0 {
		t.Fatalf("expected empty result, got %d items", len(items))
	}
}
