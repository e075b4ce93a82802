package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

func intPtr(v int) *int { return &v }

func variantProduct(name string, colorID primitive.ObjectID, stocks ...int) *models.Product {
	variants := make([]models.ProductVariant, 0, len(stocks))
	for i, stock := range stocks {
		variants = append(variants, models.ProductVariant{
			ItemID:  name,
			ColorID: colorID,
			Stock:   stock,
			Image:   &models.ProductImage{URL: "https://cdn.example.com/v" + string(rune('a'+i)) + ".jpg"},
		})
	}
	return &models.Product{
		Name:        name,
		ProductType: models.ProductTypeVariant,
		Variants:    variants,
		IsActive:    true,
	}
}

func TestParseVariantIndexSentinels(t *testing.T) {
	for _, raw := range []string{"", "  ", "null", "undefined"} {
		got, err := parseVariantIndex(raw)
		if err != nil {
			t.Fatalf("parseVariantIndex(%q) returned error: %v", raw, err)
		}
		if got != nil {
			t.Fatalf("parseVariantIndex(%q) expected nil, got %d", raw, *got)
		}
	}
}

func TestParseVariantIndexValues(t *testing.T) {
	got, err := parseVariantIndex("2")
	if err != nil || got == nil || *got != 2 {
		t.Fatalf("parseVariantIndex(\"2\") = %v, %v", got, err)
	}

	for _, raw := range []string{"-1", "abc", "1.5"} {
		if _, err := parseVariantIndex(raw); err == nil {
			t.Fatalf("parseVariantIndex(%q) expected error", raw)
		}
	}
}

func TestSameVariant(t *testing.T) {
	if !sameVariant(nil, nil) {
		t.Fatal("nil/nil should match")
	}
	if sameVariant(nil, intPtr(0)) {
		t.Fatal("nil should not match index 0")
	}
	if !sameVariant(intPtr(1), intPtr(1)) {
		t.Fatal("equal indexes should match")
	}
	if sameVariant(intPtr(1), intPtr(2)) {
		t.Fatal("different indexes should not match")
	}
}

func TestFindCartLineMatchesProductAndVariant(t *testing.T) {
	productID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	items := []models.CartItem{
		{ProductID: productID, VariantIndex: nil, Quantity: 1},
		{ProductID: productID, VariantIndex: intPtr(1), Quantity: 2},
		{ProductID: otherID, VariantIndex: intPtr(1), Quantity: 3},
	}

	if got := findCartLine(items, productID, nil); got != 0 {
		t.Fatalf("expected line 0, got %d", got)
	}
	if got := findCartLine(items, productID, intPtr(1)); got != 1 {
		t.Fatalf("expected line 1, got %d", got)
	}
	if got := findCartLine(items, otherID, nil); got != -1 {
		t.Fatalf("expected -1, got %d", got)
	}
}

func TestResolveStock(t *testing.T) {
	colorID := primitive.NewObjectID()
	product := variantProduct("Space Captain", colorID, 2, 5)

	if got := resolveStock(product, intPtr(1)); got != 5 {
		t.Fatalf("expected variant stock 5, got %d", got)
	}
	if got := resolveStock(product, intPtr(7)); got != 0 {
		t.Fatalf("expected 0 for out-of-range index, got %d", got)
	}
	if got := resolveStock(product, nil); got != 0 {
		t.Fatalf("expected 0 for variant product without selection, got %d", got)
	}
	if got := resolveStock(nil, nil); got != 0 {
		t.Fatalf("expected 0 for missing product, got %d", got)
	}

	standalone := &models.Product{ProductType: models.ProductTypeStandalone, Stock: 9}
	if got := resolveStock(standalone, nil); got != 9 {
		t.Fatalf("expected standalone stock 9, got %d", got)
	}
}

func TestResolveDisplayName(t *testing.T) {
	colorID := primitive.NewObjectID()
	secondaryID := primitive.NewObjectID()
	colors := map[primitive.ObjectID]string{colorID: "Red", secondaryID: "Black"}

	product := variantProduct("Space Captain", colorID, 3)
	product.Variants[0].SecondaryColorID = &secondaryID

	if got := resolveDisplayName(product, intPtr(0), colors); got != "Space Captain - Red / Black" {
		t.Fatalf("unexpected display name %q", got)
	}

	product.Variants[0].SecondaryColorID = nil
	if got := resolveDisplayName(product, intPtr(0), colors); got != "Space Captain - Red" {
		t.Fatalf("unexpected display name %q", got)
	}

	if got := resolveDisplayName(product, nil, colors); got != "Space Captain" {
		t.Fatalf("expected plain name without selection, got %q", got)
	}
	if got := resolveDisplayName(nil, nil, colors); got != unknownProductName {
		t.Fatalf("expected %q for missing product, got %q", unknownProductName, got)
	}
}

func TestResolveImageURL(t *testing.T) {
	colorID := primitive.NewObjectID()
	product := variantProduct("Space Captain", colorID, 3)

	if got := resolveImageURL(product, intPtr(0)); got != "https://cdn.example.com/va.jpg" {
		t.Fatalf("unexpected variant image %q", got)
	}
	if got := resolveImageURL(product, intPtr(5)); got != "" {
		t.Fatalf("expected empty image for out-of-range index, got %q", got)
	}

	standalone := &models.Product{
		ProductType: models.ProductTypeStandalone,
		Images:      []models.ProductImage{{URL: "https://cdn.example.com/s.jpg"}},
	}
	if got := resolveImageURL(standalone, nil); got != "https://cdn.example.com/s.jpg" {
		t.Fatalf("unexpected standalone image %q", got)
	}
	if got := resolveImageURL(&models.Product{ProductType: models.ProductTypeStandalone}, nil); got != "" {
		t.Fatalf("expected empty image for product without images, got %q", got)
	}
}
