package handlers

import (
	"errors"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

// unknownProductName is the display fallback when a cart line references a
// product or variant that no longer resolves.
const unknownProductName = "Unknown"

var errInvalidVariantIndex = errors.New("invalid variantIndex")

// parseVariantIndex normalizes the optional variant selector from query/form
// input. Empty, "null" and "undefined" all mean "no variant" — clients have
// historically sent every one of those.
func parseVariantIndex(raw string) (*int, error) {
	value := strings.TrimSpace(raw)
	switch value {
	case "", "null", "undefined":
		return nil, nil
	}
	index, err := strconv.Atoi(value)
	if err != nil || index < 0 {
		return nil, errInvalidVariantIndex
	}
	return &index, nil
}

func sameVariant(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// findCartLine returns the index of the line matching (productID, variantIndex),
// or -1. The cart invariant guarantees at most one match.
func findCartLine(items []models.CartItem, productID primitive.ObjectID, variantIndex *int) int {
	for i, item := range items {
		if item.ProductID == productID && sameVariant(item.VariantIndex, variantIndex) {
			return i
		}
	}
	return -1
}

// variantAt resolves the selected variant, or nil for standalone products,
// missing products, and out-of-range indexes.
func variantAt(product *models.Product, variantIndex *int) *models.ProductVariant {
	if product == nil || product.ProductType != models.ProductTypeVariant || variantIndex == nil {
		return nil
	}
	if *variantIndex < 0 || *variantIndex >= len(product.Variants) {
		return nil
	}
	return &product.Variants[*variantIndex]
}

// resolveDisplayName renders "Name" or "Name - Color[ / SecondaryColor]" for
// variant selections. Unresolvable products come back as "Unknown" rather than
// erroring; callers treat those lines as unavailable.
func resolveDisplayName(product *models.Product, variantIndex *int, colorNames map[primitive.ObjectID]string) string {
	if product == nil {
		return unknownProductName
	}
	variant := variantAt(product, variantIndex)
	if variant == nil {
		return product.Name
	}

	color := colorNames[variant.ColorID]
	if color == "" {
		return product.Name
	}
	label := color
	if variant.SecondaryColorID != nil {
		if secondary := colorNames[*variant.SecondaryColorID]; secondary != "" {
			label += " / " + secondary
		}
	}
	return product.Name + " - " + label
}

func resolveImageURL(product *models.Product, variantIndex *int) string {
	if product == nil {
		return ""
	}
	if variant := variantAt(product, variantIndex); variant != nil {
		if variant.Image != nil {
			return variant.Image.URL
		}
		return ""
	}
	if product.ProductType == models.ProductTypeStandalone && len(product.Images) > 0 {
		return product.Images[0].URL
	}
	return ""
}

// resolveStock returns the purchasable ceiling for a cart line. Anything that
// does not resolve (missing product, variant index out of range, variant type
// without a selection) is 0, which callers must treat as "cannot add".
func resolveStock(product *models.Product, variantIndex *int) int {
	if product == nil {
		return 0
	}
	if product.ProductType == models.ProductTypeVariant {
		variant := variantAt(product, variantIndex)
		if variant == nil {
			return 0
		}
		return variant.Stock
	}
	return product.Stock
}
