package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type cartAddRequest struct {
	ProductID    string `json:"productId" binding:"required,objectid"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	VariantIndex *int   `json:"variantIndex"`
}

type cartUpdateRequest struct {
	ProductID    string `json:"productId" binding:"required,objectid"`
	Quantity     int    `json:"quantity" binding:"required"`
	VariantIndex *int   `json:"variantIndex"`
}

type cartSyncItem struct {
	ProductID    string `json:"productId" binding:"required"`
	Quantity     int    `json:"quantity"`
	VariantIndex *int   `json:"variantIndex"`
}

type cartSyncRequest struct {
	Items []cartSyncItem `json:"items"`
}

// cartItemView is a cart line enriched with resolved product attributes and
// server-computed prices.
type cartItemView struct {
	ProductID    string    `json:"productId"`
	ProductType  string    `json:"productType"`
	VariantIndex *int      `json:"variantIndex,omitempty"`
	Name         string    `json:"name"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Quantity     int       `json:"quantity"`
	Stock        int       `json:"stock"`
	BasePrice    float64   `json:"basePrice"`
	UnitPrice    float64   `json:"unitPrice"`
	HasDiscount  bool      `json:"hasDiscount"`
	LineTotal    float64   `json:"lineTotal"`
	AddedAt      time.Time `json:"addedAt"`
}

/* =========================
   DB HELPERS
========================= */

func findCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// saveCartItems persists the item list, deleting the cart document outright
// when it would become empty so "does a cart exist" stays a single lookup.
func saveCartItems(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, items []models.CartItem) error {
	carts := db.Collection("carts")

	if len(items) == 0 {
		_, err := carts.DeleteOne(ctx, bson.M{"userId": userID})
		return err
	}

	now := time.Now()
	_, err := carts.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$set":         bson.M{"items": items, "updatedAt": now},
			"$setOnInsert": bson.M{"userId": userID, "createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func findActiveProduct(ctx context.Context, db *mongo.Database, productID primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := db.Collection("products").FindOne(ctx, bson.M{
		"_id":       productID,
		"isActive":  true,
		"isDeleted": bson.M{"$ne": true},
	}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, productNotFoundError{ProductID: productID}
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func loadActiveProducts(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	products := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	cursor, err := db.Collection("products").Find(ctx, bson.M{
		"_id":       bson.M{"$in": ids},
		"isActive":  true,
		"isDeleted": bson.M{"$ne": true},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		products[product.ID] = product
	}
	return products, cursor.Err()
}

// loadColorNames fetches the color labels referenced by any variant of the
// given products, for display-name resolution.
func loadColorNames(ctx context.Context, db *mongo.Database, products map[primitive.ObjectID]models.Product) (map[primitive.ObjectID]string, error) {
	colorIDs := make([]primitive.ObjectID, 0)
	seen := map[primitive.ObjectID]struct{}{}
	for _, product := range products {
		for _, variant := range product.Variants {
			if _, ok := seen[variant.ColorID]; !ok {
				seen[variant.ColorID] = struct{}{}
				colorIDs = append(colorIDs, variant.ColorID)
			}
			if variant.SecondaryColorID != nil {
				if _, ok := seen[*variant.SecondaryColorID]; !ok {
					seen[*variant.SecondaryColorID] = struct{}{}
					colorIDs = append(colorIDs, *variant.SecondaryColorID)
				}
			}
		}
	}

	names := make(map[primitive.ObjectID]string, len(colorIDs))
	if len(colorIDs) == 0 {
		return names, nil
	}

	cursor, err := db.Collection("colors").Find(ctx, bson.M{"_id": bson.M{"$in": colorIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var color models.Color
		if err := cursor.Decode(&color); err != nil {
			return nil, err
		}
		names[color.ID] = color.Name
	}
	return names, cursor.Err()
}

func cartProductIDs(items []models.CartItem) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(items))
	seen := map[primitive.ObjectID]struct{}{}
	for _, item := range items {
		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

// buildCartView enriches cart lines with resolved attributes, drops lines whose
// product is gone, sorts newest-first, and totals the effective prices.
func buildCartView(items []models.CartItem, products map[primitive.ObjectID]models.Product, colorNames map[primitive.ObjectID]string) ([]cartItemView, float64) {
	views := make([]cartItemView, 0, len(items))
	subtotal := 0.0

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}

		unitPrice := productUnitPrice(product)
		lineTotal := roundMoney(unitPrice * float64(item.Quantity))
		views = append(views, cartItemView{
			ProductID:    item.ProductID.Hex(),
			ProductType:  product.ProductType,
			VariantIndex: item.VariantIndex,
			Name:         resolveDisplayName(&product, item.VariantIndex, colorNames),
			ImageURL:     resolveImageURL(&product, item.VariantIndex),
			Quantity:     item.Quantity,
			Stock:        resolveStock(&product, item.VariantIndex),
			BasePrice:    product.Price,
			UnitPrice:    unitPrice,
			HasDiscount:  hasDiscount(product.Price, product.DiscountPrice),
			LineTotal:    lineTotal,
			AddedAt:      item.AddedAt,
		})
		subtotal += unitPrice * float64(item.Quantity)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].AddedAt.After(views[j].AddedAt)
	})

	return views, roundMoney(subtotal)
}

/* =========================
   HANDLERS
========================= */

// GET /api/cart
func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user context")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := findCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load cart")
			return
		}
		if cart == nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "items": []cartItemView{}, "subtotal": 0.0})
			return
		}

		products, err := loadActiveProducts(ctx, db, cartProductIDs(cart.Items))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load products")
			return
		}
		colorNames, err := loadColorNames(ctx, db, products)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load colors")
			return
		}

		views, subtotal := buildCartView(cart.Items, products, colorNames)
		c.JSON(http.StatusOK, gin.H{"success": true, "items": views, "subtotal": subtotal})
	}
}

// POST /api/cart/items
func AddToCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart/items"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user context")
			return
		}

		var req cartAddRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId", "productId must be a valid id")
			return
		}
		if req.VariantIndex != nil && *req.VariantIndex < 0 {
			respondWithError(c, http.StatusBadRequest, route, "invalid variantIndex", "variantIndex must be >= 0")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := findActiveProduct(ctx, db, productID)
		if err != nil {
			var notFound productNotFoundError
			if errors.As(err, &notFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found", "product is missing or inactive")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load product")
			return
		}

		cart, err := findCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load cart")
			return
		}

		var items []models.CartItem
		if cart != nil {
			items = cart.Items
		}

		stock := resolveStock(product, req.VariantIndex)
		line := findCartLine(items, productID, req.VariantIndex)
		existing := 0
		if line >= 0 {
			existing = items[line].Quantity
		}
		if existing+req.Quantity > stock {
			respondWithError(c, http.StatusBadRequest, route, "max stock reached",
				maxStockError{ProductID: productID, Available: stock, Requested: existing + req.Quantity}.Error())
			return
		}

		now := time.Now()
		if line >= 0 {
			items[line].Quantity += req.Quantity
			items[line].AddedAt = now
		} else {
			items = append(items, models.CartItem{
				ProductID:    productID,
				ProductType:  product.ProductType,
				VariantIndex: req.VariantIndex,
				Quantity:     req.Quantity,
				AddedAt:      now,
			})
		}

		if err := saveCartItems(ctx, db, userID, items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to save cart")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "item added"})
	}
}

// PUT /api/cart/items
func UpdateCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/cart/items"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user context")
			return
		}

		var req cartUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}
		if req.Quantity < 1 {
			respondWithError(c, http.StatusBadRequest, route, "invalid quantity", "quantity must be a positive integer")
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId", "productId must be a valid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := findCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load cart")
			return
		}
		if cart == nil {
			respondWithError(c, http.StatusNotFound, route, "cart not found", "no cart exists for this user")
			return
		}

		line := findCartLine(cart.Items, productID, req.VariantIndex)
		if line < 0 {
			respondWithError(c, http.StatusNotFound, route, "item not in cart", "no matching cart line")
			return
		}

		// The product may have changed since the item was added, so the stock
		// ceiling is re-resolved at update time.
		product, err := findActiveProduct(ctx, db, productID)
		if err != nil {
			var notFound productNotFoundError
			if errors.As(err, &notFound) {
				respondWithError(c, http.StatusNotFound, route, "product not found", "product is missing or inactive")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load product")
			return
		}

		stock := resolveStock(product, req.VariantIndex)
		if req.Quantity > stock {
			respondWithError(c, http.StatusBadRequest, route, "max stock reached",
				maxStockError{ProductID: productID, Available: stock, Requested: req.Quantity}.Error())
			return
		}

		cart.Items[line].Quantity = req.Quantity
		if err := saveCartItems(ctx, db, userID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to save cart")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "item updated"})
	}
}

// DELETE /api/cart/items?productId=...&variantIndex=...
func RemoveCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/items"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user context")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Query("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId", "productId must be a valid id")
			return
		}
		variantIndex, err := parseVariantIndex(c.Query("variantIndex"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid variantIndex", err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := findCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load cart")
			return
		}
		if cart == nil {
			respondWithError(c, http.StatusNotFound, route, "cart not found", "no cart exists for this user")
			return
		}

		kept := make([]models.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.ProductID == productID && sameVariant(item.VariantIndex, variantIndex) {
				continue
			}
			kept = append(kept, item)
		}

		if err := saveCartItems(ctx, db, userID, kept); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to save cart")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "item removed"})
	}
}

// DELETE /api/cart
func ClearCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user context")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if _, err := db.Collection("carts").DeleteOne(ctx, bson.M{"userId": userID}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to clear cart")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "cart cleared"})
	}
}

// POST /api/cart/sync
//
// Replaces the server cart wholesale with the client-held guest cart. Lines
// whose product is missing, inactive, or whose variant no longer resolves are
// dropped silently rather than reported per-item.
func SyncCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart/sync"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user context")
			return
		}

		var req cartSyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		ids := make([]primitive.ObjectID, 0, len(req.Items))
		for _, item := range req.Items {
			if id, err := primitive.ObjectIDFromHex(item.ProductID); err == nil {
				ids = append(ids, id)
			}
		}

		products, err := loadActiveProducts(ctx, db, ids)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load products")
			return
		}

		items := mergeSyncItems(req.Items, products)
		if err := saveCartItems(ctx, db, userID, items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to save cart")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "cart synced", "itemCount": len(items)})
	}
}

// mergeSyncItems validates client lines against current product state and
// collapses duplicate (productId, variantIndex) pairs.
func mergeSyncItems(input []cartSyncItem, products map[primitive.ObjectID]models.Product) []models.CartItem {
	items := make([]models.CartItem, 0, len(input))
	now := time.Now()

	for _, raw := range input {
		productID, err := primitive.ObjectIDFromHex(raw.ProductID)
		if err != nil {
			continue
		}
		product, ok := products[productID]
		if !ok {
			continue
		}

		variantIndex := raw.VariantIndex
		if product.ProductType == models.ProductTypeStandalone {
			variantIndex = nil
		} else if variantAt(&product, variantIndex) == nil {
			continue
		}

		quantity := raw.Quantity
		if quantity < 1 {
			quantity = 1
		}

		if line := findCartLine(items, productID, variantIndex); line >= 0 {
			items[line].Quantity += quantity
			continue
		}
		items = append(items, models.CartItem{
			ProductID:    productID,
			ProductType:  product.ProductType,
			VariantIndex: variantIndex,
			Quantity:     quantity,
			AddedAt:      now,
		})
	}

	return items
}
