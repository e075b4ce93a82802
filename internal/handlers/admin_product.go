package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type ProductImageRequest struct {
	URL      string `json:"url" binding:"required"`
	PublicID string `json:"publicId"`
}

type ProductVariantRequest struct {
	ItemID           string               `json:"itemId"`
	ColorID          string               `json:"colorId" binding:"required,objectid"`
	SecondaryColorID *string              `json:"secondaryColorId"`
	Stock            int                  `json:"stock" binding:"min=0"`
	Image            *ProductImageRequest `json:"image"`
}

type ProductCreateRequest struct {
	Name        string   `json:"name" binding:"required"`
	ProductType string   `json:"productType" binding:"required,oneof=standalone variant"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Discount    *float64 `json:"discount"`

	Stock  *int                  `json:"stock"`
	Images []ProductImageRequest `json:"images"`

	Variants []ProductVariantRequest `json:"variants"`

	CategoryID   *string  `json:"categoryId"`
	CollectionID *string  `json:"collectionId"`
	SkillLevelID *string  `json:"skillLevelId"`
	Tags         []string `json:"tags"`
	PieceCount   int      `json:"pieceCount"`
	IsActive     *bool    `json:"isActive"`
}

type ProductUpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Discount    *float64 `json:"discount"`

	Stock  *int                  `json:"stock"`
	Images []ProductImageRequest `json:"images"`

	Variants []ProductVariantRequest `json:"variants"`

	CategoryID   *string  `json:"categoryId"`
	CollectionID *string  `json:"collectionId"`
	SkillLevelID *string  `json:"skillLevelId"`
	Tags         []string `json:"tags"`
	PieceCount   *int     `json:"pieceCount"`
	IsActive     *bool    `json:"isActive"`
}

// validateProductShape enforces that a product carries exactly the fields its
// type allows: standalone products own stock and images, variant products own
// the variants list. Returns an empty string when the shape is fine.
func validateProductShape(productType string, hasStock bool, variantCount int) string {
	switch productType {
	case models.ProductTypeStandalone:
		if variantCount > 0 {
			return "standalone products cannot have variants"
		}
		if !hasStock {
			return "standalone products require a stock value"
		}
	case models.ProductTypeVariant:
		if variantCount == 0 {
			return "variant products require at least one variant"
		}
		if hasStock {
			return "variant products track stock per variant, not at the root"
		}
	default:
		return "productType must be standalone or variant"
	}
	return ""
}

func validateDiscount(discount *float64) string {
	if discount != nil && (*discount < 0 || *discount > 100) {
		return "discount must be between 0 and 100"
	}
	return ""
}

func buildProductImages(reqs []ProductImageRequest) []models.ProductImage {
	if len(reqs) == 0 {
		return nil
	}
	images := make([]models.ProductImage, 0, len(reqs))
	for _, img := range reqs {
		images = append(images, models.ProductImage{URL: img.URL, PublicID: img.PublicID})
	}
	return images
}

// buildProductVariants parses color references and assigns item ids to new
// variants. Returns a problem message on malformed ids.
func buildProductVariants(reqs []ProductVariantRequest) ([]models.ProductVariant, string) {
	if len(reqs) == 0 {
		return nil, ""
	}
	variants := make([]models.ProductVariant, 0, len(reqs))
	for _, v := range reqs {
		colorID, err := primitive.ObjectIDFromHex(v.ColorID)
		if err != nil {
			return nil, "variant colorId " + v.ColorID + " is malformed"
		}
		variant := models.ProductVariant{
			ItemID:  v.ItemID,
			ColorID: colorID,
			Stock:   v.Stock,
		}
		if variant.ItemID == "" {
			variant.ItemID = uuid.NewString()
		}
		if v.SecondaryColorID != nil && *v.SecondaryColorID != "" {
			secondary, err := primitive.ObjectIDFromHex(*v.SecondaryColorID)
			if err != nil {
				return nil, "variant secondaryColorId " + *v.SecondaryColorID + " is malformed"
			}
			variant.SecondaryColorID = &secondary
		}
		if v.Image != nil {
			variant.Image = &models.ProductImage{URL: v.Image.URL, PublicID: v.Image.PublicID}
		}
		variants = append(variants, variant)
	}
	return variants, ""
}

func parseOptionalObjectID(raw *string, field string) (*primitive.ObjectID, string) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, ""
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		return nil, field + " is malformed"
	}
	return &id, ""
}

// variantColorsExist checks every color referenced by the variants against the
// colors collection.
func variantColorsExist(c *gin.Context, db *mongo.Database, variants []models.ProductVariant) (bool, error) {
	seen := make(map[primitive.ObjectID]bool)
	ids := make([]primitive.ObjectID, 0)
	for _, v := range variants {
		if !seen[v.ColorID] {
			seen[v.ColorID] = true
			ids = append(ids, v.ColorID)
		}
		if v.SecondaryColorID != nil && !seen[*v.SecondaryColorID] {
			seen[*v.SecondaryColorID] = true
			ids = append(ids, *v.SecondaryColorID)
		}
	}
	if len(ids) == 0 {
		return true, nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := db.Collection("colors").CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return false, err
	}
	return int(count) == len(ids), nil
}

/*
GET /admin/api/products
- Paginated admin listing; soft-deleted products stay hidden here too.
- Filters: ?productType, ?categoryId, ?isActive, ?search (name substring).
*/
func GetAdminProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination", "page and limit must be positive; limit max 100")
			return
		}

		filter := bson.M{"isDeleted": bson.M{"$ne": true}}
		if pt := strings.TrimSpace(c.Query("productType")); pt != "" {
			filter["productType"] = pt
		}
		if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid categoryId", "categoryId is malformed")
				return
			}
			filter["categoryId"] = id
		}
		if v := strings.TrimSpace(c.Query("isActive")); v != "" {
			filter["isActive"] = v == "true"
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": escapeRegex(search), "$options": "i"}
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		products := db.Collection("products")

		total, err := products.CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to count products")
			return
		}

		cursor, err := products.Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page-1)*limit).
			SetLimit(limit))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load products")
			return
		}
		defer cursor.Close(ctx)

		list := make([]models.Product, 0)
		if err := cursor.All(ctx, &list); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode products")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    list,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		})
	}
}

// GET /admin/api/products/:id
func GetAdminProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "product id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       id,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found", "no product with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load product")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": product})
	}
}

/*
POST /admin/api/products
- The product type fixes its shape: standalone carries stock and images,
  variant carries the variants list. The discounted price is computed here and
  persisted, never trusted from the client.
*/
func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		if problem := validateProductShape(req.ProductType, req.Stock != nil, len(req.Variants)); problem != "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid product shape", problem)
			return
		}
		if problem := validateDiscount(req.Discount); problem != "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid discount", problem)
			return
		}
		if req.Stock != nil && *req.Stock < 0 {
			respondWithError(c, http.StatusBadRequest, route, "invalid stock", "stock cannot be negative")
			return
		}

		variants, problem := buildProductVariants(req.Variants)
		if problem != "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid variants", problem)
			return
		}
		if len(variants) > 0 {
			ok, err := variantColorsExist(c, db, variants)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to verify colors")
				return
			}
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "invalid variants", "one or more variant colors do not exist")
				return
			}
		}

		var categoryID, collectionID, skillLevelID *primitive.ObjectID
		for _, ref := range []struct {
			raw    *string
			field  string
			target **primitive.ObjectID
		}{
			{req.CategoryID, "categoryId", &categoryID},
			{req.CollectionID, "collectionId", &collectionID},
			{req.SkillLevelID, "skillLevelId", &skillLevelID},
		} {
			id, problem := parseOptionalObjectID(ref.raw, ref.field)
			if problem != "" {
				respondWithError(c, http.StatusBadRequest, route, "invalid reference", problem)
				return
			}
			*ref.target = id
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		now := time.Now()
		product := models.Product{
			Name:          strings.TrimSpace(req.Name),
			ProductType:   req.ProductType,
			Description:   strings.TrimSpace(req.Description),
			Price:         roundMoney(req.Price),
			Discount:      req.Discount,
			DiscountPrice: calculateDiscountPrice(req.Price, req.Discount),
			Images:        buildProductImages(req.Images),
			Variants:      variants,
			CategoryID:    categoryID,
			CollectionID:  collectionID,
			SkillLevelID:  skillLevelID,
			Tags:          req.Tags,
			PieceCount:    req.PieceCount,
			IsActive:      isActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to create product")
			return
		}
		product.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": product})
	}
}

/*
PUT /admin/api/products/:id
- Partial update. Changing price or discount recomputes the persisted
  discounted price from the resulting pair.
*/
func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "product id is malformed")
			return
		}

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}
		if problem := validateDiscount(req.Discount); problem != "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid discount", problem)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		products := db.Collection("products")

		var existing models.Product
		err = products.FindOne(ctx, bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found", "no product with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load product")
			return
		}

		if req.Stock != nil && existing.ProductType != models.ProductTypeStandalone {
			respondWithError(c, http.StatusBadRequest, route, "invalid product shape", "variant products track stock per variant, not at the root")
			return
		}
		if req.Variants != nil && existing.ProductType != models.ProductTypeVariant {
			respondWithError(c, http.StatusBadRequest, route, "invalid product shape", "standalone products cannot have variants")
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		unset := bson.M{}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required", "name cannot be empty")
				return
			}
			update["name"] = name
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}

		price := existing.Price
		discount := existing.Discount
		repriced := false
		if req.Price != nil {
			if *req.Price <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "invalid price", "price must be greater than zero")
				return
			}
			price = roundMoney(*req.Price)
			update["price"] = price
			repriced = true
		}
		if req.Discount != nil {
			discount = req.Discount
			update["discount"] = *req.Discount
			repriced = true
		}
		if repriced {
			if discountPrice := calculateDiscountPrice(price, discount); discountPrice != nil {
				update["discountPrice"] = *discountPrice
			} else {
				unset["discountPrice"] = ""
			}
		}

		if req.Stock != nil {
			if *req.Stock < 0 {
				respondWithError(c, http.StatusBadRequest, route, "invalid stock", "stock cannot be negative")
				return
			}
			update["stock"] = *req.Stock
		}
		if req.Images != nil {
			update["images"] = buildProductImages(req.Images)
		}
		if req.Variants != nil {
			if len(req.Variants) == 0 {
				respondWithError(c, http.StatusBadRequest, route, "invalid variants", "variant products require at least one variant")
				return
			}
			variants, problem := buildProductVariants(req.Variants)
			if problem != "" {
				respondWithError(c, http.StatusBadRequest, route, "invalid variants", problem)
				return
			}
			ok, err := variantColorsExist(c, db, variants)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to verify colors")
				return
			}
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "invalid variants", "one or more variant colors do not exist")
				return
			}
			update["variants"] = variants
		}

		if req.CategoryID != nil {
			categoryID, problem := parseOptionalObjectID(req.CategoryID, "categoryId")
			if problem != "" {
				respondWithError(c, http.StatusBadRequest, route, "invalid reference", problem)
				return
			}
			if categoryID == nil {
				unset["categoryId"] = ""
			} else {
				update["categoryId"] = *categoryID
			}
		}
		if req.CollectionID != nil {
			collectionID, problem := parseOptionalObjectID(req.CollectionID, "collectionId")
			if problem != "" {
				respondWithError(c, http.StatusBadRequest, route, "invalid reference", problem)
				return
			}
			if collectionID == nil {
				unset["collectionId"] = ""
			} else {
				update["collectionId"] = *collectionID
			}
		}
		if req.SkillLevelID != nil {
			skillLevelID, problem := parseOptionalObjectID(req.SkillLevelID, "skillLevelId")
			if problem != "" {
				respondWithError(c, http.StatusBadRequest, route, "invalid reference", problem)
				return
			}
			if skillLevelID == nil {
				unset["skillLevelId"] = ""
			} else {
				update["skillLevelId"] = *skillLevelID
			}
		}
		if req.Tags != nil {
			update["tags"] = req.Tags
		}
		if req.PieceCount != nil {
			update["pieceCount"] = *req.PieceCount
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}

		change := bson.M{"$set": update}
		if len(unset) > 0 {
			change["$unset"] = unset
		}

		var updated models.Product
		err = products.FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			change,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to update product")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

/*
DELETE /admin/api/products/:id
- Soft delete. Orders keep their snapshot; carts drop the line so nobody
  checks out a dead product.
*/
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "product id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		now := time.Now()
		result, err := db.Collection("products").UpdateOne(ctx,
			bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
			bson.M{"$set": bson.M{
				"isDeleted": true,
				"isActive":  false,
				"deletedAt": now,
				"updatedAt": now,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to delete product")
			return
		}
		if result.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "product not found", "no product with this id")
			return
		}

		if _, err := db.Collection("carts").UpdateMany(ctx,
			bson.M{"items.productId": id},
			bson.M{"$pull": bson.M{"items": bson.M{"productId": id}}},
		); err != nil {
			log.Println("[PRODUCT] [ERROR] cart cleanup after delete failed:", err)
		}

		c.Status(http.StatusNoContent)
	}
}
