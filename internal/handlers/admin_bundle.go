package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

type BundleItemRequest struct {
	ProductID string `json:"productId" binding:"required,objectid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type BundleCreateRequest struct {
	Name        string              `json:"name" binding:"required"`
	Kind        string              `json:"kind" binding:"required,oneof=dealer reward"`
	Description string              `json:"description"`
	Price       float64             `json:"price" binding:"required,gt=0"`
	Items       []BundleItemRequest `json:"items" binding:"required,min=1,dive"`
	IsActive    *bool               `json:"isActive"`
}

type BundleUpdateRequest struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	Price       *float64            `json:"price"`
	Items       []BundleItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	IsActive    *bool               `json:"isActive"`
}

// resolveBundleItems validates that every referenced product exists and is not
// deleted, and collapses duplicate product ids into one line.
func resolveBundleItems(c *gin.Context, db *mongo.Database, reqItems []BundleItemRequest) ([]models.BundleItem, string) {
	quantities := make(map[primitive.ObjectID]int, len(reqItems))
	order := make([]primitive.ObjectID, 0, len(reqItems))
	for _, item := range reqItems {
		id, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, "product id " + item.ProductID + " is malformed"
		}
		if _, seen := quantities[id]; !seen {
			order = append(order, id)
		}
		quantities[id] += item.Quantity
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	count, err := db.Collection("products").CountDocuments(ctx, bson.M{
		"_id":       bson.M{"$in": order},
		"isDeleted": bson.M{"$ne": true},
	})
	if err != nil {
		return nil, "failed to verify bundle products"
	}
	if int(count) != len(order) {
		return nil, "one or more bundle products do not exist"
	}

	items := make([]models.BundleItem, 0, len(order))
	for _, id := range order {
		items = append(items, models.BundleItem{ProductID: id, Quantity: quantities[id]})
	}
	return items, ""
}

func bundleNameTaken(c *gin.Context, db *mongo.Database, name, kind string, excludeID *primitive.ObjectID) (bool, error) {
	ctx, cancel := requestContext(c)
	defer cancel()

	filter := bson.M{"name": name, "kind": kind}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	count, err := db.Collection("bundles").CountDocuments(ctx, filter,
		options.Count().SetCollation(&options.Collation{Locale: "en", Strength: 2}))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

/*
GET /admin/api/bundles
- Optional ?kind=dealer|reward filter.
*/
func GetAllBundles(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/bundles"
		defer handlePanic(c, route)

		filter := bson.M{}
		if kind := strings.TrimSpace(c.Query("kind")); kind != "" {
			if kind != models.BundleKindDealer && kind != models.BundleKindReward {
				respondWithError(c, http.StatusBadRequest, route, "invalid kind", "kind must be dealer or reward")
				return
			}
			filter["kind"] = kind
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cursor, err := db.Collection("bundles").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load bundles")
			return
		}
		defer cursor.Close(ctx)

		bundles := make([]models.Bundle, 0)
		if err := cursor.All(ctx, &bundles); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode bundles")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": bundles})
	}
}

/*
POST /admin/api/bundles
- Bundles are unique by (name, kind); every item must reference a live product.
*/
func CreateBundle(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/bundles"
		defer handlePanic(c, route)

		var req BundleCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required", "name cannot be empty")
			return
		}

		taken, err := bundleNameTaken(c, db, name, req.Kind, nil)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
			return
		}
		if taken {
			respondWithError(c, http.StatusConflict, route, "bundle already exists", "a "+req.Kind+" bundle with this name exists")
			return
		}

		items, problem := resolveBundleItems(c, db, req.Items)
		if problem != "" {
			respondWithError(c, http.StatusBadRequest, route, "invalid items", problem)
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		now := time.Now()
		bundle := models.Bundle{
			Name:        name,
			Kind:        req.Kind,
			Description: strings.TrimSpace(req.Description),
			Price:       roundMoney(req.Price),
			Items:       items,
			IsActive:    isActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("bundles").InsertOne(ctx, bundle)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "bundle already exists", "a "+req.Kind+" bundle with this name exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to create bundle")
			return
		}
		bundle.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": bundle})
	}
}

/*
PUT /admin/api/bundles/:id
- Kind is fixed after creation; everything else can change.
*/
func UpdateBundle(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/bundles/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "bundle id is malformed")
			return
		}

		var req BundleUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var existing models.Bundle
		if err := db.Collection("bundles").FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "bundle not found", "no bundle with this id")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load bundle")
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required", "name cannot be empty")
				return
			}
			taken, err := bundleNameTaken(c, db, name, existing.Kind, &id)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
				return
			}
			if taken {
				respondWithError(c, http.StatusConflict, route, "bundle already exists", "a "+existing.Kind+" bundle with this name exists")
				return
			}
			update["name"] = name
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Price != nil {
			if *req.Price <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "invalid price", "price must be greater than zero")
				return
			}
			update["price"] = roundMoney(*req.Price)
		}
		if req.Items != nil {
			items, problem := resolveBundleItems(c, db, req.Items)
			if problem != "" {
				respondWithError(c, http.StatusBadRequest, route, "invalid items", problem)
				return
			}
			update["items"] = items
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}

		var updated models.Bundle
		err = db.Collection("bundles").FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to update bundle")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

// DELETE /admin/api/bundles/:id
func DeleteBundle(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/bundles/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "bundle id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("bundles").DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to delete bundle")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "bundle not found", "no bundle with this id")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
