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

type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	IsActive    *bool  `json:"isActive"`
}

type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	IsActive    *bool   `json:"isActive"`
}

// nameTaken checks the case-insensitive unique-name constraint shared by the
// simple catalog collections.
func nameTaken(c *gin.Context, db *mongo.Database, collection, name string, excludeID *primitive.ObjectID) (bool, error) {
	ctx, cancel := requestContext(c)
	defer cancel()

	filter := bson.M{"name": name}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	count, err := db.Collection(collection).CountDocuments(ctx, filter,
		options.Count().SetCollation(&options.Collation{Locale: "en", Strength: 2}))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

/*
GET /admin/api/categories
- Admin list, active and inactive alike.
*/
func GetAllCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/categories"
		defer handlePanic(c, route)

		filter := bson.M{}
		if v := strings.TrimSpace(c.Query("isActive")); v != "" {
			filter["isActive"] = v == "true"
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cursor, err := db.Collection("categories").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load categories")
			return
		}
		defer cursor.Close(ctx)

		categories := make([]models.Category, 0)
		if err := cursor.All(ctx, &categories); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode categories")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": categories})
	}
}

/*
POST /admin/api/categories
- Names are unique case-insensitively.
*/
func CreateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/categories"
		defer handlePanic(c, route)

		var req CategoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required", "name cannot be empty")
			return
		}

		taken, err := nameTaken(c, db, "categories", name, nil)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
			return
		}
		if taken {
			respondWithError(c, http.StatusConflict, route, "category already exists", "a category with this name exists")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		category := models.Category{
			Name:        name,
			Description: strings.TrimSpace(req.Description),
			ImageURL:    req.ImageURL,
			IsActive:    isActive,
			CreatedAt:   time.Now(),
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("categories").InsertOne(ctx, category)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "category already exists", "a category with this name exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to create category")
			return
		}
		category.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
	}
}

/*
PUT /admin/api/categories/:id
*/
func UpdateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/categories/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "category id is malformed")
			return
		}

		var req CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		update := bson.M{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required", "name cannot be empty")
				return
			}
			taken, err := nameTaken(c, db, "categories", name, &id)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
				return
			}
			if taken {
				respondWithError(c, http.StatusConflict, route, "category already exists", "a category with this name exists")
				return
			}
			update["name"] = name
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.ImageURL != nil {
			update["imageUrl"] = *req.ImageURL
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update", "provide at least one field")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var updated models.Category
		err = db.Collection("categories").FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "category not found", "no category with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to update category")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

/*
DELETE /admin/api/categories/:id
- Soft delete: products keep their reference, listings just stop showing it.
*/
func DeleteCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/categories/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "category id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("categories").UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"isActive": false}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to delete category")
			return
		}
		if result.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "category not found", "no category with this id")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
