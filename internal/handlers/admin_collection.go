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

type CollectionCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	IsActive    *bool  `json:"isActive"`
}

type CollectionUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	IsActive    *bool   `json:"isActive"`
}

// GET /admin/api/collections
func GetAllCollections(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/collections"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		cursor, err := db.Collection("collections").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load collections")
			return
		}
		defer cursor.Close(ctx)

		collections := make([]models.Collection, 0)
		if err := cursor.All(ctx, &collections); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode collections")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": collections})
	}
}

// POST /admin/api/collections
func CreateCollection(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/collections"
		defer handlePanic(c, route)

		var req CollectionCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required", "name cannot be empty")
			return
		}

		taken, err := nameTaken(c, db, "collections", name, nil)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
			return
		}
		if taken {
			respondWithError(c, http.StatusConflict, route, "collection already exists", "a collection with this name exists")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		collection := models.Collection{
			Name:        name,
			Description: strings.TrimSpace(req.Description),
			ImageURL:    req.ImageURL,
			IsActive:    isActive,
			CreatedAt:   time.Now(),
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("collections").InsertOne(ctx, collection)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "collection already exists", "a collection with this name exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to create collection")
			return
		}
		collection.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": collection})
	}
}

// PUT /admin/api/collections/:id
func UpdateCollection(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/collections/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "collection id is malformed")
			return
		}

		var req CollectionUpdateRequest
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
			taken, err := nameTaken(c, db, "collections", name, &id)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
				return
			}
			if taken {
				respondWithError(c, http.StatusConflict, route, "collection already exists", "a collection with this name exists")
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

		var updated models.Collection
		err = db.Collection("collections").FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "collection not found", "no collection with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to update collection")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

// DELETE /admin/api/collections/:id
func DeleteCollection(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/collections/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "collection id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("collections").UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"isActive": false}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to delete collection")
			return
		}
		if result.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "collection not found", "no collection with this id")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
