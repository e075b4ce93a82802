package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

// listActive is the shared shape of the public lookup endpoints: active
// documents from one collection, sorted, no pagination.
func listActive[T any](db *mongo.Database, collection, route string, sort bson.D) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		cursor, err := db.Collection(collection).Find(ctx, bson.M{"isActive": true},
			options.Find().SetSort(sort))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load "+collection)
			return
		}
		defer cursor.Close(ctx)

		list := make([]T, 0)
		if err := cursor.All(ctx, &list); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode "+collection)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
	}
}

// GET /api/categories
func GetActiveCategories(db *mongo.Database) gin.HandlerFunc {
	return listActive[models.Category](db, "categories", "GET /api/categories",
		bson.D{{Key: "name", Value: 1}})
}

// GET /api/collections
func GetActiveCollections(db *mongo.Database) gin.HandlerFunc {
	return listActive[models.Collection](db, "collections", "GET /api/collections",
		bson.D{{Key: "name", Value: 1}})
}

// GET /api/colors
func GetActiveColors(db *mongo.Database) gin.HandlerFunc {
	return listActive[models.Color](db, "colors", "GET /api/colors",
		bson.D{{Key: "name", Value: 1}})
}

// GET /api/skill-levels
func GetActiveSkillLevels(db *mongo.Database) gin.HandlerFunc {
	return listActive[models.SkillLevel](db, "skilllevels", "GET /api/skill-levels",
		bson.D{{Key: "level", Value: 1}})
}

// GET /api/banners — the storefront carousel, in display order.
func GetActiveBanners(db *mongo.Database) gin.HandlerFunc {
	return listActive[models.Banner](db, "banners", "GET /api/banners",
		bson.D{{Key: "order", Value: 1}})
}

// GET /api/bundles — active dealer and reward bundles.
func GetActiveBundles(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/bundles"
		defer handlePanic(c, route)

		filter := bson.M{"isActive": true}
		if kind := c.Query("kind"); kind == models.BundleKindDealer || kind == models.BundleKindReward {
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
