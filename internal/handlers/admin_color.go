package handlers

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

var hexCodePattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type ColorCreateRequest struct {
	Name     string `json:"name" binding:"required"`
	HexCode  string `json:"hexCode" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

type ColorUpdateRequest struct {
	Name     *string `json:"name"`
	HexCode  *string `json:"hexCode"`
	IsActive *bool   `json:"isActive"`
}

// GET /admin/api/colors
func GetAllColors(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/colors"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		cursor, err := db.Collection("colors").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load colors")
			return
		}
		defer cursor.Close(ctx)

		colors := make([]models.Color, 0)
		if err := cursor.All(ctx, &colors); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode colors")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": colors})
	}
}

// POST /admin/api/colors
func CreateColor(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/colors"
		defer handlePanic(c, route)

		var req ColorCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		name := strings.TrimSpace(req.Name)
		hexCode := strings.TrimSpace(req.HexCode)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required", "name cannot be empty")
			return
		}
		if !hexCodePattern.MatchString(hexCode) {
			respondWithError(c, http.StatusBadRequest, route, "invalid hexCode", "hexCode must look like #rrggbb")
			return
		}

		taken, err := nameTaken(c, db, "colors", name, nil)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
			return
		}
		if taken {
			respondWithError(c, http.StatusConflict, route, "color already exists", "a color with this name exists")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		color := models.Color{
			Name:      name,
			HexCode:   strings.ToLower(hexCode),
			IsActive:  isActive,
			CreatedAt: time.Now(),
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("colors").InsertOne(ctx, color)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "color already exists", "a color with this name exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to create color")
			return
		}
		color.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": color})
	}
}

// PUT /admin/api/colors/:id
func UpdateColor(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/colors/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "color id is malformed")
			return
		}

		var req ColorUpdateRequest
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
			taken, err := nameTaken(c, db, "colors", name, &id)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
				return
			}
			if taken {
				respondWithError(c, http.StatusConflict, route, "color already exists", "a color with this name exists")
				return
			}
			update["name"] = name
		}
		if req.HexCode != nil {
			hexCode := strings.TrimSpace(*req.HexCode)
			if !hexCodePattern.MatchString(hexCode) {
				respondWithError(c, http.StatusBadRequest, route, "invalid hexCode", "hexCode must look like #rrggbb")
				return
			}
			update["hexCode"] = strings.ToLower(hexCode)
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

		var updated models.Color
		err = db.Collection("colors").FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "color not found", "no color with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to update color")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

// DELETE /admin/api/colors/:id
func DeleteColor(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/colors/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "color id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		// Colors referenced by product variants only get deactivated.
		count, err := db.Collection("products").CountDocuments(ctx, bson.M{
			"isDeleted": bson.M{"$ne": true},
			"$or": []bson.M{
				{"variants.colorId": id},
				{"variants.secondaryColorId": id},
			},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check references")
			return
		}

		if count > 0 {
			result, err := db.Collection("colors").UpdateOne(ctx,
				bson.M{"_id": id},
				bson.M{"$set": bson.M{"isActive": false}},
			)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to deactivate color")
				return
			}
			if result.MatchedCount == 0 {
				respondWithError(c, http.StatusNotFound, route, "color not found", "no color with this id")
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "color in use; deactivated instead"})
			return
		}

		result, err := db.Collection("colors").DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to delete color")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "color not found", "no color with this id")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
