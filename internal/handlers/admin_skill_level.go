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

type SkillLevelCreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Level    int    `json:"level" binding:"required,min=1"`
	IsActive *bool  `json:"isActive"`
}

type SkillLevelUpdateRequest struct {
	Name     *string `json:"name"`
	Level    *int    `json:"level"`
	IsActive *bool   `json:"isActive"`
}

// GET /admin/api/skill-levels
func GetAllSkillLevels(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/skill-levels"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		cursor, err := db.Collection("skilllevels").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "level", Value: 1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load skill levels")
			return
		}
		defer cursor.Close(ctx)

		levels := make([]models.SkillLevel, 0)
		if err := cursor.All(ctx, &levels); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode skill levels")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": levels})
	}
}

// POST /admin/api/skill-levels
func CreateSkillLevel(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/skill-levels"
		defer handlePanic(c, route)

		var req SkillLevelCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required", "name cannot be empty")
			return
		}

		taken, err := nameTaken(c, db, "skilllevels", name, nil)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
			return
		}
		if taken {
			respondWithError(c, http.StatusConflict, route, "skill level already exists", "a skill level with this name exists")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		level := models.SkillLevel{
			Name:      name,
			Level:     req.Level,
			IsActive:  isActive,
			CreatedAt: time.Now(),
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("skilllevels").InsertOne(ctx, level)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "skill level already exists", "a skill level with this name exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to create skill level")
			return
		}
		level.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": level})
	}
}

// PUT /admin/api/skill-levels/:id
func UpdateSkillLevel(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/skill-levels/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "skill level id is malformed")
			return
		}

		var req SkillLevelUpdateRequest
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
			taken, err := nameTaken(c, db, "skilllevels", name, &id)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check name")
				return
			}
			if taken {
				respondWithError(c, http.StatusConflict, route, "skill level already exists", "a skill level with this name exists")
				return
			}
			update["name"] = name
		}
		if req.Level != nil {
			if *req.Level < 1 {
				respondWithError(c, http.StatusBadRequest, route, "invalid level", "level must be at least 1")
				return
			}
			update["level"] = *req.Level
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

		var updated models.SkillLevel
		err = db.Collection("skilllevels").FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "skill level not found", "no skill level with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to update skill level")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

// DELETE /admin/api/skill-levels/:id
func DeleteSkillLevel(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/skill-levels/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "skill level id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("skilllevels").UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"isActive": false}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to delete skill level")
			return
		}
		if result.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "skill level not found", "no skill level with this id")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
