package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/media"
	"backend/internal/models"
)

type BannerCreateRequest struct {
	Title         string  `json:"title" binding:"required"`
	Subtitle      string  `json:"subtitle"`
	LinkURL       string  `json:"linkUrl"`
	ImageURL      string  `json:"imageUrl"`
	ImagePublicID string  `json:"imagePublicId"`
	VideoURL      string  `json:"videoUrl"`
	VideoPublicID string  `json:"videoPublicId"`
	VideoDuration float64 `json:"videoDuration"`
	IsActive      *bool   `json:"isActive"`
}

type BannerUpdateRequest struct {
	Title         *string  `json:"title"`
	Subtitle      *string  `json:"subtitle"`
	LinkURL       *string  `json:"linkUrl"`
	ImageURL      *string  `json:"imageUrl"`
	ImagePublicID *string  `json:"imagePublicId"`
	VideoURL      *string  `json:"videoUrl"`
	VideoPublicID *string  `json:"videoPublicId"`
	VideoDuration *float64 `json:"videoDuration"`
	IsActive      *bool    `json:"isActive"`
}

// Order has no required tag: 0 (and any out-of-range target) clamps into
// [1, count] instead of failing validation.
type BannerReorderRequest struct {
	Order int `json:"order"`
}

/*
GET /admin/api/banners
*/
func GetAllBanners(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/banners"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		cursor, err := db.Collection("banners").Find(ctx, bson.M{},
			options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load banners")
			return
		}
		defer cursor.Close(ctx)

		banners := make([]models.Banner, 0)
		if err := cursor.All(ctx, &banners); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode banners")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": banners})
	}
}

/*
POST /admin/api/banners
- New banners append at the end of the carousel: order = max(existing) + 1.
*/
func CreateBanner(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/banners"
		defer handlePanic(c, route)

		var req BannerCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}
		if strings.TrimSpace(req.ImageURL) == "" && strings.TrimSpace(req.VideoURL) == "" {
			respondWithError(c, http.StatusBadRequest, route, "media required", "a banner needs an image or a video")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		nextOrder := 1
		var last models.Banner
		err := db.Collection("banners").FindOne(ctx, bson.M{},
			options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}})).Decode(&last)
		if err == nil {
			nextOrder = last.Order + 1
		} else if err != mongo.ErrNoDocuments {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to read banner order")
			return
		}

		isActive := true
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		now := time.Now()
		banner := models.Banner{
			Title:         strings.TrimSpace(req.Title),
			Subtitle:      strings.TrimSpace(req.Subtitle),
			LinkURL:       strings.TrimSpace(req.LinkURL),
			ImageURL:      req.ImageURL,
			ImagePublicID: req.ImagePublicID,
			VideoURL:      req.VideoURL,
			VideoPublicID: req.VideoPublicID,
			VideoDuration: req.VideoDuration,
			Order:         nextOrder,
			IsActive:      isActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		result, err := db.Collection("banners").InsertOne(ctx, banner)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to create banner")
			return
		}
		banner.ID = result.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": banner})
	}
}

/*
PUT /admin/api/banners/:id
- Attribute updates only; position changes go through the reorder endpoint.
*/
func UpdateBanner(db *mongo.Database, mediaClient *media.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/banners/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "banner id is malformed")
			return
		}

		var req BannerUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var existing models.Banner
		if err := db.Collection("banners").FindOne(ctx, bson.M{"_id": id}).Decode(&existing); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "banner not found", "no banner with this id")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load banner")
			return
		}

		update := bson.M{"updatedAt": time.Now()}
		if req.Title != nil {
			update["title"] = strings.TrimSpace(*req.Title)
		}
		if req.Subtitle != nil {
			update["subtitle"] = strings.TrimSpace(*req.Subtitle)
		}
		if req.LinkURL != nil {
			update["linkUrl"] = strings.TrimSpace(*req.LinkURL)
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}

		// Swapping media destroys the replaced Cloudinary asset.
		if req.ImageURL != nil && req.ImagePublicID != nil {
			if existing.ImagePublicID != "" && existing.ImagePublicID != *req.ImagePublicID {
				if err := mediaClient.Destroy(ctx, existing.ImagePublicID, "image"); err != nil {
					log.Println("[BANNER] [ERROR] image destroy failed:", err)
				}
			}
			update["imageUrl"] = *req.ImageURL
			update["imagePublicId"] = *req.ImagePublicID
		}
		if req.VideoURL != nil && req.VideoPublicID != nil {
			if existing.VideoPublicID != "" && existing.VideoPublicID != *req.VideoPublicID {
				if err := mediaClient.Destroy(ctx, existing.VideoPublicID, "video"); err != nil {
					log.Println("[BANNER] [ERROR] video destroy failed:", err)
				}
			}
			update["videoUrl"] = *req.VideoURL
			update["videoPublicId"] = *req.VideoPublicID
		}
		if req.VideoDuration != nil {
			update["videoDuration"] = *req.VideoDuration
		}

		var updated models.Banner
		err = db.Collection("banners").FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to update banner")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

/*
PUT /admin/api/banners/:id/reorder
- Moves a banner to a new position; every banner between the old and new slot
  shifts by one so the sequence stays dense.
*/
func ReorderBanner(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/banners/:id/reorder"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "banner id is malformed")
			return
		}

		var req BannerReorderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		banners := db.Collection("banners")

		var banner models.Banner
		if err := banners.FindOne(ctx, bson.M{"_id": id}).Decode(&banner); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "banner not found", "no banner with this id")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load banner")
			return
		}

		count, err := banners.CountDocuments(ctx, bson.M{})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to count banners")
			return
		}

		newOrder := clampBannerOrder(req.Order, int(count))
		shift, moved := planBannerShift(banner.Order, newOrder)
		if moved {
			_, err = banners.UpdateMany(ctx,
				bson.M{"order": bson.M{"$gte": shift.Low, "$lte": shift.High}},
				bson.M{"$inc": bson.M{"order": shift.Delta}},
			)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to shift banners")
				return
			}
			_, err = banners.UpdateOne(ctx,
				bson.M{"_id": id},
				bson.M{"$set": bson.M{"order": newOrder, "updatedAt": time.Now()}},
			)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to move banner")
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": newOrder})
	}
}

/*
DELETE /admin/api/banners/:id
- Removes the banner, closes the gap it leaves, and cleans up its media.
*/
func DeleteBanner(db *mongo.Database, mediaClient *media.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/banners/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "banner id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		banners := db.Collection("banners")

		var banner models.Banner
		if err := banners.FindOne(ctx, bson.M{"_id": id}).Decode(&banner); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "banner not found", "no banner with this id")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load banner")
			return
		}

		if _, err := banners.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to delete banner")
			return
		}

		_, err = banners.UpdateMany(ctx,
			bson.M{"order": bson.M{"$gt": banner.Order}},
			bson.M{"$inc": bson.M{"order": -1}},
		)
		if err != nil {
			log.Println("[BANNER] [ERROR] reindex after delete failed:", err)
		}

		if err := mediaClient.Destroy(ctx, banner.ImagePublicID, "image"); err != nil {
			log.Println("[BANNER] [ERROR] image destroy failed:", err)
		}
		if err := mediaClient.Destroy(ctx, banner.VideoPublicID, "video"); err != nil {
			log.Println("[BANNER] [ERROR] video destroy failed:", err)
		}

		c.Status(http.StatusNoContent)
	}
}
