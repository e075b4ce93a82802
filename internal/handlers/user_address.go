package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/models"
)

type AddressCreateRequest struct {
	Title     string `json:"title" binding:"required"`
	Detail    string `json:"detail" binding:"required"`
	Note      string `json:"note"`
	IsDefault bool   `json:"isDefault"`
}

type AddressUpdateRequest struct {
	Title     *string `json:"title"`
	Detail    *string `json:"detail"`
	Note      *string `json:"note"`
	IsDefault *bool   `json:"isDefault"`
}

// applyDefaultFlag keeps at most one default address.
func applyDefaultFlag(addresses []models.Address, defaultID string) {
	for i := range addresses {
		addresses[i].IsDefault = addresses[i].ID == defaultID
	}
}

func loadUserAddresses(c *gin.Context, db *mongo.Database) (*models.User, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return nil, false
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, false
	}
	return &user, true
}

func saveUserAddresses(c *gin.Context, db *mongo.Database, user *models.User) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"addresses": user.Addresses, "updatedAt": time.Now()}},
	)
	return err
}

// GET /api/account/addresses
func GetAddresses(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/account/addresses"
		defer handlePanic(c, route)

		user, ok := loadUserAddresses(c, db)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user identity")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": user.Addresses})
	}
}

// POST /api/account/addresses
func CreateAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/account/addresses"
		defer handlePanic(c, route)

		var req AddressCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		user, ok := loadUserAddresses(c, db)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user identity")
			return
		}

		address := models.Address{
			ID:        uuid.NewString(),
			Title:     strings.TrimSpace(req.Title),
			Detail:    strings.TrimSpace(req.Detail),
			Note:      strings.TrimSpace(req.Note),
			IsDefault: req.IsDefault || len(user.Addresses) == 0,
		}

		user.Addresses = append(user.Addresses, address)
		if address.IsDefault {
			applyDefaultFlag(user.Addresses, address.ID)
		}

		if err := saveUserAddresses(c, db, user); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to save address")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": address})
	}
}

// PUT /api/account/addresses/:addressId
func UpdateAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/account/addresses/:addressId"
		defer handlePanic(c, route)

		var req AddressUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		user, ok := loadUserAddresses(c, db)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user identity")
			return
		}

		addressID := c.Param("addressId")
		index := -1
		for i := range user.Addresses {
			if user.Addresses[i].ID == addressID {
				index = i
				break
			}
		}
		if index < 0 {
			respondWithError(c, http.StatusNotFound, route, "address not found", "no address with this id")
			return
		}

		address := &user.Addresses[index]
		if req.Title != nil {
			address.Title = strings.TrimSpace(*req.Title)
		}
		if req.Detail != nil {
			address.Detail = strings.TrimSpace(*req.Detail)
		}
		if req.Note != nil {
			address.Note = strings.TrimSpace(*req.Note)
		}
		if req.IsDefault != nil && *req.IsDefault {
			applyDefaultFlag(user.Addresses, address.ID)
		}

		if err := saveUserAddresses(c, db, user); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to save address")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": user.Addresses[index]})
	}
}

// DELETE /api/account/addresses/:addressId
func DeleteAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/account/addresses/:addressId"
		defer handlePanic(c, route)

		user, ok := loadUserAddresses(c, db)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user identity")
			return
		}

		addressID := c.Param("addressId")
		remaining := make([]models.Address, 0, len(user.Addresses))
		removedDefault := false
		found := false
		for _, address := range user.Addresses {
			if address.ID == addressID {
				found = true
				removedDefault = address.IsDefault
				continue
			}
			remaining = append(remaining, address)
		}
		if !found {
			respondWithError(c, http.StatusNotFound, route, "address not found", "no address with this id")
			return
		}

		if removedDefault && len(remaining) > 0 {
			remaining[0].IsDefault = true
		}
		user.Addresses = remaining

		if err := saveUserAddresses(c, db, user); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to save addresses")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
