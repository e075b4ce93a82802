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

var allowedOrderStatuses = map[string]bool{
	models.OrderStatusPending:   true,
	models.OrderStatusPaid:      true,
	models.OrderStatusFailed:    true,
	models.OrderStatusRefunded:  true,
	models.OrderStatusCancelled: true,
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

/*
GET /admin/api/orders
- Paginated, newest first. ?status filters by order status.
*/
func GetAllOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination", "page and limit must be positive; limit max 100")
			return
		}

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !allowedOrderStatuses[status] {
				respondWithError(c, http.StatusBadRequest, route, "invalid status", "unknown order status "+status)
				return
			}
			filter["status"] = status
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		orders := db.Collection("orders")

		total, err := orders.CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to count orders")
			return
		}

		cursor, err := orders.Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page-1)*limit).
			SetLimit(limit))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load orders")
			return
		}
		defer cursor.Close(ctx)

		list := make([]models.Order, 0)
		if err := cursor.All(ctx, &list); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error", "failed to decode orders")
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

// GET /admin/api/orders/:id
func GetOrderByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "order id is malformed")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found", "no order with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load order")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
	}
}

/*
PUT /admin/api/orders/:id/status
- Manual status transitions for support workflows (refunds, cancellations).
  Payment-driven transitions happen in the webhook, not here.
*/
func UpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id", "order id is malformed")
			return
		}

		var req OrderStatusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}
		if !allowedOrderStatuses[req.Status] {
			respondWithError(c, http.StatusBadRequest, route, "invalid status", "unknown order status "+req.Status)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var updated models.Order
		err = db.Collection("orders").FindOneAndUpdate(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"status": req.Status, "updatedAt": time.Now()}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "order not found", "no order with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to update order")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}
