package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v79"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/payments"
)

// buildCheckoutLineItems converts cart lines into Stripe line items with
// server-computed unit amounts. Client-supplied prices are never consulted.
// Lines whose product is missing or inactive, or whose variant no longer
// resolves, are skipped.
func buildCheckoutLineItems(items []models.CartItem, products map[primitive.ObjectID]models.Product, colorNames map[primitive.ObjectID]string) []*stripe.CheckoutSessionLineItemParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		if product.ProductType == models.ProductTypeVariant && variantAt(&product, item.VariantIndex) == nil {
			continue
		}

		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(resolveDisplayName(&product, item.VariantIndex, colorNames)),
		}
		if imageURL := resolveImageURL(&product, item.VariantIndex); imageURL != "" {
			productData.Images = stripe.StringSlice([]string{imageURL})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String("usd"),
				UnitAmount:  stripe.Int64(unitAmountMinor(productUnitPrice(product))),
				ProductData: productData,
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	return lineItems
}

// POST /api/checkout/session
func CreateCheckoutSession(db *mongo.Database, pay *payments.Client, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/checkout/session"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user context")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		cart, err := findCart(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load cart")
			return
		}
		if cart == nil || len(cart.Items) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "cart is empty", "add items before checking out")
			return
		}

		products, err := loadActiveProducts(ctx, db, cartProductIDs(cart.Items))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load products")
			return
		}
		colorNames, err := loadColorNames(ctx, db, products)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load colors")
			return
		}

		lineItems := buildCheckoutLineItems(cart.Items, products, colorNames)
		if len(lineItems) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "cart is empty", "no purchasable items remain in the cart")
			return
		}

		params := &stripe.CheckoutSessionParams{
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems:  lineItems,
			SuccessURL: stripe.String(cfg.ClientURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:  stripe.String(cfg.ClientURL + "/cart"),
			AutomaticTax: &stripe.CheckoutSessionAutomaticTaxParams{
				Enabled: stripe.Bool(true),
			},
			ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
				AllowedCountries: stripe.StringSlice(cfg.ShippingCountries),
			},
		}
		params.AddMetadata(payments.MetadataUserID, userID.Hex())
		params.AddMetadata(payments.MetadataOrderType, payments.OrderTypeProduct)

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err == nil && user.Email != "" {
			params.CustomerEmail = stripe.String(user.Email)
		}

		session, err := pay.CreateCheckoutSession(params)
		if err != nil {
			log.Println("[CHECKOUT] [ERROR] stripe session create failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "payment provider error", "failed to create checkout session")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"sessionId": session.ID,
			"url":       session.URL,
		})
	}
}

// GET /api/checkout/confirm?session_id=...
//
// Client-polled after the redirect back from Stripe. Converges on the same
// idempotent materializer as the webhook.
func ConfirmOrder(db *mongo.Database, pay *payments.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/checkout/confirm"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user context")
			return
		}

		sessionID := c.Query("session_id")
		if sessionID == "" {
			respondWithError(c, http.StatusBadRequest, route, "session_id required", "missing session_id query param")
			return
		}

		session, err := pay.GetCheckoutSession(sessionID)
		if err != nil {
			log.Println("[CHECKOUT] [ERROR] stripe session fetch failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "payment provider error", "failed to fetch checkout session")
			return
		}
		if session.Metadata[payments.MetadataUserID] != userID.Hex() {
			respondWithError(c, http.StatusNotFound, route, "order not found", "session does not belong to this user")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, created, err := materializeOrder(ctx, db, session)
		if err != nil {
			respondMaterializeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "created": created, "order": order})
	}
}

// POST /api/webhooks/stripe
//
// Raw-body endpoint; the signature is verified against the shared secret
// before anything is parsed. Signature failures return 400 and create nothing.
func StripeWebhook(db *mongo.Database, pay *payments.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/webhooks/stripe"
		defer handlePanic(c, route)

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", "failed to read payload")
			return
		}

		event, err := pay.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			log.Println("[WEBHOOK] [ERROR] signature verification failed:", err)
			respondWithError(c, http.StatusBadRequest, route, "invalid signature", "webhook signature verification failed")
			return
		}

		if event.Type != "checkout.session.completed" {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "event ignored"})
			return
		}

		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid payload", "failed to parse checkout session")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, created, err := materializeOrder(ctx, db, &session)
		if err != nil {
			if webhookAckable(err) {
				c.JSON(http.StatusOK, gin.H{"success": true, "message": "event ignored"})
				return
			}
			log.Println("[WEBHOOK] [ERROR] order materialization failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "order creation failed", err.Error())
			return
		}

		if created {
			log.Println("[WEBHOOK] [INFO] order created:", order.ID.Hex())
		} else {
			log.Println("[WEBHOOK] [INFO] order already exists:", order.ID.Hex())
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "created": created, "orderId": order.ID.Hex()})
	}
}

// webhookAckable reports whether a materializer failure should still be
// acknowledged with 200. Retrying can never help here: the session belongs to
// a different flow, or isn't paid yet and async payment methods emit a later
// event once it is. A 500 would only put Stripe into a redelivery loop.
func webhookAckable(err error) bool {
	return err == errNotProductOrder || err == errSessionUnpaid
}

func respondMaterializeError(c *gin.Context, route string, err error) {
	switch err {
	case errNotProductOrder:
		respondWithError(c, http.StatusBadRequest, route, "not a product order", "this session is handled by a different flow")
	case errSessionUnpaid:
		respondWithError(c, http.StatusBadRequest, route, "payment not completed", "the checkout session has not been paid")
	case errCartEmpty, errNoOrderableItems:
		respondWithError(c, http.StatusBadRequest, route, "cart is empty", "no cart contents were found for this session")
	default:
		respondWithError(c, http.StatusInternalServerError, route, "order creation failed", err.Error())
	}
}
