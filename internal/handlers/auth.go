package handlers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"backend/internal/config"
	"backend/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func signAccessToken(userID primitive.ObjectID, role string, cfg config.Config) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   role,
		"iat":    now.Unix(),
		"exp":    now.Add(cfg.AccessTokenTTL).Unix(),
	})
	return token.SignedString([]byte(cfg.JWTSecret))
}

func newRefreshToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashRefreshToken(raw), nil
}

func hashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// issueTokenPair signs an access token and persists a new refresh token hash.
func issueTokenPair(c *gin.Context, db *mongo.Database, user models.User, cfg config.Config) (gin.H, error) {
	accessToken, err := signAccessToken(user.ID, user.Role, cfg)
	if err != nil {
		return nil, err
	}

	raw, hash, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	_, err = db.Collection("refreshtokens").InsertOne(ctx, models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(cfg.RefreshTokenTTL),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return gin.H{
		"accessToken":  accessToken,
		"refreshToken": raw,
		"user": gin.H{
			"id":    user.ID.Hex(),
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	}, nil
}

/*
POST /api/auth/register
*/
func Register(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "hash error", "failed to process password")
			return
		}

		now := time.Now()
		user := models.User{
			Email:        email,
			PasswordHash: string(hash),
			Name:         strings.TrimSpace(req.Name),
			Phone:        strings.TrimSpace(req.Phone),
			Role:         "customer",
			Addresses:    []models.Address{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		result, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondWithError(c, http.StatusConflict, route, "email in use", "an account with this email exists")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to create account")
			return
		}
		user.ID = result.InsertedID.(primitive.ObjectID)

		payload, err := issueTokenPair(c, db, user, cfg)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token error", "failed to issue tokens")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": payload})
	}
}

/*
POST /api/auth/login
- One generic message for unknown email and wrong password.
*/
func Login(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		ctx, cancel := requestContext(c)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"email": email}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials", "email or password is wrong")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load account")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials", "email or password is wrong")
			return
		}

		payload, err := issueTokenPair(c, db, user, cfg)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token error", "failed to issue tokens")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": payload})
	}
}

/*
POST /api/auth/refresh
- Rotation: the presented token is revoked and a fresh pair is issued. A
  revoked or expired token gets a 401 and the client has to log in again.
*/
func Refresh(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/refresh"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		tokens := db.Collection("refreshtokens")

		var stored models.RefreshToken
		err := tokens.FindOne(ctx, bson.M{
			"tokenHash": hashRefreshToken(req.RefreshToken),
			"revoked":   false,
			"expiresAt": bson.M{"$gt": time.Now()},
		}).Decode(&stored)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token", "token is unknown, revoked or expired")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to check refresh token")
			return
		}

		var user models.User
		err = db.Collection("users").FindOne(ctx, bson.M{"_id": stored.UserID}).Decode(&user)
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token", "account no longer exists")
			return
		}

		payload, err := issueTokenPair(c, db, user, cfg)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token error", "failed to issue tokens")
			return
		}

		if _, err := tokens.UpdateOne(ctx,
			bson.M{"_id": stored.ID},
			bson.M{"$set": bson.M{"revoked": true}},
		); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to rotate refresh token")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": payload})
	}
}

/*
POST /api/auth/logout
- Revokes the presented refresh token. Always 200: logging out with a dead
  token is not an error worth surfacing.
*/
func Logout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/logout"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid body", err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		_, _ = db.Collection("refreshtokens").UpdateOne(ctx,
			bson.M{"tokenHash": hashRefreshToken(req.RefreshToken)},
			bson.M{"$set": bson.M{"revoked": true}},
		)

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// GET /api/auth/me
func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized", "missing user identity")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "account not found", "no account with this id")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error", "failed to load account")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
	}
}
