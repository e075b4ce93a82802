package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// caseInsensitive matches the collation used by the unique-name indexes so
// "Red" and "red" collide.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func indexContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := indexContext()
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	}

	_, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}

	tokenIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tokenHash", Value: 1}},
			Options: options.Index().SetName("tokenHash_unique").SetUnique(true),
		},
		{
			// Mongo reaps expired refresh tokens on its own.
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0),
		},
	}
	if _, err := db.Collection("refreshtokens").Indexes().CreateMany(ctx, tokenIndexes); err != nil {
		log.Println("EnsureUserIndexes: refresh token index error:", err)
		return err
	}
	return nil
}

func EnsureCartIndexes(db *mongo.Database) error {
	ctx, cancel := indexContext()
	defer cancel()

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetName("userId_unique").SetUnique(true),
	}

	_, err := db.Collection("carts").Indexes().CreateOne(ctx, userIndex)
	if err != nil {
		log.Println("EnsureCartIndexes: userId index error:", err)
		return err
	}
	return nil
}

// EnsureOrderIndexes backs the order-materializer idempotency check: the unique
// partial index on stripeSessionId rejects the losing insert if two deliveries
// of the same session race past the lookup.
func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := indexContext()
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "stripeSessionId", Value: 1}},
			Options: options.Index().
				SetName("stripeSessionId_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"stripeSessionId": bson.M{"$exists": true, "$type": "string"},
				}),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
	}

	_, err := db.Collection("orders").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureBannerIndexes(db *mongo.Database) error {
	ctx, cancel := indexContext()
	defer cancel()

	orderIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "order", Value: 1}},
		Options: options.Index().SetName("order_asc"),
	}

	_, err := db.Collection("banners").Indexes().CreateOne(ctx, orderIndex)
	if err != nil {
		log.Println("EnsureBannerIndexes: order index error:", err)
		return err
	}
	return nil
}

// EnsureCatalogIndexes creates case-insensitive unique name indexes for the
// simple admin entities, and the composite (name, kind) key for bundles.
func EnsureCatalogIndexes(db *mongo.Database) error {
	ctx, cancel := indexContext()
	defer cancel()

	for _, collection := range []string{"categories", "collections", "colors", "skilllevels"} {
		nameIndex := mongo.IndexModel{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetName("name_unique_ci").
				SetUnique(true).
				SetCollation(caseInsensitive),
		}
		if _, err := db.Collection(collection).Indexes().CreateOne(ctx, nameIndex); err != nil {
			log.Printf("EnsureCatalogIndexes: %s name index error: %v", collection, err)
			return err
		}
	}

	bundleIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "kind", Value: 1}},
		Options: options.Index().
			SetName("name_kind_unique_ci").
			SetUnique(true).
			SetCollation(caseInsensitive),
	}
	if _, err := db.Collection("bundles").Indexes().CreateOne(ctx, bundleIndex); err != nil {
		log.Println("EnsureCatalogIndexes: bundle index error:", err)
		return err
	}
	return nil
}
