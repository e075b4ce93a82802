package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProductTypeStandalone = "standalone"
	ProductTypeVariant    = "variant"
)

// ProductImage is a Cloudinary-hosted asset reference.
type ProductImage struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
}

// ProductVariant is a purchasable color variant. Price and discount live on the
// parent product and apply to every variant; only stock and appearance differ.
type ProductVariant struct {
	ItemID           string              `bson:"itemId" json:"itemId"`
	ColorID          primitive.ObjectID  `bson:"colorId" json:"colorId"`
	SecondaryColorID *primitive.ObjectID `bson:"secondaryColorId,omitempty" json:"secondaryColorId,omitempty"`
	Stock            int                 `bson:"stock" json:"stock"`
	Image            *ProductImage       `bson:"image,omitempty" json:"image,omitempty"`
}

// Product is a catalog entry. Exactly one of the standalone fields
// (Stock/Images) or the Variants list is populated, per ProductType.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	ProductType string             `bson:"productType" json:"productType"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	Price         float64  `bson:"price" json:"price"`
	Discount      *float64 `bson:"discount,omitempty" json:"discount,omitempty"`
	DiscountPrice *float64 `bson:"discountPrice,omitempty" json:"discountPrice,omitempty"`

	Stock  int            `bson:"stock" json:"stock"`
	Images []ProductImage `bson:"images,omitempty" json:"images,omitempty"`

	Variants []ProductVariant `bson:"variants,omitempty" json:"variants,omitempty"`

	CategoryID   *primitive.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	CollectionID *primitive.ObjectID `bson:"collectionId,omitempty" json:"collectionId,omitempty"`
	SkillLevelID *primitive.ObjectID `bson:"skillLevelId,omitempty" json:"skillLevelId,omitempty"`
	Tags         StringList          `bson:"tags,omitempty" json:"tags,omitempty"`
	PieceCount   int                 `bson:"pieceCount,omitempty" json:"pieceCount,omitempty"`

	IsActive  bool       `bson:"isActive" json:"isActive"`
	IsDeleted bool       `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}
