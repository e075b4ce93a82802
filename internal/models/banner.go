package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Banner is a homepage carousel unit backed by a Cloudinary image or video.
// Active banners keep a dense Order sequence 1..N with no gaps.
type Banner struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Subtitle      string             `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	LinkURL       string             `bson:"linkUrl,omitempty" json:"linkUrl,omitempty"`
	ImageURL      string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ImagePublicID string             `bson:"imagePublicId,omitempty" json:"imagePublicId,omitempty"`
	VideoURL      string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	VideoPublicID string             `bson:"videoPublicId,omitempty" json:"videoPublicId,omitempty"`
	VideoDuration float64            `bson:"videoDuration,omitempty" json:"videoDuration,omitempty"`
	Order         int                `bson:"order" json:"order"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
