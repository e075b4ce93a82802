package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Color is referenced by product variants; names are unique case-insensitively.
type Color struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	HexCode   string             `bson:"hexCode" json:"hexCode"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type SkillLevel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Level     int                `bson:"level" json:"level"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
