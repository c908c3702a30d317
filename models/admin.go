package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin is a staff member who works on reports. City, district and province
// describe the admin's jurisdiction but are not enforced against reports.
type Admin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Position  string             `bson:"position,omitempty" json:"position,omitempty"`
	City      string             `bson:"city" json:"city"`
	District  string             `bson:"district,omitempty" json:"district,omitempty"`
	Province  string             `bson:"province,omitempty" json:"province,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
