package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OfficeType is the category of a regional office
type OfficeType string

const (
	// OfficeTypeDS is a district (divisional) secretariat
	OfficeTypeDS OfficeType = "DS"
	// OfficeTypePS is a police station
	OfficeTypePS OfficeType = "PS"
)

// ParseOfficeType normalizes an office type to its uppercase short code
func ParseOfficeType(s string) (OfficeType, bool) {
	t := OfficeType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case OfficeTypeDS, OfficeTypePS:
		return t, true
	}
	return "", false
}

// RegionalOffice is a routing target for report notifications
type RegionalOffice struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type      OfficeType         `bson:"type" json:"type"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	District  string             `bson:"district,omitempty" json:"district,omitempty"`
	Province  string             `bson:"province,omitempty" json:"province,omitempty"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
