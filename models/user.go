package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Position is the field position a player registers with. Lineup snapshots
// copy it verbatim, so renaming a value is a data migration.
type Position string

// Valid player positions
const (
	PositionStriker    Position = "Striker"
	PositionMidfielder Position = "Midfielder"
	PositionDefender   Position = "Defender"
	PositionGoalkeeper Position = "Goalkeeper"
	PositionWinger     Position = "Winger"
)

// IsValid reports whether p is one of the known positions
func (p Position) IsValid() bool {
	switch p {
	case PositionStriker, PositionMidfielder, PositionDefender, PositionGoalkeeper, PositionWinger:
		return true
	}
	return false
}

// User holds the structure for the users collection in mongo
type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Password     string             `json:"-" bson:"password"`
	Phone        string             `json:"phone" bson:"phone"`
	Position     Position           `json:"position" bson:"position"`
	IsSuperAdmin bool               `json:"isSuperAdmin" bson:"isSuperAdmin"`
	IsActive     bool               `json:"isActive" bson:"isActive"`
	CreatedAt    primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt    primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// UserSummary is the reduced user shape embedded in list responses
type UserSummary struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Email    string             `json:"email,omitempty" bson:"email,omitempty"`
	Position Position           `json:"position,omitempty" bson:"position,omitempty"`
}
