package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineupPlayer is a name/position snapshot taken at assignment time. Later
// profile edits do not retroactively change a saved lineup.
type LineupPlayer struct {
	UserID   primitive.ObjectID `json:"userId" bson:"userId"`
	Name     string             `json:"name" bson:"name"`
	Position Position           `json:"position" bson:"position"`
}

// Lineup holds the structure for the lineups collection in mongo: the
// two-squad assignment for one match. At most one lineup exists per match;
// setting a new one deletes and recreates, it is never merged. Squad sizes
// differ by at most one.
type Lineup struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	MatchID   primitive.ObjectID `json:"matchId" bson:"matchId"`
	TeamID    primitive.ObjectID `json:"teamId" bson:"teamId"`
	TeamA     []LineupPlayer     `json:"teamA" bson:"teamA"`
	TeamB     []LineupPlayer     `json:"teamB" bson:"teamB"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
