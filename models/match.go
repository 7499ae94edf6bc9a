package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Match holds the structure for the matches collection in mongo. The cost
// figures are zero until a MatchExpense transaction writes them back.
type Match struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	TeamID            primitive.ObjectID `json:"teamId" bson:"teamId"`
	Time              primitive.DateTime `json:"time" bson:"time"`
	Location          string             `json:"location" bson:"location"`
	OpponentName      string             `json:"opponentName" bson:"opponentName"`
	ContactPerson     string             `json:"contactPerson,omitempty" bson:"contactPerson,omitempty"`
	VotingDeadline    primitive.DateTime `json:"votingDeadline" bson:"votingDeadline"`
	IsLocked          bool               `json:"isLocked" bson:"isLocked"`
	MatchCost         int64              `json:"matchCost" bson:"matchCost"`
	TotalParticipants int64              `json:"totalParticipants" bson:"totalParticipants"`
	GuestCount        int64              `json:"guestCount" bson:"guestCount"`
	CreatedBy         primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt         primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt         primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// IsVotingOpen reports whether votes may still be created or overwritten at
// the given instant. Locking closes the window regardless of the deadline.
func (m *Match) IsVotingOpen(now time.Time) bool {
	return now.Before(m.VotingDeadline.Time()) && !m.IsLocked
}

// VoteCounts is the per-status tally for one match, computed on read
type VoteCounts struct {
	Participate int `json:"participate"`
	Absent      int `json:"absent"`
	Late        int `json:"late"`
}

// MatchWithVotes is a match decorated with its vote tallies, the requester's
// own vote when present, and the live voting-window flag.
type MatchWithVotes struct {
	Match        `bson:",inline"`
	VoteCounts   VoteCounts `json:"voteCounts"`
	UserVote     *Vote      `json:"userVote"`
	Votes        []Vote     `json:"votes,omitempty"`
	IsVotingOpen bool       `json:"isVotingOpen"`
}
