package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoteStatus is a member's RSVP for one match
type VoteStatus string

// Valid vote statuses
const (
	VoteParticipate VoteStatus = "Participate"
	VoteAbsent      VoteStatus = "Absent"
	VoteLate        VoteStatus = "Late"
)

// IsValid reports whether s is one of the known vote statuses
func (s VoteStatus) IsValid() bool {
	switch s {
	case VoteParticipate, VoteAbsent, VoteLate:
		return true
	}
	return false
}

// Vote holds the structure for the votes collection in mongo. Exactly one vote
// exists per (userId, matchId); the collection carries a unique compound index
// and every write is an upsert.
//
// A change requested after the deadline takes effect immediately;
// IsApprovedChange is an audit flag the leader flips afterwards, it does not
// gate whether the new value is live.
type Vote struct {
	ID                primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	UserID            primitive.ObjectID  `json:"userId" bson:"userId"`
	MatchID           primitive.ObjectID  `json:"matchId" bson:"matchId"`
	Status            VoteStatus          `json:"status" bson:"status"`
	GuestCount        int64               `json:"guestCount" bson:"guestCount"`
	Note              string              `json:"note,omitempty" bson:"note,omitempty"`
	IsApprovedChange  bool                `json:"isApprovedChange" bson:"isApprovedChange"`
	ChangeReason      string              `json:"changeReason,omitempty" bson:"changeReason,omitempty"`
	ChangeRequestedAt *primitive.DateTime `json:"changeRequestedAt" bson:"changeRequestedAt"`
	CreatedAt         primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt         primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}
