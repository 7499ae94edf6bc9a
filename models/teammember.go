package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a member's role within one team. The set is closed: authorization
// checks switch exhaustively on it so an unknown role can never slip past a
// role gate.
type Role string

// Valid team roles
const (
	RoleLeader    Role = "Leader"
	RoleTreasurer Role = "Treasurer"
	RoleMember    Role = "Member"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleLeader, RoleTreasurer, RoleMember:
		return true
	}
	return false
}

// CanManageFunds reports whether the role may move money: create approved
// transactions, trigger monthly fees, clear or assign debt, and approve or
// reject requests. Plain members may only submit pending items.
func (r Role) CanManageFunds() bool {
	switch r {
	case RoleLeader, RoleTreasurer:
		return true
	case RoleMember:
		return false
	}
	return false
}

// TeamMember holds the structure for the team_members collection in mongo.
// At most one active record exists per (userId, teamId); the collection carries
// a partial unique index on {userId, teamId, isActive:true}. Debt never goes
// negative: every decrement is a guarded $inc.
type TeamMember struct {
	ID       primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	UserID   primitive.ObjectID  `json:"userId" bson:"userId"`
	TeamID   primitive.ObjectID  `json:"teamId" bson:"teamId"`
	Role     Role                `json:"role" bson:"role"`
	Debt     int64               `json:"debt" bson:"debt"`
	IsActive bool                `json:"isActive" bson:"isActive"`
	JoinedAt primitive.DateTime  `json:"joinedAt" bson:"joinedAt"`
	LeftAt   *primitive.DateTime `json:"leftAt" bson:"leftAt"`
}

// MemberWithUser joins a membership with its user summary for list responses
type MemberWithUser struct {
	TeamMember `bson:",inline"`
	User       UserSummary `json:"user" bson:"user"`
}
