package models

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team holds the structure for the teams collection in mongo. CurrentFundBalance
// is the running sum of every approved transaction effect and is mutated only
// through the finance handlers, always with atomic increments.
type Team struct {
	ID                 primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name               string             `json:"name" bson:"name"`
	InviteCode         string             `json:"inviteCode" bson:"inviteCode"`
	MonthlyFeeAmount   int64              `json:"monthlyFeeAmount" bson:"monthlyFeeAmount"`
	CurrentFundBalance int64              `json:"currentFundBalance" bson:"currentFundBalance"`
	AutoCollectFee     bool               `json:"autoCollectFee" bson:"autoCollectFee"`
	CreatedBy          primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt          primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt          primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// GenerateInviteCode returns a fresh 16-hex-char uppercase invite code
func GenerateInviteCode() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}
