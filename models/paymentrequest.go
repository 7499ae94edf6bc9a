package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentRequest holds the structure for the payment_requests collection in
// mongo: a member-initiated request to apply a payment against their own debt.
// The amount is validated against the requester's debt both at submission and
// again at approval, because the debt may have moved in between.
type PaymentRequest struct {
	ID          primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	TeamID      primitive.ObjectID  `json:"teamId" bson:"teamId"`
	UserID      primitive.ObjectID  `json:"userId" bson:"userId"`
	Amount      int64               `json:"amount" bson:"amount"`
	Description string              `json:"description" bson:"description"`
	ProofImage  string              `json:"proofImage,omitempty" bson:"proofImage,omitempty"`
	Status      ApprovalStatus      `json:"status" bson:"status"`
	Reason      string              `json:"reason,omitempty" bson:"reason,omitempty"`
	ApprovedBy  *primitive.ObjectID `json:"approvedBy" bson:"approvedBy"`
	ApprovedAt  *primitive.DateTime `json:"approvedAt" bson:"approvedAt"`
	RejectedAt  *primitive.DateTime `json:"rejectedAt" bson:"rejectedAt"`
	CreatedAt   primitive.DateTime  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   primitive.DateTime  `json:"updatedAt" bson:"updatedAt"`
}
