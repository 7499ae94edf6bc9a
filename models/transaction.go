package models

import (
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionType classifies a ledger entry and fixes its fund balance effect.
// The type is immutable after creation; only status and approval fields mutate.
type TransactionType string

// Valid transaction types
const (
	TransactionFundCollection TransactionType = "FundCollection"
	TransactionExpense        TransactionType = "Expense"
	TransactionGuestPayment   TransactionType = "GuestPayment"
	TransactionMatchExpense   TransactionType = "MatchExpense"
	TransactionMonthlyFee     TransactionType = "MonthlyFee"
)

// IsValid reports whether t is one of the known transaction types
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionFundCollection, TransactionExpense, TransactionGuestPayment,
		TransactionMatchExpense, TransactionMonthlyFee:
		return true
	}
	return false
}

// ApprovalStatus is the shared pending/approved/rejected lifecycle for
// transactions and payment requests.
type ApprovalStatus string

// Valid approval statuses
const (
	StatusPending  ApprovalStatus = "Pending"
	StatusApproved ApprovalStatus = "Approved"
	StatusRejected ApprovalStatus = "Rejected"
)

// Transaction holds the structure for the transactions collection in mongo.
// Amount is always recorded positive in the domain sense; the signed balance
// effect comes from the type (see BalanceDelta and MatchExpenseDelta).
type Transaction struct {
	ID              primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	TeamID          primitive.ObjectID  `json:"teamId" bson:"teamId"`
	Amount          int64               `json:"amount" bson:"amount"`
	Type            TransactionType     `json:"type" bson:"type"`
	Description     string              `json:"description" bson:"description"`
	ProofImage      string              `json:"proofImage,omitempty" bson:"proofImage,omitempty"`
	RelatedMatchID  *primitive.ObjectID `json:"relatedMatchId" bson:"relatedMatchId"`
	RelatedUserID   *primitive.ObjectID `json:"relatedUserId" bson:"relatedUserId"`
	CreatedBy       primitive.ObjectID  `json:"createdBy" bson:"createdBy"`
	Status          ApprovalStatus      `json:"status" bson:"status"`
	ApprovedBy      *primitive.ObjectID `json:"approvedBy" bson:"approvedBy"`
	ApprovedAt      *primitive.DateTime `json:"approvedAt" bson:"approvedAt"`
	RejectedAt      *primitive.DateTime `json:"rejectedAt" bson:"rejectedAt"`
	RejectionReason string              `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	// MatchExpense figures, retained so approval can recompute the delta
	TotalCost         int64              `json:"totalCost,omitempty" bson:"totalCost,omitempty"`
	TotalParticipants int64              `json:"totalParticipants,omitempty" bson:"totalParticipants,omitempty"`
	GuestCount        int64              `json:"guestCount,omitempty" bson:"guestCount,omitempty"`
	CreatedAt         primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt         primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// MatchExpenseDelta computes the fund effect of a match expense: the full cost
// leaves the fund, guests pay their per-person share back in. The per-person
// division is the only fractional arithmetic in the ledger; the result is
// rounded to the nearest whole unit so balances stay integral.
func MatchExpenseDelta(totalCost, totalParticipants, guestCount int64) int64 {
	costPerPerson := float64(totalCost) / float64(totalParticipants)
	guestPayments := costPerPerson * float64(guestCount)
	return -totalCost + int64(math.Round(guestPayments))
}

// BalanceDelta returns the signed fund balance effect of applying t.
// MonthlyFee entries touch member debt, never the team balance.
func (t *Transaction) BalanceDelta() int64 {
	switch t.Type {
	case TransactionFundCollection, TransactionGuestPayment:
		return t.Amount
	case TransactionExpense:
		return -t.Amount
	case TransactionMatchExpense:
		return MatchExpenseDelta(t.TotalCost, t.TotalParticipants, t.GuestCount)
	case TransactionMonthlyFee:
		return 0
	}
	return 0
}
