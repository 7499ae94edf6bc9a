package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/config"
	"github.com/siuno/teamfund-api/databases"
	"github.com/siuno/teamfund-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Finance exposes the team fund ledger: transactions, debt management
// and member payment requests.
type Finance struct {
	TDB     databases.TeamDatabase
	MDB     databases.TeamMemberDatabase
	TXDB    databases.TransactionDatabase
	PRDB    databases.PaymentRequestDatabase
	MatchDB databases.MatchDatabase
	UDB     databases.UserDatabase
}

type createTransactionRequest struct {
	TeamID            string `json:"teamId"`
	Amount            int64  `json:"amount"`
	Type              string `json:"type"`
	Description       string `json:"description"`
	ProofImage        string `json:"proofImage"`
	RelatedMatchID    string `json:"relatedMatchId"`
	TotalCost         int64  `json:"totalCost"`
	TotalParticipants int64  `json:"totalParticipants"`
	GuestCount        int64  `json:"guestCount"`
}

type teamScopedRequest struct {
	TeamID string `json:"teamId"`
}

type rejectRequest struct {
	TeamID string `json:"teamId"`
	Reason string `json:"reason"`
}

type debtChangeRequest struct {
	TeamID      string `json:"teamId"`
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ProofImage  string `json:"proofImage"`
}

type createPaymentRequestBody struct {
	TeamID      string `json:"teamId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ProofImage  string `json:"proofImage"`
}

// StatsHandler returns the fund dashboard: current balance, total
// outstanding debt, the per-member debt breakdown and recent activity.
func (f Finance) StatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to get finance stats", w, err)
		return
	}
	teamID, err := objectIDFromHex(r.URL.Query().Get("teamId"))
	if err != nil {
		config.DomainError("failed to get finance stats", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to get finance stats", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to get finance stats", w, err)
		return
	}

	team, err := f.TDB.FindOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to get finance stats", w, models.NewNotFoundError("team not found"))
			return
		}
		config.ErrorStatus("failed to get team by ID", http.StatusInternalServerError, w, err)
		return
	}

	debtors, err := f.MDB.Find(ctx, bson.M{"teamId": teamID, "isActive": true, "debt": bson.M{"$gt": 0}})
	if err != nil {
		config.ErrorStatus("failed to get members with debt", http.StatusInternalServerError, w, err)
		return
	}
	userIDs := make([]primitive.ObjectID, 0, len(debtors))
	for _, d := range debtors {
		userIDs = append(userIDs, d.UserID)
	}
	names := map[primitive.ObjectID]models.User{}
	if len(userIDs) > 0 {
		users, err := f.UDB.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
		if err != nil {
			config.ErrorStatus("failed to get debtor users", http.StatusInternalServerError, w, err)
			return
		}
		for _, u := range users {
			names[u.ID] = u
		}
	}

	var totalDebt int64
	usersWithDebt := make([]models.UserDebt, 0, len(debtors))
	for _, d := range debtors {
		totalDebt += d.Debt
		u := names[d.UserID]
		usersWithDebt = append(usersWithDebt, models.UserDebt{
			UserID: d.UserID.Hex(),
			Name:   u.Name,
			Email:  u.Email,
			Debt:   d.Debt,
		})
	}

	recent, err := f.TXDB.Find(ctx, bson.M{"teamId": teamID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(20))
	if err != nil {
		config.ErrorStatus("failed to get recent transactions", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.FinanceStats{
		CurrentFundBalance:   team.CurrentFundBalance,
		MonthlyFeeAmount:     team.MonthlyFeeAmount,
		TotalOutstandingDebt: totalDebt,
		UsersWithDebt:        usersWithDebt,
		RecentTransactions:   recent,
	})
}

// CreateTransactionHandler records a ledger entry. Leaders and
// treasurers get an immediately approved entry with the balance
// applied; plain members get a pending entry awaiting approval.
func (f Finance) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to create transaction", w, err)
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to create transaction", w, err)
		return
	}
	txnType := models.TransactionType(req.Type)
	if !txnType.IsValid() {
		config.DomainError("failed to create transaction", w, models.NewValidationError("invalid transaction type: %s", req.Type))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to create transaction", w, err)
		return
	}

	now := nowDateTime()
	txn := models.Transaction{
		ID:          primitive.NewObjectID(),
		TeamID:      teamID,
		Amount:      req.Amount,
		Type:        txnType,
		Description: req.Description,
		ProofImage:  req.ProofImage,
		CreatedBy:   userID,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if txnType == models.TransactionMatchExpense {
		if req.TotalCost <= 0 || req.TotalParticipants <= 0 || req.GuestCount < 0 {
			config.DomainError("failed to create transaction", w,
				models.NewValidationError("match expense requires a positive total cost and participant count"))
			return
		}
		matchID, err := objectIDFromHex(req.RelatedMatchID)
		if err != nil {
			config.DomainError("failed to create transaction", w, err)
			return
		}
		if _, err := f.MatchDB.FindOne(ctx, bson.M{"_id": matchID, "teamId": teamID}); err != nil {
			if err == mongo.ErrNoDocuments {
				config.DomainError("failed to create transaction", w, models.NewNotFoundError("match not found in this team"))
				return
			}
			config.ErrorStatus("failed to get match by ID", http.StatusInternalServerError, w, err)
			return
		}
		txn.RelatedMatchID = &matchID
		txn.TotalCost = req.TotalCost
		txn.TotalParticipants = req.TotalParticipants
		txn.GuestCount = req.GuestCount
		txn.Amount = req.TotalCost
	} else if req.Amount <= 0 {
		config.DomainError("failed to create transaction", w, models.NewValidationError("amount must be positive"))
		return
	}

	if _, err := f.TXDB.InsertOne(ctx, txn); err != nil {
		config.ErrorStatus("failed to insert transaction", http.StatusInternalServerError, w, err)
		return
	}

	if !member.Role.CanManageFunds() {
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"transaction": txn,
			"message":     "transaction recorded and awaiting approval",
		})
		return
	}

	approved, err := f.approveTransaction(ctx, teamID, txn.ID, userID)
	if err != nil {
		config.DomainError("failed to apply transaction", w, err)
		return
	}
	team, err := f.TDB.FindOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		config.ErrorStatus("failed to get team by ID", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction":    approved,
		"newFundBalance": team.CurrentFundBalance,
	})
}

// PendingTransactionsHandler lists a team's transactions awaiting
// approval. Leaders and treasurers only.
func (f Finance) PendingTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to get pending transactions", w, err)
		return
	}
	teamID, err := objectIDFromHex(r.URL.Query().Get("teamId"))
	if err != nil {
		config.DomainError("failed to get pending transactions", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to get pending transactions", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to get pending transactions", w, err)
		return
	}

	pending, err := f.TXDB.Find(ctx, bson.M{"teamId": teamID, "status": models.StatusPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		config.ErrorStatus("failed to get pending transactions", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// approveTransaction flips a pending transaction to approved and
// applies its fund effect. The status flip is the serialization point:
// the filter only matches a pending document, so concurrent approvals
// apply the balance delta at most once.
func (f Finance) approveTransaction(ctx context.Context, teamID, txnID, approverID primitive.ObjectID) (*models.Transaction, error) {
	now := nowDateTime()
	txn, err := f.TXDB.FindOneAndUpdate(ctx,
		bson.M{"_id": txnID, "teamId": teamID, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"status":     models.StatusApproved,
			"approvedBy": approverID,
			"approvedAt": now,
			"updatedAt":  now,
		}},
	)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, findErr := f.TXDB.FindOne(ctx, bson.M{"_id": txnID, "teamId": teamID}); findErr == mongo.ErrNoDocuments {
				return nil, models.NewNotFoundError("transaction not found")
			} else if findErr != nil {
				return nil, findErr
			}
			return nil, models.NewStateError("transaction is not pending")
		}
		return nil, err
	}

	if delta := txn.BalanceDelta(); delta != 0 {
		if _, err := f.TDB.UpdateOne(ctx,
			bson.M{"_id": teamID},
			bson.M{"$inc": bson.M{"currentFundBalance": delta}, "$set": bson.M{"updatedAt": now}},
		); err != nil {
			return nil, err
		}
	}

	if txn.Type == models.TransactionMatchExpense && txn.RelatedMatchID != nil {
		if _, err := f.MatchDB.UpdateOne(ctx,
			bson.M{"_id": *txn.RelatedMatchID},
			bson.M{"$set": bson.M{
				"matchCost":         txn.TotalCost,
				"totalParticipants": txn.TotalParticipants,
				"guestCount":        txn.GuestCount,
				"updatedAt":         now,
			}},
		); err != nil {
			return nil, err
		}
	}

	zap.S().With("transactionID", txnID.Hex(), "delta", txn.BalanceDelta()).Info("transaction approved")
	return txn, nil
}

// ApproveTransactionHandler approves a pending member transaction and
// applies its fund effect. Leaders and treasurers only.
func (f Finance) ApproveTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to approve transaction", w, err)
		return
	}
	txnID, err := objectIDFromHex(mux.Vars(r)["transaction_id"])
	if err != nil {
		config.DomainError("failed to approve transaction", w, err)
		return
	}

	var req teamScopedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to approve transaction", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to approve transaction", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to approve transaction", w, err)
		return
	}

	txn, err := f.approveTransaction(ctx, teamID, txnID, userID)
	if err != nil {
		config.DomainError("failed to approve transaction", w, err)
		return
	}
	team, err := f.TDB.FindOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		config.ErrorStatus("failed to get team by ID", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction":    txn,
		"newFundBalance": team.CurrentFundBalance,
	})
}

// RejectTransactionHandler rejects a pending member transaction. No
// balance effect. Leaders and treasurers only.
func (f Finance) RejectTransactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to reject transaction", w, err)
		return
	}
	txnID, err := objectIDFromHex(mux.Vars(r)["transaction_id"])
	if err != nil {
		config.DomainError("failed to reject transaction", w, err)
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to reject transaction", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to reject transaction", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to reject transaction", w, err)
		return
	}

	now := nowDateTime()
	txn, err := f.TXDB.FindOneAndUpdate(ctx,
		bson.M{"_id": txnID, "teamId": teamID, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"status":          models.StatusRejected,
			"rejectedAt":      now,
			"rejectionReason": req.Reason,
			"updatedAt":       now,
		}},
	)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, findErr := f.TXDB.FindOne(ctx, bson.M{"_id": txnID, "teamId": teamID}); findErr == mongo.ErrNoDocuments {
				config.DomainError("failed to reject transaction", w, models.NewNotFoundError("transaction not found"))
				return
			}
			config.DomainError("failed to reject transaction", w, models.NewStateError("transaction is not pending"))
			return
		}
		config.ErrorStatus("failed to reject transaction", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transaction": txn})
}

// MonthlyFeeHandler adds the team's monthly fee to every active
// member's debt and records one ledger entry per member. Each call
// applies the full fee again; idempotence is the caller's concern.
func (f Finance) MonthlyFeeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to trigger monthly fee", w, err)
		return
	}

	var req teamScopedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to trigger monthly fee", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to trigger monthly fee", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to trigger monthly fee", w, err)
		return
	}

	team, err := f.TDB.FindOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to trigger monthly fee", w, models.NewNotFoundError("team not found"))
			return
		}
		config.ErrorStatus("failed to get team by ID", http.StatusInternalServerError, w, err)
		return
	}

	affected, err := ApplyMonthlyFee(ctx, f.MDB, f.TXDB, team, userID, time.Now())
	if err != nil {
		config.ErrorStatus("failed to apply monthly fee", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"affectedMembers": affected,
		"feeAmount":       team.MonthlyFeeAmount,
	})
}

// ApplyMonthlyFee increments every active member's debt by the team's
// monthly fee and records an approved fee entry per member. It is
// shared by the manual trigger and the scheduled auto collection.
func ApplyMonthlyFee(ctx context.Context, mdb databases.TeamMemberDatabase, txdb databases.TransactionDatabase, team *models.Team, triggeredBy primitive.ObjectID, at time.Time) (int, error) {
	members, err := mdb.Find(ctx, bson.M{"teamId": team.ID, "isActive": true})
	if err != nil {
		return 0, err
	}

	now := primitive.NewDateTimeFromTime(at)
	description := "Monthly fee for " + at.Format("January 2006")
	for _, m := range members {
		if _, err := mdb.UpdateOne(ctx,
			bson.M{"_id": m.ID, "isActive": true},
			bson.M{"$inc": bson.M{"debt": team.MonthlyFeeAmount}},
		); err != nil {
			return 0, err
		}
		relatedUserID := m.UserID
		txn := models.Transaction{
			ID:            primitive.NewObjectID(),
			TeamID:        team.ID,
			Amount:        team.MonthlyFeeAmount,
			Type:          models.TransactionMonthlyFee,
			Description:   description,
			RelatedUserID: &relatedUserID,
			CreatedBy:     triggeredBy,
			Status:        models.StatusApproved,
			ApprovedBy:    &triggeredBy,
			ApprovedAt:    &now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if _, err := txdb.InsertOne(ctx, txn); err != nil {
			return 0, err
		}
	}
	zap.S().With("teamID", team.ID.Hex(), "members", len(members)).Info("monthly fee applied")
	return len(members), nil
}

// ClearDebtHandler records a cash debt payment collected outside the
// app: the member's debt drops, the fund balance rises, and a fund
// collection entry links the two.
func (f Finance) ClearDebtHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to clear debt", w, err)
		return
	}

	var req debtChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to clear debt", w, err)
		return
	}
	targetID, err := objectIDFromHex(req.UserID)
	if err != nil {
		config.DomainError("failed to clear debt", w, err)
		return
	}
	if req.Amount <= 0 {
		config.DomainError("failed to clear debt", w, models.NewValidationError("amount must be positive"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to clear debt", w, err)
		return
	}
	if err := requireFundManager(actor); err != nil {
		config.DomainError("failed to clear debt", w, err)
		return
	}

	// guarded decrement keeps the debt from going negative under
	// concurrent payments
	res, err := f.MDB.UpdateOne(ctx,
		bson.M{"userId": targetID, "teamId": teamID, "isActive": true, "debt": bson.M{"$gte": req.Amount}},
		bson.M{"$inc": bson.M{"debt": -req.Amount}},
	)
	if err != nil {
		config.ErrorStatus("failed to update member debt", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		target, findErr := f.MDB.FindOne(ctx, bson.M{"userId": targetID, "teamId": teamID, "isActive": true})
		if findErr != nil {
			if findErr == mongo.ErrNoDocuments {
				config.DomainError("failed to clear debt", w, models.NewNotFoundError("active membership not found"))
				return
			}
			config.ErrorStatus("failed to get member", http.StatusInternalServerError, w, findErr)
			return
		}
		config.DomainError("failed to clear debt", w,
			models.NewValidationError("payment amount (%d) exceeds member debt (%d)", req.Amount, target.Debt))
		return
	}

	now := nowDateTime()
	if _, err := f.TDB.UpdateOne(ctx,
		bson.M{"_id": teamID},
		bson.M{"$inc": bson.M{"currentFundBalance": req.Amount}, "$set": bson.M{"updatedAt": now}},
	); err != nil {
		config.ErrorStatus("failed to update fund balance", http.StatusInternalServerError, w, err)
		return
	}

	targetName := targetID.Hex()
	if target, err := f.UDB.FindOne(ctx, bson.M{"_id": targetID}); err == nil {
		targetName = target.Name
	}
	txn := models.Transaction{
		ID:            primitive.NewObjectID(),
		TeamID:        teamID,
		Amount:        req.Amount,
		Type:          models.TransactionFundCollection,
		Description:   "Debt payment from " + targetName,
		ProofImage:    req.ProofImage,
		RelatedUserID: &targetID,
		CreatedBy:     userID,
		Status:        models.StatusApproved,
		ApprovedBy:    &userID,
		ApprovedAt:    &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.TXDB.InsertOne(ctx, txn); err != nil {
		config.ErrorStatus("failed to insert transaction", http.StatusInternalServerError, w, err)
		return
	}

	member, err := f.MDB.FindOne(ctx, bson.M{"userId": targetID, "teamId": teamID, "isActive": true})
	if err != nil {
		config.ErrorStatus("failed to get member", http.StatusInternalServerError, w, err)
		return
	}
	team, err := f.TDB.FindOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		config.ErrorStatus("failed to get team by ID", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction":    txn,
		"remainingDebt":  member.Debt,
		"newFundBalance": team.CurrentFundBalance,
	})
}

// AssignDebtHandler adds an ad-hoc charge to one member's debt, with a
// fee entry for the audit trail. The fund balance is untouched.
func (f Finance) AssignDebtHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to assign debt", w, err)
		return
	}

	var req debtChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to assign debt", w, err)
		return
	}
	targetID, err := objectIDFromHex(req.UserID)
	if err != nil {
		config.DomainError("failed to assign debt", w, err)
		return
	}
	if req.Amount <= 0 {
		config.DomainError("failed to assign debt", w, models.NewValidationError("amount must be positive"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to assign debt", w, err)
		return
	}
	if err := requireFundManager(actor); err != nil {
		config.DomainError("failed to assign debt", w, err)
		return
	}

	res, err := f.MDB.UpdateOne(ctx,
		bson.M{"userId": targetID, "teamId": teamID, "isActive": true},
		bson.M{"$inc": bson.M{"debt": req.Amount}},
	)
	if err != nil {
		config.ErrorStatus("failed to update member debt", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.DomainError("failed to assign debt", w, models.NewNotFoundError("active membership not found"))
		return
	}

	now := nowDateTime()
	txn := models.Transaction{
		ID:            primitive.NewObjectID(),
		TeamID:        teamID,
		Amount:        req.Amount,
		Type:          models.TransactionMonthlyFee,
		Description:   req.Description,
		RelatedUserID: &targetID,
		CreatedBy:     userID,
		Status:        models.StatusApproved,
		ApprovedBy:    &userID,
		ApprovedAt:    &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.TXDB.InsertOne(ctx, txn); err != nil {
		config.ErrorStatus("failed to insert transaction", http.StatusInternalServerError, w, err)
		return
	}

	member, err := f.MDB.FindOne(ctx, bson.M{"userId": targetID, "teamId": teamID, "isActive": true})
	if err != nil {
		config.ErrorStatus("failed to get member", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transaction": txn,
		"newDebt":     member.Debt,
	})
}

// CreatePaymentRequestHandler lets a member declare they have paid
// their debt in cash; a leader or treasurer confirms it later. The
// amount is checked against the member's debt now and re-checked at
// approval.
func (f Finance) CreatePaymentRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to create payment request", w, err)
		return
	}

	var req createPaymentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to create payment request", w, err)
		return
	}
	if req.Amount <= 0 {
		config.DomainError("failed to create payment request", w, models.NewValidationError("amount must be positive"))
		return
	}
	if req.Description == "" {
		config.DomainError("failed to create payment request", w, models.NewValidationError("description is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to create payment request", w, err)
		return
	}
	if req.Amount > member.Debt {
		config.DomainError("failed to create payment request", w,
			models.NewValidationError("payment amount (%d) exceeds your debt (%d)", req.Amount, member.Debt))
		return
	}

	now := nowDateTime()
	pr := models.PaymentRequest{
		ID:          primitive.NewObjectID(),
		TeamID:      teamID,
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
		ProofImage:  req.ProofImage,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.PRDB.InsertOne(ctx, pr); err != nil {
		config.ErrorStatus("failed to insert payment request", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pr)
}

// PaymentRequestsHandler lists a team's payment requests, optionally
// filtered by status. Leaders and treasurers only.
func (f Finance) PaymentRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to get payment requests", w, err)
		return
	}
	teamID, err := objectIDFromHex(r.URL.Query().Get("teamId"))
	if err != nil {
		config.DomainError("failed to get payment requests", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to get payment requests", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to get payment requests", w, err)
		return
	}

	filter := bson.M{"teamId": teamID}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = models.ApprovalStatus(status)
	}
	requests, err := f.PRDB.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		config.ErrorStatus("failed to get payment requests", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// ApprovePaymentRequestHandler confirms a member's declared payment:
// debt drops by the requested amount and the fund balance rises by the
// same amount, with a ledger entry. The amount is re-validated against
// the member's current debt.
func (f Finance) ApprovePaymentRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to approve payment request", w, err)
		return
	}
	requestID, err := objectIDFromHex(mux.Vars(r)["request_id"])
	if err != nil {
		config.DomainError("failed to approve payment request", w, err)
		return
	}

	var req teamScopedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to approve payment request", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to approve payment request", w, err)
		return
	}
	if err := requireFundManager(actor); err != nil {
		config.DomainError("failed to approve payment request", w, err)
		return
	}

	// the status flip is the serialization point: of two concurrent
	// approvals only one matches the pending filter
	now := nowDateTime()
	pr, err := f.PRDB.FindOneAndUpdate(ctx,
		bson.M{"_id": requestID, "teamId": teamID, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"status":     models.StatusApproved,
			"approvedBy": userID,
			"approvedAt": now,
			"updatedAt":  now,
		}},
	)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, findErr := f.PRDB.FindOne(ctx, bson.M{"_id": requestID, "teamId": teamID}); findErr == mongo.ErrNoDocuments {
				config.DomainError("failed to approve payment request", w, models.NewNotFoundError("payment request not found"))
				return
			}
			config.DomainError("failed to approve payment request", w, models.NewStateError("payment request is not pending"))
			return
		}
		config.ErrorStatus("failed to approve payment request", http.StatusInternalServerError, w, err)
		return
	}

	// re-check the amount against the member's current debt; the debt
	// may have been cleared since the request was filed. A failed
	// check reverts the flip so the request stays actionable.
	res, err := f.MDB.UpdateOne(ctx,
		bson.M{"userId": pr.UserID, "teamId": teamID, "isActive": true, "debt": bson.M{"$gte": pr.Amount}},
		bson.M{"$inc": bson.M{"debt": -pr.Amount}},
	)
	if err != nil {
		config.ErrorStatus("failed to update member debt", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		if _, revertErr := f.PRDB.FindOneAndUpdate(ctx,
			bson.M{"_id": requestID, "status": models.StatusApproved},
			bson.M{"$set": bson.M{"status": models.StatusPending, "updatedAt": nowDateTime()},
				"$unset": bson.M{"approvedBy": "", "approvedAt": ""}},
		); revertErr != nil && revertErr != mongo.ErrNoDocuments {
			config.ErrorStatus("failed to revert payment request", http.StatusInternalServerError, w, revertErr)
			return
		}
		config.DomainError("failed to approve payment request", w,
			models.NewValidationError("request amount (%d) exceeds the member's current debt", pr.Amount))
		return
	}

	if _, err := f.TDB.UpdateOne(ctx,
		bson.M{"_id": teamID},
		bson.M{"$inc": bson.M{"currentFundBalance": pr.Amount}, "$set": bson.M{"updatedAt": now}},
	); err != nil {
		config.ErrorStatus("failed to update fund balance", http.StatusInternalServerError, w, err)
		return
	}

	memberName := pr.UserID.Hex()
	if target, err := f.UDB.FindOne(ctx, bson.M{"_id": pr.UserID}); err == nil {
		memberName = target.Name
	}
	relatedUserID := pr.UserID
	txn := models.Transaction{
		ID:            primitive.NewObjectID(),
		TeamID:        teamID,
		Amount:        pr.Amount,
		Type:          models.TransactionFundCollection,
		Description:   "Debt payment from " + memberName,
		ProofImage:    pr.ProofImage,
		RelatedUserID: &relatedUserID,
		CreatedBy:     userID,
		Status:        models.StatusApproved,
		ApprovedBy:    &userID,
		ApprovedAt:    &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.TXDB.InsertOne(ctx, txn); err != nil {
		config.ErrorStatus("failed to insert transaction", http.StatusInternalServerError, w, err)
		return
	}

	team, err := f.TDB.FindOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		config.ErrorStatus("failed to get team by ID", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"paymentRequest": pr,
		"transaction":    txn,
		"newFundBalance": team.CurrentFundBalance,
	})
}

// RejectPaymentRequestHandler turns down a pending payment request.
// Debt and balance are untouched.
func (f Finance) RejectPaymentRequestHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to reject payment request", w, err)
		return
	}
	requestID, err := objectIDFromHex(mux.Vars(r)["request_id"])
	if err != nil {
		config.DomainError("failed to reject payment request", w, err)
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to reject payment request", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := activeMembership(ctx, f.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to reject payment request", w, err)
		return
	}
	if err := requireFundManager(actor); err != nil {
		config.DomainError("failed to reject payment request", w, err)
		return
	}

	now := nowDateTime()
	pr, err := f.PRDB.FindOneAndUpdate(ctx,
		bson.M{"_id": requestID, "teamId": teamID, "status": models.StatusPending},
		bson.M{"$set": bson.M{
			"status":     models.StatusRejected,
			"reason":     req.Reason,
			"rejectedAt": now,
			"updatedAt":  now,
		}},
	)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, findErr := f.PRDB.FindOne(ctx, bson.M{"_id": requestID, "teamId": teamID}); findErr == mongo.ErrNoDocuments {
				config.DomainError("failed to reject payment request", w, models.NewNotFoundError("payment request not found"))
				return
			}
			config.DomainError("failed to reject payment request", w, models.NewStateError("payment request is not pending"))
			return
		}
		config.ErrorStatus("failed to reject payment request", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"paymentRequest": pr})
}
