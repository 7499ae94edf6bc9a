package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/api/handlers"
	"github.com/siuno/teamfund-api/databases/mocks"
	"github.com/siuno/teamfund-api/models"
)

func authedRequest(method, target, body string, userID primitive.ObjectID) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return api.RequestWithUserID(req, userID.Hex())
}

func leaderMember(userID, teamID primitive.ObjectID) *models.TeamMember {
	return &models.TeamMember{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		TeamID:   teamID,
		Role:     models.RoleLeader,
		IsActive: true,
	}
}

func TestFinance_CreateTransaction_LeaderExpenseAppliesBalance(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	txnID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	tdb := mocks.NewTeamDatabase(t)
	txdb := mocks.NewTransactionDatabase(t)

	mdb.On("FindOne", mock.Anything, mock.Anything).Return(leaderMember(userID, teamID), nil)
	txdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	txdb.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything).Return(&models.Transaction{
		ID:     txnID,
		TeamID: teamID,
		Type:   models.TransactionExpense,
		Amount: 200000,
		Status: models.StatusApproved,
	}, nil)
	// the expense must land as a single atomic decrement of 200k
	tdb.On("UpdateOne", mock.Anything, bson.M{"_id": teamID}, mock.MatchedBy(func(update interface{}) bool {
		inc, ok := update.(bson.M)["$inc"].(bson.M)
		return ok && inc["currentFundBalance"] == int64(-200000)
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	tdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Team{ID: teamID, CurrentFundBalance: 800000}, nil)

	f := handlers.Finance{TDB: tdb, MDB: mdb, TXDB: txdb}
	body := `{"teamId":"` + teamID.Hex() + `","amount":200000,"type":"Expense","description":"new match balls"}`
	req := authedRequest("POST", "/api/v1/finance/transaction", body, userID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.CreateTransactionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"newFundBalance":800000`)
}

func TestFinance_CreateTransaction_MemberStaysPending(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	txdb := mocks.NewTransactionDatabase(t)

	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, Role: models.RoleMember, IsActive: true,
	}, nil)
	txdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(txn models.Transaction) bool {
		return txn.Status == models.StatusPending
	})).Return(nil, nil)

	f := handlers.Finance{MDB: mdb, TXDB: txdb}
	body := `{"teamId":"` + teamID.Hex() + `","amount":50000,"type":"Expense","description":"water"}`
	req := authedRequest("POST", "/api/v1/finance/transaction", body, userID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.CreateTransactionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "awaiting approval")
}

func TestFinance_CreateTransaction_InvalidType(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	f := handlers.Finance{}
	body := `{"teamId":"` + teamID.Hex() + `","amount":50000,"type":"Refund"}`
	req := authedRequest("POST", "/api/v1/finance/transaction", body, userID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.CreateTransactionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid transaction type")
}

func TestFinance_ApproveTransaction_AlreadyApprovedConflicts(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	txnID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	txdb := mocks.NewTransactionDatabase(t)

	mdb.On("FindOne", mock.Anything, mock.Anything).Return(leaderMember(userID, teamID), nil)
	// the guarded flip misses because the document is no longer pending
	txdb.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	txdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Transaction{
		ID: txnID, TeamID: teamID, Status: models.StatusApproved,
	}, nil)

	f := handlers.Finance{MDB: mdb, TXDB: txdb}
	body := `{"teamId":"` + teamID.Hex() + `"}`
	req := authedRequest("PUT", "/api/v1/finance/transaction/"+txnID.Hex()+"/approve", body, userID)
	req = mux.SetURLVars(req, map[string]string{"transaction_id": txnID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.ApproveTransactionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "not pending")
}

func TestFinance_ApproveTransaction_MemberForbidden(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	txnID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, Role: models.RoleMember, IsActive: true,
	}, nil)

	f := handlers.Finance{MDB: mdb}
	body := `{"teamId":"` + teamID.Hex() + `"}`
	req := authedRequest("PUT", "/api/v1/finance/transaction/"+txnID.Hex()+"/approve", body, userID)
	req = mux.SetURLVars(req, map[string]string{"transaction_id": txnID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.ApproveTransactionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestFinance_CreatePaymentRequest_ExceedsDebt(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, Role: models.RoleMember, Debt: 100000, IsActive: true,
	}, nil)

	f := handlers.Finance{MDB: mdb}
	body := `{"teamId":"` + teamID.Hex() + `","amount":150000,"description":"paid in cash"}`
	req := authedRequest("POST", "/api/v1/finance/payment-request", body, userID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.CreatePaymentRequestHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exceeds your debt")
}

func TestFinance_ApprovePaymentRequest_SettlesDebtAndFund(t *testing.T) {
	approverID := primitive.NewObjectID()
	memberID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	requestID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	tdb := mocks.NewTeamDatabase(t)
	txdb := mocks.NewTransactionDatabase(t)
	prdb := mocks.NewPaymentRequestDatabase(t)
	udb := mocks.NewUserDatabase(t)

	mdb.On("FindOne", mock.Anything, bson.M{"userId": approverID, "teamId": teamID, "isActive": true}).
		Return(leaderMember(approverID, teamID), nil)
	prdb.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything).Return(&models.PaymentRequest{
		ID:     requestID,
		TeamID: teamID,
		UserID: memberID,
		Amount: 100000,
		Status: models.StatusApproved,
	}, nil)
	// the debt decrement carries the >= guard so it cannot go negative
	mdb.On("UpdateOne", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
		f, ok := filter.(bson.M)
		if !ok {
			return false
		}
		guard, ok := f["debt"].(bson.M)
		return ok && guard["$gte"] == int64(100000)
	}), mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	tdb.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		inc, ok := update.(bson.M)["$inc"].(bson.M)
		return ok && inc["currentFundBalance"] == int64(100000)
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{ID: memberID, Name: "Minh"}, nil)
	txdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(txn models.Transaction) bool {
		return txn.Type == models.TransactionFundCollection && txn.Amount == 100000
	})).Return(nil, nil)
	tdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Team{ID: teamID, CurrentFundBalance: 1100000}, nil)

	f := handlers.Finance{TDB: tdb, MDB: mdb, TXDB: txdb, PRDB: prdb, UDB: udb}
	body := `{"teamId":"` + teamID.Hex() + `"}`
	req := authedRequest("PUT", "/api/v1/finance/payment-request/"+requestID.Hex()+"/approve", body, approverID)
	req = mux.SetURLVars(req, map[string]string{"request_id": requestID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.ApprovePaymentRequestHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"newFundBalance":1100000`)
}

func TestFinance_ApprovePaymentRequest_DebtShrankRevertsFlip(t *testing.T) {
	approverID := primitive.NewObjectID()
	memberID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	requestID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	prdb := mocks.NewPaymentRequestDatabase(t)

	mdb.On("FindOne", mock.Anything, mock.Anything).Return(leaderMember(approverID, teamID), nil)
	// first call flips pending->approved, second call reverts it
	prdb.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything).Return(&models.PaymentRequest{
		ID:     requestID,
		TeamID: teamID,
		UserID: memberID,
		Amount: 100000,
	}, nil).Twice()
	mdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)

	f := handlers.Finance{MDB: mdb, PRDB: prdb}
	body := `{"teamId":"` + teamID.Hex() + `"}`
	req := authedRequest("PUT", "/api/v1/finance/payment-request/"+requestID.Hex()+"/approve", body, approverID)
	req = mux.SetURLVars(req, map[string]string{"request_id": requestID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.ApprovePaymentRequestHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exceeds the member's current debt")
	prdb.AssertNumberOfCalls(t, "FindOneAndUpdate", 2)
}

func TestFinance_ClearDebt_ExceedsDebt(t *testing.T) {
	actorID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	mdb.On("FindOne", mock.Anything, bson.M{"userId": actorID, "teamId": teamID, "isActive": true}).
		Return(leaderMember(actorID, teamID), nil)
	mdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	mdb.On("FindOne", mock.Anything, bson.M{"userId": targetID, "teamId": teamID, "isActive": true}).
		Return(&models.TeamMember{UserID: targetID, TeamID: teamID, Debt: 30000, IsActive: true}, nil)

	f := handlers.Finance{MDB: mdb}
	body := `{"teamId":"` + teamID.Hex() + `","userId":"` + targetID.Hex() + `","amount":50000}`
	req := authedRequest("POST", "/api/v1/finance/clear-debt", body, actorID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(f.ClearDebtHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exceeds member debt (30000)")
}

func TestApplyMonthlyFee_ChargesEveryActiveMember(t *testing.T) {
	teamID := primitive.NewObjectID()
	triggeredBy := primitive.NewObjectID()
	team := &models.Team{ID: teamID, Name: "FC Sunday", MonthlyFeeAmount: 100000}

	members := []models.TeamMember{
		{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), TeamID: teamID, IsActive: true},
		{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), TeamID: teamID, IsActive: true},
		{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID(), TeamID: teamID, IsActive: true},
	}

	mdb := mocks.NewTeamMemberDatabase(t)
	txdb := mocks.NewTransactionDatabase(t)

	mdb.On("Find", mock.Anything, mock.Anything).Return(members, nil)
	mdb.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		inc, ok := update.(bson.M)["$inc"].(bson.M)
		return ok && inc["debt"] == int64(100000)
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Times(3)
	txdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(txn models.Transaction) bool {
		return txn.Type == models.TransactionMonthlyFee &&
			txn.Status == models.StatusApproved &&
			txn.RelatedUserID != nil
	})).Return(nil, nil).Times(3)

	at := time.Date(2026, 8, 1, 1, 0, 0, 0, time.UTC)
	affected, err := handlers.ApplyMonthlyFee(context.Background(), mdb, txdb, team, triggeredBy, at)

	require.NoError(t, err)
	assert.Equal(t, 3, affected)
}
