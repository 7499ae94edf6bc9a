package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/siuno/teamfund-api/api/handlers"
	"github.com/siuno/teamfund-api/databases/mocks"
	"github.com/siuno/teamfund-api/models"
)

func upcomingMatch(teamID primitive.ObjectID) *models.Match {
	return &models.Match{
		ID:             primitive.NewObjectID(),
		TeamID:         teamID,
		Time:           primitive.NewDateTimeFromTime(time.Now().Add(48 * time.Hour)),
		Location:       "Thanh Da pitch",
		OpponentName:   "FC Binh Thanh",
		VotingDeadline: primitive.NewDateTimeFromTime(time.Now().Add(24 * time.Hour)),
	}
}

func TestMatch_Vote_UpsertsWhileWindowOpen(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	mdb := mocks.NewTeamMemberDatabase(t)
	matchDB := mocks.NewMatchDatabase(t)
	vdb := mocks.NewVoteDatabase(t)

	matchDB.On("FindOne", mock.Anything, bson.M{"_id": match.ID}).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)
	vdb.On("UpdateOne", mock.Anything, bson.M{"userId": userID, "matchId": match.ID},
		mock.MatchedBy(func(update interface{}) bool {
			set, ok := update.(bson.M)["$set"].(bson.M)
			return ok && set["status"] == models.VoteParticipate && set["guestCount"] == int64(2)
		}), mock.Anything).Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)
	vdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Vote{
		UserID: userID, MatchID: match.ID, Status: models.VoteParticipate, GuestCount: 2,
	}, nil)

	h := handlers.Match{DB: matchDB, MDB: mdb, VDB: vdb}
	req := authedRequest("POST", "/api/v1/match/"+match.ID.Hex()+"/vote",
		`{"status":"Participate","guestCount":2,"note":"bringing two friends"}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.VoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"Participate"`)
}

func TestMatch_Vote_RetriesOnceWhenFirstVotesCollide(t *testing.T) {
	// two first votes racing the unique (userId, matchId) index leave the
	// loser with a duplicate-key error; its retry updates the winner's doc
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	mdb := mocks.NewTeamMemberDatabase(t)
	matchDB := mocks.NewMatchDatabase(t)
	vdb := mocks.NewVoteDatabase(t)

	matchDB.On("FindOne", mock.Anything, bson.M{"_id": match.ID}).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)
	dupErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	vdb.On("UpdateOne", mock.Anything, bson.M{"userId": userID, "matchId": match.ID},
		mock.Anything, mock.Anything).Return(nil, dupErr).Once()
	vdb.On("UpdateOne", mock.Anything, bson.M{"userId": userID, "matchId": match.ID},
		mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil).Once()
	vdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Vote{
		UserID: userID, MatchID: match.ID, Status: models.VoteAbsent,
	}, nil)

	h := handlers.Match{DB: matchDB, MDB: mdb, VDB: vdb}
	req := authedRequest("POST", "/api/v1/match/"+match.ID.Hex()+"/vote",
		`{"status":"Absent"}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.VoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	vdb.AssertNumberOfCalls(t, "UpdateOne", 2)
	assert.Contains(t, rr.Body.String(), `"status":"Absent"`)
}

func TestMatch_Vote_ClosedWindowConflicts(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)
	match.VotingDeadline = primitive.NewDateTimeFromTime(time.Now().Add(-time.Hour))

	mdb := mocks.NewTeamMemberDatabase(t)
	matchDB := mocks.NewMatchDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)

	h := handlers.Match{DB: matchDB, MDB: mdb}
	req := authedRequest("POST", "/api/v1/match/"+match.ID.Hex()+"/vote", `{"status":"Absent"}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.VoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "voting is closed")
}

func TestMatch_Vote_LockedMatchConflicts(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)
	match.IsLocked = true

	mdb := mocks.NewTeamMemberDatabase(t)
	matchDB := mocks.NewMatchDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)

	h := handlers.Match{DB: matchDB, MDB: mdb}
	req := authedRequest("POST", "/api/v1/match/"+match.ID.Hex()+"/vote", `{"status":"Participate"}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.VoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestMatch_Vote_NonMemberForbidden(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	mdb := mocks.NewTeamMemberDatabase(t)
	matchDB := mocks.NewMatchDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	h := handlers.Match{DB: matchDB, MDB: mdb}
	req := authedRequest("POST", "/api/v1/match/"+match.ID.Hex()+"/vote", `{"status":"Participate"}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.VoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMatch_Vote_NegativeGuestCount(t *testing.T) {
	userID := primitive.NewObjectID()

	h := handlers.Match{}
	req := authedRequest("POST", "/api/v1/match/"+primitive.NewObjectID().Hex()+"/vote",
		`{"status":"Participate","guestCount":-1}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": primitive.NewObjectID().Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.VoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "guest count cannot be negative")
}

func TestMatch_RequestVoteChange_NoExistingVote(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	matchDB := mocks.NewMatchDatabase(t)
	vdb := mocks.NewVoteDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	vdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	h := handlers.Match{DB: matchDB, VDB: vdb}
	req := authedRequest("POST", "/api/v1/match/"+match.ID.Hex()+"/request-change",
		`{"status":"Absent","reason":"caught a cold"}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.RequestVoteChangeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "you have not voted for this match yet")
}

func TestMatch_ApproveVoteChange_NoRequestPending(t *testing.T) {
	leaderID := primitive.NewObjectID()
	voterID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	mdb := mocks.NewTeamMemberDatabase(t)
	matchDB := mocks.NewMatchDatabase(t)
	vdb := mocks.NewVoteDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(leaderMember(leaderID, teamID), nil)
	vdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Vote{
		UserID: voterID, MatchID: match.ID, Status: models.VoteAbsent,
	}, nil)

	h := handlers.Match{DB: matchDB, MDB: mdb, VDB: vdb}
	req := authedRequest("POST", "/api/v1/match/"+match.ID.Hex()+"/approve-change",
		`{"userId":"`+voterID.Hex()+`"}`, leaderID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.ApproveVoteChangeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "no change request found")
}

func TestMatch_ApproveVoteChange_NonLeaderForbidden(t *testing.T) {
	actorID := primitive.NewObjectID()
	voterID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	mdb := mocks.NewTeamMemberDatabase(t)
	matchDB := mocks.NewMatchDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: actorID, TeamID: teamID, Role: models.RoleTreasurer, IsActive: true,
	}, nil)

	h := handlers.Match{DB: matchDB, MDB: mdb}
	req := authedRequest("POST", "/api/v1/match/"+match.ID.Hex()+"/approve-change",
		`{"userId":"`+voterID.Hex()+`"}`, actorID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.ApproveVoteChangeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMatch_Delete_RemovesVotesAndLineup(t *testing.T) {
	leaderID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	mdb := mocks.NewTeamMemberDatabase(t)
	matchDB := mocks.NewMatchDatabase(t)
	vdb := mocks.NewVoteDatabase(t)
	ldb := mocks.NewLineupDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(leaderMember(leaderID, teamID), nil)
	matchDB.On("DeleteOne", mock.Anything, bson.M{"_id": match.ID}).Return(int64(1), nil)
	vdb.On("DeleteMany", mock.Anything, bson.M{"matchId": match.ID}).Return(int64(3), nil)
	ldb.On("DeleteMany", mock.Anything, bson.M{"matchId": match.ID}).Return(int64(1), nil)

	h := handlers.Match{DB: matchDB, MDB: mdb, VDB: vdb, LDB: ldb}
	req := authedRequest("DELETE", "/api/v1/match/"+match.ID.Hex(), "", leaderID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.DeleteMatchHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMatch_Create_DeadlineAfterMatchTime(t *testing.T) {
	leaderID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	h := handlers.Match{}
	body := `{"teamId":"` + teamID.Hex() + `","opponentName":"FC Q7","location":"District 7",` +
		`"time":"2026-09-05T18:00:00Z","votingDeadline":"2026-09-06T18:00:00Z"}`
	req := authedRequest("POST", "/api/v1/match", body, leaderID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateMatchHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "voting deadline must be before match time")
}
