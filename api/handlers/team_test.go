package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

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

func TestTeam_Create_EnrollsCreatorAsLeader(t *testing.T) {
	userID := primitive.NewObjectID()

	tdb := mocks.NewTeamDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)

	tdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(team models.Team) bool {
		return team.Name == "FC Sunday" && team.MonthlyFeeAmount == 100000 && len(team.InviteCode) == 16
	})).Return(nil, nil)
	mdb.On("InsertOne", mock.Anything, mock.MatchedBy(func(m models.TeamMember) bool {
		return m.UserID == userID && m.Role == models.RoleLeader && m.Debt == 0 && m.IsActive
	})).Return(nil, nil)

	h := handlers.Team{DB: tdb, MDB: mdb, DefaultMonthlyFee: 100000}
	req := authedRequest("POST", "/api/v1/team", `{"teamName":"FC Sunday"}`, userID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"membership"`)
}

func TestTeam_Create_NegativeFeeRejected(t *testing.T) {
	h := handlers.Team{}
	req := authedRequest("POST", "/api/v1/team",
		`{"teamName":"FC Sunday","monthlyFeeAmount":-5000}`, primitive.NewObjectID())

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTeam_Join_InvalidInviteCode(t *testing.T) {
	tdb := mocks.NewTeamDatabase(t)
	tdb.On("FindOne", mock.Anything, bson.M{"inviteCode": "DEADBEEFDEADBEEF"}).
		Return(nil, mongo.ErrNoDocuments)

	h := handlers.Team{DB: tdb}
	// lowercase input must be uppercased before the lookup
	req := authedRequest("POST", "/api/v1/team/join",
		`{"inviteCode":"deadbeefdeadbeef"}`, primitive.NewObjectID())

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.JoinTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid invite code")
}

func TestTeam_Join_AlreadyMember(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	tdb := mocks.NewTeamDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)

	tdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Team{ID: teamID, Name: "FC Sunday"}, nil)
	mdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Code: 11000}},
	})

	h := handlers.Team{DB: tdb, MDB: mdb}
	req := authedRequest("POST", "/api/v1/team/join", `{"inviteCode":"ABCDEF0123456789"}`, userID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.JoinTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "already a member")
}

func TestTeam_Leave_OutstandingDebtBlocks(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	// the guarded update only matches debt:0 memberships
	mdb.On("UpdateOne", mock.Anything, bson.M{
		"userId": userID, "teamId": teamID, "isActive": true, "debt": 0,
	}, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, Debt: 250000, IsActive: true,
	}, nil)

	h := handlers.Team{MDB: mdb}
	req := authedRequest("POST", "/api/v1/team/"+teamID.Hex()+"/leave", "", userID)
	req = mux.SetURLVars(req, map[string]string{"team_id": teamID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LeaveTeamHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "outstanding debt of 250000")
}

func TestTeam_Kick_NonLeaderForbidden(t *testing.T) {
	actorID := primitive.NewObjectID()
	targetID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	mdb := mocks.NewTeamMemberDatabase(t)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: actorID, TeamID: teamID, Role: models.RoleTreasurer, IsActive: true,
	}, nil)

	h := handlers.Team{MDB: mdb}
	req := authedRequest("POST", "/api/v1/team/"+teamID.Hex()+"/kick",
		`{"userId":"`+targetID.Hex()+`"}`, actorID)
	req = mux.SetURLVars(req, map[string]string{"team_id": teamID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.KickMemberHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestTeam_Kick_SelfRejected(t *testing.T) {
	actorID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	h := handlers.Team{}
	req := authedRequest("POST", "/api/v1/team/"+teamID.Hex()+"/kick",
		`{"userId":"`+actorID.Hex()+`"}`, actorID)
	req = mux.SetURLVars(req, map[string]string{"team_id": teamID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.KickMemberHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "cannot kick yourself")
}

func TestTeam_ChangeRole_InvalidRole(t *testing.T) {
	actorID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	h := handlers.Team{}
	req := authedRequest("PUT", "/api/v1/team/"+teamID.Hex()+"/role",
		`{"userId":"`+primitive.NewObjectID().Hex()+`","newRole":"Captain"}`, actorID)
	req = mux.SetURLVars(req, map[string]string{"team_id": teamID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.ChangeRoleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid role")
}

func TestTeam_RenewInviteCode_LeaderOnly(t *testing.T) {
	leaderID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	tdb := mocks.NewTeamDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)

	mdb.On("FindOne", mock.Anything, mock.Anything).Return(leaderMember(leaderID, teamID), nil)
	tdb.On("UpdateOne", mock.Anything, bson.M{"_id": teamID}, mock.MatchedBy(func(update interface{}) bool {
		set, ok := update.(bson.M)["$set"].(bson.M)
		if !ok {
			return false
		}
		code, ok := set["inviteCode"].(string)
		return ok && len(code) == 16
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	h := handlers.Team{DB: tdb, MDB: mdb}
	req := authedRequest("POST", "/api/v1/team/"+teamID.Hex()+"/invite-code/renew", "", leaderID)
	req = mux.SetURLVars(req, map[string]string{"team_id": teamID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.RenewInviteCodeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"inviteCode"`)
}
