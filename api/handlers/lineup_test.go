package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/siuno/teamfund-api/api/handlers"
	"github.com/siuno/teamfund-api/databases/mocks"
	"github.com/siuno/teamfund-api/models"
)

func TestLineup_AutoGenerate_DealsParticipants(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	voters := make([]models.User, 5)
	votes := make([]models.Vote, 5)
	positions := []models.Position{
		models.PositionDefender,
		models.PositionDefender,
		models.PositionMidfielder,
		models.PositionMidfielder,
		models.PositionStriker,
	}
	for i := range voters {
		voters[i] = models.User{ID: primitive.NewObjectID(), Name: "player" + string(rune('A'+i)), Position: positions[i]}
		votes[i] = models.Vote{UserID: voters[i].ID, MatchID: match.ID, Status: models.VoteParticipate}
	}

	matchDB := mocks.NewMatchDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)
	vdb := mocks.NewVoteDatabase(t)
	udb := mocks.NewUserDatabase(t)
	ldb := mocks.NewLineupDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)
	vdb.On("Find", mock.Anything, bson.M{"matchId": match.ID, "status": models.VoteParticipate}).
		Return(votes, nil)
	udb.On("Find", mock.Anything, mock.Anything).Return(voters, nil)
	ldb.On("DeleteMany", mock.Anything, bson.M{"matchId": match.ID}).Return(int64(1), nil)
	ldb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	h := handlers.Lineup{DB: ldb, MatchDB: matchDB, MDB: mdb, VDB: vdb, UDB: udb}
	req := authedRequest("PUT", "/api/v1/match/"+match.ID.Hex()+"/lineup", `{"autoGenerate":true}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.SetLineupHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var lineup models.Lineup
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lineup))
	assert.Equal(t, 5, len(lineup.TeamA)+len(lineup.TeamB))
	diff := len(lineup.TeamA) - len(lineup.TeamB)
	assert.LessOrEqual(t, diff, 1)
	assert.GreaterOrEqual(t, diff, -1)
}

func TestLineup_AutoGenerate_NoParticipants(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	matchDB := mocks.NewMatchDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)
	vdb := mocks.NewVoteDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)
	vdb.On("Find", mock.Anything, mock.Anything).Return([]models.Vote{}, nil)

	h := handlers.Lineup{MatchDB: matchDB, MDB: mdb, VDB: vdb}
	req := authedRequest("PUT", "/api/v1/match/"+match.ID.Hex()+"/lineup", `{"autoGenerate":true}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.SetLineupHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "no participating votes")
}

func TestLineup_Manual_UnbalancedSquadsRejected(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	ids := make([]primitive.ObjectID, 4)
	for i := range ids {
		ids[i] = primitive.NewObjectID()
	}

	matchDB := mocks.NewMatchDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)
	udb := mocks.NewUserDatabase(t)

	matchDB.On("FindOne", mock.Anything, bson.M{"_id": match.ID}).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)
	for _, id := range ids {
		udb.On("FindOne", mock.Anything, bson.M{"_id": id}).
			Return(&models.User{ID: id, Name: id.Hex()[:6]}, nil)
	}

	h := handlers.Lineup{MatchDB: matchDB, MDB: mdb, UDB: udb}
	body := `{"teamA":["` + ids[0].Hex() + `","` + ids[1].Hex() + `","` + ids[2].Hex() + `"],` +
		`"teamB":["` + ids[3].Hex() + `"]}`
	req := authedRequest("PUT", "/api/v1/match/"+match.ID.Hex()+"/lineup", body, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.SetLineupHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "cannot balance teams (3 vs 1)")
}

func TestLineup_AutoGenerate_UnbalanceableGroupsRejected(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	// one goalkeeper, one defender, one midfielder: each group restarts
	// the deal at squad A, so all three land there and the lineup is
	// refused rather than reshuffled
	positions := []models.Position{
		models.PositionGoalkeeper,
		models.PositionDefender,
		models.PositionMidfielder,
	}
	voters := make([]models.User, len(positions))
	votes := make([]models.Vote, len(positions))
	for i, pos := range positions {
		voters[i] = models.User{ID: primitive.NewObjectID(), Name: "player" + string(rune('A'+i)), Position: pos}
		votes[i] = models.Vote{UserID: voters[i].ID, MatchID: match.ID, Status: models.VoteParticipate}
	}

	matchDB := mocks.NewMatchDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)
	vdb := mocks.NewVoteDatabase(t)
	udb := mocks.NewUserDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)
	vdb.On("Find", mock.Anything, mock.Anything).Return(votes, nil)
	udb.On("Find", mock.Anything, mock.Anything).Return(voters, nil)

	h := handlers.Lineup{MatchDB: matchDB, MDB: mdb, VDB: vdb, UDB: udb}
	req := authedRequest("PUT", "/api/v1/match/"+match.ID.Hex()+"/lineup", `{"autoGenerate":true}`, userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.SetLineupHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "cannot balance teams (3 vs 0)")
}

func TestLineup_Get_NotSet(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()
	match := upcomingMatch(teamID)

	matchDB := mocks.NewMatchDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)
	ldb := mocks.NewLineupDatabase(t)

	matchDB.On("FindOne", mock.Anything, mock.Anything).Return(match, nil)
	mdb.On("FindOne", mock.Anything, mock.Anything).Return(&models.TeamMember{
		UserID: userID, TeamID: teamID, IsActive: true,
	}, nil)
	ldb.On("FindOne", mock.Anything, bson.M{"matchId": match.ID}).Return(nil, mongo.ErrNoDocuments)

	h := handlers.Lineup{DB: ldb, MatchDB: matchDB, MDB: mdb}
	req := authedRequest("GET", "/api/v1/match/"+match.ID.Hex()+"/lineup", "", userID)
	req = mux.SetURLVars(req, map[string]string{"match_id": match.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.GetLineupHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "no lineup set for this match")
}
