package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/config"
	"github.com/siuno/teamfund-api/databases"
	"github.com/siuno/teamfund-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Lineup exposes the two-squad assignment for a match: manual
// assignment or position-balanced auto generation.
type Lineup struct {
	DB      databases.LineupDatabase
	MatchDB databases.MatchDatabase
	MDB     databases.TeamMemberDatabase
	VDB     databases.VoteDatabase
	UDB     databases.UserDatabase
}

type setLineupRequest struct {
	AutoGenerate bool     `json:"autoGenerate"`
	TeamA        []string `json:"teamA"`
	TeamB        []string `json:"teamB"`
}

// positionOrder fixes the grouping order for auto generation so the
// same participant set always produces the same split.
var positionOrder = []models.Position{
	models.PositionGoalkeeper,
	models.PositionDefender,
	models.PositionMidfielder,
	models.PositionWinger,
	models.PositionStriker,
}

// splitByPosition deals players into two squads, alternating by index
// within each position group so both sides get a comparable shape. The
// deal restarts at squad A for every group; a participant set whose
// groups cannot balance that way is rejected by the size check in the
// handler, not papered over here.
func splitByPosition(players []models.LineupPlayer) (teamA, teamB []models.LineupPlayer) {
	grouped := map[models.Position][]models.LineupPlayer{}
	var unpositioned []models.LineupPlayer
	for _, p := range players {
		if p.Position.IsValid() {
			grouped[p.Position] = append(grouped[p.Position], p)
		} else {
			unpositioned = append(unpositioned, p)
		}
	}
	deal := func(group []models.LineupPlayer) {
		for i, p := range group {
			if i%2 == 0 {
				teamA = append(teamA, p)
			} else {
				teamB = append(teamB, p)
			}
		}
	}
	for _, pos := range positionOrder {
		deal(grouped[pos])
	}
	deal(unpositioned)
	return teamA, teamB
}

func squadSizesBalanced(teamA, teamB []models.LineupPlayer) bool {
	diff := len(teamA) - len(teamB)
	return diff >= -1 && diff <= 1
}

// SetLineupHandler replaces the match lineup. With autoGenerate the
// squads are dealt from the participating voters; otherwise the two
// member ID lists are taken as-is. Existing lineups are overwritten,
// never merged.
func (h Lineup) SetLineupHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to set lineup", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to set lineup", w, err)
		return
	}

	var req setLineupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	match, err := h.MatchDB.FindOne(ctx, bson.M{"_id": matchID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to set lineup", w, models.NewNotFoundError("match not found"))
			return
		}
		config.ErrorStatus("failed to get match by ID", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := activeMembership(ctx, h.MDB, userID, match.TeamID); err != nil {
		config.DomainError("failed to set lineup", w, err)
		return
	}

	var teamA, teamB []models.LineupPlayer
	if req.AutoGenerate {
		players, err := h.participatingPlayers(ctx, matchID)
		if err != nil {
			config.DomainError("failed to set lineup", w, err)
			return
		}
		teamA, teamB = splitByPosition(players)
	} else {
		if req.TeamA == nil || req.TeamB == nil {
			config.DomainError("failed to set lineup", w, models.NewValidationError("both squads are required for a manual lineup"))
			return
		}
		teamA, err = h.resolvePlayers(ctx, req.TeamA)
		if err != nil {
			config.DomainError("failed to set lineup", w, err)
			return
		}
		teamB, err = h.resolvePlayers(ctx, req.TeamB)
		if err != nil {
			config.DomainError("failed to set lineup", w, err)
			return
		}
	}
	if len(teamA)+len(teamB) == 0 {
		config.DomainError("failed to set lineup", w, models.NewValidationError("no players to assign"))
		return
	}
	if !squadSizesBalanced(teamA, teamB) {
		config.DomainError("failed to set lineup", w,
			models.NewValidationError("cannot balance teams (%d vs %d)", len(teamA), len(teamB)))
		return
	}

	if _, err := h.DB.DeleteMany(ctx, bson.M{"matchId": matchID}); err != nil {
		config.ErrorStatus("failed to delete existing lineup", http.StatusInternalServerError, w, err)
		return
	}
	lineup := models.Lineup{
		ID:        primitive.NewObjectID(),
		MatchID:   matchID,
		TeamID:    match.TeamID,
		TeamA:     teamA,
		TeamB:     teamB,
		CreatedAt: nowDateTime(),
	}
	if _, err := h.DB.InsertOne(ctx, lineup); err != nil {
		config.ErrorStatus("failed to insert lineup", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, lineup)
}

// GetLineupHandler returns the saved lineup for a match.
func (h Lineup) GetLineupHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to get lineup", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to get lineup", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	match, err := h.MatchDB.FindOne(ctx, bson.M{"_id": matchID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to get lineup", w, models.NewNotFoundError("match not found"))
			return
		}
		config.ErrorStatus("failed to get match by ID", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := activeMembership(ctx, h.MDB, userID, match.TeamID); err != nil {
		config.DomainError("failed to get lineup", w, err)
		return
	}

	lineup, err := h.DB.FindOne(ctx, bson.M{"matchId": matchID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to get lineup", w, models.NewNotFoundError("no lineup set for this match"))
			return
		}
		config.ErrorStatus("failed to get lineup", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, lineup)
}

// participatingPlayers snapshots the users behind the Participate
// votes, in vote order.
func (h Lineup) participatingPlayers(ctx context.Context, matchID primitive.ObjectID) ([]models.LineupPlayer, error) {
	votes, err := h.VDB.Find(ctx, bson.M{"matchId": matchID, "status": models.VoteParticipate})
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		return nil, models.NewValidationError("no participating votes for this match")
	}
	userIDs := make([]primitive.ObjectID, 0, len(votes))
	for _, v := range votes {
		userIDs = append(userIDs, v.UserID)
	}
	users, err := h.UDB.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	players := make([]models.LineupPlayer, 0, len(votes))
	for _, v := range votes {
		u, ok := byID[v.UserID]
		if !ok {
			continue
		}
		players = append(players, models.LineupPlayer{UserID: u.ID, Name: u.Name, Position: u.Position})
	}
	return players, nil
}

// resolvePlayers turns a list of user IDs into lineup snapshots,
// rejecting any ID that does not resolve to a user.
func (h Lineup) resolvePlayers(ctx context.Context, ids []string) ([]models.LineupPlayer, error) {
	players := make([]models.LineupPlayer, 0, len(ids))
	for _, raw := range ids {
		id, err := objectIDFromHex(raw)
		if err != nil {
			return nil, err
		}
		u, err := h.UDB.FindOne(ctx, bson.M{"_id": id})
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return nil, models.NewValidationError("unknown player: %s", raw)
			}
			return nil, err
		}
		players = append(players, models.LineupPlayer{UserID: u.ID, Name: u.Name, Position: u.Position})
	}
	return players, nil
}
