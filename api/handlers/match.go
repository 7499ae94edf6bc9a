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

// Match exposes match scheduling and attendance voting endpoints.
type Match struct {
	DB  databases.MatchDatabase
	MDB databases.TeamMemberDatabase
	VDB databases.VoteDatabase
	LDB databases.LineupDatabase
}

type matchRequest struct {
	TeamID         string `json:"teamId"`
	Time           string `json:"time"`
	Location       string `json:"location"`
	OpponentName   string `json:"opponentName"`
	ContactPerson  string `json:"contactPerson"`
	VotingDeadline string `json:"votingDeadline"`
}

type voteRequest struct {
	Status     string `json:"status"`
	GuestCount int64  `json:"guestCount"`
	Note       string `json:"note"`
}

type voteChangeRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

type approveVoteChangeRequest struct {
	UserID string `json:"userId"`
}

func parseMatchTimes(timeRaw, deadlineRaw string) (matchTime, deadline time.Time, err error) {
	matchTime, err = time.Parse(time.RFC3339, timeRaw)
	if err != nil {
		return time.Time{}, time.Time{}, models.NewValidationError("invalid match time: %s", timeRaw)
	}
	deadline, err = time.Parse(time.RFC3339, deadlineRaw)
	if err != nil {
		return time.Time{}, time.Time{}, models.NewValidationError("invalid voting deadline: %s", deadlineRaw)
	}
	if !deadline.Before(matchTime) {
		return time.Time{}, time.Time{}, models.NewValidationError("voting deadline must be before match time")
	}
	return matchTime, deadline, nil
}

// CreateMatchHandler schedules a match. Leaders and treasurers only.
func (h Match) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to create match", w, err)
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	teamID, err := objectIDFromHex(req.TeamID)
	if err != nil {
		config.DomainError("failed to create match", w, err)
		return
	}
	if req.OpponentName == "" || req.Location == "" {
		config.DomainError("failed to create match", w, models.NewValidationError("opponent name and location are required"))
		return
	}
	matchTime, deadline, err := parseMatchTimes(req.Time, req.VotingDeadline)
	if err != nil {
		config.DomainError("failed to create match", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	member, err := activeMembership(ctx, h.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to create match", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to create match", w, err)
		return
	}

	now := nowDateTime()
	match := models.Match{
		ID:             primitive.NewObjectID(),
		TeamID:         teamID,
		Time:           primitive.NewDateTimeFromTime(matchTime),
		Location:       req.Location,
		OpponentName:   req.OpponentName,
		ContactPerson:  req.ContactPerson,
		VotingDeadline: primitive.NewDateTimeFromTime(deadline),
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := h.DB.InsertOne(ctx, match); err != nil {
		config.ErrorStatus("failed to insert match", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().With("matchID", match.ID.Hex(), "teamID", teamID.Hex()).Info("match created")

	writeJSON(w, http.StatusCreated, match)
}

// MatchesHandler lists a team's matches with vote tallies and the
// caller's own vote. Use filter=upcoming or filter=past.
func (h Match) MatchesHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to get matches", w, err)
		return
	}
	teamID, err := objectIDFromHex(r.URL.Query().Get("teamId"))
	if err != nil {
		config.DomainError("failed to get matches", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := activeMembership(ctx, h.MDB, userID, teamID); err != nil {
		config.DomainError("failed to get matches", w, err)
		return
	}

	now := time.Now()
	filter := bson.M{"teamId": teamID}
	sort := bson.D{{Key: "time", Value: 1}}
	switch r.URL.Query().Get("filter") {
	case "upcoming":
		filter["time"] = bson.M{"$gte": primitive.NewDateTimeFromTime(now)}
	case "past":
		filter["time"] = bson.M{"$lt": primitive.NewDateTimeFromTime(now)}
		sort = bson.D{{Key: "time", Value: -1}}
	}

	matches, err := h.DB.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		config.ErrorStatus("failed to get matches", http.StatusInternalServerError, w, err)
		return
	}

	result := make([]models.MatchWithVotes, 0, len(matches))
	for _, m := range matches {
		votes, err := h.VDB.Find(ctx, bson.M{"matchId": m.ID})
		if err != nil {
			config.ErrorStatus("failed to get votes", http.StatusInternalServerError, w, err)
			return
		}
		result = append(result, decorateMatch(m, votes, userID, now))
	}
	writeJSON(w, http.StatusOK, result)
}

// MatchHandler returns one match with the full vote list.
func (h Match) MatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to get match", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to get match", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	match, err := h.findMatch(ctx, matchID)
	if err != nil {
		config.DomainError("failed to get match", w, err)
		return
	}
	if _, err := activeMembership(ctx, h.MDB, userID, match.TeamID); err != nil {
		config.DomainError("failed to get match", w, err)
		return
	}

	votes, err := h.VDB.Find(ctx, bson.M{"matchId": matchID})
	if err != nil {
		config.ErrorStatus("failed to get votes", http.StatusInternalServerError, w, err)
		return
	}
	decorated := decorateMatch(*match, votes, userID, time.Now())
	decorated.Votes = votes
	writeJSON(w, http.StatusOK, decorated)
}

// UpdateMatchHandler edits match details. Leaders and treasurers only.
func (h Match) UpdateMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to update match", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to update match", w, err)
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	match, err := h.findMatch(ctx, matchID)
	if err != nil {
		config.DomainError("failed to update match", w, err)
		return
	}
	member, err := activeMembership(ctx, h.MDB, userID, match.TeamID)
	if err != nil {
		config.DomainError("failed to update match", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to update match", w, err)
		return
	}

	set := bson.M{"updatedAt": nowDateTime()}
	if req.Location != "" {
		set["location"] = req.Location
	}
	if req.OpponentName != "" {
		set["opponentName"] = req.OpponentName
	}
	if req.ContactPerson != "" {
		set["contactPerson"] = req.ContactPerson
	}
	// merge partial time edits against stored values so the deadline
	// ordering check sees the effective pair
	if req.Time != "" || req.VotingDeadline != "" {
		timeRaw := req.Time
		if timeRaw == "" {
			timeRaw = match.Time.Time().Format(time.RFC3339)
		}
		deadlineRaw := req.VotingDeadline
		if deadlineRaw == "" {
			deadlineRaw = match.VotingDeadline.Time().Format(time.RFC3339)
		}
		matchTime, deadline, err := parseMatchTimes(timeRaw, deadlineRaw)
		if err != nil {
			config.DomainError("failed to update match", w, err)
			return
		}
		set["time"] = primitive.NewDateTimeFromTime(matchTime)
		set["votingDeadline"] = primitive.NewDateTimeFromTime(deadline)
	}

	if _, err := h.DB.UpdateOne(ctx, bson.M{"_id": matchID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update match", http.StatusInternalServerError, w, err)
		return
	}
	updated, err := h.findMatch(ctx, matchID)
	if err != nil {
		config.DomainError("failed to update match", w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMatchHandler removes a match with its votes and lineup.
// Leaders and treasurers only.
func (h Match) DeleteMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to delete match", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to delete match", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	match, err := h.findMatch(ctx, matchID)
	if err != nil {
		config.DomainError("failed to delete match", w, err)
		return
	}
	member, err := activeMembership(ctx, h.MDB, userID, match.TeamID)
	if err != nil {
		config.DomainError("failed to delete match", w, err)
		return
	}
	if err := requireFundManager(member); err != nil {
		config.DomainError("failed to delete match", w, err)
		return
	}

	if _, err := h.DB.DeleteOne(ctx, bson.M{"_id": matchID}); err != nil {
		config.ErrorStatus("failed to delete match", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := h.VDB.DeleteMany(ctx, bson.M{"matchId": matchID}); err != nil {
		config.ErrorStatus("failed to delete votes", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := h.LDB.DeleteMany(ctx, bson.M{"matchId": matchID}); err != nil {
		config.ErrorStatus("failed to delete lineup", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "match deleted"})
}

// VoteHandler records or overwrites the caller's attendance vote while
// the voting window is open. One vote per member per match.
func (h Match) VoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to vote", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to vote", w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	status := models.VoteStatus(req.Status)
	if !status.IsValid() {
		config.DomainError("failed to vote", w, models.NewValidationError("invalid vote status: %s", req.Status))
		return
	}
	if req.GuestCount < 0 {
		config.DomainError("failed to vote", w, models.NewValidationError("guest count cannot be negative"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	match, err := h.findMatch(ctx, matchID)
	if err != nil {
		config.DomainError("failed to vote", w, err)
		return
	}
	if _, err := h.MDB.FindOne(ctx, bson.M{"userId": userID, "teamId": match.TeamID, "isActive": true}); err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to vote", w, models.NewAuthorizationError("you are not a member of this team"))
			return
		}
		config.ErrorStatus("failed to get membership", http.StatusInternalServerError, w, err)
		return
	}
	if !match.IsVotingOpen(time.Now()) {
		config.DomainError("failed to vote", w, models.NewStateError("voting is closed for this match"))
		return
	}

	now := nowDateTime()
	filter := bson.M{"userId": userID, "matchId": matchID}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"guestCount": req.GuestCount,
			"note":       req.Note,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{
			"userId":           userID,
			"matchId":          matchID,
			"isApprovedChange": false,
			"createdAt":        now,
		},
	}
	_, upsertErr := h.VDB.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if upsertErr != nil && mongo.IsDuplicateKeyError(upsertErr) {
		// two concurrent first votes can both try to insert against the
		// unique (userId, matchId) index; the loser retries and lands on
		// the now-existing document as a plain update
		_, upsertErr = h.VDB.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	if upsertErr != nil {
		config.ErrorStatus("failed to upsert vote", http.StatusInternalServerError, w, upsertErr)
		return
	}

	vote, err := h.VDB.FindOne(ctx, bson.M{"userId": userID, "matchId": matchID})
	if err != nil {
		config.ErrorStatus("failed to get vote", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

// RequestVoteChangeHandler overwrites a vote after the deadline. The
// change applies immediately and is marked unapproved until a leader
// signs off.
func (h Match) RequestVoteChangeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to request vote change", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to request vote change", w, err)
		return
	}

	var req voteChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	status := models.VoteStatus(req.Status)
	if !status.IsValid() {
		config.DomainError("failed to request vote change", w, models.NewValidationError("invalid vote status: %s", req.Status))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := h.findMatch(ctx, matchID); err != nil {
		config.DomainError("failed to request vote change", w, err)
		return
	}
	if _, err := h.VDB.FindOne(ctx, bson.M{"userId": userID, "matchId": matchID}); err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to request vote change", w, models.NewValidationError("you have not voted for this match yet"))
			return
		}
		config.ErrorStatus("failed to get vote", http.StatusInternalServerError, w, err)
		return
	}

	now := nowDateTime()
	if _, err := h.VDB.UpdateOne(ctx,
		bson.M{"userId": userID, "matchId": matchID},
		bson.M{"$set": bson.M{
			"status":            status,
			"note":              req.Note,
			"changeReason":      req.Reason,
			"changeRequestedAt": now,
			"isApprovedChange":  false,
			"updatedAt":         now,
		}},
	); err != nil {
		config.ErrorStatus("failed to update vote", http.StatusInternalServerError, w, err)
		return
	}

	vote, err := h.VDB.FindOne(ctx, bson.M{"userId": userID, "matchId": matchID})
	if err != nil {
		config.ErrorStatus("failed to get vote", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, vote)
}

// ApproveVoteChangeHandler marks a post-deadline vote change as
// acknowledged. Leader only; the vote itself is already in effect.
func (h Match) ApproveVoteChangeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to approve vote change", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to approve vote change", w, err)
		return
	}

	var req approveVoteChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	voterID, err := objectIDFromHex(req.UserID)
	if err != nil {
		config.DomainError("failed to approve vote change", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	match, err := h.findMatch(ctx, matchID)
	if err != nil {
		config.DomainError("failed to approve vote change", w, err)
		return
	}
	actor, err := activeMembership(ctx, h.MDB, userID, match.TeamID)
	if err != nil {
		config.DomainError("failed to approve vote change", w, err)
		return
	}
	if err := requireLeader(actor); err != nil {
		config.DomainError("failed to approve vote change", w, err)
		return
	}

	vote, err := h.VDB.FindOne(ctx, bson.M{"userId": voterID, "matchId": matchID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to approve vote change", w, models.NewNotFoundError("vote not found"))
			return
		}
		config.ErrorStatus("failed to get vote", http.StatusInternalServerError, w, err)
		return
	}
	if vote.ChangeRequestedAt == nil {
		config.DomainError("failed to approve vote change", w, models.NewValidationError("no change request found for this vote"))
		return
	}

	if _, err := h.VDB.UpdateOne(ctx,
		bson.M{"userId": voterID, "matchId": matchID},
		bson.M{"$set": bson.M{"isApprovedChange": true, "updatedAt": nowDateTime()}},
	); err != nil {
		config.ErrorStatus("failed to update vote", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "vote change approved"})
}

// ToggleMatchLockHandler flips the match lock. A locked match accepts
// no regular votes even before the deadline. Leader only.
func (h Match) ToggleMatchLockHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to toggle match lock", w, err)
		return
	}
	matchID, err := objectIDFromHex(mux.Vars(r)["match_id"])
	if err != nil {
		config.DomainError("failed to toggle match lock", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	match, err := h.findMatch(ctx, matchID)
	if err != nil {
		config.DomainError("failed to toggle match lock", w, err)
		return
	}
	actor, err := activeMembership(ctx, h.MDB, userID, match.TeamID)
	if err != nil {
		config.DomainError("failed to toggle match lock", w, err)
		return
	}
	if err := requireLeader(actor); err != nil {
		config.DomainError("failed to toggle match lock", w, err)
		return
	}

	locked := !match.IsLocked
	if _, err := h.DB.UpdateOne(ctx,
		bson.M{"_id": matchID},
		bson.M{"$set": bson.M{"isLocked": locked, "updatedAt": nowDateTime()}},
	); err != nil {
		config.ErrorStatus("failed to update match", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"matchId": matchID, "isLocked": locked})
}

func (h Match) findMatch(ctx context.Context, matchID primitive.ObjectID) (*models.Match, error) {
	match, err := h.DB.FindOne(ctx, bson.M{"_id": matchID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("match not found")
		}
		return nil, err
	}
	return match, nil
}

// decorateMatch tallies votes and attaches the requester's own vote.
func decorateMatch(m models.Match, votes []models.Vote, userID primitive.ObjectID, now time.Time) models.MatchWithVotes {
	out := models.MatchWithVotes{Match: m, IsVotingOpen: m.IsVotingOpen(now)}
	for i := range votes {
		switch votes[i].Status {
		case models.VoteParticipate:
			out.VoteCounts.Participate++
		case models.VoteAbsent:
			out.VoteCounts.Absent++
		case models.VoteLate:
			out.VoteCounts.Late++
		}
		if votes[i].UserID == userID {
			v := votes[i]
			out.UserVote = &v
		}
	}
	return out
}
