package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/config"
	"github.com/siuno/teamfund-api/databases"
	"github.com/siuno/teamfund-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Team exposes team lifecycle and membership endpoints.
type Team struct {
	DB  databases.TeamDatabase
	MDB databases.TeamMemberDatabase
	UDB databases.UserDatabase

	// DefaultMonthlyFee is applied when a team is created without an
	// explicit fee amount.
	DefaultMonthlyFee int64
}

type createTeamRequest struct {
	TeamName         string `json:"teamName"`
	MonthlyFeeAmount *int64 `json:"monthlyFeeAmount"`
	AutoCollectFee   bool   `json:"autoCollectFee"`
}

type joinTeamRequest struct {
	InviteCode string `json:"inviteCode"`
}

type kickMemberRequest struct {
	UserID string `json:"userId"`
}

type changeRoleRequest struct {
	UserID  string `json:"userId"`
	NewRole string `json:"newRole"`
}

// CreateTeamHandler creates a team and enrolls the creator as its
// leader.
func (t Team) CreateTeamHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to create team", w, err)
		return
	}

	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(req.TeamName) == "" {
		config.DomainError("failed to create team", w, models.NewValidationError("team name is required"))
		return
	}
	fee := t.DefaultMonthlyFee
	if req.MonthlyFeeAmount != nil {
		if *req.MonthlyFeeAmount < 0 {
			config.DomainError("failed to create team", w, models.NewValidationError("monthly fee cannot be negative"))
			return
		}
		fee = *req.MonthlyFeeAmount
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := nowDateTime()
	team := models.Team{
		ID:                 primitive.NewObjectID(),
		Name:               strings.TrimSpace(req.TeamName),
		InviteCode:         models.GenerateInviteCode(),
		MonthlyFeeAmount:   fee,
		CurrentFundBalance: 0,
		AutoCollectFee:     req.AutoCollectFee,
		CreatedBy:          userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := t.DB.InsertOne(ctx, team); err != nil {
		config.ErrorStatus("failed to insert team", http.StatusInternalServerError, w, err)
		return
	}

	leader := models.TeamMember{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		TeamID:   team.ID,
		Role:     models.RoleLeader,
		Debt:     0,
		IsActive: true,
		JoinedAt: now,
	}
	if _, err := t.MDB.InsertOne(ctx, leader); err != nil {
		config.ErrorStatus("failed to insert team member", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().With("teamID", team.ID.Hex(), "userID", userID.Hex()).Info("team created")

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"team":       team,
		"membership": leader,
	})
}

// JoinTeamHandler enrolls the caller into the team matching the invite
// code, as a plain member with zero debt.
func (t Team) JoinTeamHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to join team", w, err)
		return
	}

	var req joinTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if code == "" {
		config.DomainError("failed to join team", w, models.NewValidationError("invite code is required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	team, err := t.DB.FindOne(ctx, bson.M{"inviteCode": code})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to join team", w, models.NewNotFoundError("invalid invite code"))
			return
		}
		config.ErrorStatus("failed to get team by invite code", http.StatusInternalServerError, w, err)
		return
	}

	member := models.TeamMember{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		TeamID:   team.ID,
		Role:     models.RoleMember,
		Debt:     0,
		IsActive: true,
		JoinedAt: nowDateTime(),
	}
	// the partial unique index on (userId, teamId, isActive:true)
	// rejects a second active membership even under concurrent joins
	if _, err := t.MDB.InsertOne(ctx, member); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.DomainError("failed to join team", w, models.NewValidationError("you are already a member of this team"))
			return
		}
		config.ErrorStatus("failed to insert team member", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"team":       team,
		"membership": member,
	})
}

// TeamHandler returns a team with its active member directory. Only
// members can see it.
func (t Team) TeamHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to get team", w, err)
		return
	}
	teamID, err := objectIDFromHex(mux.Vars(r)["team_id"])
	if err != nil {
		config.DomainError("failed to get team", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := activeMembership(ctx, t.MDB, userID, teamID); err != nil {
		config.DomainError("failed to get team", w, err)
		return
	}

	team, err := t.DB.FindOne(ctx, bson.M{"_id": teamID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to get team", w, models.NewNotFoundError("team not found"))
			return
		}
		config.ErrorStatus("failed to get team by ID", http.StatusInternalServerError, w, err)
		return
	}

	members, err := t.MDB.Find(ctx, bson.M{"teamId": teamID, "isActive": true})
	if err != nil {
		config.ErrorStatus("failed to get team members", http.StatusInternalServerError, w, err)
		return
	}
	userIDs := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	users := map[primitive.ObjectID]models.UserSummary{}
	if len(userIDs) > 0 {
		found, err := t.UDB.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
		if err != nil {
			config.ErrorStatus("failed to get member users", http.StatusInternalServerError, w, err)
			return
		}
		for _, u := range found {
			users[u.ID] = models.UserSummary{
				ID:       u.ID,
				Name:     u.Name,
				Email:    u.Email,
				Position: u.Position,
			}
		}
	}

	directory := make([]models.MemberWithUser, 0, len(members))
	for _, m := range members {
		directory = append(directory, models.MemberWithUser{
			TeamMember: m,
			User:       users[m.UserID],
		})
	}
	sort.SliceStable(directory, func(i, j int) bool {
		return roleRank(directory[i].Role) < roleRank(directory[j].Role)
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"team":    team,
		"members": directory,
	})
}

// LeaveTeamHandler deactivates the caller's membership. Members with
// outstanding debt cannot leave.
func (t Team) LeaveTeamHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to leave team", w, err)
		return
	}
	teamID, err := objectIDFromHex(mux.Vars(r)["team_id"])
	if err != nil {
		config.DomainError("failed to leave team", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := t.deactivateMember(ctx, userID, teamID); err != nil {
		config.DomainError("failed to leave team", w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "you have left the team"})
}

// KickMemberHandler deactivates another member. Leader only, and the
// target must have settled their debt first.
func (t Team) KickMemberHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to kick member", w, err)
		return
	}
	teamID, err := objectIDFromHex(mux.Vars(r)["team_id"])
	if err != nil {
		config.DomainError("failed to kick member", w, err)
		return
	}

	var req kickMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	targetID, err := objectIDFromHex(req.UserID)
	if err != nil {
		config.DomainError("failed to kick member", w, err)
		return
	}
	if targetID == userID {
		config.DomainError("failed to kick member", w, models.NewValidationError("you cannot kick yourself, leave the team instead"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := activeMembership(ctx, t.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to kick member", w, err)
		return
	}
	if err := requireLeader(actor); err != nil {
		config.DomainError("failed to kick member", w, err)
		return
	}

	if err := t.deactivateMember(ctx, targetID, teamID); err != nil {
		config.DomainError("failed to kick member", w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "member removed from team"})
}

// roleRank orders the member directory: leader first, then treasurers,
// then plain members.
func roleRank(r models.Role) int {
	switch r {
	case models.RoleLeader:
		return 0
	case models.RoleTreasurer:
		return 1
	}
	return 2
}

// deactivateMember flips a membership to inactive in one guarded
// update. The debt:0 filter makes the leave/kick debt rule hold even
// when a fee assignment lands concurrently.
func (t Team) deactivateMember(ctx context.Context, userID, teamID primitive.ObjectID) error {
	res, err := t.MDB.UpdateOne(ctx,
		bson.M{"userId": userID, "teamId": teamID, "isActive": true, "debt": 0},
		bson.M{"$set": bson.M{"isActive": false, "leftAt": nowDateTime()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		member, err := t.MDB.FindOne(ctx, bson.M{"userId": userID, "teamId": teamID, "isActive": true})
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return models.NewNotFoundError("active membership not found")
			}
			return err
		}
		return models.NewValidationError("cannot leave team with outstanding debt of %d", member.Debt)
	}
	return nil
}

// ChangeRoleHandler sets a member's role. Leader only.
func (t Team) ChangeRoleHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to change role", w, err)
		return
	}
	teamID, err := objectIDFromHex(mux.Vars(r)["team_id"])
	if err != nil {
		config.DomainError("failed to change role", w, err)
		return
	}

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	role := models.Role(req.NewRole)
	if !role.IsValid() {
		config.DomainError("failed to change role", w, models.NewValidationError("invalid role: %s", req.NewRole))
		return
	}
	targetID, err := objectIDFromHex(req.UserID)
	if err != nil {
		config.DomainError("failed to change role", w, err)
		return
	}
	if targetID == userID {
		config.DomainError("failed to change role", w, models.NewValidationError("you cannot change your own role"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := activeMembership(ctx, t.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to change role", w, err)
		return
	}
	if err := requireLeader(actor); err != nil {
		config.DomainError("failed to change role", w, err)
		return
	}

	res, err := t.MDB.UpdateOne(ctx,
		bson.M{"userId": targetID, "teamId": teamID, "isActive": true},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		config.ErrorStatus("failed to update member role", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.DomainError("failed to change role", w, models.NewNotFoundError("active membership not found"))
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{Success: true, Message: "member role updated"})
}

// RenewInviteCodeHandler replaces the team invite code, invalidating
// the old one. Leader only.
func (t Team) RenewInviteCodeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to renew invite code", w, err)
		return
	}
	teamID, err := objectIDFromHex(mux.Vars(r)["team_id"])
	if err != nil {
		config.DomainError("failed to renew invite code", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	actor, err := activeMembership(ctx, t.MDB, userID, teamID)
	if err != nil {
		config.DomainError("failed to renew invite code", w, err)
		return
	}
	if err := requireLeader(actor); err != nil {
		config.DomainError("failed to renew invite code", w, err)
		return
	}

	code := models.GenerateInviteCode()
	res, err := t.DB.UpdateOne(ctx,
		bson.M{"_id": teamID},
		bson.M{"$set": bson.M{"inviteCode": code, "updatedAt": nowDateTime()}},
	)
	if err != nil {
		config.ErrorStatus("failed to update invite code", http.StatusInternalServerError, w, err)
		return
	}
	if res.MatchedCount == 0 {
		config.DomainError("failed to renew invite code", w, models.NewNotFoundError("team not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"inviteCode": code})
}
