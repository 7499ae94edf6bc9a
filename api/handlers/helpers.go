package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/config"
	"github.com/siuno/teamfund-api/databases"
	"github.com/siuno/teamfund-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// actorID pulls the authenticated user out of the request context.
func actorID(r *http.Request) (primitive.ObjectID, error) {
	id, ok := api.UserIDFromRequest(r)
	if !ok {
		return primitive.NilObjectID, models.NewAuthorizationError("not authenticated")
	}
	return id, nil
}

// objectIDFromHex converts a client-supplied hex ID, mapping parse
// failures to a 400 instead of a 500.
func objectIDFromHex(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, models.NewValidationError("invalid ID format: %s", raw)
	}
	return id, nil
}

// activeMembership resolves the caller's active membership in a team.
func activeMembership(ctx context.Context, db databases.TeamMemberDatabase, userID, teamID primitive.ObjectID) (*models.TeamMember, error) {
	member, err := db.FindOne(ctx, bson.M{"userId": userID, "teamId": teamID, "isActive": true})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("you are not a member of this team")
		}
		return nil, err
	}
	return member, nil
}

// requireFundManager gates the finance surface to Leader and Treasurer.
func requireFundManager(member *models.TeamMember) error {
	if !member.Role.CanManageFunds() {
		return models.NewAuthorizationError("only the team leader or treasurer can perform this action")
	}
	return nil
}

// requireLeader gates leadership-only operations.
func requireLeader(member *models.TeamMember) error {
	if member.Role != models.RoleLeader {
		return models.NewAuthorizationError("only the team leader can perform this action")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func nowDateTime() primitive.DateTime {
	return primitive.NewDateTimeFromTime(time.Now())
}

func dateTimePtr(t time.Time) *primitive.DateTime {
	dt := primitive.NewDateTimeFromTime(t)
	return &dt
}
