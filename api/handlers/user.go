package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/config"
	"github.com/siuno/teamfund-api/databases"
	"github.com/siuno/teamfund-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// User exposes account registration and profile endpoints.
type User struct {
	DB  databases.UserDatabase
	MDB databases.TeamMemberDatabase
	TDB databases.TeamDatabase
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Position string `json:"position"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Position *string `json:"position"`
}

// membershipView is a user's membership joined with its team.
type membershipView struct {
	TeamID   primitive.ObjectID `json:"teamId"`
	TeamName string             `json:"teamName"`
	Role     models.Role        `json:"role"`
	Debt     int64              `json:"debt"`
	JoinedAt primitive.DateTime `json:"joinedAt"`
}

// RegisterHandler creates a new account. Emails are stored lowercased
// and must be unique.
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		config.DomainError("registration failed", w, models.NewValidationError("name, email and password are required"))
		return
	}
	position := models.Position(req.Position)
	if req.Position != "" && !position.IsValid() {
		config.DomainError("registration failed", w, models.NewValidationError("invalid position: %s", req.Position))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := nowDateTime()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hash),
		Phone:     req.Phone,
		Position:  position,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := u.DB.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.DomainError("registration failed", w, models.NewValidationError("email already registered: %s", req.Email))
			return
		}
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().With("userID", user.ID.Hex()).Info("user registered")

	writeJSON(w, http.StatusCreated, user)
}

// MeHandler returns the caller's profile together with their active
// team memberships.
func (u User) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to load profile", w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			config.DomainError("failed to load profile", w, models.NewNotFoundError("user not found"))
			return
		}
		config.ErrorStatus("failed to get user by ID", http.StatusInternalServerError, w, err)
		return
	}

	members, err := u.MDB.Find(ctx, bson.M{"userId": userID, "isActive": true})
	if err != nil {
		config.ErrorStatus("failed to get memberships", http.StatusInternalServerError, w, err)
		return
	}

	teamIDs := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		teamIDs = append(teamIDs, m.TeamID)
	}
	teamNames := map[primitive.ObjectID]string{}
	if len(teamIDs) > 0 {
		teams, err := u.TDB.Find(ctx, bson.M{"_id": bson.M{"$in": teamIDs}})
		if err != nil {
			config.ErrorStatus("failed to get teams", http.StatusInternalServerError, w, err)
			return
		}
		for _, t := range teams {
			teamNames[t.ID] = t.Name
		}
	}

	memberships := make([]membershipView, 0, len(members))
	for _, m := range members {
		memberships = append(memberships, membershipView{
			TeamID:   m.TeamID,
			TeamName: teamNames[m.TeamID],
			Role:     m.Role,
			Debt:     m.Debt,
			JoinedAt: m.JoinedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":        user,
		"memberships": memberships,
	})
}

// UpdateMeHandler patches the caller's name, phone or position.
func (u User) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r)
	if err != nil {
		config.DomainError("failed to update profile", w, err)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	set := bson.M{"updatedAt": nowDateTime()}
	if req.Name != nil {
		if *req.Name == "" {
			config.DomainError("failed to update profile", w, models.NewValidationError("name cannot be empty"))
			return
		}
		set["name"] = *req.Name
	}
	if req.Phone != nil {
		set["phone"] = *req.Phone
	}
	if req.Position != nil {
		position := models.Position(*req.Position)
		if !position.IsValid() {
			config.DomainError("failed to update profile", w, models.NewValidationError("invalid position: %s", *req.Position))
			return
		}
		set["position"] = position
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := u.DB.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set}); err != nil {
		config.ErrorStatus("failed to update user", http.StatusInternalServerError, w, err)
		return
	}

	user, err := u.DB.FindOne(ctx, bson.M{"_id": userID})
	if err != nil {
		config.ErrorStatus("failed to get user by ID", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
