package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/config"
	"github.com/siuno/teamfund-api/databases"
	"github.com/siuno/teamfund-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Admin exposes the platform operator surface: login and cross-team
// reporting. Admin routes authenticate with a JWT instead of the
// member token cache.
type Admin struct {
	UDB  databases.UserDatabase
	TDB  databases.TeamDatabase
	MDB  databases.TeamMemberDatabase
	TXDB databases.TransactionDatabase
	PRDB databases.PaymentRequestDatabase

	JWTSecret string
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createSuperAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler authenticates a super admin and issues a 24h JWT.
func (a Admin) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := a.UDB.FindOne(ctx, bson.M{
		"email":        strings.ToLower(strings.TrimSpace(req.Email)),
		"isSuperAdmin": true,
		"isActive":     true,
	})
	if err != nil {
		config.DomainError("login failed", w, models.NewAuthorizationError("invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.DomainError("login failed", w, models.NewAuthorizationError("invalid credentials"))
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"email": user.Email,
		"scope": "admin",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(a.JWTSecret))
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().With("adminID", user.ID.Hex()).Info("admin logged in")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": signed,
		"admin": map[string]interface{}{
			"_id":   user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}

// CreateSuperAdminHandler bootstraps the first super admin account.
// Once one exists the endpoint refuses further use.
func (a Admin) CreateSuperAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req createSuperAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		config.DomainError("failed to create super admin", w, models.NewValidationError("name, email and password are required"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := a.UDB.CountDocuments(ctx, bson.M{"isSuperAdmin": true})
	if err != nil {
		config.ErrorStatus("failed to count super admins", http.StatusInternalServerError, w, err)
		return
	}
	if existing > 0 {
		config.DomainError("failed to create super admin", w, models.NewValidationError("a super admin already exists"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}
	now := nowDateTime()
	admin := models.User{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Email:        req.Email,
		Password:     string(hash),
		IsSuperAdmin: true,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := a.UDB.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.DomainError("failed to create super admin", w, models.NewValidationError("email already registered: %s", req.Email))
			return
		}
		config.ErrorStatus("failed to insert super admin", http.StatusInternalServerError, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, admin)
}

// RequireJWT wraps admin routes with bearer JWT verification.
func (a Admin) RequireJWT(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.Split(header, "Bearer ")
		if len(parts) != 2 {
			config.DomainError("unauthorized", w, models.NewAuthorizationError("missing bearer token"))
			return
		}
		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, models.NewAuthorizationError("unexpected signing method")
			}
			return []byte(a.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			config.DomainError("unauthorized", w, models.NewAuthorizationError("invalid token"))
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["scope"] != "admin" {
			config.DomainError("unauthorized", w, models.NewAuthorizationError("token lacks admin scope"))
			return
		}
		next(w, r)
	}
}

// DashboardHandler returns platform-wide totals.
func (a Admin) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	userCount, err := a.UDB.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		config.ErrorStatus("failed to count users", http.StatusInternalServerError, w, err)
		return
	}
	teamCount, err := a.TDB.CountDocuments(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to count teams", http.StatusInternalServerError, w, err)
		return
	}
	pendingRequests, err := a.PRDB.CountDocuments(ctx, bson.M{"status": models.StatusPending})
	if err != nil {
		config.ErrorStatus("failed to count pending requests", http.StatusInternalServerError, w, err)
		return
	}

	teams, err := a.TDB.Find(ctx, bson.M{})
	if err != nil {
		config.ErrorStatus("failed to get teams", http.StatusInternalServerError, w, err)
		return
	}
	var totalFund int64
	for _, t := range teams {
		totalFund += t.CurrentFundBalance
	}

	debtRows, err := a.MDB.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "isActive", Value: true}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalDebt", Value: bson.D{{Key: "$sum", Value: "$debt"}}},
		}}},
	})
	if err != nil {
		config.ErrorStatus("failed to aggregate debt", http.StatusInternalServerError, w, err)
		return
	}
	var totalDebt int64
	if len(debtRows) > 0 {
		totalDebt = toInt64(debtRows[0]["totalDebt"])
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalUsers":             userCount,
		"totalTeams":             teamCount,
		"totalFundBalance":       totalFund,
		"totalOutstandingDebt":   totalDebt,
		"pendingPaymentRequests": pendingRequests,
	})
}

// FinanceReportHandler aggregates ledger totals by transaction type
// plus the largest outstanding debts across all teams.
func (a Admin) FinanceReportHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	byType, err := a.TXDB.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: models.StatusApproved}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		config.ErrorStatus("failed to aggregate transactions", http.StatusInternalServerError, w, err)
		return
	}

	topDebtors, err := a.MDB.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "isActive", Value: true},
			{Key: "debt", Value: bson.D{{Key: "$gt", Value: 0}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "debt", Value: -1}}}},
		bson.D{{Key: "$limit", Value: 10}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "userId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "teams"},
			{Key: "localField", Value: "teamId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "team"},
		}}},
	})
	if err != nil {
		config.ErrorStatus("failed to aggregate debtors", http.StatusInternalServerError, w, err)
		return
	}

	teams, err := a.TDB.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "currentFundBalance", Value: -1}}))
	if err != nil {
		config.ErrorStatus("failed to get teams", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalsByType": byType,
		"topDebtors":   topDebtors,
		"teams":        teams,
	})
}

// TransactionsHandler lists transactions across all teams, newest
// first, with optional type/status filters and paging.
func (a Admin) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{}
	if t := r.URL.Query().Get("type"); t != "" {
		filter["type"] = models.TransactionType(t)
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter["status"] = models.ApprovalStatus(s)
	}
	page, limit := pageParams(r)

	total, err := a.TXDB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count transactions", http.StatusInternalServerError, w, err)
		return
	}
	transactions, err := a.TXDB.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page-1)*limit).
			SetLimit(limit))
	if err != nil {
		config.ErrorStatus("failed to get transactions", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

// PaymentRequestsHandler lists payment requests across all teams.
func (a Admin) PaymentRequestsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{}
	if s := r.URL.Query().Get("status"); s != "" {
		filter["status"] = models.ApprovalStatus(s)
	}
	page, limit := pageParams(r)

	total, err := a.PRDB.CountDocuments(ctx, filter)
	if err != nil {
		config.ErrorStatus("failed to count payment requests", http.StatusInternalServerError, w, err)
		return
	}
	requests, err := a.PRDB.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page-1)*limit).
			SetLimit(limit))
	if err != nil {
		config.ErrorStatus("failed to get payment requests", http.StatusInternalServerError, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"paymentRequests": requests,
		"total":           total,
		"page":            page,
		"limit":           limit,
	})
}

func pageParams(r *http.Request) (page, limit int64) {
	page, _ = strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// toInt64 normalizes the numeric types the mongo driver hands back
// from aggregations.
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
