package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/siuno/teamfund-api/api/handlers"
	"github.com/siuno/teamfund-api/databases/mocks"
	"github.com/siuno/teamfund-api/models"
)

func TestUser_Register_Success(t *testing.T) {
	udb := mocks.NewUserDatabase(t)
	udb.On("InsertOne", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		if u.Email != "minh@example.com" || !u.IsActive {
			return false
		}
		// the stored value must be a hash, never the raw password
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret-pass")) == nil
	})).Return(nil, nil)

	h := handlers.User{DB: udb}
	body := `{"name":"Minh","email":"  Minh@Example.COM ","password":"s3cret-pass","position":"Striker"}`
	req := httptest.NewRequest("POST", "/api/v1/user/register", strings.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	// register sits outside the auth middleware, so the handler has to
	// set the content type itself
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `"email":"minh@example.com"`)
	assert.NotContains(t, rr.Body.String(), "s3cret-pass")
}

func TestUser_Register_InvalidPosition(t *testing.T) {
	h := handlers.User{}
	body := `{"name":"Minh","email":"minh@example.com","password":"s3cret-pass","position":"Sweeper"}`
	req := httptest.NewRequest("POST", "/api/v1/user/register", strings.NewReader(body))

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid position")
}

func TestUser_Register_MissingFields(t *testing.T) {
	h := handlers.User{}
	req := httptest.NewRequest("POST", "/api/v1/user/register",
		strings.NewReader(`{"name":"Minh"}`))

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUser_Me_ReturnsMemberships(t *testing.T) {
	userID := primitive.NewObjectID()
	teamID := primitive.NewObjectID()

	udb := mocks.NewUserDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)
	tdb := mocks.NewTeamDatabase(t)

	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID: userID, Name: "Minh", Email: "minh@example.com", IsActive: true,
	}, nil)
	mdb.On("Find", mock.Anything, mock.Anything).Return([]models.TeamMember{
		{UserID: userID, TeamID: teamID, Role: models.RoleMember, Debt: 100000, IsActive: true},
	}, nil)
	tdb.On("Find", mock.Anything, mock.Anything).Return([]models.Team{
		{ID: teamID, Name: "FC Sunday"},
	}, nil)

	h := handlers.User{DB: udb, MDB: mdb, TDB: tdb}
	req := authedRequest("GET", "/api/v1/user/me", "", userID)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.MeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"teamName":"FC Sunday"`)
	assert.Contains(t, rr.Body.String(), `"debt":100000`)
}

func TestUser_UpdateMe_EmptyNameRejected(t *testing.T) {
	h := handlers.User{}
	req := authedRequest("PATCH", "/api/v1/user/me", `{"name":""}`, primitive.NewObjectID())

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateMeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "name cannot be empty")
}
