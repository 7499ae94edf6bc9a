package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/siuno/teamfund-api/api"
	"github.com/siuno/teamfund-api/config"
	"github.com/siuno/teamfund-api/databases"
	"github.com/siuno/teamfund-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	u := User{
		DB:  databases.NewUserDatabase(a.dbHelper),
		MDB: databases.NewTeamMemberDatabase(a.dbHelper),
		TDB: databases.NewTeamDatabase(a.dbHelper),
	}
	t := Team{
		DB:                databases.NewTeamDatabase(a.dbHelper),
		MDB:               databases.NewTeamMemberDatabase(a.dbHelper),
		UDB:               databases.NewUserDatabase(a.dbHelper),
		DefaultMonthlyFee: a.Config.DefaultMonthlyFee,
	}
	f := Finance{
		TDB:     databases.NewTeamDatabase(a.dbHelper),
		MDB:     databases.NewTeamMemberDatabase(a.dbHelper),
		TXDB:    databases.NewTransactionDatabase(a.dbHelper),
		PRDB:    databases.NewPaymentRequestDatabase(a.dbHelper),
		MatchDB: databases.NewMatchDatabase(a.dbHelper),
		UDB:     databases.NewUserDatabase(a.dbHelper),
	}
	match := Match{
		DB:  databases.NewMatchDatabase(a.dbHelper),
		MDB: databases.NewTeamMemberDatabase(a.dbHelper),
		VDB: databases.NewVoteDatabase(a.dbHelper),
		LDB: databases.NewLineupDatabase(a.dbHelper),
	}
	lineup := Lineup{
		DB:      databases.NewLineupDatabase(a.dbHelper),
		MatchDB: databases.NewMatchDatabase(a.dbHelper),
		MDB:     databases.NewTeamMemberDatabase(a.dbHelper),
		VDB:     databases.NewVoteDatabase(a.dbHelper),
		UDB:     databases.NewUserDatabase(a.dbHelper),
	}
	admin := Admin{
		UDB:       databases.NewUserDatabase(a.dbHelper),
		TDB:       databases.NewTeamDatabase(a.dbHelper),
		MDB:       databases.NewTeamMemberDatabase(a.dbHelper),
		TXDB:      databases.NewTransactionDatabase(a.dbHelper),
		PRDB:      databases.NewPaymentRequestDatabase(a.dbHelper),
		JWTSecret: a.Config.JWTSecret,
	}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/register", http.HandlerFunc(u.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/user/me", api.Middleware(http.HandlerFunc(u.MeHandler))).Methods("GET")
	apiCreate.Handle("/user/me", api.Middleware(http.HandlerFunc(u.UpdateMeHandler))).Methods("PATCH")

	apiCreate.Handle("/team", api.Middleware(http.HandlerFunc(t.CreateTeamHandler))).Methods("POST")
	apiCreate.Handle("/team/join", api.Middleware(http.HandlerFunc(t.JoinTeamHandler))).Methods("POST")
	apiCreate.Handle("/team/{team_id}", api.Middleware(http.HandlerFunc(t.TeamHandler))).Methods("GET")
	apiCreate.Handle("/team/{team_id}/leave", api.Middleware(http.HandlerFunc(t.LeaveTeamHandler))).Methods("POST")
	apiCreate.Handle("/team/{team_id}/kick", api.Middleware(http.HandlerFunc(t.KickMemberHandler))).Methods("POST")
	apiCreate.Handle("/team/{team_id}/role", api.Middleware(http.HandlerFunc(t.ChangeRoleHandler))).Methods("PUT")
	apiCreate.Handle("/team/{team_id}/invite-code/renew", api.Middleware(http.HandlerFunc(t.RenewInviteCodeHandler))).Methods("POST")

	apiCreate.Handle("/finance/stats", api.Middleware(http.HandlerFunc(f.StatsHandler))).Methods("GET")
	apiCreate.Handle("/finance/transaction", api.Middleware(http.HandlerFunc(f.CreateTransactionHandler))).Methods("POST")
	apiCreate.Handle("/finance/pending-transactions", api.Middleware(http.HandlerFunc(f.PendingTransactionsHandler))).Methods("GET")
	apiCreate.Handle("/finance/transaction/{transaction_id}/approve", api.Middleware(http.HandlerFunc(f.ApproveTransactionHandler))).Methods("PUT")
	apiCreate.Handle("/finance/transaction/{transaction_id}/reject", api.Middleware(http.HandlerFunc(f.RejectTransactionHandler))).Methods("PUT")
	apiCreate.Handle("/finance/monthly-fee", api.Middleware(http.HandlerFunc(f.MonthlyFeeHandler))).Methods("POST")
	apiCreate.Handle("/finance/clear-debt", api.Middleware(http.HandlerFunc(f.ClearDebtHandler))).Methods("POST")
	apiCreate.Handle("/finance/assign-debt", api.Middleware(http.HandlerFunc(f.AssignDebtHandler))).Methods("POST")
	apiCreate.Handle("/finance/payment-request", api.Middleware(http.HandlerFunc(f.CreatePaymentRequestHandler))).Methods("POST")
	apiCreate.Handle("/finance/payment-requests", api.Middleware(http.HandlerFunc(f.PaymentRequestsHandler))).Methods("GET")
	apiCreate.Handle("/finance/payment-request/{request_id}/approve", api.Middleware(http.HandlerFunc(f.ApprovePaymentRequestHandler))).Methods("PUT")
	apiCreate.Handle("/finance/payment-request/{request_id}/reject", api.Middleware(http.HandlerFunc(f.RejectPaymentRequestHandler))).Methods("PUT")

	apiCreate.Handle("/match", api.Middleware(http.HandlerFunc(match.CreateMatchHandler))).Methods("POST")
	apiCreate.Handle("/matches", api.Middleware(http.HandlerFunc(match.MatchesHandler))).Methods("GET")
	apiCreate.Handle("/match/{match_id}", api.Middleware(http.HandlerFunc(match.MatchHandler))).Methods("GET")
	apiCreate.Handle("/match/{match_id}", api.Middleware(http.HandlerFunc(match.UpdateMatchHandler))).Methods("PUT")
	apiCreate.Handle("/match/{match_id}", api.Middleware(http.HandlerFunc(match.DeleteMatchHandler))).Methods("DELETE")
	apiCreate.Handle("/match/{match_id}/vote", api.Middleware(http.HandlerFunc(match.VoteHandler))).Methods("POST")
	apiCreate.Handle("/match/{match_id}/request-change", api.Middleware(http.HandlerFunc(match.RequestVoteChangeHandler))).Methods("POST")
	apiCreate.Handle("/match/{match_id}/approve-change", api.Middleware(http.HandlerFunc(match.ApproveVoteChangeHandler))).Methods("POST")
	apiCreate.Handle("/match/{match_id}/lock", api.Middleware(http.HandlerFunc(match.ToggleMatchLockHandler))).Methods("PATCH")
	apiCreate.Handle("/match/{match_id}/lineup", api.Middleware(http.HandlerFunc(lineup.SetLineupHandler))).Methods("PUT")
	apiCreate.Handle("/match/{match_id}/lineup", api.Middleware(http.HandlerFunc(lineup.GetLineupHandler))).Methods("GET")

	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.LoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/create-superadmin", http.HandlerFunc(admin.CreateSuperAdminHandler)).Methods("POST")
	apiCreate.Handle("/admin/dashboard", admin.RequireJWT(admin.DashboardHandler)).Methods("GET")
	apiCreate.Handle("/admin/reports/finance", admin.RequireJWT(admin.FinanceReportHandler)).Methods("GET")
	apiCreate.Handle("/admin/transactions", admin.RequireJWT(admin.TransactionsHandler)).Methods("GET")
	apiCreate.Handle("/admin/payment-requests", admin.RequireJWT(admin.PaymentRequestsHandler)).Methods("GET")

	upload, err := NewUpload()
	if err != nil {
		zap.S().With(err).Warn("cloudinary not configured, upload routes disabled")
	} else {
		apiCreate.Handle("/upload/proof", api.Middleware(http.HandlerFunc(upload.ProofUploadHandler))).Methods("POST")
		apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(upload.GenerateSignature))).Methods("POST")
	}

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("teamfund-api has connected to the database")

	if err := a.dbHelper.EnsureIndexes(context.Background()); err != nil {
		zap.S().With(err).Error("failed to ensure indexes")
		return err
	}

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// DB exposes the connected database helper so main can wire the
// scheduler onto the same connection.
func (a *App) DB() databases.DatabaseHelper {
	return a.dbHelper
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
