package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/siuno/teamfund-api/api/handlers"
	"github.com/siuno/teamfund-api/api/scheduler"
	"github.com/siuno/teamfund-api/databases"

	"go.uber.org/zap"

	"github.com/siuno/teamfund-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		log.Fatal(err)
	}

	db := a.DB()
	s := scheduler.NewScheduler(
		databases.NewTeamDatabase(db),
		databases.NewTeamMemberDatabase(db),
		databases.NewTransactionDatabase(db),
		databases.NewUserDatabase(db),
		databases.NewSchedulerLockDatabase(db),
	)
	s.Start()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("teamfund-api is up and running",
		"port", port,
		"url", baseURL,
	)
	err := http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router)

	// let in-flight cron jobs finish before the process dies
	s.Stop()
	log.Fatal(err)
}
