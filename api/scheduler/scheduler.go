package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/siuno/teamfund-api/api/handlers"
	"github.com/siuno/teamfund-api/databases"
	"github.com/siuno/teamfund-api/models"
	templates "github.com/siuno/teamfund-api/templates/html"
)

// Scheduler handles periodic background jobs for fee collection and
// debt reminders
type Scheduler struct {
	cron       *cron.Cron
	TDB        databases.TeamDatabase
	MDB        databases.TeamMemberDatabase
	TXDB       databases.TransactionDatabase
	UDB        databases.UserDatabase
	LockDB     databases.SchedulerLockDatabase
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	tDB databases.TeamDatabase,
	mDB databases.TeamMemberDatabase,
	txDB databases.TransactionDatabase,
	uDB databases.UserDatabase,
	lockDB databases.SchedulerLockDatabase,
) *Scheduler {
	// Generate a unique instance ID for this pod
	instanceID := os.Getenv("DYNO") // Heroku sets this to "web.1", "web.2", etc.
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		TDB:        tDB,
		MDB:        mDB,
		TXDB:       txDB,
		UDB:        uDB,
		LockDB:     lockDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Collect monthly fees on the 1st of each month at 1 AM UTC for
	// teams that opted into auto collection
	_, err := s.cron.AddFunc("0 1 1 * *", s.collectMonthlyFees)
	if err != nil {
		zap.S().Errorw("failed to register monthly fee job", "error", err)
	}

	// Remind members with outstanding debt every Monday at 9 AM UTC
	_, err = s.cron.AddFunc("0 9 * * 1", s.sendDebtReminders)
	if err != nil {
		zap.S().Errorw("failed to register debt reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Team fund scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Team fund scheduler stopped")
}

// collectMonthlyFees applies the monthly fee to every auto-collect
// team and emails each member their new balance
func (s *Scheduler) collectMonthlyFees() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Try to acquire distributed lock (30 minute TTL)
	acquired, err := s.LockDB.TryAcquireLock(ctx, "monthly_fee_job", s.instanceID, 30*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for monthly fee job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Monthly fee job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "monthly_fee_job", s.instanceID)

	now := time.Now()
	zap.S().Infow("Running monthly fee collection job", "instance", s.instanceID)

	teams, err := s.TDB.Find(ctx, bson.M{"autoCollectFee": true, "monthlyFeeAmount": bson.M{"$gt": 0}})
	if err != nil {
		zap.S().Errorw("failed to find auto-collect teams", "error", err)
		return
	}

	for i := range teams {
		team := teams[i]
		affected, err := handlers.ApplyMonthlyFee(ctx, s.MDB, s.TXDB, &team, team.CreatedBy, now)
		if err != nil {
			zap.S().Errorw("failed to apply monthly fee", "teamID", team.ID.Hex(), "error", err)
			continue
		}
		zap.S().Infow("monthly fee collected", "teamID", team.ID.Hex(), "members", affected)
		s.notifyFeeCollected(ctx, &team)
	}
}

// notifyFeeCollected emails every active member their new balance
func (s *Scheduler) notifyFeeCollected(ctx context.Context, team *models.Team) {
	members, err := s.MDB.Find(ctx, bson.M{"teamId": team.ID, "isActive": true})
	if err != nil {
		zap.S().Errorw("failed to find members for fee notice", "teamID", team.ID.Hex(), "error", err)
		return
	}
	for _, m := range members {
		user, err := s.UDB.FindOne(ctx, bson.M{"_id": m.UserID})
		if err != nil || user.Email == "" {
			continue
		}
		htmlContent := templates.RenderMonthlyFeeEmail(user.Name, team.Name, team.MonthlyFeeAmount, m.Debt)
		plainText := fmt.Sprintf("Hi %s, this month's fee of %d has been added to your balance with %s. Your total outstanding balance is %d.",
			user.Name, team.MonthlyFeeAmount, team.Name, m.Debt)
		s.sendEmail(user.Name, user.Email, "Monthly fee collected - "+team.Name, plainText, htmlContent)
	}
}

// sendDebtReminders emails every active member carrying debt
func (s *Scheduler) sendDebtReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.LockDB.TryAcquireLock(ctx, "debt_reminder_job", s.instanceID, 10*time.Minute)
	if err != nil {
		zap.S().Errorw("failed to acquire lock for debt reminder job", "error", err)
		return
	}
	if !acquired {
		zap.S().Debug("Debt reminder job already running on another instance, skipping")
		return
	}
	defer s.LockDB.ReleaseLock(ctx, "debt_reminder_job", s.instanceID)

	zap.S().Infow("Running debt reminder job", "instance", s.instanceID)

	debtors, err := s.MDB.Find(ctx, bson.M{"isActive": true, "debt": bson.M{"$gt": 0}})
	if err != nil {
		zap.S().Errorw("failed to find members with debt", "error", err)
		return
	}

	teamNames := map[primitive.ObjectID]string{}
	for _, d := range debtors {
		teamName, ok := teamNames[d.TeamID]
		if !ok {
			team, err := s.TDB.FindOne(ctx, bson.M{"_id": d.TeamID})
			if err != nil {
				continue
			}
			teamName = team.Name
			teamNames[d.TeamID] = teamName
		}
		user, err := s.UDB.FindOne(ctx, bson.M{"_id": d.UserID})
		if err != nil || user.Email == "" {
			continue
		}
		htmlContent := templates.RenderDebtReminderEmail(user.Name, teamName, d.Debt)
		plainText := fmt.Sprintf("Hi %s, you have an outstanding balance of %d with %s.", user.Name, d.Debt, teamName)
		s.sendEmail(user.Name, user.Email, "Outstanding balance reminder - "+teamName, plainText, htmlContent)
	}
	zap.S().Infow("debt reminders sent", "count", len(debtors))
}

func (s *Scheduler) sendEmail(toName, toEmail, subject, plainText, htmlContent string) {
	from := mail.NewEmail("Team Fund", "no-reply@teamfund.app")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send email", "to", toEmail, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}
