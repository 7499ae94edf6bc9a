package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/siuno/teamfund-api/databases/mocks"
	"github.com/siuno/teamfund-api/models"
)

func TestCollectMonthlyFees_SkipsWhenLockHeldElsewhere(t *testing.T) {
	lockDB := mocks.NewSchedulerLockDatabase(t)
	tdb := mocks.NewTeamDatabase(t)

	lockDB.On("TryAcquireLock", mock.Anything, "monthly_fee_job", mock.Anything, mock.Anything).
		Return(false, nil)

	s := NewScheduler(tdb, nil, nil, nil, lockDB)
	s.collectMonthlyFees()

	tdb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestCollectMonthlyFees_ReleasesLockAfterRun(t *testing.T) {
	lockDB := mocks.NewSchedulerLockDatabase(t)
	tdb := mocks.NewTeamDatabase(t)

	lockDB.On("TryAcquireLock", mock.Anything, "monthly_fee_job", mock.Anything, mock.Anything).
		Return(true, nil)
	lockDB.On("ReleaseLock", mock.Anything, "monthly_fee_job", mock.Anything).Return(nil)
	tdb.On("Find", mock.Anything, bson.M{"autoCollectFee": true, "monthlyFeeAmount": bson.M{"$gt": 0}}).
		Return([]models.Team{}, nil)

	s := NewScheduler(tdb, nil, nil, nil, lockDB)
	s.collectMonthlyFees()
}

func TestSendDebtReminders_SkipsWhenLockHeldElsewhere(t *testing.T) {
	lockDB := mocks.NewSchedulerLockDatabase(t)
	mdb := mocks.NewTeamMemberDatabase(t)

	lockDB.On("TryAcquireLock", mock.Anything, "debt_reminder_job", mock.Anything, mock.Anything).
		Return(false, nil)

	s := NewScheduler(nil, mdb, nil, nil, lockDB)
	s.sendDebtReminders()

	mdb.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestNewScheduler_GeneratesInstanceID(t *testing.T) {
	s := NewScheduler(nil, nil, nil, nil, nil)
	assert.NotEmpty(t, s.instanceID)
}

func TestScheduler_StopWaitsForRunningJobs(t *testing.T) {
	s := NewScheduler(nil, nil, nil, nil, nil)
	s.Start()
	// returns only once the cron context is done, so a clean
	// start/stop cycle must not hang or panic
	s.Stop()
}
