package gamification

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bondlyapp/bondly/models"
)

var testDb *gorm.DB

func setupDatabase() testcontainers.Container {
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.0",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "password",
			"MYSQL_DATABASE":      "testdb",
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(120 * time.Second),
	}

	mysqlContainer, err := testcontainers.GenericContainer(context.Background(), testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("failed to start container: %s", err)
	}

	host, _ := mysqlContainer.Host(context.Background())
	port, _ := mysqlContainer.MappedPort(context.Background(), "3306")

	dsn := fmt.Sprintf("root:password@tcp(%s:%s)/testdb?charset=utf8mb4&parseTime=True&loc=Local", host, port.Port())

	for i := 0; i < 10; i++ {
		testDb, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if testDb == nil {
		log.Fatalf("failed to connect to database after multiple attempts")
	}

	if err := testDb.AutoMigrate(
		&models.User{},
		&models.UserPreference{},
		&models.ActivityCategory{},
		&models.Activity{},
		&models.ActivitySession{},
		&models.ActivityCompletion{},
		&models.Streak{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Milestone{},
		&models.UserMilestone{},
		&models.Notification{},
		&models.SkipLimit{},
		&models.CoinTransaction{},
	); err != nil {
		log.Fatalf("failed to migrate database: %s", err)
	}
	return mysqlContainer
}

// The container only boots for the database-backed tests; -short keeps the
// pure logic tests in this package runnable without Docker.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	container := setupDatabase()
	code := m.Run()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

// useDatabase skips the test in -short mode and truncates all tables when the
// test finishes.
func useDatabase(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("requires the MySQL container")
	}
	t.Cleanup(clearDatabase)
}

func clearDatabase() {
	tables, _ := testDb.Migrator().GetTables()
	testDb.Exec("SET FOREIGN_KEY_CHECKS = 0;")
	for _, table := range tables {
		testDb.Exec(fmt.Sprintf("TRUNCATE TABLE %s;", table))
	}
	testDb.Exec("SET FOREIGN_KEY_CHECKS = 1;")
}

func newTestEngine(now *time.Time) *Engine {
	e := New(testDb)
	e.Now = func() time.Time { return *now }
	return e
}

var codeSeq int

func seedUser(t *testing.T, name string) *models.User {
	t.Helper()
	codeSeq++
	code := fmt.Sprintf("CODE%04d", codeSeq)
	user := models.User{
		Username:       name,
		Email:          fmt.Sprintf("%s%d@example.com", name, codeSeq),
		InvitationCode: &code,
	}
	require.NoError(t, testDb.Create(&user).Error)
	return &user
}

func seedActivity(t *testing.T, points, coins int) *models.Activity {
	t.Helper()
	cat := models.ActivityCategory{NameEN: "Conversation", NameHI: "बातचीत"}
	require.NoError(t, testDb.Create(&cat).Error)
	activity := models.Activity{
		CategoryID:   cat.ID,
		TitleEN:      "Deep Questions",
		TitleHI:      "गहरे सवाल",
		PointsReward: points,
		CoinsReward:  coins,
		IsActive:     true,
	}
	require.NoError(t, testDb.Create(&activity).Error)
	return &activity
}

func intPtr(v int) *int { return &v }

func reloadUser(t *testing.T, id string) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, testDb.Take(&user, "id = ?", id).Error)
	return &user
}

func TestCompleteActivityAwardsRewards(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	activity := seedActivity(t, 10, 10)

	session, created, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)
	assert.True(t, created)

	result, err := e.CompleteActivity(user.ID, CompletionInput{
		SessionID: session.ID,
		Rating:    intPtr(5),
		Notes:     "lovely evening",
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.PointsEarned)
	assert.Equal(t, 10, result.CoinsEarned)
	assert.Equal(t, 10, result.TotalPoints)
	assert.Equal(t, 10, result.TotalCoins)
	assert.Equal(t, 1, result.Level)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.Streak.CurrentStreak)

	fresh := reloadUser(t, user.ID)
	assert.Equal(t, 10, fresh.TotalPoints)
	assert.Equal(t, 10, fresh.Coins)

	var tx models.CoinTransaction
	require.NoError(t, testDb.Where("user_id = ? AND transaction_type = ?",
		user.ID, models.TxEarnedActivity).Take(&tx).Error)
	assert.Equal(t, 10, tx.Amount)
	assert.Equal(t, 10, tx.BalanceAfter)

	var freshActivity models.Activity
	require.NoError(t, testDb.Take(&freshActivity, "id = ?", activity.ID).Error)
	assert.Equal(t, 1, freshActivity.CompletionCount)
	assert.InDelta(t, 5.0, freshActivity.AverageRating, 0.001)

	var freshSession models.ActivitySession
	require.NoError(t, testDb.Take(&freshSession, "id = ?", session.ID).Error)
	assert.Equal(t, models.SessionCompleted, freshSession.Status)
	require.NotNil(t, freshSession.CompletedAt)
}

func TestCompleteActivityTwiceFails(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	activity := seedActivity(t, 10, 10)
	session, _, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)

	_, err = e.CompleteActivity(user.ID, CompletionInput{SessionID: session.ID})
	require.NoError(t, err)

	_, err = e.CompleteActivity(user.ID, CompletionInput{SessionID: session.ID})
	assert.ErrorIs(t, err, ErrSessionNotOpen)

	fresh := reloadUser(t, user.ID)
	assert.Equal(t, 10, fresh.TotalPoints, "rewards granted exactly once")
}

func TestCompleteActivityGuards(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	owner := seedUser(t, "asha")
	other := seedUser(t, "rohan")
	activity := seedActivity(t, 10, 10)
	session, _, err := e.StartActivity(owner, activity.ID, models.ModeSolo)
	require.NoError(t, err)

	_, err = e.CompleteActivity(owner.ID, CompletionInput{SessionID: "no-such-session"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = e.CompleteActivity(other.ID, CompletionInput{SessionID: session.ID})
	assert.ErrorIs(t, err, ErrNotSessionOwner)

	_, err = e.CompleteActivity(owner.ID, CompletionInput{SessionID: session.ID, Rating: intPtr(6)})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = e.CompleteActivity(owner.ID, CompletionInput{SessionID: session.ID, Rating: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestStartActivityReturnsExistingSession(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	activity := seedActivity(t, 10, 10)

	first, created, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestStartPremiumActivity(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	activity := seedActivity(t, 10, 10)
	require.NoError(t, testDb.Model(activity).UpdateColumns(map[string]interface{}{
		"is_premium":        true,
		"unlock_cost_coins": 50,
	}).Error)

	_, _, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	assert.ErrorIs(t, err, ErrPremiumLocked)

	user.Coins = 50
	require.NoError(t, testDb.Model(user).UpdateColumn("coins", 50).Error)
	_, created, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestSkipActivityDailyLimit(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	activity := seedActivity(t, 10, 10)

	first, err := e.SkipActivity(user.ID, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SkipsUsed)
	assert.Equal(t, 1, first.SkipsRemaining)

	_, err = e.SkipActivity(user.ID, activity.ID)
	require.NoError(t, err)

	_, err = e.SkipActivity(user.ID, activity.ID)
	assert.ErrorIs(t, err, ErrSkipLimitReached)

	// Next day the counter starts fresh.
	now = now.Add(24 * time.Hour)
	again, err := e.SkipActivity(user.ID, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.SkipsUsed)
}

func TestSkipClosesOpenSession(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	activity := seedActivity(t, 10, 10)
	session, _, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)

	_, err = e.SkipActivity(user.ID, activity.ID)
	require.NoError(t, err)

	var fresh models.ActivitySession
	require.NoError(t, testDb.Take(&fresh, "id = ?", session.ID).Error)
	assert.Equal(t, models.SessionSkipped, fresh.Status)

	_, err = e.CompleteActivity(user.ID, CompletionInput{SessionID: session.ID})
	assert.ErrorIs(t, err, ErrSessionNotOpen)
}

func TestSpendCoins(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	require.NoError(t, testDb.Model(user).UpdateColumn("coins", 30).Error)

	result, err := e.SpendCoins(user.ID, "theme", "dark-rose", 20)
	require.NoError(t, err)
	assert.Equal(t, 10, result.NewBalance)
	assert.Equal(t, -20, result.Transaction.Amount)
	assert.Equal(t, 10, result.Transaction.BalanceAfter)
	assert.Equal(t, models.TxSpentTheme, result.Transaction.TransactionType)

	_, err = e.SpendCoins(user.ID, "theme", "midnight", 20)
	assert.ErrorIs(t, err, ErrInsufficientCoins)

	_, err = e.SpendCoins(user.ID, "jetpack", "x", 5)
	assert.ErrorIs(t, err, ErrInvalidSpendType)

	// The failed spends must not leave ledger rows behind.
	var count int64
	require.NoError(t, testDb.Model(&models.CoinTransaction{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, 10, reloadUser(t, user.ID).Coins)
}

func TestClaimDailyBonusOncePerDay(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")

	result, err := e.ClaimDailyBonus(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, result.NewBalance)
	assert.Equal(t, 5, result.Transaction.Amount)

	_, err = e.ClaimDailyBonus(user.ID)
	assert.ErrorIs(t, err, ErrBonusAlreadyClaimed)

	// Tomorrow it can be claimed again.
	now = now.Add(24 * time.Hour)
	result, err = e.ClaimDailyBonus(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, result.NewBalance)
}

func TestLedgerReplayMatchesBalance(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	activity := seedActivity(t, 10, 25)

	session, _, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)
	_, err = e.CompleteActivity(user.ID, CompletionInput{SessionID: session.ID})
	require.NoError(t, err)

	_, err = e.ClaimDailyBonus(user.ID)
	require.NoError(t, err)

	_, err = e.SpendCoins(user.ID, "hint", "", 7)
	require.NoError(t, err)

	var rows []models.CoinTransaction
	require.NoError(t, testDb.Where("user_id = ?", user.ID).Find(&rows).Error)
	require.Len(t, rows, 3)

	sum := 0
	for _, row := range rows {
		sum += row.Amount
	}
	fresh := reloadUser(t, user.ID)
	assert.Equal(t, fresh.Coins, sum, "replaying the ledger reproduces the balance")
	assert.Equal(t, 25+5-7, fresh.Coins)
}

func TestBadgeUnlockIsIdempotent(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "asha")
	activity := seedActivity(t, 10, 10)
	badge := models.Badge{
		NameEN:       "First Step",
		NameHI:       "पहला कदम",
		Criteria:     models.BadgeCriteria{Type: models.CriteriaActivityCount, Threshold: 1},
		PointsReward: 50,
		CoinsReward:  20,
		IsActive:     true,
	}
	require.NoError(t, testDb.Create(&badge).Error)

	session, _, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)
	result, err := e.CompleteActivity(user.ID, CompletionInput{SessionID: session.ID})
	require.NoError(t, err)

	require.Len(t, result.UnlockedBadges, 1)
	assert.Equal(t, badge.ID, result.UnlockedBadges[0].ID)
	assert.Equal(t, 10+50, result.TotalPoints)
	assert.Equal(t, 10+20, result.TotalCoins)

	// A re-evaluation must not grant the badge or its rewards again.
	badges, milestones, err := e.EvaluateAchievements(user.ID)
	require.NoError(t, err)
	assert.Empty(t, badges)
	assert.Empty(t, milestones)

	fresh := reloadUser(t, user.ID)
	assert.Equal(t, 60, fresh.TotalPoints)
	assert.Equal(t, 30, fresh.Coins)

	var unlockCount int64
	require.NoError(t, testDb.Model(&models.UserBadge{}).
		Where("user_id = ?", user.ID).Count(&unlockCount).Error)
	assert.EqualValues(t, 1, unlockCount)

	var note models.Notification
	require.NoError(t, testDb.Where("user_id = ? AND notification_type = ?",
		user.ID, models.NotifyBadgeUnlocked).Take(&note).Error)
}

func TestMilestoneUnlocksByRelationshipDuration(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	alice := seedUser(t, "alice")
	bob := seedUser(t, "bob")
	_, err := e.LinkPartners(alice.ID, *bob.InvitationCode)
	require.NoError(t, err)

	milestone := models.Milestone{
		NameEN:        "One Week Together",
		NameHI:        "एक सप्ताह साथ",
		MilestoneType: models.CriteriaRelationshipDuration,
		CriteriaValue: 7,
		PointsReward:  100,
		CoinsReward:   50,
		IsActive:      true,
	}
	require.NoError(t, testDb.Create(&milestone).Error)

	_, milestones, err := e.EvaluateAchievements(alice.ID)
	require.NoError(t, err)
	assert.Empty(t, milestones, "not yet a week in")

	now = now.Add(8 * 24 * time.Hour)
	_, milestones, err = e.EvaluateAchievements(alice.ID)
	require.NoError(t, err)
	require.Len(t, milestones, 1)
	assert.Equal(t, milestone.ID, milestones[0].ID)

	fresh := reloadUser(t, alice.ID)
	assert.Equal(t, 100, fresh.TotalPoints)
	assert.Equal(t, 50, fresh.Coins)
}

func TestLinkPartners(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	alice := seedUser(t, "alice")
	bob := seedUser(t, "bob")
	carol := seedUser(t, "carol")

	partner, err := e.LinkPartners(alice.ID, *bob.InvitationCode)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, partner.ID)

	freshAlice := reloadUser(t, alice.ID)
	freshBob := reloadUser(t, bob.ID)
	require.NotNil(t, freshAlice.PartnerID)
	require.NotNil(t, freshBob.PartnerID)
	assert.Equal(t, bob.ID, *freshAlice.PartnerID)
	assert.Equal(t, alice.ID, *freshBob.PartnerID)
	require.NotNil(t, freshAlice.RelationshipStartDate)
	require.NotNil(t, freshBob.RelationshipStartDate)

	var note models.Notification
	require.NoError(t, testDb.Where("user_id = ? AND notification_type = ?",
		bob.ID, models.NotifyPartnerJoined).Take(&note).Error)

	// Linked users cannot link again, taken partners cannot be claimed.
	_, err = e.LinkPartners(alice.ID, *carol.InvitationCode)
	assert.ErrorIs(t, err, ErrAlreadyLinked)
	_, err = e.LinkPartners(carol.ID, *bob.InvitationCode)
	assert.ErrorIs(t, err, ErrPartnerTaken)
	_, err = e.LinkPartners(carol.ID, *carol.InvitationCode)
	assert.ErrorIs(t, err, ErrSelfLink)
	_, err = e.LinkPartners(carol.ID, "NOPE1234")
	assert.ErrorIs(t, err, ErrInvalidInviteCode)
	_, err = e.LinkPartners(carol.ID, "short")
	assert.ErrorIs(t, err, ErrInvalidInviteCode)
}

func TestUnlinkPartners(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	alice := seedUser(t, "alice")
	bob := seedUser(t, "bob")
	_, err := e.LinkPartners(alice.ID, *bob.InvitationCode)
	require.NoError(t, err)

	require.NoError(t, e.UnlinkPartners(alice.ID))

	assert.Nil(t, reloadUser(t, alice.ID).PartnerID)
	assert.Nil(t, reloadUser(t, bob.ID).PartnerID)

	assert.ErrorIs(t, e.UnlinkPartners(alice.ID), ErrNoPartner)
}

func TestBondScore(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	solo := seedUser(t, "solo")
	score, err := e.BondScore(solo)
	require.NoError(t, err)
	assert.Equal(t, 0, score, "no partner means no bond score")

	alice := seedUser(t, "alice")
	bob := seedUser(t, "bob")
	_, err = e.LinkPartners(alice.ID, *bob.InvitationCode)
	require.NoError(t, err)

	activity := seedActivity(t, 10, 10)
	session, _, err := e.StartActivity(reloadUser(t, alice.ID), activity.ID, models.ModeSolo)
	require.NoError(t, err)
	_, err = e.CompleteActivity(alice.ID, CompletionInput{SessionID: session.ID})
	require.NoError(t, err)

	// 1 completion (2) + streak of 1 (2) + baseline consistency (5).
	score, err = e.BondScore(reloadUser(t, alice.ID))
	require.NoError(t, err)
	assert.Equal(t, 9, score)
}

func TestActivityRatingAverageAccumulates(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	user := seedUser(t, "alice")
	activity := seedActivity(t, 10, 10)

	session, _, err := e.StartActivity(user, activity.ID, models.ModeSolo)
	require.NoError(t, err)
	_, err = e.CompleteActivity(user.ID, CompletionInput{SessionID: session.ID, Rating: intPtr(5)})
	require.NoError(t, err)

	session, created, err := e.StartActivity(reloadUser(t, user.ID), activity.ID, models.ModeSolo)
	require.NoError(t, err)
	require.True(t, created, "a completed session does not block a fresh start")
	_, err = e.CompleteActivity(user.ID, CompletionInput{SessionID: session.ID, Rating: intPtr(2)})
	require.NoError(t, err)

	var fresh models.Activity
	require.NoError(t, testDb.Take(&fresh, "id = ?", activity.ID).Error)
	assert.Equal(t, 2, fresh.CompletionCount)
	assert.InDelta(t, 3.5, fresh.AverageRating, 0.001)
}

func TestTogetherModePairsSessions(t *testing.T) {
	useDatabase(t)
	now := time.Now()
	e := newTestEngine(&now)

	alice := seedUser(t, "alice")
	bob := seedUser(t, "bob")
	_, err := e.LinkPartners(alice.ID, *bob.InvitationCode)
	require.NoError(t, err)
	activity := seedActivity(t, 10, 10)

	aliceSession, _, err := e.StartActivity(reloadUser(t, alice.ID), activity.ID, models.ModeTogether)
	require.NoError(t, err)
	assert.Nil(t, aliceSession.PartnerSessionID, "nothing to pair with yet")

	var invite models.Notification
	require.NoError(t, testDb.Where("user_id = ? AND notification_type = ?",
		bob.ID, models.NotifyPartnerActivity).Take(&invite).Error)

	bobSession, _, err := e.StartActivity(reloadUser(t, bob.ID), activity.ID, models.ModeTogether)
	require.NoError(t, err)
	require.NotNil(t, bobSession.PartnerSessionID)
	assert.Equal(t, aliceSession.ID, *bobSession.PartnerSessionID)

	var freshAlice models.ActivitySession
	require.NoError(t, testDb.Take(&freshAlice, "id = ?", aliceSession.ID).Error)
	require.NotNil(t, freshAlice.PartnerSessionID)
	assert.Equal(t, bobSession.ID, *freshAlice.PartnerSessionID)

	// Joining an already-open together session does not re-invite.
	var invites int64
	require.NoError(t, testDb.Model(&models.Notification{}).
		Where("notification_type = ?", models.NotifyPartnerActivity).Count(&invites).Error)
	assert.EqualValues(t, 1, invites)
}
