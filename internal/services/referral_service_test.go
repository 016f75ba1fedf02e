package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sky366trade/backend/internal/apperr"
	"github.com/sky366trade/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Account{},
		&models.Team{},
		&models.Task{},
		&models.UserTask{},
		&models.WithdrawalRequest{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	// The shared in-memory DB persists across tests in this package.
	db.Exec("DELETE FROM accounts")
	db.Exec("DELETE FROM teams")
	db.Exec("DELETE FROM tasks")
	db.Exec("DELETE FROM user_tasks")
	db.Exec("DELETE FROM withdrawal_requests")
	db.Exec("DELETE FROM payments")

	return db
}

func createAccount(t *testing.T, db *gorm.DB, username string, wallet int64) *models.Account {
	t.Helper()
	account := models.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Wallet:       decimal.NewFromInt(wallet),
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account %s: %v", username, err)
	}
	return &account
}

func getAccount(t *testing.T, db *gorm.DB, username string) *models.Account {
	t.Helper()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		t.Fatalf("failed to load account %s: %v", username, err)
	}
	return &account
}

func getTeam(t *testing.T, db *gorm.DB, name string) *models.Team {
	t.Helper()
	var team models.Team
	if err := db.Where("name = ?", name).First(&team).Error; err != nil {
		t.Fatalf("failed to load team %s: %v", name, err)
	}
	return &team
}

func TestAttachSetsParentAndIncrementsCounts(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	createAccount(t, db, "root", 0)
	createAccount(t, db, "mid", 0)
	createAccount(t, db, "leaf", 0)

	if err := service.Attach("mid", "root"); err != nil {
		t.Fatalf("Attach(mid, root) failed: %v", err)
	}
	if err := service.Attach("leaf", "mid"); err != nil {
		t.Fatalf("Attach(leaf, mid) failed: %v", err)
	}

	leaf := getAccount(t, db, "leaf")
	if leaf.ParentUsername == nil || *leaf.ParentUsername != "mid" {
		t.Errorf("expected leaf parent mid, got %v", leaf.ParentUsername)
	}
	if leaf.TeamName != "leaf" {
		t.Errorf("expected leaf team name leaf, got %s", leaf.TeamName)
	}

	// mid's team: created at 1 for its own subtree, +1 when leaf joined.
	if got := getTeam(t, db, "mid").MemberCount; got != 2 {
		t.Errorf("expected mid member count 2, got %d", got)
	}
	// root's team: created at 1, +1 for mid, +1 for leaf.
	if got := getTeam(t, db, "root").MemberCount; got != 3 {
		t.Errorf("expected root member count 3, got %d", got)
	}
	// leaf's own team record exists with just the recruiter.
	if got := getTeam(t, db, "leaf").MemberCount; got != 1 {
		t.Errorf("expected leaf member count 1, got %d", got)
	}
}

func TestAttachParentNotFound(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	createAccount(t, db, "orphan", 0)

	err := service.Attach("orphan", "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	// No mutation performed.
	if orphan := getAccount(t, db, "orphan"); orphan.ParentUsername != nil {
		t.Errorf("expected orphan to stay unparented")
	}
	var teamCount int64
	db.Model(&models.Team{}).Count(&teamCount)
	if teamCount != 0 {
		t.Errorf("expected no teams created, got %d", teamCount)
	}
}

func TestAttachRejectsReparenting(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	createAccount(t, db, "a", 0)
	createAccount(t, db, "b", 0)
	createAccount(t, db, "c", 0)

	if err := service.Attach("c", "a"); err != nil {
		t.Fatalf("first Attach failed: %v", err)
	}
	if err := service.Attach("c", "b"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected Conflict on re-parent, got %v", err)
	}
}

func TestAttachRejectsCycle(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	createAccount(t, db, "a", 0)
	createAccount(t, db, "b", 0)
	createAccount(t, db, "c", 0)

	if err := service.Attach("b", "a"); err != nil {
		t.Fatalf("Attach(b, a) failed: %v", err)
	}
	if err := service.Attach("c", "b"); err != nil {
		t.Fatalf("Attach(c, b) failed: %v", err)
	}

	// a is unparented, so both attachments pass the re-parent check; each
	// would still link a under its own descendant.
	if err := service.Attach("a", "b"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected Conflict attaching a under its child, got %v", err)
	}
	if err := service.Attach("a", "c"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected Conflict attaching a under its grandchild, got %v", err)
	}

	if parent := getAccount(t, db, "a").ParentUsername; parent != nil {
		t.Errorf("expected a to stay unparented, got parent %q", *parent)
	}
	// Counters from the two legitimate joins only: a picked up b and c,
	// b picked up c.
	if got := getTeam(t, db, "a").MemberCount; got != 3 {
		t.Errorf("expected a member count 3, got %d", got)
	}
	if got := getTeam(t, db, "b").MemberCount; got != 2 {
		t.Errorf("expected b member count 2, got %d", got)
	}
}

func TestAttachDeepChainStillSucceeds(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	// u0 is the root; u1..u7 form a chain of depth 7 below it.
	names := []string{"u0", "u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	for _, name := range names {
		createAccount(t, db, name, 0)
	}
	for i := 1; i <= 7; i++ {
		if err := service.Attach(names[i], names[i-1]); err != nil {
			t.Fatalf("Attach(%s, %s) failed: %v", names[i], names[i-1], err)
		}
	}

	// u8's ancestor chain is 8 hops deep: soft failure, but the
	// attachment itself is recorded.
	err := service.Attach("u8", "u7")
	if !errors.Is(err, apperr.ErrNoRewardingMember) {
		t.Fatalf("expected no-rewarding-member, got %v", err)
	}

	u8 := getAccount(t, db, "u8")
	if u8.ParentUsername == nil || *u8.ParentUsername != "u7" {
		t.Errorf("expected u8 attached under u7 despite deep chain")
	}
	// The 7 ancestors within the bound were still incremented.
	if got := getTeam(t, db, "u7").MemberCount; got != 2 {
		t.Errorf("expected u7 member count 2, got %d", got)
	}
}

func TestAncestorChainOrder(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	createAccount(t, db, "gg", 0)
	createAccount(t, db, "g", 0)
	createAccount(t, db, "p", 0)
	createAccount(t, db, "u", 0)

	for _, link := range [][2]string{{"g", "gg"}, {"p", "g"}, {"u", "p"}} {
		if err := service.Attach(link[0], link[1]); err != nil {
			t.Fatalf("Attach(%s, %s) failed: %v", link[0], link[1], err)
		}
	}

	ancestors, reachedRoot, err := service.AncestorChain("u", MaxAncestorHops)
	if err != nil {
		t.Fatalf("AncestorChain failed: %v", err)
	}
	if !reachedRoot {
		t.Errorf("expected chain to reach the root")
	}
	if len(ancestors) != 3 {
		t.Fatalf("expected 3 ancestors, got %d", len(ancestors))
	}
	for i, want := range []string{"p", "g", "gg"} {
		if ancestors[i].Username != want {
			t.Errorf("ancestor %d: expected %s, got %s", i, want, ancestors[i].Username)
		}
	}
}

func TestDistributeRewardThreeTiers(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	createAccount(t, db, "gg", 0)
	createAccount(t, db, "g", 0)
	createAccount(t, db, "p", 0)
	createAccount(t, db, "u", 0)

	for _, link := range [][2]string{{"g", "gg"}, {"p", "g"}, {"u", "p"}} {
		if err := service.Attach(link[0], link[1]); err != nil {
			t.Fatalf("Attach failed: %v", err)
		}
	}

	credited, err := service.DistributeReward("u", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("DistributeReward failed: %v", err)
	}
	if !credited.Equal(decimal.NewFromInt(18)) {
		t.Errorf("expected 18 credited, got %s", credited)
	}

	if wallet := getAccount(t, db, "p").Wallet; !wallet.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected parent wallet 10, got %s", wallet)
	}
	if wallet := getAccount(t, db, "g").Wallet; !wallet.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected grandparent wallet 5, got %s", wallet)
	}
	if wallet := getAccount(t, db, "gg").Wallet; !wallet.Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected great-grandparent wallet 3, got %s", wallet)
	}
	if u := getAccount(t, db, "u"); !u.ReferralPaid {
		t.Errorf("expected disbursement flag set")
	}

	// Second call must not pay again.
	_, err = service.DistributeReward("u", decimal.NewFromInt(100))
	if !errors.Is(err, apperr.ErrAlreadyProcessed) {
		t.Fatalf("expected AlreadyProcessed, got %v", err)
	}
	if wallet := getAccount(t, db, "p").Wallet; !wallet.Equal(decimal.NewFromInt(10)) {
		t.Errorf("second call credited parent again: %s", wallet)
	}
}

func TestDistributeRewardTruncatedChainOverflows(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	createAccount(t, db, "p", 0)
	createAccount(t, db, "u", 0)

	if err := service.Attach("u", "p"); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	credited, err := service.DistributeReward("u", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("DistributeReward failed: %v", err)
	}
	if !credited.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10 credited, got %s", credited)
	}

	// The unpayable grandparent and great-grandparent tiers pool into
	// the triggering account's team wallet.
	if pool := getTeam(t, db, "u").Wallet; !pool.Equal(decimal.NewFromInt(8)) {
		t.Errorf("expected team pool 8, got %s", pool)
	}
}

func TestDistributeRewardNoParent(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	createAccount(t, db, "lone", 50)

	_, err := service.DistributeReward("lone", decimal.NewFromInt(100))
	if !errors.Is(err, apperr.ErrNoRewardingMember) {
		t.Fatalf("expected no-rewarding-member, got %v", err)
	}

	lone := getAccount(t, db, "lone")
	if lone.ReferralPaid {
		t.Errorf("flag must stay clear when nothing was paid")
	}
	if !lone.Wallet.Equal(decimal.NewFromInt(50)) {
		t.Errorf("wallet must be untouched, got %s", lone.Wallet)
	}
}

func TestDistributeRewardAccountNotFound(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	_, err := service.DistributeReward("ghost", decimal.NewFromInt(100))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDistributeRewardRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	service := NewReferralService(db)

	_, err := service.DistributeReward("anyone", decimal.NewFromInt(-5))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}
