package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/teamflow/teamflow/internal/config"
	"github.com/teamflow/teamflow/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// failingMailer rejects delivery to a given address.
type failingMailer struct {
	failFor string
	sent    []string
}

func (m *failingMailer) Send(to, subject, htmlBody string) error {
	if to == m.failFor {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, to)
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Team{}, &models.TeamMember{},
		&models.Project{}, &models.ProjectMember{},
		&models.Task{}, &models.TaskAssignee{}, &models.Subtask{},
		&models.Comment{}, &models.Notification{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string, digestEnabled bool) *models.User {
	t.Helper()
	u := &models.User{
		Username:      name,
		Email:         name + "@example.com",
		Nickname:      name,
		Role:          models.GlobalRoleMember,
		IsActive:      true,
		DigestEnabled: digestEnabled,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func seedNotification(t *testing.T, db *gorm.DB, recipientID uint, typ, title string) {
	t.Helper()
	n := &models.Notification{
		RecipientID: recipientID,
		Type:        typ,
		Title:       title,
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
}

func TestDigestRunBatchSurvivesPerUserFailures(t *testing.T) {
	db := openTestDB(t)

	alice := seedUser(t, db, "alice", true)
	bob := seedUser(t, db, "bob", true)
	carol := seedUser(t, db, "carol", true)

	seedNotification(t, db, alice.ID, models.NotificationAssignment, "Task assigned")
	seedNotification(t, db, alice.ID, models.NotificationComment, "New comment")
	// bob has nothing unread
	seedNotification(t, db, carol.ID, models.NotificationDueSoon, "Task due soon")

	mailer := &failingMailer{failFor: carol.Email}
	svc := NewDigestService(db, NewSyncMailQueue(mailer), &config.DigestConfig{
		Enabled:      true,
		LookbackHour: 24,
	})

	stats := svc.Run()

	if stats.Scanned != 3 {
		t.Errorf("Scanned = %d, want 3", stats.Scanned)
	}
	if stats.Sent != 1 {
		t.Errorf("Sent = %d, want 1", stats.Sent)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != alice.Email {
		t.Errorf("delivered to %v, want only %s", mailer.sent, alice.Email)
	}
	_ = bob
}

func TestDigestRunSkipsDisabledAndReadNotifications(t *testing.T) {
	db := openTestDB(t)

	optedOut := seedUser(t, db, "optedout", false)
	reader := seedUser(t, db, "reader", true)

	seedNotification(t, db, optedOut.ID, models.NotificationAssignment, "should not be mailed")

	now := time.Now()
	read := &models.Notification{
		RecipientID: reader.ID,
		Type:        models.NotificationComment,
		Title:       "already read",
		IsRead:      true,
		ReadAt:      &now,
	}
	if err := db.Create(read).Error; err != nil {
		t.Fatalf("seed read notification: %v", err)
	}

	mailer := &failingMailer{}
	svc := NewDigestService(db, NewSyncMailQueue(mailer), &config.DigestConfig{LookbackHour: 24})

	stats := svc.Run()

	if stats.Scanned != 1 {
		t.Errorf("Scanned = %d, want 1 (opted-out user excluded)", stats.Scanned)
	}
	if stats.Sent != 0 {
		t.Errorf("Sent = %d, want 0", stats.Sent)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("delivered to %v, want none", mailer.sent)
	}
}

func TestDigestRunIgnoresStaleNotifications(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "dave", true)

	stale := &models.Notification{
		RecipientID: u.ID,
		Type:        models.NotificationComment,
		Title:       "old news",
	}
	if err := db.Create(stale).Error; err != nil {
		t.Fatalf("seed stale notification: %v", err)
	}
	twoDaysAgo := time.Now().Add(-48 * time.Hour)
	if err := db.Model(stale).UpdateColumn("created_at", twoDaysAgo).Error; err != nil {
		t.Fatalf("backdate notification: %v", err)
	}

	mailer := &failingMailer{}
	svc := NewDigestService(db, NewSyncMailQueue(mailer), &config.DigestConfig{LookbackHour: 24})

	stats := svc.Run()
	if stats.Sent != 0 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want the stale-only user skipped", stats)
	}
}

func TestGroupByCategory(t *testing.T) {
	notifications := []models.Notification{
		{Type: models.NotificationAssignment, Title: "a"},
		{Type: models.NotificationAssignment, Title: "b"},
		{Type: models.NotificationComment, Title: "c"},
		{Type: "something-new", Title: "d"},
	}

	groups := GroupByCategory(notifications)

	if len(groups[models.NotificationAssignment]) != 2 {
		t.Errorf("assignment group = %d, want 2", len(groups[models.NotificationAssignment]))
	}
	if len(groups[models.NotificationComment]) != 1 {
		t.Errorf("comment group = %d, want 1", len(groups[models.NotificationComment]))
	}
	if len(groups[models.NotificationOther]) != 1 {
		t.Errorf("unknown types should land in other, got %d", len(groups[models.NotificationOther]))
	}
}

func TestBuildDigestBody(t *testing.T) {
	notifications := []models.Notification{
		{Type: models.NotificationAssignment, Title: "Review the launch plan"},
		{Type: models.NotificationComment, Title: "Reply from Bob", Body: "Looks good to me"},
	}

	body := BuildDigestBody("Alice", notifications)

	for _, want := range []string{"Hi Alice,", "Assignments (1)", "Comments (1)", "Review the launch plan", "Looks good to me"} {
		if !strings.Contains(body, want) {
			t.Errorf("digest body missing %q", want)
		}
	}
}

func TestBuildDigestBodyTruncatesLongBodies(t *testing.T) {
	long := strings.Repeat("x", 500)
	body := BuildDigestBody("", []models.Notification{
		{Type: models.NotificationComment, Title: "t", Body: long},
	})
	if strings.Contains(body, long) {
		t.Error("long notification bodies should be truncated")
	}
	if !strings.Contains(body, "...") {
		t.Error("truncated bodies should carry an ellipsis")
	}
}

func TestCategoryCountsOrdering(t *testing.T) {
	groups := GroupByCategory([]models.Notification{
		{Type: models.NotificationDueSoon},
		{Type: models.NotificationAssignment},
		{Type: models.NotificationAssignment},
	})

	got := CategoryCounts(groups)
	want := []string{
		fmt.Sprintf("%s=2", models.NotificationAssignment),
		fmt.Sprintf("%s=1", models.NotificationDueSoon),
	}
	if len(got) != len(want) {
		t.Fatalf("counts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("counts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
