package services

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/teamflow/teamflow/internal/config"
	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/pkg/logger"
	"gorm.io/gorm"
)

// DigestService aggregates unread notifications into a scheduled email
// digest per user.
type DigestService struct {
	db       *gorm.DB
	queue    MailQueue
	cfg      *config.DigestConfig
	calendar *cal.BusinessCalendar
	cron     *cron.Cron
	entryID  cron.EntryID
	log      zerolog.Logger

	// Re-entrancy guard: a second trigger while a run is in flight is a
	// no-op. This is a process-local flag, not a distributed lock.
	running atomic.Bool
}

// DigestStats reports the outcome of one digest run.
type DigestStats struct {
	Scanned int // users with digest enabled
	Sent    int // digests delivered or enqueued
	Skipped int // users with no qualifying notifications
	Failed  int // per-user delivery failures
}

func NewDigestService(db *gorm.DB, queue MailQueue, cfg *config.DigestConfig) *DigestService {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(us.Holidays...)
	return &DigestService{
		db:       db,
		queue:    queue,
		cfg:      cfg,
		calendar: calendar,
		log:      logger.With("digest"),
	}
}

// StartScheduler registers the cron entry and starts the scheduler.
func (s *DigestService) StartScheduler() error {
	if !s.cfg.Enabled {
		s.log.Info().Msg("scheduler disabled")
		return nil
	}

	s.cron = cron.New()
	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.Run()
	})
	if err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", s.cfg.Schedule, err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.log.Info().Str("schedule", s.cfg.Schedule).Msg("scheduler started")
	return nil
}

// StopScheduler stops the cron scheduler. A run already in flight
// completes; it cannot be cancelled.
func (s *DigestService) StopScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Run executes one digest pass over all users. It never panics out:
// per-user failures are counted and logged, the batch always finishes.
func (s *DigestService) Run() DigestStats {
	var stats DigestStats

	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("run already in progress, skipping trigger")
		return stats
	}
	defer s.running.Store(false)

	if s.cfg.WorkdaysOnly && !s.calendar.IsWorkday(time.Now()) {
		s.log.Info().Msg("run skipped, not a workday")
		return stats
	}

	var users []models.User
	if err := s.db.Where("digest_enabled = ? AND is_active = ?", true, true).Find(&users).Error; err != nil {
		s.log.Error().Err(err).Msg("user scan failed")
		return stats
	}

	lookback := time.Duration(s.cfg.LookbackHour) * time.Hour
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	since := time.Now().Add(-lookback)

	for _, user := range users {
		stats.Scanned++

		var notifications []models.Notification
		if err := s.db.Where("recipient_id = ? AND is_read = ? AND created_at >= ?", user.ID, false, since).
			Order("created_at ASC").
			Find(&notifications).Error; err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("notification scan failed")
			stats.Failed++
			continue
		}

		// No empty digests.
		if len(notifications) == 0 {
			stats.Skipped++
			continue
		}

		subject := fmt.Sprintf("[TeamFlow] %d unread notification(s)", len(notifications))
		body := BuildDigestBody(user.Nickname, notifications)

		job := &DigestJob{
			UserID:  user.ID,
			Email:   user.Email,
			Subject: subject,
			Body:    body,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("delivery failed")
			stats.Failed++
			continue
		}
		stats.Sent++
	}

	s.log.Info().
		Int("scanned", stats.Scanned).
		Int("sent", stats.Sent).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("run complete")
	return stats
}

// digestCategoryOrder fixes the section order in the rendered digest.
var digestCategoryOrder = []string{
	models.NotificationAssignment,
	models.NotificationCompletion,
	models.NotificationComment,
	models.NotificationDueSoon,
	models.NotificationInvite,
	models.NotificationMention,
	models.NotificationOther,
}

var digestCategoryLabels = map[string]string{
	models.NotificationAssignment: "Assignments",
	models.NotificationCompletion: "Completed tasks",
	models.NotificationComment:    "Comments",
	models.NotificationDueSoon:    "Due soon",
	models.NotificationInvite:     "Invitations",
	models.NotificationMention:    "Mentions",
	models.NotificationOther:      "Other",
}

// GroupByCategory buckets notifications by semantic category. Unknown
// types land in "other".
func GroupByCategory(notifications []models.Notification) map[string][]models.Notification {
	groups := make(map[string][]models.Notification)
	for _, n := range notifications {
		category := n.Type
		if _, known := digestCategoryLabels[category]; !known {
			category = models.NotificationOther
		}
		groups[category] = append(groups[category], n)
	}
	return groups
}

// BuildDigestBody renders the digest email HTML.
func BuildDigestBody(nickname string, notifications []models.Notification) string {
	groups := GroupByCategory(notifications)

	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	if nickname != "" {
		sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", nickname))
	}
	sb.WriteString(fmt.Sprintf("<p>You have %d unread notification(s) from the last day:</p>", len(notifications)))

	for _, category := range digestCategoryOrder {
		items := groups[category]
		if len(items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("<h3>%s (%d)</h3><ul>", digestCategoryLabels[category], len(items)))
		for _, n := range items {
			sb.WriteString(fmt.Sprintf("<li><strong>%s</strong>", n.Title))
			if n.Body != "" {
				sb.WriteString(fmt.Sprintf(": %s", truncate(n.Body, 120)))
			}
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")
	}

	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">You receive this digest because it is enabled in your notification settings.</p>")
	sb.WriteString("</body></html>")
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// CategoryCounts summarizes a grouped digest, ordered by category.
func CategoryCounts(groups map[string][]models.Notification) []string {
	var out []string
	for _, category := range digestCategoryOrder {
		if n := len(groups[category]); n > 0 {
			out = append(out, fmt.Sprintf("%s=%d", category, n))
		}
	}
	return out
}
