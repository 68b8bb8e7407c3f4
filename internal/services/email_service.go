package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/justsurfingit/job-tracker/internal/models"
	"github.com/robfig/cron/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"gorm.io/gorm"
)

// EmailService watches one user's inbox and moves their applications when
// a recruiter writes back.
type EmailService struct {
	DB             *gorm.DB
	LLMService     *LLMService
	MatcherService *MatcherService
	JobService     *JobService
	GmailClient    *gmail.Service
	OwnerEmail     string

	cron *cron.Cron
}

func NewEmailService(db *gorm.DB, llm *LLMService, gmail *gmail.Service, matcher *MatcherService, jobs *JobService, ownerEmail string) *EmailService {
	return &EmailService{
		DB:             db,
		LLMService:     llm,
		GmailClient:    gmail,
		MatcherService: matcher,
		JobService:     jobs,
		OwnerEmail:     ownerEmail,
	}
}

// Start schedules SyncEmails and runs one cycle immediately.
func (s *EmailService) Start(schedule string) error {
	if s.GmailClient == nil || s.LLMService == nil || s.OwnerEmail == "" {
		log.Println("⚠️ Gmail Watcher disabled (needs Gmail client, LLM and INBOX_OWNER_EMAIL).")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(schedule, s.SyncEmails); err != nil {
		return fmt.Errorf("invalid inbox schedule %q: %w", schedule, err)
	}

	go s.SyncEmails()
	s.cron.Start()
	log.Printf("📧 Gmail Watcher scheduled (%s) for %s", schedule, s.OwnerEmail)
	return nil
}

// Stop waits for a running sync to finish.
func (s *EmailService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// SyncEmails is the main orchestrator
func (s *EmailService) SyncEmails() {
	// Prevent hanging forever
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Println("📧 Email Watcher: Starting Sync Cycle...")

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", s.OwnerEmail).First(&user).Error; err != nil {
		log.Printf("❌ Sync skipped: inbox owner %s not found: %v", s.OwnerEmail, err)
		return
	}

	var (
		messages     []*gmail.Message
		newHistoryID uint64
		err          error
	)

	// Bootstrap (full) or incremental
	if user.LastHistoryID == 0 {
		log.Println("🆕 First run detected. Running Full Bootstrap Sync...")
		messages, newHistoryID, err = s.performFullSync(ctx)
	} else {
		messages, newHistoryID, err = s.performIncrementalSync(ctx, user.LastHistoryID)
		// Google deletes old history
		if err != nil && isHistoryExpiredError(err) {
			log.Println("⚠️ History ID expired (too old). Falling back to Full Sync.")
			messages, newHistoryID, err = s.performFullSync(ctx)
		}
	}
	if err != nil {
		log.Printf("❌ Sync failed: %v", err)
		return
	}

	if len(messages) == 0 {
		log.Println("✅ No new relevant emails found.")
	} else {
		log.Printf("📥 Processing %d candidate emails...", len(messages))
	}

	for _, msg := range messages {
		if err := s.handleMessage(ctx, user.ID, msg); err != nil {
			log.Printf("⚠️ Email %s left for the next cycle: %v", msg.Id, err)
		}
	}

	// Update the bookmark even when empty so this window isn't checked again
	if newHistoryID > user.LastHistoryID {
		s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("last_history_id", newHistoryID)
		log.Printf("🔖 History updated to %d", newHistoryID)
	}
}

// performFullSync scans the last 7 days and resets the History ID (Bootstrap)
func (s *EmailService) performFullSync(ctx context.Context) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListMessagesResponse

	q := "subject:(application OR interview OR update OR offer OR rejected OR status) newer_than:7d"

	err := retry(ctx, 3, 1*time.Second, func() error {
		var e error
		resp, e = s.GmailClient.Users.Messages.List("me").Q(q).MaxResults(50).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	// current History ID is the new anchor
	profile, err := s.GmailClient.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, 0, err
	}

	return s.expandMessages(ctx, resp.Messages), profile.HistoryId, nil
}

// performIncrementalSync asks Google ONLY for what changed since startID
func (s *EmailService) performIncrementalSync(ctx context.Context, startID uint64) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListHistoryResponse

	err := retry(ctx, 3, 1*time.Second, func() error {
		var e error
		// only added messages, not label changes
		resp, e = s.GmailClient.Users.History.List("me").StartHistoryId(startID).HistoryTypes("messageAdded").Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	var msgHeaders []*gmail.Message
	for _, h := range resp.History {
		for _, added := range h.MessagesAdded {
			if added.Message != nil {
				msgHeaders = append(msgHeaders, added.Message)
			}
		}
	}

	return s.expandMessages(ctx, msgHeaders), resp.HistoryId, nil
}

// expandMessages takes a list of IDs and fetches the full body/headers
func (s *EmailService) expandMessages(ctx context.Context, headers []*gmail.Message) []*gmail.Message {
	var fullMessages []*gmail.Message
	for _, h := range headers {
		_ = retry(ctx, 2, 500*time.Millisecond, func() error {
			msg, err := s.GmailClient.Users.Messages.Get("me", h.Id).Context(ctx).Do()
			if err == nil {
				fullMessages = append(fullMessages, msg)
			}
			return err
		})
	}
	return fullMessages
}

// handleMessage processes msg once. A message is recorded as processed only
// after it was applied or deliberately skipped, so transient failures retry.
func (s *EmailService) handleMessage(ctx context.Context, userID string, msg *gmail.Message) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.ProcessedEmail{}).Where("id = ?", msg.Id).Count(&count).Error; err != nil {
		return fmt.Errorf("dedup lookup: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := s.processSingleEmail(ctx, userID, msg); err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Create(&models.ProcessedEmail{ID: msg.Id}).Error; err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// processSingleEmail: matching -> LLM -> DB. Skips return nil.
func (s *EmailService) processSingleEmail(ctx context.Context, userID string, msg *gmail.Message) error {
	headers := parseHeaders(msg)
	subject := headers["Subject"]
	sender := headers["From"]

	shortSub := subject
	if len(shortSub) > 20 {
		shortSub = shortSub[:20] + "..."
	}
	logPrefix := fmt.Sprintf("[Email: %s]", shortSub)
	log.Printf("%s 📥 START processing from: %s", logPrefix, sender)

	body := getEmailBody(msg)

	jobs, err := s.MatcherService.FindJobsFromEmail(ctx, userID, subject, sender)
	if err != nil {
		return fmt.Errorf("job lookup: %w", err)
	}
	if len(jobs) == 0 {
		log.Printf("%s ❌ SKIPPED: no active job matches sender/subject.", logPrefix)
		return nil
	}

	var target *models.JobApplication
	if len(jobs) == 1 {
		target = &jobs[0]
		log.Printf("%s 🎯 Auto-linked to single active job: %s", logPrefix, target.Title)
	} else {
		titles := make([]string, 0, len(jobs))
		for _, j := range jobs {
			titles = append(titles, j.Title+" at "+j.Company)
		}
		log.Printf("%s ⚠️ Ambiguous: Found %d jobs (%v). Asking LLM to pick...", logPrefix, len(jobs), titles)
		idx := s.LLMService.IdentifyJobRole(ctx, titles, subject, body)
		if idx == -1 {
			log.Printf("%s ❌ SKIPPED: LLM could not determine which job this email is about.", logPrefix)
			return nil
		}
		target = &jobs[idx]
		log.Printf("%s 🎯 LLM selected job: %s", logPrefix, target.Title)
	}

	log.Printf("%s 🤖 Analyzing content with LLM...", logPrefix)
	result, err := s.LLMService.AnalyzeEmailStatus(ctx, target.Company, subject, body)
	if err != nil {
		return fmt.Errorf("analyze email: %w", err)
	}
	log.Printf("%s 🧠 LLM Decision: Status=%s | Summary=%s", logPrefix, result.Status, result.Summary)

	status, ok := statusFromAnalysis(result.Status)
	if !ok {
		log.Printf("%s ⏹️  No DB Update needed (Status is %s).", logPrefix, result.Status)
		return nil
	}
	if status == target.Status {
		log.Printf("%s ⏹️  Status is already %s. Ignoring.", logPrefix, status)
		return nil
	}

	log.Printf("%s ⚡ UPDATING DB: %s -> %s", logPrefix, target.Status, status)
	if err := s.JobService.ApplyEmailUpdate(ctx, target, status, result.Summary); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}
	log.Printf("%s ✅ Success! Event logged.", logPrefix)
	return nil
}

func statusFromAnalysis(s string) (models.ApplicationStatus, bool) {
	switch s {
	case "INTERVIEWING":
		return models.StatusInterviewing, true
	case "REJECTED":
		return models.StatusRejected, true
	case "OFFER":
		return models.StatusOffer, true
	default:
		return "", false
	}
}

// --- HELPERS ---

// retry executes a function with exponential backoff
func retry(ctx context.Context, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		// fail fast so the caller can switch to Full Sync
		if isHistoryExpiredError(err) {
			return err
		}

		log.Printf("⚠️ API Error: %v. Retrying in %v...", err, sleep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 404
	}
	return false
}

func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[h.Name] = h.Value
	}
	return res
}

func getEmailBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		d, _ := base64.URLEncoding.DecodeString(msg.Payload.Body.Data)
		return string(d)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		for _, part := range msg.Payload.Parts {
			if part.MimeType == mime && part.Body != nil && part.Body.Data != "" {
				d, _ := base64.URLEncoding.DecodeString(part.Body.Data)
				return string(d)
			}
		}
	}
	return ""
}
