package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/justsurfingit/job-tracker/internal/models"
)

type MatcherService struct {
	Jobs *JobService
}

func NewMatcherService(jobs *JobService) *MatcherService {
	return &MatcherService{Jobs: jobs}
}

// FindJobsFromEmail returns the user's non-terminal jobs whose company the
// email appears to come from.
func (s *MatcherService) FindJobsFromEmail(ctx context.Context, userID, subject, rawSender string) ([]models.JobApplication, error) {
	jobs, err := s.Jobs.ActiveJobsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return MatchJobs(jobs, subject, rawSender), nil
}

// MatchJobs filters jobs by company name against the subject line, the
// sender display name and the sender domain.
func MatchJobs(jobs []models.JobApplication, subject, rawSender string) []models.JobApplication {
	// "Stripe Recruiting <jobs@stripe.com>" -> name="stripe recruiting", addr="jobs@stripe.com"
	senderName, senderAddr := "", strings.ToLower(rawSender)
	if parsed, err := mail.ParseAddress(rawSender); err == nil {
		senderName = strings.ToLower(parsed.Name)
		senderAddr = strings.ToLower(parsed.Address)
	}
	domain := ""
	if parts := strings.Split(senderAddr, "@"); len(parts) == 2 {
		domain = parts[1]
	}
	subjectLower := strings.ToLower(subject)

	var matched []models.JobApplication
	for _, job := range jobs {
		company := strings.ToLower(strings.TrimSpace(job.Company))
		// Skip very short names: "X" or "Go" would match everything.
		if len(company) < 3 {
			continue
		}
		switch {
		case strings.Contains(subjectLower, company):
		case senderName != "" && strings.Contains(senderName, company):
		case domain != "" && strings.Contains(domain, strings.ReplaceAll(company, " ", "")):
		default:
			continue
		}
		matched = append(matched, job)
	}
	return matched
}
