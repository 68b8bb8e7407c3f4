// Package relay holds the user's session and forwards scraped postings to
// the backend on their behalf.
package relay

import (
	"context"
	"fmt"
	"log"

	"github.com/justsurfingit/job-tracker/internal/dtos"
	"github.com/justsurfingit/job-tracker/internal/extract"
	"github.com/justsurfingit/job-tracker/internal/models"
)

const (
	ActionSaveJob    = "saveJob"
	ActionCheckAuth  = "checkAuth"
	ActionExtractJob = "extractJob"
)

const (
	defaultTitle   = "Unknown Title"
	defaultCompany = "Unknown Company"
)

type Message struct {
	Action string              `json:"action"`
	Data   *extract.JobDetails `json:"data,omitempty"`
	URL    string              `json:"url,omitempty"`
}

type Response struct {
	Success       bool                   `json:"success"`
	Error         string                 `json:"error,omitempty"`
	RequiresAuth  bool                   `json:"requiresAuth,omitempty"`
	Authenticated bool                   `json:"authenticated"`
	User          *models.User           `json:"user,omitempty"`
	Job           *models.JobApplication `json:"job,omitempty"`
	Details       *extract.JobDetails    `json:"details,omitempty"`
}

// Notifier surfaces a user-visible message after a save.
type Notifier interface {
	Notify(title, message string)
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(title, message string) {
	log.Printf("🔔 %s %s", title, message)
}

// Backend is the subset of the API the relay calls.
type Backend interface {
	Me(ctx context.Context, token string) (*models.User, error)
	CreateJob(ctx context.Context, token string, req *dtos.JobCreationRequest) (*models.JobApplication, error)
}

// PageExtractor fetches a posting and extracts its details.
type PageExtractor interface {
	Fetch(ctx context.Context, rawURL string) (*extract.JobDetails, error)
}

type Relay struct {
	Session  *Session
	Backend  Backend
	Fetcher  PageExtractor
	Notifier Notifier
}

func New(session *Session, backend Backend, fetcher PageExtractor, notifier Notifier) *Relay {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Relay{Session: session, Backend: backend, Fetcher: fetcher, Notifier: notifier}
}

// Handle processes one message and always produces a response.
func (r *Relay) Handle(ctx context.Context, msg Message) Response {
	switch msg.Action {
	case ActionSaveJob:
		return r.saveJob(ctx, msg.Data)
	case ActionCheckAuth:
		return r.checkAuth(ctx)
	case ActionExtractJob:
		return r.extractJob(ctx, msg.URL)
	default:
		return Response{Error: "unknown action"}
	}
}

func (r *Relay) saveJob(ctx context.Context, details *extract.JobDetails) Response {
	token := r.Session.Token()
	if token == "" {
		return Response{Error: "Please log in first", RequiresAuth: true}
	}
	if details == nil {
		details = &extract.JobDetails{}
	}

	req := &dtos.JobCreationRequest{
		Title:   orDefault(details.Title, defaultTitle),
		Company: orDefault(details.Company, defaultCompany),
		URL:     details.URL,
	}
	if details.Location != "" {
		req.Location = &details.Location
	}
	if details.Salary != "" {
		req.Salary = &details.Salary
	}

	job, err := r.Backend.CreateJob(ctx, token, req)
	if err != nil {
		log.Printf("❌ Failed to save job: %v", err)
		return Response{Error: err.Error()}
	}
	r.Notifier.Notify("Job Saved!", fmt.Sprintf("%s at %s", job.Title, job.Company))
	return Response{Success: true, Job: job}
}

func (r *Relay) checkAuth(ctx context.Context) Response {
	token := r.Session.Token()
	if token == "" {
		return Response{}
	}
	user, err := r.Backend.Me(ctx, token)
	if err != nil {
		log.Printf("⚠️ Stored token rejected, clearing session: %v", err)
		if cerr := r.Session.Clear(); cerr != nil {
			log.Printf("⚠️ Failed to clear token: %v", cerr)
		}
		return Response{}
	}
	return Response{Success: true, Authenticated: true, User: user}
}

func (r *Relay) extractJob(ctx context.Context, rawURL string) Response {
	if r.Fetcher == nil {
		return Response{Error: "extraction unavailable"}
	}
	details, err := r.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Response{Error: err.Error()}
	}
	return Response{Success: details != nil, Details: details}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
