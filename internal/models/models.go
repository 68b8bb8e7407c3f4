package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	StatusSaved        ApplicationStatus = "saved"
	StatusApplied      ApplicationStatus = "applied"
	StatusInterviewing ApplicationStatus = "interviewing"
	StatusRejected     ApplicationStatus = "rejected"
	StatusOffer        ApplicationStatus = "offer"
	StatusAccepted     ApplicationStatus = "accepted"
)

// AllStatuses is ordered the way the popup renders the pipeline.
var AllStatuses = []ApplicationStatus{
	StatusSaved,
	StatusApplied,
	StatusInterviewing,
	StatusRejected,
	StatusOffer,
	StatusAccepted,
}

func (s ApplicationStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal statuses are never moved by the inbox watcher.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusOffer || s == StatusAccepted
}

type InterviewType string

const (
	InterviewPhone     InterviewType = "phone"
	InterviewVideo     InterviewType = "video"
	InterviewOnsite    InterviewType = "onsite"
	InterviewTechnical InterviewType = "technical"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Name         string `gorm:"not null" json:"name"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Gmail history bookmark for the inbox watcher.
	LastHistoryID uint64 `json:"-"`

	Jobs []JobApplication `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type JobApplication struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Foreign Key
	UserID string `gorm:"size:36;index;not null" json:"userId"`

	Title           string            `gorm:"not null" json:"title"`
	Company         string            `gorm:"not null;index" json:"company"`
	Location        *string           `json:"location"`
	Salary          *string           `json:"salary"`
	URL             string            `gorm:"not null" json:"url"`
	Status          ApplicationStatus `gorm:"size:20;not null;default:saved;index" json:"status"`
	DateAdded       time.Time         `gorm:"not null" json:"dateAdded"`
	DateApplied     *time.Time        `json:"dateApplied"`
	Notes           *string           `gorm:"type:text" json:"notes"`
	ResumeVersion   *string           `json:"resumeVersion"`
	CoverLetterUsed *bool             `json:"coverLetterUsed"`

	// Association: only filled when preloaded
	Interviews []Interview `gorm:"constraint:OnDelete:CASCADE" json:"interviews,omitempty"`
	Events     []JobEvent  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

func (j *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.DateAdded.IsZero() {
		j.DateAdded = time.Now().UTC()
	}
	if j.Status == "" {
		j.Status = StatusSaved
	}
	return nil
}

type Interview struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	JobApplicationID string        `gorm:"size:36;index;not null" json:"jobApplicationId"`
	Date             time.Time     `gorm:"not null" json:"date"`
	Type             InterviewType `gorm:"size:20;not null" json:"type"`
	Notes            *string       `gorm:"type:text" json:"notes"`
}

func (i *Interview) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

const (
	EventCreated      = "CREATED"
	EventStatusChange = "STATUS_CHANGE"
	EventEmailUpdate  = "EMAIL_UPDATE"
)

type JobEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	JobID     string    `gorm:"size:36;index;not null" json:"jobId"`
	EventType string    `json:"eventType"`
	Details   string    `gorm:"type:text" json:"details"`
}

type ProcessedEmail struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}
