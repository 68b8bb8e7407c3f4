package dtos

import (
	"time"

	"github.com/justsurfingit/job-tracker/internal/models"
)

type JobExtractionRequest struct {
	URL     string `json:"url" binding:"required,url"`
	RawHTML string `json:"html"`
}

type JobCreationRequest struct {
	Title   string `json:"title" binding:"required,min=1"`
	Company string `json:"company" binding:"required,min=1"`
	URL     string `json:"url" binding:"required,url"`

	// Optional Fields
	Location *string                   `json:"location"`
	Salary   *string                   `json:"salary"`
	Status   *models.ApplicationStatus `json:"status" binding:"omitempty,oneof=saved applied interviewing rejected offer accepted"` // Defaults to "saved" if empty
	Notes    *string                   `json:"notes"`
}

// JobUpdateRequest carries only the fields the caller sent; nil means untouched.
type JobUpdateRequest struct {
	Title           *string                   `json:"title" binding:"omitnil,min=1"`
	Company         *string                   `json:"company" binding:"omitnil,min=1"`
	Location        *string                   `json:"location"`
	Salary          *string                   `json:"salary"`
	URL             *string                   `json:"url" binding:"omitnil,url"`
	Status          *models.ApplicationStatus `json:"status" binding:"omitempty,oneof=saved applied interviewing rejected offer accepted"`
	DateApplied     *time.Time                `json:"dateApplied"`
	Notes           *string                   `json:"notes"`
	ResumeVersion   *string                   `json:"resumeVersion"`
	CoverLetterUsed *bool                     `json:"coverLetterUsed"`
}

type JobListQuery struct {
	Status *models.ApplicationStatus `form:"status" binding:"omitempty,oneof=saved applied interviewing rejected offer accepted"`
	Limit  *int                      `form:"limit" binding:"omitempty,min=0"`
	Offset *int                      `form:"offset" binding:"omitempty,min=0"`
}

type JobStats struct {
	Total                 int                              `json:"total"`
	ByStatus              map[models.ApplicationStatus]int `json:"byStatus"`
	ResponseRate          float64                          `json:"responseRate"`
	AverageTimeToResponse int                              `json:"averageTimeToResponse"`
}
