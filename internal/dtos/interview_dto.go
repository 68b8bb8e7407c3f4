package dtos

import (
	"time"

	"github.com/justsurfingit/job-tracker/internal/models"
)

type InterviewCreationRequest struct {
	Date  *time.Time           `json:"date" binding:"required"`
	Type  models.InterviewType `json:"type" binding:"required,oneof=phone video onsite technical"`
	Notes *string              `json:"notes"`
}

type InterviewUpdateRequest struct {
	Date  *time.Time            `json:"date"`
	Type  *models.InterviewType `json:"type" binding:"omitempty,oneof=phone video onsite technical"`
	Notes *string               `json:"notes"`
}
