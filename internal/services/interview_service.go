package services

import (
	"context"
	"errors"

	"github.com/justsurfingit/job-tracker/internal/dtos"
	"github.com/justsurfingit/job-tracker/internal/models"
	"gorm.io/gorm"
)

// ErrInterviewNotFound is returned when the job is owned by the caller but
// the interview does not belong to it.
var ErrInterviewNotFound = errors.New("interview not found")

// InterviewService scopes every operation through the owning job first, so
// a foreign job id fails before any interview row is touched.
type InterviewService struct {
	DB *gorm.DB
}

func NewInterviewService(db *gorm.DB) *InterviewService {
	return &InterviewService{DB: db}
}

func (s *InterviewService) List(ctx context.Context, userID, jobID string) ([]models.Interview, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findOwnedJob(db, userID, jobID); err != nil {
		return nil, err
	}
	interviews := []models.Interview{}
	err := db.Where("job_application_id = ?", jobID).Order("date ASC").Find(&interviews).Error
	return interviews, err
}

func (s *InterviewService) Create(ctx context.Context, userID, jobID string, req *dtos.InterviewCreationRequest) (*models.Interview, error) {
	db := s.DB.WithContext(ctx)
	if _, err := findOwnedJob(db, userID, jobID); err != nil {
		return nil, err
	}
	interview := &models.Interview{
		JobApplicationID: jobID,
		Date:             req.Date.UTC(),
		Type:             req.Type,
		Notes:            req.Notes,
	}
	if err := db.Create(interview).Error; err != nil {
		return nil, err
	}
	return interview, nil
}

func (s *InterviewService) Update(ctx context.Context, userID, jobID, interviewID string, req *dtos.InterviewUpdateRequest) (*models.Interview, error) {
	var interview *models.Interview
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedJob(tx, userID, jobID); err != nil {
			return err
		}
		found, err := findInterview(tx, jobID, interviewID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if req.Date != nil {
			updates["date"] = req.Date.UTC()
		}
		if req.Type != nil {
			updates["type"] = *req.Type
		}
		setString(updates, "notes", req.Notes)
		if len(updates) > 0 {
			if err := tx.Model(found).Updates(updates).Error; err != nil {
				return err
			}
		}
		interview, err = findInterview(tx, jobID, interviewID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return interview, nil
}

func (s *InterviewService) Delete(ctx context.Context, userID, jobID, interviewID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findOwnedJob(tx, userID, jobID); err != nil {
			return err
		}
		res := tx.Where("id = ? AND job_application_id = ?", interviewID, jobID).Delete(&models.Interview{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInterviewNotFound
		}
		return nil
	})
}

func findInterview(tx *gorm.DB, jobID, interviewID string) (*models.Interview, error) {
	var interview models.Interview
	err := tx.Where("id = ? AND job_application_id = ?", interviewID, jobID).First(&interview).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return &interview, nil
}
