package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justsurfingit/job-tracker/internal/dtos"
	"github.com/justsurfingit/job-tracker/internal/models"
	"gorm.io/gorm"
)

type JobService struct {
	DB *gorm.DB
}

func NewJobService(db *gorm.DB) *JobService {
	return &JobService{
		DB: db,
	}
}

func (s *JobService) CreateJob(ctx context.Context, userID string, req *dtos.JobCreationRequest) (*models.JobApplication, error) {
	job := &models.JobApplication{
		UserID:   userID,
		Title:    req.Title,
		Company:  req.Company,
		Location: req.Location,
		Salary:   req.Salary,
		URL:      req.URL,
		Status:   models.StatusSaved,
		Notes:    req.Notes,
	}
	if req.Status != nil {
		job.Status = *req.Status
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		return tx.Create(&models.JobEvent{
			JobID:     job.ID,
			EventType: models.EventCreated,
			Details:   fmt.Sprintf("Saved %s at %s as %s", job.Title, job.Company, job.Status),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// ListJobs returns the user's jobs, newest first, with interviews in date order.
func (s *JobService) ListJobs(ctx context.Context, userID string, q *dtos.JobListQuery) ([]models.JobApplication, error) {
	query := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Interviews", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Order("date_added DESC")

	if q != nil {
		if q.Status != nil {
			query = query.Where("status = ?", *q.Status)
		}
		if q.Limit != nil {
			query = query.Limit(*q.Limit)
		}
		if q.Offset != nil {
			query = query.Offset(*q.Offset)
		}
	}

	jobs := []models.JobApplication{}
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *JobService) GetJob(ctx context.Context, userID, jobID string) (*models.JobApplication, error) {
	var job models.JobApplication
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", jobID, userID).
		Preload("Interviews", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobService) UpdateJob(ctx context.Context, userID, jobID string, req *dtos.JobUpdateRequest) (*models.JobApplication, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := findOwnedJob(tx, userID, jobID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		setString(updates, "title", req.Title)
		setString(updates, "company", req.Company)
		setString(updates, "location", req.Location)
		setString(updates, "salary", req.Salary)
		setString(updates, "url", req.URL)
		setString(updates, "notes", req.Notes)
		setString(updates, "resume_version", req.ResumeVersion)
		if req.CoverLetterUsed != nil {
			updates["cover_letter_used"] = *req.CoverLetterUsed
		}
		if req.DateApplied != nil {
			updates["date_applied"] = req.DateApplied.UTC()
		}

		if req.Status != nil && *req.Status != job.Status {
			updates["status"] = *req.Status
			if *req.Status == models.StatusApplied && job.DateApplied == nil && req.DateApplied == nil {
				updates["date_applied"] = time.Now().UTC()
			}
			event := models.JobEvent{
				JobID:     job.ID,
				EventType: models.EventStatusChange,
				Details:   fmt.Sprintf("Status changed from %s to %s", job.Status, *req.Status),
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(job).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetJob(ctx, userID, jobID)
}

// DeleteJob removes the job; its interviews and events go with it through
// the foreign key cascade.
func (s *JobService) DeleteJob(ctx context.Context, userID, jobID string) error {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", jobID, userID).
		Delete(&models.JobApplication{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *JobService) ListEvents(ctx context.Context, userID, jobID string) ([]models.JobEvent, error) {
	if _, err := findOwnedJob(s.DB.WithContext(ctx), userID, jobID); err != nil {
		return nil, err
	}
	events := []models.JobEvent{}
	err := s.DB.WithContext(ctx).Where("job_id = ?", jobID).Order("created_at ASC, id ASC").Find(&events).Error
	return events, err
}

// Stats recomputes the user's summary counters from a snapshot of their rows.
func (s *JobService) Stats(ctx context.Context, userID string, now time.Time) (*dtos.JobStats, error) {
	var jobs []models.JobApplication
	err := s.DB.WithContext(ctx).
		Select("status", "date_added", "date_applied").
		Where("user_id = ?", userID).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(jobs, now)
	return &stats, nil
}

// ApplyEmailUpdate moves a job to a status inferred from a recruiter email.
func (s *JobService) ApplyEmailUpdate(ctx context.Context, job *models.JobApplication, status models.ApplicationStatus, summary string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(job).Updates(map[string]interface{}{"status": status}).Error; err != nil {
			return err
		}
		return tx.Create(&models.JobEvent{
			JobID:     job.ID,
			EventType: models.EventEmailUpdate,
			Details:   fmt.Sprintf("Status changed to %s. Summary: %s", status, summary),
		}).Error
	})
}

// ActiveJobsForUser lists the jobs the inbox watcher may still move.
func (s *JobService) ActiveJobsForUser(ctx context.Context, userID string) ([]models.JobApplication, error) {
	var jobs []models.JobApplication
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND status NOT IN ?", userID, []models.ApplicationStatus{models.StatusRejected, models.StatusOffer, models.StatusAccepted}).
		Find(&jobs).Error
	return jobs, err
}

func findOwnedJob(tx *gorm.DB, userID, jobID string) (*models.JobApplication, error) {
	var job models.JobApplication
	err := tx.Where("id = ? AND user_id = ?", jobID, userID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func setString(updates map[string]interface{}, column string, value *string) {
	if value != nil {
		updates[column] = *value
	}
}
