package services

import (
	"math"
	"time"

	"github.com/justsurfingit/job-tracker/internal/dtos"
	"github.com/justsurfingit/job-tracker/internal/models"
)

// ComputeStats reduces a snapshot of job rows into the popup's counters.
// Every status key is present in ByStatus, zero when unused.
func ComputeStats(jobs []models.JobApplication, now time.Time) dtos.JobStats {
	byStatus := make(map[models.ApplicationStatus]int, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		byStatus[st] = 0
	}
	for _, job := range jobs {
		byStatus[job.Status]++
	}

	total := len(jobs)
	responseRate := 0.0
	if total > 0 {
		responded := byStatus[models.StatusInterviewing] + byStatus[models.StatusOffer]
		responseRate = math.Round(float64(responded)/float64(total)*100) / 100
	}

	var totalDays, respondedCount int
	for _, job := range jobs {
		if job.DateApplied == nil {
			continue
		}
		if job.Status != models.StatusInterviewing && job.Status != models.StatusOffer {
			continue
		}
		// whole days, floored; a future dateApplied counts as negative
		totalDays += int(math.Floor(now.Sub(*job.DateApplied).Hours() / 24))
		respondedCount++
	}

	avg := 0
	if respondedCount > 0 {
		// halves round up, -6.5 becomes -6
		avg = int(math.Floor(float64(totalDays)/float64(respondedCount) + 0.5))
	}

	return dtos.JobStats{
		Total:                 total,
		ByStatus:              byStatus,
		ResponseRate:          responseRate,
		AverageTimeToResponse: avg,
	}
}
