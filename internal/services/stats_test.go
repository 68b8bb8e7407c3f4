package services

import (
	"testing"
	"time"

	"github.com/justsurfingit/job-tracker/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil, time.Now())

	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0.0, stats.ResponseRate)
	assert.Equal(t, 0, stats.AverageTimeToResponse)
	assert.Len(t, stats.ByStatus, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		assert.Equal(t, 0, stats.ByStatus[st])
	}
}

func TestComputeStats_NoResponses(t *testing.T) {
	applied := time.Now().Add(-72 * time.Hour)
	jobs := []models.JobApplication{
		{Status: models.StatusSaved},
		{Status: models.StatusApplied, DateApplied: &applied},
		{Status: models.StatusRejected, DateApplied: &applied},
	}

	stats := ComputeStats(jobs, time.Now())

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 0.0, stats.ResponseRate)
	assert.Equal(t, 0, stats.AverageTimeToResponse)
	assert.Equal(t, 1, stats.ByStatus[models.StatusApplied])
}

func TestComputeStats_ResponseRate(t *testing.T) {
	jobs := []models.JobApplication{
		{Status: models.StatusApplied},
		{Status: models.StatusInterviewing},
		{Status: models.StatusOffer},
		{Status: models.StatusRejected},
	}

	stats := ComputeStats(jobs, time.Now())

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 0.5, stats.ResponseRate)
	assert.Equal(t, 1, stats.ByStatus[models.StatusInterviewing])
	assert.Equal(t, 1, stats.ByStatus[models.StatusOffer])
	// no dateApplied anywhere
	assert.Equal(t, 0, stats.AverageTimeToResponse)
}

func TestComputeStats_RoundsRateToTwoDecimals(t *testing.T) {
	jobs := []models.JobApplication{
		{Status: models.StatusInterviewing},
		{Status: models.StatusApplied},
		{Status: models.StatusApplied},
	}

	stats := ComputeStats(jobs, time.Now())

	assert.Equal(t, 0.33, stats.ResponseRate)
}

func TestComputeStats_AverageTimeToResponse(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	tenDays := now.Add(-10*24*time.Hour - 5*time.Hour)
	threeDays := now.Add(-3 * 24 * time.Hour)
	ignored := now.Add(-40 * 24 * time.Hour)

	jobs := []models.JobApplication{
		{Status: models.StatusInterviewing, DateApplied: &tenDays},
		{Status: models.StatusOffer, DateApplied: &threeDays},
		{Status: models.StatusRejected, DateApplied: &ignored},
		{Status: models.StatusOffer},
	}

	stats := ComputeStats(jobs, now)

	// (10 + 3) / 2 = 6.5, rounded
	assert.Equal(t, 7, stats.AverageTimeToResponse)
	assert.Equal(t, 0.75, stats.ResponseRate)
}

func TestComputeStats_FutureDateAppliedFloors(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	tomorrowish := now.Add(12 * time.Hour)

	stats := ComputeStats([]models.JobApplication{
		{Status: models.StatusInterviewing, DateApplied: &tomorrowish},
	}, now)

	assert.Equal(t, -1, stats.AverageTimeToResponse)
}

func TestComputeStats_NegativeHalfRoundsUp(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	sixDaysAhead := now.Add(6 * 24 * time.Hour)
	sevenDaysAhead := now.Add(7 * 24 * time.Hour)

	stats := ComputeStats([]models.JobApplication{
		{Status: models.StatusInterviewing, DateApplied: &sixDaysAhead},
		{Status: models.StatusOffer, DateApplied: &sevenDaysAhead},
	}, now)

	// (-6 + -7) / 2 = -6.5
	assert.Equal(t, -6, stats.AverageTimeToResponse)
}
