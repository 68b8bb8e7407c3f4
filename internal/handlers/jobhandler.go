package handlers

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-tracker/internal/dtos"
	"github.com/justsurfingit/job-tracker/internal/extract"
	"github.com/justsurfingit/job-tracker/internal/middleware"
	"github.com/justsurfingit/job-tracker/internal/services"
)

// PageFetcher downloads a posting for server-side extraction.
type PageFetcher interface {
	FetchHTML(ctx context.Context, rawURL string) ([]byte, error)
}

// FallbackExtractor handles pages no site extractor recognises.
type FallbackExtractor interface {
	ExtractJobDetails(ctx context.Context, rawHTML, pageURL string) (*extract.JobDetails, error)
}

type JobHandler struct {
	JobService *services.JobService
	Fetcher    PageFetcher
	// nil when no LLM is configured
	Fallback FallbackExtractor
	Now      func() time.Time
}

// NewJobHandler creates the handler with dependencies
func NewJobHandler(j *services.JobService, fetcher PageFetcher, fallback FallbackExtractor) *JobHandler {
	return &JobHandler{
		JobService: j,
		Fetcher:    fetcher,
		Fallback:   fallback,
		Now:        time.Now,
	}
}

// ParseJob is the POST /jobs/extract endpoint. The extension normally
// scrapes in the page; this covers pasted links and unknown boards.
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}

	html := []byte(req.RawHTML)
	if len(html) == 0 {
		if h.Fetcher == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "html is required"})
			return
		}
		fetched, err := h.Fetcher.FetchHTML(c.Request.Context(), req.URL)
		if err != nil {
			// cause is logged, never returned
			log.Printf("❌ Fetch failed for %s: %v", req.URL, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not fetch page"})
			return
		}
		html = fetched
	}

	details, err := extract.ExtractHTML(req.URL, bytes.NewReader(html))
	if err != nil {
		respondInvalid(c, err)
		return
	}
	if details == nil && h.Fallback != nil {
		details, err = h.Fallback.ExtractJobDetails(c.Request.Context(), string(html), req.URL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "AI Extraction failed: " + err.Error()})
			return
		}
	}
	if details == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": "No job posting found on page"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    details,
	})
}

// CreateJob is POST /jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	job, err := h.JobService.CreateJob(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// ListJobs is GET /jobs?status&limit&offset
func (h *JobHandler) ListJobs(c *gin.Context) {
	var q dtos.JobListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInvalid(c, err)
		return
	}
	jobs, err := h.JobService.ListJobs(c.Request.Context(), middleware.UserID(c), &q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob is GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.JobService.GetJob(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// UpdateJob is PUT /jobs/:id
func (h *JobHandler) UpdateJob(c *gin.Context) {
	var req dtos.JobUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	job, err := h.JobService.UpdateJob(c.Request.Context(), middleware.UserID(c), c.Param("id"), &req)
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob is DELETE /jobs/:id
func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := h.JobService.DeleteJob(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		h.respondJobError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats is GET /jobs/stats
func (h *JobHandler) Stats(c *gin.Context) {
	stats, err := h.JobService.Stats(c.Request.Context(), middleware.UserID(c), h.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListEvents is GET /jobs/:id/events
func (h *JobHandler) ListEvents(c *gin.Context) {
	events, err := h.JobService.ListEvents(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.respondJobError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *JobHandler) respondJobError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	_ = c.Error(err)
}

// HealthCheck is GET /health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
