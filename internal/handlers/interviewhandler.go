package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-tracker/internal/dtos"
	"github.com/justsurfingit/job-tracker/internal/middleware"
	"github.com/justsurfingit/job-tracker/internal/services"
)

type InterviewHandler struct {
	InterviewService *services.InterviewService
}

func NewInterviewHandler(s *services.InterviewService) *InterviewHandler {
	return &InterviewHandler{InterviewService: s}
}

// List is GET /jobs/:id/interviews
func (h *InterviewHandler) List(c *gin.Context) {
	interviews, err := h.InterviewService.List(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondInterviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, interviews)
}

// Create is POST /jobs/:id/interviews
func (h *InterviewHandler) Create(c *gin.Context) {
	var req dtos.InterviewCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	interview, err := h.InterviewService.Create(c.Request.Context(), middleware.UserID(c), c.Param("id"), &req)
	if err != nil {
		respondInterviewError(c, err)
		return
	}
	c.JSON(http.StatusCreated, interview)
}

// Update is PUT /jobs/:id/interviews/:interviewId
func (h *InterviewHandler) Update(c *gin.Context) {
	var req dtos.InterviewUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err)
		return
	}
	interview, err := h.InterviewService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("interviewId"), &req)
	if err != nil {
		respondInterviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, interview)
}

// Delete is DELETE /jobs/:id/interviews/:interviewId
func (h *InterviewHandler) Delete(c *gin.Context) {
	err := h.InterviewService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("interviewId"))
	if err != nil {
		respondInterviewError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondInterviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
	case errors.Is(err, services.ErrInterviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Interview not found"})
	default:
		_ = c.Error(err)
	}
}
