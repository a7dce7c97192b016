package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/quizrank-api/internal/pkg/errors"
	"github.com/yourusername/quizrank-api/internal/service"
)

// AttemptHandler handles requests around the attempt lifecycle
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler creates a new attempt handler
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
	}
}

// SubmitRequest is the payload for submitting an attempt
type SubmitRequest struct {
	Answers []service.AnswerSubmission `json:"answers" binding:"required,min=1,dive"`
}

// StartQuiz creates a new attempt on the quiz and returns the taking view
func (h *AttemptHandler) StartQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	userID := c.MustGet("user_id").(string)

	view, err := h.attemptService.StartQuiz(userID, quizID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetAttempt returns the taking view of an in-progress attempt
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(string)
	userID := c.MustGet("user_id").(string)

	view, err := h.attemptService.GetAttempt(attemptID, userID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitQuiz grades and finalizes an in-progress attempt
func (h *AttemptHandler) SubmitQuiz(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(string)
	userID := c.MustGet("user_id").(string)
	displayName := c.MustGet("display_name").(string)

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.attemptService.SubmitQuiz(attemptID, userID, displayName, req.Answers)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResults returns the stored result of a submitted attempt
func (h *AttemptHandler) GetResults(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(string)
	userID := c.MustGet("user_id").(string)

	result, err := h.attemptService.GetResults(attemptID, userID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// BrowseQuizzes lists the catalog with the caller's attempt statistics
func (h *AttemptHandler) BrowseQuizzes(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	quizzes, err := h.attemptService.BrowseQuizzes(userID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuizHistory lists the caller's submitted attempts for one quiz
func (h *AttemptHandler) GetQuizHistory(c *gin.Context) {
	quizID := c.MustGet("quizID").(string)
	userID := c.MustGet("user_id").(string)

	history, err := h.attemptService.GetQuizHistory(userID, quizID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": history})
}

// GetMyAttempts lists a page of the caller's submitted attempts across quizzes
func (h *AttemptHandler) GetMyAttempts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	limitStr := c.DefaultQuery("limit", "20")
	offsetStr := c.DefaultQuery("offset", "0")

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 20
	}
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		offset = 0
	}

	history, total, err := h.attemptService.GetMyAttempts(userID, limit, offset)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": history,
		"total":    total,
	})
}

// handleAttemptError maps service errors to HTTP responses. Rejected
// submissions get a deliberately generic message.
func (h *AttemptHandler) handleAttemptError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrAttemptRejected) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attempt cannot be submitted"})
	} else if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in AttemptHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
