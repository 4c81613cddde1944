// Feedback HTTP handlers.
//
// This file exposes the REST endpoint for submitting feedback on generated
// insights:
//   - POST /insights/{id}/feedback  (create feedback)
//
// Handlers in this file are transport-thin: they validate input, delegate to
// application services, and translate domain/service errors into HTTP results.
// Feedback values are constrained to {-1, +1} to represent negative/positive
// reactions respectively.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-insight-backend/internal/services"
)

// LeaveFeedbackRequest is the JSON payload for creating feedback on an insight.
//
// Value must be one of:
//   - +1 : positive feedback
//   - -1 : negative feedback
//
// The binding tag enforces the domain constraint at the transport layer.
type LeaveFeedbackRequest struct {
	// Value is the feedback signal: +1 (positive) or -1 (negative).
	Value   int     `json:"value" binding:"required,oneof=-1 1"`
	Comment *string `json:"comment,omitempty"`
}

// LeaveFeedback records positive (+1) or negative (-1) feedback for a
// generated insight owned by the current user.
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	var req LeaveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		return
	}

	uid := userID(c)
	insightID := c.Param("id")

	if err := h.fbSvc.Leave(c.Request.Context(), uid, insightID, req.Value); err != nil {
		switch err {
		case services.ErrInsightNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "insight not found")
		case services.ErrInvalidFeedback:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		case services.ErrDuplicateFeedback:
			fail(c, http.StatusConflict, ErrCodeConflict, "feedback already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	noContent(c)
}
