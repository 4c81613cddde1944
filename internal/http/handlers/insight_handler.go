// Insight HTTP handlers.
//
// This file exposes REST endpoints for generated insights:
//   - POST /insights/ask  (ask a question, get a synthesized insight)
//   - GET  /insights      (list previously generated insights, paginated)
//
// Handlers are transport-thin: they validate and normalize input, delegate to
// application services (InsightService), and translate results into HTTP
// responses. The ask endpoint can render the insight as plain text when the
// client sends Accept: text/plain; the default is the full JSON structure.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/http/middleware"
	"github.com/tbourn/go-insight-backend/internal/insight"
	"github.com/tbourn/go-insight-backend/internal/services"
	"github.com/tbourn/go-insight-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// InsightQueryService defines the question-answering operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type InsightQueryService interface {
	// Ask answers a natural-language question over the user's archive and
	// returns the generated insight plus the id of the persisted record
	// (empty when persistence failed).
	Ask(ctx context.Context, userID, query string) (domain.GeneratedInsight, string, error)
	// ListPage returns a page of previously generated insights and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Insight, int64, error)
}

// ArchiveImportService defines the archive write-side operations consumed by
// HTTP handlers.
type ArchiveImportService interface {
	// Import parses and stores a chat-export payload, then rebuilds the index.
	Import(ctx context.Context, userID string, payload []byte) (*services.ImportReport, error)
}

// InsightFeedbackService defines operations to capture user feedback on
// generated insights.
type InsightFeedbackService interface {
	// Leave submits a feedback value (-1 or 1) for insightID by userID.
	Leave(ctx context.Context, userID, insightID string, value int) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for archives, insights, and feedback.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	insightSvc InsightQueryService
	archiveSvc ArchiveImportService
	fbSvc      InsightFeedbackService
	stats      StatsFunc
}

// StatsFunc computes archive statistics for a user. Injected as a function so
// handlers stay decoupled from the persistence layer.
type StatsFunc func(ctx context.Context, userID string) (any, error)

// New constructs and returns a Handlers instance bound to the given services.
func New(insightSvc InsightQueryService, archiveSvc ArchiveImportService, fbSvc InsightFeedbackService, stats StatsFunc) *Handlers {
	return &Handlers{insightSvc: insightSvc, archiveSvc: archiveSvc, fbSvc: fbSvc, stats: stats}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// AskInsightRequest is the JSON payload for asking a question over the archive.
type AskInsightRequest struct {
	// Query is the natural-language question. It must be non-empty.
	Query string `json:"query" binding:"required,min=1"`
}

// AskInsightResponse is the JSON envelope for a generated insight.
type AskInsightResponse struct {
	// ID is the persisted insight record id; empty when persistence failed.
	ID string `json:"id,omitempty"`
	// Insight is the full structured result.
	Insight domain.GeneratedInsight `json:"insight"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListInsightsResponse wraps a page of insights and pagination information.
type ListInsightsResponse struct {
	Insights   []domain.Insight `json:"insights"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// wantsPlainText reports whether the client asked for a text rendering of the
// insight rather than the JSON structure.
func wantsPlainText(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/plain")
}

//
// Handlers
//

// AskInsight answers a question over the user's conversation archive.
//
// The service layer guarantees a well-formed insight for every accepted query;
// only validation failures (empty or oversized query) surface as 4xx here.
func (h *Handlers) AskInsight(c *gin.Context) {
	var req AskInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query required")
		return
	}

	gi, id, err := h.insightSvc.Ask(c.Request.Context(), userID(c), req.Query)
	if err != nil {
		switch err {
		case services.ErrEmptyQuery:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query required")
		case services.ErrQueryTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "query too long")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInsightFailed, err.Error())
		}
		return
	}

	middleware.ObserveInsight(gi.Intent.Intent, gi.ConfidenceScore)

	if wantsPlainText(c) {
		c.String(http.StatusOK, insight.Render(gi))
		return
	}
	ok(c, http.StatusOK, AskInsightResponse{ID: id, Insight: gi})
}

// ListInsights returns a page of the user's previously generated insights,
// most recent first.
func (h *Handlers) ListInsights(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	items, total, err := h.insightSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListInsightsResponse{
		Insights: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetStats returns aggregate statistics for the user's archive.
func (h *Handlers) GetStats(c *gin.Context) {
	if h.stats == nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, "stats unavailable")
		return
	}
	s, err := h.stats(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, fmt.Sprintf("stats query failed: %v", err))
		return
	}
	ok(c, http.StatusOK, s)
}
