// Package services – InsightService
//
// This file implements InsightService, the application-level component that
// answers growth questions: classify the query, retrieve supporting
// conversations, run the analysis, synthesize the narrative insight, and
// persist the result.
//
// Failure design (mirrors the error taxonomy of the pipeline):
//   - embedding backend unavailable → the fixed empty insight, not an error;
//   - zero matches → the fixed empty insight;
//   - any internal failure (including panics from unexpected data shapes) →
//     the fixed error insight with confidence 0. The caller always receives
//     a well-formed insight; a failing query never takes the service down.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/insight"
	"github.com/tbourn/go-insight-backend/internal/intent"
	"github.com/tbourn/go-insight-backend/internal/repo"
	"github.com/tbourn/go-insight-backend/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InsightService answers natural-language growth questions over the archive.
type InsightService struct {
	DB     *gorm.DB
	Search *search.Orchestrator

	// MaxQueryRunes caps accepted question length (0 disables the check).
	MaxQueryRunes int
	// ResultLimit is the number of conversations retrieved per question.
	ResultLimit int
	// MinScore is the similarity floor for retrieval.
	MinScore float64
}

// Ask processes one question start to finish and returns the generated
// insight. Each call is stateless: nothing is carried between queries except
// the persisted rows.
//
// Validation errors (empty/too long) are returned as sentinel errors for the
// handler to map to 4xx. Everything past validation follows the degraded-
// mode rules above and always yields an insight.
func (s *InsightService) Ask(ctx context.Context, userID, query string) (gi domain.GeneratedInsight, insightID string, err error) {
	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "Ask",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.GeneratedInsight{}, "", ErrEmptyQuery
	}
	if s.MaxQueryRunes > 0 && utf8.RuneCountInString(query) > s.MaxQueryRunes {
		return domain.GeneratedInsight{}, "", ErrQueryTooLong
	}

	// Unexpected data shapes anywhere below become the fixed error insight.
	defer func() {
		if r := recover(); r != nil {
			gi = insight.ErrorInsight(query)
			insightID = ""
			err = nil
		}
	}()

	qi := intent.Classify(query)
	span.SetAttributes(attribute.String("query.intent", qi.Intent))

	gi = s.generate(ctx, qi, userID)

	// Persist best-effort: a failed write must not cost the caller the
	// already-generated insight.
	if row, perr := repo.CreateInsight(ctx, s.DB, userID, query, gi); perr == nil {
		insightID = row.ID
	}
	return gi, insightID, nil
}

// generate runs retrieval, analysis, and synthesis for a classified query.
func (s *InsightService) generate(ctx context.Context, qi domain.QueryIntent, userID string) domain.GeneratedInsight {
	limit := s.ResultLimit
	if limit <= 0 {
		limit = 10
	}

	convs, err := repo.ListConversations(ctx, s.DB, userID)
	if err != nil {
		return insight.ErrorInsight(qi.RawQuery)
	}
	if len(convs) == 0 {
		return insight.EmptyInsight(qi)
	}

	results, err := s.Search.Search(ctx, qi, convs, limit, s.MinScore)
	if err != nil {
		// Unavailable backend and genuine retrieval failure are distinct
		// error values upstream, but both degrade to the low-confidence
		// empty insight here: the user asked a question, not for a stack
		// trace.
		return insight.EmptyInsight(qi)
	}
	if len(results) == 0 {
		return insight.EmptyInsight(qi)
	}

	analysis := insight.Analyze(results)
	return insight.Synthesize(qi, analysis, results)
}

// ListPage returns a page of previously generated insights for a user, most
// recent first, applying defaults for invalid page/pageSize.
func (s *InsightService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Insight, int64, error) {
	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountInsights(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Insight{}, 0, nil
	}

	items, err := repo.ListInsightsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}
