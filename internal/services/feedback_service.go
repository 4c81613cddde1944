// Package services – FeedbackService
//
// This file implements the FeedbackService, which governs how users rate
// generated insights (-1 or +1). It enforces business rules (insight
// existence, ownership, uniqueness) and persists feedback atomically.
// Service-level errors (ErrInvalidFeedback, ErrInsightNotFound,
// ErrDuplicateFeedback) are returned for predictable cases so handlers can
// map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/repo"
)

// FeedbackService implements the use-cases around insight feedback.
type FeedbackService struct {
	// DB is the database handle used for all feedback operations.
	DB *gorm.DB
}

// Leave records a feedback value for insightID on behalf of userID.
//
// Semantics and validation:
//   - value must be exactly -1 or 1; otherwise ErrInvalidFeedback.
//   - insightID must exist and belong to userID; otherwise ErrInsightNotFound.
//   - A user may rate an insight at most once; a second attempt yields
//     ErrDuplicateFeedback.
//
// The existence check and the insert run in one transaction so they are
// atomic with respect to concurrent deletes.
func (s *FeedbackService) Leave(ctx context.Context, userID, insightID string, value int) error {
	if value != -1 && value != 1 {
		return ErrInvalidFeedback
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetInsight(ctx, tx, insightID, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrInsightNotFound
			}
			return err
		}

		if err := repo.CreateInsightFeedback(ctx, tx, insightID, userID, value); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
				return ErrDuplicateFeedback
			}
			return err
		}
		return nil
	})
}

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	// SQLite: "UNIQUE constraint failed"; Postgres: "duplicate key value
	// violates unique constraint".
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
