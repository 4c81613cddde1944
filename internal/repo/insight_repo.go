// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for generated
// insights and their feedback.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// CreateInsight persists a generated insight for userID and returns the
// stored row. The structured payload is serialized as JSON alongside the
// queryable columns.
func CreateInsight(ctx context.Context, db *gorm.DB, userID, query string, payload domain.GeneratedInsight) (*domain.Insight, error) {
	row := &domain.Insight{
		ID:         uuid.NewString(),
		UserID:     userID,
		Query:      query,
		Intent:     payload.Intent.Intent,
		Confidence: payload.ConfidenceScore,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// GetInsight fetches an insight by id, enforcing ownership. Missing records
// yield ErrNotFound.
func GetInsight(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Insight, error) {
	var row domain.Insight
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// CountInsights returns the total number of insights generated for userID.
func CountInsights(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Insight{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListInsightsPage returns a page of insights for userID, most recent first.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListInsightsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Insight, error) {
	var out []domain.Insight
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CreateInsightFeedback inserts a feedback row for the given insight and
// user. The (insight_id, user_id) pair is unique, enforced by the database
// schema; duplicates surface as a DB error for the service layer to
// translate.
func CreateInsightFeedback(ctx context.Context, db *gorm.DB, insightID, userID string, value int) error {
	fb := &domain.InsightFeedback{
		ID:        uuid.NewString(),
		InsightID: insightID,
		UserID:    userID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(fb).Error
}
