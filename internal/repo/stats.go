// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// by the stats endpoint. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// ArchiveStats is a lightweight aggregate view over a user's archive.
type ArchiveStats struct {
	Conversations int64      `json:"conversations"`
	Messages      int64      `json:"messages"`
	Insights      int64      `json:"insights"`
	LastImport    *time.Time `json:"last_import,omitempty"`
}

// GetArchiveStats returns counts and the latest import timestamp for the
// user's archive. When the user has no conversations the counts are 0 and
// LastImport is nil.
func GetArchiveStats(ctx context.Context, db *gorm.DB, userID string) (ArchiveStats, error) {
	var s ArchiveStats

	convQ := db.WithContext(ctx).Model(&domain.Conversation{}).Where("user_id = ?", userID)
	if err := convQ.Count(&s.Conversations).Error; err != nil {
		return s, err
	}

	if s.Conversations > 0 {
		// Latest import time (avoid MAX() -> TEXT in SQLite).
		var row struct {
			CreatedAt time.Time
		}
		if err := convQ.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
			return s, err
		}
		s.LastImport = &row.CreatedAt

		err := db.WithContext(ctx).
			Model(&domain.Message{}).
			Joins("JOIN conversations ON conversations.id = messages.conversation_id").
			Where("conversations.user_id = ?", userID).
			Count(&s.Messages).Error
		if err != nil {
			return s, err
		}
	}

	err := db.WithContext(ctx).
		Model(&domain.Insight{}).
		Where("user_id = ?", userID).
		Count(&s.Insights).Error
	return s, err
}
