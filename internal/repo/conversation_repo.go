// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation aggregate.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only persistence
// and query composition.
//
// Error semantics:
//   - When a conversation is not found, functions return ErrNotFound
//     (aliasing gorm.ErrRecordNotFound).
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for convenience and consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a conversation together with its messages.
// The caller supplies fully built (and typically enriched) aggregates; ids
// and metadata are persisted exactly as given.
func CreateConversation(ctx context.Context, db *gorm.DB, c *domain.Conversation) error {
	return db.WithContext(ctx).Create(c).Error
}

// ReplaceConversation upserts a conversation by primary key: an existing row
// (and its messages) is deleted first so a re-import of the same export is
// idempotent rather than a constraint violation.
func ReplaceConversation(ctx context.Context, db *gorm.DB, c *domain.Conversation) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", c.ID).Unscoped().Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", c.ID).Unscoped().Delete(&domain.Conversation{}).Error; err != nil {
			return err
		}
		return tx.Create(c).Error
	})
}

// ListConversations returns all conversations belonging to userID with their
// messages preloaded in sequence order, oldest conversation first. This is
// the corpus handed to enrichment and search.
func ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]*domain.Conversation, error) {
	var out []*domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at asc").
		Preload("Messages", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq asc") }).
		Find(&out).Error
	return out, err
}

// GetConversation fetches a single conversation (with messages) by id and
// owner. Missing records yield ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq asc") }).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountConversations returns the total number of conversations owned by
// userID.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}
