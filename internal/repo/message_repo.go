// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model and its read receipts.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/potly/go-group-chat/internal/domain"
)

// CreateMessage inserts a message row and, in the same transaction, a read
// receipt marking the sender as having read it.
func CreateMessage(ctx context.Context, db *gorm.DB, groupID, senderID, content, kind string) (*domain.Message, error) {
	m := &domain.Message{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		SenderID:  senderID,
		Content:   content,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Create(&domain.MessageRead{
			ID:        uuid.NewString(),
			MessageID: m.ID,
			UserID:    senderID,
			CreatedAt: m.CreatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMessage fetches a message by ID.
func GetMessage(ctx context.Context, db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
// Soft-deleted rows are excluded to match the paged listing.
func CountMessages(ctx context.Context, db *gorm.DB, groupID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM messages WHERE group_id = ? AND deleted_at IS NULL", groupID).
		Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice ordered (CreatedAt ASC, ID ASC)
// so pages are deterministic even when timestamps collide.
func ListMessagesPage(ctx context.Context, db *gorm.DB, groupID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SoftDeleteMessage marks a message deleted while keeping the row. Deleting
// an unknown message returns gorm.ErrRecordNotFound.
func SoftDeleteMessage(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Message{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkRead upserts a read receipt for (messageID, userID). Re-reading is a
// no-op rather than an error.
func MarkRead(ctx context.Context, db *gorm.DB, messageID, userID string) error {
	err := db.WithContext(ctx).Create(&domain.MessageRead{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}).Error
	if IsDuplicateKey(err) {
		return nil
	}
	return err
}

// ListReaders returns the user IDs that have read the message.
func ListReaders(ctx context.Context, db *gorm.DB, messageID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&domain.MessageRead{}).
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
