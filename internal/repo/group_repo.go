// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for groups and
// group membership.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/potly/go-group-chat/internal/domain"
)

// CreateGroup inserts a group row. The admin is also written as a member so
// membership listings include them without special-casing.
func CreateGroup(ctx context.Context, db *gorm.DB, adminID, name, description string) (*domain.Group, error) {
	g := &domain.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		AdminID:     adminID,
		CreatedAt:   time.Now().UTC(),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		return tx.Create(&domain.GroupMember{
			ID:        uuid.NewString(),
			GroupID:   g.ID,
			UserID:    adminID,
			CreatedAt: g.CreatedAt,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// GetGroup fetches a group by ID.
func GetGroup(ctx context.Context, db *gorm.DB, id string) (*domain.Group, error) {
	var g domain.Group
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGroupsForUser returns the groups the user belongs to, newest first.
func ListGroupsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Group, error) {
	var out []domain.Group
	err := db.WithContext(ctx).
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ?", userID).
		Order("groups.created_at DESC").
		Find(&out).Error
	return out, err
}

// AddMember inserts a membership row for (groupID, userID). Adding an
// existing member is an error surfaced by the unique index.
func AddMember(ctx context.Context, db *gorm.DB, groupID, userID string) error {
	return db.WithContext(ctx).Create(&domain.GroupMember{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}).Error
}

// RemoveMember deletes the membership row, freeing the unique index so the
// user can be re-added later. Removing a non-member returns
// gorm.ErrRecordNotFound.
func RemoveMember(ctx context.Context, db *gorm.DB, groupID, userID string) error {
	res := db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&domain.GroupMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsMember reports whether a membership row exists for (groupID, userID).
func IsMember(ctx context.Context, db *gorm.DB, groupID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	return n > 0, err
}

// ListMemberIDs returns the user IDs of all current members.
func ListMemberIDs(ctx context.Context, db *gorm.DB, groupID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&domain.GroupMember{}).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// IsDuplicateKey reports whether err is the unique-index violation raised
// when a row with the same unique key already exists.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The pure-Go sqlite driver reports constraint violations as plain
	// errors; match on the standard message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
