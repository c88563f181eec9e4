// Package domain defines the persistence models for users, savings-pot
// groups, group membership, and chat messages. These types are mapped with
// GORM and form the core data layer of the group chat backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message kinds. Text messages are authored by members; system messages are
// server-generated announcements stored in the same archive.
const (
	MessageKindText   = "text"
	MessageKindSystem = "system"
)

// User is an account known to the identity layer. Deactivated users keep
// their rows (and authored messages) but can no longer authenticate or
// connect.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: unique login identifier.
//   - Name: display name shown in presence and message frames.
//   - PasswordHash: bcrypt hash; never serialized.
//   - Deactivated: soft account disable, checked at login and at the
//     websocket upgrade.
type User struct {
	ID           string         `json:"id"           gorm:"type:char(36);primaryKey"`
	Email        string         `json:"email"        gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string         `json:"name"         gorm:"type:varchar(128);not null"`
	PasswordHash string         `json:"-"            gorm:"type:varchar(128);not null"`
	Deactivated  bool           `json:"deactivated"  gorm:"not null;default:false"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Group is a savings pot's chat group. The admin is always allowed into the
// room; everyone else needs a membership row.
type Group struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string         `json:"name"        gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	AdminID     string         `json:"admin_id"    gorm:"type:char(36);not null;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`

	// Admin is the owning user. Groups are not cascade-deleted with their
	// admin; admin rights transfer is an application concern.
	Admin User `json:"-" gorm:"foreignKey:AdminID;references:ID"`
}

// TableName returns the database table name for Group.
func (Group) TableName() string { return "groups" }

// GroupMember links a user into a group. One row per (group, user), enforced
// by a unique index. Membership rows are deleted outright on removal; a
// lingering row would block the user from ever rejoining.
type GroupMember struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	GroupID   string    `json:"group_id"  gorm:"type:char(36);not null;index;uniqueIndex:ux_group_member"`
	UserID    string    `json:"user_id"   gorm:"type:char(36);not null;index;uniqueIndex:ux_group_member"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Group Group `json:"-" gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for GroupMember.
func (GroupMember) TableName() string { return "group_members" }

// Message is one archived chat message. Content is validated before any row
// is written: non-empty after trimming and within the configured length cap.
// Soft deletion keeps the row for history audits while hiding it from pages.
type Message struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	GroupID   string         `json:"group_id"   gorm:"type:char(36);not null;index:idx_group_msgs,priority:1"`
	SenderID  string         `json:"sender_id"  gorm:"type:char(36);not null;index"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	Kind      string         `json:"kind"       gorm:"type:varchar(16);not null;default:'text';check:kind IN ('text','system')"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_group_msgs,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Group  Group `json:"-" gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Sender User  `json:"-" gorm:"foreignKey:SenderID;references:ID"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// MessageRead records that a user has read a message (the readBy set). The
// sender's own receipt is written in the same transaction as the message.
type MessageRead struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	MessageID string    `json:"message_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_message_read"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_message_read"`
	CreatedAt time.Time `json:"created_at"`

	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for MessageRead.
func (MessageRead) TableName() string { return "message_reads" }
