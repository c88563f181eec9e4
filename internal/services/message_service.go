// Package services – MessageService
//
// This file implements the message archive: validated persistence of chat
// messages (with the sender's read receipt written atomically), paginated
// history for the REST layer, read receipts, and soft deletion. The
// websocket gateway is its main caller for writes; history reads come
// through HTTP.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// group/user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/potly/go-group-chat/internal/domain"
	"github.com/potly/go-group-chat/internal/repo"
)

// MessageService owns the lifecycle of archived chat messages.
type MessageService struct {
	DB *gorm.DB

	// MaxContentRunes caps message content; <= 0 falls back to 2000.
	MaxContentRunes int
}

const defaultMaxContentRunes = 2000

func (s *MessageService) maxRunes() int {
	if s.MaxContentRunes > 0 {
		return s.MaxContentRunes
	}
	return defaultMaxContentRunes
}

// SaveMessage validates and persists a text message, marking the sender as
// having read it. Validation happens before any write: malformed content
// produces no side effects at all.
func (s *MessageService) SaveMessage(ctx context.Context, groupID, senderID, content string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "SaveMessage",
		trace.WithAttributes(
			attribute.String("group.id", groupID),
			attribute.String("user.id", senderID),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.maxRunes() {
		return nil, ErrContentTooLong
	}

	return repo.CreateMessage(ctx, s.DB, groupID, senderID, content, domain.MessageKindText)
}

// SaveSystemMessage archives a server-generated announcement. System
// messages skip the length cap but still must be non-empty.
func (s *MessageService) SaveSystemMessage(ctx context.Context, groupID, senderID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	return repo.CreateMessage(ctx, s.DB, groupID, senderID, content, domain.MessageKindSystem)
}

// ListPage returns paginated messages for a group, oldest first, with the
// total count for pagination metadata.
func (s *MessageService) ListPage(ctx context.Context, groupID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("group.id", groupID),
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

	total, err := repo.CountMessages(ctx, s.DB, groupID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(ctx, s.DB, groupID, offset, pageSize)
	return items, total, err
}

// MarkRead records that userID has read messageID. Re-reading is a no-op.
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID string) error {
	if _, err := repo.GetMessage(ctx, s.DB, messageID); err != nil {
		return ErrMessageNotFound
	}
	return repo.MarkRead(ctx, s.DB, messageID, userID)
}

// Readers returns the IDs of users who have read the message.
func (s *MessageService) Readers(ctx context.Context, messageID string) ([]string, error) {
	if _, err := repo.GetMessage(ctx, s.DB, messageID); err != nil {
		return nil, ErrMessageNotFound
	}
	return repo.ListReaders(ctx, s.DB, messageID)
}

// Delete soft-deletes a message. Only the sender or the group admin may
// delete; the row is retained for audit.
func (s *MessageService) Delete(ctx context.Context, messageID, actorID string) error {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("message.id", messageID)),
	)
	defer span.End()

	m, err := repo.GetMessage(ctx, s.DB, messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	if m.SenderID != actorID {
		g, err := repo.GetGroup(ctx, s.DB, m.GroupID)
		if err != nil || g.AdminID != actorID {
			return ErrForbiddenDelete
		}
	}
	if err := repo.SoftDeleteMessage(ctx, s.DB, messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return err
	}
	return nil
}
