// Message history HTTP handlers.
//
// The real-time path (send + fan-out) lives on the websocket; these
// endpoints page through the archive and manage read receipts:
//   - GET    /groups/{id}/messages        (paginated history, members only)
//   - POST   /messages/{id}/read          (record a read receipt)
//   - GET    /messages/{id}/readers       (who has read it)
//   - DELETE /messages/{id}               (soft delete: sender or admin)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/potly/go-group-chat/internal/domain"
	"github.com/potly/go-group-chat/internal/http/middleware"
	"github.com/potly/go-group-chat/internal/services"
	"github.com/potly/go-group-chat/internal/utils"
)

// ListMessagesResponse contains a page of messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// clampPagination parses page/page_size query values with defaults and caps.
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

// ListMessages returns a page of the group's message history, oldest first.
// Non-members are told the group does not exist.
func (h *Handlers) ListMessages(c *gin.Context) {
	groupID := c.Param("id")
	userID := middleware.SessionUserID(c)

	member, err := h.Groups.IsMemberOrAdmin(c.Request.Context(), groupID, userID)
	if err != nil || !member {
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrGroupNotFound.Error())
		return
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.Messages.ListPage(c.Request.Context(), groupID, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list messages")
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// MarkRead records that the session user has read the message.
func (h *Handlers) MarkRead(c *gin.Context) {
	err := h.Messages.MarkRead(c.Request.Context(), c.Param("id"), middleware.SessionUserID(c))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not record read receipt")
	}
}

// ListReaders returns the IDs of users who have read the message.
func (h *Handlers) ListReaders(c *gin.Context) {
	ids, err := h.Messages.Readers(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		ok(c, http.StatusOK, gin.H{"readers": ids})
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list readers")
	}
}

// DeleteMessage soft-deletes a message (sender or group admin).
func (h *Handlers) DeleteMessage(c *gin.Context) {
	err := h.Messages.Delete(c.Request.Context(), c.Param("id"), middleware.SessionUserID(c))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrForbiddenDelete):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete message")
	}
}
