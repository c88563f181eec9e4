// Group administration HTTP handlers.
//
// This file exposes REST endpoints for savings-pot groups:
//   - POST   /groups                      (create group, caller becomes admin)
//   - GET    /groups                      (list caller's groups)
//   - GET    /groups/{id}                 (fetch one group, members only)
//   - GET    /groups/{id}/members         (list member IDs)
//   - POST   /groups/{id}/members         (admin adds a member)
//   - DELETE /groups/{id}/members/{userId} (admin removes, or member leaves)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/potly/go-group-chat/internal/domain"
	"github.com/potly/go-group-chat/internal/http/middleware"
	"github.com/potly/go-group-chat/internal/services"
)

// CreateGroupRequest is the JSON payload for group creation.
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=2000"`
}

// AddMemberRequest is the JSON payload for adding a member.
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ListGroupsResponse wraps the caller's groups.
type ListGroupsResponse struct {
	Groups []domain.Group `json:"groups"`
}

// CreateGroup creates a group administered by the session user.
func (h *Handlers) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid group payload")
		return
	}

	g, err := h.Groups.CreateGroup(c.Request.Context(), middleware.SessionUserID(c), req.Name, req.Description)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create group")
		return
	}
	ok(c, http.StatusCreated, g)
}

// ListGroups returns the session user's groups.
func (h *Handlers) ListGroups(c *gin.Context) {
	groups, err := h.Groups.ListGroups(c.Request.Context(), middleware.SessionUserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list groups")
		return
	}
	ok(c, http.StatusOK, ListGroupsResponse{Groups: groups})
}

// GetGroup returns one group the session user belongs to.
func (h *Handlers) GetGroup(c *gin.Context) {
	g, err := h.Groups.GetGroup(c.Request.Context(), c.Param("id"), middleware.SessionUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch group")
		return
	}
	ok(c, http.StatusOK, g)
}

// ListMembers returns the group's member IDs. Members only.
func (h *Handlers) ListMembers(c *gin.Context) {
	groupID := c.Param("id")
	userID := middleware.SessionUserID(c)

	member, err := h.Groups.IsMemberOrAdmin(c.Request.Context(), groupID, userID)
	if err != nil || !member {
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrGroupNotFound.Error())
		return
	}
	ids, err := h.Groups.Members(c.Request.Context(), groupID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list members")
		return
	}
	ok(c, http.StatusOK, gin.H{"members": ids})
}

// AddMember adds a user to the group. Admin only.
func (h *Handlers) AddMember(c *gin.Context) {
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid member payload")
		return
	}

	err := h.Groups.AddMember(c.Request.Context(), c.Param("id"), middleware.SessionUserID(c), req.UserID)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrGroupNotFound), errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrNotAdmin):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not add member")
	}
}

// RemoveMember removes a user from the group (admin removes anyone but
// themselves; a member removes themselves to leave).
func (h *Handlers) RemoveMember(c *gin.Context) {
	err := h.Groups.RemoveMember(c.Request.Context(), c.Param("id"), middleware.SessionUserID(c), c.Param("userId"))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrGroupNotFound), errors.Is(err, services.ErrNotMember):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrNotAdmin):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not remove member")
	}
}
