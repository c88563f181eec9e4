// Package services – GroupService
//
// This file implements the group directory: savings-pot groups, their admin,
// and their members. The websocket authenticator consults it to decide
// whether a connecting user may enter a group's room; the REST layer uses it
// for group administration.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/potly/go-group-chat/internal/domain"
	"github.com/potly/go-group-chat/internal/repo"
)

// GroupService coordinates group CRUD and membership checks.
type GroupService struct {
	DB *gorm.DB
}

// CreateGroup creates a group administered by adminID. The admin is also
// recorded as a member.
func (s *GroupService) CreateGroup(ctx context.Context, adminID, name, description string) (*domain.Group, error) {
	tr := otel.Tracer("services/GroupService")
	ctx, span := tr.Start(ctx, "CreateGroup",
		trace.WithAttributes(attribute.String("user.id", adminID)),
	)
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("group name is required")
	}
	return repo.CreateGroup(ctx, s.DB, adminID, name, strings.TrimSpace(description))
}

// GetGroup returns a group visible to userID. Non-members get
// ErrGroupNotFound rather than ErrNotMember so group existence is not
// disclosed.
func (s *GroupService) GetGroup(ctx context.Context, groupID, userID string) (*domain.Group, error) {
	tr := otel.Tracer("services/GroupService")
	ctx, span := tr.Start(ctx, "GetGroup",
		trace.WithAttributes(attribute.String("group.id", groupID)),
	)
	defer span.End()

	g, err := repo.GetGroup(ctx, s.DB, groupID)
	if err != nil {
		return nil, ErrGroupNotFound
	}
	member, err := s.IsMemberOrAdmin(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// ListGroups returns the groups userID belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]domain.Group, error) {
	tr := otel.Tracer("services/GroupService")
	ctx, span := tr.Start(ctx, "ListGroups",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return repo.ListGroupsForUser(ctx, s.DB, userID)
}

// AddMember adds targetID to the group. Only the admin may add members.
func (s *GroupService) AddMember(ctx context.Context, groupID, actorID, targetID string) error {
	tr := otel.Tracer("services/GroupService")
	ctx, span := tr.Start(ctx, "AddMember",
		trace.WithAttributes(
			attribute.String("group.id", groupID),
			attribute.String("user.id", targetID),
		),
	)
	defer span.End()

	g, err := repo.GetGroup(ctx, s.DB, groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if g.AdminID != actorID {
		return ErrNotAdmin
	}
	if _, err := repo.GetUser(ctx, s.DB, targetID); err != nil {
		return ErrUserNotFound
	}
	if err := repo.AddMember(ctx, s.DB, groupID, targetID); err != nil {
		if repo.IsDuplicateKey(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

// RemoveMember removes targetID from the group. The admin may remove anyone
// but themselves; a member may remove themselves (leave).
func (s *GroupService) RemoveMember(ctx context.Context, groupID, actorID, targetID string) error {
	tr := otel.Tracer("services/GroupService")
	ctx, span := tr.Start(ctx, "RemoveMember",
		trace.WithAttributes(
			attribute.String("group.id", groupID),
			attribute.String("user.id", targetID),
		),
	)
	defer span.End()

	g, err := repo.GetGroup(ctx, s.DB, groupID)
	if err != nil {
		return ErrGroupNotFound
	}
	if targetID == g.AdminID {
		return ErrNotAdmin
	}
	if actorID != targetID && actorID != g.AdminID {
		return ErrNotAdmin
	}
	if err := repo.RemoveMember(ctx, s.DB, groupID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return err
	}
	return nil
}

// Members returns the user IDs of the group's current members.
func (s *GroupService) Members(ctx context.Context, groupID string) ([]string, error) {
	return repo.ListMemberIDs(ctx, s.DB, groupID)
}

// ResolveGroup reports whether the group exists; it backs the websocket
// authenticator's group lookup.
func (s *GroupService) ResolveGroup(ctx context.Context, groupID string) error {
	if _, err := repo.GetGroup(ctx, s.DB, groupID); err != nil {
		return ErrGroupNotFound
	}
	return nil
}

// IsMemberOrAdmin reports whether userID may enter the group's room: either
// a membership row exists or the user is the group admin. It is the single
// authorization gate for the websocket upgrade.
func (s *GroupService) IsMemberOrAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	g, err := repo.GetGroup(ctx, s.DB, groupID)
	if err != nil {
		return false, ErrGroupNotFound
	}
	if g.AdminID == userID {
		return true, nil
	}
	return repo.IsMember(ctx, s.DB, groupID, userID)
}
