// Package access maps a user's role on a board to what they may do there.
package access

import "github.com/zulandar/studyflow/internal/models"

// Resolve returns the role of userID on a board owned by ownerID. A
// membership role, when present, applies to non-owners. Everyone else is a
// viewer.
func Resolve(ownerID, userID string, membership *models.Role) models.Role {
	if ownerID != "" && ownerID == userID {
		return models.RoleOwner
	}
	if membership != nil && membership.Valid() && *membership != models.RoleOwner {
		return *membership
	}
	return models.RoleViewer
}

// CanEdit reports whether role may create, change, move or delete tasks,
// subjects and columns.
func CanEdit(role models.Role) bool {
	return role == models.RoleOwner || role == models.RoleEditor
}

// CanShare reports whether role may create invites.
func CanShare(role models.Role) bool {
	return role == models.RoleOwner
}

// CanLeave reports whether role may leave the board.
func CanLeave(role models.Role) bool {
	return role == models.RoleEditor || role == models.RoleViewer
}
