// Package policy holds the authorization predicates shared by every mutating operation.
package policy

import "civicboard/internal/models"

// IsAdmin reports whether user holds the admin role.
func IsAdmin(user *models.User) bool {
	return user != nil && user.Role == models.RoleAdmin
}

// IsOwnerOrAdmin reports whether user owns the resource identified by ownerID or is an admin.
func IsOwnerOrAdmin(user *models.User, ownerID uint) bool {
	if user == nil {
		return false
	}
	return user.ID == ownerID || IsAdmin(user)
}
