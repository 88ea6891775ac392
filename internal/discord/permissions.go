package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// PermissionChecker decides whether a Discord user may use admin-gated
// features such as restricted personas.
type PermissionChecker struct {
	adminRoleID string
}

// NewPermissionChecker creates a PermissionChecker. With an empty role ID,
// the Administrator permission bit gates admin features instead.
func NewPermissionChecker(adminRoleID string) *PermissionChecker {
	return &PermissionChecker{adminRoleID: adminRoleID}
}

// IsAdmin checks whether the interaction author counts as an admin.
// Returns false for interactions without a Member (DM channels).
func (p *PermissionChecker) IsAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if p.adminRoleID != "" {
		return slices.Contains(i.Member.Roles, p.adminRoleID)
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0
}
