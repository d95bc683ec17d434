package authz

import "parley/internal/models"

// GroupPolicy decides who may rename a group or change its membership.
// Both switches are off by default: any caller may manage any chat.
type GroupPolicy struct {
	// AdminOnly restricts management to the chat's groupAdmin.
	AdminOnly bool
	// GroupOnly rejects management calls on direct chats.
	GroupOnly bool
}

// CanManage reports whether requesterID may mutate chat under the policy.
func (p GroupPolicy) CanManage(chat *models.Chat, requesterID string) bool {
	if !p.AdminOnly {
		return true
	}
	return chat.IsGroupChat && chat.GroupAdminID != "" && chat.GroupAdminID == requesterID
}

// AllowsKind reports whether the chat kind may be managed at all.
func (p GroupPolicy) AllowsKind(chat *models.Chat) bool {
	return !p.GroupOnly || chat.IsGroupChat
}
