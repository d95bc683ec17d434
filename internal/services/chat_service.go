package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"parley/internal/authz"
	"parley/internal/models"
	"parley/internal/repositories"
	"parley/internal/utils"
)

// directChatName is the placeholder label stored on direct chats; clients
// render the other participant's name instead.
const directChatName = "sender"

const minGroupMembers = 2 // excluding the creator

type ChatService interface {
	ListChatsForUser(ctx context.Context, userID string) ([]*models.Chat, error)
	GetChat(ctx context.Context, chatID string) (*models.Chat, error)
	GetOrCreateDirectChat(ctx context.Context, requesterID, targetID string) (*models.Chat, error)
	CreateGroupChat(ctx context.Context, requesterID, name string, memberIDs []string) (*models.Chat, error)
	RenameGroup(ctx context.Context, requesterID, chatID, newName string) (*models.Chat, error)
	AddParticipant(ctx context.Context, requesterID, chatID, userID string) (*models.Chat, error)
	RemoveParticipant(ctx context.Context, requesterID, chatID, userID string) (*models.Chat, error)
	TouchLatestMessage(ctx context.Context, chatID, messageID string) error
}

type chatService struct {
	chats    repositories.ChatRepository
	expander *repositories.Expander
	policy   authz.GroupPolicy
}

func NewChatService(chats repositories.ChatRepository, expander *repositories.Expander, policy authz.GroupPolicy) ChatService {
	return &chatService{chats: chats, expander: expander, policy: policy}
}

func (s *chatService) expand(ctx context.Context, chats ...*models.Chat) error {
	if err := s.expander.Chats(ctx, chats, repositories.ChatExpansions); err != nil {
		return storeError("expand chat", err)
	}
	return nil
}

func (s *chatService) ListChatsForUser(ctx context.Context, userID string) ([]*models.Chat, error) {
	chats, err := s.chats.FindByMember(ctx, userID)
	if err != nil {
		return nil, storeError("list chats", err)
	}
	if err := s.expand(ctx, chats...); err != nil {
		return nil, err
	}
	return chats, nil
}

func (s *chatService) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, invalidArgument("chatId is required")
	}
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, storeError("find chat", err)
	}
	if err := s.expand(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// findDirect refuses a stored chat whose key is not the pair's own key.
func (s *chatService) findDirect(ctx context.Context, key, a, b string) (*models.Chat, error) {
	chat, err := s.chats.FindDirect(ctx, a, b)
	if err != nil || chat == nil {
		return chat, err
	}
	if chat.IsGroupChat || chat.DirectKey != key {
		return nil, fmt.Errorf("direct chat %s stored under key %q, want %q", chat.ID, chat.DirectKey, key)
	}
	return chat, nil
}

func (s *chatService) GetOrCreateDirectChat(ctx context.Context, requesterID, targetID string) (*models.Chat, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, invalidArgument("userId is required")
	}
	if targetID == requesterID {
		return nil, invalidArgument("cannot open a direct chat with yourself")
	}

	key := utils.DirectKey(requesterID, targetID)
	chat, err := s.findDirect(ctx, key, requesterID, targetID)
	if err != nil {
		return nil, storeError("find direct chat", err)
	}
	if chat == nil {
		chat = &models.Chat{
			ChatName:  directChatName,
			UserIDs:   []string{requesterID, targetID},
			DirectKey: key,
		}
		err = s.chats.Create(ctx, chat)
		switch {
		case errors.Is(err, repositories.ErrDuplicateKey):
			// a concurrent call created the pair between our find and insert
			log.Printf("[chat][direct] lost create race key=%s, re-reading", chat.DirectKey)
			chat, err = s.findDirect(ctx, key, requesterID, targetID)
			if err == nil && chat == nil {
				err = fmt.Errorf("direct chat %s vanished after conflict", key)
			}
			if err != nil {
				return nil, storeError("find direct chat", err)
			}
		case err != nil:
			return nil, storeError("create direct chat", err)
		default:
			log.Printf("[chat][direct][ok] created id=%s users=%v", chat.ID, chat.UserIDs)
		}
	}

	if err := s.expand(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *chatService) CreateGroupChat(ctx context.Context, requesterID, name string, memberIDs []string) (*models.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArgument("name is required")
	}

	members := make([]string, 0, len(memberIDs)+1)
	seen := map[string]struct{}{requesterID: {}}
	for _, id := range memberIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) < minGroupMembers {
		return nil, invalidArgument("more than %d users are required to form a group chat", minGroupMembers)
	}
	members = append(members, requesterID)

	chat := &models.Chat{
		ChatName:     name,
		IsGroupChat:  true,
		UserIDs:      members,
		GroupAdminID: requesterID,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, storeError("create group chat", err)
	}
	log.Printf("[chat][group][ok] created id=%s admin=%s members=%d", chat.ID, requesterID, len(members))

	if err := s.expand(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// authorize enforces the group policy. With the policy off it skips the read
// so the mutation stays a single store operation.
func (s *chatService) authorize(ctx context.Context, requesterID, chatID string) error {
	if !s.policy.AdminOnly && !s.policy.GroupOnly {
		return nil
	}
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return storeError("find chat", err)
	}
	if !s.policy.AllowsKind(chat) {
		return invalidArgument("chat %s is not a group chat", chatID)
	}
	if !s.policy.CanManage(chat, requesterID) {
		log.Printf("[chat][policy][deny] user=%s chat=%s", requesterID, chatID)
		return fmt.Errorf("%w: only the group admin can manage this chat", ErrForbidden)
	}
	return nil
}

func (s *chatService) RenameGroup(ctx context.Context, requesterID, chatID, newName string) (*models.Chat, error) {
	newName = strings.TrimSpace(newName)
	if strings.TrimSpace(chatID) == "" || newName == "" {
		return nil, invalidArgument("chatId and chatName are required")
	}
	if err := s.authorize(ctx, requesterID, chatID); err != nil {
		return nil, err
	}
	chat, err := s.chats.UpdateName(ctx, chatID, newName)
	if err != nil {
		return nil, storeError("rename chat", err)
	}
	if err := s.expand(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *chatService) AddParticipant(ctx context.Context, requesterID, chatID, userID string) (*models.Chat, error) {
	return s.mutateMembers(ctx, requesterID, chatID, userID, "add participant", s.chats.PushUser)
}

func (s *chatService) RemoveParticipant(ctx context.Context, requesterID, chatID, userID string) (*models.Chat, error) {
	return s.mutateMembers(ctx, requesterID, chatID, userID, "remove participant", s.chats.PullUser)
}

func (s *chatService) mutateMembers(
	ctx context.Context,
	requesterID, chatID, userID, op string,
	apply func(ctx context.Context, id, userID string) (*models.Chat, error),
) (*models.Chat, error) {
	userID = strings.TrimSpace(userID)
	if strings.TrimSpace(chatID) == "" || userID == "" {
		return nil, invalidArgument("chatId and userId are required")
	}
	if err := s.authorize(ctx, requesterID, chatID); err != nil {
		return nil, err
	}
	chat, err := apply(ctx, chatID, userID)
	if err != nil {
		return nil, storeError(op, err)
	}
	log.Printf("[chat][%s][ok] chat=%s user=%s by=%s", op, chatID, userID, requesterID)
	if err := s.expand(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *chatService) TouchLatestMessage(ctx context.Context, chatID, messageID string) error {
	if _, err := s.chats.SetLatestMessage(ctx, chatID, messageID); err != nil {
		return storeError("touch latest message", err)
	}
	return nil
}
