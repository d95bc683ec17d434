package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"parley/internal/models"
	"parley/internal/repositories"
)

type MessageService interface {
	// PostMessage persists a message and returns it fully expanded; that
	// value is the envelope relayed to the other chat members.
	PostMessage(ctx context.Context, senderID, chatID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]*models.Message, error)
	// Transcript returns the expanded chat with its full history. Only
	// members may read it; the history is not loaded for anyone else.
	Transcript(ctx context.Context, requesterID, chatID string) (*models.Chat, []*models.Message, error)
}

type messageService struct {
	messages repositories.MessageRepository
	chats    repositories.ChatRepository
	chatSvc  ChatService
	expander *repositories.Expander
}

func NewMessageService(
	messages repositories.MessageRepository,
	chats repositories.ChatRepository,
	chatSvc ChatService,
	expander *repositories.Expander,
) MessageService {
	return &messageService{messages: messages, chats: chats, chatSvc: chatSvc, expander: expander}
}

func (s *messageService) PostMessage(ctx context.Context, senderID, chatID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" || strings.TrimSpace(chatID) == "" {
		return nil, invalidArgument("content and chatId are required")
	}
	if _, err := s.chats.FindByID(ctx, chatID); err != nil {
		return nil, storeError("find chat", err)
	}

	msg := &models.Message{SenderID: senderID, ChatID: chatID, Content: content}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, storeError("create message", err)
	}
	if err := s.chatSvc.TouchLatestMessage(ctx, chatID, msg.ID); err != nil {
		log.Printf("[message][post][err] message=%s stored but latest pointer not updated: %v", msg.ID, err)
		return nil, err
	}
	if err := s.expander.Messages(ctx, []*models.Message{msg}, repositories.PostedMessageExpansions); err != nil {
		return nil, storeError("expand message", err)
	}
	return msg, nil
}

func (s *messageService) ListMessages(ctx context.Context, chatID string) ([]*models.Message, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, invalidArgument("chatId is required")
	}
	msgs, err := s.messages.FindByChat(ctx, chatID)
	if err != nil {
		return nil, storeError("list messages", err)
	}
	if err := s.expander.Messages(ctx, msgs, repositories.MessageListExpansions); err != nil {
		return nil, storeError("expand messages", err)
	}
	return msgs, nil
}

func (s *messageService) Transcript(ctx context.Context, requesterID, chatID string) (*models.Chat, []*models.Message, error) {
	chat, err := s.chatSvc.GetChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if !chat.HasMember(requesterID) {
		log.Printf("[message][transcript][deny] user=%s chat=%s", requesterID, chatID)
		return nil, nil, fmt.Errorf("%w: not a chat member", ErrForbidden)
	}
	msgs, err := s.messages.FindByChat(ctx, chatID)
	if err != nil {
		return nil, nil, storeError("list messages", err)
	}
	err = s.expander.Messages(ctx, msgs, []repositories.Expansion{{Path: "sender", Projection: repositories.ProjectionContact}})
	if err != nil {
		return nil, nil, storeError("expand messages", err)
	}
	return chat, msgs, nil
}
