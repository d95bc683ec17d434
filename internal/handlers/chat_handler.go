package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"parley/internal/models"
	"parley/internal/services"
)

type ChatHandler struct {
	service services.ChatService
}

func NewChatHandler(service services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

type personalChatRequest struct {
	UserID string `json:"userId"`
}

type groupChatRequest struct {
	Name  string          `json:"name"`
	Users json.RawMessage `json:"users" swaggertype:"array,string"`
}

type renameGroupRequest struct {
	ChatID   string `json:"chatId"`
	ChatName string `json:"chatName"`
}

type participantRequest struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

// @Summary      List chats
// @Description  Chats the caller belongs to, most recently active first
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Chat
// @Failure      500  {object}  map[string]string
// @Router       /api/chat [get]
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := getUserID(c)
	chats, err := h.service.ListChatsForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, "[chat][list]", err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// @Summary      Open a direct chat
// @Description  Returns the direct chat with userId, creating it on first use
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      personalChatRequest  true  "Other participant"
// @Success      200   {object}  models.Chat
// @Failure      400   {object}  map[string]string
// @Router       /api/chat/createPersonalChat [post]
func (h *ChatHandler) CreatePersonalChat(c *gin.Context) {
	userID := getUserID(c)
	var req personalChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[chat][direct][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chat, err := h.service.GetOrCreateDirectChat(c.Request.Context(), userID, req.UserID)
	if err != nil {
		writeError(c, "[chat][direct]", err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// @Summary      Create a group chat
// @Description  users is an array of ids or a JSON-encoded string of one; at least two besides the caller
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      groupChatRequest  true  "Group"
// @Success      200   {object}  models.Chat
// @Failure      400   {object}  map[string]string
// @Router       /api/chat/createGroupChat [post]
func (h *ChatHandler) CreateGroupChat(c *gin.Context) {
	userID := getUserID(c)
	var req groupChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[chat][group][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	members, err := parseUserList(req.Users)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chat, err := h.service.CreateGroupChat(c.Request.Context(), userID, req.Name, members)
	if err != nil {
		writeError(c, "[chat][group]", err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// @Summary      Rename a group chat
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      renameGroupRequest  true  "New name"
// @Success      200   {object}  models.Chat
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/chat/renameGroup [put]
func (h *ChatHandler) RenameGroup(c *gin.Context) {
	userID := getUserID(c)
	var req renameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chat, err := h.service.RenameGroup(c.Request.Context(), userID, req.ChatID, req.ChatName)
	if err != nil {
		writeError(c, "[chat][rename]", err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// @Summary      Add a participant
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      participantRequest  true  "Chat and user"
// @Success      200   {object}  models.Chat
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/chat/addGroupParticipant [put]
func (h *ChatHandler) AddParticipant(c *gin.Context) {
	h.changeMembers(c, "[chat][add]", h.service.AddParticipant)
}

// @Summary      Remove a participant
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      participantRequest  true  "Chat and user"
// @Success      200   {object}  models.Chat
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/chat/removeGroupParticipant [put]
func (h *ChatHandler) RemoveParticipant(c *gin.Context) {
	h.changeMembers(c, "[chat][remove]", h.service.RemoveParticipant)
}

func (h *ChatHandler) changeMembers(c *gin.Context, tag string, op func(ctx context.Context, requesterID, chatID, userID string) (*models.Chat, error)) {
	userID := getUserID(c)
	var req participantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chat, err := op(c.Request.Context(), userID, req.ChatID, req.UserID)
	if err != nil {
		writeError(c, tag, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}
