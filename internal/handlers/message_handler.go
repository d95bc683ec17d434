package handlers

import (
	"bytes"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"parley/internal/pdf"
	"parley/internal/services"
)

type MessageHandler struct {
	service    services.MessageService
	transcript *pdf.TranscriptWriter
}

func NewMessageHandler(service services.MessageService, transcript *pdf.TranscriptWriter) *MessageHandler {
	return &MessageHandler{service: service, transcript: transcript}
}

type postMessageRequest struct {
	Content string `json:"content"`
	ChatID  string `json:"chatId"`
}

// @Summary      Post a message
// @Description  Stores the message and returns the envelope clients relay with "new message"
// @Tags         Message
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      postMessageRequest  true  "Message"
// @Success      200   {object}  models.Message
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/message [post]
func (h *MessageHandler) Post(c *gin.Context) {
	userID := getUserID(c)
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[message][post][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.service.PostMessage(c.Request.Context(), userID, req.ChatID, req.Content)
	if err != nil {
		writeError(c, "[message][post]", err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// @Summary      List messages
// @Description  Full history of a chat, oldest first
// @Tags         Message
// @Produce      json
// @Security     BearerAuth
// @Param        chatId  path      string  true  "Chat ID"
// @Success      200     {array}   models.Message
// @Failure      400     {object}  map[string]string
// @Router       /api/message/{chatId} [get]
func (h *MessageHandler) List(c *gin.Context) {
	msgs, err := h.service.ListMessages(c.Request.Context(), c.Param("chatId"))
	if err != nil {
		writeError(c, "[message][list]", err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// @Summary      Export a chat transcript
// @Tags         Chat
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        chatId  path  string  true  "Chat ID"
// @Success      200
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/chat/{chatId}/transcript [get]
func (h *MessageHandler) Transcript(c *gin.Context) {
	userID := getUserID(c)
	chatID := c.Param("chatId")
	chat, msgs, err := h.service.Transcript(c.Request.Context(), userID, chatID)
	if err != nil {
		writeError(c, "[chat][transcript]", err)
		return
	}

	var buf bytes.Buffer
	if err := h.transcript.Write(&buf, chat, msgs); err != nil {
		log.Printf("[chat][transcript][err] chat=%s: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "chat-"+chatID+".pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
