package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"parley/internal/handlers"
	"parley/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	chatHandler *handlers.ChatHandler,
	messageHandler *handlers.MessageHandler,
	wsHandler *handlers.WSHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ---- protected
	auth := middleware.AuthMiddleware(jwtSecret)

	r.GET("/ws", auth, wsHandler.Serve)

	chat := r.Group("/api/chat", auth)
	{
		chat.GET("", chatHandler.ListChats)
		chat.POST("/createPersonalChat", chatHandler.CreatePersonalChat)
		chat.POST("/createGroupChat", chatHandler.CreateGroupChat)
		chat.PUT("/renameGroup", chatHandler.RenameGroup)
		chat.PUT("/addGroupParticipant", chatHandler.AddParticipant)
		chat.PUT("/removeGroupParticipant", chatHandler.RemoveParticipant)
		chat.GET("/:chatId/transcript", messageHandler.Transcript)
	}

	message := r.Group("/api/message", auth)
	{
		message.GET("/:chatId", messageHandler.List)
		message.POST("", messageHandler.Post)
	}

	return r
}
