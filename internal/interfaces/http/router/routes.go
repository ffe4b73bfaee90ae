package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h RouterHandlers) {
	chat := v1.Group("/chat")
	{
		chat.POST("/query", h.Chat.Query)
		chat.POST("/voice-query", h.Chat.VoiceQuery)

		chat.GET("/sessions", h.Session.ListSessions)
		chat.GET("/sessions/:sid", h.Session.GetSession)
		chat.PATCH("/sessions/:sid", h.Session.RenameSession)
		chat.DELETE("/sessions/:sid", h.Session.DeleteSession)

		chat.GET("/history/search", h.Session.SearchHistory)
	}

	knowledge := v1.Group("/knowledge")
	{
		knowledge.GET("/stats", h.Knowledge.Stats)
	}
}
