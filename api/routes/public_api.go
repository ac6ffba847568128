package routes

import (
	"net/http"

	"blog/api/handlers"
	"blog/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PublicApi(router *gin.Engine, h *handlers.Handlers) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Без авторизации
	router.POST("/register", h.Register)
	router.POST("/token", h.Token)
	router.POST("/refresh-token", h.RefreshToken)
	router.GET("/posts/public/feed", h.PublicFeed)
	router.GET("/posts/public", h.PublicPosts)

	auth := router.Group("/", middleware.AuthMiddleware(h.Auth))
	{
		auth.GET("users/me", h.Me)
		auth.POST("users/follow/:username", h.Follow)
		auth.GET("users/followed", h.Followed)
		auth.GET("users/followed/posts", h.FollowedPosts)

		auth.POST("posts/", h.CreatePost)
		auth.GET("posts/me", h.MyPosts)
		auth.GET("posts/feed", h.Feed)
		auth.GET("posts/:id", h.GetPost)
		auth.PUT("posts/:id", h.UpdatePost)
		auth.DELETE("posts/:id", h.DeletePost)

		// Комментарии
		auth.POST("posts/:id/comments/", h.CreateComment)
		auth.GET("posts/:id/comments/", h.ListComments)

		// Запросы на доступ к приватным постам
		auth.POST("posts/access/request/:post_id", h.RequestAccess)
		auth.GET("posts/access/my_requests", h.MyRequests)
		auth.GET("posts/access/my_posts_requests", h.MyPostsRequests)
		auth.POST("posts/access/grant/:request_id", h.GrantAccess)
		auth.DELETE("posts/access/revoke/:access_id", h.RevokeAccess)
		auth.POST("posts/access/reject/:request_id", h.RejectAccess)

		auth.GET("ws/notifications", h.WSNotifications)
	}
}
