package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"blog/config"
	"blog/db"
	"blog/services"

	"github.com/gin-gonic/gin"
)

// Handlers держит сервисы, которые нужны HTTP-обработчикам
type Handlers struct {
	Auth     *services.AuthService
	Posts    *services.PostService
	Feeds    *services.FeedAssembler
	Social   *services.SocialGraph
	Comments *services.CommentService
	Notifier *services.Notifier
	// AllowedOrigins для WebSocket; пустой список - любой origin
	AllowedOrigins []string
}

// New собирает сервисы поверх хранилища. cache и notifier могут быть nil.
func New(store *db.Store, conf *config.ConfigSchema, cache *services.FeedCache, notifier *services.Notifier) *Handlers {
	access := services.NewAccessControl(store)
	social := services.NewSocialGraph(store, access)
	comments := services.NewCommentService(store, access, cache, notifier)
	return &Handlers{
		Auth:           services.NewAuthService(store, conf.Auth),
		Posts:          services.NewPostService(store, access, cache, notifier),
		Feeds:          services.NewFeedAssembler(store, access, social, comments, cache),
		Social:         social,
		Comments:       comments,
		Notifier:       notifier,
		AllowedOrigins: conf.Backend.AllowedOrigins,
	}
}

// respondError переводит ошибки сервисов в HTTP-статусы
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrAuthFailed):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.JSON(status, gin.H{"error": detail(err)})
}

// detail отрезает от сообщения суффикс сигнальной ошибки
func detail(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i > 0 {
		return msg[:i]
	}
	return msg
}

// currentUsername берет имя пользователя, которое положил AuthMiddleware
func currentUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get("username")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return v.(string), true
}
