package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Follow подписывает текущего пользователя на автора
func (h *Handlers) Follow(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	sub, err := h.Social.Follow(c.Request.Context(), username, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handlers) Followed(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	names, err := h.Social.ListFollowed(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

// FollowedPosts - доступные посты авторов из подписок
func (h *Handlers) FollowedPosts(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	posts, err := h.Social.PostsFromFollowed(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
