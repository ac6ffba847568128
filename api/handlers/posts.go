package handlers

import (
	"net/http"

	"blog/models"
	"blog/services"

	"github.com/gin-gonic/gin"
)

// PostResponse - пост с отрендеренным HTML при ?format=html
type PostResponse struct {
	models.Post
	ContentHTML string `json:"content_html"`
}

func (h *Handlers) CreatePost(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	post, err := h.Posts.Create(c.Request.Context(), username, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handlers) MyPosts(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	posts, err := h.Posts.ListMine(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Feed - лента текущего пользователя
func (h *Handlers) Feed(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	feed, err := h.Feeds.BuildFeed(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// PublicFeed - лента для неавторизованных: приватные посты без содержимого
func (h *Handlers) PublicFeed(c *gin.Context) {
	feed, err := h.Feeds.BuildPublicFeed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *Handlers) PublicPosts(c *gin.Context) {
	posts, err := h.Posts.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handlers) GetPost(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	post, err := h.Posts.Get(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		respondError(c, err)
		return
	}
	if c.Query("format") != "html" {
		c.JSON(http.StatusOK, post)
		return
	}
	c.JSON(http.StatusOK, PostResponse{Post: *post, ContentHTML: services.RenderMarkdown(post.Content)})
}

func (h *Handlers) UpdatePost(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	post, err := h.Posts.Update(c.Request.Context(), c.Param("id"), username, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handlers) DeletePost(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	if err := h.Posts.Delete(c.Request.Context(), c.Param("id"), username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
