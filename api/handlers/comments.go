package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CommentRequest struct {
	Content string `json:"content"`
}

// CreateComment принимает текст в JSON или в query-параметре content
func (h *Handlers) CreateComment(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	content := c.Query("content")
	if content == "" {
		var req CommentRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			content = req.Content
		}
	}

	comment, err := h.Comments.Create(c.Request.Context(), c.Param("id"), username, content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *Handlers) ListComments(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	comments, err := h.Comments.List(c.Request.Context(), c.Param("id"), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}
