package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) RequestAccess(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	req, err := h.Posts.RequestAccess(c.Request.Context(), c.Param("post_id"), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handlers) MyRequests(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	reqs, err := h.Posts.MyRequests(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// MyPostsRequests - запросы на доступ к постам текущего пользователя
func (h *Handlers) MyPostsRequests(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	reqs, err := h.Posts.RequestsForMyPosts(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *Handlers) GrantAccess(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	grant, err := h.Posts.GrantAccess(c.Request.Context(), c.Param("request_id"), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

func (h *Handlers) RevokeAccess(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	if err := h.Posts.RevokeAccess(c.Request.Context(), c.Param("access_id"), username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Доступ отозван"})
}

func (h *Handlers) RejectAccess(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	if _, err := h.Posts.RejectAccess(c.Request.Context(), c.Param("request_id"), username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Запрос отклонен"})
}
