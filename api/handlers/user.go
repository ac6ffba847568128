package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Me возвращает профиль текущего пользователя
func (h *Handlers) Me(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	user, err := h.Auth.GetUser(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
