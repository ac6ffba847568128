package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"blog/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{fmt.Errorf("Post not found: %w", services.ErrNotFound), http.StatusNotFound, `{"error":"Post not found"}`},
		{fmt.Errorf("access denied: %w", services.ErrPermissionDenied), http.StatusForbidden, `{"error":"access denied"}`},
		{fmt.Errorf("Incorrect username or password: %w", services.ErrAuthFailed), http.StatusUnauthorized, `{"error":"Incorrect username or password"}`},
		{fmt.Errorf("Title is required: %w", services.ErrValidation), http.StatusBadRequest, `{"error":"Title is required"}`},
		{errors.New("disk is on fire"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}

func TestCurrentUsername(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := currentUsername(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c.Set("username", "alice")
	name, ok := currentUsername(c)
	assert.True(t, ok)
	assert.Equal(t, "alice", name)
}
