package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"blog/api/handlers"
	"blog/config"
	"blog/db"
	"blog/models"
	"blog/services"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	conf := config.Defaults()
	conf.Auth.SecretKey = "test-secret"
	h := handlers.New(db.NewStore(database), conf, nil, services.NewNotifier(nil, nil))
	return NewRouter(h)
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// signup регистрирует пользователя и возвращает его access-токен
func signup(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/register", "", handlers.RegisterRequest{
		Username: username,
		Email:    gofakeit.Email(),
		Password: "password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tokens := login(t, router, username, "password")
	require.Equal(t, http.StatusOK, tokens.Code, tokens.Body.String())
	return decode[services.Tokens](t, tokens).AccessToken
}

func login(t *testing.T, router *gin.Engine, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req, _ := http.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createPost(t *testing.T, router *gin.Engine, token string, public bool) models.Post {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/posts/", token, map[string]interface{}{
		"title":     gofakeit.Sentence(3),
		"content":   "**" + gofakeit.Sentence(8) + "**",
		"is_public": public,
		"tags":      []string{"go"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.Post](t, w)
}

func TestAuthFlow(t *testing.T) {
	router := setupRouter(t)
	token := signup(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/register", "", handlers.RegisterRequest{
		Username: "alice", Email: gofakeit.Email(), Password: "password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate username")

	w = login(t, router, "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]interface{}](t, w)
	assert.Equal(t, "alice", me["username"])
	assert.NotContains(t, me, "password_hash")

	w = doJSON(t, router, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, router, http.MethodGet, "/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tokens := decode[services.Tokens](t, login(t, router, "alice", "password"))
	w = doJSON(t, router, http.MethodPost, "/refresh-token?refresh_token="+tokens.RefreshToken, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decode[services.Tokens](t, w)
	w = doJSON(t, router, http.MethodGet, "/users/me", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/refresh-token", "", handlers.TokenRefreshRequest{RefreshToken: tokens.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPrivatePostAccessFlow(t *testing.T) {
	router := setupRouter(t)
	alice := signup(t, router, "alice")
	bob := signup(t, router, "bob")

	post := createPost(t, router, alice, false)

	// bob видит пост только без содержимого
	w := doJSON(t, router, http.MethodGet, "/posts/"+post.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	feed := decode[[]models.PostWithDetails](t, doJSON(t, router, http.MethodGet, "/posts/feed", bob, nil))
	require.Len(t, feed, 1)
	assert.Empty(t, feed[0].Content)
	assert.Equal(t, "", feed[0].AccessStatus)

	w = doJSON(t, router, http.MethodPost, "/posts/access/request/"+post.ID, bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	req := decode[models.AccessRequest](t, w)
	assert.Equal(t, models.AccessPending, req.Status)

	feed = decode[[]models.PostWithDetails](t, doJSON(t, router, http.MethodGet, "/posts/feed", bob, nil))
	assert.Equal(t, models.AccessPending, feed[0].AccessStatus)

	incoming := decode[[]models.AccessRequest](t, doJSON(t, router, http.MethodGet, "/posts/access/my_posts_requests", alice, nil))
	require.Len(t, incoming, 1)
	assert.Equal(t, req.ID, incoming[0].ID)

	w = doJSON(t, router, http.MethodPost, "/posts/access/grant/"+req.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "requester cannot approve own request")

	w = doJSON(t, router, http.MethodPost, "/posts/access/grant/"+req.ID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	grant := decode[models.AccessGrant](t, w)

	w = doJSON(t, router, http.MethodGet, "/posts/"+post.ID, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, post.Content, decode[models.Post](t, w).Content)

	w = doJSON(t, router, http.MethodGet, "/posts/"+post.ID+"?format=html", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[handlers.PostResponse](t, w).ContentHTML, "<strong>")

	w = doJSON(t, router, http.MethodPost, "/posts/"+post.ID+"/comments/", bob, handlers.CommentRequest{Content: "thanks"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodDelete, "/posts/access/revoke/"+grant.ID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/posts/"+post.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, router, http.MethodGet, "/posts/"+post.ID+"/comments/", bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	mine := decode[[]models.AccessRequest](t, doJSON(t, router, http.MethodGet, "/posts/access/my_requests", bob, nil))
	require.Len(t, mine, 1)
	assert.Equal(t, models.AccessApproved, mine[0].Status, "revocation keeps the request approved")
}

func TestRejectFlow(t *testing.T) {
	router := setupRouter(t)
	alice := signup(t, router, "alice")
	bob := signup(t, router, "bob")
	post := createPost(t, router, alice, false)

	req := decode[models.AccessRequest](t, doJSON(t, router, http.MethodPost, "/posts/access/request/"+post.ID, bob, nil))
	w := doJSON(t, router, http.MethodPost, "/posts/access/reject/"+req.ID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	feed := decode[[]models.PostWithDetails](t, doJSON(t, router, http.MethodGet, "/posts/feed", bob, nil))
	require.Len(t, feed, 1)
	assert.Equal(t, models.AccessRejected, feed[0].AccessStatus)

	w = doJSON(t, router, http.MethodPost, "/posts/access/request/"+post.ID, bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowedPosts(t *testing.T) {
	router := setupRouter(t)
	alice := signup(t, router, "alice")
	carol := signup(t, router, "carol")

	public := createPost(t, router, carol, true)
	createPost(t, router, carol, false)

	w := doJSON(t, router, http.MethodPost, "/users/follow/carol", alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(t, router, http.MethodPost, "/users/follow/nobody", alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, router, http.MethodPost, "/users/follow/alice", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	followed := decode[[]string](t, doJSON(t, router, http.MethodGet, "/users/followed", alice, nil))
	assert.Equal(t, []string{"carol"}, followed)

	posts := decode[[]models.Post](t, doJSON(t, router, http.MethodGet, "/users/followed/posts", alice, nil))
	require.Len(t, posts, 1)
	assert.Equal(t, public.ID, posts[0].ID)
}

func TestPublicEndpoints(t *testing.T) {
	router := setupRouter(t)
	alice := signup(t, router, "alice")
	public := createPost(t, router, alice, true)
	private := createPost(t, router, alice, false)

	posts := decode[[]models.Post](t, doJSON(t, router, http.MethodGet, "/posts/public", "", nil))
	require.Len(t, posts, 1)
	assert.Equal(t, public.ID, posts[0].ID)

	feed := decode[[]models.PostWithDetails](t, doJSON(t, router, http.MethodGet, "/posts/public/feed", "", nil))
	require.Len(t, feed, 2)
	for _, item := range feed {
		if item.ID == private.ID {
			assert.Empty(t, item.Content)
			assert.Empty(t, item.Tags)
		} else {
			assert.Equal(t, public.Content, item.Content)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestPostCRUD(t *testing.T) {
	router := setupRouter(t)
	alice := signup(t, router, "alice")
	bob := signup(t, router, "bob")
	post := createPost(t, router, alice, true)

	w := doJSON(t, router, http.MethodPost, "/posts/", alice, map[string]interface{}{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	update := map[string]interface{}{"title": "Updated", "content": "new", "is_public": true, "tags": []string{}}
	w = doJSON(t, router, http.MethodPut, "/posts/"+post.ID, bob, update)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, router, http.MethodPut, "/posts/"+uuid.NewString(), alice, update)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, router, http.MethodPut, "/posts/"+post.ID, alice, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Updated", decode[models.Post](t, w).Title)

	mine := decode[[]models.Post](t, doJSON(t, router, http.MethodGet, "/posts/me", alice, nil))
	require.Len(t, mine, 1)

	w = doJSON(t, router, http.MethodDelete, "/posts/"+post.ID, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/posts/"+post.ID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodGet, "/posts/"+post.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
