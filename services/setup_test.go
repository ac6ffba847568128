package services

import (
	"context"
	"testing"
	"time"

	"blog/config"
	"blog/db"
	"blog/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testAuthConfig = config.AuthConfig{
	SecretKey:       "test-secret",
	AccessTokenTTL:  time.Minute,
	RefreshTokenTTL: time.Hour,
}

type testEnv struct {
	store    *db.Store
	auth     *AuthService
	access   *AccessControl
	posts    *PostService
	social   *SocialGraph
	comments *CommentService
	feed     *FeedAssembler
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnv(t, nil)
}

// newTestEnv собирает сервисы над in-memory sqlite; cache может быть nil
func newTestEnv(t *testing.T, cache *FeedCache) *testEnv {
	t.Helper()
	database, err := db.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := db.NewStore(database)
	access := NewAccessControl(store)
	social := NewSocialGraph(store, access)
	comments := NewCommentService(store, access, cache, nil)
	return &testEnv{
		store:    store,
		auth:     NewAuthService(store, testAuthConfig),
		access:   access,
		posts:    NewPostService(store, access, cache, nil),
		social:   social,
		comments: comments,
		feed:     NewFeedAssembler(store, access, social, comments, cache),
	}
}

// addUser пишет пользователя напрямую, без дорогого argon2
func (e *testEnv) addUser(t *testing.T, username string) {
	t.Helper()
	err := e.store.Users.Append(context.Background(), &models.User{
		Username:     username,
		Email:        gofakeit.Email(),
		PasswordHash: "x$y",
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
}

func (e *testEnv) addPost(t *testing.T, author string, public bool) *models.Post {
	t.Helper()
	post, err := e.posts.Create(context.Background(), author, PostInput{
		Title:    gofakeit.Sentence(3),
		Content:  gofakeit.Sentence(10),
		IsPublic: &public,
		Tags:     []string{"go"},
	})
	require.NoError(t, err)
	return post
}

// grant проводит запрос на доступ через весь цикл: request -> grant
func (e *testEnv) grant(t *testing.T, postID, author, viewer string) *models.AccessGrant {
	t.Helper()
	ctx := context.Background()
	req, err := e.posts.RequestAccess(ctx, postID, viewer)
	require.NoError(t, err)
	g, err := e.posts.GrantAccess(ctx, req.ID, author)
	require.NoError(t, err)
	return g
}
