package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")
	env.addUser(t, "carol")

	sub, err := env.social.Follow(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Equal(t, "alice", sub.FollowerUsername)
	assert.Equal(t, "carol", sub.FollowingUsername)

	again, err := env.social.Follow(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID, "subscription is not duplicated")

	_, err = env.social.Follow(ctx, "alice", "alice")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.social.Follow(ctx, "alice", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := env.social.IsSubscribed(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.social.IsSubscribed(ctx, "carol", "alice")
	require.NoError(t, err)
	assert.False(t, ok, "subscription is directed")
}

func TestListFollowed(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	for _, u := range []string{"alice", "bob", "carol"} {
		env.addUser(t, u)
	}

	names, err := env.social.ListFollowed(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = env.social.Follow(ctx, "alice", "carol")
	require.NoError(t, err)
	_, err = env.social.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = env.social.Follow(ctx, "alice", "carol")
	require.NoError(t, err)

	names, err = env.social.ListFollowed(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob"}, names)
}

func TestPostsFromFollowed(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	for _, u := range []string{"alice", "bob", "carol"} {
		env.addUser(t, u)
	}

	public := env.addPost(t, "carol", true)
	env.addPost(t, "carol", false)
	granted := env.addPost(t, "carol", false)
	env.addPost(t, "bob", true)
	env.grant(t, granted.ID, "carol", "alice")

	posts, err := env.social.PostsFromFollowed(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, posts, "no subscriptions yet")

	_, err = env.social.Follow(ctx, "alice", "carol")
	require.NoError(t, err)

	posts, err = env.social.PostsFromFollowed(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, posts, 2, "inaccessible private post is omitted")
	assert.Equal(t, granted.ID, posts[0].ID, "newest first")
	assert.Equal(t, public.ID, posts[1].ID)
	assert.NotEmpty(t, posts[0].Content)
}
