package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")
	env.addUser(t, "bob")
	env.addUser(t, "carol")

	public := env.addPost(t, "alice", true)
	private := env.addPost(t, "alice", false)
	env.grant(t, private.ID, "alice", "carol")

	cases := []struct {
		name   string
		postID string
		viewer string
		want   Visibility
	}{
		{"author sees private", private.ID, "alice", Visible},
		{"anyone sees public", public.ID, "bob", Visible},
		{"anonymous sees public", public.ID, "", Visible},
		{"grant holder sees private", private.ID, "carol", Visible},
		{"stranger gets redacted", private.ID, "bob", Redacted},
		{"anonymous gets redacted", private.ID, "", Redacted},
		{"missing post", uuid.NewString(), "alice", NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := env.access.Resolve(ctx, tc.postID, tc.viewer)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Kind)
		})
	}
}

func TestResolveRedactedKeepsMetadata(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")
	post := env.addPost(t, "alice", false)

	res, err := env.access.Resolve(ctx, post.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, Redacted, res.Kind)

	assert.Empty(t, res.Post.Content)
	assert.Empty(t, res.Post.Tags)
	assert.NotNil(t, res.Post.Tags)
	assert.Equal(t, post.ID, res.Post.ID)
	assert.Equal(t, post.Title, res.Post.Title)
	assert.Equal(t, "alice", res.Post.Author)
	assert.False(t, res.Post.IsPublic)
}

func TestGrantedPostIDs(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	env.addUser(t, "alice")
	env.addUser(t, "bob")

	first := env.addPost(t, "alice", false)
	second := env.addPost(t, "alice", false)
	env.grant(t, first.ID, "alice", "bob")

	ids, err := env.access.GrantedPostIDs(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ids[first.ID])
	assert.False(t, ids[second.ID])
}
