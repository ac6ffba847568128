package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"blog/db"
	"blog/models"

	"github.com/google/uuid"
)

// SocialGraph - подписки пользователей друг на друга
type SocialGraph struct {
	store  *db.Store
	access *AccessControl
}

func NewSocialGraph(store *db.Store, access *AccessControl) *SocialGraph {
	return &SocialGraph{store: store, access: access}
}

// Follow подписывает follower на following; повторная подписка возвращает существующую связь
func (sg *SocialGraph) Follow(ctx context.Context, follower, following string) (*models.Subscription, error) {
	if follower == following {
		return nil, validation("Cannot follow yourself")
	}

	var sub *models.Subscription
	err := sg.store.Atomically(ctx, func(tx *db.Store) error {
		if _, err := tx.Users.First(ctx, db.Where("username = ?", following)); err != nil {
			return notFound(err, "user "+following)
		}

		existing, err := tx.Subscriptions.First(ctx,
			db.Where("follower_username = ? AND following_username = ?", follower, following))
		if err == nil {
			sub = existing
			return nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		sub = &models.Subscription{
			ID:                uuid.NewString(),
			FollowerUsername:  follower,
			FollowingUsername: following,
			CreatedAt:         time.Now().UTC(),
		}
		return tx.Subscriptions.Append(ctx, sub)
	}, sg.store.Users.Name(), sg.store.Subscriptions.Name())
	if err != nil {
		return nil, err
	}

	log.Printf("DEBUG: %s follows %s", follower, following)
	return sub, nil
}

// ListFollowed возвращает имена авторов, на которых подписан пользователь, в порядке подписки
func (sg *SocialGraph) ListFollowed(ctx context.Context, username string) ([]string, error) {
	subs, err := sg.store.Subscriptions.List(ctx, db.Where("follower_username = ?", username))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(subs))
	names := make([]string, 0, len(subs))
	for _, s := range subs {
		if seen[s.FollowingUsername] {
			continue
		}
		seen[s.FollowingUsername] = true
		names = append(names, s.FollowingUsername)
	}
	return names, nil
}

func (sg *SocialGraph) IsSubscribed(ctx context.Context, follower, following string) (bool, error) {
	n, err := sg.store.Subscriptions.Count(ctx,
		db.Where("follower_username = ? AND following_username = ?", follower, following))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PostsFromFollowed - публичные и разрешенные посты авторов из подписок, новые сверху.
// Недоступные приватные посты пропускаются целиком.
func (sg *SocialGraph) PostsFromFollowed(ctx context.Context, follower string) ([]models.Post, error) {
	authors, err := sg.ListFollowed(ctx, follower)
	if err != nil {
		return nil, err
	}
	result := []models.Post{}
	if len(authors) == 0 {
		return result, nil
	}

	posts, err := sg.store.Posts.List(ctx, db.Where("author IN ?", authors))
	if err != nil {
		return nil, err
	}
	granted, err := sg.access.GrantedPostIDs(ctx, follower)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		if p.IsPublic || p.Author == follower || granted[p.ID] {
			result = append(result, p)
		}
	}
	sortPostsNewestFirst(result)
	return result, nil
}

func sortPostsNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID < posts[j].ID
	})
}
