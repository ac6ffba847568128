package services

import (
	"context"
	"log"
	"sort"

	"blog/db"
	"blog/models"
)

// FeedAssembler собирает ленту для конкретного читателя и публичную ленту
type FeedAssembler struct {
	store    *db.Store
	access   *AccessControl
	social   *SocialGraph
	comments *CommentService
	cache    *FeedCache
}

func NewFeedAssembler(store *db.Store, access *AccessControl, social *SocialGraph, comments *CommentService, cache *FeedCache) *FeedAssembler {
	return &FeedAssembler{store: store, access: access, social: social, comments: comments, cache: cache}
}

// BuildFeed: свои посты, публичные, разрешенные приватные и скрытые приватные (только заголовок и автор)
func (fa *FeedAssembler) BuildFeed(ctx context.Context, viewer string) ([]models.PostWithDetails, error) {
	posts, err := fa.store.Posts.List(ctx)
	if err != nil {
		return nil, err
	}
	granted, err := fa.access.GrantedPostIDs(ctx, viewer)
	if err != nil {
		return nil, err
	}

	// последний запрос читателя по каждому посту; List отдает по возрастанию created_at
	requests, err := fa.store.AccessRequests.List(ctx, db.Where("requester_username = ?", viewer))
	if err != nil {
		return nil, err
	}
	lastStatus := make(map[string]string, len(requests))
	for _, r := range requests {
		lastStatus[r.PostID] = r.Status
	}

	followed, err := fa.social.ListFollowed(ctx, viewer)
	if err != nil {
		return nil, err
	}
	following := make(map[string]bool, len(followed))
	for _, name := range followed {
		following[name] = true
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	latest, err := fa.comments.LatestByPost(ctx, ids)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(posts))
	feed := make([]models.PostWithDetails, 0, len(posts))
	for _, p := range posts {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true

		item := models.PostWithDetails{Post: p, AccessStatus: models.AccessApproved}
		if !(p.Author == viewer || p.IsPublic || granted[p.ID]) {
			item.Post = p.Redacted()
			item.AccessStatus = ""
			if s := lastStatus[p.ID]; s == models.AccessPending || s == models.AccessRejected {
				item.AccessStatus = s
			}
		}
		subscribed := following[p.Author]
		item.IsSubscribed = &subscribed
		item.LatestComment = latest[p.ID]
		feed = append(feed, item)
	}

	sortFeed(feed)
	log.Printf("DEBUG: feed for %s built with %d posts", viewer, len(feed))
	return feed, nil
}

// BuildPublicFeed - все посты без учета читателя; у приватных скрыто содержимое и комментарий
func (fa *FeedAssembler) BuildPublicFeed(ctx context.Context) ([]models.PostWithDetails, error) {
	if cached, ok := fa.cache.Get(ctx, PublicFeedKey); ok {
		return cached, nil
	}
	version := fa.cache.Version(ctx, PublicFeedKey)

	posts, err := fa.store.Posts.List(ctx)
	if err != nil {
		return nil, err
	}
	publicIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.IsPublic {
			publicIDs = append(publicIDs, p.ID)
		}
	}
	latest, err := fa.comments.LatestByPost(ctx, publicIDs)
	if err != nil {
		return nil, err
	}

	feed := make([]models.PostWithDetails, 0, len(posts))
	for _, p := range posts {
		if !p.IsPublic {
			feed = append(feed, models.PostWithDetails{Post: p.Redacted()})
			continue
		}
		feed = append(feed, models.PostWithDetails{Post: p, LatestComment: latest[p.ID]})
	}
	sortFeed(feed)

	fa.cache.Set(ctx, PublicFeedKey, version, feed)
	return feed, nil
}

// новые сверху, при равном времени - по id
func sortFeed(feed []models.PostWithDetails) {
	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		}
		return feed[i].ID < feed[j].ID
	})
}
