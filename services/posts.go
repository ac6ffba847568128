package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"blog/db"
	"blog/models"

	"github.com/google/uuid"
)

// PostInput - поля поста, которые задает автор
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	IsPublic *bool    `json:"is_public"`
	Tags     []string `json:"tags"`
}

func (in PostInput) public() bool {
	return in.IsPublic == nil || *in.IsPublic
}

// normalizeTags обрезает пробелы, выкидывает пустые и повторяющиеся теги
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

type PostService struct {
	store    *db.Store
	access   *AccessControl
	cache    *FeedCache
	notifier *Notifier
}

func NewPostService(store *db.Store, access *AccessControl, cache *FeedCache, notifier *Notifier) *PostService {
	return &PostService{store: store, access: access, cache: cache, notifier: notifier}
}

// Create создает пост от имени автора
func (ps *PostService) Create(ctx context.Context, author string, in PostInput) (*models.Post, error) {
	title := StripTags(in.Title)
	if title == "" {
		return nil, validation("Title is required")
	}
	now := time.Now().UTC()
	post := &models.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   in.Content,
		IsPublic:  in.public(),
		Tags:      normalizeTags(in.Tags),
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ps.store.Posts.Append(ctx, post); err != nil {
		log.Printf("ERROR: Failed to create post in DB: %v", err)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	log.Printf("DEBUG: Post created in DB with ID=%s by %s", post.ID, author)

	ps.cache.Invalidate(ctx, PublicFeedKey)
	return post, nil
}

func (ps *PostService) ListMine(ctx context.Context, author string) ([]models.Post, error) {
	return ps.store.Posts.List(ctx, db.Where("author = ?", author))
}

func (ps *PostService) ListPublic(ctx context.Context) ([]models.Post, error) {
	return ps.store.Posts.List(ctx, db.Where("is_public = ?", true))
}

// Get отдает пост только тому, кто видит его целиком
func (ps *PostService) Get(ctx context.Context, postID, viewer string) (*models.Post, error) {
	res, err := ps.access.Resolve(ctx, postID, viewer)
	if err != nil {
		return nil, err
	}
	switch res.Kind {
	case NotFound:
		return nil, fmt.Errorf("Post not found: %w", ErrNotFound)
	case Redacted:
		return nil, denied("You don't have access to this post")
	}
	return &res.Post, nil
}

// owned загружает пост и проверяет, что actor - его автор
func (ps *PostService) owned(ctx context.Context, tx *db.Store, postID, actor string) (*models.Post, error) {
	post, err := tx.Posts.First(ctx, db.Where("id = ?", postID))
	if err != nil {
		return nil, notFound(err, "Post not found")
	}
	if post.Author != actor {
		return nil, denied("You are not the author of this post")
	}
	return post, nil
}

func (ps *PostService) Update(ctx context.Context, postID, actor string, in PostInput) (*models.Post, error) {
	title := StripTags(in.Title)
	if title == "" {
		return nil, validation("Title is required")
	}
	if _, err := ps.owned(ctx, ps.store, postID, actor); err != nil {
		return nil, err
	}

	var updated models.Post
	_, err := ps.store.Posts.UpdateWhere(ctx, db.Where("id = ? AND author = ?", postID, actor), func(p *models.Post) {
		p.Title = title
		p.Content = in.Content
		p.IsPublic = in.public()
		p.Tags = normalizeTags(in.Tags)
		p.UpdatedAt = time.Now().UTC()
		updated = *p
	})
	if err != nil {
		return nil, notFound(err, "Post not found")
	}

	ps.cache.Invalidate(ctx, PublicFeedKey)
	return &updated, nil
}

// Delete удаляет пост вместе с его запросами, разрешениями и комментариями
func (ps *PostService) Delete(ctx context.Context, postID, actor string) error {
	err := ps.store.Atomically(ctx, func(tx *db.Store) error {
		if _, err := ps.owned(ctx, tx, postID, actor); err != nil {
			return err
		}
		if _, err := tx.AccessRequests.DeleteWhere(ctx, db.Where("post_id = ?", postID)); err != nil {
			return err
		}
		if _, err := tx.AccessGrants.DeleteWhere(ctx, db.Where("post_id = ?", postID)); err != nil {
			return err
		}
		if _, err := tx.Comments.DeleteWhere(ctx, db.Where("post_id = ?", postID)); err != nil {
			return err
		}
		_, err := tx.Posts.DeleteWhere(ctx, db.Where("id = ?", postID))
		return err
	},
		ps.store.Posts.Name(),
		ps.store.AccessRequests.Name(),
		ps.store.AccessGrants.Name(),
		ps.store.Comments.Name(),
	)
	if err != nil {
		return err
	}

	log.Printf("DEBUG: Post %s deleted by %s", postID, actor)
	ps.cache.Invalidate(ctx, PublicFeedKey)
	return nil
}

// RequestAccess создает запрос на доступ к приватному посту.
// Ожидающий запрос не дублируется, отклоненный повторно подать нельзя.
func (ps *PostService) RequestAccess(ctx context.Context, postID, viewer string) (*models.AccessRequest, error) {
	res, err := ps.access.Resolve(ctx, postID, viewer)
	if err != nil {
		return nil, err
	}
	switch res.Kind {
	case NotFound:
		return nil, fmt.Errorf("Post not found: %w", ErrNotFound)
	case Visible:
		return nil, validation("You already have access to this post")
	}

	var req *models.AccessRequest
	created := false
	err = ps.store.Atomically(ctx, func(tx *db.Store) error {
		last, err := tx.AccessRequests.Latest(ctx,
			db.Where("post_id = ? AND requester_username = ?", postID, viewer))
		switch {
		case err == nil && last.Status == models.AccessPending:
			req = last
			return nil
		case err == nil && last.Status == models.AccessRejected:
			return validation("Access request was rejected")
		case err != nil && !errors.Is(err, db.ErrNotFound):
			return err
		}

		req = &models.AccessRequest{
			ID:                uuid.NewString(),
			PostID:            postID,
			RequesterUsername: viewer,
			Status:            models.AccessPending,
			CreatedAt:         time.Now().UTC(),
		}
		created = true
		return tx.AccessRequests.Append(ctx, req)
	}, ps.store.AccessRequests.Name())
	if err != nil {
		return nil, err
	}

	if created {
		ps.notifier.Notify(ctx, Event{
			Event:     EventAccessRequested,
			Recipient: res.Post.Author,
			Actor:     viewer,
			PostID:    postID,
			Message:   res.Post.Title,
		})
	}
	return req, nil
}

func (ps *PostService) MyRequests(ctx context.Context, viewer string) ([]models.AccessRequest, error) {
	return ps.store.AccessRequests.List(ctx, db.Where("requester_username = ?", viewer))
}

// RequestsForMyPosts - все запросы к постам автора
func (ps *PostService) RequestsForMyPosts(ctx context.Context, author string) ([]models.AccessRequest, error) {
	posts, err := ps.store.Posts.List(ctx, db.Where("author = ?", author))
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return []models.AccessRequest{}, nil
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ps.store.AccessRequests.List(ctx, db.Where("post_id IN ?", ids))
}

// decide переводит ожидающий запрос в approved/rejected; только автор поста
func (ps *PostService) decide(ctx context.Context, tx *db.Store, requestID, actor, status string) (*models.AccessRequest, *models.Post, error) {
	req, err := tx.AccessRequests.First(ctx, db.Where("id = ?", requestID))
	if err != nil {
		return nil, nil, notFound(err, "Access request not found")
	}
	post, err := ps.owned(ctx, tx, req.PostID, actor)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != models.AccessPending {
		return nil, nil, validation("Access request is already " + req.Status)
	}
	if _, err := tx.AccessRequests.UpdateWhere(ctx, db.Where("id = ?", requestID), func(r *models.AccessRequest) {
		r.Status = status
	}); err != nil {
		return nil, nil, err
	}
	req.Status = status
	return req, post, nil
}

// GrantAccess одобряет запрос и выдает разрешение в одной транзакции
func (ps *PostService) GrantAccess(ctx context.Context, requestID, actor string) (*models.AccessGrant, error) {
	var grant *models.AccessGrant
	var post *models.Post
	err := ps.store.Atomically(ctx, func(tx *db.Store) error {
		req, p, err := ps.decide(ctx, tx, requestID, actor, models.AccessApproved)
		if err != nil {
			return err
		}
		post = p
		grant = &models.AccessGrant{
			ID:             uuid.NewString(),
			PostID:         req.PostID,
			ViewerUsername: req.RequesterUsername,
			GrantedBy:      actor,
			CreatedAt:      time.Now().UTC(),
		}
		return tx.AccessGrants.Append(ctx, grant)
	},
		ps.store.Posts.Name(),
		ps.store.AccessRequests.Name(),
		ps.store.AccessGrants.Name(),
	)
	if err != nil {
		return nil, err
	}

	log.Printf("DEBUG: access to post %s granted to %s", grant.PostID, grant.ViewerUsername)
	ps.notifier.Notify(ctx, Event{
		Event:     EventAccessGranted,
		Recipient: grant.ViewerUsername,
		Actor:     actor,
		PostID:    grant.PostID,
		Message:   post.Title,
	})
	return grant, nil
}

func (ps *PostService) RejectAccess(ctx context.Context, requestID, actor string) (*models.AccessRequest, error) {
	var req *models.AccessRequest
	var post *models.Post
	err := ps.store.Atomically(ctx, func(tx *db.Store) error {
		var err error
		req, post, err = ps.decide(ctx, tx, requestID, actor, models.AccessRejected)
		return err
	}, ps.store.Posts.Name(), ps.store.AccessRequests.Name())
	if err != nil {
		return nil, err
	}

	ps.notifier.Notify(ctx, Event{
		Event:     EventAccessRejected,
		Recipient: req.RequesterUsername,
		Actor:     actor,
		PostID:    req.PostID,
		Message:   post.Title,
	})
	return req, nil
}

// RevokeAccess удаляет разрешение. Статус исходного запроса остается approved.
func (ps *PostService) RevokeAccess(ctx context.Context, grantID, actor string) error {
	var grant *models.AccessGrant
	err := ps.store.Atomically(ctx, func(tx *db.Store) error {
		g, err := tx.AccessGrants.First(ctx, db.Where("id = ?", grantID))
		if err != nil {
			return notFound(err, "Access not found")
		}
		if g.GrantedBy != actor {
			post, err := tx.Posts.First(ctx, db.Where("id = ?", g.PostID))
			if err != nil && !errors.Is(err, db.ErrNotFound) {
				return err
			}
			if post == nil || post.Author != actor {
				return denied("Only the post author can revoke access")
			}
		}
		grant = g
		_, err = tx.AccessGrants.DeleteWhere(ctx, db.Where("id = ?", grantID))
		return err
	}, ps.store.Posts.Name(), ps.store.AccessGrants.Name())
	if err != nil {
		return err
	}

	log.Printf("DEBUG: access %s to post %s revoked", grantID, grant.PostID)
	ps.notifier.Notify(ctx, Event{
		Event:     EventAccessRevoked,
		Recipient: grant.ViewerUsername,
		Actor:     actor,
		PostID:    grant.PostID,
	})
	return nil
}
