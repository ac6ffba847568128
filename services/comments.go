package services

import (
	"context"
	"errors"
	"log"
	"time"

	"blog/db"
	"blog/models"

	"github.com/google/uuid"
)

type CommentService struct {
	store    *db.Store
	access   *AccessControl
	cache    *FeedCache
	notifier *Notifier
}

func NewCommentService(store *db.Store, access *AccessControl, cache *FeedCache, notifier *Notifier) *CommentService {
	return &CommentService{store: store, access: access, cache: cache, notifier: notifier}
}

// gate пропускает только тех, кто видит пост целиком
func (cs *CommentService) gate(ctx context.Context, postID, viewer string) (*models.Post, error) {
	res, err := cs.access.Resolve(ctx, postID, viewer)
	if err != nil {
		return nil, err
	}
	// несуществующий пост неотличим от закрытого
	if res.Kind != Visible {
		return nil, denied("access denied")
	}
	return &res.Post, nil
}

func (cs *CommentService) Create(ctx context.Context, postID, author, content string) (*models.Comment, error) {
	content = StripTags(content)
	if content == "" {
		return nil, validation("Comment content is required")
	}
	post, err := cs.gate(ctx, postID, author)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:             uuid.NewString(),
		PostID:         postID,
		AuthorUsername: author,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := cs.store.Comments.Append(ctx, comment); err != nil {
		log.Printf("ERROR: Failed to create comment on post %s: %v", postID, err)
		return nil, err
	}
	log.Printf("DEBUG: comment %s created on post %s by %s", comment.ID, postID, author)

	if post.IsPublic {
		cs.cache.Invalidate(ctx, PublicFeedKey)
	}
	cs.notifier.Notify(ctx, Event{
		Event:     EventCommentCreated,
		Recipient: post.Author,
		Actor:     author,
		PostID:    postID,
		Message:   content,
	})
	return comment, nil
}

// List возвращает комментарии в порядке добавления
func (cs *CommentService) List(ctx context.Context, postID, viewer string) ([]models.Comment, error) {
	if _, err := cs.gate(ctx, postID, viewer); err != nil {
		return nil, err
	}
	return cs.store.Comments.List(ctx, db.Where("post_id = ?", postID))
}

// Latest - самый свежий комментарий поста или nil
func (cs *CommentService) Latest(ctx context.Context, postID string) (*models.Comment, error) {
	c, err := cs.store.Comments.Latest(ctx, db.Where("post_id = ?", postID))
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LatestByPost - самый свежий комментарий для каждого из постов одним запросом
func (cs *CommentService) LatestByPost(ctx context.Context, postIDs []string) (map[string]*models.Comment, error) {
	latest := make(map[string]*models.Comment, len(postIDs))
	if len(postIDs) == 0 {
		return latest, nil
	}
	comments, err := cs.store.Comments.List(ctx, db.Where("post_id IN ?", postIDs))
	if err != nil {
		return nil, err
	}
	for i := range comments {
		c := &comments[i]
		if cur, ok := latest[c.PostID]; !ok || c.CreatedAt.After(cur.CreatedAt) {
			latest[c.PostID] = c
		}
	}
	return latest, nil
}
