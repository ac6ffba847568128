package services

import (
	"context"
	"errors"

	"blog/db"
	"blog/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Visibility - итог проверки доступа читателя к посту
type Visibility int

const (
	NotFound Visibility = iota
	Visible
	Redacted
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case Redacted:
		return "redacted"
	default:
		return "not_found"
	}
}

// Resolution - пост в том виде, в каком его может видеть читатель
type Resolution struct {
	Kind Visibility
	Post models.Post
}

var accessDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "blog_access_decisions_total",
		Help: "Total number of post visibility decisions",
	},
	[]string{"result"},
)

type AccessControl struct {
	store *db.Store
}

func NewAccessControl(store *db.Store) *AccessControl {
	return &AccessControl{store: store}
}

// Resolve загружает пост и решает, что из него видно читателю
func (ac *AccessControl) Resolve(ctx context.Context, postID, viewer string) (Resolution, error) {
	post, err := ac.store.Posts.First(ctx, db.Where("id = ?", postID))
	if errors.Is(err, db.ErrNotFound) {
		accessDecisions.WithLabelValues(NotFound.String()).Inc()
		return Resolution{Kind: NotFound}, nil
	}
	if err != nil {
		return Resolution{}, err
	}
	return ac.ResolvePost(ctx, *post, viewer)
}

// ResolvePost - то же, что Resolve, для уже загруженного поста
func (ac *AccessControl) ResolvePost(ctx context.Context, post models.Post, viewer string) (Resolution, error) {
	visible, err := ac.CanSee(ctx, post, viewer)
	if err != nil {
		return Resolution{}, err
	}
	res := Resolution{Kind: Visible, Post: post}
	if !visible {
		res = Resolution{Kind: Redacted, Post: post.Redacted()}
	}
	accessDecisions.WithLabelValues(res.Kind.String()).Inc()
	return res, nil
}

// CanSee: автор, публичный пост или выданное разрешение
func (ac *AccessControl) CanSee(ctx context.Context, post models.Post, viewer string) (bool, error) {
	if post.IsPublic || (viewer != "" && post.Author == viewer) {
		return true, nil
	}
	if viewer == "" {
		return false, nil
	}
	return ac.HasGrant(ctx, post.ID, viewer)
}

func (ac *AccessControl) HasGrant(ctx context.Context, postID, viewer string) (bool, error) {
	n, err := ac.store.AccessGrants.Count(ctx, db.Where("post_id = ? AND viewer_username = ?", postID, viewer))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GrantedPostIDs возвращает множество постов, на которые у читателя есть разрешение
func (ac *AccessControl) GrantedPostIDs(ctx context.Context, viewer string) (map[string]bool, error) {
	grants, err := ac.store.AccessGrants.List(ctx, db.Where("viewer_username = ?", viewer))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(grants))
	for _, g := range grants {
		ids[g.PostID] = true
	}
	return ids, nil
}
