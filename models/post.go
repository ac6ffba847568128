package models

import "time"

// Статусы запроса на доступ к приватному посту
const (
	AccessPending  = "pending"
	AccessApproved = "approved"
	AccessRejected = "rejected"
)

// Post - модель поста пользователя
type Post struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	IsPublic  bool      `gorm:"index" json:"is_public"`
	Tags      []string  `gorm:"serializer:json" json:"tags"`
	Author    string    `gorm:"size:60;index" json:"author"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// Redacted возвращает копию поста без содержимого и тегов
func (p Post) Redacted() Post {
	p.Content = ""
	p.Tags = []string{}
	return p
}

// AccessRequest - запрос читателя на доступ к приватному посту
type AccessRequest struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	PostID            string    `gorm:"size:36;index" json:"post_id"`
	RequesterUsername string    `gorm:"size:60;index" json:"requester_username"`
	Status            string    `gorm:"size:20" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func (AccessRequest) TableName() string {
	return "access_requests"
}

// AccessGrant - разрешение одному читателю видеть один приватный пост
type AccessGrant struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	PostID         string    `gorm:"size:36;index:grant_post_viewer_idx" json:"post_id"`
	ViewerUsername string    `gorm:"size:60;index:grant_post_viewer_idx" json:"viewer_username"`
	GrantedBy      string    `gorm:"size:60" json:"granted_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func (AccessGrant) TableName() string {
	return "access_grants"
}

type Comment struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	PostID         string    `gorm:"size:36;index" json:"post_id"`
	AuthorUsername string    `gorm:"size:60" json:"author_username"`
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// PostWithDetails - пост в ленте с информацией о подписке, доступе и последнем комментарии
type PostWithDetails struct {
	Post
	AccessStatus  string   `json:"access_status"`
	IsSubscribed  *bool    `json:"is_subscribed,omitempty"`
	LatestComment *Comment `json:"latest_comment"`
}
