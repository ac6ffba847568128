package models

import "time"

// Subscription - направленная связь: follower читает following
type Subscription struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	FollowerUsername  string    `gorm:"size:60;index:subscription_pair_idx" json:"follower_username"`
	FollowingUsername string    `gorm:"size:60;index:subscription_pair_idx" json:"following_username"`
	CreatedAt         time.Time `json:"created_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
