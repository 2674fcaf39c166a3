package models

import (
	"time"
)

// Like marks a post as liked by a user. At most one row exists per (post, user).
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_likes_post_user,priority:1;column:post_id" json:"postId"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_likes_post_user,priority:2;column:user_id" json:"userId"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}
