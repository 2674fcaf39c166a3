package models

import (
	"time"
)

// Comment is a reply to a post
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	Content   string    `gorm:"type:varchar(1000);not null;column:content" json:"content"`
	PostID    string    `gorm:"type:varchar(36);not null;index:idx_comments_post_id;column:post_id" json:"postId"`
	UserID    string    `gorm:"type:varchar(64);not null;index:idx_comments_user_id;column:user_id" json:"userId"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
