package models

import (
	"time"
)

// Post is an emoji-only post owned by an identity-provider user
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	Title     string    `gorm:"type:varchar(100);not null;column:title" json:"title"`
	Content   string    `gorm:"type:text;not null;column:content" json:"content"`
	AuthorID  string    `gorm:"type:varchar(64);not null;index:idx_posts_author_id;column:author_id" json:"authorId"`
	CreatedAt time.Time `gorm:"not null;index:idx_posts_created_at;column:created_at" json:"createdAt"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// PostTag associates a post with a tag
type PostTag struct {
	PostID string `gorm:"primaryKey;type:varchar(36);column:post_id" json:"postId"`
	TagID  string `gorm:"primaryKey;type:varchar(36);index:idx_post_tags_tag_id;column:tag_id" json:"tagId"`
}

// TableName specifies the table name for PostTag
func (PostTag) TableName() string {
	return "post_tags"
}
