package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emojiblog/emojiblog/internal/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// IsDuplicate reports whether err came from a unique constraint rejecting an insert
func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn in a single database transaction. Repositories built
// from tx share it; any error returned by fn rolls everything back.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ListLatest returns the newest posts
func (r *PostRepository) ListLatest(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListByTagName returns the newest posts associated with the named tag
func (r *PostRepository) ListByTagName(ctx context.Context, tagName string, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("posts.*").
		Joins("INNER JOIN post_tags ON post_tags.post_id = posts.id").
		Joins("INNER JOIN tags ON tags.id = post_tags.tag_id").
		Where("tags.name = ?", tagName).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// ListByAuthor returns the newest posts written by authorID
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// EngagementCount holds aggregate counts for one post
type EngagementCount struct {
	Likes    int64
	Comments int64
}

// CountEngagement aggregates like and comment counts for postIDs. Posts
// without any engagement are absent from the map.
func (r *PostRepository) CountEngagement(ctx context.Context, postIDs []string) (map[string]EngagementCount, error) {
	counts := make(map[string]EngagementCount, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	type row struct {
		PostID string
		N      int64
	}

	var likes []row
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likes).Error; err != nil {
		return nil, err
	}
	for _, l := range likes {
		c := counts[l.PostID]
		c.Likes = l.N
		counts[l.PostID] = c
	}

	var comments []row
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&comments).Error; err != nil {
		return nil, err
	}
	for _, cm := range comments {
		c := counts[cm.PostID]
		c.Comments = cm.N
		counts[cm.PostID] = c
	}

	return counts, nil
}

// TagRepository provides tag-related database operations
type TagRepository struct {
	*Repository
}

// NewTagRepository creates a new tag repository
func NewTagRepository(repo *Repository) *TagRepository {
	return &TagRepository{Repository: repo}
}

// List returns up to limit tags in storage order
func (r *TagRepository) List(ctx context.Context, limit int) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Limit(limit).Find(&tags).Error
	return tags, err
}

// Create creates a new tag
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// CountByIDs counts how many of ids exist
func (r *TagRepository) CountByIDs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// Associate inserts post/tag join rows
func (r *TagRepository) Associate(ctx context.Context, links []models.PostTag) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&links).Error
}

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByPost returns the newest comments on a post
func (r *CommentRepository) ListByPost(ctx context.Context, postID string, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// LikeRepository provides like-related database operations
type LikeRepository struct {
	*Repository
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(repo *Repository) *LikeRepository {
	return &LikeRepository{Repository: repo}
}

// Get retrieves the like of postID by userID
func (r *LikeRepository) Get(ctx context.Context, postID, userID string) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &like, nil
}

// Create inserts a like; a second like for the same pair fails with a duplicate error
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// Delete removes a like by ID
func (r *LikeRepository) Delete(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Where("id = ?", like.ID).Delete(&models.Like{}).Error
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Upsert inserts the user or refreshes email and names of an existing row
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "updated_at"}),
	}).Create(user).Error
}
