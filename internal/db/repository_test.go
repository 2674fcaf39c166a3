package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/db/dbtest"
	"github.com/emojiblog/emojiblog/internal/models"
)

func seedPost(t *testing.T, repo *db.Repository, author string, at time.Time) models.Post {
	t.Helper()
	post := models.Post{ID: uuid.NewString(), Title: "t", Content: "🙂", AuthorID: author, CreatedAt: at}
	if err := db.NewPostRepository(repo).Create(context.Background(), &post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func TestLikeRepository_UniquePair(t *testing.T) {
	database := dbtest.New(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()
	post := seedPost(t, repo, "user_a", time.Now().UTC())

	likes := db.NewLikeRepository(repo)
	first := models.Like{ID: uuid.NewString(), PostID: post.ID, UserID: "user_b", CreatedAt: time.Now().UTC()}
	if err := likes.Create(ctx, &first); err != nil {
		t.Fatalf("first like: %v", err)
	}

	second := models.Like{ID: uuid.NewString(), PostID: post.ID, UserID: "user_b", CreatedAt: time.Now().UTC()}
	err := likes.Create(ctx, &second)
	if err == nil {
		t.Fatal("expected duplicate like to be rejected")
	}
	if !db.IsDuplicate(err) {
		t.Errorf("expected duplicate error, got %v", err)
	}

	var n int64
	if err := database.DB.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 like, got %d", n)
	}
}

func TestPostRepository_ListByTagName(t *testing.T) {
	database := dbtest.New(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tagRepo := db.NewTagRepository(repo)
	food := models.Tag{ID: uuid.NewString(), Name: "food"}
	pets := models.Tag{ID: uuid.NewString(), Name: "pets"}
	for _, tag := range []*models.Tag{&food, &pets} {
		if err := tagRepo.Create(ctx, tag); err != nil {
			t.Fatalf("create tag: %v", err)
		}
	}

	older := seedPost(t, repo, "a", base)
	newer := seedPost(t, repo, "a", base.Add(time.Minute))
	untagged := seedPost(t, repo, "a", base.Add(2*time.Minute))

	if err := tagRepo.Associate(ctx, []models.PostTag{
		{PostID: older.ID, TagID: food.ID},
		{PostID: newer.ID, TagID: food.ID},
		{PostID: newer.ID, TagID: pets.ID},
	}); err != nil {
		t.Fatalf("associate: %v", err)
	}

	posts, err := db.NewPostRepository(repo).ListByTagName(ctx, "food", 100)
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != newer.ID || posts[1].ID != older.ID {
		t.Errorf("expected newest first, got %s then %s", posts[0].ID, posts[1].ID)
	}
	for _, p := range posts {
		if p.ID == untagged.ID {
			t.Error("untagged post must not be listed")
		}
	}
}

func TestPostRepository_CountEngagement(t *testing.T) {
	database := dbtest.New(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()
	now := time.Now().UTC()

	busy := seedPost(t, repo, "a", now)
	quiet := seedPost(t, repo, "a", now)

	likes := db.NewLikeRepository(repo)
	comments := db.NewCommentRepository(repo)
	for _, user := range []string{"u1", "u2"} {
		if err := likes.Create(ctx, &models.Like{ID: uuid.NewString(), PostID: busy.ID, UserID: user, CreatedAt: now}); err != nil {
			t.Fatalf("like: %v", err)
		}
	}
	if err := comments.Create(ctx, &models.Comment{ID: uuid.NewString(), PostID: busy.ID, UserID: "u1", Content: "nice", CreatedAt: now}); err != nil {
		t.Fatalf("comment: %v", err)
	}

	counts, err := db.NewPostRepository(repo).CountEngagement(ctx, []string{busy.ID, quiet.ID})
	if err != nil {
		t.Fatalf("count engagement: %v", err)
	}
	if got := counts[busy.ID]; got.Likes != 2 || got.Comments != 1 {
		t.Errorf("busy counts = %+v, want likes=2 comments=1", got)
	}
	if got := counts[quiet.ID]; got.Likes != 0 || got.Comments != 0 {
		t.Errorf("quiet counts = %+v, want zero", got)
	}
}

func TestUserRepository_Upsert(t *testing.T) {
	database := dbtest.New(t)
	users := db.NewUserRepository(db.NewRepository(database.DB))
	ctx := context.Background()

	first := "Ada"
	if err := users.Upsert(ctx, &models.User{ID: "user_1", Email: "old@example.com", FirstName: &first}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := users.Upsert(ctx, &models.User{ID: "user_1", Email: "new@example.com", FirstName: &first}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := users.GetByID(ctx, "user_1")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Email != "new@example.com" {
		t.Errorf("email = %q, want new@example.com", got.Email)
	}
}

func TestTransaction_RollsBack(t *testing.T) {
	database := dbtest.New(t)
	repo := db.NewRepository(database.DB)
	ctx := context.Background()

	postID := uuid.NewString()
	err := repo.Transaction(ctx, func(tx *db.Repository) error {
		if err := db.NewPostRepository(tx).Create(ctx, &models.Post{ID: postID, Title: "t", Content: "🙂", AuthorID: "a", CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		// second tag link for the same pair violates the primary key
		tagID := uuid.NewString()
		return db.NewTagRepository(tx).Associate(ctx, []models.PostTag{{PostID: postID, TagID: tagID}, {PostID: postID, TagID: tagID}})
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	post, err := db.NewPostRepository(repo).GetByID(ctx, postID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if post != nil {
		t.Error("post insert should have been rolled back")
	}
}
