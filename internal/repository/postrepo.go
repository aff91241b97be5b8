package repository

import (
	"context"

	"github.com/and161185/recipen/internal/model"
	"github.com/gofrs/uuid/v5"
)

// RecipeRepository stores recipe rows. Ratings and comments live in EngagementRepository.
type RecipeRepository interface {
	// List returns all recipes, newest first.
	List(ctx context.Context) ([]model.Recipe, error)
	// Get loads a recipe by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	// Create inserts a recipe; ID and AuthorID must be set.
	Create(ctx context.Context, r *model.Recipe) error
	// Update rewrites the editable fields and returns the new row.
	Update(ctx context.Context, id uuid.UUID, in model.RecipeInput) (*model.Recipe, error)
	// Delete removes a recipe with its comments and ratings.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlogRepository stores blog rows.
type BlogRepository interface {
	List(ctx context.Context) ([]model.Blog, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Blog, error)
	Create(ctx context.Context, b *model.Blog) error
	Update(ctx context.Context, id uuid.UUID, in model.BlogInput) (*model.Blog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// EngagementRepository handles ownership lookups, ratings and comments for both post kinds.
type EngagementRepository interface {
	// OwnerOf returns the post author; nil when the author no longer exists.
	OwnerOf(ctx context.Context, kind model.PostKind, postID uuid.UUID) (*uuid.UUID, error)
	// AddRating records a rating once per (post, user); repeats yield errs.ErrConflict.
	AddRating(ctx context.Context, kind model.PostKind, postID, userID uuid.UUID, value int) error
	// AddComment inserts a comment and fills in its author projection.
	AddComment(ctx context.Context, kind model.PostKind, c *model.Comment) error
	// CommentAuthor returns the author of a comment on the given post.
	CommentAuthor(ctx context.Context, kind model.PostKind, postID, commentID uuid.UUID) (uuid.UUID, error)
	// DeleteComment removes a comment written by authorID.
	DeleteComment(ctx context.Context, kind model.PostKind, postID, commentID, authorID uuid.UUID) error
	// Ratings returns the ratings of the given posts keyed by post ID.
	Ratings(ctx context.Context, kind model.PostKind, postIDs []uuid.UUID) (map[uuid.UUID][]model.Rating, error)
	// Comments returns the comments of the given posts keyed by post ID, oldest first.
	Comments(ctx context.Context, kind model.PostKind, postIDs []uuid.UUID) (map[uuid.UUID][]model.Comment, error)
}
