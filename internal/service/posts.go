package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// engagement implements the operations recipes and blogs share: ownership,
// ratings and comments. It is embedded by RecipeService and BlogService.
type engagement struct {
	eng  repository.EngagementRepository
	kind model.PostKind
}

// authorizeOwner fails with ErrForbidden unless requester authored the post.
// A post whose author is gone has no owner and cannot be mutated.
func (e engagement) authorizeOwner(ctx context.Context, postID, requester uuid.UUID) error {
	owner, err := e.eng.OwnerOf(ctx, e.kind, postID)
	if err != nil {
		return err
	}
	if owner == nil || *owner != requester {
		return errs.ErrForbidden
	}
	return nil
}

// Rate records requester's rating once per post.
func (e engagement) Rate(ctx context.Context, requester, postID uuid.UUID, value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", errs.ErrValidation)
	}
	return e.eng.AddRating(ctx, e.kind, postID, requester, value)
}

// AddComment stores a comment authored by requester.
func (e engagement) AddComment(ctx context.Context, requester, postID uuid.UUID, body string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: comment is required", errs.ErrValidation)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	c := &model.Comment{ID: id, PostID: postID, Author: model.Author{ID: requester}, Body: body}
	if err := e.eng.AddComment(ctx, e.kind, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteComment removes a comment; only its author may do so.
func (e engagement) DeleteComment(ctx context.Context, requester, postID, commentID uuid.UUID) error {
	author, err := e.eng.CommentAuthor(ctx, e.kind, postID, commentID)
	if err != nil {
		return err
	}
	if author != requester {
		return errs.ErrForbidden
	}
	return e.eng.DeleteComment(ctx, e.kind, postID, commentID, requester)
}

// attach loads ratings and comments for ids, always returning non-nil slices.
func (e engagement) attach(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.Rating, map[uuid.UUID][]model.Comment, error) {
	ratings, err := e.eng.Ratings(ctx, e.kind, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load ratings: %w", err)
	}
	comments, err := e.eng.Comments(ctx, e.kind, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("load comments: %w", err)
	}
	return ratings, comments, nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
