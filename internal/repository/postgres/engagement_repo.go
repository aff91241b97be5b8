package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// EngagementRepo implements EngagementRepository using PostgreSQL.
// Comments and ratings reference their post through recipe_id or blog_id.
type EngagementRepo struct{ db *DB }

// NewEngagementRepo constructs an engagement repository.
func NewEngagementRepo(db *DB) *EngagementRepo { return &EngagementRepo{db: db} }

var _ repository.EngagementRepository = (*EngagementRepo)(nil)

type postRef struct{ table, fk string }

func refFor(kind model.PostKind) (postRef, error) {
	switch kind {
	case model.KindRecipe:
		return postRef{table: "recipes", fk: "recipe_id"}, nil
	case model.KindBlog:
		return postRef{table: "blogs", fk: "blog_id"}, nil
	default:
		return postRef{}, fmt.Errorf("%w: unknown post kind %q", errs.ErrValidation, kind)
	}
}

// OwnerOf returns the author of a post.
func (r *EngagementRepo) OwnerOf(ctx context.Context, kind model.PostKind, postID uuid.UUID) (*uuid.UUID, error) {
	ref, err := refFor(kind)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT author_id FROM %s WHERE id=$1`, ref.table)
	var owner *uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, postID).Scan(&owner); err != nil {
		return nil, notFound(err)
	}
	return owner, nil
}

// AddRating inserts a rating; a second rating by the same user is a conflict.
func (r *EngagementRepo) AddRating(ctx context.Context, kind model.PostKind, postID, userID uuid.UUID, value int) error {
	ref, err := refFor(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`
INSERT INTO ratings (%s, user_id, value)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`, ref.fk)
	tag, err := r.db.Pool.Exec(ctx, q, postID, userID, value)
	switch {
	case isForeignKeyViolation(err):
		return errs.ErrNotFound
	case err != nil:
		return err
	case tag.RowsAffected() == 0:
		return fmt.Errorf("already rated: %w", errs.ErrConflict)
	}
	return nil
}

// AddComment inserts c and fills CreatedAt and the author projection.
func (r *EngagementRepo) AddComment(ctx context.Context, kind model.PostKind, c *model.Comment) error {
	ref, err := refFor(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`
WITH ins AS (
    INSERT INTO comments (id, %s, author_id, body)
    VALUES ($1, $2, $3, $4)
    RETURNING author_id, created_at
)
SELECT ins.created_at, u.name, u.profile_picture
FROM ins JOIN users u ON u.id = ins.author_id`, ref.fk)
	err = r.db.Pool.QueryRow(ctx, q, c.ID, c.PostID, c.Author.ID, c.Body).
		Scan(&c.CreatedAt, &c.Author.Name, &c.Author.ProfilePicture)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return notFound(err)
}

// CommentAuthor returns who wrote the comment.
func (r *EngagementRepo) CommentAuthor(ctx context.Context, kind model.PostKind, postID, commentID uuid.UUID) (uuid.UUID, error) {
	ref, err := refFor(kind)
	if err != nil {
		return uuid.Nil, err
	}
	q := fmt.Sprintf(`SELECT author_id FROM comments WHERE id=$1 AND %s=$2`, ref.fk)
	var author uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, commentID, postID).Scan(&author); err != nil {
		return uuid.Nil, notFound(err)
	}
	return author, nil
}

// DeleteComment removes a comment only if authorID wrote it.
func (r *EngagementRepo) DeleteComment(ctx context.Context, kind model.PostKind, postID, commentID, authorID uuid.UUID) error {
	ref, err := refFor(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`DELETE FROM comments WHERE id=$1 AND %s=$2 AND author_id=$3`, ref.fk)
	tag, err := r.db.Pool.Exec(ctx, q, commentID, postID, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Ratings loads ratings for many posts in one query.
func (r *EngagementRepo) Ratings(ctx context.Context, kind model.PostKind, postIDs []uuid.UUID) (map[uuid.UUID][]model.Rating, error) {
	ref, err := refFor(kind)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]model.Rating, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	q := fmt.Sprintf(`
SELECT %[1]s, user_id, value
FROM ratings
WHERE %[1]s = ANY($1::uuid[])
ORDER BY created_at ASC`, ref.fk)
	rows, err := r.db.Pool.Query(ctx, q, uuidStrings(postIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			postID uuid.UUID
			rt     model.Rating
		)
		if err := rows.Scan(&postID, &rt.UserID, &rt.Value); err != nil {
			return nil, err
		}
		out[postID] = append(out[postID], rt)
	}
	return out, rows.Err()
}

// Comments loads comments for many posts in one query, oldest first.
func (r *EngagementRepo) Comments(ctx context.Context, kind model.PostKind, postIDs []uuid.UUID) (map[uuid.UUID][]model.Comment, error) {
	ref, err := refFor(kind)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]model.Comment, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	q := fmt.Sprintf(`
SELECT c.id, c.%[1]s, c.author_id, u.name, u.profile_picture, c.body, c.created_at
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.%[1]s = ANY($1::uuid[])
ORDER BY c.created_at ASC`, ref.fk)
	rows, err := r.db.Pool.Query(ctx, q, uuidStrings(postIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Author.ID, &c.Author.Name, &c.Author.ProfilePicture, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out[c.PostID] = append(out[c.PostID], c)
	}
	return out, rows.Err()
}
