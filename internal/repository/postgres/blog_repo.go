package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// BlogRepo implements BlogRepository using PostgreSQL.
type BlogRepo struct{ db *DB }

// NewBlogRepo constructs a blog repository.
func NewBlogRepo(db *DB) *BlogRepo { return &BlogRepo{db: db} }

var _ repository.BlogRepository = (*BlogRepo)(nil)

const blogSelect = `
SELECT b.id, b.title, b.author_id, COALESCE(u.name, ''), b.description, b.image, b.created_at, b.updated_at
FROM %s b
LEFT JOIN users u ON u.id = b.author_id`

// sprintf only ever fills in a table or CTE name from a constant.
func sprintf(format string, table string) string { return fmt.Sprintf(format, table) }

func scanBlog(row pgx.Row) (*model.Blog, error) {
	var b model.Blog
	if err := row.Scan(&b.ID, &b.Title, &b.AuthorID, &b.AuthorName, &b.Description, &b.Image,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// List returns all blogs, newest first.
func (r *BlogRepo) List(ctx context.Context) ([]model.Blog, error) {
	q := sprintf(blogSelect, "blogs") + `
ORDER BY b.created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Get loads a single blog.
func (r *BlogRepo) Get(ctx context.Context, id uuid.UUID) (*model.Blog, error) {
	q := sprintf(blogSelect, "blogs") + `
WHERE b.id=$1`
	return scanBlog(r.db.Pool.QueryRow(ctx, q, id))
}

// Create inserts a blog row.
func (r *BlogRepo) Create(ctx context.Context, b *model.Blog) error {
	const q = `
INSERT INTO blogs (id, title, author_id, description, image)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, b.ID, b.Title, b.AuthorID, b.Description, b.Image)
	if isUniqueViolation(err) {
		return errs.ErrConflict
	}
	return err
}

// Update rewrites the editable fields and returns the updated row.
func (r *BlogRepo) Update(ctx context.Context, id uuid.UUID, in model.BlogInput) (*model.Blog, error) {
	q := `
WITH upd AS (
    UPDATE blogs
    SET title=$2, description=$3, image=$4, updated_at=now()
    WHERE id=$1
    RETURNING *
)` + sprintf(blogSelect, "upd")
	return scanBlog(r.db.Pool.QueryRow(ctx, q, id, in.Title, in.Description, in.Image))
}

// Delete removes a blog; comments and ratings cascade.
func (r *BlogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM blogs WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
