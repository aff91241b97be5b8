package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestEngagementRepo_UnknownKind(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEngagementRepo(db)

	_, err := r.OwnerOf(context.Background(), model.PostKind("video"), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestEngagementRepo_OwnerOf(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEngagementRepo(db)
	ctx := context.Background()
	post := uuid.Must(uuid.NewV4())
	owner := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT author_id FROM recipes WHERE id=\$1`).
		WithArgs(post).
		WillReturnRows(pgxmock.NewRows([]string{"author_id"}).AddRow(&owner))
	got, err := r.OwnerOf(ctx, model.KindRecipe, post)
	require.NoError(t, err)
	require.Equal(t, owner, *got)

	mock.ExpectQuery(`SELECT author_id FROM blogs WHERE id=\$1`).
		WithArgs(post).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.OwnerOf(ctx, model.KindBlog, post)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepo_AddRating(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEngagementRepo(db)
	ctx := context.Background()
	post := uuid.Must(uuid.NewV4())
	user := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`INSERT INTO ratings \(recipe_id, user_id, value\) VALUES \(\$1, \$2, \$3\) ON CONFLICT DO NOTHING`).
		WithArgs(post, user, 4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.AddRating(ctx, model.KindRecipe, post, user, 4))

	// second rating by the same user
	mock.ExpectExec(`INSERT INTO ratings \(recipe_id, user_id, value\)`).
		WithArgs(post, user, 5).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	require.ErrorIs(t, r.AddRating(ctx, model.KindRecipe, post, user, 5), errs.ErrConflict)

	// missing post
	mock.ExpectExec(`INSERT INTO ratings \(blog_id, user_id, value\)`).
		WithArgs(post, user, 3).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	require.ErrorIs(t, r.AddRating(ctx, model.KindBlog, post, user, 3), errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepo_Comments(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEngagementRepo(db)
	ctx := context.Background()
	post := uuid.Must(uuid.NewV4())
	user := uuid.Must(uuid.NewV4())
	cid := uuid.Must(uuid.NewV4())
	now := time.Now()

	c := &model.Comment{ID: cid, PostID: post, Author: model.Author{ID: user}, Body: "nice"}
	mock.ExpectQuery(`INSERT INTO comments \(id, blog_id, author_id, body\)`).
		WithArgs(cid, post, user, "nice").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "name", "profile_picture"}).AddRow(now, "Alice", "pic"))
	require.NoError(t, r.AddComment(ctx, model.KindBlog, c))
	require.Equal(t, "Alice", c.Author.Name)
	require.Equal(t, now, c.CreatedAt)

	mock.ExpectQuery(`SELECT author_id FROM comments WHERE id=\$1 AND blog_id=\$2`).
		WithArgs(cid, post).
		WillReturnRows(pgxmock.NewRows([]string{"author_id"}).AddRow(user))
	author, err := r.CommentAuthor(ctx, model.KindBlog, post, cid)
	require.NoError(t, err)
	require.Equal(t, user, author)

	mock.ExpectExec(`DELETE FROM comments WHERE id=\$1 AND blog_id=\$2 AND author_id=\$3`).
		WithArgs(cid, post, user).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.DeleteComment(ctx, model.KindBlog, post, cid, user))

	mock.ExpectExec(`DELETE FROM comments`).
		WithArgs(cid, post, user).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.DeleteComment(ctx, model.KindBlog, post, cid, user), errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEngagementRepo_BatchLoads(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewEngagementRepo(db)
	ctx := context.Background()
	p1 := uuid.Must(uuid.NewV4())
	p2 := uuid.Must(uuid.NewV4())
	user := uuid.Must(uuid.NewV4())
	now := time.Now()

	// no ids, no query
	ratings, err := r.Ratings(ctx, model.KindRecipe, nil)
	require.NoError(t, err)
	require.Empty(t, ratings)

	mock.ExpectQuery(`SELECT recipe_id, user_id, value FROM ratings WHERE recipe_id = ANY\(\$1::uuid\[\]\)`).
		WithArgs([]string{p1.String(), p2.String()}).
		WillReturnRows(pgxmock.NewRows([]string{"recipe_id", "user_id", "value"}).
			AddRow(p1, user, 5).
			AddRow(p1, uuid.Must(uuid.NewV4()), 3))
	ratings, err = r.Ratings(ctx, model.KindRecipe, []uuid.UUID{p1, p2})
	require.NoError(t, err)
	require.Len(t, ratings[p1], 2)
	require.Empty(t, ratings[p2])

	mock.ExpectQuery(`FROM comments c JOIN users u ON u.id = c.author_id WHERE c.recipe_id = ANY\(\$1::uuid\[\]\)`).
		WithArgs([]string{p2.String()}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "recipe_id", "author_id", "name", "profile_picture", "body", "created_at"}).
			AddRow(uuid.Must(uuid.NewV4()), p2, user, "Alice", "", "yum", now))
	comments, err := r.Comments(ctx, model.KindRecipe, []uuid.UUID{p2})
	require.NoError(t, err)
	require.Len(t, comments[p2], 1)
	require.Equal(t, "yum", comments[p2][0].Body)
	require.NoError(t, mock.ExpectationsWereMet())
}
