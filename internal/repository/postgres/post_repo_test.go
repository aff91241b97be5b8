package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var recipeColumns = []string{"id", "title", "author_id", "author_name", "description", "image",
	"cooking_time", "calories", "ingredients", "instructions", "created_at", "updated_at"}

func TestRecipeRepo_ListAndGet(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecipeRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	author := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`FROM recipes r LEFT JOIN users u ON u.id = r.author_id ORDER BY r.created_at DESC`).
		WillReturnRows(pgxmock.NewRows(recipeColumns).
			AddRow(id, "Soup", &author, "Alice", "d", "img", "10m", "100", []string{"water"}, []string{"boil"}, now, now))
	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, author, *list[0].AuthorID)
	require.Equal(t, "Alice", list[0].AuthorName)

	mock.ExpectQuery(`FROM recipes r LEFT JOIN users u ON u.id = r.author_id WHERE r.id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeRepo_CreateUpdateDelete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRecipeRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	author := uuid.Must(uuid.NewV4())
	rc := &model.Recipe{ID: id, Title: "Soup", AuthorID: &author, Description: "d", Image: "img",
		CookingTime: "10m", Calories: "100", Ingredients: []string{"water"}, Instructions: []string{"boil"}}

	mock.ExpectExec(`INSERT INTO recipes \(id, title, author_id, description, image, cooking_time, calories, ingredients, instructions\)`).
		WithArgs(rc.ID, rc.Title, rc.AuthorID, rc.Description, rc.Image, rc.CookingTime, rc.Calories, rc.Ingredients, rc.Instructions).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, rc))

	in := model.RecipeInput{Title: "Stew", Description: "d2", Image: "img2", CookingTime: "1h", Calories: "300",
		Ingredients: []string{"beef"}, Instructions: []string{"simmer"}}
	now := time.Now()
	mock.ExpectQuery(`WITH upd AS \( UPDATE recipes SET title=\$2`).
		WithArgs(id, in.Title, in.Description, in.Image, in.CookingTime, in.Calories, in.Ingredients, in.Instructions).
		WillReturnRows(pgxmock.NewRows(recipeColumns).
			AddRow(id, "Stew", &author, "Alice", "d2", "img2", "1h", "300", []string{"beef"}, []string{"simmer"}, now, now))
	got, err := r.Update(ctx, id, in)
	require.NoError(t, err)
	require.Equal(t, "Stew", got.Title)

	mock.ExpectExec(`DELETE FROM recipes WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, id))

	mock.ExpectExec(`DELETE FROM recipes WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, id), errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlogRepo_Roundtrip(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBlogRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	author := uuid.Must(uuid.NewV4())
	now := time.Now()
	cols := []string{"id", "title", "author_id", "author_name", "description", "image", "created_at", "updated_at"}

	b := &model.Blog{ID: id, Title: "Hello", AuthorID: &author, Description: "d", Image: "img"}
	mock.ExpectExec(`INSERT INTO blogs \(id, title, author_id, description, image\)`).
		WithArgs(b.ID, b.Title, b.AuthorID, b.Description, b.Image).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, b))

	mock.ExpectQuery(`FROM blogs b LEFT JOIN users u ON u.id = b.author_id WHERE b.id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "Hello", &author, "Alice", "d", "img", now, now))
	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Hello", got.Title)

	mock.ExpectQuery(`ORDER BY b.created_at DESC`).
		WillReturnRows(pgxmock.NewRows(cols))
	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	in := model.BlogInput{Title: "Bye", Description: "d", Image: "img"}
	mock.ExpectQuery(`UPDATE blogs SET title=\$2, description=\$3, image=\$4`).
		WithArgs(id, in.Title, in.Description, in.Image).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Update(ctx, id, in)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectExec(`DELETE FROM blogs WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, id))
	require.NoError(t, mock.ExpectationsWereMet())
}
