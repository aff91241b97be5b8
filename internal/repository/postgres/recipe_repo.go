package postgres

import (
	"context"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// RecipeRepo implements RecipeRepository using PostgreSQL.
type RecipeRepo struct{ db *DB }

// NewRecipeRepo constructs a recipe repository.
func NewRecipeRepo(db *DB) *RecipeRepo { return &RecipeRepo{db: db} }

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

const recipeSelect = `
SELECT r.id, r.title, r.author_id, COALESCE(u.name, ''), r.description, r.image,
       r.cooking_time, r.calories, r.ingredients, r.instructions, r.created_at, r.updated_at
FROM %s r
LEFT JOIN users u ON u.id = r.author_id`

func scanRecipe(row pgx.Row) (*model.Recipe, error) {
	var rc model.Recipe
	if err := row.Scan(&rc.ID, &rc.Title, &rc.AuthorID, &rc.AuthorName, &rc.Description, &rc.Image,
		&rc.CookingTime, &rc.Calories, &rc.Ingredients, &rc.Instructions, &rc.CreatedAt, &rc.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &rc, nil
}

// List returns all recipes, newest first.
func (r *RecipeRepo) List(ctx context.Context) ([]model.Recipe, error) {
	q := sprintf(recipeSelect, "recipes") + `
ORDER BY r.created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Recipe{}
	for rows.Next() {
		rc, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rc)
	}
	return out, rows.Err()
}

// Get loads a single recipe.
func (r *RecipeRepo) Get(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	q := sprintf(recipeSelect, "recipes") + `
WHERE r.id=$1`
	return scanRecipe(r.db.Pool.QueryRow(ctx, q, id))
}

// Create inserts a recipe row.
func (r *RecipeRepo) Create(ctx context.Context, rc *model.Recipe) error {
	const q = `
INSERT INTO recipes (id, title, author_id, description, image, cooking_time, calories, ingredients, instructions)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Pool.Exec(ctx, q, rc.ID, rc.Title, rc.AuthorID, rc.Description, rc.Image,
		rc.CookingTime, rc.Calories, rc.Ingredients, rc.Instructions)
	if isUniqueViolation(err) {
		return errs.ErrConflict
	}
	return err
}

// Update rewrites the editable fields and returns the updated row with its author name.
func (r *RecipeRepo) Update(ctx context.Context, id uuid.UUID, in model.RecipeInput) (*model.Recipe, error) {
	q := `
WITH upd AS (
    UPDATE recipes
    SET title=$2, description=$3, image=$4, cooking_time=$5, calories=$6,
        ingredients=$7, instructions=$8, updated_at=now()
    WHERE id=$1
    RETURNING *
)` + sprintf(recipeSelect, "upd")
	return scanRecipe(r.db.Pool.QueryRow(ctx, q, id, in.Title, in.Description, in.Image,
		in.CookingTime, in.Calories, in.Ingredients, in.Instructions))
}

// Delete removes a recipe; comments and ratings cascade.
func (r *RecipeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM recipes WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
