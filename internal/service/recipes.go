package service

import (
	"context"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/and161185/recipen/internal/token"
	"github.com/gofrs/uuid/v5"
)

// RecipeService defines recipe CRUD, engagement and the favorites toggle.
type RecipeService interface {
	List(ctx context.Context) ([]model.Recipe, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	Create(ctx context.Context, author uuid.UUID, in model.RecipeInput) (uuid.UUID, error)
	Update(ctx context.Context, requester, id uuid.UUID, in model.RecipeInput) (*model.Recipe, error)
	Delete(ctx context.Context, requester, id uuid.UUID) error
	Rate(ctx context.Context, requester, id uuid.UUID, value int) error
	AddComment(ctx context.Context, requester, id uuid.UUID, body string) (*model.Comment, error)
	DeleteComment(ctx context.Context, requester, id, commentID uuid.UUID) error
	// ToggleFavorite flips id in the requester's favorites and returns a reissued access token.
	ToggleFavorite(ctx context.Context, requester, id uuid.UUID) (string, error)
}

type RecipeServiceImpl struct {
	engagement
	recipes repository.RecipeRepository
	users   repository.UserRepository
	issuer  *token.Issuer
	policy  TokenPolicy
}

var _ RecipeService = (*RecipeServiceImpl)(nil)

// NewRecipeService constructs RecipeService.
func NewRecipeService(recipes repository.RecipeRepository, eng repository.EngagementRepository,
	users repository.UserRepository, issuer *token.Issuer, policy TokenPolicy) *RecipeServiceImpl {
	return &RecipeServiceImpl{
		engagement: engagement{eng: eng, kind: model.KindRecipe},
		recipes:    recipes,
		users:      users,
		issuer:     issuer,
		policy:     policy,
	}
}

// List returns every recipe with its ratings and comments.
func (s *RecipeServiceImpl) List(ctx context.Context) ([]model.Recipe, error) {
	list, err := s.recipes.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	ratings, comments, err := s.attach(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Ratings = orEmpty(ratings[list[i].ID])
		list[i].Comments = orEmpty(comments[list[i].ID])
	}
	return list, nil
}

// Get returns one recipe with its ratings and comments.
func (s *RecipeServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	rc, err := s.recipes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ratings, comments, err := s.attach(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	rc.Ratings = orEmpty(ratings[id])
	rc.Comments = orEmpty(comments[id])
	return rc, nil
}

// Create stores a new recipe owned by author.
func (s *RecipeServiceImpl) Create(ctx context.Context, author uuid.UUID, in model.RecipeInput) (uuid.UUID, error) {
	if !in.Complete() {
		return uuid.Nil, errs.ErrIncomplete
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	rc := &model.Recipe{
		ID:           id,
		Title:        in.Title,
		AuthorID:     &author,
		Description:  in.Description,
		Image:        in.Image,
		CookingTime:  in.CookingTime,
		Calories:     in.Calories,
		Ingredients:  in.Ingredients,
		Instructions: in.Instructions,
	}
	if err := s.recipes.Create(ctx, rc); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Update rewrites a recipe owned by requester.
func (s *RecipeServiceImpl) Update(ctx context.Context, requester, id uuid.UUID, in model.RecipeInput) (*model.Recipe, error) {
	if !in.Complete() {
		return nil, errs.ErrIncomplete
	}
	if err := s.authorizeOwner(ctx, id, requester); err != nil {
		return nil, err
	}
	if _, err := s.recipes.Update(ctx, id, in); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a recipe owned by requester.
func (s *RecipeServiceImpl) Delete(ctx context.Context, requester, id uuid.UUID) error {
	if err := s.authorizeOwner(ctx, id, requester); err != nil {
		return err
	}
	return s.recipes.Delete(ctx, id)
}

// ToggleFavorite adds or removes id from the requester's favorites atomically.
func (s *RecipeServiceImpl) ToggleFavorite(ctx context.Context, requester, id uuid.UUID) (string, error) {
	if _, err := s.eng.OwnerOf(ctx, model.KindRecipe, id); err != nil {
		return "", err
	}
	u, err := s.users.ToggleFavorite(ctx, requester, id)
	if err != nil {
		return "", err
	}
	access, _, err := s.issuer.IssueAccess(u.Identity(), s.policy.ReissueTTL)
	return access, err
}
