package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/gofrs/uuid/v5"
)

/************ recipes ************/

type recipeRepo Store

func (s *Store) recipeCopy(rc *model.Recipe) model.Recipe {
	c := *rc
	c.Ingredients = slices.Clone(rc.Ingredients)
	c.Instructions = slices.Clone(rc.Instructions)
	c.AuthorName = s.authorName(rc.AuthorID)
	c.Ratings, c.Comments = nil, nil
	return c
}

func (r *recipeRepo) List(_ context.Context) ([]model.Recipe, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Recipe, 0, len(s.recipes))
	for _, rc := range s.recipes {
		out = append(out, s.recipeCopy(rc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *recipeRepo) Get(_ context.Context, id uuid.UUID) (*model.Recipe, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.recipes[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := s.recipeCopy(rc)
	return &c, nil
}

func (r *recipeRepo) Create(_ context.Context, rc *model.Recipe) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.recipes[rc.ID]; dup {
		return errs.ErrConflict
	}
	c := s.recipeCopy(rc)
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.recipes[rc.ID] = &c
	return nil
}

func (r *recipeRepo) Update(_ context.Context, id uuid.UUID, in model.RecipeInput) (*model.Recipe, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.recipes[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	rc.Title, rc.Description, rc.Image = in.Title, in.Description, in.Image
	rc.CookingTime, rc.Calories = in.CookingTime, in.Calories
	rc.Ingredients = slices.Clone(in.Ingredients)
	rc.Instructions = slices.Clone(in.Instructions)
	rc.UpdatedAt = s.now()
	c := s.recipeCopy(rc)
	return &c, nil
}

func (r *recipeRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.recipes, id)
	s.cascade(model.KindRecipe, id)
	return nil
}

/************ blogs ************/

type blogRepo Store

func (s *Store) blogCopy(b *model.Blog) model.Blog {
	c := *b
	c.AuthorName = s.authorName(b.AuthorID)
	c.Ratings, c.Comments = nil, nil
	return c
}

func (r *blogRepo) List(_ context.Context) ([]model.Blog, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Blog, 0, len(s.blogs))
	for _, b := range s.blogs {
		out = append(out, s.blogCopy(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *blogRepo) Get(_ context.Context, id uuid.UUID) (*model.Blog, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blogs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := s.blogCopy(b)
	return &c, nil
}

func (r *blogRepo) Create(_ context.Context, b *model.Blog) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.blogs[b.ID]; dup {
		return errs.ErrConflict
	}
	c := s.blogCopy(b)
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.blogs[b.ID] = &c
	return nil
}

func (r *blogRepo) Update(_ context.Context, id uuid.UUID, in model.BlogInput) (*model.Blog, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blogs[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	b.Title, b.Description, b.Image = in.Title, in.Description, in.Image
	b.UpdatedAt = s.now()
	c := s.blogCopy(b)
	return &c, nil
}

func (r *blogRepo) Delete(_ context.Context, id uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blogs[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.blogs, id)
	s.cascade(model.KindBlog, id)
	return nil
}

// cascade drops ratings and comments of a deleted post; caller holds the lock.
func (s *Store) cascade(kind model.PostKind, postID uuid.UUID) {
	s.ratings = slices.DeleteFunc(s.ratings, func(rt rating) bool { return rt.kind == kind && rt.postID == postID })
	s.comments = slices.DeleteFunc(s.comments, func(c comment) bool { return c.kind == kind && c.PostID == postID })
}

/************ engagement ************/

type engagementRepo Store

// owner returns the author of a post; caller holds the lock.
func (s *Store) owner(kind model.PostKind, postID uuid.UUID) (*uuid.UUID, error) {
	switch kind {
	case model.KindRecipe:
		if rc, ok := s.recipes[postID]; ok {
			return rc.AuthorID, nil
		}
	case model.KindBlog:
		if b, ok := s.blogs[postID]; ok {
			return b.AuthorID, nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown post kind %q", errs.ErrValidation, kind)
	}
	return nil, errs.ErrNotFound
}

func (r *engagementRepo) OwnerOf(_ context.Context, kind model.PostKind, postID uuid.UUID) (*uuid.UUID, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, err := s.owner(kind, postID)
	if err != nil || owner == nil {
		return nil, err
	}
	id := *owner
	return &id, nil
}

func (r *engagementRepo) AddRating(_ context.Context, kind model.PostKind, postID, userID uuid.UUID, value int) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owner(kind, postID); err != nil {
		return err
	}
	for _, rt := range s.ratings {
		if rt.kind == kind && rt.postID == postID && rt.UserID == userID {
			return fmt.Errorf("already rated: %w", errs.ErrConflict)
		}
	}
	s.ratings = append(s.ratings, rating{kind: kind, postID: postID, Rating: model.Rating{UserID: userID, Value: value}, at: s.now()})
	return nil
}

func (r *engagementRepo) AddComment(_ context.Context, kind model.PostKind, c *model.Comment) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owner(kind, c.PostID); err != nil {
		return err
	}
	u, ok := s.users[c.Author.ID]
	if !ok {
		return errs.ErrNotFound
	}
	c.Author.Name = u.Name
	c.Author.ProfilePicture = u.ProfilePicture
	c.CreatedAt = s.now()
	s.comments = append(s.comments, comment{kind: kind, Comment: *c})
	return nil
}

func (r *engagementRepo) CommentAuthor(_ context.Context, kind model.PostKind, postID, commentID uuid.UUID) (uuid.UUID, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comments {
		if c.kind == kind && c.PostID == postID && c.ID == commentID {
			return c.Author.ID, nil
		}
	}
	return uuid.Nil, errs.ErrNotFound
}

func (r *engagementRepo) DeleteComment(_ context.Context, kind model.PostKind, postID, commentID, authorID uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.comments)
	s.comments = slices.DeleteFunc(s.comments, func(c comment) bool {
		return c.kind == kind && c.PostID == postID && c.ID == commentID && c.Author.ID == authorID
	})
	if len(s.comments) == before {
		return errs.ErrNotFound
	}
	return nil
}

func (r *engagementRepo) Ratings(_ context.Context, kind model.PostKind, postIDs []uuid.UUID) (map[uuid.UUID][]model.Rating, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID][]model.Rating, len(postIDs))
	for _, rt := range s.ratings {
		if rt.kind == kind && slices.Contains(postIDs, rt.postID) {
			out[rt.postID] = append(out[rt.postID], rt.Rating)
		}
	}
	return out, nil
}

func (r *engagementRepo) Comments(_ context.Context, kind model.PostKind, postIDs []uuid.UUID) (map[uuid.UUID][]model.Comment, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID][]model.Comment, len(postIDs))
	for _, c := range s.comments {
		if c.kind == kind && slices.Contains(postIDs, c.PostID) {
			out[c.PostID] = append(out[c.PostID], c.Comment)
		}
	}
	return out, nil
}
