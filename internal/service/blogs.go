package service

import (
	"context"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
	"github.com/and161185/recipen/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// BlogService defines blog CRUD and engagement.
type BlogService interface {
	List(ctx context.Context) ([]model.Blog, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Blog, error)
	Create(ctx context.Context, author uuid.UUID, in model.BlogInput) (uuid.UUID, error)
	Update(ctx context.Context, requester, id uuid.UUID, in model.BlogInput) (*model.Blog, error)
	Delete(ctx context.Context, requester, id uuid.UUID) error
	Rate(ctx context.Context, requester, id uuid.UUID, value int) error
	AddComment(ctx context.Context, requester, id uuid.UUID, body string) (*model.Comment, error)
	DeleteComment(ctx context.Context, requester, id, commentID uuid.UUID) error
}

type BlogServiceImpl struct {
	engagement
	blogs repository.BlogRepository
}

var _ BlogService = (*BlogServiceImpl)(nil)

// NewBlogService constructs BlogService.
func NewBlogService(blogs repository.BlogRepository, eng repository.EngagementRepository) *BlogServiceImpl {
	return &BlogServiceImpl{engagement: engagement{eng: eng, kind: model.KindBlog}, blogs: blogs}
}

func (s *BlogServiceImpl) List(ctx context.Context) ([]model.Blog, error) {
	list, err := s.blogs.List(ctx)
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

func (s *BlogServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Blog, error) {
	b, err := s.blogs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ratings, comments, err := s.attach(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	b.Ratings = orEmpty(ratings[id])
	b.Comments = orEmpty(comments[id])
	return b, nil
}

func (s *BlogServiceImpl) Create(ctx context.Context, author uuid.UUID, in model.BlogInput) (uuid.UUID, error) {
	if !in.Complete() {
		return uuid.Nil, errs.ErrIncomplete
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	b := &model.Blog{ID: id, Title: in.Title, AuthorID: &author, Description: in.Description, Image: in.Image}
	if err := s.blogs.Create(ctx, b); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (s *BlogServiceImpl) Update(ctx context.Context, requester, id uuid.UUID, in model.BlogInput) (*model.Blog, error) {
	if !in.Complete() {
		return nil, errs.ErrIncomplete
	}
	if err := s.authorizeOwner(ctx, id, requester); err != nil {
		return nil, err
	}
	if _, err := s.blogs.Update(ctx, id, in); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *BlogServiceImpl) Delete(ctx context.Context, requester, id uuid.UUID) error {
	if err := s.authorizeOwner(ctx, id, requester); err != nil {
		return err
	}
	return s.blogs.Delete(ctx, id)
}
