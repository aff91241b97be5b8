package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/mux"

	"github.com/and161185/recipen/internal/convert"
	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/model"
)

// engager is the engagement surface recipes and blogs share.
type engager interface {
	Rate(ctx context.Context, requester, id uuid.UUID, value int) error
	AddComment(ctx context.Context, requester, id uuid.UUID, body string) (*model.Comment, error)
	DeleteComment(ctx context.Context, requester, id, commentID uuid.UUID) error
}

type ratingRequest struct {
	Rating int `json:"rating"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// pathID parses a UUID route variable.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := convert.ParseID(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", errs.ErrValidation, name)
	}
	return id, nil
}

// requester returns the caller id; guarded routes always carry an identity.
func requester(r *http.Request) uuid.UUID {
	id, _ := IdentityFromCtx(r.Context())
	return id.UserID
}

func message(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// --- recipes ---

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Recipes.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToRecipes(list))
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, err := s.svc.Recipes.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToRecipe(*rc))
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	var req convert.RecipeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.svc.Recipes.Create(r.Context(), requester(r), req.Model()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"success": "Recipe added successfully"})
}

func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req convert.RecipeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rc, err := s.svc.Recipes.Update(r.Context(), requester(r), id, req.Model())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToRecipe(*rc))
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Recipes.Delete(r.Context(), requester(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toggleFavorite flips the recipe in the caller's favorites and returns a reissued token.
func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	access, err := s.svc.Recipes.ToggleFavorite(r.Context(), requester(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: access})
}

// --- blogs ---

func (s *Server) listBlogs(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Blogs.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBlogs(list))
}

func (s *Server) getBlog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.Blogs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBlog(*b))
}

func (s *Server) createBlog(w http.ResponseWriter, r *http.Request) {
	var req convert.BlogRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.svc.Blogs.Create(r.Context(), requester(r), req.Model()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"success": "Blog added successfully"})
}

func (s *Server) updateBlog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req convert.BlogRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.Blogs.Update(r.Context(), requester(r), id, req.Model())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToBlog(*b))
}

func (s *Server) deleteBlog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Blogs.Delete(r.Context(), requester(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- engagement, shared by both kinds ---

func (s *Server) rate(svc engager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req ratingRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := svc.Rate(r.Context(), requester(r), id, req.Rating); err != nil {
			s.writeError(w, r, err)
			return
		}
		message(w, http.StatusCreated, "Rating added successfully.")
	}
}

func (s *Server) addComment(svc engager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req commentRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if _, err := svc.AddComment(r.Context(), requester(r), id, req.Comment); err != nil {
			s.writeError(w, r, err)
			return
		}
		message(w, http.StatusCreated, "Comment added successfully.")
	}
}

func (s *Server) deleteComment(svc engager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		commentID, err := pathID(r, "commentId")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := svc.DeleteComment(r.Context(), requester(r), id, commentID); err != nil {
			s.writeError(w, r, err)
			return
		}
		message(w, http.StatusOK, "Comment deleted successfully.")
	}
}
