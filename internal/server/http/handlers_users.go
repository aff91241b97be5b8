package httpserver

import (
	"net/http"

	"github.com/and161185/recipen/internal/convert"
)

type subscriptionResponse struct {
	URL         string `json:"url"`
	AccessToken string `json:"accessToken"`
}

// listUsers returns every account except the calling admin.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Users.List(r.Context(), requester(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convert.ToUsers(list))
}

// updateProfile rewrites the caller's own profile and returns a fresh access token.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req convert.ProfileRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	access, err := s.svc.Users.UpdateProfile(r.Context(), requester(r), req.Model())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: access})
}

func (s *Server) disableUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Users.Disable(r.Context(), requester(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// subscribe starts checkout and grants the pro role.
func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	sub, err := s.svc.Users.Subscribe(r.Context(), requester(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{URL: sub.URL, AccessToken: sub.AccessToken})
}
