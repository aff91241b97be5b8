package httpserver

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/recipen/internal/errs"
	"github.com/and161185/recipen/internal/service"
)

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// register creates a new account with the default role.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	_, err := s.svc.Auth.Register(r.Context(), service.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"success": "User registered successfully"})
}

// login opens a session: access token in the body, refresh token in the cookie.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	tok, err := s.svc.Auth.LoginWithIP(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrRateLimited):
			s.opt.Metrics.Session("login_limited")
		case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrAccountDisabled):
			s.opt.Metrics.Session("login_fail")
		}
		s.writeError(w, r, err)
		return
	}
	s.opt.Metrics.Session("login_ok")
	setRefreshCookie(w, tok.RefreshToken, s.issuer.RefreshTTL())
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: tok.AccessToken})
}

// refresh mints a new access token for the holder of the refresh cookie.
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	cookie := refreshFromRequest(r)
	if cookie == "" {
		s.writeError(w, r, errs.ErrUnauthorized)
		return
	}
	access, err := s.svc.Auth.Refresh(r.Context(), cookie)
	if err != nil {
		s.opt.Metrics.Session("refresh_fail")
		s.writeError(w, r, err)
		return
	}
	s.opt.Metrics.Session("refresh_ok")
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: access})
}

// logout is idempotent: it always answers 204 and clears the cookie it was given.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	cookie := refreshFromRequest(r)
	if cookie == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.svc.Auth.Logout(r.Context(), cookie); err != nil {
		s.log.Warn("logout: clear refresh token", zap.Error(err),
			zap.String("request_id", RequestIDFromCtx(r.Context())))
	}
	s.opt.Metrics.Session("logout")
	clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
