package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/recipen/internal/client"
	"github.com/and161185/recipen/internal/token"
)

// session is what survives between CLI runs: the bearer token and the refresh cookie.
type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "recipen")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "recipen")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

// loadSession returns an empty session when none was saved.
// An expired access token is kept: the client refreshes it on first use.
func loadSession() (session, error) {
	var s session
	b, err := os.ReadFile(sessionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return session{}, err
	}
	return s, nil
}

func saveSession(s session) error {
	if s.AccessToken == "" && s.RefreshToken == "" {
		err := os.Remove(sessionPath())
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), b, 0o600)
}

// snapshot captures the client's current credentials for saveSession.
func snapshot(c *client.Client) session {
	return session{AccessToken: c.Token(), RefreshToken: c.RefreshCookie()}
}

// peekClaims decodes the access token without verifying it; display only.
func peekClaims(tok string) (*token.AccessClaims, error) {
	var claims token.AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}
