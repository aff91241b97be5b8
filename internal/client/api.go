package client

import (
	"context"
	"net/http"

	"github.com/and161185/recipen/internal/convert"
)

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, name, email, password, picture string) error {
	body := map[string]string{"name": name, "email": email, "password": password, "profilePicture": picture}
	return c.send(ctx, http.MethodPost, "/auth/register", body, nil)
}

// Recipes lists every recipe.
func (c *Client) Recipes(ctx context.Context) ([]convert.Recipe, error) {
	var out []convert.Recipe
	return out, c.Do(ctx, http.MethodGet, "/recipes", nil, &out)
}

// Recipe fetches one recipe.
func (c *Client) Recipe(ctx context.Context, id string) (*convert.Recipe, error) {
	var out convert.Recipe
	if err := c.Do(ctx, http.MethodGet, "/recipes/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRecipe publishes a recipe (pro and admin accounts).
func (c *Client) CreateRecipe(ctx context.Context, in convert.RecipeRequest) error {
	return c.Do(ctx, http.MethodPost, "/recipes", in, nil)
}

// DeleteRecipe removes an owned recipe.
func (c *Client) DeleteRecipe(ctx context.Context, id string) error {
	return c.DeletePost(ctx, "recipes", id)
}

// DeletePost removes an owned recipe or blog; kind is "recipes" or "blogs".
func (c *Client) DeletePost(ctx context.Context, kind, id string) error {
	return c.Do(ctx, http.MethodDelete, "/"+kind+"/"+id, nil, nil)
}

// ToggleFavorite flips a recipe in the caller's favorites; the reissued token is kept.
func (c *Client) ToggleFavorite(ctx context.Context, id string) error {
	var out tokenBody
	if err := c.Do(ctx, http.MethodPut, "/recipes/"+id+"/favorite", nil, &out); err != nil {
		return err
	}
	c.setToken(out.AccessToken)
	return nil
}

// Blogs lists every blog post.
func (c *Client) Blogs(ctx context.Context) ([]convert.Blog, error) {
	var out []convert.Blog
	return out, c.Do(ctx, http.MethodGet, "/blogs", nil, &out)
}

// CreateBlog publishes a blog post (pro and admin accounts).
func (c *Client) CreateBlog(ctx context.Context, in convert.BlogRequest) error {
	return c.Do(ctx, http.MethodPost, "/blogs", in, nil)
}

// Rate scores a recipe or blog; kind is "recipes" or "blogs".
func (c *Client) Rate(ctx context.Context, kind, id string, value int) error {
	return c.Do(ctx, http.MethodPut, "/"+kind+"/"+id+"/rating", map[string]int{"rating": value}, nil)
}

// Comment adds a comment to a recipe or blog.
func (c *Client) Comment(ctx context.Context, kind, id, text string) error {
	return c.Do(ctx, http.MethodPost, "/"+kind+"/"+id+"/comments", map[string]string{"comment": text}, nil)
}

// DeleteComment removes one of the caller's comments.
func (c *Client) DeleteComment(ctx context.Context, kind, id, commentID string) error {
	return c.Do(ctx, http.MethodDelete, "/"+kind+"/"+id+"/comments/"+commentID, nil, nil)
}

// UpdateProfile changes the caller's profile; the reissued token is kept.
func (c *Client) UpdateProfile(ctx context.Context, in convert.ProfileRequest) error {
	var out tokenBody
	if err := c.Do(ctx, http.MethodPut, "/users/me", in, &out); err != nil {
		return err
	}
	c.setToken(out.AccessToken)
	return nil
}

// Subscribe starts checkout and returns its URL; the reissued token is kept.
func (c *Client) Subscribe(ctx context.Context) (string, error) {
	var out struct {
		URL         string `json:"url"`
		AccessToken string `json:"accessToken"`
	}
	if err := c.Do(ctx, http.MethodPost, "/subscriptions", nil, &out); err != nil {
		return "", err
	}
	c.setToken(out.AccessToken)
	return out.URL, nil
}

// Users lists accounts (admin).
func (c *Client) Users(ctx context.Context) ([]convert.User, error) {
	var out []convert.User
	return out, c.Do(ctx, http.MethodGet, "/users", nil, &out)
}

// DisableUser terminates an account (admin).
func (c *Client) DisableUser(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodPatch, "/users/"+id+"/disable", nil, nil)
}
