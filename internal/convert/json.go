// Package convert maps domain models to and from the JSON shapes served by the HTTP API.
package convert

import (
	"time"

	model "github.com/and161185/recipen/internal/model"
	u "github.com/gofrs/uuid/v5"
)

// --- posts (server -> client) ---

// Author is the embedded post author; null when the account was deleted.
type Author struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Rating is one user's score.
type Rating struct {
	UserID string `json:"userId"`
	Rating int    `json:"rating"`
}

// CommentUser is the public projection of a comment's author.
type CommentUser struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture"`
}

// Comment is a single comment on a post.
type Comment struct {
	ID      string      `json:"_id"`
	User    CommentUser `json:"user"`
	Comment string      `json:"comment"`
	Date    time.Time   `json:"date"`
}

// Recipe is the wire form of a recipe.
type Recipe struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Author       *Author   `json:"author"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	CookingTime  string    `json:"cookingTime"`
	Calories     string    `json:"calories"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	Ratings      []Rating  `json:"ratings"`
	Comments     []Comment `json:"comments"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Blog is the wire form of a blog post.
type Blog struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Author      *Author   `json:"author"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Ratings     []Rating  `json:"ratings"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func author(id *u.UUID, name string) *Author {
	if id == nil {
		return nil
	}
	return &Author{ID: id.String(), Name: name}
}

// ToRatings converts ratings; never returns nil.
func ToRatings(rs []model.Rating) []Rating {
	out := make([]Rating, 0, len(rs))
	for _, r := range rs {
		out = append(out, Rating{UserID: r.UserID.String(), Rating: r.Value})
	}
	return out
}

// ToComment converts a single comment.
func ToComment(c model.Comment) Comment {
	return Comment{
		ID: c.ID.String(),
		User: CommentUser{
			ID:             c.Author.ID.String(),
			Name:           c.Author.Name,
			ProfilePicture: c.Author.ProfilePicture,
		},
		Comment: c.Body,
		Date:    c.CreatedAt,
	}
}

// ToComments converts comments; never returns nil.
func ToComments(cs []model.Comment) []Comment {
	out := make([]Comment, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToComment(c))
	}
	return out
}

func strs(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ToRecipe converts a domain recipe to its wire form.
func ToRecipe(r model.Recipe) Recipe {
	return Recipe{
		ID:           r.ID.String(),
		Title:        r.Title,
		Author:       author(r.AuthorID, r.AuthorName),
		Description:  r.Description,
		Image:        r.Image,
		CookingTime:  r.CookingTime,
		Calories:     r.Calories,
		Ingredients:  strs(r.Ingredients),
		Instructions: strs(r.Instructions),
		Ratings:      ToRatings(r.Ratings),
		Comments:     ToComments(r.Comments),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ToRecipes converts a list of recipes.
func ToRecipes(rs []model.Recipe) []Recipe {
	out := make([]Recipe, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToRecipe(r))
	}
	return out
}

// ToBlog converts a domain blog to its wire form.
func ToBlog(b model.Blog) Blog {
	return Blog{
		ID:          b.ID.String(),
		Title:       b.Title,
		Author:      author(b.AuthorID, b.AuthorName),
		Description: b.Description,
		Image:       b.Image,
		Ratings:     ToRatings(b.Ratings),
		Comments:    ToComments(b.Comments),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// ToBlogs converts a list of blogs.
func ToBlogs(bs []model.Blog) []Blog {
	out := make([]Blog, 0, len(bs))
	for _, b := range bs {
		out = append(out, ToBlog(b))
	}
	return out
}

// --- users (server -> client) ---

// User is the admin listing entry. Secrets never leave the server.
type User struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	Roles          []string  `json:"roles"`
	IsDisabled     bool      `json:"isDisabled"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ToUsers converts summaries for the admin listing.
func ToUsers(us []model.UserSummary) []User {
	out := make([]User, 0, len(us))
	for _, s := range us {
		out = append(out, User{
			ID:             s.ID.String(),
			Name:           s.Name,
			Email:          s.Email,
			ProfilePicture: s.ProfilePicture,
			Roles:          strs(s.Roles),
			IsDisabled:     s.Disabled,
			CreatedAt:      s.CreatedAt,
			UpdatedAt:      s.UpdatedAt,
		})
	}
	return out
}

// --- requests (client -> server) ---

// RecipeRequest is the body of recipe create/update.
type RecipeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	CookingTime  string   `json:"cookingTime"`
	Calories     string   `json:"calories"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// Model converts the request to the service input.
func (r RecipeRequest) Model() model.RecipeInput {
	return model.RecipeInput{
		Title:        r.Title,
		Description:  r.Description,
		Image:        r.Image,
		CookingTime:  r.CookingTime,
		Calories:     r.Calories,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
	}
}

// BlogRequest is the body of blog create/update.
type BlogRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Model converts the request to the service input.
func (r BlogRequest) Model() model.BlogInput {
	return model.BlogInput{Title: r.Title, Description: r.Description, Image: r.Image}
}

// ProfileRequest is the body of a self-service profile update.
type ProfileRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture"`
}

// Model converts the request to the service input.
func (r ProfileRequest) Model() model.ProfileUpdate {
	return model.ProfileUpdate{
		Name:           r.Name,
		Email:          r.Email,
		Password:       r.Password,
		ProfilePicture: r.ProfilePicture,
	}
}

// ParseID parses a path identifier.
func ParseID(s string) (u.UUID, error) {
	var id u.UUID
	if err := id.UnmarshalText([]byte(s)); err != nil {
		return u.Nil, err
	}
	return id, nil
}
