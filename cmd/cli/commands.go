package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/recipen/internal/client"
	"github.com/and161185/recipen/internal/convert"
)

func newRegisterCmd(a *app) *cobra.Command {
	var name, email, password, picture string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.Register(ctx, name, email, password, picture); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "u", "", "email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.Flags().StringVar(&picture, "picture", "", "profile picture URL")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a session (saved under the config dir)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.Login(ctx, email, password); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "u", "", "email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				err := c.Logout(ctx)
				// the local session goes regardless of what the server said
				c.SetRefreshCookie("")
				return err
			})
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity carried by the saved access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := loadSession()
			if err != nil {
				return err
			}
			if sess.AccessToken == "" {
				return errors.New("not logged in")
			}
			claims, err := peekClaims(sess.AccessToken)
			if err != nil {
				return err
			}
			out := map[string]any{
				"userId":    claims.UserInfo.UserID,
				"name":      claims.UserInfo.Name,
				"email":     claims.UserInfo.Email,
				"roles":     claims.UserInfo.Roles,
				"favorites": claims.UserInfo.Favorites,
			}
			if claims.ExpiresAt != nil {
				out["expiresAt"] = claims.ExpiresAt.Time
			}
			printJSON(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

// postCmds builds the engagement subcommands shared by recipes and blogs.
func postCmds(a *app, kind string) []*cobra.Command {
	rate := &cobra.Command{
		Use:   "rate <id> <1-5>",
		Short: "Rate a post once",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating: %w", err)
			}
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.Rate(ctx, kind, args[0], n)
			})
		},
	}
	comment := &cobra.Command{
		Use:   "comment <id> <text...>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.Comment(ctx, kind, args[0], strings.Join(args[1:], " "))
			})
		},
	}
	uncomment := &cobra.Command{
		Use:   "uncomment <id> <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.DeleteComment(ctx, kind, args[0], args[1])
			})
		},
	}
	del := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a post you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.DeletePost(ctx, kind, args[0])
			})
		},
	}
	return []*cobra.Command{rate, comment, uncomment, del}
}

func newRecipesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "recipes", Short: "Browse and manage recipes"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				out, err := c.Recipes(ctx)
				if err != nil {
					return err
				}
				type row struct{ ID, Title, Author string }
				rows := make([]row, 0, len(out))
				for _, r := range out {
					author := ""
					if r.Author != nil {
						author = r.Author.Name
					}
					rows = append(rows, row{ID: r.ID, Title: r.Title, Author: author})
				}
				printJSON(cmd.OutOrStdout(), rows)
				return nil
			})
		},
	}
	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				r, err := c.Recipe(ctx, args[0])
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), r)
				return nil
			})
		},
	}
	var file string
	create := &cobra.Command{
		Use:   "add",
		Short: "Publish a recipe from a JSON file (- for stdin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := readAll(cmd, file)
			if err != nil {
				return err
			}
			var in convert.RecipeRequest
			if err := json.Unmarshal(b, &in); err != nil {
				return fmt.Errorf("parse recipe: %w", err)
			}
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.CreateRecipe(ctx, in)
			})
		},
	}
	create.Flags().StringVarP(&file, "file", "f", "-", "recipe JSON")
	fav := &cobra.Command{
		Use:   "fav <id>",
		Short: "Toggle a recipe in your favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.ToggleFavorite(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(list, get, create, fav)
	cmd.AddCommand(postCmds(a, "recipes")...)
	return cmd
}

func newBlogsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "blogs", Short: "Browse and manage blog posts"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List blog posts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				out, err := c.Blogs(ctx)
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	var file string
	create := &cobra.Command{
		Use:   "add",
		Short: "Publish a blog post from a JSON file (- for stdin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := readAll(cmd, file)
			if err != nil {
				return err
			}
			var in convert.BlogRequest
			if err := json.Unmarshal(b, &in); err != nil {
				return fmt.Errorf("parse blog: %w", err)
			}
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.CreateBlog(ctx, in)
			})
		},
	}
	create.Flags().StringVarP(&file, "file", "f", "-", "blog JSON")

	cmd.AddCommand(list, create)
	cmd.AddCommand(postCmds(a, "blogs")...)
	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Administer accounts (admin only)"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List accounts",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
					out, err := c.Users(ctx)
					if err != nil {
						return err
					}
					printJSON(cmd.OutOrStdout(), out)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "disable <id>",
			Short: "Terminate an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
					return c.DisableUser(ctx, args[0])
				})
			},
		},
	)
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	var in convert.ProfileRequest
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.UpdateProfile(ctx, in)
			})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Password, "password", "", "new password (empty keeps the current one)")
	cmd.Flags().StringVar(&in.ProfilePicture, "picture", "", "profile picture URL")
	return cmd
}

func newSubscribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe",
		Short: "Start a Pro subscription checkout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				url, err := c.Subscribe(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			})
		},
	}
}
