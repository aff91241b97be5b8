// Command recipen is a CLI client for the Recipen API.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/recipen/internal/client"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app carries the global flags shared by every subcommand.
type app struct {
	addr     string
	caPath   string
	insecure bool
	timeout  time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, client.ErrSessionExpired) {
			fmt.Fprintln(os.Stderr, "session expired, run `recipen login`")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "recipen",
		Short:         "Recipen API client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.addr, "addr", "https://localhost:3500/api", "API base URL")
	pf.StringVar(&a.caPath, "cacert", "", "CA cert (PEM)")
	pf.BoolVar(&a.insecure, "insecure", false, "skip cert verify (dev)")
	pf.DurationVar(&a.timeout, "timeout", 30*time.Second, "per-command timeout")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the CLI version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "recipen %s (%s)\n", version, buildDate)
			},
		},
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRecipesCmd(a),
		newBlogsCmd(a),
		newUsersCmd(a),
		newProfileCmd(a),
		newSubscribeCmd(a),
	)
	return root
}

func (a *app) httpClient() (*http.Client, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	switch {
	case a.insecure:
		cfg.InsecureSkipVerify = true //nolint:gosec // dev flag
	case a.caPath != "":
		pem, err := os.ReadFile(a.caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("bad CA cert")
		}
		cfg.RootCAs = pool
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = cfg
	return &http.Client{Transport: tr, Timeout: a.timeout}, nil
}

// withClient restores the saved session, runs fn and persists whatever
// credentials the client holds afterwards, including a refreshed token.
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	sess, err := loadSession()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	hc, err := a.httpClient()
	if err != nil {
		return err
	}
	c, err := client.New(a.addr, client.WithHTTPClient(hc), client.WithToken(sess.AccessToken))
	if err != nil {
		return err
	}
	if sess.RefreshToken != "" {
		c.SetRefreshCookie(sess.RefreshToken)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	runErr := fn(ctx, c)
	if err := saveSession(snapshot(c)); err != nil {
		return errors.Join(runErr, fmt.Errorf("save session: %w", err))
	}
	return runErr
}

// readAll reads a file, or the command's stdin for "-".
func readAll(cmd *cobra.Command, p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(p)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
