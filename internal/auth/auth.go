// Package auth obtains a OneNote access token through the Microsoft account
// authorization-code flow for desktop applications.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/takak2166/wiz2onenote/internal/config"
	"github.com/takak2166/wiz2onenote/internal/logger"
)

// Prompter shows the sign-in URL to the operator and returns the URL of the
// blank page the browser was redirected to.
type Prompter interface {
	SignIn(authURL string) (string, error)
}

// Flow runs the authorization-code exchange
type Flow struct {
	oauth *oauth2.Config
}

// NewFlow builds the flow from the OneNote settings
func NewFlow(cfg config.OneNote) *Flow {
	return &Flow{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// AuthCodeURL is the page the operator signs in on
func (f *Flow) AuthCodeURL() string {
	return f.oauth.AuthCodeURL("")
}

// CodeFromRedirect extracts the authorization code from the redirect URL
// pasted by the operator.
func (f *Flow) CodeFromRedirect(redirected string) (string, error) {
	redirected = strings.TrimSpace(redirected)
	if !strings.HasPrefix(redirected, f.oauth.RedirectURL) {
		return "", fmt.Errorf("url should start with %s", f.oauth.RedirectURL)
	}

	u, err := url.Parse(redirected)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization error: %s - %s", e, q.Get("error_description"))
	}

	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("no authorization code in url")
	}
	return code, nil
}

// Exchange trades an authorization code for a token
func (f *Flow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// Token asks the operator to sign in, retrying until a usable redirect URL is
// given, then exchanges the code.
func (f *Flow) Token(ctx context.Context, p Prompter) (*oauth2.Token, error) {
	authURL := f.AuthCodeURL()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		redirected, err := p.SignIn(authURL)
		if err != nil {
			return nil, fmt.Errorf("sign-in aborted: %w", err)
		}

		code, err := f.CodeFromRedirect(redirected)
		if err != nil {
			logger.Warn("Invalid redirect URL", map[string]interface{}{
				"reason": err.Error(),
			})
			continue
		}

		return f.Exchange(ctx, code)
	}
}

// Client returns an http.Client that sends the token as a bearer header.
// A zero timeout leaves requests bounded only by their context.
func (f *Flow) Client(ctx context.Context, token *oauth2.Token, timeout time.Duration) *http.Client {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	client.Timeout = timeout
	return client
}
