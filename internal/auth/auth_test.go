package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takak2166/wiz2onenote/internal/config"
)

const redirectURL = "https://login.live.com/oauth20_desktop.srf"

type scriptedPrompter struct {
	answers []string
	shown   []string
}

func (p *scriptedPrompter) SignIn(authURL string) (string, error) {
	p.shown = append(p.shown, authURL)
	if len(p.answers) == 0 {
		return "", errors.New("no more input")
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func newTestFlow(tokenURL string) *Flow {
	return NewFlow(config.OneNote{
		ClientID:    "client-123",
		RedirectURL: redirectURL,
		AuthURL:     "https://login.live.com/oauth20_authorize.srf",
		TokenURL:    tokenURL,
		Scopes:      []string{"wl.signin", "office.onenote_create"},
	})
}

func tokenServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "M.R3_BAY.abc-123", r.PostForm.Get("code"))
		assert.Equal(t, "client-123", r.PostForm.Get("client_id"))
		assert.Equal(t, redirectURL, r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok-xyz","token_type":"bearer","expires_in":3600}`)
	}))
}

func TestAuthCodeURL(t *testing.T) {
	u, err := url.Parse(newTestFlow("https://example.com/token").AuthCodeURL())
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, redirectURL, q.Get("redirect_uri"))
	assert.Equal(t, "wl.signin office.onenote_create", q.Get("scope"))
}

func TestCodeFromRedirect(t *testing.T) {
	f := newTestFlow("https://example.com/token")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Valid", input: redirectURL + "?code=M.R3_BAY.abc-123&lc=1033", want: "M.R3_BAY.abc-123"},
		{name: "Surrounding spaces", input: "  " + redirectURL + "?code=abc\n", want: "abc"},
		{name: "Other host", input: "https://evil.example.com/?code=abc", wantErr: true},
		{name: "No code", input: redirectURL + "?lc=1033", wantErr: true},
		{name: "Denied", input: redirectURL + "?error=access_denied&error_description=denied", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.CodeFromRedirect(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToken(t *testing.T) {
	server := tokenServer(t)
	defer server.Close()

	f := newTestFlow(server.URL)
	p := &scriptedPrompter{answers: []string{
		"not a url",
		redirectURL + "?code=M.R3_BAY.abc-123",
	}}

	token, err := f.Token(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", token.AccessToken)
	assert.Len(t, p.shown, 2)
}

func TestTokenAborted(t *testing.T) {
	_, err := newTestFlow("https://example.com/token").Token(context.Background(), &scriptedPrompter{})
	assert.Error(t, err)
}

func TestClientSendsBearer(t *testing.T) {
	tokens := tokenServer(t)
	defer tokens.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-xyz", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	f := newTestFlow(tokens.URL)
	ctx := context.Background()
	token, err := f.Exchange(ctx, "M.R3_BAY.abc-123")
	require.NoError(t, err)

	resp, err := f.Client(ctx, token, 0).Get(api.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
