package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
)

// OIDCConfig holds the OAuth2/OIDC client settings. Endpoints follow the
// Authentik layout under BaseURL.
type OIDCConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OIDCAuth authenticates board users against an OIDC provider
type OIDCAuth struct {
	config       OIDCConfig
	oauth2Config *oauth2.Config
	sessions     *sessionStore
	httpClient   *http.Client
}

// NewOIDCAuth creates an OIDC authentication handler
func NewOIDCAuth(config OIDCConfig) *OIDCAuth {
	if len(config.Scopes) == 0 {
		config.Scopes = []string{"openid", "profile", "email"}
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &OIDCAuth{
		config: config,
		oauth2Config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       config.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  config.BaseURL + "/application/o/authorize/",
				TokenURL: config.BaseURL + "/application/o/token/",
			},
		},
		sessions:   newSessionStore(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// LoginHandler initiates the OAuth2 login flow
func (a *OIDCAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state := randomToken()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler exchanges the code and starts a session
func (a *OIDCAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != cookie.Value {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		logger.Warn("OIDC token exchange failed", "error", err)
		http.Error(w, "Failed to exchange token", http.StatusBadGateway)
		return
	}

	user, err := a.userInfo(r, token)
	if err != nil {
		logger.Warn("OIDC userinfo failed", "error", err)
		http.Error(w, "Failed to get user info", http.StatusBadGateway)
		return
	}

	session := a.sessions.create(user, token, 12*time.Hour)
	setSessionCookie(w, session, true)
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	logger.Info("User signed in", "user", user.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LogoutHandler ends the session and the provider session
func (a *OIDCAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	a.sessions.logout(w, r)
	http.Redirect(w, r, a.config.BaseURL+"/application/o/adp-draft-board/end-session/", http.StatusSeeOther)
}

func (a *OIDCAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return a.sessions.middleware(next)
}

func (a *OIDCAuth) APIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return a.sessions.apiMiddleware(next)
}

func (a *OIDCAuth) userInfo(r *http.Request, token *oauth2.Token) (*User, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, a.config.BaseURL+"/application/o/userinfo/", nil)
	if err != nil {
		return nil, err
	}
	token.SetAuthHeader(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo returned %s: %s", resp.Status, body)
	}

	var info struct {
		Sub               string   `json:"sub"`
		Email             string   `json:"email"`
		Name              string   `json:"name"`
		PreferredUsername string   `json:"preferred_username"`
		Groups            []string `json:"groups"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	return &User{
		ID:       info.Sub,
		Email:    info.Email,
		Name:     info.Name,
		Username: info.PreferredUsername,
		Groups:   info.Groups,
	}, nil
}
