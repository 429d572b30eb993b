package auth

import (
	"net/http"
	"time"
)

// MockAuth signs every visitor in as a local admin for development
type MockAuth struct {
	sessions *sessionStore
	user     User
}

// NewMockAuth creates a new mock authentication handler
func NewMockAuth() *MockAuth {
	return &MockAuth{
		sessions: newSessionStore(),
		user: User{
			ID:       "dev-user",
			Email:    "dev@adp-board.local",
			Name:     "Dev User",
			Username: "devuser",
			Groups:   []string{"users", adminGroup},
		},
	}
}

// LoginHandler creates a session without any provider round trip
func (m *MockAuth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	user := m.user
	session := m.sessions.create(&user, nil, 24*time.Hour)
	setSessionCookie(w, session, false)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (m *MockAuth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (m *MockAuth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	m.sessions.logout(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (m *MockAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return m.sessions.middleware(next)
}

func (m *MockAuth) APIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return m.sessions.apiMiddleware(next)
}
