package session

import (
	"time"

	"github.com/nvandessel/tanklab/internal/models"
)

// State is the application state a surface carries between calls: who is
// signed in and when. The zero value means nobody is signed in.
type State struct {
	User       *models.User `json:"user,omitempty"`
	LoggedInAt time.Time    `json:"logged_in_at,omitzero"`
}

// SignIn returns a state for user.
func SignIn(user *models.User, now time.Time) State {
	if user == nil {
		return State{}
	}
	u := *user
	return State{User: &u, LoggedInAt: now.UTC()}
}

// LoggedIn reports whether a user is signed in.
func (s State) LoggedIn() bool {
	return s.User != nil && s.User.Email != ""
}

// Email returns the signed-in user's email, or "".
func (s State) Email() string {
	if !s.LoggedIn() {
		return ""
	}
	return s.User.Email
}
