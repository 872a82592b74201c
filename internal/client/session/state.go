package session

import "github.com/dmitrijs2005/parkclient/internal/client/models"

type Status int

const (
	StatusInitializing Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is the session as the UI should render it. User is set only when
// Status is StatusAuthenticated.
type State struct {
	Status Status
	User   *models.UserProfile
}

func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

func (s State) String() string {
	if s.Authenticated() {
		return s.Status.String() + "(" + s.User.DisplayName() + ")"
	}
	return s.Status.String()
}

func unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}

func authenticated(user *models.UserProfile) State {
	return State{Status: StatusAuthenticated, User: user.Clone()}
}

func (s State) clone() State {
	return State{Status: s.Status, User: s.User.Clone()}
}

// changedTo reports whether moving to next is a change worth announcing.
// Any authenticated-to-authenticated move is one: it carries a new profile.
func (s State) changedTo(next State) bool {
	if s.Status != next.Status {
		return true
	}
	return next.Status == StatusAuthenticated
}
