package model

// User is the authenticated account as returned by /login and /profile.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Credentials are the fields submitted to /login.
type Credentials struct {
	Username string
	Password string
}

// Registration holds the sign-up form. ConfirmPassword never leaves the client.
type Registration struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// SessionState is the state of the client session machine.
type SessionState int

const (
	SessionInitializing SessionState = iota
	SessionAnonymous
	SessionAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case SessionInitializing:
		return "initializing"
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
