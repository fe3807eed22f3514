package domain

// User is the authenticated identity supplied by the session layer.
// The core never interprets it.
type User struct {
	ID   string `json:"id,omitempty"`
	Role string `json:"role,omitempty"`
}

// RequestContext holds the per-request values resolved outside the core.
type RequestContext struct {
	Locale     string
	Region     string
	Country    string
	SafeSearch bool
	User       *User
}

// UserRole returns the user role or an empty string for anonymous requests.
func (rc RequestContext) UserRole() string {
	if rc.User == nil {
		return ""
	}
	return rc.User.Role
}

// UserID returns the user identifier or an empty string for anonymous requests.
func (rc RequestContext) UserID() string {
	if rc.User == nil {
		return ""
	}
	return rc.User.ID
}
