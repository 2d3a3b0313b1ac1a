package identity

// Principal is the signed-in account as reported by the identity service.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

// Identity answers who is making the current call.
type Identity interface {
	CurrentUser() (Principal, bool)
	IsAuthenticated() bool
}

// Session is the Identity of a single request.
type Session struct {
	principal *Principal
}

// Anonymous is a session without a signed-in user.
func Anonymous() Session { return Session{} }

func SignedIn(p Principal) Session { return Session{principal: &p} }

func (s Session) CurrentUser() (Principal, bool) {
	if s.principal == nil {
		return Principal{}, false
	}
	return *s.principal, true
}

func (s Session) IsAuthenticated() bool { return s.principal != nil }

// Name is the display name, falling back to the e-mail address.
func (p Principal) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}
