package auth

// Decision is the outcome of evaluating a guarded navigation.
type Decision uint8

const (
	// DecisionRender allows the protected page to render.
	DecisionRender Decision = iota
	// DecisionLogin sends the user to the login page after logout cleanup.
	DecisionLogin
	// DecisionHome sends the user to the public home page.
	DecisionHome
)

func (d Decision) String() string {
	switch d {
	case DecisionRender:
		return "render"
	case DecisionLogin:
		return "login"
	case DecisionHome:
		return "home"
	default:
		return "unknown"
	}
}

// Authorize decides whether sess may open a page restricted to allowed.
// A nil session always yields DecisionLogin; the check is pure and never panics.
func Authorize(sess *Session, allowed RoleSet) Decision {
	if sess == nil {
		return DecisionLogin
	}
	if !allowed.Has(sess.Role) {
		return DecisionHome
	}
	return DecisionRender
}
