package httpx

import (
	"net/http"

	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/service"
)

// UserView is the signed-in user as shown in the layout.
type UserView struct {
	Username       string
	Role           string
	DepartmentCode string
}

// MenuItem is one navigation link.
type MenuItem struct {
	Path   string
	Title  string
	Group  string
	Active bool
}

// PageData is the view model handed to every template.
type PageData struct {
	Title           string
	CurrentPage     string
	CurrentPath     string
	IsAuthenticated bool
	User            *UserView
	Menu            []MenuItem
	CSRFToken       string

	Flash        string
	ErrorMessage string
	FieldErrors  map[string]string
	Form         map[string]string
	RedirectURI  string

	Datasets []service.Dataset
}

// newPageData builds the layout data shared by every page from the request
// and the session in its context.
func newPageData(r *http.Request, page, title string) PageData {
	data := PageData{
		Title:       title,
		CurrentPage: page,
		CurrentPath: r.URL.Path,
		CSRFToken:   GetCSRFToken(r),
	}

	if session := GetSessionFromContext(r.Context()); session != nil {
		data.IsAuthenticated = true
		data.User = &UserView{
			Username:       session.Username,
			Role:           session.Role.String(),
			DepartmentCode: session.DepartmentCode,
		}
		data.Menu = menuFor(session.Role, r.URL.Path)
	}
	return data
}

func menuFor(role domainauth.Role, currentPath string) []MenuItem {
	routes := domainauth.RoutesFor(role)
	items := make([]MenuItem, 0, len(routes))
	for _, rt := range routes {
		items = append(items, MenuItem{
			Path:   rt.Path,
			Title:  rt.Title,
			Group:  rt.Group.String(),
			Active: rt.Path == currentPath,
		})
	}
	return items
}

// withError sets a general error message.
func (d PageData) withError(msg string) PageData {
	d.ErrorMessage = msg
	return d
}

// withFieldErrors adds field-level validation errors.
func (d PageData) withFieldErrors(errs map[string]string) PageData {
	if len(errs) > 0 {
		d.FieldErrors = errs
	}
	return d
}
