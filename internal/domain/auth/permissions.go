package auth

import (
	"fmt"
	"net/url"
	"strings"
)

// Group is a permission group. Every protected route belongs to exactly one.
type Group uint8

const (
	groupUnknown Group = iota
	// GroupAdministration covers HR-managed data and reports.
	GroupAdministration
	// GroupEvaluation covers HOD scoring screens.
	GroupEvaluation
	// GroupPersonal covers the signed-in employee's own views.
	GroupPersonal
)

// AllowedRoles returns the roles permitted to open routes in the group.
func (g Group) AllowedRoles() RoleSet {
	switch g {
	case GroupAdministration:
		return NewRoleSet(RoleHR, RoleAdmin)
	case GroupEvaluation:
		return NewRoleSet(RoleHOD, RoleAdmin)
	case GroupPersonal:
		return NewRoleSet(RoleEmployee)
	default:
		return RoleSet{}
	}
}

func (g Group) String() string {
	switch g {
	case GroupAdministration:
		return "administration"
	case GroupEvaluation:
		return "evaluation"
	case GroupPersonal:
		return "personal"
	default:
		return "unknown"
	}
}

// Session placeholders usable in resource templates.
const (
	VarUsername       = "username"
	VarDepartmentCode = "departmentCode"
)

// Route is a protected console page.
//
// Path uses net/http ServeMux wildcard syntax ("{name}"). Resources are backend
// paths fetched when the page renders; they may reference the route's path
// wildcards and the session placeholders above.
type Route struct {
	Path      string
	Group     Group
	Title     string
	Menu      bool
	Resources []string
}

// Public console paths reachable without a session.
const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
)

//nolint:gochecknoglobals // static read-only permission table
var routes = []Route{
	{Path: "/department-crud", Group: GroupAdministration, Title: "Department", Menu: true,
		Resources: []string{"/departments"}},
	{Path: "/role-crud", Group: GroupAdministration, Title: "Role", Menu: true,
		Resources: []string{"/roles"}},
	{Path: "/competency-crud", Group: GroupAdministration, Title: "Competency", Menu: true,
		Resources: []string{"/competency"}},
	{Path: "/role-competencies", Group: GroupAdministration, Title: "Role Assign", Menu: true,
		Resources: []string{"/roles"}},
	{Path: "/role-competencies/{roleCode}", Group: GroupAdministration, Title: "Role Competencies",
		Resources: []string{"/getrole/{roleCode}", "/roles/{roleCode}/competencies", "/competency"}},
	{Path: "/employee-crud", Group: GroupAdministration, Title: "Employee", Menu: true,
		Resources: []string{"/employees", "/roles", "/departments"}},
	{Path: "/employee-excel", Group: GroupAdministration, Title: "Employee Excel Upload", Menu: true},
	{Path: "/employee-eval", Group: GroupAdministration, Title: "List Employee", Menu: true,
		Resources: []string{"/employees", "/departments", "/roles"}},
	{Path: "/employee-details/{employeeNumber}", Group: GroupAdministration, Title: "Employee Details",
		Resources: []string{"/employee/{employeeNumber}", "/employee-competencies/{employeeNumber}"}},
	{Path: "/employee-stats-departmentwise", Group: GroupAdministration, Title: "Department Stats",
		Resources: []string{"/stats/overall-competency-performance"}},
	{Path: "/employee-stats-overall", Group: GroupAdministration, Title: "Employee Stats", Menu: true,
		Resources: []string{"/stats/overall-competency-performance"}},
	{Path: "/employee-assign-comp/{employeeNumber}", Group: GroupAdministration, Title: "Assign Competencies",
		Resources: []string{
			"/employee/{employeeNumber}",
			"/employees/{employeeNumber}/assignedcompetencies",
			"/competency",
		}},
	{Path: "/competency-gap-table", Group: GroupAdministration, Title: "Competency Gap Analysis", Menu: true,
		Resources: []string{"/fetch-all-competency-score-data"}},
	{Path: "/employee-competencies-table", Group: GroupAdministration, Title: "Employee Competencies report", Menu: true,
		Resources: []string{"/employee-competencies/details"}},
	{Path: "/employee-eval-hod", Group: GroupEvaluation, Title: "Evaluate Employees", Menu: true,
		Resources: []string{"/employee/{username}", "/employees", "/departments", "/roles"}},
	{Path: "/employee-eval-hod/{employeeNumber}", Group: GroupEvaluation, Title: "Evaluate Employee",
		Resources: []string{"/employee/{employeeNumber}", "/employee-competencies/{employeeNumber}"}},
	{Path: "/my-competency-stats", Group: GroupPersonal, Title: "My scores", Menu: true,
		Resources: []string{"/employee-competencies/{username}", "/employee/{username}"}},
}

// Routes returns a copy of the protected route table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// LookupRoute returns the route registered under the exact pattern path.
func LookupRoute(path string) (Route, bool) {
	for _, rt := range routes {
		if rt.Path == path {
			return rt, true
		}
	}
	return Route{}, false
}

// RoutesFor returns the menu routes a role may open, in table order.
func RoutesFor(role Role) []Route {
	var out []Route
	for _, rt := range routes {
		if rt.Menu && rt.Group.AllowedRoles().Has(role) {
			out = append(out, rt)
		}
	}
	return out
}

// IsPublicPath reports whether path is reachable without a session.
func IsPublicPath(path string) bool {
	switch path {
	case PathHome, PathLogin, PathRegister:
		return true
	default:
		return false
	}
}

// ResolveResources expands the route's resource templates using vars.
// Values are path-escaped. A placeholder without a value is an error.
func (rt Route) ResolveResources(vars map[string]string) ([]string, error) {
	out := make([]string, 0, len(rt.Resources))
	for _, tmpl := range rt.Resources {
		resolved, err := expandTemplate(tmpl, vars)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", tmpl, err)
		}
		out = append(out, resolved)
	}
	return out, nil
}

// Wildcards returns the names of the route's path wildcards in order.
func (rt Route) Wildcards() []string {
	var names []string
	for _, seg := range strings.Split(rt.Path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}"))
		}
	}
	return names
}

func expandTemplate(tmpl string, vars map[string]string) (string, error) {
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("unterminated placeholder in %q", tmpl)
		}
		name := rest[open+1 : open+end]
		val, ok := vars[name]
		if !ok || val == "" {
			return "", fmt.Errorf("missing value for {%s}", name)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(val))
		rest = rest[open+end+1:]
	}
}
