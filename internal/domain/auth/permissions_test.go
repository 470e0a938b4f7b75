package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutes_EachInExactlyOneKnownGroup(t *testing.T) {
	seen := map[string]bool{}
	for _, rt := range Routes() {
		assert.False(t, seen[rt.Path], "duplicate route %s", rt.Path)
		seen[rt.Path] = true
		assert.False(t, rt.Group.AllowedRoles().Empty(), "route %s has no allowed roles", rt.Path)
		assert.False(t, IsPublicPath(rt.Path), "route %s is also public", rt.Path)
		assert.NotEmpty(t, rt.Title)
	}
	assert.Len(t, seen, 17)
}

func TestGroup_AllowedRoles(t *testing.T) {
	assert.Equal(t, []Role{RoleHR, RoleAdmin}, GroupAdministration.AllowedRoles().Roles())
	assert.Equal(t, []Role{RoleHOD, RoleAdmin}, GroupEvaluation.AllowedRoles().Roles())
	assert.Equal(t, []Role{RoleEmployee}, GroupPersonal.AllowedRoles().Roles())
	assert.True(t, groupUnknown.AllowedRoles().Empty())
}

func TestLookupRoute(t *testing.T) {
	rt, ok := LookupRoute("/employee-eval-hod")
	require.True(t, ok)
	assert.Equal(t, GroupEvaluation, rt.Group)

	_, ok = LookupRoute("/employee-eval-hod/E1")
	assert.False(t, ok, "lookup matches patterns, not concrete paths")

	for _, want := range Routes() {
		got, found := LookupRoute(want.Path)
		require.True(t, found, want.Path)
		assert.Equal(t, want.Title, got.Title)
	}
}

func TestRoutesFor(t *testing.T) {
	paths := func(rs []Route) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.Path)
		}
		return out
	}

	assert.Equal(t, []string{"/my-competency-stats"}, paths(RoutesFor(RoleEmployee)))
	assert.Equal(t, []string{"/employee-eval-hod"}, paths(RoutesFor(RoleHOD)))

	hr := paths(RoutesFor(RoleHR))
	assert.Contains(t, hr, "/department-crud")
	assert.NotContains(t, hr, "/employee-eval-hod")
	assert.NotContains(t, hr, "/role-competencies/{roleCode}")

	admin := paths(RoutesFor(RoleAdmin))
	assert.Contains(t, admin, "/department-crud")
	assert.Contains(t, admin, "/employee-eval-hod")
	assert.NotContains(t, admin, "/my-competency-stats")
}

func TestRoute_ResolveResources(t *testing.T) {
	rt, ok := LookupRoute("/role-competencies/{roleCode}")
	require.True(t, ok)

	got, err := rt.ResolveResources(map[string]string{"roleCode": "R 1/a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/getrole/R%201%2Fa", "/roles/R%201%2Fa/competencies", "/competency"}, got)

	_, err = rt.ResolveResources(map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roleCode")
}

func TestRoute_ResolveSessionPlaceholders(t *testing.T) {
	rt, ok := LookupRoute("/my-competency-stats")
	require.True(t, ok)

	got, err := rt.ResolveResources(map[string]string{VarUsername: "E042"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/employee-competencies/E042", "/employee/E042"}, got)
}

func TestRoute_Wildcards(t *testing.T) {
	rt, ok := LookupRoute("/employee-assign-comp/{employeeNumber}")
	require.True(t, ok)
	assert.Equal(t, []string{"employeeNumber"}, rt.Wildcards())

	rt, ok = LookupRoute("/department-crud")
	require.True(t, ok)
	assert.Empty(t, rt.Wildcards())
}

func TestIsPublicPath(t *testing.T) {
	assert.True(t, IsPublicPath("/"))
	assert.True(t, IsPublicPath("/login"))
	assert.True(t, IsPublicPath("/register"))
	assert.False(t, IsPublicPath("/department-crud"))
}
