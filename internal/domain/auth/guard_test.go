package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize_NoSessionGoesToLogin(t *testing.T) {
	for _, rt := range Routes() {
		assert.Equal(t, DecisionLogin, Authorize(nil, rt.Group.AllowedRoles()), rt.Path)
	}
}

func TestAuthorize_RoleOutsideGroupGoesHome(t *testing.T) {
	for _, rt := range Routes() {
		allowed := rt.Group.AllowedRoles()
		for _, role := range AllRoles() {
			sess := &Session{ID: "s", Role: role}
			want := DecisionHome
			if allowed.Has(role) {
				want = DecisionRender
			}
			assert.Equal(t, want, Authorize(sess, allowed), "%s as %s", rt.Path, role)
		}
	}
}

func TestAuthorize_Scenarios(t *testing.T) {
	hrOnly, _ := LookupRoute("/department-crud")
	hodOnly, _ := LookupRoute("/employee-eval-hod")

	assert.Equal(t, DecisionHome, Authorize(&Session{Role: RoleEmployee}, hrOnly.Group.AllowedRoles()))
	assert.Equal(t, DecisionLogin, Authorize(nil, hrOnly.Group.AllowedRoles()))
	assert.Equal(t, DecisionRender, Authorize(&Session{Role: RoleHOD}, hodOnly.Group.AllowedRoles()))
}

func TestAuthorize_InvalidRoleNeverRenders(t *testing.T) {
	assert.Equal(t, DecisionHome, Authorize(&Session{}, NewRoleSet(AllRoles()...)))
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	_, ok := SessionFromContext(ctx)
	assert.False(t, ok)

	assert.Equal(t, ctx, WithSession(ctx, nil))

	sess := &Session{ID: "abc", Role: RoleHR}
	got, ok := SessionFromContext(WithSession(ctx, sess))
	assert.True(t, ok)
	assert.Same(t, sess, got)
}
