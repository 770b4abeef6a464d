package service

import (
	"context"
	"testing"

	"campusforum/internal/auth"
	"campusforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "New.Student@Campus.Test",
		Password:  "quantum-leap-42",
		Password2: "quantum-leap-42",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestUserService_Register(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	session, err := env.svc.Users.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "new.student@campus.test", session.User.Email)
	assert.Equal(t, models.RoleStudent, session.User.Role)
	assert.True(t, session.User.IsActive)
	assert.NotEmpty(t, session.Access)
	assert.NotEmpty(t, session.Refresh)
	assert.True(t, auth.CheckPassword(session.User.Password, "quantum-leap-42"))

	_, err = env.svc.Users.Register(ctx, validRegistration())
	assert.Contains(t, fieldErrors(t, err), "email")

	t.Run("professor may self-register", func(t *testing.T) {
		in := validRegistration()
		in.Email = "prof@campus.test"
		in.Role = models.RoleProfessor
		session, err := env.svc.Users.Register(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, models.RoleProfessor, session.User.Role)
	})

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"admin is not self-assignable", func(in *RegisterInput) { in.Role = models.RoleAdmin }, "role"},
		{"mismatched passwords", func(in *RegisterInput) { in.Password2 = "something-else-1" }, "password2"},
		{"weak password", func(in *RegisterInput) { in.Password, in.Password2 = "password", "password" }, "password"},
		{"password like email", func(in *RegisterInput) { in.Password, in.Password2 = "other123x", "other123x" }, "password"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"blank name", func(in *RegisterInput) { in.FirstName = " " }, "first_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegistration()
			in.Email = "other@campus.test"
			tt.mutate(&in)
			_, err := env.svc.Users.Register(ctx, in)
			assert.Contains(t, fieldErrors(t, err), tt.field)
		})
	}
}

func TestUserService_Profile(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	alice := env.fx.User(models.RoleStudent)

	_, err := env.svc.Users.Me(ctx, nil)
	assertCode(t, err, models.CodeAuthenticationRequired)

	me, err := env.svc.Users.Me(ctx, as(alice))
	require.NoError(t, err)
	assert.Equal(t, alice.Email, me.Email)

	first := "Alice"
	_, err = env.svc.Users.UpdateMe(ctx, as(alice), UpdateProfileInput{FirstName: &first})
	assert.Contains(t, fieldErrors(t, err), "last_name")

	picture := "avatars/alice.png"
	updated, err := env.svc.Users.UpdateMe(ctx, as(alice), UpdateProfileInput{ProfilePicture: &picture, Partial: true})
	require.NoError(t, err)
	assert.Equal(t, picture, updated.ProfilePicture)
	assert.Equal(t, alice.FirstName, updated.FirstName)

	last := "Liddell"
	updated, err = env.svc.Users.UpdateMe(ctx, as(alice), UpdateProfileInput{FirstName: &first, LastName: &last})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.FullName())
	assert.Equal(t, models.RoleStudent, updated.Role)

	stored, err := env.store.Users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Liddell", stored.LastName)
	assert.Equal(t, picture, stored.ProfilePicture)
}

func TestUserService_AdminCommands(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()
	admin := env.fx.User(models.RoleAdmin)
	student := env.fx.User(models.RoleStudent)

	promoted, err := env.svc.Users.SetRole(ctx, student.Email, models.RoleProfessor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleProfessor, promoted.Role)

	moderators, err := env.svc.Users.ListModerators(ctx)
	require.NoError(t, err)
	require.Len(t, moderators, 2)
	assert.Equal(t, admin.ID, moderators[0].ID)

	_, err = env.svc.Users.SetRole(ctx, student.Email, models.Role("DEAN"))
	assert.Contains(t, fieldErrors(t, err), "role")

	_, err = env.svc.Users.SetRole(ctx, "nobody@campus.test", models.RoleStudent)
	assertCode(t, err, models.CodeNotFound)

	deactivated, err := env.svc.Users.Deactivate(ctx, student.Email)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	stored, err := env.store.Users.GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}
