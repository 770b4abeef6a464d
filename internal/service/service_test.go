package service

import (
	"context"
	"testing"
	"time"

	"campusforum/internal/auth"
	"campusforum/internal/authz"
	"campusforum/internal/featureflags"
	"campusforum/internal/models"
	"campusforum/internal/repository"
	"campusforum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db    *gorm.DB
	store *repository.Store
	fx    *testutil.Fixtures
	svc   *Services
}

func newTestEnv(t *testing.T, flags string) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	issuer := auth.NewIssuer(auth.Settings{
		Secret:     "service-test-secret",
		Issuer:     "campusforum",
		Audience:   "campusforum-api",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	return &testEnv{
		db:    db,
		store: store,
		fx:    testutil.NewFixtures(t, db),
		svc:   New(store, issuer, featureflags.NewManager(flags), func() time.Time { return fixedNow }),
	}
}

func as(u *models.User) *authz.Principal {
	return &authz.Principal{UserID: u.ID, Role: u.Role}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok, "expected *models.AppError, got %T", err)
	return appErr.Fields
}

func TestListInput_Page(t *testing.T) {
	tests := []struct {
		name string
		in   ListInput
		want repository.Page
	}{
		{"defaults", ListInput{}, repository.Page{Limit: maxPageSize}},
		{"capped", ListInput{Limit: 500, Offset: 20}, repository.Page{Limit: maxPageSize, Offset: 20}},
		{"negative offset", ListInput{Limit: 10, Offset: -3}, repository.Page{Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.page())
		})
	}
}

func TestNotFound(t *testing.T) {
	err := notFound(gorm.ErrRecordNotFound, "post", 7)
	assertCode(t, err, models.CodeNotFound)

	other := models.NewStoreUnavailableError(context.DeadlineExceeded)
	assert.Same(t, other, notFound(other, "post", 7))
}
