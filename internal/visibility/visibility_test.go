package visibility

import (
	"testing"

	"campusforum/internal/authz"
	"campusforum/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	admin   = &authz.Principal{UserID: 1, Role: models.RoleAdmin}
	prof    = &authz.Principal{UserID: 2, Role: models.RoleProfessor}
	student = &authz.Principal{UserID: 3, Role: models.RoleStudent}
)

func TestCategories_DefaultHidesArchivedForAnonymousAndStudents(t *testing.T) {
	t.Parallel()

	archived := &models.Category{Status: models.CategoryArchived}
	inactive := &models.Category{Status: models.CategoryInactive}

	for _, p := range []*authz.Principal{nil, student} {
		scope := Categories(p, CategoryQuery{})
		assert.False(t, scope.Matches(archived))
		assert.True(t, scope.Matches(inactive))
	}
	for _, p := range []*authz.Principal{admin, prof} {
		assert.True(t, Categories(p, CategoryQuery{}).Matches(archived))
	}
}

func TestCategories_ExplicitStatusIsAppliedVerbatim(t *testing.T) {
	t.Parallel()

	scope := Categories(nil, CategoryQuery{Status: "ARCHIVED"})
	assert.True(t, scope.Matches(&models.Category{Status: models.CategoryArchived}))
	assert.False(t, scope.Matches(&models.Category{Status: models.CategoryActive}))
}

func TestPosts_AnonymousSeesOnlyPublished(t *testing.T) {
	t.Parallel()

	store := []*models.Post{
		{ID: 1, Status: models.PostPublished},
		{ID: 2, Status: models.PostPublished},
		{ID: 3, Status: models.PostDraft},
	}

	scope := Posts(nil, PostQuery{})
	var visible []uint
	for _, p := range store {
		if scope.Matches(p) {
			visible = append(visible, p.ID)
		}
	}
	assert.Equal(t, []uint{1, 2}, visible)
}

func TestPosts_StudentOwnPostsNeedClearedFilter(t *testing.T) {
	t.Parallel()

	self := student.UserID
	var store []*models.Post
	for i := 0; i < 3; i++ {
		store = append(store, &models.Post{AuthorID: self, Status: models.PostDraft})
	}
	for i := 0; i < 2; i++ {
		store = append(store, &models.Post{AuthorID: self, Status: models.PostPublished})
	}

	count := func(scope PostScope) int {
		n := 0
		for _, p := range store {
			if scope.Matches(p) {
				n++
			}
		}
		return n
	}

	assert.Equal(t, 2, count(Posts(student, PostQuery{AuthorID: &self})))
	assert.Equal(t, 5, count(Posts(student, PostQuery{AuthorID: &self, AllStatuses: true})))
	assert.Equal(t, 3, count(Posts(student, PostQuery{AuthorID: &self, Status: "DRAFT"})))
}

func TestPosts_ModeratorsSeeAllAndSearchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	draft := &models.Post{Status: models.PostDraft, Title: "Linear Algebra notes", Content: "matrices everywhere"}
	assert.True(t, Posts(prof, PostQuery{}).Matches(draft))
	assert.True(t, Posts(admin, PostQuery{Search: "ALGEBRA"}).Matches(draft))
	assert.True(t, Posts(admin, PostQuery{Search: "Matrices"}).Matches(draft))
	assert.False(t, Posts(admin, PostQuery{Search: "calculus"}).Matches(draft))
	assert.False(t, Posts(student, PostQuery{Search: "algebra"}).Matches(draft))

	cat := uint(9)
	assert.False(t, Posts(admin, PostQuery{CategoryID: &cat}).Matches(draft))
}

func TestReports_Scope(t *testing.T) {
	t.Parallel()

	mine := &models.Report{ReporterID: student.UserID, Status: models.ReportResolved}
	theirs := &models.Report{ReporterID: 99, Status: models.ReportPending}

	s := Reports(student, ReportQuery{Status: "PENDING"})
	assert.True(t, s.Matches(mine), "status filter is ignored for non-moderators")
	assert.False(t, s.Matches(theirs))

	m := Reports(admin, ReportQuery{})
	assert.True(t, m.Matches(theirs))
	assert.False(t, m.Matches(mine), "moderators default to open reports")
	assert.True(t, Reports(prof, ReportQuery{Status: "RESOLVED"}).Matches(mine))

	assert.False(t, Reports(nil, ReportQuery{}).Matches(theirs))
}
