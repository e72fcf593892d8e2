package routes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testClassifier() *Classifier {
	return NewClassifier(Sets{
		Public:    []string{"/", "/login", "/signup", "/about", "/404"},
		Protected: []string{"/dashboard", "/bookings", "/profile", "/settings"},
		Critical:  []string{"/messages", "/payments", "/admin"},
	})
}

func TestMatchesRoutePattern(t *testing.T) {
	assert.True(t, MatchesRoutePattern("/dashboard", "/dashboard"))
	assert.True(t, MatchesRoutePattern("/dashboard/x", "/dashboard"))
	assert.True(t, MatchesRoutePattern("/dashboard/x/y", "/dashboard"))
	assert.False(t, MatchesRoutePattern("/dashboardx", "/dashboard"))
	assert.False(t, MatchesRoutePattern("/dash", "/dashboard"))

	// Root matches only itself, not every path.
	assert.True(t, MatchesRoutePattern("/", "/"))
	assert.False(t, MatchesRoutePattern("/dashboard", "/"))
}

func TestClassify_PublicRoutes(t *testing.T) {
	c := testClassifier()
	for _, path := range []string{"/", "/login", "/signup", "/about", "/404", "/login/help"} {
		cl := c.Classify(path)
		assert.True(t, cl.IsPublic, path)
		assert.Equal(t, LevelNone, cl.Level, path)
		assert.False(t, c.RequiresAuth(path), path)
	}
}

func TestClassify_CriticalRoutes(t *testing.T) {
	c := testClassifier()
	for _, path := range []string{"/messages", "/messages/42", "/payments", "/admin/users"} {
		cl := c.Classify(path)
		assert.True(t, cl.IsCritical, path)
		assert.Equal(t, LevelComplete, cl.Level, path)
		assert.True(t, c.RequiresAuth(path), path)
	}
}

func TestClassify_ProtectedRoutes(t *testing.T) {
	c := testClassifier()
	for _, path := range []string{"/dashboard", "/dashboard/upcoming", "/bookings/9", "/settings"} {
		cl := c.Classify(path)
		assert.True(t, cl.IsProtected, path)
		assert.Equal(t, LevelBasic, cl.Level, path)
	}
}

func TestClassify_UnclassifiedDefaultsToBasic(t *testing.T) {
	c := testClassifier()
	for _, path := range []string{"/brand-new-feature", "/tutors/jane", "/x"} {
		cl := c.Classify(path)
		assert.False(t, cl.IsPublic, path)
		assert.False(t, cl.IsProtected, path)
		assert.False(t, cl.IsCritical, path)
		assert.Equal(t, LevelBasic, cl.Level, path)
		assert.True(t, c.RequiresAuth(path), path)
	}
}

func TestClassify_PublicWinsOverCritical(t *testing.T) {
	c := NewClassifier(Sets{
		Public:   []string{"/status"},
		Critical: []string{"/status"},
	})
	cl := c.Classify("/status")
	assert.True(t, cl.IsPublic)
	assert.True(t, cl.IsCritical)
	assert.Equal(t, LevelNone, cl.Level)
}

func TestClassify_CriticalWinsOverProtected(t *testing.T) {
	c := NewClassifier(Sets{
		Protected: []string{"/messages"},
		Critical:  []string{"/messages"},
	})
	assert.Equal(t, LevelComplete, c.ValidationLevel("/messages/3"))
}

func TestNewClassifier_NormalizesEntries(t *testing.T) {
	c := NewClassifier(Sets{Protected: []string{" dashboard ", "/bookings/", ""}})
	assert.True(t, c.IsProtectedRoute("/dashboard/x"))
	assert.True(t, c.IsProtectedRoute("/bookings"))
	assert.False(t, c.IsProtectedRoute(""))
}

func TestOverlaps(t *testing.T) {
	c := NewClassifier(Sets{
		Public:    []string{"/status", "/about"},
		Protected: []string{"/status"},
	})
	assert.Equal(t, []string{"/status"}, c.Overlaps())
	assert.Empty(t, testClassifier().Overlaps())
}
