package routes

// Package routes implements the pure route-classification rules the
// gateway uses to decide how much session validation a path requires.

import "strings"

// Level is the depth of session checking a route demands.
type Level string

const (
	// LevelNone skips session validation entirely (public routes).
	LevelNone Level = "none"
	// LevelBasic validates the bearer token locally.
	LevelBasic Level = "basic"
	// LevelComplete additionally verifies the account with the identity provider.
	LevelComplete Level = "complete"
)

// Classification is the verdict for a single pathname.
type Classification struct {
	IsPublic    bool
	IsProtected bool
	IsCritical  bool
	Level       Level
}

// Classifier maps request paths onto validation levels. It is built
// once at startup and safe for concurrent use; classification is a
// pure function of the pathname.
type Classifier struct {
	public    []string
	protected []string
	critical  []string
}

// Sets groups the three route sets for NewClassifier.
type Sets struct {
	Public    []string
	Protected []string
	Critical  []string
}

// NewClassifier builds a Classifier from the configured route sets.
// Entries are matched exactly or as a path prefix followed by "/";
// ordering within a set does not matter.
func NewClassifier(sets Sets) *Classifier {
	return &Classifier{
		public:    normalize(sets.Public),
		protected: normalize(sets.Protected),
		critical:  normalize(sets.Critical),
	}
}

func normalize(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, "/") {
			e = "/" + e
		}
		// Keep "/" as-is; strip trailing slashes elsewhere so that
		// "/dashboard/" and "/dashboard" behave identically.
		if e != "/" {
			e = strings.TrimRight(e, "/")
		}
		out = append(out, e)
	}
	return out
}

// MatchesRoutePattern reports whether path is the entry itself or a
// descendant of it ("/dashboard" matches "/dashboard/x" but not
// "/dashboardx"). The root entry "/" matches only the root path.
func MatchesRoutePattern(path, entry string) bool {
	if entry == "/" {
		return path == "/"
	}
	return path == entry || strings.HasPrefix(path, entry+"/")
}

func matchesAny(path string, entries []string) bool {
	for _, e := range entries {
		if MatchesRoutePattern(path, e) {
			return true
		}
	}
	return false
}

// Classify returns the full classification for a pathname. Precedence
// when a path appears in more than one set: public beats critical
// beats protected. Paths in no set default to LevelBasic so that a
// route missing from configuration is never accidentally left open.
func (c *Classifier) Classify(path string) Classification {
	cl := Classification{
		IsPublic:    matchesAny(path, c.public),
		IsProtected: matchesAny(path, c.protected),
		IsCritical:  matchesAny(path, c.critical),
	}

	switch {
	case cl.IsPublic:
		cl.Level = LevelNone
	case cl.IsCritical:
		cl.Level = LevelComplete
	default:
		cl.Level = LevelBasic
	}
	return cl
}

// ValidationLevel returns only the level for a pathname.
func (c *Classifier) ValidationLevel(path string) Level {
	return c.Classify(path).Level
}

// RequiresAuth reports whether a pathname demands an authenticated session.
func (c *Classifier) RequiresAuth(path string) bool {
	return c.Classify(path).Level != LevelNone
}

// IsPublicRoute reports membership in the public set.
func (c *Classifier) IsPublicRoute(path string) bool { return matchesAny(path, c.public) }

// IsProtectedRoute reports membership in the protected set.
func (c *Classifier) IsProtectedRoute(path string) bool { return matchesAny(path, c.protected) }

// IsCriticalRoute reports membership in the critical set.
func (c *Classifier) IsCriticalRoute(path string) bool { return matchesAny(path, c.critical) }

// Overlaps returns entries that appear in more than one set. The
// classifier resolves these by precedence at request time; bootstrap
// logs them so misconfiguration is visible at startup.
func (c *Classifier) Overlaps() []string {
	seen := map[string]int{}
	for _, set := range [][]string{c.public, c.protected, c.critical} {
		for _, e := range set {
			seen[e]++
		}
	}
	var dups []string
	for e, n := range seen {
		if n > 1 {
			dups = append(dups, e)
		}
	}
	return dups
}
