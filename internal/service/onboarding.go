package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	"github.com/lessonloop/gateway/internal/domain/routes"
	"github.com/lessonloop/gateway/internal/ports"
)

// DefaultRequiredTutorFields are the tutor-record fields that must be
// filled in before a tutor may use the rest of the platform. Each
// entry is a JMESPath expression evaluated against the raw record.
var DefaultRequiredTutorFields = []string{
	"bio",
	"subjects",
	"rates.hourly",
	"availability.timezone",
}

// OnboardingCheck is the gate's verdict for one request.
type OnboardingCheck struct {
	NeedsOnboarding bool
	RedirectTo      string
}

// OnboardingGateOptions groups dependencies for OnboardingGate.
type OnboardingGateOptions struct {
	Profiles ports.ProfileAPI
	Logger   *slog.Logger

	// GatedRole defaults to RoleTutor.
	GatedRole domainauth.Role
	// RequiredFields defaults to DefaultRequiredTutorFields.
	RequiredFields []string
	// ExcludedPaths are path prefixes the gate must never redirect,
	// or it would bounce its own target pages back to themselves.
	// Defaults to the onboarding flow, the auth-API namespace, and the
	// login/logout pages.
	ExcludedPaths []string
	// FirstStepPath is the redirect target for an incomplete record.
	FirstStepPath string
}

// OnboardingGate checks, after a session has been validated, that a
// tutor finished the required setup flow. It fails open: a transient
// profile-service error must not trap users in an onboarding loop.
type OnboardingGate struct {
	profiles ports.ProfileAPI
	logger   *slog.Logger

	gatedRole     domainauth.Role
	required      []string
	excludedPaths []string
	firstStepPath string
}

// NewOnboardingGate constructs an OnboardingGate. Invalid required-field
// expressions are rejected so misconfiguration surfaces at startup.
func NewOnboardingGate(opts OnboardingGateOptions) (*OnboardingGate, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gatedRole := opts.GatedRole
	if gatedRole == "" {
		gatedRole = domainauth.RoleTutor
	}

	fields := opts.RequiredFields
	if len(fields) == 0 {
		fields = DefaultRequiredTutorFields
	}
	for _, expr := range fields {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile required field %q: %w", expr, err)
		}
	}

	excluded := opts.ExcludedPaths
	if len(excluded) == 0 {
		excluded = []string{"/onboarding", "/api/auth", "/login", "/logout"}
	}

	firstStep := opts.FirstStepPath
	if firstStep == "" {
		firstStep = "/onboarding/profile"
	}

	// The gate must never redirect its own target page, or an
	// incomplete record would loop forever. The first step's namespace
	// is always excluded, whatever the configured lists say.
	if ns := pathNamespace(firstStep); !pathExcluded(firstStep, excluded) {
		excluded = append(excluded, ns)
	}

	return &OnboardingGate{
		profiles:      opts.Profiles,
		logger:        logger,
		gatedRole:     gatedRole,
		required:      fields,
		excludedPaths: excluded,
		firstStepPath: firstStep,
	}, nil
}

// CheckOnboarding decides whether the request must be diverted into
// the onboarding flow.
func (g *OnboardingGate) CheckOnboarding(
	ctx context.Context,
	sess *domainauth.Session,
	pathname string,
) OnboardingCheck {
	if sess == nil || sess.Role != g.gatedRole {
		return OnboardingCheck{}
	}
	if pathExcluded(pathname, g.excludedPaths) {
		return OnboardingCheck{}
	}

	profile, err := g.profiles.GetProfile(ctx, sess.AccessToken)
	if err != nil {
		g.logger.WarnContext(ctx, "onboarding check skipped: profile fetch failed",
			"user_id", sess.UserID, "error", err)
		return OnboardingCheck{}
	}

	// A tutor with no tutor record at all has not started onboarding.
	if profile.TutorID == "" {
		return OnboardingCheck{NeedsOnboarding: true, RedirectTo: g.firstStepPath}
	}

	record, err := g.profiles.GetTutorRecord(ctx, sess.AccessToken, profile.TutorID)
	if err != nil {
		g.logger.WarnContext(ctx, "onboarding check skipped: tutor record fetch failed",
			"user_id", sess.UserID, "tutor_id", profile.TutorID, "error", err)
		return OnboardingCheck{}
	}

	for _, expr := range g.required {
		value, searchErr := jmespath.Search(expr, record)
		if searchErr != nil || isEmptyFieldValue(value) {
			return OnboardingCheck{NeedsOnboarding: true, RedirectTo: g.firstStepPath}
		}
	}
	return OnboardingCheck{}
}

// pathExcluded reports whether pathname falls under any of the
// excluded prefixes.
func pathExcluded(pathname string, excluded []string) bool {
	for _, e := range excluded {
		if routes.MatchesRoutePattern(pathname, e) {
			return true
		}
	}
	return false
}

// pathNamespace returns the first segment of a path ("/setup/start"
// -> "/setup"), the prefix under which the whole flow lives.
func pathNamespace(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.Index(trimmed, "/"); i > 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}

// isEmptyFieldValue reports whether a JMESPath result counts as "not
// filled in": absent, empty string, or empty collection.
func isEmptyFieldValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case []any:
		return len(value) == 0
	case map[string]any:
		return len(value) == 0
	default:
		return false
	}
}
