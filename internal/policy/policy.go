package policy

// Role is the single authorization level carried by a session. Exactly one
// per authenticated user, assigned at login and immutable until logout.
type Role string

const (
	RoleStudent          Role = "STUDENT"
	RoleUniversityAdmin  Role = "UNIVERSITY_ADMIN"
	RoleInstitutionAdmin Role = "INSTITUTION_ADMIN"
	RoleContestManager   Role = "CONTEST_MANAGER"
	RoleJuryMember       Role = "JURY_MEMBER"
)

// Known reports whether r is one of the five platform roles.
func Known(r Role) bool {
	switch r {
	case RoleStudent, RoleUniversityAdmin, RoleInstitutionAdmin, RoleContestManager, RoleJuryMember:
		return true
	}
	return false
}

// RouteRequirement is the static access rule attached to a route.
// An empty Roles slice means any authenticated role may enter.
type RouteRequirement struct {
	Roles    []Role `json:"roles"`
	PageName string `json:"page_name,omitempty"` // shown on the denial view only
}

type Effect string

const (
	Allow    Effect = "allow"
	Deny     Effect = "deny"
	Redirect Effect = "redirect"
)

// Decision is the outcome of an access check. For Deny it carries enough
// context to render an explanation; for Redirect, the destination.
type Decision struct {
	Effect        Effect `json:"effect"`
	RedirectTo    string `json:"redirect_to,omitempty"`
	RequiredRoles []Role `json:"required_roles,omitempty"`
	PageName      string `json:"page_name,omitempty"`
}

// Well-known frontend paths. The API serves these to clients so that route
// tables stay in one place.
const (
	PathLogin                = "/login"
	PathHome                 = "/"
	PathStudentDashboard     = "/student/dashboard"
	PathInstitutionDashboard = "/institution/dashboard"
	PathGradeEntry           = "/contests/grade-entry"
)

// Evaluate decides whether a session may enter a route. It never errors:
// an unauthenticated caller is redirected to login regardless of the
// requirement, a mismatched role is denied with the roles it would need.
func Evaluate(currentRole Role, isAuthenticated bool, req RouteRequirement) Decision {
	if !isAuthenticated {
		return Decision{Effect: Redirect, RedirectTo: PathLogin}
	}
	if len(req.Roles) == 0 {
		return Decision{Effect: Allow}
	}
	for _, r := range req.Roles {
		if r == currentRole {
			return Decision{Effect: Allow}
		}
	}
	return Decision{Effect: Deny, RequiredRoles: req.Roles, PageName: req.PageName}
}

// LandingPageFor maps a role to its post-login destination. Total over all
// inputs: unknown or empty roles land on the public home, never an error,
// because the UI always needs somewhere to go.
func LandingPageFor(role Role) string {
	switch role {
	case RoleContestManager:
		return PathGradeEntry
	case RoleUniversityAdmin, RoleInstitutionAdmin:
		return PathInstitutionDashboard
	case RoleStudent:
		return PathStudentDashboard
	default:
		return PathHome
	}
}
