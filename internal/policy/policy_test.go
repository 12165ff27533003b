package policy

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEvaluateUnauthenticatedRedirectsToLogin(t *testing.T) {
	reqs := []RouteRequirement{
		{},
		{Roles: []Role{RoleStudent}},
		{Roles: []Role{RoleUniversityAdmin, RoleJuryMember}},
	}
	for _, req := range reqs {
		d := Evaluate("", false, req)
		if d.Effect != Redirect || d.RedirectTo != PathLogin {
			t.Fatalf("requirement %+v: got %+v, want redirect to %s", req, d, PathLogin)
		}
	}
}

func TestEvaluateEmptyRequirementAllowsAnyRole(t *testing.T) {
	d := Evaluate(RoleJuryMember, true, RouteRequirement{})
	if d.Effect != Allow {
		t.Fatalf("got %+v, want allow", d)
	}
}

func TestEvaluateMatchingRoleAllows(t *testing.T) {
	d := Evaluate(RoleStudent, true, RouteRequirement{Roles: []Role{RoleStudent}})
	if d.Effect != Allow {
		t.Fatalf("got %+v, want allow", d)
	}
}

func TestEvaluateMismatchedRoleDenies(t *testing.T) {
	req := RouteRequirement{Roles: []Role{RoleUniversityAdmin}, PageName: "Institution dashboard"}
	d := Evaluate(RoleStudent, true, req)
	if d.Effect != Deny {
		t.Fatalf("got %+v, want deny", d)
	}
	if len(d.RequiredRoles) != 1 || d.RequiredRoles[0] != RoleUniversityAdmin {
		t.Fatalf("required roles = %v", d.RequiredRoles)
	}
	if d.PageName != "Institution dashboard" {
		t.Fatalf("page name = %q", d.PageName)
	}
}

func TestLandingPageFor(t *testing.T) {
	cases := []struct {
		role Role
		want string
	}{
		{RoleContestManager, PathGradeEntry},
		{RoleUniversityAdmin, PathInstitutionDashboard},
		{RoleInstitutionAdmin, PathInstitutionDashboard},
		{RoleStudent, PathStudentDashboard},
		{RoleJuryMember, PathHome},
		{Role("SOMETHING_ELSE"), PathHome},
		{Role(""), PathHome},
	}
	for _, c := range cases {
		if got := LandingPageFor(c.role); got != c.want {
			t.Errorf("LandingPageFor(%q) = %q, want %q", c.role, got, c.want)
		}
	}
}

func TestGuardMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Require(RoleContestManager)(next)

	// no role in context → 401
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/grades", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: status %d", rec.Code)
	}

	// wrong role → 403
	rec = httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/grades", nil)
	h.ServeHTTP(rec, r.WithContext(WithRole(r.Context(), RoleStudent)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong role: status %d", rec.Code)
	}

	// matching role → pass through
	rec = httptest.NewRecorder()
	r = httptest.NewRequest("GET", "/grades", nil)
	h.ServeHTTP(rec, r.WithContext(WithRole(r.Context(), RoleContestManager)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("matching role: status %d", rec.Code)
	}
}
