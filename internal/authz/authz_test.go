package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminAllowsEverything(t *testing.T) {
	admin := Actor{ID: 1, Role: RoleAdmin}

	for _, kind := range []Kind{KindUser, KindCourse, KindModule, KindMaterial, KindEnrollment, KindAssignment, KindSubmission, KindAuditLog} {
		for _, action := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionGrade, ActionOverrideGrade} {
			d := Decide(admin, Resource{Kind: kind, OwnerID: 99, StudentID: 98}, action)
			require.True(t, d.Allowed, "admin denied %s on %s", action, kind)
		}
	}
}

func TestLecturerOwnership(t *testing.T) {
	owner := Actor{ID: 7, Role: RoleLecturer}
	other := Actor{ID: 8, Role: RoleLecturer}
	course := Resource{Kind: KindCourse, OwnerID: 7, CourseID: 3}

	require.True(t, Decide(owner, course, ActionUpdate).Allowed)
	require.True(t, Decide(owner, course, ActionDelete).Allowed)

	d := Decide(other, course, ActionUpdate)
	require.False(t, d.Allowed)
	require.False(t, d.HideExistence)

	// Reading the catalog does not require ownership.
	require.True(t, Decide(other, course, ActionRead).Allowed)

	// Ownership is transitive down to materials and assignments.
	material := Resource{Kind: KindMaterial, OwnerID: 7, CourseID: 3}
	require.True(t, Decide(owner, material, ActionUpdate).Allowed)
	require.False(t, Decide(other, material, ActionDelete).Allowed)
}

func TestLecturerMayCreateCourses(t *testing.T) {
	lecturer := Actor{ID: 5, Role: RoleLecturer}
	d := Decide(lecturer, Resource{Kind: KindCourse}, ActionCreate)
	require.True(t, d.Allowed)
}

func TestLecturerGrading(t *testing.T) {
	owner := Actor{ID: 7, Role: RoleLecturer}
	other := Actor{ID: 8, Role: RoleLecturer}
	submission := Resource{Kind: KindSubmission, OwnerID: 7, StudentID: 20, CourseID: 3}

	require.True(t, Decide(owner, submission, ActionGrade).Allowed)

	d := Decide(other, submission, ActionGrade)
	require.False(t, d.Allowed)
	require.True(t, d.HideExistence)

	// Override is reserved for admins even on owned courses.
	require.False(t, Decide(owner, submission, ActionOverrideGrade).Allowed)
}

func TestStudentContentVisibility(t *testing.T) {
	student := Actor{ID: 20, Role: RoleStudent}

	enrolled := Resource{Kind: KindModule, OwnerID: 7, CourseID: 3, ViewerEnrollment: "active"}
	require.True(t, Decide(student, enrolled, ActionRead).Allowed)

	completed := Resource{Kind: KindMaterial, OwnerID: 7, CourseID: 3, ViewerEnrollment: "completed"}
	require.True(t, Decide(student, completed, ActionRead).Allowed)

	// Dropped or missing enrollments hide the resource entirely.
	for _, status := range []string{"", "dropped"} {
		d := Decide(student, Resource{Kind: KindModule, CourseID: 3, ViewerEnrollment: status}, ActionRead)
		require.False(t, d.Allowed)
		require.True(t, d.HideExistence, "status %q should hide existence", status)
	}

	// The open-course catalog stays browsable before enrolling.
	open := Resource{Kind: KindCourse, CourseID: 3, CourseOpen: true}
	require.True(t, Decide(student, open, ActionRead).Allowed)

	draft := Resource{Kind: KindCourse, CourseID: 3}
	d := Decide(student, draft, ActionRead)
	require.False(t, d.Allowed)
	require.True(t, d.HideExistence)
}

func TestStudentSelfScope(t *testing.T) {
	student := Actor{ID: 20, Role: RoleStudent}

	own := Resource{Kind: KindSubmission, StudentID: 20, CourseID: 3}
	require.True(t, Decide(student, own, ActionCreate).Allowed)
	require.True(t, Decide(student, own, ActionUpdate).Allowed)
	require.True(t, Decide(student, own, ActionRead).Allowed)

	// Students can never grade, not even their own rows.
	require.False(t, Decide(student, own, ActionGrade).Allowed)
	require.False(t, Decide(student, own, ActionOverrideGrade).Allowed)

	foreign := Resource{Kind: KindSubmission, StudentID: 21, CourseID: 3}
	d := Decide(student, foreign, ActionRead)
	require.False(t, d.Allowed)
	require.True(t, d.HideExistence)

	enrollment := Resource{Kind: KindEnrollment, StudentID: 20, CourseID: 3}
	require.True(t, Decide(student, enrollment, ActionCreate).Allowed)
	require.True(t, Decide(student, enrollment, ActionUpdate).Allowed)
}

func TestDefaultDeny(t *testing.T) {
	student := Actor{ID: 20, Role: RoleStudent}

	// Students have no rule granting catalog mutations or audit access.
	require.False(t, Decide(student, Resource{Kind: KindCourse}, ActionCreate).Allowed)
	require.False(t, Decide(student, Resource{Kind: KindAuditLog}, ActionRead).Allowed)

	lecturer := Actor{ID: 7, Role: RoleLecturer}
	require.False(t, Decide(lecturer, Resource{Kind: KindAuditLog}, ActionRead).Allowed)

	unknown := Actor{ID: 1, Role: "observer"}
	require.False(t, Decide(unknown, Resource{Kind: KindCourse}, ActionRead).Allowed)
}

func TestRoleNormalization(t *testing.T) {
	d := Decide(Actor{ID: 1, Role: " Admin "}, Resource{Kind: KindCourse}, ActionDelete)
	require.True(t, d.Allowed)
}
