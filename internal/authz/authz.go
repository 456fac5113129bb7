// Package authz evaluates the role × resource × operation rule table that
// governs every protected endpoint. It operates on plain values so rules
// can be unit-tested without a database or HTTP transport.
package authz

import "strings"

// Role names accepted by the rule table.
const (
	RoleAdmin    = "admin"
	RoleLecturer = "lecturer"
	RoleStudent  = "student"
)

// Action identifies the requested operation on a resource.
type Action string

// Actions evaluated by the rule table.
const (
	ActionCreate        Action = "create"
	ActionRead          Action = "read"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionGrade         Action = "grade"
	ActionOverrideGrade Action = "override_grade"
)

// Kind identifies the resource class a rule applies to.
type Kind string

// Resource kinds known to the rule table.
const (
	KindUser       Kind = "user"
	KindCourse     Kind = "course"
	KindModule     Kind = "module"
	KindMaterial   Kind = "material"
	KindEnrollment Kind = "enrollment"
	KindAssignment Kind = "assignment"
	KindSubmission Kind = "submission"
	KindAuditLog   Kind = "audit_log"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uint
	Role string
}

// Resource describes the target of a request in persistence-free terms.
// OwnerID is the (transitive) course owner for catalog resources; StudentID
// is the owning student for enrollment and submission rows.
// ViewerEnrollment carries the caller's enrollment status for the resource's
// course ("" when not enrolled) so the enrollment rule needs no DB access.
type Resource struct {
	Kind             Kind
	OwnerID          uint
	StudentID        uint
	CourseID         uint
	CourseOpen       bool
	ViewerEnrollment string
}

// Decision is the outcome of a rule evaluation. When HideExistence is set a
// denial must surface as NOT_FOUND instead of FORBIDDEN, so unauthorized
// callers cannot probe for resource existence.
type Decision struct {
	Allowed       bool
	Reason        string
	HideExistence bool
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }

func deny(reason string) Decision { return Decision{Reason: reason} }

func denyHidden(reason string) Decision { return Decision{Reason: reason, HideExistence: true} }

// enrolledForReading reports whether the viewer's enrollment grants content
// visibility. Active and completed count; dropped does not.
func enrolledForReading(status string) bool {
	return status == "active" || status == "completed"
}

type rule struct {
	name  string
	match func(Actor, Resource, Action) bool
	check func(Actor, Resource, Action) Decision
}

// The table is evaluated top to bottom; the first matching rule decides.
// Anything that falls through is denied.
var rules = []rule{
	{
		name:  "admin-allow",
		match: func(a Actor, _ Resource, _ Action) bool { return a.Role == RoleAdmin },
		check: func(Actor, Resource, Action) Decision { return allow("admin") },
	},
	{
		name: "lecturer-ownership",
		match: func(a Actor, r Resource, _ Action) bool {
			return a.Role == RoleLecturer && isCatalogKind(r.Kind)
		},
		check: func(a Actor, r Resource, act Action) Decision {
			if act == ActionCreate && r.Kind == KindCourse {
				return allow("lecturer may create courses")
			}
			if r.OwnerID == a.ID {
				return allow("course owner")
			}
			if act == ActionRead {
				// Lecturers can browse the catalog like anyone else.
				return allow("catalog read")
			}
			return deny("not the course owner")
		},
	},
	{
		name: "lecturer-grading",
		match: func(a Actor, r Resource, act Action) bool {
			return a.Role == RoleLecturer && (r.Kind == KindSubmission || r.Kind == KindEnrollment)
		},
		check: func(a Actor, r Resource, act Action) Decision {
			if act == ActionOverrideGrade {
				return deny("grade override requires admin")
			}
			if r.OwnerID == a.ID {
				return allow("course owner")
			}
			return denyHidden("not the course owner")
		},
	},
	{
		name: "student-content-visibility",
		match: func(a Actor, r Resource, act Action) bool {
			return a.Role == RoleStudent && isCatalogKind(r.Kind) && act == ActionRead
		},
		check: func(a Actor, r Resource, _ Action) Decision {
			if r.Kind == KindCourse && r.CourseOpen {
				// The open-course catalog is browsable pre-enrollment.
				return allow("open course")
			}
			if enrolledForReading(r.ViewerEnrollment) {
				return allow("enrolled")
			}
			return denyHidden("no active enrollment")
		},
	},
	{
		name: "student-self-scope",
		match: func(a Actor, r Resource, _ Action) bool {
			return a.Role == RoleStudent && (r.Kind == KindEnrollment || r.Kind == KindSubmission)
		},
		check: func(a Actor, r Resource, act Action) Decision {
			if act == ActionGrade || act == ActionOverrideGrade {
				return deny("students may not grade")
			}
			if r.StudentID != 0 && r.StudentID != a.ID {
				return denyHidden("not the owning student")
			}
			return allow("own record")
		},
	},
	{
		name: "student-self-profile",
		match: func(a Actor, r Resource, act Action) bool {
			return r.Kind == KindUser && (act == ActionRead || act == ActionUpdate)
		},
		check: func(a Actor, r Resource, _ Action) Decision {
			if r.StudentID == a.ID {
				return allow("own profile")
			}
			return denyHidden("not the account owner")
		},
	},
}

// Decide evaluates the rule table for the given actor, resource and action.
func Decide(actor Actor, resource Resource, action Action) Decision {
	actor.Role = strings.ToLower(strings.TrimSpace(actor.Role))

	for _, r := range rules {
		if r.match(actor, resource, action) {
			d := r.check(actor, resource, action)
			if d.Reason == "" {
				d.Reason = r.name
			}
			return d
		}
	}

	return deny("no matching rule")
}

func isCatalogKind(k Kind) bool {
	switch k {
	case KindCourse, KindModule, KindMaterial, KindAssignment:
		return true
	}
	return false
}
