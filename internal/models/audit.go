package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded by the service. The log is append-only: no update
// or delete path exists anywhere in the codebase.
const (
	AuditActionUserRegistered   = "user.registered"
	AuditActionUserLoggedIn     = "user.logged_in"
	AuditActionUserRoleChanged  = "user.role_changed"
	AuditActionProfileUpdated   = "user.profile_updated"
	AuditActionUserDeactivated  = "user.deactivated"
	AuditActionPasswordChanged  = "user.password_changed"
	AuditActionCourseCreated    = "course.created"
	AuditActionCourseUpdated    = "course.updated"
	AuditActionCourseDeleted    = "course.deleted"
	AuditActionModuleCreated    = "module.created"
	AuditActionModuleUpdated    = "module.updated"
	AuditActionModuleDeleted    = "module.deleted"
	AuditActionMaterialCreated  = "material.created"
	AuditActionMaterialUpdated  = "material.updated"
	AuditActionMaterialDeleted  = "material.deleted"
	AuditActionEnrolled         = "enrollment.created"
	AuditActionEnrollmentDrop   = "enrollment.dropped"
	AuditActionEnrollmentGraded = "enrollment.completed"
	AuditActionAssignmentCreate = "assignment.created"
	AuditActionAssignmentUpdate = "assignment.updated"
	AuditActionAssignmentDelete = "assignment.deleted"
	AuditActionSubmissionSaved  = "submission.saved"
	AuditActionSubmitted        = "submission.submitted"
	AuditActionGraded           = "submission.graded"
	AuditActionGradeOverridden  = "submission.grade_overridden"
)

// AuditLog is an append-only record of a mutating action.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index:idx_audit_actor_action,priority:1" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index:idx_audit_actor_action,priority:2" json:"action"`
	EntityType string            `gorm:"size:64;not null;index" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}
