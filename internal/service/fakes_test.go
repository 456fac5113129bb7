package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/educore-labs/educore-api/internal/authz"
	"github.com/educore-labs/educore-api/internal/models"
	"github.com/educore-labs/educore-api/internal/repository"
)

// stubTx runs the callback directly; service tests assert behavior, not
// transaction semantics.
type stubTx struct{}

func (stubTx) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordedAudit struct {
	actor      authz.Actor
	action     string
	entityType string
	entityID   *uint
	metadata   map[string]interface{}
}

type recordingAudit struct {
	entries []recordedAudit
}

func (r *recordingAudit) Record(_ context.Context, actor authz.Actor, action, entityType string, entityID *uint, metadata map[string]interface{}) error {
	r.entries = append(r.entries, recordedAudit{
		actor:      actor,
		action:     action,
		entityType: entityType,
		entityID:   entityID,
		metadata:   metadata,
	})
	return nil
}

func (r *recordingAudit) last() recordedAudit {
	return r.entries[len(r.entries)-1]
}

type memoryUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (m *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.ID] = *user
	m.nextID++
	return nil
}

func (m *memoryUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) List(_ context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	results := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		results = append(results, user)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memoryUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepo) UpdateLastLogin(_ context.Context, id uint, ts time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLoginAt = &ts
	m.users[id] = user
	return nil
}

type memoryCourseRepo struct {
	courses     map[uint]models.Course
	enrollments *memoryEnrollmentRepo
	nextID      uint
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[uint]models.Course), nextID: 1}
}

func (m *memoryCourseRepo) Create(_ context.Context, course *models.Course) error {
	for _, existing := range m.courses {
		if existing.Code == course.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	course.ID = m.nextID
	course.CreatedAt = time.Now()
	course.UpdatedAt = time.Now()
	m.courses[course.ID] = *course
	m.nextID++
	return nil
}

func (m *memoryCourseRepo) GetByID(_ context.Context, id uint) (models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (m *memoryCourseRepo) GetByCode(_ context.Context, code string) (models.Course, error) {
	for _, course := range m.courses {
		if course.Code == code {
			return course, nil
		}
	}
	return models.Course{}, gorm.ErrRecordNotFound
}

func (m *memoryCourseRepo) List(_ context.Context, filter repository.CourseFilter) ([]models.Course, int64, error) {
	results := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		if filter.Status != "" && course.Status != filter.Status {
			continue
		}
		if filter.LecturerID != nil && course.LecturerID != *filter.LecturerID {
			continue
		}
		results = append(results, course)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memoryCourseRepo) Update(_ context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	course.UpdatedAt = time.Now()
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *memoryCourseRepo) CountActiveEnrollments(_ context.Context, courseID uint) (int64, error) {
	if m.enrollments == nil {
		return 0, nil
	}
	var count int64
	for _, enrollment := range m.enrollments.enrollments {
		if enrollment.CourseID == courseID && enrollment.Status == models.EnrollmentStatusActive {
			count++
		}
	}
	return count, nil
}

type memoryEnrollmentRepo struct {
	enrollments map[uint]models.Enrollment
	courses     *memoryCourseRepo
	nextID      uint
}

func newMemoryEnrollmentRepo() *memoryEnrollmentRepo {
	return &memoryEnrollmentRepo{enrollments: make(map[uint]models.Enrollment), nextID: 1}
}

// withCourse emulates the repository's Course preload.
func (m *memoryEnrollmentRepo) withCourse(enrollment models.Enrollment) models.Enrollment {
	if m.courses != nil {
		if course, ok := m.courses.courses[enrollment.CourseID]; ok {
			enrollment.Course = course
		}
	}
	return enrollment
}

func (m *memoryEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	for _, existing := range m.enrollments {
		if existing.StudentID == enrollment.StudentID && existing.CourseID == enrollment.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = m.nextID
	enrollment.CreatedAt = time.Now()
	enrollment.UpdatedAt = time.Now()
	m.enrollments[enrollment.ID] = *enrollment
	m.nextID++
	return nil
}

func (m *memoryEnrollmentRepo) GetByID(_ context.Context, id uint) (models.Enrollment, error) {
	enrollment, ok := m.enrollments[id]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return m.withCourse(enrollment), nil
}

func (m *memoryEnrollmentRepo) GetByStudentAndCourse(_ context.Context, studentID, courseID uint) (models.Enrollment, error) {
	for _, enrollment := range m.enrollments {
		if enrollment.StudentID == studentID && enrollment.CourseID == courseID {
			return m.withCourse(enrollment), nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (m *memoryEnrollmentRepo) List(_ context.Context, filter repository.EnrollmentFilter) ([]models.Enrollment, int64, error) {
	results := make([]models.Enrollment, 0, len(m.enrollments))
	for _, enrollment := range m.enrollments {
		if filter.StudentID != nil && enrollment.StudentID != *filter.StudentID {
			continue
		}
		if filter.CourseID != nil && enrollment.CourseID != *filter.CourseID {
			continue
		}
		if filter.Status != "" && enrollment.Status != filter.Status {
			continue
		}
		results = append(results, m.withCourse(enrollment))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memoryEnrollmentRepo) Update(_ context.Context, enrollment *models.Enrollment) error {
	if _, ok := m.enrollments[enrollment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	enrollment.UpdatedAt = time.Now()
	stored := *enrollment
	stored.Course = models.Course{}
	m.enrollments[enrollment.ID] = stored
	return nil
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	courses     *memoryCourseRepo
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) withCourse(assignment models.Assignment) models.Assignment {
	if m.courses != nil {
		if course, ok := m.courses.courses[assignment.CourseID]; ok {
			assignment.Course = course
		}
	}
	return assignment
}

func (m *memoryAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	assignment.CreatedAt = time.Now()
	assignment.UpdatedAt = time.Now()
	m.assignments[assignment.ID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return m.withCourse(assignment), nil
}

func (m *memoryAssignmentRepo) ListByCourse(_ context.Context, courseID uint) ([]models.Assignment, error) {
	results := make([]models.Assignment, 0, len(m.assignments))
	for _, assignment := range m.assignments {
		if assignment.CourseID == courseID {
			results = append(results, m.withCourse(assignment))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryAssignmentRepo) ListByCourses(_ context.Context, courseIDs []uint) ([]models.Assignment, error) {
	wanted := make(map[uint]bool, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = true
	}
	results := make([]models.Assignment, 0, len(m.assignments))
	for _, assignment := range m.assignments {
		if wanted[assignment.CourseID] {
			results = append(results, m.withCourse(assignment))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	assignment.UpdatedAt = time.Now()
	stored := *assignment
	stored.Course = models.Course{}
	m.assignments[assignment.ID] = stored
	return nil
}

func (m *memoryAssignmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

type memoryModuleRepo struct {
	modules map[uint]models.Module
	nextID  uint
}

func newMemoryModuleRepo() *memoryModuleRepo {
	return &memoryModuleRepo{modules: make(map[uint]models.Module), nextID: 1}
}

func (m *memoryModuleRepo) Create(_ context.Context, module *models.Module) error {
	for _, existing := range m.modules {
		if existing.CourseID == module.CourseID && existing.Position == module.Position {
			return gorm.ErrDuplicatedKey
		}
	}
	module.ID = m.nextID
	module.CreatedAt = time.Now()
	module.UpdatedAt = time.Now()
	m.modules[module.ID] = *module
	m.nextID++
	return nil
}

func (m *memoryModuleRepo) GetByID(_ context.Context, id uint) (models.Module, error) {
	module, ok := m.modules[id]
	if !ok {
		return models.Module{}, gorm.ErrRecordNotFound
	}
	return module, nil
}

func (m *memoryModuleRepo) ListByCourse(_ context.Context, courseID uint) ([]models.Module, error) {
	results := make([]models.Module, 0, len(m.modules))
	for _, module := range m.modules {
		if module.CourseID == courseID {
			results = append(results, module)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Position < results[j].Position })
	return results, nil
}

func (m *memoryModuleRepo) Update(_ context.Context, module *models.Module) error {
	if _, ok := m.modules[module.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, existing := range m.modules {
		if existing.ID != module.ID && existing.CourseID == module.CourseID && existing.Position == module.Position {
			return gorm.ErrDuplicatedKey
		}
	}
	module.UpdatedAt = time.Now()
	stored := *module
	stored.Materials = nil
	m.modules[module.ID] = stored
	return nil
}

func (m *memoryModuleRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.modules[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.modules, id)
	return nil
}

type memoryMaterialRepo struct {
	materials map[uint]models.Material
	nextID    uint
}

func newMemoryMaterialRepo() *memoryMaterialRepo {
	return &memoryMaterialRepo{materials: make(map[uint]models.Material), nextID: 1}
}

func (m *memoryMaterialRepo) Create(_ context.Context, material *models.Material) error {
	material.ID = m.nextID
	material.CreatedAt = time.Now()
	material.UpdatedAt = time.Now()
	m.materials[material.ID] = *material
	m.nextID++
	return nil
}

func (m *memoryMaterialRepo) GetByID(_ context.Context, id uint) (models.Material, error) {
	material, ok := m.materials[id]
	if !ok {
		return models.Material{}, gorm.ErrRecordNotFound
	}
	return material, nil
}

func (m *memoryMaterialRepo) ListByModule(_ context.Context, moduleID uint) ([]models.Material, error) {
	results := make([]models.Material, 0, len(m.materials))
	for _, material := range m.materials {
		if material.ModuleID == moduleID {
			results = append(results, material)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memoryMaterialRepo) Update(_ context.Context, material *models.Material) error {
	if _, ok := m.materials[material.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	material.UpdatedAt = time.Now()
	m.materials[material.ID] = *material
	return nil
}

func (m *memoryMaterialRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.materials[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.materials, id)
	return nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	assignments *memoryAssignmentRepo
	nextID      uint
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (m *memorySubmissionRepo) withAssignment(submission models.Submission) models.Submission {
	if m.assignments != nil {
		if assignment, ok := m.assignments.assignments[submission.AssignmentID]; ok {
			submission.Assignment = assignment
		}
	}
	return submission
}

func (m *memorySubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		results = append(results, m.withAssignment(submission))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return m.withAssignment(submission), nil
}

func (m *memorySubmissionRepo) GetByAssignmentAndStudent(_ context.Context, assignmentID, studentID uint) (models.Submission, error) {
	for _, submission := range m.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return m.withAssignment(submission), nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (m *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	for _, existing := range m.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = m.nextID
	submission.CreatedAt = time.Now()
	submission.UpdatedAt = time.Now()
	m.submissions[submission.ID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	submission.UpdatedAt = time.Now()
	stored := *submission
	stored.Assignment = models.Assignment{}
	stored.Student = models.User{}
	m.submissions[submission.ID] = stored
	return nil
}

type memoryAuditLogRepo struct {
	entries []models.AuditLog
}

func (m *memoryAuditLogRepo) Create(_ context.Context, entry *models.AuditLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryAuditLogRepo) List(_ context.Context, filter repository.AuditLogFilter) ([]models.AuditLog, int64, error) {
	results := make([]models.AuditLog, 0, len(m.entries))
	for _, entry := range m.entries {
		if filter.ActorID != nil && entry.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		results = append(results, entry)
	}
	return results, int64(len(results)), nil
}
