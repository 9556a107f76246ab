package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
)

// memStudents is an in-memory student store that evaluates plans with Plan.Apply,
// mirroring the conditional updates of the SQL repository.
type memStudents struct {
	mu       sync.Mutex
	students map[string]*models.Student
	order    []string

	registerErr error
	listErr     error
	failIDs     map[string]error
	lastPlan    studentfilter.Plan
	lastLimit   int
	// onWhitelist mirrors the pending-appeal update of a direct whitelist.
	onWhitelist func(studentID, reviewer string)
}

func newMemStudents(students ...models.Student) *memStudents {
	m := &memStudents{students: map[string]*models.Student{}, failIDs: map[string]error{}}
	for i := range students {
		s := students[i]
		m.students[s.ID] = &s
		m.order = append(m.order, s.ID)
	}
	return m
}

func (m *memStudents) all() []models.Student {
	out := make([]models.Student, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.students[id])
	}
	return out
}

func (m *memStudents) List(ctx context.Context, plan studentfilter.Plan, page, limit int) ([]models.Student, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	m.lastPlan = plan
	matched := plan.Apply(m.all())
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (m *memStudents) Count(ctx context.Context, plan studentfilter.Plan) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return 0, m.listErr
	}
	m.lastPlan = plan
	return len(plan.Apply(m.all())), nil
}

func (m *memStudents) ListAll(ctx context.Context, plan studentfilter.Plan, limit int) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	matched := plan.Apply(m.all())
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *memStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (m *memStudents) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if m.students[id].UserID == userID {
			copied := *m.students[id]
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStudents) Register(ctx context.Context, user *models.User, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registerErr != nil {
		return m.registerErr
	}
	for _, id := range m.order {
		existing := m.students[id]
		if existing.PRN == student.PRN {
			return &repository.DuplicateError{Constraint: "students_prn_key"}
		}
		if existing.Email == student.Email {
			return &repository.DuplicateError{Constraint: "users_email_key"}
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(m.order)+1)
	student.ID = fmt.Sprintf("stu-%d", len(m.order)+1)
	student.UserID = user.ID
	student.RegistrationStatus = models.RegistrationPending
	copied := *student
	m.students[student.ID] = &copied
	m.order = append(m.order, student.ID)
	return nil
}

func (m *memStudents) UpdateProfile(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *student
	m.students[student.ID] = &copied
	return nil
}

func (m *memStudents) guard(id string, allowed func(s *models.Student) bool, apply func(s *models.Student)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failIDs[id]; ok {
		return err
	}
	s, ok := m.students[id]
	if !ok || !allowed(s) {
		return sql.ErrNoRows
	}
	apply(s)
	return nil
}

func (m *memStudents) Approve(ctx context.Context, id string) error {
	return m.guard(id, func(s *models.Student) bool { return s.RegistrationStatus == models.RegistrationPending },
		func(s *models.Student) { s.RegistrationStatus = models.RegistrationApproved; s.RejectionReason = nil })
}

func (m *memStudents) Reject(ctx context.Context, id, reason string) error {
	return m.guard(id, func(s *models.Student) bool { return s.RegistrationStatus == models.RegistrationPending },
		func(s *models.Student) {
			s.RegistrationStatus = models.RegistrationRejected
			s.RejectionReason = &reason
		})
}

func (m *memStudents) Blacklist(ctx context.Context, id, reason string) error {
	return m.guard(id, func(s *models.Student) bool {
		return s.RegistrationStatus == models.RegistrationApproved && !s.IsBlacklisted
	}, func(s *models.Student) { s.IsBlacklisted = true; s.BlacklistReason = &reason })
}

func (m *memStudents) Whitelist(ctx context.Context, id, reviewer string) error {
	if err := m.lift(id); err != nil {
		return err
	}
	if m.onWhitelist != nil {
		m.onWhitelist(id, reviewer)
	}
	return nil
}

func (m *memStudents) lift(id string) error {
	return m.guard(id, func(s *models.Student) bool { return s.IsBlacklisted },
		func(s *models.Student) {
			s.IsBlacklisted = false
			s.BlacklistReason = nil
		})
}

type recordedActivity struct {
	action   string
	entityID string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedActivity
}

func (f *fakeRecorder) Record(ctx context.Context, actor *models.JWTClaims, action, entityType, entityID, details string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedActivity{action: action, entityID: entityID})
}

func (f *fakeRecorder) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.action)
	}
	return out
}

var (
	adminActor   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleSuperAdmin}
	officerActor = &models.JWTClaims{UserID: "officer-1", Role: models.RolePlacementOfficer, CollegeID: "col-a"}
	studentActor = &models.JWTClaims{UserID: "user-s1", Role: models.RoleStudent}
)

func floatPtr(v float64) *float64 { return &v }

func sampleStudent(id, college string, status models.RegistrationStatus, created time.Time) models.Student {
	return models.Student{
		ID:                 id,
		UserID:             "user-" + id,
		PRN:                "PRN" + id,
		Name:               "Student " + id,
		Email:              id + "@example.com",
		Branch:             "Computer Engineering",
		CollegeID:          college,
		CollegeName:        "College " + college,
		RegionID:           "reg-1",
		RegionName:         "West",
		DateOfBirth:        time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC),
		RegistrationStatus: status,
		CGPASem1:           floatPtr(8),
		ProgrammeCGPA:      8,
		CreatedAt:          created,
	}
}
