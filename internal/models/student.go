package models

import (
	"math"
	"time"
)

// RegistrationStatus captures the approval state of a student registration.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// SemesterCount is the number of semesters tracked per student.
const SemesterCount = 6

// Student is a registered candidate together with its college and region names.
type Student struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	PRN          string    `db:"prn" json:"prn"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	MobileNumber string    `db:"mobile_number" json:"mobile_number"`
	DateOfBirth  time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender       string    `db:"gender" json:"gender"`
	Height       float64   `db:"height" json:"height"`
	Weight       float64   `db:"weight" json:"weight"`
	Branch       string    `db:"branch" json:"branch"`
	CollegeID    string    `db:"college_id" json:"college_id"`
	CollegeName  string    `db:"college_name" json:"college_name"`
	RegionID     string    `db:"region_id" json:"region_id"`
	RegionName   string    `db:"region_name" json:"region_name"`
	District     string    `db:"district" json:"district"`

	CGPASem1      *float64 `db:"cgpa_sem1" json:"cgpa_sem1,omitempty"`
	CGPASem2      *float64 `db:"cgpa_sem2" json:"cgpa_sem2,omitempty"`
	CGPASem3      *float64 `db:"cgpa_sem3" json:"cgpa_sem3,omitempty"`
	CGPASem4      *float64 `db:"cgpa_sem4" json:"cgpa_sem4,omitempty"`
	CGPASem5      *float64 `db:"cgpa_sem5" json:"cgpa_sem5,omitempty"`
	CGPASem6      *float64 `db:"cgpa_sem6" json:"cgpa_sem6,omitempty"`
	ProgrammeCGPA float64  `db:"programme_cgpa" json:"programme_cgpa"`
	BacklogsSem1  int      `db:"backlogs_sem1" json:"backlogs_sem1"`
	BacklogsSem2  int      `db:"backlogs_sem2" json:"backlogs_sem2"`
	BacklogsSem3  int      `db:"backlogs_sem3" json:"backlogs_sem3"`
	BacklogsSem4  int      `db:"backlogs_sem4" json:"backlogs_sem4"`
	BacklogsSem5  int      `db:"backlogs_sem5" json:"backlogs_sem5"`
	BacklogsSem6  int      `db:"backlogs_sem6" json:"backlogs_sem6"`
	BacklogCount  int      `db:"backlog_count" json:"backlog_count"`

	HasDrivingLicense bool `db:"has_driving_license" json:"has_driving_license"`
	HasPAN            bool `db:"has_pan" json:"has_pan"`
	HasAadhar         bool `db:"has_aadhar" json:"has_aadhar"`
	HasPassport       bool `db:"has_passport" json:"has_passport"`

	RegistrationStatus RegistrationStatus `db:"registration_status" json:"registration_status"`
	IsBlacklisted      bool               `db:"is_blacklisted" json:"is_blacklisted"`
	RejectionReason    *string            `db:"rejection_reason" json:"rejection_reason,omitempty"`
	BlacklistReason    *string            `db:"blacklist_reason" json:"blacklist_reason,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

// SemesterCGPAs returns pointers to the per-semester CGPA fields in order.
func (s *Student) SemesterCGPAs() [SemesterCount]**float64 {
	return [SemesterCount]**float64{&s.CGPASem1, &s.CGPASem2, &s.CGPASem3, &s.CGPASem4, &s.CGPASem5, &s.CGPASem6}
}

// SemesterBacklogs returns pointers to the per-semester backlog fields in order.
func (s *Student) SemesterBacklogs() [SemesterCount]*int {
	return [SemesterCount]*int{&s.BacklogsSem1, &s.BacklogsSem2, &s.BacklogsSem3, &s.BacklogsSem4, &s.BacklogsSem5, &s.BacklogsSem6}
}

// RecomputeAcademics derives ProgrammeCGPA (mean of populated semesters, two decimals)
// and BacklogCount (sum of semester backlogs).
func (s *Student) RecomputeAcademics() {
	var sum float64
	var populated int
	for _, cgpa := range s.SemesterCGPAs() {
		if *cgpa != nil {
			sum += **cgpa
			populated++
		}
	}
	if populated == 0 {
		s.ProgrammeCGPA = 0
	} else {
		s.ProgrammeCGPA = math.Round(sum/float64(populated)*100) / 100
	}

	total := 0
	for _, backlogs := range s.SemesterBacklogs() {
		total += *backlogs
	}
	s.BacklogCount = total
}

// RegisterStudentRequest is the public self registration payload.
type RegisterStudentRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	PRN          string  `json:"prn" validate:"required,max=32"`
	Name         string  `json:"name" validate:"required"`
	MobileNumber string  `json:"mobile_number" validate:"required,numeric,len=10"`
	DateOfBirth  string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender       string  `json:"gender" validate:"required,oneof=male female other"`
	Branch       string  `json:"branch" validate:"required"`
	CollegeID    string  `json:"college_id" validate:"required"`
	RegionID     string  `json:"region_id" validate:"required"`
	District     string  `json:"district" validate:"required"`
	Height       float64 `json:"height" validate:"gte=0"`
	Weight       float64 `json:"weight" validate:"gte=0"`
}

// UpdateStudentProfileRequest carries optional profile edits; nil fields are untouched.
type UpdateStudentProfileRequest struct {
	Name              *string                `json:"name" validate:"omitempty,min=1"`
	MobileNumber      *string                `json:"mobile_number" validate:"omitempty,numeric,len=10"`
	Gender            *string                `json:"gender" validate:"omitempty,oneof=male female other"`
	Height            *float64               `json:"height" validate:"omitempty,gte=0"`
	Weight            *float64               `json:"weight" validate:"omitempty,gte=0"`
	District          *string                `json:"district" validate:"omitempty,min=1"`
	HasDrivingLicense *bool                  `json:"has_driving_license"`
	HasPAN            *bool                  `json:"has_pan"`
	HasAadhar         *bool                  `json:"has_aadhar"`
	HasPassport       *bool                  `json:"has_passport"`
	Semesters         []SemesterResultUpdate `json:"semesters" validate:"omitempty,dive"`
}

// SemesterResultUpdate sets the CGPA and backlog count of one semester.
type SemesterResultUpdate struct {
	Semester int      `json:"semester" validate:"required,min=1,max=6"`
	CGPA     *float64 `json:"cgpa" validate:"omitempty,gte=0,lte=10"`
	Backlogs int      `json:"backlogs" validate:"gte=0"`
}

// StatusReasonRequest carries the reason for a reject or blacklist transition.
type StatusReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// BulkStatusRequest targets several students with one transition.
type BulkStatusRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=500,dive,required"`
	Reason     string   `json:"reason" validate:"omitempty,max=500"`
}

// BatchFailure describes one failed item of a bulk operation.
type BatchFailure struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BatchResult reports per item outcomes of a non atomic bulk operation.
type BatchResult struct {
	Succeeded []string       `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

// HasFailures reports whether any item failed.
func (r *BatchResult) HasFailures() bool {
	return r != nil && len(r.Failed) > 0
}
