package models

import (
	"time"

	"github.com/lib/pq"
)

// JobStatus captures the approval state of a job posting.
type JobStatus string

const (
	JobPending  JobStatus = "PENDING"
	JobApproved JobStatus = "APPROVED"
	JobRejected JobStatus = "REJECTED"
)

// AudienceType scopes which students can see a posting.
type AudienceType string

const (
	AudienceAll      AudienceType = "ALL"
	AudienceColleges AudienceType = "COLLEGES"
	AudienceRegions  AudienceType = "REGIONS"
)

// JobPosting is an officer submitted opening awaiting or past admin review.
type JobPosting struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Company         string         `db:"company" json:"company"`
	Description     string         `db:"description" json:"description"`
	Location        string         `db:"location" json:"location"`
	PackageLPA      float64        `db:"package_lpa" json:"package_lpa"`
	Deadline        time.Time      `db:"deadline" json:"deadline"`
	AudienceType    AudienceType   `db:"audience_type" json:"audience_type"`
	CollegeIDs      pq.StringArray `db:"college_ids" json:"college_ids"`
	RegionIDs       pq.StringArray `db:"region_ids" json:"region_ids"`
	Status          JobStatus      `db:"status" json:"status"`
	RejectionReason *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	PostedBy        string         `db:"posted_by" json:"posted_by"`
	ReviewedBy      *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// TargetsStudent reports whether the posting's audience includes the college or region.
func (j *JobPosting) TargetsStudent(collegeID, regionID string) bool {
	switch j.AudienceType {
	case AudienceAll:
		return true
	case AudienceColleges:
		return contains(j.CollegeIDs, collegeID)
	case AudienceRegions:
		return contains(j.RegionIDs, regionID)
	default:
		return false
	}
}

// Open reports whether applications are still accepted at now.
func (j *JobPosting) Open(now time.Time) bool {
	return j.Status == JobApproved && !now.After(j.Deadline)
}

func contains(values []string, target string) bool {
	if target == "" {
		return false
	}
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// JobFilter constrains job listing queries.
type JobFilter struct {
	Status   *JobStatus
	PostedBy string
	Search   string
	Page     int
	PageSize int
}

// CreateJobRequest is the officer payload for submitting a posting.
type CreateJobRequest struct {
	Title        string       `json:"title" validate:"required,max=200"`
	Company      string       `json:"company" validate:"required,max=200"`
	Description  string       `json:"description" validate:"required"`
	Location     string       `json:"location" validate:"required"`
	PackageLPA   float64      `json:"package_lpa" validate:"gte=0"`
	Deadline     string       `json:"deadline" validate:"required,datetime=2006-01-02"`
	AudienceType AudienceType `json:"audience_type" validate:"required,oneof=ALL COLLEGES REGIONS"`
	CollegeIDs   []string     `json:"college_ids" validate:"required_if=AudienceType COLLEGES,dive,required"`
	RegionIDs    []string     `json:"region_ids" validate:"required_if=AudienceType REGIONS,dive,required"`
}

// JobApplication records a student applying to an approved posting.
type JobApplication struct {
	ID        string    `db:"id" json:"id"`
	JobID     string    `db:"job_id" json:"job_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	AppliedAt time.Time `db:"applied_at" json:"applied_at"`
}
