package models

import "time"

// Activity actions recorded by the portal.
const (
	ActivityStudentRegistered  = "STUDENT_REGISTERED"
	ActivityStudentApproved    = "STUDENT_APPROVED"
	ActivityStudentRejected    = "STUDENT_REJECTED"
	ActivityStudentBlacklisted = "STUDENT_BLACKLISTED"
	ActivityStudentWhitelisted = "STUDENT_WHITELISTED"
	ActivityWhitelistRequested = "WHITELIST_REQUESTED"
	ActivityWhitelistReviewed  = "WHITELIST_REVIEWED"
	ActivityJobSubmitted       = "JOB_SUBMITTED"
	ActivityJobReviewed        = "JOB_REVIEWED"
	ActivityJobApplied         = "JOB_APPLIED"
	ActivityStudentsExported   = "STUDENTS_EXPORTED"
)

// ActivityLog is an entry in the portal activity trail.
type ActivityLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    string    `db:"actor_id" json:"actor_id"`
	ActorRole  UserRole  `db:"actor_role" json:"actor_role"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	Details    string    `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ActivityFilter constrains activity listing queries.
type ActivityFilter struct {
	ActorID  string
	Action   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// ActivitySummary counts entries per action.
type ActivitySummary struct {
	Action string `db:"action" json:"action"`
	Count  int    `db:"count" json:"count"`
}
