package models

import "time"

// WhitelistRequestStatus captures workflow states for blacklist appeals.
type WhitelistRequestStatus string

const (
	WhitelistPending  WhitelistRequestStatus = "PENDING"
	WhitelistApproved WhitelistRequestStatus = "APPROVED"
	WhitelistRejected WhitelistRequestStatus = "REJECTED"
)

// WhitelistRequest is an officer raised appeal to lift a student's blacklist.
type WhitelistRequest struct {
	ID          string                 `db:"id" json:"id"`
	StudentID   string                 `db:"student_id" json:"student_id"`
	StudentName string                 `db:"student_name" json:"student_name"`
	StudentPRN  string                 `db:"student_prn" json:"student_prn"`
	CollegeID   string                 `db:"college_id" json:"college_id"`
	Reason      string                 `db:"reason" json:"reason"`
	Status      WhitelistRequestStatus `db:"status" json:"status"`
	RequestedBy string                 `db:"requested_by" json:"requested_by"`
	ReviewedBy  *string                `db:"reviewed_by" json:"reviewed_by,omitempty"`
	Note        *string                `db:"note" json:"note,omitempty"`
	RequestedAt time.Time              `db:"requested_at" json:"requested_at"`
	ReviewedAt  *time.Time             `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// WhitelistRequestFilter constrains listing queries.
type WhitelistRequestFilter struct {
	Status      *WhitelistRequestStatus
	RequestedBy string
	CollegeID   string
	Page        int
	PageSize    int
}

// CreateWhitelistRequest is the officer payload for filing an appeal.
type CreateWhitelistRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

// ReviewDecision is an admin verdict on a pending request.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

// ReviewRequest is the admin payload for reviewing a pending request.
type ReviewRequest struct {
	Decision ReviewDecision `json:"decision" validate:"required,oneof=APPROVE REJECT"`
	Note     string         `json:"note" validate:"omitempty,max=500"`
}
