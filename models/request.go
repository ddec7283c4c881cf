package models

import (
	"time"
)

// RequestStatus is the state of a milestone reward request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusDenied   RequestStatus = "denied"
)

// IsTerminal reports whether the status admits no further transitions.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusDenied
}

// MilestoneRequest is a user's claim against an achieved milestone.
// At most one request ever exists per (username, amount, month); a denied
// request cannot be resubmitted.
type MilestoneRequest struct {
	ID          int64         `db:"id"`
	Username    string        `db:"username"`
	RequesterID int64         `db:"requester_id"`
	Amount      int64         `db:"milestone_amount"`
	BonusAmount float64       `db:"bonus_amount"`
	MonthYear   string        `db:"month_year"`
	Status      RequestStatus `db:"status"`
	AdminNotes  *string       `db:"admin_notes"`
	ProcessedBy *int64        `db:"processed_by"`
	ProcessedAt *time.Time    `db:"processed_at"`
	RequestedAt time.Time     `db:"requested_at"`
}
