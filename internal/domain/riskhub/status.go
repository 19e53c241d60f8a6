package riskhub

import (
	"fmt"
	"strings"
)

type AssessmentStatus string

const (
	AssessmentDraft    AssessmentStatus = "draft"
	AssessmentInReview AssessmentStatus = "in_review"
	AssessmentApproved AssessmentStatus = "approved"
	AssessmentArchived AssessmentStatus = "archived"
)

type ActionStatus string

const (
	ActionOpen       ActionStatus = "open"
	ActionInProgress ActionStatus = "in_progress"
	ActionDone       ActionStatus = "done"
	ActionCancelled  ActionStatus = "cancelled"
)

var assessmentStatuses = map[string]AssessmentStatus{
	"draft":     AssessmentDraft,
	"in_review": AssessmentInReview,
	"approved":  AssessmentApproved,
	"archived":  AssessmentArchived,
}

var actionStatuses = map[string]ActionStatus{
	"open":        ActionOpen,
	"in_progress": ActionInProgress,
	"done":        ActionDone,
	"cancelled":   ActionCancelled,
}

// ParseAssessmentStatus matches exactly; the remote is authoritative for casing.
func ParseAssessmentStatus(raw string) (AssessmentStatus, error) {
	status, ok := assessmentStatuses[strings.TrimSpace(raw)]
	if !ok {
		return "", fmt.Errorf("%w: assessment status %q", ErrMalformedValue, raw)
	}
	return status, nil
}

func ParseActionStatus(raw string) (ActionStatus, error) {
	status, ok := actionStatuses[strings.TrimSpace(raw)]
	if !ok {
		return "", fmt.Errorf("%w: action status %q", ErrMalformedValue, raw)
	}
	return status, nil
}

// ActiveActionStatuses are the statuses that still count against a due date.
func ActiveActionStatuses() []ActionStatus {
	return []ActionStatus{ActionOpen, ActionInProgress}
}

// Active reports whether the action still counts against its due date.
func (s ActionStatus) Active() bool {
	return s == ActionOpen || s == ActionInProgress
}
