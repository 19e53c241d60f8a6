package riskhub

import "time"

// DateLayout is the storage and wire layout for calendar dates.
const DateLayout = "2006-01-02"

// IsOverdue reports whether an action is past due. Dates are compared as UTC
// calendar days; an action without a due date is never overdue.
func IsOverdue(due *time.Time, status ActionStatus, today time.Time) bool {
	if due == nil || !status.Active() {
		return false
	}
	return due.UTC().Format(DateLayout) < today.UTC().Format(DateLayout)
}
