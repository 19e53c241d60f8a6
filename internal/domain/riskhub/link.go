package riskhub

import "strings"

type LinkState string

const (
	// LinkAbsent means the remote row has no parent reference at all.
	LinkAbsent LinkState = "absent"
	// LinkPending means a parent reference exists but the parent row has not
	// been seen locally yet. The linker retries these on every run.
	LinkPending LinkState = "pending"
	// LinkResolved means the local link is set. It is never cleared by sync.
	LinkResolved LinkState = "resolved"
)

// ParentLink pairs a shadow external reference with its resolved local id.
type ParentLink struct {
	ExternalID string
	LocalID    *uint64
}

func (l ParentLink) State() LinkState {
	switch {
	case l.LocalID != nil:
		return LinkResolved
	case strings.TrimSpace(l.ExternalID) != "":
		return LinkPending
	default:
		return LinkAbsent
	}
}
