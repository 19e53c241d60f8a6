package ports

import "time"

// SyncMetrics receives run and record outcomes. Implementations must be safe
// for concurrent use.
type SyncMetrics interface {
	RecordUpserted(entity string, outcome string)
	RunFinished(entity string, status string, duration time.Duration)
	PendingLinks(entity string, pending int)
}
