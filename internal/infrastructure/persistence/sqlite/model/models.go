package model

// All lists every table owned by the sync engine, in migration order.
func All() []any {
	return []any{
		&Assessment{},
		&Hazard{},
		&ActionItem{},
		&SyncRun{},
		&SyncLease{},
	}
}
