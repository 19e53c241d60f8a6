package riskhub

import (
	"fmt"
	"strings"
)

// EntityType names one synchronized remote resource.
type EntityType string

const (
	EntityAssessments EntityType = "assessments"
	EntityHazards     EntityType = "hazards"
	EntityActions     EntityType = "actions"
)

// SyncOrder is the order in which a full sync visits entity types so that
// parents are usually present before their children are linked.
var SyncOrder = []EntityType{EntityAssessments, EntityHazards, EntityActions}

var endpoints = map[EntityType]string{
	EntityAssessments: "/risk/assessments",
	EntityHazards:     "/risk/hazards",
	EntityActions:     "/actions",
}

// Endpoint returns the remote resource path relative to the API base URL.
func (e EntityType) Endpoint() string {
	return endpoints[e]
}

// HasParents reports whether rows of this type carry shadow references that
// the linker resolves after each run.
func (e EntityType) HasParents() bool {
	return e == EntityHazards || e == EntityActions
}

func (e EntityType) Valid() bool {
	_, ok := endpoints[e]
	return ok
}

// ParseEntityType accepts the canonical names plus a few singular aliases
// used on the command line.
func ParseEntityType(raw string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "assessments", "assessment":
		return EntityAssessments, nil
	case "hazards", "hazard":
		return EntityHazards, nil
	case "actions", "action", "action_items", "action-items":
		return EntityActions, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEntity, raw)
	}
}
