package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/ports"
)

const (
	columnExternalID   = "external_id"
	columnLastSyncedAt = "last_synced_at"
)

// converter turns one remote scalar into the value written to a column. A nil
// result writes NULL.
type converter func(raw any) (any, error)

// FieldMap binds one remote field to one local column.
type FieldMap struct {
	Remote  string
	Column  string
	Convert converter
}

// Mapping is the static field table of one entity type.
type Mapping struct {
	Entity riskhub.EntityType
	Fields []FieldMap
	// Derive recomputes stored derived columns from the columns about to be
	// written.
	Derive func(values ports.Assignments)
}

// Record is one mapped remote item.
type Record struct {
	ExternalID string
	Values     ports.Assignments
}

// Map applies mapping to item. Remote fields outside the table are dropped and
// table fields missing from the item map to nil.
func Map(item ports.RemoteItem, mapping Mapping, syncedAt time.Time) (Record, error) {
	values := make(ports.Assignments, len(mapping.Fields)+1)
	for _, field := range mapping.Fields {
		value, err := field.Convert(item[field.Remote])
		if err != nil {
			return Record{}, errs.Mark(
				errs.Wrapf(err, "map %s field %q", mapping.Entity, field.Remote),
				riskhub.ErrMalformedValue,
			)
		}
		values[field.Column] = value
	}
	values[columnLastSyncedAt] = syncedAt.UTC()

	externalID, _ := values[columnExternalID].(string)
	return Record{
		ExternalID: externalID,
		Values:     values,
	}, nil
}

func text(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return nil, fmt.Errorf("expected scalar, got %T", raw)
	}
}

func integer(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", v.String())
		}
		return integralFloat(f)
	case float64:
		return integralFloat(v)
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", raw)
	}
}

func integralFloat(f float64) (any, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("expected integer, got %v", f)
	}
	return int64(f), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func timestamp(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		t, ok := parseTimestamp(trimmed)
		if !ok {
			return nil, fmt.Errorf("expected timestamp, got %q", v)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("expected timestamp string, got %T", raw)
	}
}

// date stores calendar dates as YYYY-MM-DD; full timestamps are cut to
// their UTC date.
func date(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		if d, err := time.Parse(riskhub.DateLayout, trimmed); err == nil {
			return d.Format(riskhub.DateLayout), nil
		}
		if t, ok := parseTimestamp(trimmed); ok {
			return t.Format(riskhub.DateLayout), nil
		}
		return nil, fmt.Errorf("expected date, got %q", v)
	default:
		return nil, fmt.Errorf("expected date string, got %T", raw)
	}
}

func assessmentStatus(raw any) (any, error) {
	s, err := text(raw)
	if err != nil || s == nil || s.(string) == "" {
		return nil, err
	}
	return riskhub.ParseAssessmentStatus(s.(string))
}

func actionStatus(raw any) (any, error) {
	s, err := text(raw)
	if err != nil || s == nil || s.(string) == "" {
		return nil, err
	}
	return riskhub.ParseActionStatus(s.(string))
}
