package ingest

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/ports"
)

func TestMapAssessment(t *testing.T) {
	syncedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	item := ports.RemoteItem{
		"id":          json.Number("42"),
		"title":       "Lager Halle 3",
		"status":      "in_review",
		"approved_at": nil,
		"created_at":  "2026-01-10T08:00:00+01:00",
		"extra":       map[string]any{"ignored": true},
	}

	record, err := Map(item, AssessmentMapping, syncedAt)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if record.ExternalID != "42" {
		t.Fatalf("ExternalID = %q", record.ExternalID)
	}
	if record.Values["status"] != riskhub.AssessmentInReview {
		t.Fatalf("status = %#v", record.Values["status"])
	}
	if created, ok := record.Values["remote_created_at"].(time.Time); !ok || !created.Equal(time.Date(2026, 1, 10, 7, 0, 0, 0, time.UTC)) || created.Location() != time.UTC {
		t.Fatalf("remote_created_at = %#v", record.Values["remote_created_at"])
	}
	if v, ok := record.Values["approved_at"]; !ok || v != nil {
		t.Fatalf("approved_at should be present and nil: %#v", v)
	}
	if v, ok := record.Values["description"]; !ok || v != nil {
		t.Fatalf("absent field should map to nil: %#v", v)
	}
	if _, ok := record.Values["extra"]; ok {
		t.Fatalf("unmapped field leaked into values")
	}
	if got := record.Values["last_synced_at"].(time.Time); !got.Equal(syncedAt) || got.Location() != time.UTC {
		t.Fatalf("last_synced_at = %v", got)
	}
	if len(record.Values) != len(AssessmentMapping.Fields)+1 {
		t.Fatalf("values = %d columns", len(record.Values))
	}
}

func TestMapRejectsMalformedValues(t *testing.T) {
	for _, tc := range []struct {
		name string
		item ports.RemoteItem
	}{
		{name: "fractional severity", item: ports.RemoteItem{"id": "h", "severity": 2.5}},
		{name: "text score", item: ports.RemoteItem{"id": "h", "risk_score": "high"}},
		{name: "nested title", item: ports.RemoteItem{"id": "h", "title": map[string]any{"de": "x"}}},
		{name: "bad timestamp", item: ports.RemoteItem{"id": "h", "created_at": "yesterday"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Map(tc.item, HazardMapping, testNow)
			if !errors.Is(err, riskhub.ErrMalformedValue) {
				t.Fatalf("Map() error = %v", err)
			}
		})
	}
}

func TestConverters(t *testing.T) {
	for _, tc := range []struct {
		name string
		conv converter
		in   any
		want any
	}{
		{name: "text number", conv: text, in: json.Number("7"), want: "7"},
		{name: "text bool", conv: text, in: true, want: "true"},
		{name: "text float", conv: text, in: 12.0, want: "12"},
		{name: "integer number", conv: integer, in: json.Number("15"), want: int64(15)},
		{name: "integer float number", conv: integer, in: json.Number("15.0"), want: int64(15)},
		{name: "integer string", conv: integer, in: " 9 ", want: int64(9)},
		{name: "integer empty", conv: integer, in: "", want: nil},
		{name: "integer nil", conv: integer, in: nil, want: nil},
		{name: "date", conv: date, in: "2026-04-01", want: "2026-04-01"},
		{name: "date from timestamp", conv: date, in: "2026-04-01T23:30:00-02:00", want: "2026-04-02"},
		{name: "date empty", conv: date, in: "", want: nil},
		{name: "timestamp naive", conv: timestamp, in: "2026-04-01T10:00:00", want: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)},
		{name: "timestamp spaced", conv: timestamp, in: "2026-04-01 10:00:00", want: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)},
		{name: "action status", conv: actionStatus, in: "in_progress", want: riskhub.ActionInProgress},
		{name: "action status empty", conv: actionStatus, in: "", want: nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.conv(tc.in)
			if err != nil {
				t.Fatalf("convert(%#v) error = %v", tc.in, err)
			}
			if want, ok := tc.want.(time.Time); ok {
				if gotTime, ok := got.(time.Time); !ok || !gotTime.Equal(want) {
					t.Fatalf("convert(%#v) = %#v", tc.in, got)
				}
				return
			}
			if got != tc.want {
				t.Fatalf("convert(%#v) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDeriveRiskLevel(t *testing.T) {
	values := ports.Assignments{"risk_score": int64(15)}
	deriveRiskLevel(values)
	if values["risk_level"] != riskhub.RiskCritical {
		t.Fatalf("risk_level = %#v", values["risk_level"])
	}

	values = ports.Assignments{"risk_score": nil}
	deriveRiskLevel(values)
	if values["risk_level"] != riskhub.RiskLow {
		t.Fatalf("risk_level for null score = %#v", values["risk_level"])
	}

	values = ports.Assignments{"title": "x"}
	deriveRiskLevel(values)
	if _, ok := values["risk_level"]; ok {
		t.Fatalf("risk_level derived without risk_score in write set")
	}
}

func TestParseMergePolicy(t *testing.T) {
	for raw, want := range map[string]MergePolicy{
		"":               ReplaceAll,
		"replace_all":    ReplaceAll,
		"MERGE_NON_NULL": MergeNonNull,
	} {
		got, err := ParseMergePolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParseMergePolicy(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseMergePolicy("newest_wins"); err == nil {
		t.Fatalf("ParseMergePolicy() expected error")
	}
}
