package riskhub

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRiskLevelFor(t *testing.T) {
	cases := []struct {
		score int64
		want  RiskLevel
	}{
		{0, RiskLow},
		{1, RiskLow},
		{3, RiskLow},
		{4, RiskMedium},
		{8, RiskMedium},
		{9, RiskHigh},
		{14, RiskHigh},
		{15, RiskCritical},
		{20, RiskCritical},
	}
	for _, tc := range cases {
		score := tc.score
		if got := RiskLevelFor(&score); got != tc.want {
			t.Fatalf("RiskLevelFor(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}

	if got := RiskLevelFor(nil); got != RiskLow {
		t.Fatalf("RiskLevelFor(nil) = %q, want low", got)
	}
}

func TestIsOverdue(t *testing.T) {
	today := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	sameDay := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if !IsOverdue(&yesterday, ActionOpen, today) {
		t.Fatalf("yesterday/open should be overdue")
	}
	if !IsOverdue(&yesterday, ActionInProgress, today) {
		t.Fatalf("yesterday/in_progress should be overdue")
	}
	if IsOverdue(&yesterday, ActionDone, today) {
		t.Fatalf("yesterday/done should not be overdue")
	}
	if IsOverdue(&yesterday, ActionCancelled, today) {
		t.Fatalf("yesterday/cancelled should not be overdue")
	}
	for _, status := range []ActionStatus{ActionOpen, ActionInProgress, ActionDone, ActionCancelled} {
		if IsOverdue(&tomorrow, status, today) {
			t.Fatalf("tomorrow/%s should not be overdue", status)
		}
	}
	if IsOverdue(&sameDay, ActionOpen, today) {
		t.Fatalf("due today should not be overdue")
	}
	if IsOverdue(nil, ActionOpen, today) {
		t.Fatalf("missing due date should not be overdue")
	}
}

func TestParentLinkState(t *testing.T) {
	id := uint64(7)
	if got := (ParentLink{}).State(); got != LinkAbsent {
		t.Fatalf("empty link state = %q", got)
	}
	if got := (ParentLink{ExternalID: "a-1"}).State(); got != LinkPending {
		t.Fatalf("unresolved link state = %q", got)
	}
	if got := (ParentLink{ExternalID: "a-1", LocalID: &id}).State(); got != LinkResolved {
		t.Fatalf("resolved link state = %q", got)
	}
}

func TestParseEntityType(t *testing.T) {
	got, err := ParseEntityType(" Action-Items ")
	if err != nil {
		t.Fatalf("ParseEntityType() error = %v", err)
	}
	if got != EntityActions || got.Endpoint() != "/actions" {
		t.Fatalf("ParseEntityType() = %q endpoint=%q", got, got.Endpoint())
	}

	_, err = ParseEntityType("incidents")
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("ParseEntityType() error = %v, want ErrUnknownEntity", err)
	}
}

func TestParseStatuses(t *testing.T) {
	if s, err := ParseAssessmentStatus("in_review"); err != nil || s != AssessmentInReview {
		t.Fatalf("ParseAssessmentStatus() = %q, %v", s, err)
	}
	if _, err := ParseAssessmentStatus("In Review"); !errors.Is(err, ErrMalformedValue) {
		t.Fatalf("ParseAssessmentStatus() error = %v, want ErrMalformedValue", err)
	}
	if s, err := ParseActionStatus("cancelled"); err != nil || s != ActionCancelled {
		t.Fatalf("ParseActionStatus() = %q, %v", s, err)
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("get page: %w", ErrRemoteStatus), KindNetwork},
		{fmt.Errorf("write: %w", ErrStoreWrite), KindMappingOrStore},
		{fmt.Errorf("severity: %w", ErrMalformedValue), KindMappingOrStore},
		{fmt.Errorf("link hazards: %w", ErrLinkFailed), KindLink},
		{fmt.Errorf("check: %w", ErrConfigurationMissing), KindConfiguration},
		{errors.New("something else"), KindUnknown},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
