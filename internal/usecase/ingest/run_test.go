package ingest

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/infrastructure/persistence/sqlite/model"
	"schutztat/internal/ports"
)

func TestRunPaginatesUntilShortPage(t *testing.T) {
	h := newHarness(t)
	src := h.serve(riskhub.EntityAssessments,
		assessmentItems(0, 100),
		assessmentItems(100, 100),
		assessmentItems(200, 37),
	)

	result := h.run(t, riskhub.EntityAssessments, testSettings())

	if !slices.Equal(src.offsets, []int{0, 100, 200}) {
		t.Fatalf("offsets = %v", src.offsets)
	}
	if !slices.Equal(src.limits, []int{100, 100, 100}) {
		t.Fatalf("limits = %v", src.limits)
	}
	if result.Status != riskhub.RunDone || result.Created != 237 || result.Updated != 0 {
		t.Fatalf("result = %#v", result)
	}
	if got := h.count(t, &model.Assessment{}); got != 237 {
		t.Fatalf("assessment rows = %d", got)
	}

	run, err := h.runs.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if run.Status != riskhub.RunDone || run.FinishedAt == nil || run.CreatedCount != 237 || run.ErrorMessage != "" {
		t.Fatalf("run = %#v", run)
	}
	if run.Stats.Pages != 3 || run.Stats.Fetched != 237 || run.RunKey == "" {
		t.Fatalf("run stats = %#v key=%q", run.Stats, run.RunKey)
	}
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	h := newHarness(t)
	src := h.serve(riskhub.EntityAssessments,
		assessmentItems(0, 100),
		assessmentItems(100, 100),
		assessmentItems(200, 100),
		nil,
	)

	result := h.run(t, riskhub.EntityAssessments, testSettings())

	if len(src.offsets) != 4 || result.Created != 300 {
		t.Fatalf("calls = %v created = %d", src.offsets, result.Created)
	}
}

func TestRunHonoursPageSize(t *testing.T) {
	h := newHarness(t)
	src := h.serve(riskhub.EntityAssessments, assessmentItems(0, 2), assessmentItems(2, 1))

	settings := testSettings()
	settings.PageSize = 2
	result := h.run(t, riskhub.EntityAssessments, settings)

	if !slices.Equal(src.offsets, []int{0, 2}) || result.Created != 3 {
		t.Fatalf("offsets = %v result = %#v", src.offsets, result)
	}
}

func loadAssessments(t *testing.T, h *harness) []model.Assessment {
	t.Helper()
	var rows []model.Assessment
	if err := h.db.Order("id asc").Find(&rows).Error; err != nil {
		t.Fatalf("load assessments: %v", err)
	}
	return rows
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.serve(riskhub.EntityAssessments, assessmentItems(0, 5))
	first := h.run(t, riskhub.EntityAssessments, testSettings())
	before := loadAssessments(t, h)

	h.svc.now = func() time.Time { return testNow.Add(time.Hour) }
	h.serve(riskhub.EntityAssessments, assessmentItems(0, 5))
	second := h.run(t, riskhub.EntityAssessments, testSettings())
	after := loadAssessments(t, h)

	if first.Created != 5 || first.Updated != 0 {
		t.Fatalf("first = %#v", first)
	}
	if second.Created != 0 || second.Updated != 5 {
		t.Fatalf("second = %#v", second)
	}
	if len(after) != 5 {
		t.Fatalf("assessment rows = %d", len(after))
	}
	if first.RunKey == second.RunKey {
		t.Fatalf("run keys should differ: %q", first.RunKey)
	}

	// Only the sync stamp moves; every mapped attribute is unchanged.
	for i := range after {
		if after[i].LastSyncedAt == nil || before[i].LastSyncedAt == nil || *after[i].LastSyncedAt == *before[i].LastSyncedAt {
			t.Fatalf("row %s last_synced_at not restamped", after[i].ExternalID)
		}
		after[i].LastSyncedAt = before[i].LastSyncedAt
		if !reflect.DeepEqual(before[i], after[i]) {
			t.Fatalf("row changed on resync:\nbefore %#v\nafter  %#v", before[i], after[i])
		}
	}
}

func TestRunFailureKeepsCommittedRecords(t *testing.T) {
	h := newHarness(t)
	src := h.serve(riskhub.EntityAssessments, assessmentItems(0, 100))
	src.errs = map[int]error{1: errs.Mark(errors.New("connection reset"), riskhub.ErrRemoteUnavailable)}

	result := h.run(t, riskhub.EntityAssessments, testSettings())

	if result.Status != riskhub.RunError || result.Created != 100 {
		t.Fatalf("result = %#v", result)
	}
	if !strings.Contains(result.ErrorMessage, "connection reset") {
		t.Fatalf("error message = %q", result.ErrorMessage)
	}
	if got := h.count(t, &model.Assessment{}); got != 100 {
		t.Fatalf("assessment rows = %d", got)
	}

	run, err := h.runs.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if run.Status != riskhub.RunError || run.CreatedCount != 100 || run.Stats.ErrorKind != riskhub.KindNetwork {
		t.Fatalf("run = %#v", run)
	}

	// A later successful run starts over from offset 0 without duplicating rows.
	retry := h.serve(riskhub.EntityAssessments, assessmentItems(0, 100), assessmentItems(100, 37))
	again := h.run(t, riskhub.EntityAssessments, testSettings())

	if again.Status != riskhub.RunDone || again.Created != 37 || again.Updated != 100 {
		t.Fatalf("retry result = %#v", again)
	}
	if !slices.Equal(retry.offsets, []int{0, 100}) {
		t.Fatalf("retry offsets = %v", retry.offsets)
	}
	if got := h.count(t, &model.Assessment{}); got != 137 {
		t.Fatalf("assessment rows after retry = %d", got)
	}
}

func TestRunMalformedValueAbortsAfterEarlierItems(t *testing.T) {
	h := newHarness(t)
	items := assessmentItems(0, 10)
	items[5]["status"] = "bogus"
	h.serve(riskhub.EntityAssessments, items)

	result := h.run(t, riskhub.EntityAssessments, testSettings())

	if result.Status != riskhub.RunError || result.Created != 5 {
		t.Fatalf("result = %#v", result)
	}
	if result.Stats.ErrorKind != riskhub.KindMappingOrStore {
		t.Fatalf("error kind = %q", result.Stats.ErrorKind)
	}
}

func TestRunMissingExternalIDIsStoreFailure(t *testing.T) {
	h := newHarness(t)
	items := assessmentItems(0, 2)
	delete(items[1], "id")
	h.serve(riskhub.EntityAssessments, items)

	result := h.run(t, riskhub.EntityAssessments, testSettings())

	if result.Status != riskhub.RunError || result.Created != 1 || result.Stats.ErrorKind != riskhub.KindMappingOrStore {
		t.Fatalf("result = %#v", result)
	}
}

func TestRunRecoversPanicIntoErrorRun(t *testing.T) {
	h := newHarness(t)
	src := h.serve(riskhub.EntityAssessments, assessmentItems(0, 100))
	src.panicAt = 2

	result := h.run(t, riskhub.EntityAssessments, testSettings())

	if result.Status != riskhub.RunError || result.Created != 100 {
		t.Fatalf("result = %#v", result)
	}
	if !strings.Contains(result.ErrorMessage, "remote decoder exploded") {
		t.Fatalf("error message = %q", result.ErrorMessage)
	}
	if result.Stats.ErrorKind != riskhub.KindUnknown {
		t.Fatalf("error kind = %q", result.Stats.ErrorKind)
	}
}

func TestRunSkipsWithoutAPIKey(t *testing.T) {
	h := newHarness(t)
	h.serve(riskhub.EntityAssessments, assessmentItems(0, 1))

	settings := testSettings()
	settings.Remote.APIKey = "  "
	result := h.run(t, riskhub.EntityAssessments, settings)

	if !result.Skipped || result.SkipReason == "" || result.RunID != 0 {
		t.Fatalf("result = %#v", result)
	}
	if h.built != 0 {
		t.Fatalf("remote source built %d times", h.built)
	}
	if got := h.count(t, &model.SyncRun{}); got != 0 {
		t.Fatalf("sync runs = %d", got)
	}
}

func TestRunSkipsWhileLeaseHeld(t *testing.T) {
	h := newHarness(t)
	h.serve(riskhub.EntityHazards, []ports.RemoteItem{hazardItem("h-1", nil, 4)})

	ok, err := h.lease.Acquire(context.Background(), "sync:hazards", "other-process", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Acquire() = %v, %v", ok, err)
	}

	result := h.run(t, riskhub.EntityHazards, testSettings())
	if !result.Skipped {
		t.Fatalf("result = %#v", result)
	}
	if got := h.count(t, &model.SyncRun{}); got != 0 {
		t.Fatalf("sync runs = %d", got)
	}

	// Other entity types are not blocked, and the lease is released after a run.
	h.serve(riskhub.EntityAssessments, assessmentItems(0, 1))
	if r := h.run(t, riskhub.EntityAssessments, testSettings()); r.Skipped || r.Status != riskhub.RunDone {
		t.Fatalf("assessments result = %#v", r)
	}
	if r := h.run(t, riskhub.EntityAssessments, testSettings()); r.Skipped {
		t.Fatalf("second assessments run skipped: lease not released")
	}
}

func TestRunRejectsUnknownEntity(t *testing.T) {
	h := newHarness(t)
	if _, err := h.svc.Run(context.Background(), RunInput{Entity: "incidents", Settings: testSettings()}); !errors.Is(err, riskhub.ErrUnknownEntity) {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunRequiresContext(t *testing.T) {
	h := newHarness(t)
	var nilCtx context.Context
	if _, err := h.svc.Run(nilCtx, RunInput{Entity: riskhub.EntityHazards}); err == nil {
		t.Fatalf("Run(nil) expected error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.svc.Run(ctx, RunInput{Entity: riskhub.EntityHazards, Settings: testSettings()}); err == nil {
		t.Fatalf("Run(cancelled) expected error")
	}
}

type staticSecrets map[string]string

func (s staticSecrets) Secret(_ context.Context, ref string) (string, error) {
	v, ok := s[ref]
	if !ok {
		return "", errors.New("secret not found")
	}
	return v, nil
}

func TestRunResolvesAPIKeyFromSecret(t *testing.T) {
	h := newHarness(t)
	var seen []string
	h.svc.sources = func(settings ports.RemoteSettings) (ports.RemoteSource, error) {
		seen = append(seen, settings.APIKey)
		return h.factory(settings)
	}
	h.svc.secrets = staticSecrets{"schutztat/api-key": "from-secret"}
	h.serve(riskhub.EntityAssessments, assessmentItems(0, 1))

	settings := testSettings()
	settings.Remote.APIKey = ""
	settings.APIKeySecret = "schutztat/api-key"
	result := h.run(t, riskhub.EntityAssessments, settings)
	if result.Skipped || result.Created != 1 {
		t.Fatalf("result = %#v", result)
	}
	if !slices.Equal(seen, []string{"from-secret"}) {
		t.Fatalf("source built with keys %v", seen)
	}

	settings.APIKeySecret = "absent"
	if result := h.run(t, riskhub.EntityAssessments, settings); !result.Skipped {
		t.Fatalf("unresolvable secret should skip: %#v", result)
	}
}

func TestRunExcludesConcurrentSameEntityRun(t *testing.T) {
	h := newHarness(t)
	src := newBlockingSource()
	h.sources[riskhub.EntityHazards.Endpoint()] = src

	var wg sync.WaitGroup
	var first RunResult
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = h.svc.Run(context.Background(), RunInput{Entity: riskhub.EntityHazards, Settings: testSettings()})
	}()

	select {
	case <-src.entered:
	case <-time.After(5 * time.Second):
		close(src.release)
		t.Fatalf("first run never fetched")
	}

	second, err := h.svc.Run(context.Background(), RunInput{Entity: riskhub.EntityHazards, Settings: testSettings()})
	close(src.release)
	wg.Wait()

	if err != nil || !second.Skipped || second.SkipReason != skipReasonLeased {
		t.Fatalf("second = %#v, %v", second, err)
	}
	if firstErr != nil || first.Skipped || first.Status != riskhub.RunDone {
		t.Fatalf("first = %#v, %v", first, firstErr)
	}
	if got := h.count(t, &model.SyncRun{}); got != 1 {
		t.Fatalf("sync runs = %d", got)
	}
	if got := h.count(t, &model.SyncLease{}); got != 0 {
		t.Fatalf("lease rows after run = %d", got)
	}
}

func TestRunRenewsLeaseAfterEveryFullPage(t *testing.T) {
	h := newHarness(t)
	counting := &countingLease{RunLease: h.lease}
	h.svc.lease = counting
	h.serve(riskhub.EntityAssessments,
		assessmentItems(0, 100),
		assessmentItems(100, 100),
		assessmentItems(200, 37),
	)

	result := h.run(t, riskhub.EntityAssessments, testSettings())
	if result.Status != riskhub.RunDone {
		t.Fatalf("result = %#v", result)
	}
	if len(counting.holders) != 3 {
		t.Fatalf("acquire calls = %d, want initial plus two renewals", len(counting.holders))
	}
	for _, holder := range counting.holders {
		if holder != counting.holders[0] {
			t.Fatalf("holders within one run differ: %v", counting.holders)
		}
	}

	h.serve(riskhub.EntityAssessments, assessmentItems(0, 1))
	h.run(t, riskhub.EntityAssessments, testSettings())
	if counting.holders[3] == counting.holders[0] {
		t.Fatalf("separate runs reused holder %q", counting.holders[0])
	}
}

func TestRunAbortsWhenLeaseIsLost(t *testing.T) {
	h := newHarness(t)
	h.svc.lease = &countingLease{RunLease: h.lease, denyFrom: 2}
	src := h.serve(riskhub.EntityAssessments, assessmentItems(0, 100), assessmentItems(100, 100))

	result := h.run(t, riskhub.EntityAssessments, testSettings())

	if result.Status != riskhub.RunError || result.Created != 100 {
		t.Fatalf("result = %#v", result)
	}
	if !strings.Contains(result.ErrorMessage, riskhub.ErrLeaseLost.Error()) {
		t.Fatalf("error message = %q", result.ErrorMessage)
	}
	if len(src.offsets) != 1 {
		t.Fatalf("fetched after losing the lease: %v", src.offsets)
	}
}
