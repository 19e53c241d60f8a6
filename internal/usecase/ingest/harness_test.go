package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/infrastructure/lease"
	"schutztat/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "schutztat/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "schutztat/internal/infrastructure/persistence/sqlite/uow"
	"schutztat/internal/ports"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// fakeSource serves canned pages in call order. Calls whose zero-based index
// is in errs fail, and panicAt (one-based) makes a call panic.
type fakeSource struct {
	mu      sync.Mutex
	pages   [][]ports.RemoteItem
	errs    map[int]error
	panicAt int
	offsets []int
	limits  []int
}

func (f *fakeSource) FetchPage(_ context.Context, _ string, offset int, limit int) ([]ports.RemoteItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.offsets)
	f.offsets = append(f.offsets, offset)
	f.limits = append(f.limits, limit)
	if f.panicAt > 0 && call+1 == f.panicAt {
		panic("remote decoder exploded")
	}
	if err, ok := f.errs[call]; ok {
		return nil, err
	}
	if call >= len(f.pages) {
		return nil, nil
	}
	return f.pages[call], nil
}

type harness struct {
	svc     *Service
	db      *gorm.DB
	runs    *sqliterepo.SyncRunRepository
	reads   *sqliterepo.ReadRepository
	lease   *lease.SQLLease
	sources map[string]ports.RemoteSource
	built   int
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "ingest.sqlite")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	h := &harness{
		db:      db,
		runs:    sqliterepo.NewSyncRunRepository(db),
		reads:   sqliterepo.NewReadRepository(db),
		lease:   lease.NewSQLLease(db),
		sources: map[string]ports.RemoteSource{},
	}
	h.svc = NewService(
		sqliterepo.NewRecordRepository(db),
		sqliterepo.NewLinkRepository(db),
		h.runs,
		h.reads,
		sqliteuow.NewUnitOfWork(db),
		h.lease,
		nil,
		h.factory,
		nil,
	)
	h.svc.now = func() time.Time { return testNow }
	return h
}

func (h *harness) factory(_ ports.RemoteSettings) (ports.RemoteSource, error) {
	h.built++
	return endpointSource{h: h}, nil
}

// endpointSource routes to the fake registered for an endpoint, so one
// harness can serve all three entity types.
type endpointSource struct {
	h *harness
}

func (e endpointSource) FetchPage(ctx context.Context, endpoint string, offset int, limit int) ([]ports.RemoteItem, error) {
	src, ok := e.h.sources[endpoint]
	if !ok {
		return nil, nil
	}
	return src.FetchPage(ctx, endpoint, offset, limit)
}

func (h *harness) serve(entity riskhub.EntityType, pages ...[]ports.RemoteItem) *fakeSource {
	src := &fakeSource{pages: pages}
	h.sources[entity.Endpoint()] = src
	return src
}

func (h *harness) run(t *testing.T, entity riskhub.EntityType, settings Settings) RunResult {
	t.Helper()
	result, err := h.svc.Run(context.Background(), RunInput{Entity: entity, Settings: settings})
	if err != nil {
		t.Fatalf("Run(%s) error = %v", entity, err)
	}
	return result
}

// blockingSource parks the first fetch until release is closed.
type blockingSource struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingSource() *blockingSource {
	return &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingSource) FetchPage(ctx context.Context, _ string, _ int, _ int) ([]ports.RemoteItem, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// countingLease records every Acquire and refuses them from the denyFrom-th
// call on.
type countingLease struct {
	ports.RunLease
	holders  []string
	denyFrom int
}

func (c *countingLease) Acquire(ctx context.Context, key string, holder string, ttl time.Duration) (bool, error) {
	c.holders = append(c.holders, holder)
	if c.denyFrom > 0 && len(c.holders) >= c.denyFrom {
		return false, nil
	}
	return c.RunLease.Acquire(ctx, key, holder, ttl)
}

func (h *harness) count(t *testing.T, table any) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(table).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func testSettings() Settings {
	return Settings{
		Remote: ports.RemoteSettings{BaseURL: "http://risk.test/api/v1", APIKey: "key"},
	}
}

func assessmentItems(from, n int) []ports.RemoteItem {
	items := make([]ports.RemoteItem, 0, n)
	for i := from; i < from+n; i++ {
		items = append(items, ports.RemoteItem{
			"id":         fmt.Sprintf("a-%d", i),
			"tenant_id":  "t-1",
			"title":      fmt.Sprintf("Assessment %d", i),
			"status":     "draft",
			"created_at": "2026-01-10T08:00:00Z",
			"updated_at": "2026-01-11T08:00:00.123456Z",
			"unmapped":   []any{"dropped"},
		})
	}
	return items
}

func hazardItem(id string, assessmentID any, score any) ports.RemoteItem {
	return ports.RemoteItem{
		"id":            id,
		"assessment_id": assessmentID,
		"title":         "Hazard " + id,
		"description":   "slippery floor",
		"severity":      3,
		"probability":   4,
		"risk_score":    score,
	}
}

func actionItem(id string, assessmentID any, hazardID any, due any, status string) ports.RemoteItem {
	return ports.RemoteItem{
		"id":            id,
		"title":         "Action " + id,
		"status":        status,
		"priority":      2,
		"due_date":      due,
		"assessment_id": assessmentID,
		"hazard_id":     hazardID,
	}
}
