package content

import (
	"context"
	"fmt"
	"sync"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// ---------------------------------------------------------------------------
// mockContentRepo
// ---------------------------------------------------------------------------

type mockContentRepo struct {
	mu       sync.Mutex
	calls    []string
	inTx     []bool
	created  []map[string]string
	patches  []map[string]string
	distinct int

	createFunc   func(ctx context.Context, k domain.Kind, fields map[string]string) (domain.Record, error)
	updateFunc   func(ctx context.Context, k domain.Kind, id int64, patch map[string]string) (domain.Record, error)
	deleteFunc   func(ctx context.Context, k domain.Kind, id int64) error
	getByIDFunc  func(ctx context.Context, k domain.Kind, id int64) (domain.Record, error)
	listAllFunc  func(ctx context.Context, k domain.Kind) ([]domain.Record, error)
	searchFunc   func(ctx context.Context, k domain.Kind, c domain.SearchCriteria) ([]domain.Record, error)
	distinctFunc func(ctx context.Context, k domain.Kind, field string) ([]string, error)
}

func (m *mockContentRepo) record(ctx context.Context, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	m.inTx = append(m.inTx, inTx(ctx))
}

func (m *mockContentRepo) Create(ctx context.Context, k domain.Kind, fields map[string]string) (domain.Record, error) {
	m.record(ctx, "Create")
	m.created = append(m.created, fields)
	if m.createFunc != nil {
		return m.createFunc(ctx, k, fields)
	}
	return domain.Record{ID: 1, Kind: k, Fields: fields}, nil
}

func (m *mockContentRepo) Update(ctx context.Context, k domain.Kind, id int64, patch map[string]string) (domain.Record, error) {
	m.record(ctx, "Update")
	m.patches = append(m.patches, patch)
	if m.updateFunc != nil {
		return m.updateFunc(ctx, k, id, patch)
	}
	return domain.Record{ID: id, Kind: k, Fields: patch}, nil
}

func (m *mockContentRepo) Delete(ctx context.Context, k domain.Kind, id int64) error {
	m.record(ctx, "Delete")
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, k, id)
	}
	return nil
}

func (m *mockContentRepo) GetByID(ctx context.Context, k domain.Kind, id int64) (domain.Record, error) {
	m.record(ctx, "GetByID")
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, k, id)
	}
	return domain.Record{ID: id, Kind: k}, nil
}

func (m *mockContentRepo) ListAll(ctx context.Context, k domain.Kind) ([]domain.Record, error) {
	m.record(ctx, "ListAll")
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx, k)
	}
	return nil, nil
}

func (m *mockContentRepo) Search(ctx context.Context, k domain.Kind, c domain.SearchCriteria) ([]domain.Record, error) {
	m.record(ctx, "Search")
	if m.searchFunc != nil {
		return m.searchFunc(ctx, k, c)
	}
	return nil, nil
}

func (m *mockContentRepo) DistinctValues(ctx context.Context, k domain.Kind, field string) ([]string, error) {
	m.record(ctx, "DistinctValues")
	m.distinct++
	if m.distinctFunc != nil {
		return m.distinctFunc(ctx, k, field)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// mockAuditRepo
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	records []domain.AuditEntry
	inTx    []bool
	err     error
}

func (m *mockAuditRepo) Record(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	if m.err != nil {
		return domain.AuditEntry{}, m.err
	}
	m.records = append(m.records, e)
	m.inTx = append(m.inTx, inTx(ctx))
	e.ID = int64(len(m.records))
	return e, nil
}

// ---------------------------------------------------------------------------
// mockOutbox
// ---------------------------------------------------------------------------

type enqueued struct {
	kind domain.Kind
	snap domain.Snapshot
	inTx bool
}

type mockOutbox struct {
	messages []enqueued
	err      error
}

func (m *mockOutbox) Enqueue(ctx context.Context, k domain.Kind, snap domain.Snapshot) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.messages = append(m.messages, enqueued{kind: k, snap: snap, inTx: inTx(ctx)})
	return int64(len(m.messages)), nil
}

// ---------------------------------------------------------------------------
// mockTxManager
// ---------------------------------------------------------------------------

// mockTxManager runs fn with a marked context. It does not roll anything back;
// tests assert on what was attempted and what RunInTx returned.
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(context.WithValue(ctx, txKey{}, true))
}

// ---------------------------------------------------------------------------
// mockCache, mockWaker, mockMetrics
// ---------------------------------------------------------------------------

// mockCache keys entries by generation like the Redis cache does.
type mockCache struct {
	values      map[string][]string
	gens        map[domain.Kind]int64
	sets        int
	invalidated []domain.Kind
	// invalidateCtxErr records ctx.Err() seen by each Invalidate.
	invalidateCtxErr []error
}

func newMockCache() *mockCache {
	return &mockCache{values: map[string][]string{}, gens: map[domain.Kind]int64{}}
}

func (m *mockCache) key(k domain.Kind, gen int64, field string) string {
	return fmt.Sprintf("%s:%d:%s", k, gen, field)
}

func (m *mockCache) Get(_ context.Context, k domain.Kind, field string) ([]string, int64, bool) {
	gen := m.gens[k]
	v, ok := m.values[m.key(k, gen, field)]
	return v, gen, ok
}

func (m *mockCache) Set(_ context.Context, k domain.Kind, field string, gen int64, values []string) {
	m.sets++
	m.values[m.key(k, gen, field)] = values
}

func (m *mockCache) Invalidate(ctx context.Context, k domain.Kind) {
	m.invalidated = append(m.invalidated, k)
	m.invalidateCtxErr = append(m.invalidateCtxErr, ctx.Err())
	m.gens[k]++
}

type mockWaker struct {
	wakes int
}

func (m *mockWaker) Wake() { m.wakes++ }

type mockMetrics struct {
	mutations []string
}

func (m *mockMetrics) IncMutation(kind, action string) {
	m.mutations = append(m.mutations, kind+":"+action)
}
