package application_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

// --- Upstream fixtures ---

const stateReport = `{"data":[{"region":{"province":"Florida","cities":[
	{"name":"Alachua","date":"2022-03-14","fips":12001,"lat":"29.67866525","long":"-82.35928158","confirmed":64000,"deaths":700,"confirmed_diff":12,"deaths_diff":1,"last_update":"2022-03-15 04:20:47"},
	{"name":"Unassigned","date":"2022-03-14","fips":null,"lat":null,"long":null,"confirmed":10,"deaths":null,"confirmed_diff":0,"deaths_diff":0,"last_update":"2022-03-15 04:20:47"}
]}}]}`

const countryReport = `{"data":[
	{"region":{"province":"Alabama","cities":[{"name":"Autauga","lat":"32.53952745","long":"-86.64408227"}]}},
	{"region":{"province":"Alaska","cities":[{"name":"Anchorage","lat":"61.14986937","long":"-149.1091"},{"name":"Unknown","lat":null,"long":null}]}}
]}`

const dailyHistory = `[
	{"date":"2022-03-16","new_cases":30000,"total_cases":79000000,"new_deaths":1000,"total_deaths":965000},
	{"date":"2022-03-15","new_cases":null,"total_cases":78970000,"new_deaths":900,"total_deaths":964000},
	{"date":"2022-03-14","new_cases":25000,"total_cases":78940000,"new_deaths":800,"total_deaths":963100}
]`

const stockHistory = `{"data":[
	{"date":1647302400000,"open":"54.1","high":"55.0","low":"53.9","close":"54.8","volume":1200},
	{"date":1647216000000,"open":53.0,"high":54.2,"low":52.8,"close":54.0,"volume":null}
]}`

// --- Mock implementations ---

type mockCSSE struct {
	mu      sync.Mutex
	calls   []model.ReportQuery
	err     error
	reports func(q model.ReportQuery) string
}

func (m *mockCSSE) FetchReports(_ context.Context, q model.ReportQuery) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, q)
	if m.err != nil {
		return nil, m.err
	}
	if m.reports != nil {
		return []byte(m.reports(q)), nil
	}
	if q.Q != "" {
		return []byte(stateReport), nil
	}
	return []byte(countryReport), nil
}

func (m *mockCSSE) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockDaily struct {
	mu    sync.Mutex
	calls int
	body  string
	err   error
}

func (m *mockDaily) FetchDailyHistory(_ context.Context, _ string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.body != "" {
		return []byte(m.body), nil
	}
	return []byte(dailyHistory), nil
}

type mockStocks struct {
	mu    sync.Mutex
	calls []model.StockQuery
	err   error
}

func (m *mockStocks) FetchPrices(_ context.Context, q model.StockQuery) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, q)
	if m.err != nil {
		return nil, m.err
	}
	return []byte(stockHistory), nil
}

// memSnapshots is an in-memory SnapshotStore.
type memSnapshots struct {
	mu      sync.Mutex
	snaps   []model.Snapshot
	nextID  int64
	saveErr error
	prunes  []int
}

func (m *memSnapshots) Save(_ context.Context, snap model.Snapshot) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.nextID++
	snap.ID = m.nextID
	snap.Size = len(snap.Body)
	m.snaps = append(m.snaps, snap)
	return snap.ID, nil
}

func (m *memSnapshots) Latest(_ context.Context, source, key string) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Snapshot
	for i := range m.snaps {
		s := m.snaps[i]
		if s.Source != source || s.Key != key {
			continue
		}
		if latest == nil || !s.FetchedAt.Before(latest.FetchedAt) {
			latest = &s
		}
	}
	return latest, nil
}

func (m *memSnapshots) Prune(_ context.Context, _, _ string, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prunes = append(m.prunes, keep)
	return 0, nil
}

func (m *memSnapshots) ListLatest(ctx context.Context) ([]model.Snapshot, error) {
	m.mu.Lock()
	seen := map[string]bool{}
	var pairs [][2]string
	for _, s := range m.snaps {
		k := s.Source + "\x00" + s.Key
		if !seen[k] {
			seen[k] = true
			pairs = append(pairs, [2]string{s.Source, s.Key})
		}
	}
	m.mu.Unlock()

	out := []model.Snapshot{}
	for _, p := range pairs {
		s, _ := m.Latest(ctx, p[0], p[1])
		s.Body = nil
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b model.Snapshot) int {
		return strings.Compare(a.Source+a.Key, b.Source+b.Key)
	})
	return out, nil
}

func (m *memSnapshots) count(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.snaps {
		if s.Source == source {
			n++
		}
	}
	return n
}

// seed stores body for source/key as if fetched at the given time.
func (m *memSnapshots) seed(source, key, body string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.snaps = append(m.snaps, model.Snapshot{
		ID: m.nextID, Source: source, Key: key, Body: []byte(body), Size: len(body), FetchedAt: at,
	})
}

type fakeStates []string

func (f fakeStates) Names() []string { return []string(f) }

func (f fakeStates) Canonical(name string) (string, bool) {
	for _, s := range f {
		if strings.EqualFold(s, strings.TrimSpace(name)) {
			return s, true
		}
	}
	return "", false
}

type mockPublisher struct {
	mu         sync.Mutex
	dashboards []model.Dashboard
}

func (m *mockPublisher) Publish(d model.Dashboard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dashboards = append(m.dashboards, d)
}

func (m *mockPublisher) published() []model.Dashboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.dashboards)
}

type mockCredentialStore struct {
	values  map[string]string
	listErr error
	setErr  error
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{values: map[string]string{}}
}

func (m *mockCredentialStore) Set(_ context.Context, service, plaintext string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[service] = plaintext
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, service string) (string, error) {
	return m.values[service], nil
}

func (m *mockCredentialStore) List(_ context.Context) ([]model.Credential, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []model.Credential{}
	for svc, v := range m.values {
		out = append(out, model.Credential{Service: svc, Value: v})
	}
	return out, nil
}

func (m *mockCredentialStore) Delete(_ context.Context, service string) error {
	delete(m.values, service)
	return nil
}

// --- Fixture wiring ---

var errUpstream = errors.New("upstream unavailable")

type fixture struct {
	csse      *mockCSSE
	daily     *mockDaily
	stocks    *mockStocks
	snapshots *memSnapshots
	cfg       application.DashboardConfig
}

func newFixture() *fixture {
	return &fixture{
		csse:      &mockCSSE{},
		daily:     &mockDaily{},
		stocks:    &mockStocks{},
		snapshots: &memSnapshots{},
		cfg: application.DashboardConfig{
			RegionName:   "US",
			ISO:          "USA",
			DefaultState: "Florida",
			StockPeriod:  "1mo",
			SnapshotTTL:  15 * time.Minute,
			Retention:    5,
		},
	}
}

func (f *fixture) service() *application.DashboardService {
	return application.NewDashboardService(
		f.csse, f.daily, f.stocks, f.snapshots,
		fakeStates{"Florida", "Texas", "New York"},
		f.cfg,
	)
}

var (
	_ driven.CovidStatsClient   = (*mockCSSE)(nil)
	_ driven.DailyHistoryClient = (*mockDaily)(nil)
	_ driven.StockClient        = (*mockStocks)(nil)
	_ driven.SnapshotStore      = (*memSnapshots)(nil)
	_ driven.StateCatalog       = fakeStates(nil)
	_ driven.Publisher          = (*mockPublisher)(nil)
	_ driven.CredentialStore    = (*mockCredentialStore)(nil)
)
