package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/coviddash/internal/domain/flatten"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

// Sentinel errors returned by DashboardService.
var (
	ErrUnknownState  = errors.New("unknown state")
	ErrUnknownMetric = errors.New("unknown metric")
	ErrMissingSymbol = errors.New("stock symbol is required")
	ErrNoSnapshot    = errors.New("no stored data available")
)

// DashboardConfig holds the settings DashboardService reads at build time.
type DashboardConfig struct {
	RegionName   string
	ISO          string
	DefaultState string
	StockSymbols []string
	StockPeriod  string
	SnapshotTTL  time.Duration
	Retention    int
	Offline      bool
}

// DashboardQuery selects what Build renders. Empty fields fall back to the
// configured defaults.
type DashboardQuery struct {
	State  string
	Symbol string
	Period string
}

// DashboardService loads upstream documents (live or from snapshots) and
// flattens them into the tables and series shown on the dashboard.
type DashboardService struct {
	csse      driven.CovidStatsClient
	daily     driven.DailyHistoryClient
	stocks    driven.StockClient
	snapshots driven.SnapshotStore
	states    driven.StateCatalog
	cfg       DashboardConfig
	now       func() time.Time
}

// NewDashboardService creates a DashboardService with all required dependencies.
func NewDashboardService(
	csse driven.CovidStatsClient,
	daily driven.DailyHistoryClient,
	stocks driven.StockClient,
	snapshots driven.SnapshotStore,
	states driven.StateCatalog,
	cfg DashboardConfig,
) *DashboardService {
	if cfg.Retention < 1 {
		cfg.Retention = 1
	}
	return &DashboardService{
		csse:      csse,
		daily:     daily,
		stocks:    stocks,
		snapshots: snapshots,
		states:    states,
		cfg:       cfg,
		now:       time.Now,
	}
}

// States returns the selectable state names.
func (s *DashboardService) States() []string {
	return s.states.Names()
}

// DefaultState returns the state used when a query names none.
func (s *DashboardService) DefaultState() string {
	return s.cfg.DefaultState
}

// Offline reports whether the service only serves stored snapshots.
func (s *DashboardService) Offline() bool {
	return s.cfg.Offline
}

// ResolveState returns the catalog spelling of state, or of the default state
// when state is empty.
func (s *DashboardService) ResolveState(state string) (string, error) {
	if strings.TrimSpace(state) == "" {
		state = s.cfg.DefaultState
	}
	canonical, ok := s.states.Canonical(state)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	return canonical, nil
}

// CityTable returns the per-city table of a state's report.
func (s *DashboardService) CityTable(ctx context.Context, state string) (model.CityTable, error) {
	return s.cityTable(ctx, state, nil)
}

// MapCoordinates returns the coordinates of every city in the country report.
func (s *DashboardService) MapCoordinates(ctx context.Context) ([]model.Coordinate, error) {
	return s.mapCoordinates(ctx, nil)
}

// DailySeries returns the six-month history of one metric.
func (s *DashboardService) DailySeries(ctx context.Context, metric model.Metric) (model.TimeSeries, error) {
	if !metric.Valid() {
		return model.TimeSeries{}, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	doc, err := s.dailyDoc(ctx, nil)
	if err != nil {
		return model.TimeSeries{}, err
	}
	return flatten.VaccovidSeries(doc, metric)
}

// StockPrices returns the price history of symbol over period. An empty
// period uses the configured default.
func (s *DashboardService) StockPrices(ctx context.Context, symbol, period string) (model.StockHistory, error) {
	return s.stockPrices(ctx, symbol, period, nil)
}

// Build assembles every dashboard section. A section that fails is left
// empty and described in Dashboard.Warnings; only an unknown state aborts.
func (s *DashboardService) Build(ctx context.Context, q DashboardQuery) (model.Dashboard, error) {
	state, err := s.ResolveState(q.State)
	if err != nil {
		return model.Dashboard{}, err
	}

	n := &notes{}
	d := model.Dashboard{
		GeneratedAt: s.now().UTC(),
		State:       state,
		Table:       model.CityTable{Province: state, Cities: []model.City{}},
		Coordinates: []model.Coordinate{},
		Series:      []model.TimeSeries{},
	}

	if table, err := s.cityTable(ctx, state, n); err != nil {
		n.add("cases by city for %s: %v", state, err)
	} else {
		d.Table = table
	}

	if coords, err := s.mapCoordinates(ctx, n); err != nil {
		n.add("map coordinates: %v", err)
	} else {
		d.Coordinates = coords
	}

	if doc, err := s.dailyDoc(ctx, n); err != nil {
		n.add("daily history: %v", err)
	} else {
		for _, m := range model.Metrics {
			series, err := flatten.VaccovidSeries(doc, m)
			if err != nil {
				n.add("%s series: %v", m.Title(), err)
				continue
			}
			d.Series = append(d.Series, series)
		}
	}

	symbol := q.Symbol
	if symbol == "" && len(s.cfg.StockSymbols) > 0 {
		symbol = s.cfg.StockSymbols[0]
	}
	if symbol != "" {
		hist, err := s.stockPrices(ctx, symbol, q.Period, n)
		switch {
		case errors.Is(err, driven.ErrSourceDisabled) && q.Symbol == "":
			// Symbols configured without an endpoint; nothing to show.
		case err != nil:
			n.add("stock prices for %s: %v", symbol, err)
		default:
			d.Stock = &hist
		}
	}

	d.Warnings = n.list()
	if len(d.Warnings) > 0 {
		slog.Warn("dashboard built with warnings", "state", state, "warnings", len(d.Warnings))
	}
	return d, nil
}

// RefreshSources fetches every source the default dashboard needs, bypassing
// the snapshot TTL, and stores the results. It does nothing when offline.
func (s *DashboardService) RefreshSources(ctx context.Context) error {
	if s.cfg.Offline {
		slog.Info("offline mode, skipping upstream refresh")
		return nil
	}

	type target struct {
		source, key string
		fetch       func(context.Context) ([]byte, error)
	}

	country := model.CountryQuery(s.cfg.RegionName, s.cfg.ISO)
	targets := []target{
		{model.SourceCSSE, country.Key(), func(ctx context.Context) ([]byte, error) {
			return s.csse.FetchReports(ctx, country)
		}},
		{model.SourceVaccovid, s.cfg.ISO, func(ctx context.Context) ([]byte, error) {
			return s.daily.FetchDailyHistory(ctx, s.cfg.ISO)
		}},
	}

	if state, err := s.ResolveState(""); err == nil {
		sq := model.StateQuery(s.cfg.RegionName, s.cfg.ISO, state)
		targets = append(targets, target{model.SourceCSSE, sq.Key(), func(ctx context.Context) ([]byte, error) {
			return s.csse.FetchReports(ctx, sq)
		}})
	}

	for _, sym := range s.cfg.StockSymbols {
		sq := model.StockQuery{Symbol: sym, Period: s.cfg.StockPeriod}
		targets = append(targets, target{model.SourceStocks, sq.Key(), func(ctx context.Context) ([]byte, error) {
			return s.stocks.FetchPrices(ctx, sq)
		}})
	}

	var errs []error
	for _, t := range targets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		body, err := t.fetch(ctx)
		if errors.Is(err, driven.ErrSourceDisabled) {
			continue
		}
		if err == nil {
			_, err = flatten.Decode(body)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", t.source, t.key, err))
			continue
		}
		s.store(ctx, t.source, t.key, body)
	}

	return errors.Join(errs...)
}

func (s *DashboardService) cityTable(ctx context.Context, state string, n *notes) (model.CityTable, error) {
	canonical, err := s.ResolveState(state)
	if err != nil {
		return model.CityTable{}, err
	}

	q := model.StateQuery(s.cfg.RegionName, s.cfg.ISO, canonical)
	doc, err := s.load(ctx, model.SourceCSSE, q.Key(), func(ctx context.Context) ([]byte, error) {
		return s.csse.FetchReports(ctx, q)
	}, n)
	if err != nil {
		return model.CityTable{}, err
	}

	cities, err := flatten.Cities(doc, flatten.ScopeCity)
	if err != nil {
		return model.CityTable{}, err
	}
	province, err := flatten.Province(doc)
	if err != nil {
		return model.CityTable{}, err
	}
	return model.CityTable{Province: province, Cities: cities}, nil
}

func (s *DashboardService) mapCoordinates(ctx context.Context, n *notes) ([]model.Coordinate, error) {
	q := model.CountryQuery(s.cfg.RegionName, s.cfg.ISO)
	doc, err := s.load(ctx, model.SourceCSSE, q.Key(), func(ctx context.Context) ([]byte, error) {
		return s.csse.FetchReports(ctx, q)
	}, n)
	if err != nil {
		return nil, err
	}
	return flatten.Coordinates(doc, flatten.ScopeCountry)
}

func (s *DashboardService) dailyDoc(ctx context.Context, n *notes) (any, error) {
	return s.load(ctx, model.SourceVaccovid, s.cfg.ISO, func(ctx context.Context) ([]byte, error) {
		return s.daily.FetchDailyHistory(ctx, s.cfg.ISO)
	}, n)
}

func (s *DashboardService) stockPrices(ctx context.Context, symbol, period string, n *notes) (model.StockHistory, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return model.StockHistory{}, ErrMissingSymbol
	}
	if period == "" {
		period = s.cfg.StockPeriod
	}

	q := model.StockQuery{Symbol: symbol, Period: period}
	doc, err := s.load(ctx, model.SourceStocks, q.Key(), func(ctx context.Context) ([]byte, error) {
		return s.stocks.FetchPrices(ctx, q)
	}, n)
	if err != nil {
		return model.StockHistory{}, err
	}

	points, err := flatten.Prices(doc)
	if err != nil {
		return model.StockHistory{}, err
	}
	return model.StockHistory{Symbol: symbol, Period: period, Points: points}, nil
}

// load returns the decoded document for source/key:
//   - offline: the newest snapshot, or ErrNoSnapshot;
//   - snapshot younger than the TTL: that snapshot;
//   - otherwise a live fetch, stored as a new snapshot;
//   - live fetch failed: the stale snapshot, noted as a warning.
func (s *DashboardService) load(
	ctx context.Context,
	source, key string,
	fetch func(context.Context) ([]byte, error),
	n *notes,
) (any, error) {
	snap, err := s.snapshots.Latest(ctx, source, key)
	if err != nil {
		slog.Warn("snapshot lookup failed", "source", source, "key", key, "error", err)
		snap = nil
	}

	if s.cfg.Offline {
		if snap == nil {
			return nil, fmt.Errorf("%s %s: %w", source, key, ErrNoSnapshot)
		}
		return flatten.Decode(snap.Body)
	}

	if snap != nil && s.cfg.SnapshotTTL > 0 && snap.Age(s.now()) < s.cfg.SnapshotTTL {
		if doc, err := flatten.Decode(snap.Body); err == nil {
			return doc, nil
		}
	}

	body, fetchErr := fetch(ctx)
	if fetchErr == nil {
		doc, err := flatten.Decode(body)
		if err == nil {
			s.store(ctx, source, key, body)
			return doc, nil
		}
		fetchErr = fmt.Errorf("%s response: %w", source, err)
	}

	if snap == nil {
		return nil, fetchErr
	}

	doc, err := flatten.Decode(snap.Body)
	if err != nil {
		return nil, errors.Join(fetchErr, fmt.Errorf("stored %s snapshot: %w", source, err))
	}

	slog.Warn("serving stale snapshot",
		"source", source,
		"key", key,
		"fetched_at", snap.FetchedAt,
		"error", fetchErr,
	)
	n.add("%s data from %s is shown because the live request failed: %v",
		source, snap.FetchedAt.Format(time.RFC3339), fetchErr)
	return doc, nil
}

// store saves body as a snapshot and prunes old ones. Failures are logged
// only; a working upstream is never failed by the snapshot store.
func (s *DashboardService) store(ctx context.Context, source, key string, body []byte) {
	_, err := s.snapshots.Save(ctx, model.Snapshot{
		Source:    source,
		Key:       key,
		Body:      body,
		FetchedAt: s.now(),
	})
	if err != nil {
		slog.Error("saving snapshot failed", "source", source, "key", key, "error", err)
		return
	}

	removed, err := s.snapshots.Prune(ctx, source, key, s.cfg.Retention)
	if err != nil {
		slog.Error("pruning snapshots failed", "source", source, "key", key, "error", err)
		return
	}
	if removed > 0 {
		slog.Debug("pruned snapshots", "source", source, "key", key, "removed", removed)
	}
}

// notes collects dashboard warnings. A nil *notes discards them.
type notes struct {
	items []string
}

func (n *notes) add(format string, args ...any) {
	if n == nil {
		return
	}
	n.items = append(n.items, fmt.Sprintf(format, args...))
}

func (n *notes) list() []string {
	if n == nil || n.items == nil {
		return []string{}
	}
	return n.items
}
