package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"perfscore/internal/feeds"
	"perfscore/internal/metrics"
	"perfscore/internal/teams"
)

const defaultCacheEntries = 32

// Engine memoises Run by (target, row hash). Concurrent refreshes for the
// same key share one computation; different keys never share state.
type Engine struct {
	registry *teams.Registry
	opts     Options
	logger   *zap.Logger

	flight     singleflight.Group
	mu         sync.Mutex
	cache      map[string]*Result
	order      []string
	maxEntries int
}

// NewEngine binds a registry and options. A nil logger disables logging.
func NewEngine(reg *teams.Registry, opts Options, logger *zap.Logger) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("alias registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry:   reg,
		opts:       opts,
		logger:     logger.Named("engine"),
		cache:      make(map[string]*Result),
		maxEntries: defaultCacheEntries,
	}, nil
}

// Refresh returns the scorecards for target, reusing a cached result when
// the rows are unchanged.
func (e *Engine) Refresh(rows []feeds.RawRow, target metrics.Target) (*Result, error) {
	key := target.String() + "|" + HashRows(rows)

	e.mu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.mu.Unlock()
		e.logger.Debug("cache hit", zap.String("target", target.String()))
		return cached, nil
	}
	e.mu.Unlock()

	v, err, shared := e.flight.Do(key, func() (any, error) {
		res, err := Run(rows, e.registry, target, e.opts)
		if err != nil {
			return nil, err
		}
		e.store(key, res)
		e.logRun(res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		e.logger.Debug("shared in-flight refresh", zap.String("target", target.String()))
	}
	return v.(*Result), nil
}

// Forget empties the cache.
func (e *Engine) Forget() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*Result)
	e.order = nil
}

func (e *Engine) store(key string, res *Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.cache[key]; ok {
		return
	}
	if len(e.order) >= e.maxEntries {
		oldest := e.order[0]
		e.order = e.order[1:]
		delete(e.cache, oldest)
	}
	e.cache[key] = res
	e.order = append(e.order, key)
}

func (e *Engine) logRun(res *Result) {
	d := res.Diagnostics
	dropped := 0
	for _, n := range d.Normalize.Dropped {
		dropped += n
	}
	e.logger.Info("refresh computed",
		zap.String("target", res.Target.String()),
		zap.Int("rows", d.Normalize.Rows),
		zap.Int("dropped", dropped),
		zap.Int("excluded", d.Resolve.Excluded),
		zap.Int("series", d.Series),
		zap.Int("teams", len(res.Scorecards.Scorecards)),
		zap.Int("teams_meeting_bar", res.Scorecards.TeamsMeetingBar),
	)
	for _, src := range metrics.Sources {
		names := d.Resolve.Unknown[src]
		if len(names) == 0 {
			continue
		}
		e.logger.Warn("unmapped source teams",
			zap.String("source", string(src)),
			zap.Strings("names", names),
		)
	}
	if d.Group.NoPeriod > 0 {
		e.logger.Warn("records without period dropped", zap.Int("count", d.Group.NoPeriod))
	}
	if d.Normalize.PercentUnsigned > 0 {
		e.logger.Warn("percent cells without % read as fractions", zap.Int("count", d.Normalize.PercentUnsigned))
	}
}
