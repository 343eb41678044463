package balance

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/popshot/internal/ai"
	"github.com/vovakirdan/popshot/internal/config"
	"github.com/vovakirdan/popshot/internal/events"
	"github.com/vovakirdan/popshot/internal/level"
	"github.com/vovakirdan/popshot/internal/registry"
	"github.com/vovakirdan/popshot/internal/sim"
)

// DefaultGrace is added to the session wall-clock cap to form the hard
// deadline after which a session result is abandoned.
const DefaultGrace = 5 * time.Second

// ErrDeadline is the error recorded for a session abandoned at its hard
// deadline.
var ErrDeadline = errors.New("balance: session exceeded hard deadline")

// Progress reports one finished session.
type Progress struct {
	LevelID   string
	PersonaID string
	Done      int // Sessions finished in the batch
	Total     int
	Result    sim.Result
}

// Analyzer runs balance batches. Construct one with New; it is safe to
// call Analyze from one goroutine at a time.
type Analyzer struct {
	cache    *level.Cache
	registry *registry.Registry
	cfg      config.Config
	logger   *log.Logger

	// Seed is the base seed; each (level, persona, run) derives its own.
	Seed int64
	// Grace extends the per-session hard deadline beyond MaxWallTime.
	Grace time.Duration
	// Clock overrides the session clock, mainly for tests.
	Clock sim.Clock
	// OnProgress is called after each session. Calls are serialized.
	OnProgress func(Progress)
}

// New creates an analyzer over a level cache and policy registry.
func New(cache *level.Cache, reg *registry.Registry, cfg config.Config, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Analyzer{
		cache:    cache,
		registry: reg,
		cfg:      cfg,
		logger:   logger,
		Seed:     1,
		Grace:    DefaultGrace,
	}
}

type job struct {
	level   int
	persona int
	run     int
}

// Analyze runs runs sessions for every (level, persona) pair on a bounded
// pool and returns one overview per level, in the order given. Unknown
// level ids and an empty persona list are fatal. Session failures are not:
// they are counted in the reports. Cancelling ctx aborts the batch with no
// partial result.
func (a *Analyzer) Analyze(ctx context.Context, levelIDs []string, personas []ai.Persona, runs int) ([]LevelOverview, error) {
	if len(levelIDs) == 0 {
		return nil, errors.New("balance: no levels selected")
	}
	if len(personas) == 0 {
		return nil, errors.New("balance: no personas selected")
	}
	if runs <= 0 {
		return nil, fmt.Errorf("balance: runs must be positive, got %d", runs)
	}
	for _, id := range levelIDs {
		if !a.cache.Known(id) {
			return nil, fmt.Errorf("%w: %s", level.ErrNotFound, id)
		}
	}
	for _, p := range personas {
		if !a.registry.Exists(p.Preset) {
			return nil, fmt.Errorf("balance: persona %s uses unknown preset %q", p.ID, p.Preset)
		}
	}

	results := make([][][]sim.Result, len(levelIDs))
	for i := range results {
		results[i] = make([][]sim.Result, len(personas))
		for j := range results[i] {
			results[i][j] = make([]sim.Result, runs)
		}
	}

	total := len(levelIDs) * len(personas) * runs
	a.logger.Info("balance batch started", "levels", len(levelIDs), "personas", len(personas), "runs", runs, "sessions", total)

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism())
	for li := range levelIDs {
		for pi := range personas {
			for r := 0; r < runs; r++ {
				j := job{level: li, persona: pi, run: r}
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					res := a.runOne(gctx, levelIDs[j.level], personas[j.persona], a.seedFor(levelIDs[j.level], personas[j.persona].ID, j.run))
					results[j.level][j.persona][j.run] = res

					mu.Lock()
					done++
					if a.OnProgress != nil {
						a.OnProgress(Progress{
							LevelID:   levelIDs[j.level],
							PersonaID: personas[j.persona].ID,
							Done:      done,
							Total:     total,
							Result:    res,
						})
					}
					mu.Unlock()
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("balance: batch aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("balance: batch aborted: %w", err)
	}

	overviews := make([]LevelOverview, len(levelIDs))
	for li, id := range levelIDs {
		reports := make([]PersonaReport, len(personas))
		for pi, p := range personas {
			reports[pi] = Evaluate(id, p, results[li][pi], a.cfg.Batch.ReferenceSampleSize)
			if err := reports[pi].Err(); err != nil {
				a.logger.Warn("pair has no successful runs", "level", id, "persona", p.ID, "failed", reports[pi].FailedRuns)
			}
		}
		overviews[li] = Overview(id, a.levelName(id), reports)
		a.logger.Info("level analyzed", "level", id, "health", fmt.Sprintf("%.2f", overviews[li].Health), "critical", overviews[li].Critical)
	}
	return overviews, nil
}

// AnalyzePair runs runs sessions of one persona on one level, sequentially.
func (a *Analyzer) AnalyzePair(ctx context.Context, levelID string, p ai.Persona, runs int) (PersonaReport, error) {
	if runs <= 0 {
		return PersonaReport{}, fmt.Errorf("balance: runs must be positive, got %d", runs)
	}
	results := make([]sim.Result, 0, runs)
	for r := 0; r < runs; r++ {
		if err := ctx.Err(); err != nil {
			return PersonaReport{}, err
		}
		results = append(results, a.runOne(ctx, levelID, p, a.seedFor(levelID, p.ID, r)))
	}
	return Evaluate(levelID, p, results, a.cfg.Batch.ReferenceSampleSize), nil
}

// AnalyzeLevel runs every persona on one level.
func (a *Analyzer) AnalyzeLevel(ctx context.Context, levelID string, personas []ai.Persona, runs int) (LevelOverview, error) {
	out, err := a.Analyze(ctx, []string{levelID}, personas, runs)
	if err != nil {
		return LevelOverview{}, err
	}
	return out[0], nil
}

// runOne runs a single session under its hard deadline. The session goroutine
// is abandoned, not awaited, once the deadline passes.
func (a *Analyzer) runOne(ctx context.Context, levelID string, p ai.Persona, seed int64) sim.Result {
	policy, err := a.registry.ForPersona(p, seed)
	if err != nil {
		return sim.ErrorResult(levelID, p.ID, err)
	}

	outbox := events.NewOutbox()
	opts := sim.OptionsFromConfig(a.cfg, policy, seed)
	opts.PersonaID = p.ID
	opts.Logger = a.logger
	opts.Clock = a.Clock
	opts.Outbox = outbox

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan sim.Result, 1)
	go func() {
		ch <- sim.RunLevel(sctx, a.cache, levelID, opts)
	}()

	var deadline <-chan time.Time
	if limit := a.cfg.Session.MaxWallTime; limit > 0 {
		t := time.NewTimer(limit + a.Grace)
		defer t.Stop()
		deadline = t.C
	}

	var res sim.Result
	select {
	case res = <-ch:
	case <-deadline:
		a.logger.Warn("session abandoned at hard deadline", "level", levelID, "persona", p.ID, "seed", seed)
		return sim.ErrorResult(levelID, p.ID, ErrDeadline)
	}

	for _, n := range outbox.Drain() {
		if fin, ok := n.(events.SessionFinished); ok {
			a.logger.Debug("session finished", "level", fin.LevelID, "persona", fin.PersonaID,
				"outcome", fin.Outcome, "reason", fin.Reason, "score", fin.Score)
		}
	}
	if !res.Success {
		a.logger.Warn("session failed", "level", levelID, "persona", p.ID, "error", res.Error)
	}
	return res
}

func (a *Analyzer) parallelism() int {
	if n := a.cfg.Batch.Parallelism; n > 0 {
		return n
	}
	return 1
}

// seedFor derives a stable seed for one run so that results do not depend
// on scheduling order.
func (a *Analyzer) seedFor(levelID, personaID string, run int) int64 {
	h := fnv.New64a()
	h.Write([]byte(levelID))
	h.Write([]byte{0})
	h.Write([]byte(personaID))
	return a.Seed + int64(h.Sum64()&0x7fffffff)*1000 + int64(run)
}

func (a *Analyzer) levelName(id string) string {
	l, err := a.cache.Get(id)
	if err != nil {
		return id
	}
	return l.Name
}
