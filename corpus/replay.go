package corpus

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/synadia-labs/tensorfuzz/harness"
)

// Replayer runs corpus entries through harnesses.
type Replayer struct {
	Runner *harness.Runner
	// Cache, when set, short-circuits inputs with a known clean outcome.
	Cache *Cache
	// Workers bounds parallel invocations. Zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

// Outcome is the result of one faulting invocation.
type Outcome struct {
	Harness string
	Path    string
	Result  harness.Result
}

// Report is the result of Replay.
type Report struct {
	Stats  Stats
	Faults []Outcome
}

func (rp *Replayer) logger() *zap.Logger {
	if rp.Logger != nil {
		return rp.Logger
	}
	return harness.Logger()
}

type job struct {
	res    harness.Result
	cached bool
}

// Replay runs every entry through every harness in hs. The only error is a
// cancelled ctx; faults are part of the report.
func (rp *Replayer) Replay(ctx context.Context, hs []*harness.Harness, entries []Entry) (*Report, error) {
	start := time.Now()
	runner := rp.Runner
	if runner == nil {
		runner = harness.Default()
	}
	workers := rp.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	log := rp.logger()

	// Indexed per job, no mutex needed.
	jobs := make([]job, len(hs)*len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(workers, len(jobs))))
	for ei := range entries {
		for hi, h := range hs {
			i := ei*len(hs) + hi
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				jobs[i] = rp.run(runner, log, h, &entries[ei])
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Stats: Stats{Started: start, Inputs: uint64(len(entries))}}
	rep.Stats.Harnesses = make([]HarnessStats, len(hs))
	for hi, h := range hs {
		rep.Stats.Harnesses[hi].Name = h.Name
	}
	for ei := range entries {
		for hi, h := range hs {
			j := jobs[ei*len(hs)+hi]
			rep.Stats.Harnesses[hi].add(j.res, j.cached)
			if j.res.Fault != nil && j.res.Fault.Kind != harness.KindRejected {
				rep.Faults = append(rep.Faults, Outcome{Harness: h.Name, Path: entries[ei].Path, Result: j.res})
			}
		}
	}
	rep.Stats.sortHarnesses()
	rep.Stats.Elapsed = time.Since(start)
	log.Info("replay finished",
		zap.Int("inputs", len(entries)),
		zap.Int("harnesses", len(hs)),
		zap.Int("faults", len(rep.Faults)),
		zap.Duration("elapsed", rep.Stats.Elapsed))
	return rep, nil
}

func (rp *Replayer) run(runner *harness.Runner, log *zap.Logger, h *harness.Harness, e *Entry) job {
	var key string
	if rp.Cache != nil {
		key = CacheKey(h.Name, runner.Limits, e.Data)
		var cr CachedResult
		ok, err := rp.Cache.Get(key, &cr)
		if err != nil {
			log.Warn("replay cache read failed", zap.String("path", e.Path), zap.Error(err))
		}
		if ok && cr.Harness == h.Name {
			return job{res: cr.Result(), cached: true}
		}
	}

	res := runner.Execute(h, e.Data)
	if rp.Cache != nil && cacheable(res) {
		cr := CachedResult{
			Harness:  h.Name,
			Code:     res.Code,
			Skipped:  res.Skipped,
			Consumed: res.Consumed,
			Rejected: res.Fault != nil,
		}
		if err := rp.Cache.Put(key, &cr); err != nil {
			log.Warn("replay cache write failed", zap.String("path", e.Path), zap.Error(err))
		}
	}
	return job{res: res}
}

// cacheable reports whether res is worth skipping next time. Faults other
// than library rejections and diverging results are always rerun.
func cacheable(res harness.Result) bool {
	return res.Diffs == 0 && (res.Fault == nil || res.Fault.Kind == harness.KindRejected)
}
