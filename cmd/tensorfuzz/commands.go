package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/synadia-labs/tensorfuzz/artifact"
	"github.com/synadia-labs/tensorfuzz/corpus"
	"github.com/synadia-labs/tensorfuzz/fuzzinput"
	"github.com/synadia-labs/tensorfuzz/harness"
)

var errPanicked = errors.New("replay: unexpected panics")

type listCmd struct {
	Pattern string `arg:"" optional:"" help:"Glob over name or family/name"`
}

func (c *listCmd) Run(a *app) error {
	hs, err := a.reg.Match(c.Pattern)
	if err != nil {
		return err
	}
	name := a.paint(color.FgCyan, color.Bold)
	dim := a.paint(color.Faint)
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, h := range hs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", name.Sprint(h.Name), dim.Sprint(h.Family), h.MinSize, h.Doc)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	a.printf("%d harnesses\n", len(hs))
	return nil
}

type describeCmd struct {
	File  string `arg:"" type:"existingfile" help:"Input file"`
	Count int    `short:"n" default:"1" help:"Tensors to decode; 0 decodes until the input is exhausted"`
}

func (c *describeCmd) Run(a *app) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	cur := fuzzinput.NewCursor(data)
	for i := 0; c.Count <= 0 || i < c.Count; i++ {
		off := cur.Offset()
		t := cur.ReadTensorWith(a.cfg.Decode, fuzzinput.SupportedTypes)
		a.printf("%s %s\n", a.paint(color.FgYellow).Sprintf("@%d", off), t)
		t.Release()
		if cur.Remaining() == 0 {
			break
		}
	}
	a.printf("consumed %d of %d bytes\n", cur.Offset(), cur.Len())
	return nil
}

type replayCmd struct {
	Pattern    string   `arg:"" help:"Glob over name or family/name; \"all\" for every harness"`
	Paths      []string `arg:"" type:"path" help:"Input files or directories"`
	Workers    int      `short:"j" help:"Parallel invocations (default: [run].workers)"`
	NoCache    bool     `help:"Ignore and do not update the replay cache"`
	ClearCache bool     `help:"Drop every cached result before replaying"`
	NoSave     bool     `help:"Do not save faulting inputs as artifacts"`
}

func (c *replayCmd) Run(a *app) error {
	hs, err := a.reg.Match(c.Pattern)
	if err != nil {
		return err
	}
	if len(hs) == 0 {
		return fmt.Errorf("no harness matches %q", c.Pattern)
	}
	entries, err := corpus.Load(c.Paths...)
	if err != nil {
		return err
	}

	opts := []harness.Option{
		harness.WithLimits(a.cfg.Decode),
		harness.WithLogger(a.log),
		harness.WithProgressEvery(a.cfg.Run.ProgressEvery),
	}
	if !c.NoSave {
		store, err := artifact.Open(a.cfg.Artifacts.Dir)
		if err != nil {
			return err
		}
		opts = append(opts, harness.WithSink(store))
	}
	rp := &corpus.Replayer{
		Runner:  harness.NewRunner(opts...),
		Workers: a.cfg.Run.Workers,
		Logger:  a.log,
	}
	if c.Workers > 0 {
		rp.Workers = c.Workers
	}
	if a.cfg.Corpus.CacheDir != "" && (c.ClearCache || !c.NoCache) {
		cache, err := corpus.OpenCache(a.cfg.Corpus.CacheDir)
		if err != nil {
			return err
		}
		if c.ClearCache {
			if err := cache.DropAll(); err != nil {
				return err
			}
			a.log.Info("cleared replay cache", zap.String("dir", a.cfg.Corpus.CacheDir))
		}
		if !c.NoCache {
			rp.Cache = cache
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rep, err := rp.Replay(ctx, hs, entries)
	if err != nil {
		return err
	}

	for _, f := range rep.Faults {
		label := a.paint(color.FgRed, color.Bold).Sprint(string(f.Result.Fault.Kind))
		a.printf("%s %s %s: %v\n", label, f.Harness, f.Path, f.Result.Fault)
	}
	a.printStats(&rep.Stats)
	if a.cfg.Corpus.Stats != "" {
		if err := corpus.WriteStats(a.cfg.Corpus.Stats, &rep.Stats); err != nil {
			a.log.Warn("failed to write replay statistics", zap.Error(err))
		}
	}
	if rep.Stats.Panics() > 0 {
		return errPanicked
	}
	return nil
}

type seedsCmd struct {
	Pattern string `arg:"" optional:"" help:"Glob over name or family/name"`
	Out     string `short:"o" required:"" help:"Output directory"`
}

func (c *seedsCmd) Run(a *app) error {
	hs, err := a.reg.Match(c.Pattern)
	if err != nil {
		return err
	}
	var n int
	for _, h := range hs {
		dir := filepath.Join(c.Out, h.Name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for _, s := range h.Seeds {
			if err := os.WriteFile(filepath.Join(dir, artifact.Digest(s)), s, 0o644); err != nil {
				return err
			}
			n++
		}
	}
	a.printf("wrote %d seeds for %d harnesses to %s\n", n, len(hs), c.Out)
	return nil
}

type triageCmd struct {
	Dir     string `help:"Artifact directory (default: [artifacts].dir)" type:"path"`
	Harness string `help:"Only records of harnesses matching this glob"`
	Kind    string `help:"Only records of this kind (panic, error or diff)"`
}

func (c *triageCmd) Run(a *app) error {
	dir := c.Dir
	if dir == "" {
		dir = a.cfg.Artifacts.Dir
	}
	recs, err := artifact.ReadRecords(filepath.Join(dir, artifact.RecordsFile))
	if err != nil {
		return err
	}
	if c.Harness != "" {
		if _, err := filepath.Match(c.Harness, ""); err != nil {
			return err
		}
	}
	kept := recs[:0]
	for _, r := range recs {
		if c.Kind != "" && r.Kind != c.Kind {
			continue
		}
		if c.Harness != "" {
			if ok, _ := filepath.Match(c.Harness, r.Harness); !ok {
				continue
			}
		}
		kept = append(kept, r)
	}
	sums := artifact.Summarize(kept)
	if len(sums) == 0 {
		a.printf("no artifacts in %s\n", dir)
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HARNESS\tKIND\tCOUNT\tUNIQUE\tLAST\tOPS")
	for _, s := range sums {
		kind := s.Kind
		switch s.Kind {
		case string(harness.KindPanic):
			kind = a.paint(color.FgRed, color.Bold).Sprint(kind)
		case artifact.KindDiff:
			kind = a.paint(color.FgYellow).Sprint(kind)
		}
		ops := strings.Join(s.Ops, ",")
		if s.Kind == artifact.KindDiff {
			ops = fmt.Sprintf("%s (max %.3g)", ops, s.MaxDiff)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n", s.Harness, kind, s.Count, s.Unique,
			s.Last.Local().Format(time.DateTime), ops)
	}
	return w.Flush()
}

type statsCmd struct {
	File string `help:"Statistics file (default: [corpus].stats)" type:"path"`
}

func (c *statsCmd) Run(a *app) error {
	path := c.File
	if path == "" {
		path = a.cfg.Corpus.Stats
	}
	s, err := corpus.ReadStats(path)
	if err != nil {
		return err
	}
	a.printf("replay of %s\n", s.Started.Local().Format(time.DateTime))
	a.printStats(s)
	return nil
}

func (a *app) printStats(s *corpus.Stats) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "HARNESS\tRUNS\tKEPT\tDISCARDED\tSKIPPED\tCACHED\tREJECTED\tERRORS\tDIFFS\tPANICS\t")
	bad := a.paint(color.FgRed, color.Bold)
	for _, h := range s.Harnesses {
		panics := fmt.Sprint(h.Panics)
		if h.Panics > 0 {
			panics = bad.Sprint(panics)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\t\n", h.Name,
			h.Runs, h.Kept, h.Discarded, h.Skipped, h.Cached, h.Rejected, h.Errors, h.Diffs, panics)
	}
	w.Flush()
	a.printf("%d inputs in %s\n", s.Inputs, s.Elapsed.Round(time.Millisecond))
}
