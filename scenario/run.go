package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/delaneyj/subsmanager/clock"
	"github.com/delaneyj/subsmanager/codec"
	"github.com/delaneyj/subsmanager/subs"
	"github.com/delaneyj/subsmanager/templates"
	"github.com/delaneyj/subsmanager/tracker"
	"github.com/delaneyj/subsmanager/transport"
)

// Epoch is where the manual clock of every run starts.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type TraceEvent struct {
	// 1-based step number, 0 for work done while setting up
	Step   int
	Kind   string
	Detail string
}

type Result struct {
	Name     string
	Config   subs.Config
	Trace    []TraceEvent
	Final    []subs.EntrySnapshot
	Ready    bool
	Stats    subs.Stats
	Failures []string
	Now      time.Time
}

func (r *Result) Passed() bool {
	return len(r.Failures) == 0
}

func (r *Result) Report() string {
	rep := &templates.ScenarioReport{
		Name:            r.Name,
		CacheLimit:      r.Config.CacheLimit,
		ExpireInMinutes: r.Config.ExpireInMinutes,
		Ready:           r.Ready,
		Passes:          r.Stats.Passes,
		Expired:         r.Stats.Expired,
		Trimmed:         r.Stats.Trimmed,
		Resets:          r.Stats.Resets,
		Failures:        r.Failures,
	}
	for _, ev := range r.Trace {
		rep.Trace = append(rep.Trace, templates.TraceLine{Step: ev.Step, Kind: ev.Kind, Detail: ev.Detail})
	}
	for _, e := range r.Final {
		rep.Entries = append(rep.Entries, templates.EntryLine{
			Key:    string(e.Key),
			Offset: e.LastAccessed.Sub(Epoch).String(),
			Ready:  e.Ready,
		})
	}
	return templates.Report(rep)
}

type RunOption func(*runner)

func WithLogger(logger *slog.Logger) RunOption {
	return func(r *runner) {
		r.logger = logger
	}
}

type runner struct {
	logger *slog.Logger

	step  int
	trace []TraceEvent
}

func (r *runner) record(kind, detail string) {
	r.trace = append(r.trace, TraceEvent{Step: r.step, Kind: kind, Detail: detail})
}

// Run plays sc from a fresh manager and reports what happened. Failed
// expectations end up in the result; errors are reserved for scenarios that
// cannot be played at all.
func Run(ctx context.Context, sc *Scenario, opts ...RunOption) (*Result, error) {
	r := &runner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}

	rt := tracker.New(tracker.WithLogger(r.logger))
	clk := clock.NewManual(Epoch)

	lbOpts := []transport.LoopbackOption{transport.WithLogger(r.logger)}
	if sc.AutoReady {
		lbOpts = append(lbOpts, transport.WithAutoReady())
	}
	lb := transport.NewLoopback(rt, lbOpts...)
	lb.OnEvent(func(ev transport.Event) {
		r.record(string(ev.Kind), string(ev.Key))
	})

	m, err := subs.New(rt, lb, sc.Config, subs.WithClock(clk), subs.WithLogger(r.logger))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	if _, err := rt.Autorun(func(c *tracker.Computation) error {
		ready := m.Ready()
		if !c.FirstRun() {
			r.record("readiness", strconv.FormatBool(ready))
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	res := &Result{Name: sc.Name, Config: sc.Config}
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.step = i + 1

		switch {
		case st.Subscribe != nil:
			req, err := st.Subscribe.Request()
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", r.step, err)
			}
			r.record("subscribe", string(req.Key()))
			if _, err := m.Subscribe(st.Subscribe.Name, st.Subscribe.Args...); err != nil {
				return nil, fmt.Errorf("step %d: %w", r.step, err)
			}

		case st.Ready != nil:
			req, err := st.Ready.Request()
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", r.step, err)
			}
			r.record("mark_ready", string(req.Key()))
			if err := lb.MarkReady(req.Key()); err != nil {
				res.Failures = append(res.Failures, fmt.Sprintf("step %d: %v", r.step, err))
			}

		case st.Advance != "":
			d, err := time.ParseDuration(st.Advance)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", r.step, err)
			}
			clk.Advance(d)
			r.record("advance", d.String())

		case st.Reset:
			r.record("reset", "")
			if err := m.Reset(); err != nil {
				return nil, fmt.Errorf("step %d: %w", r.step, err)
			}

		case st.Expect != nil:
			failures, err := check(r.step, m, st.Expect)
			if err != nil {
				return nil, err
			}
			if len(failures) == 0 {
				r.record("expect", "ok")
			} else {
				r.record("expect", "failed")
				res.Failures = append(res.Failures, failures...)
			}
		}
	}

	res.Trace = r.trace
	res.Final = m.Entries()
	res.Ready = m.Ready()
	res.Stats = m.Stats()
	res.Now = clk.Now()
	r.logger.Info("scenario finished",
		"name", sc.Name,
		"steps", len(sc.Steps),
		"failures", len(res.Failures),
		"passes", res.Stats.Passes,
	)
	return res, nil
}

func check(step int, m *subs.Manager, want *Expect) ([]string, error) {
	var failures []string

	if want.Cached != nil {
		wantKeys := make([]string, len(want.Cached))
		for i, s := range want.Cached {
			req, err := s.Request()
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", step, err)
			}
			wantKeys[i] = string(req.Key())
		}
		gotKeys := keyStrings(m.Keys())
		if !slices.Equal(gotKeys, wantKeys) {
			failures = append(failures, fmt.Sprintf("step %d: cached [%s], want [%s]",
				step, strings.Join(gotKeys, " "), strings.Join(wantKeys, " ")))
		}
	}

	if want.Ready != nil {
		if got := m.Ready(); got != *want.Ready {
			failures = append(failures, fmt.Sprintf("step %d: ready %t, want %t", step, got, *want.Ready))
		}
	}
	return failures, nil
}

func keyStrings(keys []codec.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
