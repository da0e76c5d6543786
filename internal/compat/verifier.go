package compat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/apilevel/apilevel/internal/api"
	"github.com/apilevel/apilevel/internal/snapshot"
)

const (
	// eventsSince is the first level whose archives carry ui_events.
	eventsSince = 3
	// optionsSince is the first level whose archives carry ui_options.
	optionsSince = 4
)

// Store supplies archived metadata by level.
type Store interface {
	Load(level int) (*api.Metadata, error)
}

// Verifier checks a live metadata dump against every archived level inside
// the compatibility window the dump itself declares.
type Verifier struct {
	store  Store
	prefix string
	norm   *Normalizer
	logger *zap.Logger
}

// NewVerifier returns a Verifier reading archives from store. prefix is the
// API's reserved namespace prefix. logger may be nil.
func NewVerifier(store Store, prefix string, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		store:  store,
		prefix: prefix,
		norm:   NewNormalizer(prefix),
		logger: logger,
	}
}

// Report is the outcome of one verification run. A run that returns a Report
// always traversed the whole window; Violations then holds every finding, in
// level order within each check phase.
type Report struct {
	RunID      string      `json:"run_id"`
	Version    api.Version `json:"version"`
	Compatible int         `json:"compatible"`
	Stable     int         `json:"stable"`
	Levels     []int       `json:"levels"` // archived levels verified, ascending
	Checked    Checked     `json:"checked"`
	Violations []Violation `json:"violations"`
}

// Checked counts the live members examined during the run.
type Checked struct {
	Functions int `json:"functions"`
	UIEvents  int `json:"ui_events"`
	UIOptions int `json:"ui_options"`
}

// OK reports whether the run found no violations.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Run verifies live against the archived levels in [compatible, stable],
// both derived from live's own version block. A missing or undecodable
// archive inside that window aborts the run with no partial report; every
// other finding is recorded and traversal continues.
func (v *Verifier) Run(ctx context.Context, live *api.Metadata) (*Report, error) {
	current := live.Version.APILevel
	compatible := live.Version.APICompatible
	if current < 0 || compatible < 0 || compatible > current {
		return nil, fmt.Errorf("invalid version block: %s", live.Version)
	}
	stable := current
	if live.Version.APIPrerelease {
		stable--
	}

	history, levels, err := v.loadHistory(ctx, compatible, stable, live.Version)
	if err != nil {
		return nil, err
	}

	r := newRun(v.norm, v.prefix, live, history, levels, compatible, stable, current, live.Version.APIPrerelease)
	r.checkFunctions()
	r.checkEvents()
	r.checkOptions()

	report := &Report{
		RunID:      uuid.New().String(),
		Version:    live.Version,
		Compatible: compatible,
		Stable:     stable,
		Levels:     levels,
		Checked: Checked{
			Functions: len(live.Functions),
			UIEvents:  len(live.UIEvents),
			UIOptions: len(live.UIOptions),
		},
		Violations: r.violations,
	}
	v.logger.Info("verification finished",
		zap.String("run_id", report.RunID),
		zap.Ints("levels", levels),
		zap.Int("violations", len(report.Violations)))
	return report, nil
}

func (v *Verifier) loadHistory(ctx context.Context, compatible, stable int, ver api.Version) (map[int]*api.Metadata, []int, error) {
	history := make(map[int]*api.Metadata)
	levels := make([]int, 0, stable-compatible+1)
	for level := compatible; level <= stable; level++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		meta, err := v.store.Load(level)
		if err != nil {
			var missing *snapshot.MissingError
			if errors.As(err, &missing) && level == ver.APILevel && !ver.APIPrerelease {
				// The usual way to hit this: the level was bumped but the
				// build was not marked prerelease, so the not yet published
				// archive is already expected.
				err = fmt.Errorf("%w. If the api level was just bumped, mark the build prerelease until the level %d archive is published", err, level)
			}
			return nil, nil, err
		}
		v.logger.Debug("loaded archive",
			zap.Int("level", level),
			zap.Int("functions", len(meta.Functions)),
			zap.Int("ui_events", len(meta.UIEvents)),
			zap.Int("ui_options", len(meta.UIOptions)))
		history[level] = meta
		levels = append(levels, level)
	}
	return history, levels, nil
}

// run carries the state of one verification traversal.
type run struct {
	norm    *Normalizer
	prefix  string
	live    *api.Metadata
	history map[int]*api.Metadata
	levels  []int

	// per-level name indexes over the archives
	oldFuncs  map[int]map[string]api.Function
	oldEvents map[int]map[string]api.UIEvent

	compatible int
	stable     int
	current    int
	prerelease bool

	violations []Violation
}

func newRun(norm *Normalizer, prefix string, live *api.Metadata, history map[int]*api.Metadata, levels []int, compatible, stable, current int, prerelease bool) *run {
	r := &run{
		norm:       norm,
		prefix:     prefix,
		live:       live,
		history:    history,
		levels:     levels,
		oldFuncs:   make(map[int]map[string]api.Function, len(levels)),
		oldEvents:  make(map[int]map[string]api.UIEvent, len(levels)),
		compatible: compatible,
		stable:     stable,
		current:    current,
		prerelease: prerelease,
	}
	for level, meta := range history {
		r.oldFuncs[level] = meta.FunctionsByName()
		r.oldEvents[level] = meta.UIEventsByName()
	}
	return r
}

func (r *run) record(v Violation) {
	r.violations = append(r.violations, v)
}

// checkFunctions walks every archived function forward against the live dump,
// then walks the live functions backward against the archive their since
// value places them in.
func (r *run) checkFunctions() {
	liveFuncs := r.live.FunctionsByName()
	liveNames := lo.Map(r.live.Functions, func(f api.Function, _ int) string { return f.Name })

	for _, level := range r.levels {
		for _, old := range r.history[level].Functions {
			live, ok := liveFuncs[old.Name]
			if !ok {
				if old.Since < r.compatible {
					continue // already outside the window when it went away
				}
				r.record(Violation{
					Kind:     FunctionRemoved,
					Subject:  old.Name,
					Levels:   []int{level},
					Expected: old.String(),
					Message:  fmt.Sprintf("was removed but exists in level %d, which should remain supported", level),
					Detail:   renameHint(old.Name, liveNames),
				})
				continue
			}
			if v := CompareFunctions(r.norm, old, live, level); v != nil {
				r.record(*v)
			}
		}
	}

	for _, live := range r.live.Functions {
		if v := r.checkFunctionSince(live); v != nil {
			r.record(*v)
		}
	}
}

// checkEvents mirrors checkFunctions for UI events. Archives below the level
// events were first versioned at carry none, so the forward walk and the
// introduction-level lookup both start there; the bounds checks against the
// current level apply to every event regardless.
func (r *run) checkEvents() {
	liveEvents := r.live.UIEventsByName()
	liveNames := lo.Map(r.live.UIEvents, func(e api.UIEvent, _ int) string { return e.Name })

	for _, level := range r.levels {
		if level < eventsSince {
			continue
		}
		for _, old := range r.history[level].UIEvents {
			live, ok := liveEvents[old.Name]
			if !ok {
				if old.Since < r.compatible {
					continue
				}
				r.record(Violation{
					Kind:     EventRemoved,
					Subject:  old.Name,
					Levels:   []int{level},
					Expected: old.String(),
					Message:  fmt.Sprintf("was removed but exists in level %d, which should remain supported", level),
					Detail:   renameHint(old.Name, liveNames),
				})
				continue
			}
			if v := CompareEvents(old, live, level); v != nil {
				r.record(*v)
			}
		}
	}

	for _, live := range r.live.UIEvents {
		if v := r.checkEventSince(live); v != nil {
			r.record(*v)
		}
	}
}

func (r *run) checkOptions() {
	for _, level := range r.levels {
		if level < optionsSince {
			continue
		}
		r.violations = append(r.violations, CompareOptions(r.history[level].UIOptions, r.live.UIOptions, level)...)
	}
}

// checkFunctionSince validates a live function's since value against the
// archive that level's snapshot took. A function claiming an archived level
// must actually appear there, otherwise its since is too low (it is really
// new) or, when the name lacks the reserved prefix, the function should not
// have been added at all.
func (r *run) checkFunctionSince(f api.Function) *Violation {
	if f.Since > r.current {
		return r.sinceBeyondCurrent(f.Name, f.Since, "function")
	}
	if f.Since > r.stable || f.Since < r.compatible {
		return nil // nothing archived to hold it against
	}
	if _, ok := r.oldFuncs[f.Since][f.Name]; ok {
		return nil
	}
	if !strings.HasPrefix(f.Name, r.prefix) {
		return &Violation{
			Kind:    InvalidName,
			Subject: f.Name,
			Levels:  []int{f.Since},
			Message: fmt.Sprintf("should be deprecated or have the %q prefix", r.prefix),
		}
	}
	return r.sinceTooLow(f.Name, f.Since, "function")
}

func (r *run) checkEventSince(e api.UIEvent) *Violation {
	if e.Since > r.current {
		return r.sinceBeyondCurrent(e.Name, e.Since, "ui event")
	}
	if e.Since > r.stable {
		return nil
	}
	floor := r.compatible
	if floor < eventsSince {
		floor = eventsSince
	}
	if e.Since < floor {
		return nil // predates versioned events, the forward walk covers it
	}
	if _, ok := r.oldEvents[e.Since][e.Name]; ok {
		return nil
	}
	return r.sinceTooLow(e.Name, e.Since, "ui event")
}

func (r *run) sinceBeyondCurrent(name string, since int, what string) *Violation {
	msg := fmt.Sprintf("since value %d is greater than the current level %d. Bump the api level?", since, r.current)
	if r.prerelease {
		msg = fmt.Sprintf("new %s should use since value %d", what, r.current)
	}
	return &Violation{
		Kind:     BadSince,
		Subject:  name,
		Levels:   []int{since},
		Expected: strconv.Itoa(r.current),
		Actual:   strconv.Itoa(since),
		Message:  msg,
	}
}

func (r *run) sinceTooLow(name string, since int, what string) *Violation {
	msg := fmt.Sprintf("since value %d is too low. For new %ss set it to %d", since, what, r.stable+1)
	if r.prerelease {
		msg = fmt.Sprintf("should be marked as new in the development version. Use since=%d", r.current)
	}
	return &Violation{
		Kind:     BadSince,
		Subject:  name,
		Levels:   []int{since},
		Expected: strconv.Itoa(r.stable + 1),
		Actual:   strconv.Itoa(since),
		Message:  msg,
	}
}
