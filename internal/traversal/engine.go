// Package traversal orchestrates profile discovery: direct profile with
// generational expansion, text query, watchlist enumeration, and random
// sampling. Every strategy funnels into one shared check-a-batch
// primitive that deduplicates against the registry, throttles concurrent
// biography fetches, and routes each judgment to the reporter.
package traversal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/biography"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/config"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/person"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/registry"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/report"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/rules"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/sources"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/wikitree"
)

const (
	// chunkSize is how many identities go into one expand request.
	chunkSize = 100
	// expandLimit is the server-side result cap requested per expand.
	expandLimit = 1000
	// maxRequestDepth is the deepest single-request ancestor expansion;
	// deeper runs fall back to frontier expansion.
	maxRequestDepth = 10
	// watchlistPageSize is the watchlist pagination step.
	watchlistPageSize = 100
	// profileBaseURL prefixes reported profile links.
	profileBaseURL = "https://www.wikitree.com/wiki/"
)

// Client is the network boundary the engine consumes.
type Client interface {
	GetProfile(ctx context.Context, key string) (wikitree.Profile, error)
	GetPeople(ctx context.Context, req wikitree.PeopleRequest) (map[int64]wikitree.Profile, error)
	GetBio(ctx context.Context, key string) (string, error)
	GetWatchlist(ctx context.Context, offset, limit int) (int, []wikitree.Profile, error)
	SearchPerson(ctx context.Context, query string, maxResults int) (int, []int64, error)
}

// Engine drives one check run.
type Engine struct {
	client   Client
	rules    *rules.RuleSet
	reg      *registry.Registry
	reporter report.Reporter
	opts     *config.Options
	log      *slog.Logger
	sem      *semaphore.Weighted

	mu          sync.Mutex
	counters    report.Counters
	rateLimited bool
	maxProfiles bool
	errored     bool
	errMessage  string
}

// New builds an engine. The options struct is treated as read-only.
func New(client Client, rs *rules.RuleSet, reg *registry.Registry, reporter report.Reporter, opts *config.Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	inFlight := opts.MaxInFlight
	if inFlight < 1 {
		inFlight = 1
	}
	return &Engine{
		client:   client,
		rules:    rs,
		reg:      reg,
		reporter: reporter,
		opts:     opts,
		log:      logger,
		sem:      semaphore.NewWeighted(int64(inFlight)),
	}
}

// Run executes the configured discovery strategy and always delivers a
// terminal summary to the reporter, even on the fatal-error path.
func (e *Engine) Run(ctx context.Context) error {
	runID := uuid.New()
	e.log.Info("check run starting", "run", runID, "strategy", e.opts.Strategy)

	switch e.opts.Strategy {
	case config.StrategyProfile:
		e.runProfile(ctx)
	case config.StrategyQuery:
		e.runQuery(ctx)
	case config.StrategyWatchlist:
		e.runWatchlist(ctx)
	case config.StrategyRandom:
		e.runRandom(ctx)
	default:
		e.recordError(fmt.Errorf("unknown strategy %q", e.opts.Strategy))
	}

	summary := e.summary(runID, ctx.Err() != nil)
	e.reporter.Finish(summary)
	e.log.Info("check run finished", "run", runID,
		"checked", summary.Counters.Checked, "reported", summary.Counters.Reported,
		"message", summary.CompletionMessage())

	if e.errored {
		return fmt.Errorf("check run failed: %s", e.errMessage)
	}
	return nil
}

// done reports whether any termination condition holds. It is checked
// before every unit of work; once it holds, no new requests are issued
// but in-flight ones still drain.
func (e *Engine) done(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errored || e.rateLimited || e.maxProfiles ||
		e.counters.Reported >= e.opts.MaxReport ||
		e.counters.Checked >= e.opts.MaxProfiles
}

func (e *Engine) recordError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.errored {
		e.errored = true
		e.errMessage = err.Error()
	}
	e.log.Error("unrecoverable error", "error", err)
}

// handleLimitError maps the server's limit signals to terminal flags.
// It reports whether err was such a signal.
func (e *Engine) handleLimitError(err error) bool {
	switch {
	case errors.Is(err, wikitree.ErrRateLimited):
		e.mu.Lock()
		e.rateLimited = true
		e.mu.Unlock()
		e.log.Warn("server rate limit reached, stopping new requests")
		return true
	case errors.Is(err, wikitree.ErrMaxProfiles):
		e.mu.Lock()
		e.maxProfiles = true
		e.mu.Unlock()
		e.log.Warn("server profile cap reached, stopping new requests")
		return true
	default:
		return false
	}
}

// runProfile checks the target profile with its configured generational
// expansion, then walks the ancestor frontier for depths beyond the
// single-request limit, then expands relatives of flagged profiles.
func (e *Engine) runProfile(ctx context.Context) {
	ancestors := e.opts.Ancestors
	if ancestors > maxRequestDepth {
		ancestors = maxRequestDepth
	}

	parents := e.checkBatch(ctx, []string{e.opts.Key}, wikitree.PeopleRequest{
		Ancestors:   ancestors,
		Descendants: e.opts.Descendants,
	})

	// Breadth-first frontier expansion for the remaining depth, one
	// generation at a time.
	for remaining := e.opts.Ancestors - maxRequestDepth; remaining > 0 && !e.done(ctx); remaining-- {
		frontier := e.unseenKeys(parents)
		if len(frontier) == 0 {
			break
		}
		parents = e.checkBatch(ctx, frontier, wikitree.PeopleRequest{Ancestors: 1})
	}

	e.expandRelatives(ctx)
}

func (e *Engine) runQuery(ctx context.Context) {
	found, ids, err := e.client.SearchPerson(ctx, e.opts.Query, e.opts.MaxProfiles)
	if err != nil {
		if !e.handleLimitError(err) && ctx.Err() == nil {
			e.recordError(err)
		}
		return
	}
	e.log.Info("query results", "query", e.opts.Query, "found", found, "returned", len(ids))
	e.addConsidered(len(ids))

	e.checkBatch(ctx, int64Keys(ids), wikitree.PeopleRequest{
		Ancestors:   min(e.opts.Ancestors, maxRequestDepth),
		Descendants: e.opts.Descendants,
	})
	e.expandRelatives(ctx)
}

// runWatchlist enumerates the watchlist window [SearchStart,
// SearchStart+SearchMax), learning the total from a probe call first so
// no offset beyond the end is ever requested.
func (e *Engine) runWatchlist(ctx context.Context) {
	total, _, err := e.client.GetWatchlist(ctx, 0, 1)
	if err != nil {
		if !e.handleLimitError(err) && ctx.Err() == nil {
			e.recordError(err)
		}
		return
	}

	start := e.opts.SearchStart
	end := start + e.opts.SearchMax
	if end > total {
		end = total
	}
	e.log.Info("watchlist window", "total", total, "start", start, "end", end)

	for offset := start; offset < end; offset += watchlistPageSize {
		if e.done(ctx) {
			break
		}
		limit := watchlistPageSize
		if offset+limit > end {
			limit = end - offset
		}
		_, page, err := e.client.GetWatchlist(ctx, offset, limit)
		if err != nil {
			if e.handleLimitError(err) || ctx.Err() != nil {
				break
			}
			// One failed page drops only its own contribution.
			e.log.Error("watchlist page failed", "offset", offset, "error", err)
			continue
		}
		e.addConsidered(len(page))
		e.evaluateProfiles(ctx, page)
	}

	e.expandRelatives(ctx)
}

// runRandom samples ids uniformly from the configured key space,
// skipping misses, until a termination condition holds.
func (e *Engine) runRandom(ctx context.Context) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	span := e.opts.MaxRandom - e.opts.MinRandom + 1

	// Misses are common in a sparse key space; bound the total draws so
	// a badly configured range still terminates.
	maxDraws := e.opts.MaxProfiles * 4
	for draws := 0; draws < maxDraws && !e.done(ctx); draws++ {
		id := e.opts.MinRandom + rng.Int63n(span)
		if e.reg.Has(id) {
			continue
		}
		profile, err := e.client.GetProfile(ctx, strconv.FormatInt(id, 10))
		if err != nil {
			if e.handleLimitError(err) || ctx.Err() != nil {
				break
			}
			// Invalid id or unreadable profile: skip the draw.
			continue
		}
		e.addConsidered(1)
		e.evaluateProfiles(ctx, []wikitree.Profile{profile})
	}
}

// expandRelatives checks the configured degrees of connection from
// profiles already found to have issues. Each iteration claims the
// still-unexpanded subset, so the loop terminates even on cyclic
// graphs.
func (e *Engine) expandRelatives(ctx context.Context) {
	for degree := 0; degree < e.opts.RelativeDegrees; degree++ {
		if e.done(ctx) {
			return
		}
		frontier := e.reg.ClaimUnexpanded(e.reg.IssueIDs())
		if len(frontier) == 0 {
			return
		}
		e.log.Info("relative expansion", "degree", degree+1, "frontier", len(frontier))
		e.checkBatch(ctx, int64Keys(frontier), wikitree.PeopleRequest{Nuclear: 1})
	}
}

// checkBatch is the shared primitive every strategy funnels into. It
// splits keys into request-size chunks, issues one paginated expand per
// chunk, and evaluates every returned profile. A failed expand is fatal
// for the run; the return value is the parent ids of newly discovered
// profiles, for frontier expansion.
func (e *Engine) checkBatch(ctx context.Context, keys []string, req wikitree.PeopleRequest) []int64 {
	var parents []int64
	if req.Limit <= 0 {
		req.Limit = expandLimit
	}

	for start := 0; start < len(keys); start += chunkSize {
		if e.done(ctx) {
			break
		}
		end := start + chunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunk := req
		chunk.Keys = keys[start:end]

		for page := 0; ; page++ {
			chunk.Start = page * chunk.Limit
			people, err := e.client.GetPeople(ctx, chunk)
			if err != nil {
				if !e.handleLimitError(err) && ctx.Err() == nil {
					e.recordError(err)
				}
				return parents
			}

			profiles := make([]wikitree.Profile, 0, len(people))
			for _, p := range people {
				profiles = append(profiles, p)
			}
			e.addConsidered(len(profiles))
			parents = append(parents, e.evaluateProfiles(ctx, profiles)...)

			if len(people) < chunk.Limit || e.done(ctx) {
				break
			}
		}
	}
	return parents
}

// evaluateProfiles reserves, filters, and judges a set of profiles.
// Biography fetches run concurrently under the in-flight ceiling; the
// call returns only after every issued fetch has drained, so no
// in-flight work is ever silently dropped. It returns the parent ids of
// newly discovered profiles.
func (e *Engine) evaluateProfiles(ctx context.Context, profiles []wikitree.Profile) []int64 {
	var parents []int64
	g := new(errgroup.Group)

	for _, profile := range profiles {
		if e.done(ctx) {
			break
		}
		rec := profile.ToRecord()
		if rec.ID == 0 {
			continue
		}

		for _, parent := range profile.Parents() {
			if !e.reg.Has(parent) {
				parents = append(parents, parent)
			}
		}

		// Reserve at issue time, not completion time, so overlapping
		// discovery paths rarely fetch the same biography twice.
		if !e.reg.Reserve(rec.ID, rec.Name) {
			continue
		}
		if !e.eligible(rec) {
			e.addExcluded()
			continue
		}

		if rec.Bio != "" {
			e.judge(rec)
			continue
		}

		if err := e.sem.Acquire(ctx, 1); err != nil {
			break // canceled while waiting for a slot
		}
		g.Go(func() error {
			defer e.sem.Release(1)
			bio, err := e.client.GetBio(ctx, strconv.FormatInt(rec.ID, 10))
			switch {
			case errors.Is(err, wikitree.ErrPermissionDenied):
				e.addExcluded()
			case errors.Is(err, context.Canceled):
				// Abort of an individual request is not an error.
			case err != nil:
				e.handleLimitError(err)
				e.log.Error("biography fetch failed", "id", rec.ID, "error", err)
			default:
				rec.Bio = bio
				e.judge(rec)
			}
			return nil
		})
	}

	_ = g.Wait()
	return parents
}

// eligible applies the privacy floor, open-only requirement, and
// pre-1500 exclusion.
func (e *Engine) eligible(rec person.Record) bool {
	if !rec.HasName() {
		return false
	}
	if rec.Privacy < person.PrivacyPublic {
		return false
	}
	if e.opts.OpenOnly && rec.Privacy < person.PrivacyOpen {
		return false
	}
	if e.opts.IgnorePre1500 && person.IsPre1500(rec) {
		return false
	}
	return true
}

// judge parses and validates one biography and records the outcome.
func (e *Engine) judge(rec person.Record) {
	bctx := biography.Context{
		IsPre1700:        person.IsPre1700(rec) || e.opts.ReliableSourcesOnly,
		IsPre1500:        person.IsPre1500(rec),
		TooOldToRemember: person.TooOldToRemember(rec),
		IsUndated:        person.IsUndated(rec),
	}
	result := biography.Parse(rec.Bio, bctx, e.rules)
	rec.Bio = "" // biography text is not retained past the parse
	judgment := sources.Validate(result, bctx, e.rules)

	status := report.StatusSourced
	switch {
	case judgment.IsMarkedUnsourced:
		status = report.StatusMarkedUnsourced
		e.reg.MarkUnsourced(rec.ID)
	case judgment.PossiblyUnsourced():
		status = report.StatusPossiblyUnsourced
		e.reg.MarkPossiblyUnsourced(rec.ID)
	}
	if judgment.HasStyleIssues() {
		e.reg.MarkStyle(rec.ID)
	}

	row := report.Row{
		ID:              rec.ID,
		Name:            rec.Name,
		URL:             profileBaseURL + rec.Name,
		Status:          status,
		Defects:         judgment.StyleDefects,
		Messages:        result.Messages,
		ValidCount:      len(judgment.ValidSources),
		InvalidCount:    len(judgment.InvalidSources),
		LineCount:       result.LineCount,
		SourceLineCount: judgment.SourceLineCount(),
		Orphaned:        rec.IsOrphan(),
	}
	accepted := e.reporter.Report(row)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.counters.Checked++
	if accepted {
		e.counters.Reported++
	}
	switch status {
	case report.StatusMarkedUnsourced:
		e.counters.MarkedUnsourced++
	case report.StatusPossiblyUnsourced:
		e.counters.PossiblyUnsourced++
	}
	if judgment.HasStyleIssues() {
		e.counters.StyleIssues++
	}
}

func (e *Engine) addExcluded() {
	e.mu.Lock()
	e.counters.Excluded++
	e.mu.Unlock()
}

func (e *Engine) addConsidered(n int) {
	e.mu.Lock()
	e.counters.Considered += n
	e.mu.Unlock()
}

func (e *Engine) summary(runID uuid.UUID, canceled bool) report.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	counters := e.counters
	counters.Duplicates = e.reg.Duplicates()
	return report.Summary{
		RunID:              runID,
		Counters:           counters,
		MaxProfilesReached: e.maxProfiles || counters.Checked >= e.opts.MaxProfiles,
		RateLimited:        e.rateLimited,
		Canceled:           canceled,
		Errored:            e.errored,
		Message:            e.errMessage,
	}
}

// unseenKeys filters ids down to those not yet in the registry and
// renders them as request keys.
func (e *Engine) unseenKeys(ids []int64) []string {
	var keys []string
	seen := map[int64]bool{}
	for _, id := range ids {
		if id == 0 || seen[id] || e.reg.Has(id) {
			continue
		}
		seen[id] = true
		keys = append(keys, strconv.FormatInt(id, 10))
	}
	return keys
}

func int64Keys(ids []int64) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, strconv.FormatInt(id, 10))
	}
	return keys
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
