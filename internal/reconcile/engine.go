package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sagelink/internal/catalog"
	"sagelink/internal/collision"
	"sagelink/internal/config"
	"sagelink/internal/fileutil"
	"sagelink/internal/layout"
	"sagelink/internal/logging"
	"sagelink/internal/projector"
	"sagelink/internal/services"
	"sagelink/internal/sourcefile"
	"sagelink/internal/state"
)

// Options tunes a run.
type Options struct {
	// Limit truncates the per-record pass to the first N records in fetch
	// order. 0 means unlimited. Orphan cleanup always covers every entry.
	Limit int
}

// Engine reconciles catalog records against the library tree.
type Engine struct {
	store      *state.Store
	layout     layout.Resolver
	collisions *collision.Resolver
	projector  *projector.Projector
	opts       Options
	logger     *slog.Logger

	locate func(string) (string, error)
	now    func() time.Time
}

// NewFromConfig builds an engine for the configured library layout.
func NewFromConfig(cfg *config.Config, store *state.Store, logger *slog.Logger) *Engine {
	resolver := layout.Resolver{
		Root:       cfg.Paths.TargetRoot,
		MoviesDir:  cfg.Library.MoviesDir,
		TVDir:      cfg.Library.TVDir,
		FlatMovies: cfg.Library.FlatMovies,
	}
	proj := projector.New([]string{cfg.MoviesRoot(), cfg.TVRoot()}, logger)
	return NewEngine(store, resolver, proj, Options{Limit: cfg.Run.Limit}, logger)
}

// NewEngine wires an engine over an opened store.
func NewEngine(store *state.Store, resolver layout.Resolver, proj *projector.Projector, opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		store:      store,
		layout:     resolver,
		collisions: collision.NewResolver(store, proj, logger),
		projector:  proj,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "reconcile"),
		locate:     sourcefile.Locate,
		now:        time.Now,
	}
}

type run struct {
	report    Report
	catalog   map[string]catalog.Record
	done      map[string]struct{}
	missing   map[string]struct{}
	located   map[string]struct{}
	startedAt time.Time
}

// Run performs one reconciliation pass over records and flushes the state
// store. Per-record failures are counted in the report; an error is returned
// only for fatal conditions, in which case nothing is flushed.
func (e *Engine) Run(ctx context.Context, records []catalog.Record) (Report, error) {
	r := &run{
		catalog:   make(map[string]catalog.Record, len(records)),
		done:      make(map[string]struct{}, len(records)),
		missing:   make(map[string]struct{}),
		located:   make(map[string]struct{}, len(records)),
		startedAt: e.now(),
	}
	r.report.Fetched = len(records)
	for _, rec := range records {
		if _, dup := r.catalog[rec.ID]; !dup && rec.ID != "" {
			r.catalog[rec.ID] = rec
		}
	}

	batch := records
	if e.opts.Limit > 0 && len(batch) > e.opts.Limit {
		batch = batch[:e.opts.Limit]
		e.logger.Info("processing limit applied",
			logging.Int("limit", e.opts.Limit),
			logging.Int("fetched", len(records)),
		)
	}

	recordCtx := services.WithStage(ctx, "records")
	for _, rec := range batch {
		if err := ctx.Err(); err != nil {
			return e.finish(r), err
		}
		if err := e.processWithRequalified(recordCtx, r, rec); err != nil {
			return e.finish(r), err
		}
	}

	if err := e.cleanupOrphans(services.WithStage(ctx, "orphans"), r); err != nil {
		return e.finish(r), err
	}

	if err := e.store.Flush(ctx); err != nil {
		logging.CriticalWithContext(e.logger, "state flush failed", "state_flush_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "previous state is intact; fix the state directory and re-run"),
		)
		return e.finish(r), err
	}

	report := e.finish(r)
	e.logger.Info("reconciliation complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("created", report.Created),
		logging.Int("updated", report.Updated),
		logging.Int("unchanged", report.Unchanged),
		logging.Int("missing", report.Missing),
		logging.Int("orphaned", report.Orphaned),
		logging.Int("collisions", report.Collisions),
		logging.Int("failed", report.Failed+report.PermissionDenied+report.Invalid),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

func (e *Engine) finish(r *run) Report {
	r.report.Duration = e.now().Sub(r.startedAt)
	return r.report
}

// processWithRequalified handles rec and then any records the collision
// resolver moved off their bare names, so they are re-projected this run.
func (e *Engine) processWithRequalified(ctx context.Context, r *run, rec catalog.Record) error {
	pending := []catalog.Record{rec}
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]
		if _, seen := r.done[next.ID]; seen && next.ID != "" {
			e.logger.Debug("duplicate record skipped", logging.String(logging.FieldRecordID, next.ID))
			continue
		}
		requalify, err := e.process(ctx, r, next)
		if err != nil {
			return err
		}
		for _, id := range requalify {
			// Already handled this run: its entry was just dropped, so it
			// must be processed again under the qualified name.
			delete(r.done, id)
			if other, ok := r.catalog[id]; ok {
				pending = append(pending, other)
			}
		}
	}
	return nil
}

// process reconciles one record and returns identifiers to requalify. Only
// fatal errors are returned; everything else is recorded in the report.
func (e *Engine) process(ctx context.Context, r *run, rec catalog.Record) ([]string, error) {
	ctx = services.WithRecordID(ctx, rec.ID)
	logger := logging.WithContext(ctx, e.logger)
	r.report.Considered++

	if err := rec.Validate(); err != nil {
		r.report.Invalid++
		e.recordFailure(r, rec.ID, err)
		logging.WarnWithContext(logger, "record rejected", "record_invalid",
			logging.Error(err),
			logging.String(logging.FieldImpact, "record skipped this run"),
		)
		return nil, nil
	}
	r.done[rec.ID] = struct{}{}

	target, err := e.layout.Resolve(rec)
	if err != nil {
		e.fail(ctx, r, rec.ID, err)
		return nil, nil
	}

	decision, err := e.collisions.Resolve(ctx, rec.ID, target.BareName)
	if err != nil {
		if services.IsFatal(err) {
			logging.CriticalWithContext(logger, "collision decision not persisted", "collision_persist_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the state database; the run was aborted before flushing"),
			)
			return nil, err
		}
		e.fail(ctx, r, rec.ID, err)
		return nil, nil
	}
	if decision.Detected {
		r.report.Collisions++
	}
	r.report.Requalified += len(decision.Requalify)

	located, err := e.locate(rec.SourcePath)
	if err != nil {
		if errors.Is(err, services.ErrSourceUnavailable) {
			if _, counted := r.missing[rec.ID]; !counted {
				r.report.Missing++
			}
			r.missing[rec.ID] = struct{}{}
			logger.Info("source not found; existing artifacts kept",
				logging.String(logging.FieldEventType, "record_missing"),
				logging.String("state", string(StateMissing)),
				logging.String("reported_path", rec.SourcePath),
			)
			return decision.Requalify, nil
		}
		e.fail(ctx, r, rec.ID, err)
		return decision.Requalify, nil
	}
	r.located[rec.ID] = struct{}{}

	modTime, err := sourceModTime(rec, located)
	if err != nil {
		e.fail(ctx, r, rec.ID, err)
		return decision.Requalify, nil
	}

	prev, hasPrev := e.store.Entry(rec.ID)
	recordState := StateUnseen
	if hasPrev {
		recordState = StateStale
		if e.projector.Unchanged(prev, located, modTime) {
			recordState = StateProcessed
		}
	}
	if recordState == StateProcessed {
		r.report.Unchanged++
		logger.Debug("record unchanged", logging.String("state", string(recordState)))
		return decision.Requalify, nil
	}

	req := projector.Request{Record: rec, Target: target, Filename: decision.Filename, Source: located}
	if hasPrev {
		req.Previous = &prev
	}
	artifact, err := e.projector.Project(ctx, req)
	if err != nil {
		if hasPrev && !fileutil.IsSymlink(prev.LinkPath) {
			// The old pair was rolled back with the failed projection.
			e.store.DeleteEntry(rec.ID)
		}
		e.fail(ctx, r, rec.ID, err)
		return decision.Requalify, nil
	}

	if !rec.IsMovie() && target.ShowDir != "" {
		if _, err := e.projector.EnsureSeriesDescriptor(ctx, target.ShowDir, rec); err != nil {
			logging.WarnWithContext(logger, "series descriptor not written", "series_descriptor_failed",
				logging.String("show_dir", target.ShowDir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "show metadata falls back to episode descriptors"),
			)
		}
	}

	e.store.PutEntry(state.Entry{
		RecordID:       rec.ID,
		SourcePath:     located,
		ModTime:        modTime,
		Filename:       decision.Filename,
		LinkPath:       artifact.LinkPath,
		DescriptorPath: artifact.DescriptorPath,
		Collided:       decision.Collided,
		UpdatedAt:      e.now().UTC(),
	})
	if hasPrev {
		r.report.Updated++
	} else {
		r.report.Created++
	}
	logger.Info("artifact projected",
		logging.String(logging.FieldEventType, "record_projected"),
		logging.String("state", string(recordState)),
		logging.String("filename", decision.Filename),
		logging.Bool("collided", decision.Collided),
	)
	return decision.Requalify, nil
}

// cleanupOrphans removes entries whose record left the catalog, or whose
// source was not located this run and is confirmed absent on disk. That
// covers records beyond the processing limit and records that failed before
// their source was located. The pass itself is never truncated.
func (e *Engine) cleanupOrphans(ctx context.Context, r *run) error {
	for _, entry := range e.store.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, inCatalog := r.catalog[entry.RecordID]
		if inCatalog {
			if _, ok := r.located[entry.RecordID]; ok || !sourcefile.ConfirmedAbsent(entry.SourcePath) {
				continue
			}
		}
		reason := "not in catalog"
		if inCatalog {
			reason = "source deleted"
		}
		recCtx := services.WithRecordID(ctx, entry.RecordID)
		if err := e.projector.RemoveEntry(recCtx, entry); err != nil {
			e.fail(recCtx, r, entry.RecordID, err)
			continue
		}
		e.store.DeleteEntry(entry.RecordID)
		r.report.Orphaned++
		logging.WithContext(recCtx, e.logger).Info("orphaned artifact removed",
			logging.String(logging.FieldEventType, "record_orphaned"),
			logging.String("state", string(StateOrphaned)),
			logging.String("reason", reason),
			logging.String("filename", entry.Filename),
		)
	}
	return nil
}

func (e *Engine) fail(ctx context.Context, r *run, id string, err error) {
	logger := logging.WithContext(ctx, e.logger)
	if errors.Is(err, services.ErrPermissionDenied) {
		r.report.PermissionDenied++
		e.recordFailure(r, id, err)
		logging.CriticalWithContext(logger, "permission denied writing library", "permission_denied",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check ownership of the target root; later records will likely fail too"),
		)
		return
	}
	r.report.Failed++
	e.recordFailure(r, id, err)
	logging.WarnWithContext(logger, "record failed", "record_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "record skipped this run"),
	)
}

func (e *Engine) recordFailure(r *run, id string, err error) {
	r.report.Failures = append(r.report.Failures, RecordFailure{
		RecordID: id,
		Outcome:  services.Outcome(err),
		Error:    err.Error(),
	})
}

func sourceModTime(rec catalog.Record, located string) (time.Time, error) {
	if !rec.ModTime.IsZero() {
		return rec.ModTime.UTC(), nil
	}
	info, err := os.Stat(located)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat source %s: %w", located, err)
	}
	return info.ModTime().UTC(), nil
}
