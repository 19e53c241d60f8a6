package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"schutztat/internal/bootstrap/logging"
	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/ports"
)

const (
	skipReasonNoAPIKey = "remote api key not configured"
	skipReasonLeased   = "another sync for this entity is running"
)

// tally survives an aborted page loop so that partial progress is recorded.
type tally struct {
	pages   int
	fetched int
	created int
	updated int
}

// Run performs one sync of input.Entity. Sync failures end up on the audit
// record and in the result; the returned error is reserved for failures to
// open or finalize that record.
func (s *Service) Run(ctx context.Context, input RunInput) (RunResult, error) {
	if ctx == nil {
		return RunResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return RunResult{}, errs.Wrap(err, "check context")
	}

	mapping, ok := MappingFor(input.Entity)
	if !ok {
		return RunResult{}, fmt.Errorf("%w: %q", riskhub.ErrUnknownEntity, input.Entity)
	}
	settings := input.Settings.normalized()
	result := RunResult{Entity: input.Entity}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "ingest.sync"),
		slog.String("entity", string(input.Entity)),
	)

	if strings.TrimSpace(settings.Remote.APIKey) == "" && settings.APIKeySecret != "" && s.secrets != nil {
		key, err := s.secrets.Secret(ctx, settings.APIKeySecret)
		if err != nil {
			logging.Warn(logCtx, "resolve api key secret failed", slog.Any("err", errs.Loggable(err)))
		} else {
			settings.Remote.APIKey = key
		}
	}
	if strings.TrimSpace(settings.Remote.APIKey) == "" {
		logging.Warn(logCtx, "sync skipped", slog.String("reason", skipReasonNoAPIKey))
		result.Skipped = true
		result.SkipReason = skipReasonNoAPIKey
		return result, nil
	}
	source, err := s.sources(settings.Remote)
	if err != nil {
		if errors.Is(err, riskhub.ErrConfigurationMissing) {
			logging.Warn(logCtx, "sync skipped", slog.String("reason", err.Error()))
			result.Skipped = true
			result.SkipReason = err.Error()
			return result, nil
		}
		return result, errs.Wrap(err, "build remote source")
	}

	runKey := s.newRunKey()
	keepAlive := func(context.Context) error { return nil }
	if s.lease != nil {
		key := leaseKey(input.Entity)
		holder := s.process + "/" + runKey
		acquired, err := s.lease.Acquire(ctx, key, holder, settings.LeaseTTL)
		if err != nil {
			return result, errs.Wrapf(err, "acquire lease %s", key)
		}
		if !acquired {
			logging.Info(logCtx, "sync skipped", slog.String("reason", skipReasonLeased))
			result.Skipped = true
			result.SkipReason = skipReasonLeased
			return result, nil
		}
		defer func() {
			if err := s.lease.Release(context.WithoutCancel(ctx), key, holder); err != nil {
				logging.Warn(logCtx, "release lease failed", slog.Any("err", errs.Loggable(err)))
			}
		}()
		// Renewing extends the expiry; it fails once another holder took over.
		keepAlive = func(ctx context.Context) error {
			renewed, err := s.lease.Acquire(ctx, key, holder, settings.LeaseTTL)
			if err != nil {
				return errs.Wrapf(err, "renew lease %s", key)
			}
			if !renewed {
				return fmt.Errorf("%w: %s", riskhub.ErrLeaseLost, key)
			}
			return nil
		}
	}

	startedAt := s.now().UTC()
	run, err := s.runs.Create(ctx, ports.SyncRunCreate{
		RunKey:     runKey,
		EntityType: input.Entity,
		StartedAt:  startedAt,
	})
	if err != nil {
		return result, errs.Wrap(err, "create sync run")
	}
	result.RunID = run.ID
	result.RunKey = run.RunKey
	logCtx = logging.WithAttrs(logCtx,
		slog.String("run_key", run.RunKey),
		slog.Uint64("run_id", run.ID),
	)
	logging.Info(logCtx, "sync started")

	counts, runErr := s.pull(logCtx, source, mapping, settings, keepAlive)

	var stats riskhub.RunStats
	if input.Entity.HasParents() {
		linked, linkErr := s.guardedLink(ctx, input.Entity)
		stats.LinkedAssessment = linked.Assessment
		stats.LinkedHazard = linked.Hazard
		stats.PendingLinks = linked.Pending
		if linkErr != nil {
			runErr = errors.Join(runErr, linkErr)
		}
		if s.metrics != nil {
			s.metrics.PendingLinks(string(input.Entity), linked.Pending)
		}
	}

	stats.Pages = counts.pages
	stats.Fetched = counts.fetched
	status := riskhub.RunDone
	var message string
	if runErr != nil {
		status = riskhub.RunError
		message = runErr.Error()
		stats.ErrorKind = riskhub.ErrorKind(runErr)
	}

	finishedAt := s.now().UTC()
	result.Status = status
	result.Created = counts.created
	result.Updated = counts.updated
	result.Stats = stats
	result.ErrorMessage = message

	if err := s.runs.Finish(context.WithoutCancel(ctx), run.ID, ports.SyncRunFinish{
		Status:       status,
		FinishedAt:   finishedAt,
		CreatedCount: counts.created,
		UpdatedCount: counts.updated,
		ErrorMessage: message,
		Stats:        stats,
	}); err != nil {
		logging.Error(logCtx, "finalize sync run failed", slog.Any("err", errs.Loggable(err)))
		return result, errs.Wrapf(err, "finish sync run %d", run.ID)
	}

	duration := finishedAt.Sub(startedAt)
	if s.metrics != nil {
		s.metrics.RunFinished(string(input.Entity), string(status), duration)
	}

	summary := []slog.Attr{
		slog.String("status", string(status)),
		slog.Int("created", counts.created),
		slog.Int("updated", counts.updated),
		slog.Int("pages", counts.pages),
		slog.Int("pending_links", stats.PendingLinks),
		slog.Duration("duration", duration),
	}
	if runErr != nil {
		summary = append(summary, slog.String("error_kind", stats.ErrorKind), slog.Any("err", errs.Loggable(runErr)))
		logging.Error(logCtx, "sync finished with error", summary...)
	} else {
		logging.Info(logCtx, "sync finished", summary...)
	}
	return result, nil
}

// pull walks the remote collection page by page until a short or empty page.
// The first failure aborts the walk; records stored before it stay stored.
// keepAlive runs after every full page.
func (s *Service) pull(ctx context.Context, source ports.RemoteSource, mapping Mapping, settings Settings, keepAlive func(context.Context) error) (counts tally, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.WithStack(fmt.Errorf("panic during %s sync: %v", mapping.Entity, r))
		}
	}()

	endpoint := mapping.Entity.Endpoint()
	for offset := 0; ; offset += settings.PageSize {
		if err := ctx.Err(); err != nil {
			return counts, errs.Wrap(err, "check context")
		}

		items, err := source.FetchPage(ctx, endpoint, offset, settings.PageSize)
		if err != nil {
			return counts, errs.Wrapf(err, "fetch %s offset %d", mapping.Entity, offset)
		}
		counts.pages++
		counts.fetched += len(items)
		logging.Debug(ctx, "page fetched", slog.Int("offset", offset), slog.Int("items", len(items)))

		for i, item := range items {
			record, err := Map(item, mapping, s.now())
			if err != nil {
				return counts, errs.Wrapf(err, "item %d at offset %d", i, offset)
			}
			outcome, err := s.upsert(ctx, mapping, record, settings.Policy)
			if err != nil {
				return counts, errs.Wrapf(err, "upsert %s item %d at offset %d", mapping.Entity, i, offset)
			}
			switch outcome {
			case OutcomeCreated:
				counts.created++
			case OutcomeUpdated:
				counts.updated++
			}
			if s.metrics != nil {
				s.metrics.RecordUpserted(string(mapping.Entity), string(outcome))
			}
		}

		if len(items) < settings.PageSize {
			return counts, nil
		}
		if err := keepAlive(ctx); err != nil {
			return counts, err
		}
	}
}

// guardedLink turns a panic during linking into a link failure so that the
// run still reaches a terminal status.
func (s *Service) guardedLink(ctx context.Context, entity riskhub.EntityType) (stats LinkStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.Mark(errs.WithStack(fmt.Errorf("panic during %s linking: %v", entity, r)), riskhub.ErrLinkFailed)
		}
	}()
	return s.link(ctx, entity)
}

func leaseKey(entity riskhub.EntityType) string {
	return "sync:" + string(entity)
}

func (s *Service) SyncAssessments(ctx context.Context, settings Settings) (RunResult, error) {
	return s.Run(ctx, RunInput{Entity: riskhub.EntityAssessments, Settings: settings})
}

func (s *Service) SyncHazards(ctx context.Context, settings Settings) (RunResult, error) {
	return s.Run(ctx, RunInput{Entity: riskhub.EntityHazards, Settings: settings})
}

func (s *Service) SyncActions(ctx context.Context, settings Settings) (RunResult, error) {
	return s.Run(ctx, RunInput{Entity: riskhub.EntityActions, Settings: settings})
}
